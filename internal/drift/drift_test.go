package drift

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scoutlabs/retailboard/internal/schema"
)

func baselineSchema() *schema.Schema {
	return &schema.Schema{
		Roles: []schema.Role{
			{Name: "anon"},
			{Name: "service_role", CanLogin: true},
		},
		Tables: []schema.Table{
			{
				Name:       "transactions_fmcg",
				RLSEnabled: true,
				Columns: []schema.Column{
					{Name: "id", Type: "uuid", Default: "gen_random_uuid()"},
					{Name: "total_amount", Type: "numeric"},
					{Name: "transaction_date", Type: "date"},
				},
				Policies: []schema.Policy{
					{Name: "transactions_read_all", Command: "SELECT", Roles: []string{"anon"}, Using: "true"},
				},
			},
			{
				Name: "orders",
				Columns: []schema.Column{
					{Name: "id", Type: "bigint"},
				},
			},
		},
		Views: []schema.View{
			{Name: "daily_revenue", Definition: "SELECT 1"},
		},
		Functions: []schema.Function{
			{Name: "get_dashboard_summary", Parameters: "filters jsonb", Returns: "jsonb", Language: "plpgsql"},
		},
	}
}

func TestDetect_NoDrift(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()

	report := Detect(expected, actual)

	assert.False(t, report.HasDrift)
	assert.Empty(t, report.Missing)
	assert.Empty(t, report.Extra)
	assert.Empty(t, report.Modified)
}

func TestDetect_MissingTable(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Tables = actual.Tables[:1] // drop orders

	report := Detect(expected, actual)

	assert.True(t, report.HasDrift)
	assert.Contains(t, report.Missing, "Table: orders")
	assert.Empty(t, report.Modified)
}

func TestDetect_ModifiedColumn(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Tables[0].Columns[1].Type = "double precision"

	report := Detect(expected, actual)

	require.True(t, report.HasDrift)
	require.Len(t, report.Modified, 1)

	mod := report.Modified[0]
	assert.Equal(t, "transactions_fmcg.total_amount", mod.Name)
	assert.Equal(t, expected.Tables[0].Columns[1], mod.Expected)
	assert.Equal(t, actual.Tables[0].Columns[1], mod.Actual)
}

func TestDetect_MissingColumnAndRole(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Roles = actual.Roles[1:]                       // drop anon
	actual.Tables[0].Columns = actual.Tables[0].Columns[:2] // drop transaction_date

	report := Detect(expected, actual)

	assert.True(t, report.HasDrift)
	assert.Contains(t, report.Missing, "Role: anon")
	assert.Contains(t, report.Missing, "Column: transactions_fmcg.transaction_date")
}

func TestDetect_RLSFlagMismatch(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Tables[0].RLSEnabled = false

	report := Detect(expected, actual)

	require.True(t, report.HasDrift)
	require.Len(t, report.Modified, 1)
	assert.Equal(t, "transactions_fmcg.rls_enabled", report.Modified[0].Name)
	assert.Equal(t, true, report.Modified[0].Expected)
	assert.Equal(t, false, report.Modified[0].Actual)
}

func TestDetect_PolicyDrift(t *testing.T) {
	t.Run("missing policy", func(t *testing.T) {
		expected := baselineSchema()
		actual := baselineSchema()
		actual.Tables[0].Policies = nil

		report := Detect(expected, actual)
		assert.Contains(t, report.Missing, "Policy: transactions_fmcg.transactions_read_all")
	})

	t.Run("modified policy roles", func(t *testing.T) {
		expected := baselineSchema()
		actual := baselineSchema()
		actual.Tables[0].Policies[0].Roles = []string{"anon", "service_role"}

		report := Detect(expected, actual)
		require.Len(t, report.Modified, 1)
		assert.Equal(t, "transactions_fmcg.transactions_read_all", report.Modified[0].Name)
	})
}

func TestDetect_ViewAndFunctionDrift(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Views[0].Definition = "SELECT 2"
	actual.Functions = nil

	report := Detect(expected, actual)

	assert.True(t, report.HasDrift)
	assert.Contains(t, report.Missing, "Function: get_dashboard_summary")
	require.Len(t, report.Modified, 1)
	assert.Equal(t, "View: daily_revenue", report.Modified[0].Name)
}

func TestDetect_ExtraObjectsDoNotTriggerDrift(t *testing.T) {
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Tables = append(actual.Tables, schema.Table{Name: "scratch_tmp"})
	actual.Roles = append(actual.Roles, schema.Role{Name: "replicator"})

	report := Detect(expected, actual)

	assert.False(t, report.HasDrift)
	assert.Contains(t, report.Extra, "Table: scratch_tmp")
	assert.Contains(t, report.Extra, "Role: replicator")
}

func TestDetect_MalformedInputsAreEmptyCollections(t *testing.T) {
	report := Detect(nil, nil)
	assert.False(t, report.HasDrift)

	report = Detect(baselineSchema(), &schema.Schema{})
	assert.True(t, report.HasDrift)
	assert.Contains(t, report.Missing, "Role: anon")
	assert.Contains(t, report.Missing, "Table: transactions_fmcg")
	assert.Contains(t, report.Missing, "Table: orders")
	assert.Contains(t, report.Missing, "View: daily_revenue")
}

func TestDetect_KeyOrderCannotFakeDrift(t *testing.T) {
	// Same policy content with the roles slice rebuilt; structural equality
	// must hold regardless of how the values were produced.
	expected := baselineSchema()
	actual := baselineSchema()
	actual.Tables[0].Policies[0].Roles = append([]string{}, "anon")

	report := Detect(expected, actual)
	assert.False(t, report.HasDrift)
}
