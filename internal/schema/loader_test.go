package schema

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSpec = `
roles:
  - name: anon
    can_login: false
  - name: service_role
    can_login: true
tables:
  - name: transactions_fmcg
    rls_enabled: true
    columns:
      - name: id
        type: uuid
        nullable: false
        default: gen_random_uuid()
      - name: total_amount
        type: numeric
        nullable: false
    policies:
      - name: transactions_read_all
        command: SELECT
        roles: [anon]
        using: "true"
views:
  - name: daily_revenue
    definition: SELECT transaction_date, sum(total_amount) FROM transactions_fmcg GROUP BY 1
functions:
  - name: get_dashboard_summary
    parameters: filters jsonb
    returns: jsonb
    language: plpgsql
    security: definer
snapshot:
  taken_at: "2024-06-01T00:00:00Z"
  kpis:
    total_revenue: 1234567.89
    transactions: 15000
    avg_order_value: 82.3
    units_sold: 21750
    unique_customers: 4821
    gross_margin_pct: 68.0
`

func TestParse(t *testing.T) {
	doc, err := Parse([]byte(sampleSpec))
	require.NoError(t, err)

	assert.Len(t, doc.Roles, 2)
	require.Len(t, doc.Tables, 1)

	table := doc.Tables[0]
	assert.Equal(t, "transactions_fmcg", table.Name)
	assert.True(t, table.RLSEnabled)
	require.Len(t, table.Columns, 2)
	assert.Equal(t, "gen_random_uuid()", table.Columns[0].Default)
	require.Len(t, table.Policies, 1)
	assert.Equal(t, []string{"anon"}, table.Policies[0].Roles)

	assert.Len(t, doc.Views, 1)
	assert.Len(t, doc.Functions, 1)

	require.NotNil(t, doc.Snapshot)
	assert.Equal(t, 68.0, doc.Snapshot.KPIs["gross_margin_pct"])
	assert.Equal(t, float64(15000), doc.Snapshot.KPIs["transactions"])
}

func TestParse_MissingSectionsAreEmpty(t *testing.T) {
	doc, err := Parse([]byte("tables: []\n"))
	require.NoError(t, err)
	assert.Empty(t, doc.Roles)
	assert.Empty(t, doc.Tables)
	assert.Empty(t, doc.Views)
	assert.Empty(t, doc.Functions)
	assert.Nil(t, doc.Snapshot)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", ":\n\t- ["},
		{"column without a type", "tables:\n  - name: t\n    columns:\n      - name: c\n"},
		{"table without a name", "tables:\n  - rls_enabled: true\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestLoader_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/spec.yaml":
			w.Write([]byte(sampleSpec))
		case "/override.yaml":
			w.Write([]byte("roles:\n  - name: auditor\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(server.URL+"/spec.yaml", 5*time.Second)

	t.Run("configured url", func(t *testing.T) {
		doc, err := loader.Fetch(context.Background(), "")
		require.NoError(t, err)
		assert.Len(t, doc.Tables, 1)
	})

	t.Run("override url wins", func(t *testing.T) {
		doc, err := loader.Fetch(context.Background(), server.URL+"/override.yaml")
		require.NoError(t, err)
		require.Len(t, doc.Roles, 1)
		assert.Equal(t, "auditor", doc.Roles[0].Name)
	})

	t.Run("http error is fatal", func(t *testing.T) {
		_, err := loader.Fetch(context.Background(), server.URL+"/missing.yaml")
		assert.Error(t, err)
	})
}
