// Package drift compares a declared expected schema against the
// introspected live catalog. The comparison is a single pure pass with
// explicit field-by-field equality; serialized-form comparison is avoided
// so key ordering can never fake a finding.
package drift

import (
	"fmt"
	"slices"

	"github.com/scoutlabs/retailboard/internal/schema"
)

// Modification pairs the expected and actual value of one changed object.
type Modification struct {
	Name     string `json:"name"`
	Expected any    `json:"expected"`
	Actual   any    `json:"actual"`
}

// Report is the structured diff. Missing and Modified drive HasDrift; Extra
// lists catalog objects the spec does not declare and is informational only.
type Report struct {
	HasDrift bool           `json:"hasDrift"`
	Missing  []string       `json:"missing"`
	Extra    []string       `json:"extra"`
	Modified []Modification `json:"modified"`
}

func (r *Report) missing(format string, args ...any) {
	r.Missing = append(r.Missing, fmt.Sprintf(format, args...))
	r.HasDrift = true
}

func (r *Report) modified(name string, expected, actual any) {
	r.Modified = append(r.Modified, Modification{Name: name, Expected: expected, Actual: actual})
	r.HasDrift = true
}

// Detect walks the expected schema in declared order: roles, then tables
// (columns, RLS flag, policies), then views, then functions. The order only
// fixes the report layout; the finding set is what matters.
func Detect(expected, actual *schema.Schema) *Report {
	report := &Report{
		Missing:  []string{},
		Extra:    []string{},
		Modified: []Modification{},
	}
	if expected == nil {
		expected = &schema.Schema{}
	}
	if actual == nil {
		actual = &schema.Schema{}
	}

	compareRoles(expected.Roles, actual.Roles, report)
	compareTables(expected.Tables, actual.Tables, report)
	compareViews(expected.Views, actual.Views, report)
	compareFunctions(expected.Functions, actual.Functions, report)

	return report
}

func compareRoles(expected, actual []schema.Role, report *Report) {
	actualByName := make(map[string]schema.Role, len(actual))
	for _, role := range actual {
		actualByName[role.Name] = role
	}

	expectedNames := make(map[string]struct{}, len(expected))
	for _, want := range expected {
		expectedNames[want.Name] = struct{}{}
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("Role: %s", want.Name)
			continue
		}
		if want != got {
			report.modified("Role: "+want.Name, want, got)
		}
	}

	for _, role := range actual {
		if _, ok := expectedNames[role.Name]; !ok {
			report.Extra = append(report.Extra, "Role: "+role.Name)
		}
	}
}

func compareTables(expected, actual []schema.Table, report *Report) {
	actualByName := make(map[string]schema.Table, len(actual))
	for _, table := range actual {
		actualByName[table.Name] = table
	}

	expectedNames := make(map[string]struct{}, len(expected))
	for _, want := range expected {
		expectedNames[want.Name] = struct{}{}
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("Table: %s", want.Name)
			continue
		}

		compareColumns(want.Name, want.Columns, got.Columns, report)

		if want.RLSEnabled != got.RLSEnabled {
			report.modified(want.Name+".rls_enabled", want.RLSEnabled, got.RLSEnabled)
		}

		comparePolicies(want.Name, want.Policies, got.Policies, report)
	}

	for _, table := range actual {
		if _, ok := expectedNames[table.Name]; !ok {
			report.Extra = append(report.Extra, "Table: "+table.Name)
		}
	}
}

func compareColumns(tableName string, expected, actual []schema.Column, report *Report) {
	actualByName := make(map[string]schema.Column, len(actual))
	for _, col := range actual {
		actualByName[col.Name] = col
	}

	for _, want := range expected {
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("Column: %s.%s", tableName, want.Name)
			continue
		}
		if !columnsEqual(want, got) {
			report.modified(tableName+"."+want.Name, want, got)
		}
	}
}

// columnsEqual is full structural equality over every column attribute.
func columnsEqual(a, b schema.Column) bool {
	return a.Name == b.Name &&
		a.Type == b.Type &&
		a.Nullable == b.Nullable &&
		a.Default == b.Default
}

func comparePolicies(tableName string, expected, actual []schema.Policy, report *Report) {
	actualByName := make(map[string]schema.Policy, len(actual))
	for _, policy := range actual {
		actualByName[policy.Name] = policy
	}

	for _, want := range expected {
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("Policy: %s.%s", tableName, want.Name)
			continue
		}
		if !policiesEqual(want, got) {
			report.modified(tableName+"."+want.Name, want, got)
		}
	}
}

func policiesEqual(a, b schema.Policy) bool {
	return a.Name == b.Name &&
		a.Command == b.Command &&
		slices.Equal(a.Roles, b.Roles) &&
		a.Using == b.Using &&
		a.Check == b.Check
}

func compareViews(expected, actual []schema.View, report *Report) {
	actualByName := make(map[string]schema.View, len(actual))
	for _, view := range actual {
		actualByName[view.Name] = view
	}

	for _, want := range expected {
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("View: %s", want.Name)
			continue
		}
		if !viewsEqual(want, got) {
			report.modified("View: "+want.Name, want, got)
		}
	}
}

func viewsEqual(a, b schema.View) bool {
	if a.Name != b.Name || a.Definition != b.Definition || a.RLSEnabled != b.RLSEnabled {
		return false
	}
	if len(a.Policies) != len(b.Policies) {
		return false
	}
	for i := range a.Policies {
		if !policiesEqual(a.Policies[i], b.Policies[i]) {
			return false
		}
	}
	return true
}

func compareFunctions(expected, actual []schema.Function, report *Report) {
	actualByName := make(map[string]schema.Function, len(actual))
	for _, fn := range actual {
		actualByName[fn.Name] = fn
	}

	for _, want := range expected {
		got, ok := actualByName[want.Name]
		if !ok {
			report.missing("Function: %s", want.Name)
			continue
		}
		if want != got {
			report.modified("Function: "+want.Name, want, got)
		}
	}
}
