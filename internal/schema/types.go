// Package schema declares the expected-schema document: the structural
// contract the live database is audited against, plus the dashboard KPI
// snapshot block carried in the same file.
package schema

// Role is a database role with its login/superuser flags.
type Role struct {
	Name      string `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	CanLogin  bool   `yaml:"can_login" json:"can_login"`
	Superuser bool   `yaml:"superuser" json:"superuser"`
}

// Column identity is its name within the parent table; every attribute
// participates in drift comparison.
type Column struct {
	Name     string `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	Type     string `yaml:"type" json:"type" validate:"required,min=1,max=255"`
	Nullable bool   `yaml:"nullable" json:"nullable"`
	Default  string `yaml:"default,omitempty" json:"default,omitempty"`
}

// Policy is a row-level-security policy attached to a table.
type Policy struct {
	Name    string   `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	Command string   `yaml:"command,omitempty" json:"command,omitempty"`
	Roles   []string `yaml:"roles,omitempty" json:"roles,omitempty"`
	Using   string   `yaml:"using,omitempty" json:"using,omitempty"`
	Check   string   `yaml:"check,omitempty" json:"check,omitempty"`
}

type Table struct {
	Name       string   `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	Columns    []Column `yaml:"columns" json:"columns" validate:"dive"`
	RLSEnabled bool     `yaml:"rls_enabled" json:"rls_enabled"`
	Policies   []Policy `yaml:"policies,omitempty" json:"policies,omitempty" validate:"omitempty,dive"`
}

type View struct {
	Name       string   `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	Definition string   `yaml:"definition,omitempty" json:"definition,omitempty"`
	RLSEnabled bool     `yaml:"rls_enabled" json:"rls_enabled"`
	Policies   []Policy `yaml:"policies,omitempty" json:"policies,omitempty" validate:"omitempty,dive"`
}

type Function struct {
	Name       string `yaml:"name" json:"name" validate:"required,min=1,max=255"`
	Parameters string `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Returns    string `yaml:"returns,omitempty" json:"returns,omitempty"`
	Language   string `yaml:"language,omitempty" json:"language,omitempty"`
	Security   string `yaml:"security,omitempty" json:"security,omitempty"`
	Body       string `yaml:"body,omitempty" json:"body,omitempty"`
}

// Snapshot is the recorded dashboard KPI block, refreshed by the snapshot
// endpoint and consumed by the external audit scripts.
type Snapshot struct {
	TakenAt string             `yaml:"taken_at,omitempty" json:"taken_at,omitempty"`
	KPIs    map[string]float64 `yaml:"kpis,omitempty" json:"kpis,omitempty"`
}

// Schema is the full document. The same tree describes both the declared
// expectation (parsed from YAML) and the introspected live catalog. Missing
// sections are empty collections, never errors.
type Schema struct {
	Roles     []Role     `yaml:"roles,omitempty" json:"roles,omitempty" validate:"omitempty,dive"`
	Tables    []Table    `yaml:"tables,omitempty" json:"tables,omitempty" validate:"omitempty,dive"`
	Views     []View     `yaml:"views,omitempty" json:"views,omitempty" validate:"omitempty,dive"`
	Functions []Function `yaml:"functions,omitempty" json:"functions,omitempty" validate:"omitempty,dive"`
	Snapshot  *Snapshot  `yaml:"snapshot,omitempty" json:"snapshot,omitempty"`
}
