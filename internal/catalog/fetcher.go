// Package catalog introspects the live database structure into the same
// tree the expected-schema document uses, so the two sides of a drift audit
// are directly comparable.
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/scoutlabs/retailboard/internal/schema"
)

// Fetcher reads the actual catalog from Postgres. Every Fetch takes its own
// snapshot; nothing is cached between audit runs.
type Fetcher struct {
	pool       *pgxpool.Pool
	schemaName string
}

func NewFetcher(pool *pgxpool.Pool) *Fetcher {
	return &Fetcher{pool: pool, schemaName: "public"}
}

// Fetch introspects roles, tables (columns, RLS, policies), views and
// functions. A failure in any part aborts the whole fetch; a partial
// catalog would produce a misleading diff.
func (f *Fetcher) Fetch(ctx context.Context) (*schema.Schema, error) {
	catalog := &schema.Schema{}

	roles, err := f.fetchRoles(ctx)
	if err != nil {
		return nil, err
	}
	catalog.Roles = roles

	tables, err := f.fetchTables(ctx)
	if err != nil {
		return nil, err
	}
	catalog.Tables = tables

	views, err := f.fetchViews(ctx)
	if err != nil {
		return nil, err
	}
	catalog.Views = views

	functions, err := f.fetchFunctions(ctx)
	if err != nil {
		return nil, err
	}
	catalog.Functions = functions

	slog.Info("Live catalog introspected",
		"roles", len(catalog.Roles),
		"tables", len(catalog.Tables),
		"views", len(catalog.Views),
		"functions", len(catalog.Functions))
	return catalog, nil
}

func (f *Fetcher) fetchRoles(ctx context.Context) ([]schema.Role, error) {
	sql := `
        SELECT rolname, rolcanlogin, rolsuper
        FROM pg_catalog.pg_roles
        WHERE rolname NOT LIKE 'pg\_%'
        ORDER BY rolname`
	rows, err := f.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog roles: %w", err)
	}
	defer rows.Close()

	var roles []schema.Role
	for rows.Next() {
		var role schema.Role
		if err := rows.Scan(&role.Name, &role.CanLogin, &role.Superuser); err != nil {
			return nil, fmt.Errorf("failed to scan catalog role row: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog role rows: %w", err)
	}
	return roles, nil
}

func (f *Fetcher) fetchTables(ctx context.Context) ([]schema.Table, error) {
	sql := `
        SELECT c.relname, c.relrowsecurity
        FROM pg_catalog.pg_class c
        JOIN pg_catalog.pg_namespace n ON n.oid = c.relnamespace
        WHERE n.nspname = $1 AND c.relkind = 'r'
        ORDER BY c.relname`
	rows, err := f.pool.Query(ctx, sql, f.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog tables: %w", err)
	}
	defer rows.Close()

	var tables []schema.Table
	for rows.Next() {
		var table schema.Table
		if err := rows.Scan(&table.Name, &table.RLSEnabled); err != nil {
			return nil, fmt.Errorf("failed to scan catalog table row: %w", err)
		}
		tables = append(tables, table)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog table rows: %w", err)
	}

	columnsByTable, err := f.fetchColumns(ctx)
	if err != nil {
		return nil, err
	}
	policiesByTable, err := f.fetchPolicies(ctx)
	if err != nil {
		return nil, err
	}

	for i := range tables {
		tables[i].Columns = columnsByTable[tables[i].Name]
		tables[i].Policies = policiesByTable[tables[i].Name]
	}
	return tables, nil
}

func (f *Fetcher) fetchColumns(ctx context.Context) (map[string][]schema.Column, error) {
	sql := `
        SELECT table_name, column_name, data_type,
               is_nullable = 'YES', COALESCE(column_default, '')
        FROM information_schema.columns
        WHERE table_schema = $1
        ORDER BY table_name, ordinal_position`
	rows, err := f.pool.Query(ctx, sql, f.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog columns: %w", err)
	}
	defer rows.Close()

	columns := make(map[string][]schema.Column)
	for rows.Next() {
		var tableName string
		var col schema.Column
		if err := rows.Scan(&tableName, &col.Name, &col.Type, &col.Nullable, &col.Default); err != nil {
			return nil, fmt.Errorf("failed to scan catalog column row: %w", err)
		}
		columns[tableName] = append(columns[tableName], col)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog column rows: %w", err)
	}
	return columns, nil
}

func (f *Fetcher) fetchPolicies(ctx context.Context) (map[string][]schema.Policy, error) {
	sql := `
        SELECT tablename, policyname, COALESCE(cmd, ''),
               COALESCE(roles, '{}'), COALESCE(qual, ''), COALESCE(with_check, '')
        FROM pg_catalog.pg_policies
        WHERE schemaname = $1
        ORDER BY tablename, policyname`
	rows, err := f.pool.Query(ctx, sql, f.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog policies: %w", err)
	}
	defer rows.Close()

	policies := make(map[string][]schema.Policy)
	for rows.Next() {
		var tableName string
		var policy schema.Policy
		if err := rows.Scan(&tableName, &policy.Name, &policy.Command,
			&policy.Roles, &policy.Using, &policy.Check); err != nil {
			return nil, fmt.Errorf("failed to scan catalog policy row: %w", err)
		}
		policies[tableName] = append(policies[tableName], policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog policy rows: %w", err)
	}
	return policies, nil
}

func (f *Fetcher) fetchViews(ctx context.Context) ([]schema.View, error) {
	sql := `
        SELECT viewname, pg_catalog.pg_get_viewdef(quote_ident(schemaname) || '.' || quote_ident(viewname), true)
        FROM pg_catalog.pg_views
        WHERE schemaname = $1
        ORDER BY viewname`
	rows, err := f.pool.Query(ctx, sql, f.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog views: %w", err)
	}
	defer rows.Close()

	var views []schema.View
	for rows.Next() {
		var view schema.View
		if err := rows.Scan(&view.Name, &view.Definition); err != nil {
			return nil, fmt.Errorf("failed to scan catalog view row: %w", err)
		}
		views = append(views, view)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog view rows: %w", err)
	}
	return views, nil
}

func (f *Fetcher) fetchFunctions(ctx context.Context) ([]schema.Function, error) {
	sql := `
        SELECT p.proname,
               pg_catalog.pg_get_function_arguments(p.oid),
               pg_catalog.pg_get_function_result(p.oid),
               l.lanname,
               CASE WHEN p.prosecdef THEN 'definer' ELSE 'invoker' END,
               p.prosrc
        FROM pg_catalog.pg_proc p
        JOIN pg_catalog.pg_namespace n ON n.oid = p.pronamespace
        JOIN pg_catalog.pg_language l ON l.oid = p.prolang
        WHERE n.nspname = $1 AND p.prokind = 'f'
        ORDER BY p.proname`
	rows, err := f.pool.Query(ctx, sql, f.schemaName)
	if err != nil {
		return nil, fmt.Errorf("failed to query catalog functions: %w", err)
	}
	defer rows.Close()

	var functions []schema.Function
	for rows.Next() {
		var fn schema.Function
		if err := rows.Scan(&fn.Name, &fn.Parameters, &fn.Returns,
			&fn.Language, &fn.Security, &fn.Body); err != nil {
			return nil, fmt.Errorf("failed to scan catalog function row: %w", err)
		}
		functions = append(functions, fn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating catalog function rows: %w", err)
	}
	return functions, nil
}
