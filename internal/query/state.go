package query

import (
	"fmt"
	"strings"

	"github.com/scoutlabs/retailboard/internal/filter"
)

// BuildFromState maps a multi-select filter state to query parameters. This
// is the dashboard-side counterpart of BuildFromFilters: every selected
// value becomes part of an IN list, and the date range carries explicit
// bounds instead of a keyword.
func BuildFromState(state filter.State, baseTable string) Params {
	if baseTable == "" {
		baseTable = DefaultBaseTable
	}
	params := Params{
		Select: "*",
		From:   baseTable,
		Where:  []string{},
	}

	if state.DateRange != nil {
		if state.DateRange.From != "" {
			params.Where = append(params.Where,
				fmt.Sprintf("transaction_date >= '%s'", quote(state.DateRange.From)))
		}
		if state.DateRange.To != "" {
			params.Where = append(params.Where,
				fmt.Sprintf("transaction_date <= '%s'", quote(state.DateRange.To)))
		}
	}

	if len(state.Regions) > 0 {
		params.Where = append(params.Where,
			fmt.Sprintf("region_id IN (SELECT id FROM regions_fmcg WHERE name IN (%s))", quoteList(state.Regions)))
	}
	if len(state.Stores) > 0 {
		params.Where = append(params.Where,
			fmt.Sprintf("store_id IN (SELECT id FROM stores_fmcg WHERE name IN (%s))", quoteList(state.Stores)))
	}
	if len(state.Brands) > 0 {
		params.Where = append(params.Where,
			fmt.Sprintf("brand_id IN (SELECT id FROM brands_fmcg WHERE name IN (%s))", quoteList(state.Brands)))
	}
	if len(state.Categories) > 0 {
		params.Where = append(params.Where,
			fmt.Sprintf("category_id IN (SELECT id FROM categories_fmcg WHERE name IN (%s))", quoteList(state.Categories)))
	}
	if len(state.Barangays) > 0 {
		params.Where = append(params.Where,
			fmt.Sprintf("store_id IN (SELECT id FROM stores_fmcg WHERE barangay IN (%s))", quoteList(state.Barangays)))
	}

	return params
}

// WhereClause joins the clause list into a usable SQL fragment, or an empty
// string when nothing filters.
func (p Params) WhereClause() string {
	if len(p.Where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(p.Where, " AND ")
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + quote(v) + "'"
	}
	return strings.Join(quoted, ", ")
}
