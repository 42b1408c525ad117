// Package query derives backend query descriptions from filter selections.
// The output is a description handed to the execution layer, not a statement
// sent to the database as-is.
package query

import (
	"fmt"
	"strings"
	"time"
)

const isoDate = "2006-01-02"

// Filters is the single-choice filter shape used by the retail bot surface:
// one value per dimension plus a textual date-range keyword.
type Filters struct {
	Region    string
	DateRange string
	Brand     string
	Category  string
	Store     string
}

// Params describes a backend query: base table, projection and WHERE clause
// list. GroupBy, OrderBy and Limit are filled by the aggregate layer.
type Params struct {
	Select  string
	From    string
	Where   []string
	GroupBy []string
	OrderBy string
	Limit   int
}

const DefaultBaseTable = "transactions_fmcg"

// BuildFromFilters maps a filter selection to query parameters. Pure and
// deterministic apart from the clock used for date keywords; absent fields
// are omitted from the WHERE list and nothing here can fail.
func BuildFromFilters(filters Filters, baseTable string) Params {
	return buildFromFiltersAt(filters, baseTable, time.Now())
}

func buildFromFiltersAt(filters Filters, baseTable string, now time.Time) Params {
	if baseTable == "" {
		baseTable = DefaultBaseTable
	}
	params := Params{
		Select: "*",
		From:   baseTable,
		Where:  []string{},
	}

	if filters.Region != "" {
		params.Where = append(params.Where,
			fmt.Sprintf("region_id IN (SELECT id FROM regions_fmcg WHERE name = '%s')", quote(filters.Region)))
	}

	if filters.DateRange != "" {
		window := ResolveDateKeywordAt(filters.DateRange, now)
		params.Where = append(params.Where,
			fmt.Sprintf("transaction_date >= '%s' AND transaction_date <= '%s'", window.Start, window.End))
	}

	if filters.Brand != "" {
		params.Where = append(params.Where,
			fmt.Sprintf("brand_id IN (SELECT id FROM brands_fmcg WHERE name ILIKE '%%%s%%')", quote(filters.Brand)))
	}

	if filters.Category != "" {
		params.Where = append(params.Where,
			fmt.Sprintf("category_id IN (SELECT id FROM categories_fmcg WHERE name ILIKE '%%%s%%')", quote(filters.Category)))
	}

	if filters.Store != "" {
		params.Where = append(params.Where,
			fmt.Sprintf("store_id IN (SELECT id FROM stores_fmcg WHERE name ILIKE '%%%s%%')", quote(filters.Store)))
	}

	return params
}

// quote doubles embedded single quotes so a filter value cannot terminate
// the literal in the generated clause.
func quote(value string) string {
	return strings.ReplaceAll(value, "'", "''")
}

// Window is a concrete [start, end] date pair, both inclusive ISO dates.
type Window struct {
	Start string
	End   string
}

// ResolveDateKeyword maps a textual range keyword to a concrete window
// anchored at the current time.
func ResolveDateKeyword(keyword string) Window {
	return ResolveDateKeywordAt(keyword, time.Now())
}

// ResolveDateKeywordAt resolves a keyword against an explicit now. The end
// bound is always today; unrecognized keywords fall back to the last 30
// days. "Today" starts at local midnight of the current day.
func ResolveDateKeywordAt(keyword string, now time.Time) Window {
	end := now.Format(isoDate)

	var start time.Time
	switch keyword {
	case "Today":
		start = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	case "Last 7 days":
		start = now.AddDate(0, 0, -7)
	case "Last 30 days":
		start = now.AddDate(0, 0, -30)
	case "Last 90 days":
		start = now.AddDate(0, 0, -90)
	case "This month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case "Last month":
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, now.Location())
	case "This quarter":
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		start = time.Date(now.Year(), quarterStart, 1, 0, 0, 0, 0, now.Location())
	case "Last quarter":
		quarterStart := time.Month((int(now.Month())-1)/3*3 + 1)
		start = time.Date(now.Year(), quarterStart-3, 1, 0, 0, 0, 0, now.Location())
	case "This year":
		start = time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
	default:
		start = now.AddDate(0, 0, -30)
	}

	return Window{Start: start.Format(isoDate), End: end}
}
