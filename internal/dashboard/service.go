// Package dashboard implements the aggregate functions behind the dashboard
// RPC surface. Each function derives its WHERE clauses from the caller's
// filter state and reads directly from the retail schema.
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/scoutlabs/retailboard/internal/filter"
	"github.com/scoutlabs/retailboard/internal/query"
	"github.com/scoutlabs/retailboard/internal/schema"
)

// defaultGrossMarginPct is used when product cost data is absent.
var defaultGrossMarginPct = decimal.NewFromFloat(68.0)

type Service struct {
	pool *pgxpool.Pool
}

func NewService(pool *pgxpool.Pool) *Service {
	return &Service{pool: pool}
}

// Summary is the get_dashboard_summary payload.
type Summary struct {
	TotalRevenue        decimal.Decimal `json:"total_revenue"`
	TotalTransactions   int64           `json:"total_transactions"`
	AvgTransactionValue decimal.Decimal `json:"avg_transaction_value"`
	UnitsSold           int64           `json:"units_sold"`
	UniqueCustomers     int64           `json:"unique_customers"`
}

// DistributionRow is one bucket of a categorical breakdown.
type DistributionRow struct {
	Label        string          `json:"label"`
	Transactions int64           `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
}

// TrendRow is one day of the daily trend series.
type TrendRow struct {
	Date         string          `json:"date"`
	Transactions int64           `json:"transactions"`
	Revenue      decimal.Decimal `json:"revenue"`
}

func (s *Service) Summary(ctx context.Context, state filter.State) (*Summary, error) {
	where := query.BuildFromState(state, "").WhereClause()
	sql := fmt.Sprintf(`
        SELECT COALESCE(SUM(total_amount), 0)::text,
               COUNT(*),
               COALESCE(AVG(total_amount), 0)::text,
               COALESCE(SUM(units), 0),
               COUNT(DISTINCT customer_id)
        FROM transactions_fmcg%s`, where)

	var revenue, avg string
	summary := &Summary{}
	err := s.pool.QueryRow(ctx, sql).Scan(
		&revenue, &summary.TotalTransactions, &avg, &summary.UnitsSold, &summary.UniqueCustomers)
	if err != nil {
		return nil, fmt.Errorf("failed to query dashboard summary: %w", err)
	}

	if summary.TotalRevenue, err = decimal.NewFromString(revenue); err != nil {
		return nil, fmt.Errorf("failed to parse total revenue %q: %w", revenue, err)
	}
	if summary.AvgTransactionValue, err = decimal.NewFromString(avg); err != nil {
		return nil, fmt.Errorf("failed to parse avg transaction value %q: %w", avg, err)
	}
	return summary, nil
}

// AgeDistribution groups transactions by customer age bracket.
func (s *Service) AgeDistribution(ctx context.Context, state filter.State) ([]DistributionRow, error) {
	return s.distribution(ctx, state, "age_bracket")
}

// GenderDistribution groups transactions by customer gender.
func (s *Service) GenderDistribution(ctx context.Context, state filter.State) ([]DistributionRow, error) {
	return s.distribution(ctx, state, "gender")
}

func (s *Service) distribution(ctx context.Context, state filter.State, column string) ([]DistributionRow, error) {
	where := query.BuildFromState(state, "").WhereClause()
	sql := fmt.Sprintf(`
        SELECT COALESCE(%s, 'unknown'), COUNT(*), COALESCE(SUM(total_amount), 0)::text
        FROM transactions_fmcg%s
        GROUP BY 1
        ORDER BY 2 DESC`, column, where)
	return s.queryDistribution(ctx, sql, column)
}

// LocationDistribution groups transactions by region name.
func (s *Service) LocationDistribution(ctx context.Context, state filter.State) ([]DistributionRow, error) {
	where := query.BuildFromState(state, "t").WhereClause()
	sql := fmt.Sprintf(`
        SELECT r.name, COUNT(*), COALESCE(SUM(t.total_amount), 0)::text
        FROM transactions_fmcg t
        JOIN regions_fmcg r ON r.id = t.region_id%s
        GROUP BY r.name
        ORDER BY 2 DESC`, where)
	return s.queryDistribution(ctx, sql, "region")
}

// BrandPerformance ranks brands by revenue under the active filters.
func (s *Service) BrandPerformance(ctx context.Context, state filter.State) ([]DistributionRow, error) {
	where := query.BuildFromState(state, "t").WhereClause()
	sql := fmt.Sprintf(`
        SELECT b.name, COUNT(*), COALESCE(SUM(t.total_amount), 0)::text
        FROM transactions_fmcg t
        JOIN brands_fmcg b ON b.id = t.brand_id%s
        GROUP BY b.name
        ORDER BY 3 DESC`, where)
	return s.queryDistribution(ctx, sql, "brand")
}

// CategorySummary ranks product categories by revenue.
func (s *Service) CategorySummary(ctx context.Context, state filter.State) ([]DistributionRow, error) {
	where := query.BuildFromState(state, "t").WhereClause()
	sql := fmt.Sprintf(`
        SELECT c.name, COUNT(*), COALESCE(SUM(t.total_amount), 0)::text
        FROM transactions_fmcg t
        JOIN categories_fmcg c ON c.id = t.category_id%s
        GROUP BY c.name
        ORDER BY 3 DESC`, where)
	return s.queryDistribution(ctx, sql, "category")
}

func (s *Service) queryDistribution(ctx context.Context, sql, kind string) ([]DistributionRow, error) {
	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query %s distribution: %w", kind, err)
	}
	defer rows.Close()

	out, err := scanDistribution(rows)
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s distribution: %w", kind, err)
	}
	return out, nil
}

func scanDistribution(rows pgx.Rows) ([]DistributionRow, error) {
	var out []DistributionRow
	for rows.Next() {
		var row DistributionRow
		var revenue string
		if err := rows.Scan(&row.Label, &row.Transactions, &revenue); err != nil {
			return nil, err
		}
		parsed, err := decimal.NewFromString(revenue)
		if err != nil {
			return nil, err
		}
		row.Revenue = parsed
		out = append(out, row)
	}
	return out, rows.Err()
}

// DailyTrends returns per-day transaction counts and revenue.
func (s *Service) DailyTrends(ctx context.Context, state filter.State) ([]TrendRow, error) {
	where := query.BuildFromState(state, "").WhereClause()
	sql := fmt.Sprintf(`
        SELECT transaction_date::text, COUNT(*), COALESCE(SUM(total_amount), 0)::text
        FROM transactions_fmcg%s
        GROUP BY transaction_date
        ORDER BY transaction_date`, where)

	rows, err := s.pool.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to query daily trends: %w", err)
	}
	defer rows.Close()

	var out []TrendRow
	for rows.Next() {
		var row TrendRow
		var revenue string
		if err := rows.Scan(&row.Date, &row.Transactions, &revenue); err != nil {
			return nil, fmt.Errorf("failed to scan daily trend row: %w", err)
		}
		if row.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("failed to parse daily revenue %q: %w", revenue, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily trend rows: %w", err)
	}
	return out, nil
}

// Snapshot recomputes the KPI block over the unfiltered dataset, including
// the gross-margin join against product cost data.
func (s *Service) Snapshot(ctx context.Context) (*schema.Snapshot, error) {
	summary, err := s.Summary(ctx, filter.NewState())
	if err != nil {
		return nil, err
	}

	margin, err := s.grossMarginPct(ctx)
	if err != nil {
		return nil, err
	}

	revenue, _ := summary.TotalRevenue.Float64()
	avg, _ := summary.AvgTransactionValue.Float64()
	marginValue, _ := margin.Float64()

	return &schema.Snapshot{
		TakenAt: time.Now().UTC().Format(time.RFC3339),
		KPIs: map[string]float64{
			"total_revenue":    revenue,
			"transactions":     float64(summary.TotalTransactions),
			"avg_order_value":  avg,
			"units_sold":       float64(summary.UnitsSold),
			"unique_customers": float64(summary.UniqueCustomers),
			"gross_margin_pct": marginValue,
		},
	}, nil
}

func (s *Service) grossMarginPct(ctx context.Context) (decimal.Decimal, error) {
	sql := `
        SELECT ROUND(
            SUM((ti.unit_price - COALESCE(p.unit_cost, 0)) * ti.quantity) /
            NULLIF(SUM(ti.unit_price * ti.quantity), 0) * 100,
            1
        )::text
        FROM transaction_items_fmcg ti
        JOIN products_fmcg p ON p.id = ti.product_id`

	var raw *string
	if err := s.pool.QueryRow(ctx, sql).Scan(&raw); err != nil {
		return decimal.Zero, fmt.Errorf("failed to compute gross margin: %w", err)
	}
	if raw == nil {
		// No cost data loaded yet.
		return defaultGrossMarginPct, nil
	}

	margin, err := decimal.NewFromString(*raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse gross margin %q: %w", *raw, err)
	}
	return margin, nil
}
