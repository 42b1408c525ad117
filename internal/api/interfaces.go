package api

import (
	"context"

	"github.com/scoutlabs/retailboard/internal/dashboard"
	"github.com/scoutlabs/retailboard/internal/drift"
	"github.com/scoutlabs/retailboard/internal/filter"
	"github.com/scoutlabs/retailboard/internal/schema"
)

// SpecFetcher retrieves the declared expected schema.
type SpecFetcher interface {
	Fetch(ctx context.Context, overrideURL string) (*schema.Schema, error)
}

// CatalogFetcher retrieves the live catalog snapshot.
type CatalogFetcher interface {
	Fetch(ctx context.Context) (*schema.Schema, error)
}

// IssueReporter files a tracking issue for a detected drift.
type IssueReporter interface {
	Configured() bool
	Report(ctx context.Context, report *drift.Report) error
}

// DashboardService exposes the dashboard aggregate functions.
type DashboardService interface {
	Summary(ctx context.Context, state filter.State) (*dashboard.Summary, error)
	AgeDistribution(ctx context.Context, state filter.State) ([]dashboard.DistributionRow, error)
	GenderDistribution(ctx context.Context, state filter.State) ([]dashboard.DistributionRow, error)
	LocationDistribution(ctx context.Context, state filter.State) ([]dashboard.DistributionRow, error)
	BrandPerformance(ctx context.Context, state filter.State) ([]dashboard.DistributionRow, error)
	CategorySummary(ctx context.Context, state filter.State) ([]dashboard.DistributionRow, error)
	DailyTrends(ctx context.Context, state filter.State) ([]dashboard.TrendRow, error)
	Snapshot(ctx context.Context) (*schema.Snapshot, error)
}
