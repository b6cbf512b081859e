package http

import (
	"context"

	"evinsights/internal/exporter"
	"evinsights/pkg/contracts/domain"
)

// DashboardServiceInterface defines the read side of the dashboard
type DashboardServiceInterface interface {
	View(ctx context.Context, filter domain.Filter) (*domain.DashboardView, error)
	TopZips(ctx context.Context, filter domain.Filter) ([]domain.ZipRecord, error)
	ConcernSummaries(ctx context.Context, filter domain.Filter) ([]domain.ConcernSummary, error)
	Brief(ctx context.Context, filter domain.Filter) (*exporter.CampaignBrief, error)
	DefaultFilter() domain.Filter
}

// DatasetServiceInterface defines the dataset refresh operations
type DatasetServiceInterface interface {
	Refresh(ctx context.Context, reason string) (*domain.Snapshot, error)
}
