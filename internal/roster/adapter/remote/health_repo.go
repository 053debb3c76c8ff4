package remote

import (
	"context"

	"roster-console/internal/roster/adapter/httpapi"
	"roster-console/internal/roster/domain/model"
	"roster-console/internal/roster/domain/repository"
)

// HealthRepository reads the remote API health endpoints
type HealthRepository struct {
	client *httpapi.Client
}

var _ repository.HealthRepository = (*HealthRepository)(nil)

func NewHealthRepository(client *httpapi.Client) *HealthRepository {
	return &HealthRepository{client: client}
}

func (r *HealthRepository) Check(ctx context.Context) (*model.HealthStatus, error) {
	return r.get(ctx, "/health")
}

func (r *HealthRepository) Details(ctx context.Context) (*model.HealthStatus, error) {
	return r.get(ctx, "/health/details")
}

func (r *HealthRepository) get(ctx context.Context, path string) (*model.HealthStatus, error) {
	var status model.HealthStatus
	if err := r.client.Get(ctx, path, &status); err != nil {
		return nil, err
	}
	if status.Status == "" {
		status.Status = "UNKNOWN"
	}
	return &status, nil
}
