package service

import (
	"context"

	"catalog-admin/internal/domain"
	"catalog-admin/internal/repository"
)

// DashboardService provides the admin dashboard summary
type DashboardService interface {
	Overview(ctx context.Context) (*domain.DashboardStats, error)
}

type dashboardService struct {
	statsRepo repository.StatsRepository
}

// NewDashboardService creates a new instance of DashboardService
func NewDashboardService(statsRepo repository.StatsRepository) DashboardService {
	return &dashboardService{statsRepo: statsRepo}
}

// Overview returns the entity counts shown on the dashboard
func (s *dashboardService) Overview(ctx context.Context) (*domain.DashboardStats, error) {
	return s.statsRepo.Counts(ctx)
}
