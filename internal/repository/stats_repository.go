package repository

import (
	"context"
	"database/sql"
	"fmt"

	"catalog-admin/internal/domain"
)

// StatsRepository provides the entity counts for the dashboard summary
type StatsRepository interface {
	Counts(ctx context.Context) (*domain.DashboardStats, error)
}

type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new instance of StatsRepository
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Counts returns the total number of users, products, categories and orders
func (r *statsRepository) Counts(ctx context.Context) (*domain.DashboardStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM orders)
	`

	stats := &domain.DashboardStats{}
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Users,
		&stats.Products,
		&stats.Categories,
		&stats.Orders,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count dashboard entities: %w", err)
	}

	return stats, nil
}
