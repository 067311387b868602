package repository

import (
	"context"
	"fmt"

	"food-delivery/internal/domain"
)

// StatsRepository computes platform-wide counters for administrators.
type StatsRepository interface {
	Platform(ctx context.Context) (domain.PlatformStats, error)
}

type statsRepository struct {
	db DBTX
}

func NewStatsRepository(db DBTX) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Platform(ctx context.Context) (domain.PlatformStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM customers),
			(SELECT COUNT(*) FROM merchants),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM categories)
	`

	var stats domain.PlatformStats
	err := r.db.QueryRowContext(ctx, query).Scan(
		&stats.Customers,
		&stats.Merchants,
		&stats.Products,
		&stats.Orders,
		&stats.Categories,
	)
	if err != nil {
		return domain.PlatformStats{}, fmt.Errorf("failed to compute platform stats: %w", err)
	}
	return stats, nil
}
