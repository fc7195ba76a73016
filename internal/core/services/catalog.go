package services

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

// Catalog owns the mandi price table and the intent statistics.
type Catalog struct {
	table *domain.PriceTable
	stats ports.IntentStatsRepository
}

// LoadCatalog seeds rows into repo (existing commodities are kept) and freezes
// the stored rows into the price table served for the life of the process.
func LoadCatalog(ctx context.Context, repo ports.PriceRepository, stats ports.IntentStatsRepository, seed []domain.MarketPriceEntry) (*Catalog, error) {
	if err := repo.SeedPrices(ctx, seed); err != nil {
		return nil, fmt.Errorf("service: failed to seed prices: %w", err)
	}
	rows, err := repo.ListPrices(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load prices: %w", err)
	}
	table, err := domain.NewPriceTable(rows)
	if err != nil {
		return nil, fmt.Errorf("service: failed to build price table: %w", err)
	}
	return &Catalog{table: table, stats: stats}, nil
}

// NewCatalog wraps an already built table.
func NewCatalog(table *domain.PriceTable, stats ports.IntentStatsRepository) *Catalog {
	return &Catalog{table: table, stats: stats}
}

// Table returns the frozen price table.
func (c *Catalog) Table() *domain.PriceTable {
	return c.table
}

// Prices lists the table rows in table order.
func (c *Catalog) Prices() []domain.MarketPriceEntry {
	return c.table.Entries()
}

// IntentStats returns the aggregate intent counters.
func (c *Catalog) IntentStats(ctx context.Context) ([]domain.IntentStat, error) {
	if c.stats == nil {
		return []domain.IntentStat{}, nil
	}
	stats, err := c.stats.IntentStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("service: failed to load intent stats: %w", err)
	}
	return stats, nil
}
