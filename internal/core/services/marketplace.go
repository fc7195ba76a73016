package services

import (
	"context"
	"fmt"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

// Marketplace serves the public, read-only crop listings.
type Marketplace struct {
	repo ports.CropRepository
}

func NewMarketplace(repo ports.CropRepository) *Marketplace {
	return &Marketplace{repo: repo}
}

// Seed loads demo listings. The repository ignores them once any listing exists.
func (m *Marketplace) Seed(ctx context.Context, crops []domain.Crop) error {
	if len(crops) == 0 {
		return nil
	}
	if err := m.repo.SeedCrops(ctx, crops); err != nil {
		return fmt.Errorf("service: failed to seed crops: %w", err)
	}
	return nil
}

// Listings returns the available crops matching filter.
func (m *Marketplace) Listings(ctx context.Context, filter domain.CropFilter) ([]domain.Crop, error) {
	crops, err := m.repo.ListCrops(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("service: failed to list crops: %w", err)
	}
	return crops, nil
}

// Listing returns one crop; a missing id wraps domain.ErrNotFound.
func (m *Marketplace) Listing(ctx context.Context, id int64) (domain.Crop, error) {
	if id <= 0 {
		return domain.Crop{}, fmt.Errorf("service: crop %d: %w", id, domain.ErrNotFound)
	}
	crop, err := m.repo.GetCrop(ctx, id)
	if err != nil {
		return domain.Crop{}, fmt.Errorf("service: failed to load crop: %w", err)
	}
	return crop, nil
}
