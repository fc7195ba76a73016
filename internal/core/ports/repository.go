package ports

import (
	"context"
	"time"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

// PriceRepository holds the seed rows for the mandi price table.
type PriceRepository interface {
	SeedPrices(ctx context.Context, rows []domain.MarketPriceEntry) error
	ListPrices(ctx context.Context) ([]domain.MarketPriceEntry, error)
}

// CropRepository serves the marketplace listings.
type CropRepository interface {
	SeedCrops(ctx context.Context, crops []domain.Crop) error
	ListCrops(ctx context.Context, filter domain.CropFilter) ([]domain.Crop, error)
	GetCrop(ctx context.Context, id int64) (domain.Crop, error)
}

// IntentStatsRepository keeps aggregate hit counters per intent.
type IntentStatsRepository interface {
	RecordIntentHit(ctx context.Context, intent domain.Intent, at time.Time) error
	IntentStats(ctx context.Context) ([]domain.IntentStat, error)
}

// IntentRecorder accepts intent hits for asynchronous counting.
type IntentRecorder interface {
	Record(intent domain.Intent, at time.Time)
}

// RateLimiter admits at most limit requests per key within window.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
