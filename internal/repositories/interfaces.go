package repositories

import (
	"context"
	"time"

	"github.com/capwatch/capwatch/internal/models"
)

// QuoteRepository defines the interface for currency quote persistence
type QuoteRepository interface {
	Save(ctx context.Context, quote *models.CurrencyQuote) error
	SaveBatch(ctx context.Context, quotes []*models.CurrencyQuote) error
	// ListThrough returns all quotes with AsOf at or before the instant;
	// a nil instant returns everything
	ListThrough(ctx context.Context, asOf *time.Time) ([]*models.CurrencyQuote, error)
	ListAll(ctx context.Context) ([]*models.CurrencyQuote, error)
}

// SnapshotRepository defines the interface for market-cap snapshot persistence
type SnapshotRepository interface {
	SaveRecords(ctx context.Context, records []*models.MarketCapRecord) error
	// GetSnapshot returns the records whose AsOf falls on the calendar date
	GetSnapshot(ctx context.Context, date time.Time) ([]*models.MarketCapRecord, error)
	// ListDates returns the distinct snapshot dates in ascending order
	ListDates(ctx context.Context) ([]time.Time, error)
}
