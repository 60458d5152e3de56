package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/capwatch/capwatch/internal/models"
)

// NormalizationService loads market-cap snapshots and re-expresses every
// record in a single reference currency using one shared rate map.
type NormalizationService interface {
	// NormalizeSnapshots loads the snapshots for the given dates and
	// converts all of them with rates anchored on the latest date. The
	// returned map is keyed by snapshot date.
	NormalizeSnapshots(ctx context.Context, dates []time.Time, refCurrency string) (map[time.Time][]*models.NormalizedRecord, *models.RateMap, error)
}

// ComparisonService computes two-date deltas over normalized snapshots
type ComparisonService interface {
	Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string) (*models.ComparisonReport, error)
	// CompareRolling compares the snapshot window.Days() before the anchor
	// against the anchor date
	CompareRolling(ctx context.Context, anchor time.Time, window models.RollingWindow, refCurrency string) (*models.ComparisonReport, error)
}

// TrendService computes multi-date series and derived metrics
type TrendService interface {
	AnalyzeTrends(ctx context.Context, dates []time.Time, refCurrency string) (*models.TrendReport, error)
	// CompareYoY compares the anchor date against the same date in prior
	// years, for the given number of years back
	CompareYoY(ctx context.Context, anchor time.Time, years int, refCurrency string) (*models.TrendReport, error)
	// CompareQoQ compares quarter-end snapshots walking back from the anchor
	CompareQoQ(ctx context.Context, anchor time.Time, quarters int, refCurrency string) (*models.TrendReport, error)
}

// BenchmarkService compares each ticker against the total-market proxy
type BenchmarkService interface {
	Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string) (*models.BenchmarkReport, error)
}

// PeerGroupService runs comparisons restricted to named ticker groups
type PeerGroupService interface {
	// Compare runs the comparison for every group whose name matches the
	// filter; an empty filter selects all groups
	Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string, groupFilter []string) ([]*models.PeerGroupResult, error)
}

// QuoteProvider is the external market-data source boundary
type QuoteProvider interface {
	FetchQuotes(ctx context.Context, pairs []string) ([]*models.CurrencyQuote, error)
	FetchMarketCap(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, string, error)
}

// IngestService pulls quotes and market caps from a provider and persists them
type IngestService interface {
	IngestQuotes(ctx context.Context, pairs []string) (*models.IngestReport, error)
	IngestMarketCaps(ctx context.Context, tickers []string, date time.Time) (*models.IngestReport, error)
}
