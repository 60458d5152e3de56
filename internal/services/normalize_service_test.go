package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quoteAt(base, quote string, ask float64, asOf time.Time) *models.CurrencyQuote {
	return &models.CurrencyQuote{
		BaseCurrency:  base,
		QuoteCurrency: quote,
		Ask:           decimal.NewFromFloat(ask),
		Bid:           decimal.NewFromFloat(ask),
		AsOf:          asOf,
		Source:        models.QuoteSourceMock,
	}
}

func capAt(ticker string, amount int64, currency string, asOf time.Time) *models.MarketCapRecord {
	return &models.MarketCapRecord{
		Ticker:      ticker,
		Name:        ticker,
		RawAmount:   decimal.NewFromInt(amount),
		RawCurrency: currency,
		AsOf:        asOf,
		Active:      true,
	}
}

func TestNormalizeSnapshotsConvertsAndRanks(t *testing.T) {
	quotes := &mockQuoteRepository{quotes: []*models.CurrencyQuote{
		quoteAt("EUR", "USD", 1.10, day(2024, 6, 1)),
	}}
	snapshots := newMockSnapshotRepository()
	snapshots.add(capAt("MC.PA", 100, "EUR", day(2024, 6, 1)))
	snapshots.add(capAt("NKE", 105, "USD", day(2024, 6, 1)))

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	normalized, rm, err := svc.NormalizeSnapshots(context.Background(), []time.Time{day(2024, 6, 1)}, "USD")
	require.NoError(t, err)
	require.NotNil(t, rm)

	recs := normalized[day(2024, 6, 1)]
	require.Len(t, recs, 2)

	// 100 EUR at 1.10 = 110 USD, outranking 105 USD
	require.Equal(t, "MC.PA", recs[0].Ticker)
	require.True(t, recs[0].RefAmount.Equal(decimal.NewFromInt(110)))
	require.Equal(t, models.RateSourceDirect, recs[0].RateSource)
	require.Equal(t, 1, recs[0].Rank)

	require.Equal(t, "NKE", recs[1].Ticker)
	require.Equal(t, models.RateSourceSame, recs[1].RateSource)
	require.Equal(t, 2, recs[1].Rank)
}

// Identical raw values across snapshots must normalize identically even when
// the quotes stored on the two dates differ. A per-date rate map would turn
// pure rate movement into phantom market-cap changes.
func TestNormalizeSnapshotsSingleAnchorMap(t *testing.T) {
	quotes := &mockQuoteRepository{quotes: []*models.CurrencyQuote{
		quoteAt("EUR", "USD", 1.05, day(2024, 5, 1)),
		quoteAt("EUR", "USD", 1.10, day(2024, 6, 1)),
	}}
	snapshots := newMockSnapshotRepository()
	snapshots.add(capAt("MC.PA", 100, "EUR", day(2024, 5, 1)))
	snapshots.add(capAt("MC.PA", 100, "EUR", day(2024, 6, 1)))

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	normalized, rm, err := svc.NormalizeSnapshots(context.Background(),
		[]time.Time{day(2024, 5, 1), day(2024, 6, 1)}, "USD")
	require.NoError(t, err)

	early := normalized[day(2024, 5, 1)][0]
	late := normalized[day(2024, 6, 1)][0]
	require.True(t, early.RefAmount.Equal(late.RefAmount),
		"same raw value must normalize identically: %s vs %s", early.RefAmount, late.RefAmount)

	// The anchor is the latest date, so the 1.10 quote wins
	rate, ok := rm.Rate("EUR", "USD")
	require.True(t, ok)
	require.True(t, rate.Equal(decimal.NewFromFloat(1.10)))
	require.True(t, late.RefAmount.Equal(decimal.NewFromInt(110)))
}

func TestNormalizeSnapshotsFallsBackToLatestQuotes(t *testing.T) {
	// Only quotes after the anchor exist; the run degrades to latest mode
	// instead of failing
	quotes := &mockQuoteRepository{quotes: []*models.CurrencyQuote{
		quoteAt("EUR", "USD", 1.20, day(2024, 8, 1)),
	}}
	snapshots := newMockSnapshotRepository()
	snapshots.add(capAt("MC.PA", 100, "EUR", day(2024, 6, 1)))

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	normalized, _, err := svc.NormalizeSnapshots(context.Background(), []time.Time{day(2024, 6, 1)}, "USD")
	require.NoError(t, err)
	require.True(t, normalized[day(2024, 6, 1)][0].RefAmount.Equal(decimal.NewFromInt(120)))
}

func TestNormalizeSnapshotsNoRateData(t *testing.T) {
	quotes := &mockQuoteRepository{}
	snapshots := newMockSnapshotRepository()
	snapshots.add(capAt("MC.PA", 100, "EUR", day(2024, 6, 1)))

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	_, _, err := svc.NormalizeSnapshots(context.Background(), []time.Time{day(2024, 6, 1)}, "USD")

	var noRates *apperrors.ErrNoRateData
	require.True(t, errors.As(err, &noRates))
}

func TestNormalizeSnapshotsNoSnapshot(t *testing.T) {
	quotes := &mockQuoteRepository{quotes: []*models.CurrencyQuote{
		quoteAt("EUR", "USD", 1.10, day(2024, 6, 1)),
	}}
	snapshots := newMockSnapshotRepository()

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	_, _, err := svc.NormalizeSnapshots(context.Background(), []time.Time{day(2024, 6, 1)}, "USD")

	var noSnap *apperrors.ErrNoSnapshot
	require.True(t, errors.As(err, &noSnap))
	require.Equal(t, day(2024, 6, 1), noSnap.Date)
}

func TestNormalizeSnapshotsUnresolvedCurrency(t *testing.T) {
	quotes := &mockQuoteRepository{quotes: []*models.CurrencyQuote{
		quoteAt("EUR", "USD", 1.10, day(2024, 6, 1)),
	}}
	snapshots := newMockSnapshotRepository()
	snapshots.add(capAt("7203.T", 100, "JPY", day(2024, 6, 1)))

	svc := NewNormalizationService(quotes, snapshots, zap.NewNop())
	normalized, _, err := svc.NormalizeSnapshots(context.Background(), []time.Time{day(2024, 6, 1)}, "USD")
	require.NoError(t, err)

	rec := normalized[day(2024, 6, 1)][0]
	require.Equal(t, models.RateSourceUnresolved, rec.RateSource)
	require.True(t, rec.RefAmount.Equal(decimal.NewFromInt(100)))
	require.True(t, rec.RateUsed.Equal(decimal.NewFromInt(1)))
}
