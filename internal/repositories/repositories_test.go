package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/capwatch/capwatch/internal/db"
	"github.com/capwatch/capwatch/internal/models"
)

func setupSQLite(t *testing.T) *db.DB {
	t.Helper()

	database, err := db.ConnectSQLite(":memory:")
	require.NoError(t, err)
	require.NoError(t, database.Migrate())

	t.Cleanup(func() { _ = database.Close() })
	return database
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestQuoteRepositorySaveAndList(t *testing.T) {
	database := setupSQLite(t)
	repo := NewQuoteRepository(database)
	ctx := context.Background()

	quotes := []*models.CurrencyQuote{
		{BaseCurrency: "EUR", QuoteCurrency: "USD", Ask: decimal.NewFromFloat(1.05), Bid: decimal.NewFromFloat(1.04), AsOf: day(2024, 1, 1), Source: models.QuoteSourceMock},
		{BaseCurrency: "EUR", QuoteCurrency: "USD", Ask: decimal.NewFromFloat(1.10), Bid: decimal.NewFromFloat(1.09), AsOf: day(2024, 3, 1), Source: models.QuoteSourceMock},
		{BaseCurrency: "GBP", QuoteCurrency: "USD", Ask: decimal.NewFromFloat(1.30), Bid: decimal.NewFromFloat(1.29), AsOf: day(2024, 3, 1), Source: models.QuoteSourceMock},
	}
	require.NoError(t, repo.SaveBatch(ctx, quotes))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	asOf := day(2024, 2, 1)
	through, err := repo.ListThrough(ctx, &asOf)
	require.NoError(t, err)
	require.Len(t, through, 1)
	require.Equal(t, "EUR/USD", through[0].Symbol())
	require.True(t, through[0].Ask.Equal(decimal.NewFromFloat(1.05)))
}

func TestQuoteRepositoryUpsert(t *testing.T) {
	database := setupSQLite(t)
	repo := NewQuoteRepository(database)
	ctx := context.Background()

	q := &models.CurrencyQuote{
		BaseCurrency: "EUR", QuoteCurrency: "USD",
		Ask: decimal.NewFromFloat(1.05), Bid: decimal.NewFromFloat(1.04),
		AsOf: day(2024, 1, 1), Source: models.QuoteSourceMock,
	}
	require.NoError(t, repo.Save(ctx, q))

	// Same pair and instant with a new ask must update, not duplicate
	q2 := &models.CurrencyQuote{
		BaseCurrency: "EUR", QuoteCurrency: "USD",
		Ask: decimal.NewFromFloat(1.06), Bid: decimal.NewFromFloat(1.05),
		AsOf: day(2024, 1, 1), Source: models.QuoteSourceManual,
	}
	require.NoError(t, repo.Save(ctx, q2))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Ask.Equal(decimal.NewFromFloat(1.06)))
}

func TestQuoteRepositoryRejectsInvalid(t *testing.T) {
	database := setupSQLite(t)
	repo := NewQuoteRepository(database)

	err := repo.Save(context.Background(), &models.CurrencyQuote{
		BaseCurrency: "EUR", QuoteCurrency: "EUR",
		Ask: decimal.NewFromInt(1), Bid: decimal.NewFromInt(1),
		AsOf: day(2024, 1, 1),
	})
	require.Error(t, err)
}

func TestSnapshotRepositorySaveAndGet(t *testing.T) {
	database := setupSQLite(t)
	repo := NewSnapshotRepository(database)
	ctx := context.Background()

	records := []*models.MarketCapRecord{
		{Ticker: "NKE", Name: "Nike", RawAmount: decimal.NewFromInt(150_000_000_000), RawCurrency: "USD", AsOf: day(2024, 6, 1).Add(9 * time.Hour), Active: true},
		{Ticker: "MC.PA", Name: "LVMH", RawAmount: decimal.NewFromInt(350_000_000_000), RawCurrency: "EUR", AsOf: day(2024, 6, 1), Active: true},
		{Ticker: "NKE", Name: "Nike", RawAmount: decimal.NewFromInt(155_000_000_000), RawCurrency: "USD", AsOf: day(2024, 7, 1), Active: true},
	}
	require.NoError(t, repo.SaveRecords(ctx, records))

	// Intraday timestamps collapse onto the calendar date
	snap, err := repo.GetSnapshot(ctx, day(2024, 6, 1))
	require.NoError(t, err)
	require.Len(t, snap, 2)
	require.Equal(t, "MC.PA", snap[0].Ticker)
	require.Equal(t, "NKE", snap[1].Ticker)

	empty, err := repo.GetSnapshot(ctx, day(2024, 5, 1))
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestSnapshotRepositoryUpsert(t *testing.T) {
	database := setupSQLite(t)
	repo := NewSnapshotRepository(database)
	ctx := context.Background()

	first := []*models.MarketCapRecord{
		{Ticker: "NKE", Name: "Nike", RawAmount: decimal.NewFromInt(150), RawCurrency: "USD", AsOf: day(2024, 6, 1), Active: true},
	}
	require.NoError(t, repo.SaveRecords(ctx, first))

	second := []*models.MarketCapRecord{
		{Ticker: "NKE", Name: "Nike Inc", RawAmount: decimal.NewFromInt(160), RawCurrency: "USD", AsOf: day(2024, 6, 1), Active: true},
	}
	require.NoError(t, repo.SaveRecords(ctx, second))

	snap, err := repo.GetSnapshot(ctx, day(2024, 6, 1))
	require.NoError(t, err)
	require.Len(t, snap, 1)
	require.Equal(t, "Nike Inc", snap[0].Name)
	require.True(t, snap[0].RawAmount.Equal(decimal.NewFromInt(160)))
}

func TestSnapshotRepositoryListDates(t *testing.T) {
	database := setupSQLite(t)
	repo := NewSnapshotRepository(database)
	ctx := context.Background()

	records := []*models.MarketCapRecord{
		{Ticker: "NKE", RawAmount: decimal.NewFromInt(150), RawCurrency: "USD", AsOf: day(2024, 7, 1)},
		{Ticker: "NKE", RawAmount: decimal.NewFromInt(140), RawCurrency: "USD", AsOf: day(2024, 6, 1)},
		{Ticker: "MC.PA", RawAmount: decimal.NewFromInt(350), RawCurrency: "EUR", AsOf: day(2024, 6, 1)},
	}
	require.NoError(t, repo.SaveRecords(ctx, records))

	dates, err := repo.ListDates(ctx)
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2024, 6, 1), day(2024, 7, 1)}, dates)
}
