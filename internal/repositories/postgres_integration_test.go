package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/capwatch/capwatch/internal/db"
	"github.com/capwatch/capwatch/internal/models"
)

// TestQuoteRepositoryPostgres exercises the upsert path against a real
// postgres, since sqlite and postgres resolve ON CONFLICT differently.
func TestQuoteRepositoryPostgres(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping postgres container test in short mode")
	}

	ctx := context.Background()

	pgContainer, err := postgres.RunContainer(ctx,
		testcontainers.WithImage("postgres:15-alpine"),
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pgContainer.Terminate(context.Background()) })

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	gdb, err := gorm.Open(gormpostgres.Open(connStr), &gorm.Config{})
	require.NoError(t, err)

	database := &db.DB{DB: gdb}
	require.NoError(t, database.Migrate())
	t.Cleanup(func() { _ = database.Close() })

	repo := NewQuoteRepository(database)
	asOf := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	q := &models.CurrencyQuote{
		BaseCurrency: "EUR", QuoteCurrency: "USD",
		Ask: decimal.NewFromFloat(1.05), Bid: decimal.NewFromFloat(1.04),
		AsOf: asOf, Source: models.QuoteSourceMock,
	}
	require.NoError(t, repo.Save(ctx, q))

	q.ID = 0
	q.Ask = decimal.NewFromFloat(1.07)
	require.NoError(t, repo.Save(ctx, q))

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.True(t, all[0].Ask.Equal(decimal.NewFromFloat(1.07)))
}
