package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/capwatch/capwatch/internal/config"
	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/models"
	"github.com/capwatch/capwatch/internal/repositories"
)

// IngestServiceImpl implements IngestService. Provider calls run under a
// bounded worker pool with retry and exponential backoff, so a slow or
// flaky provider cannot stampede and a single bad ticker cannot sink a run.
type IngestServiceImpl struct {
	provider  QuoteProvider
	quotes    repositories.QuoteRepository
	snapshots repositories.SnapshotRepository
	logger    *zap.Logger

	concurrency int
	maxRetries  int
	backoffBase time.Duration
}

func NewIngestService(provider QuoteProvider, quotes repositories.QuoteRepository, snapshots repositories.SnapshotRepository, cfg *config.Config, logger *zap.Logger) IngestService {
	return &IngestServiceImpl{
		provider:    provider,
		quotes:      quotes,
		snapshots:   snapshots,
		logger:      logger,
		concurrency: cfg.FetchConcurrency,
		maxRetries:  cfg.FetchMaxRetries,
		backoffBase: cfg.FetchBackoffBase,
	}
}

// IngestQuotes fetches the given currency pairs and persists them
func (s *IngestServiceImpl) IngestQuotes(ctx context.Context, pairs []string) (*models.IngestReport, error) {
	for _, pair := range pairs {
		if !strings.Contains(pair, "/") {
			return nil, &apperrors.ErrValidation{Field: "pairs", Message: "pair must be in BASE/QUOTE form, got " + pair}
		}
	}

	report := &models.IngestReport{JobID: uuid.New(), StartedAt: time.Now().UTC()}

	quotes, err := s.provider.FetchQuotes(ctx, pairs)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch quotes: %w", err)
	}
	if err := s.quotes.SaveBatch(ctx, quotes); err != nil {
		return nil, err
	}

	report.QuotesSaved = len(quotes)
	for _, q := range quotes {
		report.Succeeded = append(report.Succeeded, q.Symbol())
	}
	sort.Strings(report.Succeeded)
	report.FinishedAt = time.Now().UTC()

	s.logger.Info("quote ingest finished",
		zap.String("job_id", report.JobID.String()),
		zap.Int("saved", report.QuotesSaved))
	return report, nil
}

// IngestMarketCaps fetches the market cap of every ticker for one snapshot
// date. Tickers that still fail after all retries land in the report's
// Failed map; the rest are persisted as one snapshot batch.
func (s *IngestServiceImpl) IngestMarketCaps(ctx context.Context, tickers []string, date time.Time) (*models.IngestReport, error) {
	report := &models.IngestReport{
		JobID:     uuid.New(),
		StartedAt: time.Now().UTC(),
		Failed:    make(map[string]string),
	}
	date = dateOnly(date)

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		records []*models.MarketCapRecord
	)
	sem := make(chan struct{}, s.concurrency)

	for _, ticker := range tickers {
		wg.Add(1)
		go func(ticker string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			amount, currency, err := s.fetchWithRetry(ctx, ticker, date)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				report.Failed[ticker] = err.Error()
				return
			}
			records = append(records, &models.MarketCapRecord{
				Ticker:      ticker,
				RawAmount:   amount,
				RawCurrency: currency,
				AsOf:        date,
				Active:      true,
			})
			report.Succeeded = append(report.Succeeded, ticker)
		}(ticker)
	}
	wg.Wait()

	if err := s.snapshots.SaveRecords(ctx, records); err != nil {
		return nil, err
	}

	sort.Strings(report.Succeeded)
	report.FinishedAt = time.Now().UTC()

	s.logger.Info("market cap ingest finished",
		zap.String("job_id", report.JobID.String()),
		zap.Int("succeeded", len(report.Succeeded)),
		zap.Int("failed", len(report.Failed)))
	return report, nil
}

// fetchWithRetry retries with doubling backoff, honoring context
// cancellation between attempts
func (s *IngestServiceImpl) fetchWithRetry(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, string, error) {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := s.backoffBase << (attempt - 1)
			s.logger.Warn("retrying market cap fetch",
				zap.String("ticker", ticker),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return decimal.Zero, "", ctx.Err()
			case <-time.After(backoff):
			}
		}
		amount, currency, err := s.provider.FetchMarketCap(ctx, ticker, date)
		if err == nil {
			return amount, currency, nil
		}
		lastErr = err
	}
	return decimal.Zero, "", fmt.Errorf("fetch failed after %d retries: %w", s.maxRetries, lastErr)
}
