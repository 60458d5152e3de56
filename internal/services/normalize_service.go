package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/fx"
	"github.com/capwatch/capwatch/internal/models"
	"github.com/capwatch/capwatch/internal/repositories"
)

// loaderState tracks the phases of one normalization run. Each phase must
// complete before the next starts, so a half-loaded run can never produce
// output.
type loaderState int

const (
	stateUnloaded loaderState = iota
	stateRecordsParsed
	stateRatesResolved
	stateNormalized
)

// NormalizationServiceImpl implements NormalizationService over the quote
// and snapshot repositories.
type NormalizationServiceImpl struct {
	quotes    repositories.QuoteRepository
	snapshots repositories.SnapshotRepository
	logger    *zap.Logger
}

func NewNormalizationService(quotes repositories.QuoteRepository, snapshots repositories.SnapshotRepository, logger *zap.Logger) NormalizationService {
	return &NormalizationServiceImpl{quotes: quotes, snapshots: snapshots, logger: logger}
}

// normalizeRun is the per-call state of one normalization
type normalizeRun struct {
	state   loaderState
	dates   []time.Time
	records map[time.Time][]*models.MarketCapRecord
	rateMap *models.RateMap
}

func (r *normalizeRun) advance(from, to loaderState) error {
	if r.state != from {
		return fmt.Errorf("loader state %d, expected %d", r.state, from)
	}
	r.state = to
	return nil
}

// NormalizeSnapshots loads every requested snapshot, resolves ONE rate map
// anchored on the latest requested date, and converts all records with it.
// Using a single map across dates means identical raw values always
// normalize to identical reference values, whatever the contemporaneous
// rates were.
func (s *NormalizationServiceImpl) NormalizeSnapshots(ctx context.Context, dates []time.Time, refCurrency string) (map[time.Time][]*models.NormalizedRecord, *models.RateMap, error) {
	if len(dates) == 0 {
		return nil, nil, &apperrors.ErrInsufficientDates{Need: 1, Got: 0}
	}

	run := &normalizeRun{state: stateUnloaded, records: make(map[time.Time][]*models.MarketCapRecord)}
	for _, d := range dates {
		run.dates = append(run.dates, dateOnly(d))
	}
	sort.Slice(run.dates, func(i, j int) bool { return run.dates[i].Before(run.dates[j]) })

	if err := s.loadRecords(ctx, run); err != nil {
		return nil, nil, err
	}
	if err := s.resolveRates(ctx, run); err != nil {
		return nil, nil, err
	}
	normalized, err := s.normalize(run, refCurrency)
	if err != nil {
		return nil, nil, err
	}
	return normalized, run.rateMap, nil
}

func (s *NormalizationServiceImpl) loadRecords(ctx context.Context, run *normalizeRun) error {
	for _, d := range run.dates {
		records, err := s.snapshots.GetSnapshot(ctx, d)
		if err != nil {
			return fmt.Errorf("failed to load snapshot: %w", err)
		}
		if len(records) == 0 {
			return &apperrors.ErrNoSnapshot{Date: d}
		}
		run.records[d] = records
	}
	return run.advance(stateUnloaded, stateRecordsParsed)
}

func (s *NormalizationServiceImpl) resolveRates(ctx context.Context, run *normalizeRun) error {
	// Rates through the end of the anchor day, which is the latest
	// requested date
	anchorDay := run.dates[len(run.dates)-1]
	anchor := anchorDay.Add(24*time.Hour - time.Nanosecond)

	quotes, err := s.quotes.ListThrough(ctx, &anchor)
	if err != nil {
		return fmt.Errorf("failed to load quotes: %w", err)
	}
	run.rateMap = fx.BuildRateMap(quotes, &anchor)

	if run.rateMap.IsEmpty() {
		// No quotes at or before the anchor; fall back to the latest
		// quotes we have at all before giving up
		s.logger.Warn("no rates at anchor date, falling back to latest quotes",
			zap.Time("anchor", anchorDay))
		all, err := s.quotes.ListAll(ctx)
		if err != nil {
			return fmt.Errorf("failed to load quotes: %w", err)
		}
		run.rateMap = fx.BuildRateMap(all, nil)
	}
	if run.rateMap.IsEmpty() {
		return &apperrors.ErrNoRateData{AsOf: &anchorDay}
	}
	return run.advance(stateRecordsParsed, stateRatesResolved)
}

func (s *NormalizationServiceImpl) normalize(run *normalizeRun, refCurrency string) (map[time.Time][]*models.NormalizedRecord, error) {
	result := make(map[time.Time][]*models.NormalizedRecord, len(run.records))

	for d, records := range run.records {
		normalized := make([]*models.NormalizedRecord, 0, len(records))
		for _, rec := range records {
			amount, rate, source := fx.Convert(rec.RawAmount, rec.RawCurrency, refCurrency, run.rateMap)
			if source == models.RateSourceUnresolved {
				s.logger.Warn("unresolved currency conversion",
					zap.String("ticker", rec.Ticker),
					zap.String("from", rec.RawCurrency),
					zap.String("to", refCurrency))
			}
			normalized = append(normalized, &models.NormalizedRecord{
				MarketCapRecord: *rec,
				RefAmount:       amount,
				RefCurrency:     refCurrency,
				RateUsed:        rate,
				RateSource:      source,
			})
		}
		assignRanks(normalized)
		result[d] = normalized
	}

	if err := run.advance(stateRatesResolved, stateNormalized); err != nil {
		return nil, err
	}
	return result, nil
}

// assignRanks orders records by normalized value descending and writes
// 1-based ranks. Ties break on ticker so ranking is deterministic.
func assignRanks(records []*models.NormalizedRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		if !records[i].RefAmount.Equal(records[j].RefAmount) {
			return records[i].RefAmount.GreaterThan(records[j].RefAmount)
		}
		return records[i].Ticker < records[j].Ticker
	})
	for i, rec := range records {
		rec.Rank = i + 1
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
