package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/models"
	"github.com/capwatch/capwatch/internal/repositories"
)

// unchangedThreshold flags rows whose relative change is small enough to be
// rate noise rather than a real market move
var unchangedThreshold = decimal.NewFromFloat(1e-4)

var hundred = decimal.NewFromInt(100)

// ComparisonServiceImpl implements ComparisonService on top of the
// normalization service.
type ComparisonServiceImpl struct {
	normalizer NormalizationService
	snapshots  repositories.SnapshotRepository
}

func NewComparisonService(normalizer NormalizationService, snapshots repositories.SnapshotRepository) ComparisonService {
	return &ComparisonServiceImpl{normalizer: normalizer, snapshots: snapshots}
}

// Compare normalizes both snapshots with one shared rate map and builds the
// per-ticker delta rows. Tickers present on only one side are kept with nil
// counterpart fields.
func (s *ComparisonServiceImpl) Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string) (*models.ComparisonReport, error) {
	fromDate = dateOnly(fromDate)
	toDate = dateOnly(toDate)

	normalized, _, err := s.normalizer.NormalizeSnapshots(ctx, []time.Time{fromDate, toDate}, refCurrency)
	if err != nil {
		return nil, err
	}

	fromRecs := normalized[fromDate]
	toRecs := normalized[toDate]

	report := &models.ComparisonReport{
		FromDate:    fromDate,
		ToDate:      toDate,
		RefCurrency: refCurrency,
		Rows:        buildRows(fromRecs, toRecs),
	}
	report.Summary = summarize(report.Rows)
	sortRows(report.Rows)
	return report, nil
}

// CompareRolling resolves the snapshot window.Days() before the anchor and
// compares it against the anchor. Both endpoints snap to the closest
// available snapshot date at or before the requested one.
func (s *ComparisonServiceImpl) CompareRolling(ctx context.Context, anchor time.Time, window models.RollingWindow, refCurrency string) (*models.ComparisonReport, error) {
	if window.Days() <= 0 {
		return nil, fmt.Errorf("rolling window must be positive, got %d days", window.Days())
	}

	dates, err := s.snapshots.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	toDate, ok := closestAtOrBefore(dates, dateOnly(anchor))
	if !ok {
		return nil, &apperrors.ErrNoSnapshot{Date: dateOnly(anchor)}
	}
	target := toDate.AddDate(0, 0, -window.Days())
	fromDate, ok := closestAtOrBefore(dates, target)
	if !ok {
		return nil, &apperrors.ErrNoSnapshot{Date: target}
	}

	return s.Compare(ctx, fromDate, toDate, refCurrency)
}

// closestAtOrBefore picks the latest date not after the target from an
// ascending list
func closestAtOrBefore(dates []time.Time, target time.Time) (time.Time, bool) {
	for i := len(dates) - 1; i >= 0; i-- {
		if !dates[i].After(target) {
			return dates[i], true
		}
	}
	return time.Time{}, false
}

func buildRows(fromRecs, toRecs []*models.NormalizedRecord) []*models.ComparisonRow {
	fromTotal := sumRef(fromRecs)
	toTotal := sumRef(toRecs)

	byTicker := make(map[string]*models.ComparisonRow)
	order := make([]string, 0, len(fromRecs)+len(toRecs))

	for _, rec := range fromRecs {
		row := &models.ComparisonRow{Ticker: rec.Ticker, Name: rec.Name}
		row.FromValue = decPtr(rec.RefAmount)
		row.FromRank = intPtr(rec.Rank)
		row.FromShare = sharePtr(rec.RefAmount, fromTotal)
		row.FromRateSource = rec.RateSource
		byTicker[rec.Ticker] = row
		order = append(order, rec.Ticker)
	}
	for _, rec := range toRecs {
		row, ok := byTicker[rec.Ticker]
		if !ok {
			row = &models.ComparisonRow{Ticker: rec.Ticker, Name: rec.Name}
			byTicker[rec.Ticker] = row
			order = append(order, rec.Ticker)
		}
		if row.Name == "" {
			row.Name = rec.Name
		}
		row.ToValue = decPtr(rec.RefAmount)
		row.ToRank = intPtr(rec.Rank)
		row.ToShare = sharePtr(rec.RefAmount, toTotal)
		row.ToRateSource = rec.RateSource
	}

	rows := make([]*models.ComparisonRow, 0, len(order))
	for _, ticker := range order {
		row := byTicker[ticker]
		fillDerived(row)
		rows = append(rows, row)
	}
	return rows
}

// fillDerived computes change fields for rows present on both sides. A row
// missing either side keeps nil changes; a "+100%" for a new entry would
// rank debuts above genuine movers.
func fillDerived(row *models.ComparisonRow) {
	if row.FromValue == nil || row.ToValue == nil {
		return
	}
	abs := row.ToValue.Sub(*row.FromValue)
	row.AbsoluteChange = decPtr(abs)

	pct := decimal.Zero
	if !row.FromValue.IsZero() {
		pct = abs.Div(*row.FromValue).Mul(hundred)
	}
	row.PercentChange = decPtr(pct)

	if row.FromRank != nil && row.ToRank != nil {
		row.RankChange = intPtr(*row.FromRank - *row.ToRank)
	}

	if row.FromValue.IsPositive() {
		rel := abs.Abs().Div(*row.FromValue)
		if !abs.IsZero() && rel.LessThan(unchangedThreshold) {
			row.Warning = "change below rate-noise threshold"
		}
	}
}

func summarize(rows []*models.ComparisonRow) *models.ComparisonSummary {
	summary := &models.ComparisonSummary{}
	for _, row := range rows {
		if row.FromValue != nil {
			summary.TotalFrom = summary.TotalFrom.Add(*row.FromValue)
		}
		if row.ToValue != nil {
			summary.TotalTo = summary.TotalTo.Add(*row.ToValue)
		}
		switch {
		case row.FromValue == nil:
			summary.NewTickers++
		case row.ToValue == nil:
			summary.DelistedTickers++
		case row.PercentChange.IsPositive():
			summary.Gainers++
		case row.PercentChange.IsNegative():
			summary.Losers++
		}
	}
	summary.TotalChange = summary.TotalTo.Sub(summary.TotalFrom)
	if !summary.TotalFrom.IsZero() {
		summary.TotalChangePercent = summary.TotalChange.Div(summary.TotalFrom).Mul(hundred)
	}
	return summary
}

// sortRows orders by percent change descending; rows with no computable
// change go last, ordered by ticker
func sortRows(rows []*models.ComparisonRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		pi, pj := rows[i].PercentChange, rows[j].PercentChange
		switch {
		case pi != nil && pj != nil:
			if !pi.Equal(*pj) {
				return pi.GreaterThan(*pj)
			}
			return rows[i].Ticker < rows[j].Ticker
		case pi != nil:
			return true
		case pj != nil:
			return false
		default:
			return rows[i].Ticker < rows[j].Ticker
		}
	})
}

func sumRef(records []*models.NormalizedRecord) decimal.Decimal {
	total := decimal.Zero
	for _, rec := range records {
		total = total.Add(rec.RefAmount)
	}
	return total
}

func sharePtr(value, total decimal.Decimal) *decimal.Decimal {
	if total.IsZero() {
		return decPtr(decimal.Zero)
	}
	return decPtr(value.Div(total).Mul(hundred))
}

func decPtr(d decimal.Decimal) *decimal.Decimal { return &d }

func intPtr(n int) *int { return &n }
