package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	apperrors "github.com/capwatch/capwatch/internal/errors"
	"github.com/capwatch/capwatch/internal/models"
	"github.com/capwatch/capwatch/internal/repositories"
)

// daysPerYear includes the leap-day average so multi-year CAGR exponents
// line up with calendar years
const daysPerYear = 365.25

// TrendServiceImpl implements TrendService on top of the normalization
// service.
type TrendServiceImpl struct {
	normalizer NormalizationService
	snapshots  repositories.SnapshotRepository
	logger     *zap.Logger
}

func NewTrendService(normalizer NormalizationService, snapshots repositories.SnapshotRepository, logger *zap.Logger) TrendService {
	return &TrendServiceImpl{normalizer: normalizer, snapshots: snapshots, logger: logger}
}

// AnalyzeTrends builds per-ticker series over the requested dates. Dates
// with no snapshot are skipped and reported in the summary rather than
// failing the run.
func (s *TrendServiceImpl) AnalyzeTrends(ctx context.Context, dates []time.Time, refCurrency string) (*models.TrendReport, error) {
	targets := make([]time.Time, 0, len(dates))
	for _, d := range dates {
		targets = append(targets, dateOnly(d))
	}
	return s.analyze(ctx, targets, false, refCurrency)
}

// CompareYoY walks back whole years from the anchor. A February 29 anchor
// maps to February 28 in non-leap years.
func (s *TrendServiceImpl) CompareYoY(ctx context.Context, anchor time.Time, years int, refCurrency string) (*models.TrendReport, error) {
	if years < 1 {
		return nil, fmt.Errorf("years must be at least 1, got %d", years)
	}
	anchor = dateOnly(anchor)

	targets := make([]time.Time, 0, years+1)
	for i := years; i >= 1; i-- {
		targets = append(targets, yearsBack(anchor, i))
	}
	targets = append(targets, anchor)
	return s.analyze(ctx, targets, true, refCurrency)
}

// CompareQoQ walks back in 90-day steps and aligns each step to its
// quarter-end date.
func (s *TrendServiceImpl) CompareQoQ(ctx context.Context, anchor time.Time, quarters int, refCurrency string) (*models.TrendReport, error) {
	if quarters < 1 {
		return nil, fmt.Errorf("quarters must be at least 1, got %d", quarters)
	}
	anchor = dateOnly(anchor)

	targets := make([]time.Time, 0, quarters+1)
	for i := quarters; i >= 1; i-- {
		targets = append(targets, quarterEnd(anchor.AddDate(0, 0, -90*i)))
	}
	targets = append(targets, anchor)
	return s.analyze(ctx, targets, true, refCurrency)
}

// analyze resolves the target dates against available snapshots, normalizes
// them with one shared rate map, and derives the per-ticker metrics. With
// snap set, each target falls back to the closest earlier snapshot date.
func (s *TrendServiceImpl) analyze(ctx context.Context, targets []time.Time, snap bool, refCurrency string) (*models.TrendReport, error) {
	available, err := s.snapshots.ListDates(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}

	resolved, missing := resolveDates(targets, available, snap)
	if len(resolved) < 2 {
		return nil, &apperrors.ErrInsufficientDates{Need: 2, Got: len(resolved)}
	}
	if len(missing) > 0 {
		s.logger.Warn("skipping dates with no snapshot", zap.Int("count", len(missing)))
	}

	normalized, _, err := s.normalizer.NormalizeSnapshots(ctx, resolved, refCurrency)
	if err != nil {
		return nil, err
	}

	report := &models.TrendReport{
		Dates:       resolved,
		RefCurrency: refCurrency,
		Trends:      buildTrends(resolved, normalized),
	}
	report.Summary = summarizeTrends(resolved, normalized, report.Trends)
	report.Summary.MissingDates = missing
	return report, nil
}

// resolveDates maps each target date onto an available snapshot date.
// Unresolvable targets are returned as missing. Duplicates collapse so a
// sparse history never compares a date against itself.
func resolveDates(targets, available []time.Time, snap bool) (resolved, missing []time.Time) {
	availSet := make(map[time.Time]bool, len(available))
	for _, d := range available {
		availSet[d] = true
	}

	seen := make(map[time.Time]bool)
	for _, target := range targets {
		var date time.Time
		var ok bool
		if snap {
			date, ok = closestAtOrBefore(available, target)
		} else {
			date, ok = target, availSet[target]
		}
		if !ok {
			missing = append(missing, target)
			continue
		}
		if !seen[date] {
			seen[date] = true
			resolved = append(resolved, date)
		}
	}
	sort.Slice(resolved, func(i, j int) bool { return resolved[i].Before(resolved[j]) })
	return resolved, missing
}

func buildTrends(dates []time.Time, normalized map[time.Time][]*models.NormalizedRecord) []*models.TickerTrend {
	totals := make(map[time.Time]decimal.Decimal, len(dates))
	byDate := make(map[time.Time]map[string]*models.NormalizedRecord, len(dates))
	names := make(map[string]string)
	var tickers []string

	for _, d := range dates {
		byDate[d] = make(map[string]*models.NormalizedRecord)
		total := decimal.Zero
		for _, rec := range normalized[d] {
			byDate[d][rec.Ticker] = rec
			total = total.Add(rec.RefAmount)
			if _, ok := names[rec.Ticker]; !ok {
				names[rec.Ticker] = rec.Name
				tickers = append(tickers, rec.Ticker)
			}
		}
		totals[d] = total
	}
	sort.Strings(tickers)

	trends := make([]*models.TickerTrend, 0, len(tickers))
	for _, ticker := range tickers {
		trend := &models.TickerTrend{Ticker: ticker, Name: names[ticker]}
		for _, d := range dates {
			point := models.TrendPoint{Date: d}
			if rec, ok := byDate[d][ticker]; ok {
				point.Value = decPtr(rec.RefAmount)
				point.Rank = intPtr(rec.Rank)
				point.Share = sharePtr(rec.RefAmount, totals[d])
			}
			trend.Points = append(trend.Points, point)
		}
		deriveMetrics(trend)
		trends = append(trends, trend)
	}
	return trends
}

// deriveMetrics fills the analytics for one series. Metrics that need more
// data than the series holds stay nil.
func deriveMetrics(trend *models.TickerTrend) {
	var present []models.TrendPoint
	for _, p := range trend.Points {
		if p.Value != nil {
			present = append(present, p)
		}
	}
	if len(present) < 2 {
		return
	}

	first, last := present[0], present[len(present)-1]
	abs := last.Value.Sub(*first.Value)
	trend.OverallChangeAbs = decPtr(abs)
	if first.Value.IsPositive() {
		pct := abs.Div(*first.Value).Mul(hundred).InexactFloat64()
		trend.OverallChangePct = &pct
	}

	trend.CAGR = seriesCAGR(first, last)
	trend.Volatility = seriesVolatility(present)
	trend.MaxDrawdown = seriesMaxDrawdown(present)
}

// seriesCAGR annualizes the growth between the first and last present
// points
func seriesCAGR(first, last models.TrendPoint) *float64 {
	if !first.Value.IsPositive() || !last.Value.IsPositive() {
		return nil
	}
	days := last.Date.Sub(first.Date).Hours() / 24
	if days <= 0 {
		return nil
	}
	years := days / daysPerYear
	ratio := last.Value.InexactFloat64() / first.Value.InexactFloat64()
	cagr := (math.Pow(ratio, 1/years) - 1) * 100
	return &cagr
}

// seriesVolatility is the population standard deviation of period-over-period
// percent changes. It needs at least three points to mean anything.
func seriesVolatility(present []models.TrendPoint) *float64 {
	if len(present) < 3 {
		return nil
	}
	var changes []float64
	for i := 1; i < len(present); i++ {
		prev := present[i-1].Value.InexactFloat64()
		if prev <= 0 {
			return nil
		}
		cur := present[i].Value.InexactFloat64()
		changes = append(changes, (cur-prev)/prev*100)
	}

	mean := 0.0
	for _, c := range changes {
		mean += c
	}
	mean /= float64(len(changes))

	variance := 0.0
	for _, c := range changes {
		variance += (c - mean) * (c - mean)
	}
	variance /= float64(len(changes))

	vol := math.Sqrt(variance)
	return &vol
}

// seriesMaxDrawdown is the worst peak-to-trough decline, as a negative
// percentage
func seriesMaxDrawdown(present []models.TrendPoint) *float64 {
	peak := present[0].Value.InexactFloat64()
	if peak <= 0 {
		return nil
	}
	worst := 0.0
	for _, p := range present[1:] {
		v := p.Value.InexactFloat64()
		if v > peak {
			peak = v
			continue
		}
		if dd := (v - peak) / peak * 100; dd < worst {
			worst = dd
		}
	}
	return &worst
}

func summarizeTrends(dates []time.Time, normalized map[time.Time][]*models.NormalizedRecord, trends []*models.TickerTrend) *models.TrendSummary {
	summary := &models.TrendSummary{
		StartDate: dates[0],
		EndDate:   dates[len(dates)-1],
		Periods:   len(dates),
	}
	for _, rec := range normalized[summary.StartDate] {
		summary.TotalStart = summary.TotalStart.Add(rec.RefAmount)
	}
	for _, rec := range normalized[summary.EndDate] {
		summary.TotalEnd = summary.TotalEnd.Add(rec.RefAmount)
	}
	if summary.TotalStart.IsPositive() {
		summary.TotalChangePct = summary.TotalEnd.Sub(summary.TotalStart).
			Div(summary.TotalStart).Mul(hundred).InexactFloat64()
	}

	var bestSet, volSet bool
	var minVol, maxVol float64
	for _, trend := range trends {
		if trend.OverallChangePct != nil {
			if !bestSet || *trend.OverallChangePct > summary.BestChangePct {
				summary.BestPerformer = trend.Ticker
				summary.BestChangePct = *trend.OverallChangePct
			}
			if !bestSet || *trend.OverallChangePct < summary.WorstChangePct {
				summary.WorstPerformer = trend.Ticker
				summary.WorstChangePct = *trend.OverallChangePct
			}
			bestSet = true
		}
		if trend.Volatility != nil {
			if !volSet || *trend.Volatility > maxVol {
				summary.MostVolatile = trend.Ticker
				maxVol = *trend.Volatility
			}
			if !volSet || *trend.Volatility < minVol {
				summary.MostStable = trend.Ticker
				minVol = *trend.Volatility
			}
			volSet = true
		}
	}
	return summary
}

// yearsBack subtracts whole years; Feb 29 anchors land on Feb 28 when the
// target year is not a leap year
func yearsBack(anchor time.Time, years int) time.Time {
	target := anchor.AddDate(-years, 0, 0)
	if anchor.Month() == time.February && anchor.Day() == 29 && target.Month() == time.March {
		target = target.AddDate(0, 0, -1)
	}
	return target
}

// quarterEnd maps a date to the last day of its calendar quarter
func quarterEnd(t time.Time) time.Time {
	switch {
	case t.Month() <= time.March:
		return time.Date(t.Year(), time.March, 31, 0, 0, 0, 0, time.UTC)
	case t.Month() <= time.June:
		return time.Date(t.Year(), time.June, 30, 0, 0, 0, 0, time.UTC)
	case t.Month() <= time.September:
		return time.Date(t.Year(), time.September, 30, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), time.December, 31, 0, 0, 0, 0, time.UTC)
	}
}
