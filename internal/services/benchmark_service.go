package services

import (
	"context"
	"time"

	"github.com/capwatch/capwatch/internal/models"
)

// BenchmarkServiceImpl implements BenchmarkService. The benchmark is the
// total normalized market cap of the whole universe, a proxy that needs no
// external index data.
type BenchmarkServiceImpl struct {
	comparisons ComparisonService
}

func NewBenchmarkService(comparisons ComparisonService) BenchmarkService {
	return &BenchmarkServiceImpl{comparisons: comparisons}
}

func (s *BenchmarkServiceImpl) Compare(ctx context.Context, fromDate, toDate time.Time, refCurrency string) (*models.BenchmarkReport, error) {
	report, err := s.comparisons.Compare(ctx, fromDate, toDate, refCurrency)
	if err != nil {
		return nil, err
	}

	benchmark := report.Summary.TotalChangePercent
	result := &models.BenchmarkReport{
		FromDate:     report.FromDate,
		ToDate:       report.ToDate,
		RefCurrency:  refCurrency,
		BenchmarkPct: benchmark,
	}

	for _, row := range report.Rows {
		bRow := &models.BenchmarkRow{
			Ticker:    row.Ticker,
			Name:      row.Name,
			ChangePct: row.PercentChange,
		}
		if row.PercentChange != nil {
			rel := row.PercentChange.Sub(benchmark)
			bRow.RelativePct = &rel
			bRow.Beat = rel.IsPositive()
		}
		result.Rows = append(result.Rows, bRow)
	}
	return result, nil
}
