package models

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// TrendPoint is one ticker's normalized value on one snapshot date.
// Value is nil when the ticker is absent from that snapshot.
type TrendPoint struct {
	Date  time.Time        `json:"date"`
	Value *decimal.Decimal `json:"value"`
	Rank  *int             `json:"rank"`
	Share *decimal.Decimal `json:"share"`
}

// TickerTrend is a ticker's series across the requested dates plus the
// derived metrics. Metrics stay nil when the series is too sparse to
// compute them.
type TickerTrend struct {
	Ticker           string           `json:"ticker"`
	Name             string           `json:"name"`
	Points           []TrendPoint     `json:"points"`
	OverallChangeAbs *decimal.Decimal `json:"overall_change_abs"`
	OverallChangePct *float64         `json:"overall_change_pct"`
	// CAGR and Volatility are percentages, MaxDrawdown is a negative percentage
	CAGR        *float64 `json:"cagr"`
	Volatility  *float64 `json:"volatility"`
	MaxDrawdown *float64 `json:"max_drawdown"`
}

// TrendSummary aggregates a trend analysis across all tickers
type TrendSummary struct {
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	Periods        int             `json:"periods"`
	TotalStart     decimal.Decimal `json:"total_start"`
	TotalEnd       decimal.Decimal `json:"total_end"`
	TotalChangePct float64         `json:"total_change_pct"`
	BestPerformer  string          `json:"best_performer"`
	BestChangePct  float64         `json:"best_change_pct"`
	WorstPerformer string          `json:"worst_performer"`
	WorstChangePct float64         `json:"worst_change_pct"`
	MostVolatile   string          `json:"most_volatile"`
	MostStable     string          `json:"most_stable"`
	// MissingDates lists requested dates that had no snapshot and were skipped
	MissingDates []time.Time `json:"missing_dates,omitempty"`
}

// TrendReport is the full result of a multi-date trend analysis
type TrendReport struct {
	Dates       []time.Time    `json:"dates"`
	RefCurrency string         `json:"ref_currency"`
	Trends      []*TickerTrend `json:"trends"`
	Summary     *TrendSummary  `json:"summary"`
}

// RollingWindow is a lookback period measured in calendar days
type RollingWindow int

const (
	Rolling30  RollingWindow = 30
	Rolling90  RollingWindow = 90
	Rolling180 RollingWindow = 180
	Rolling365 RollingWindow = 365
)

// CustomWindow builds a window of an arbitrary positive day count
func CustomWindow(days int) RollingWindow { return RollingWindow(days) }

// Days returns the window length in days
func (w RollingWindow) Days() int { return int(w) }

// Name returns a short label such as "30d"
func (w RollingWindow) Name() string { return fmt.Sprintf("%dd", int(w)) }

// BenchmarkRow is one ticker's return relative to the market-wide benchmark
type BenchmarkRow struct {
	Ticker string `json:"ticker"`
	Name   string `json:"name"`
	// ChangePct is the ticker's own percent change over the period
	ChangePct *decimal.Decimal `json:"change_pct"`
	// RelativePct = ChangePct - benchmark change; nil when ChangePct is nil
	RelativePct *decimal.Decimal `json:"relative_pct"`
	Beat        bool             `json:"beat"`
}

// BenchmarkReport compares every ticker against the total-market proxy
type BenchmarkReport struct {
	FromDate    time.Time `json:"from_date"`
	ToDate      time.Time `json:"to_date"`
	RefCurrency string    `json:"ref_currency"`
	// BenchmarkPct is the percent change of the summed normalized market cap
	BenchmarkPct decimal.Decimal `json:"benchmark_pct"`
	Rows         []*BenchmarkRow `json:"rows"`
}
