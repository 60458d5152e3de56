package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ComparisonRow is the two-date delta for a single ticker. Tickers present on
// only one side keep nil fields for the missing side; they are never dropped.
type ComparisonRow struct {
	Ticker         string           `json:"ticker"`
	Name           string           `json:"name"`
	FromValue      *decimal.Decimal `json:"from_value"`
	ToValue        *decimal.Decimal `json:"to_value"`
	AbsoluteChange *decimal.Decimal `json:"absolute_change"`
	PercentChange  *decimal.Decimal `json:"percent_change"`
	FromRank       *int             `json:"from_rank"`
	ToRank         *int             `json:"to_rank"`
	// RankChange = FromRank - ToRank; positive means the ticker moved toward #1
	RankChange *int             `json:"rank_change"`
	FromShare  *decimal.Decimal `json:"from_share"`
	ToShare    *decimal.Decimal `json:"to_share"`
	// Conversion provenance per side; unresolved conversions must be visible here
	FromRateSource RateSource `json:"from_rate_source,omitempty"`
	ToRateSource   RateSource `json:"to_rate_source,omitempty"`
	Warning        string     `json:"warning,omitempty"`
}

// ComparisonSummary aggregates a comparison row set
type ComparisonSummary struct {
	TotalFrom          decimal.Decimal `json:"total_from"`
	TotalTo            decimal.Decimal `json:"total_to"`
	TotalChange        decimal.Decimal `json:"total_change"`
	TotalChangePercent decimal.Decimal `json:"total_change_percent"`
	Gainers            int             `json:"gainers"`
	Losers             int             `json:"losers"`
	NewTickers         int             `json:"new_tickers"`
	DelistedTickers    int             `json:"delisted_tickers"`
}

// ComparisonReport is the full result of a two-date comparison
type ComparisonReport struct {
	FromDate    time.Time          `json:"from_date"`
	ToDate      time.Time          `json:"to_date"`
	RefCurrency string             `json:"ref_currency"`
	Rows        []*ComparisonRow   `json:"rows"`
	Summary     *ComparisonSummary `json:"summary"`
}

// Row returns the row for a ticker, or nil
func (r *ComparisonReport) Row(ticker string) *ComparisonRow {
	for _, row := range r.Rows {
		if row.Ticker == ticker {
			return row
		}
	}
	return nil
}
