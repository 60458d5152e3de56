package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MarketCapRecord is one ticker's market capitalization in its local currency
// on a snapshot date. Records are immutable once a snapshot is loaded.
type MarketCapRecord struct {
	ID          int             `json:"id" gorm:"primaryKey"`
	Ticker      string          `json:"ticker" gorm:"uniqueIndex:idx_caps_ticker_asof"`
	Name        string          `json:"name"`
	RawAmount   decimal.Decimal `json:"raw_amount" gorm:"type:decimal(28,4)"`
	RawCurrency string          `json:"raw_currency"`
	AsOf        time.Time       `json:"as_of" gorm:"uniqueIndex:idx_caps_ticker_asof"`
	Active      bool            `json:"active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// TableName overrides the gorm table name
func (MarketCapRecord) TableName() string { return "market_caps" }

// Validate validates the record data
func (r *MarketCapRecord) Validate() error {
	if r.Ticker == "" {
		return errors.New("ticker is required")
	}
	if r.RawCurrency == "" {
		return errors.New("raw_currency is required")
	}
	if r.RawAmount.IsNegative() {
		return errors.New("raw_amount must not be negative")
	}
	if r.AsOf.IsZero() {
		return errors.New("as_of is required")
	}
	return nil
}

// NormalizedRecord is a MarketCapRecord re-expressed in a reference currency,
// with the conversion provenance kept for auditability.
type NormalizedRecord struct {
	MarketCapRecord
	RefAmount   decimal.Decimal `json:"ref_amount"`
	RefCurrency string          `json:"ref_currency"`
	RateUsed    decimal.Decimal `json:"rate_used"`
	RateSource  RateSource      `json:"rate_source"`
	// Rank within the snapshot by descending normalized amount, 1-based
	Rank int `json:"rank"`
}
