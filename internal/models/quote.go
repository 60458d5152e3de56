package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyQuote is a persisted bid/ask quote for a currency pair at a point in time
type CurrencyQuote struct {
	ID            int             `json:"id" gorm:"primaryKey"`
	BaseCurrency  string          `json:"base_currency" gorm:"uniqueIndex:idx_quotes_pair_asof"`
	QuoteCurrency string          `json:"quote_currency" gorm:"uniqueIndex:idx_quotes_pair_asof"`
	Ask           decimal.Decimal `json:"ask" gorm:"type:decimal(24,10)"`
	Bid           decimal.Decimal `json:"bid" gorm:"type:decimal(24,10)"`
	AsOf          time.Time       `json:"as_of" gorm:"uniqueIndex:idx_quotes_pair_asof"`
	Source        string          `json:"source"`
	CreatedAt     time.Time       `json:"created_at"`
}

// TableName overrides the gorm table name
func (CurrencyQuote) TableName() string { return "currency_quotes" }

// Symbol returns the pair in "BASE/QUOTE" form, e.g. "EUR/USD"
func (q *CurrencyQuote) Symbol() string {
	return q.BaseCurrency + "/" + q.QuoteCurrency
}

// Validate validates the quote data
func (q *CurrencyQuote) Validate() error {
	if q.BaseCurrency == "" {
		return errors.New("base_currency is required")
	}
	if q.QuoteCurrency == "" {
		return errors.New("quote_currency is required")
	}
	if q.BaseCurrency == q.QuoteCurrency {
		return errors.New("base_currency and quote_currency must be different")
	}
	if q.Ask.IsZero() || q.Ask.IsNegative() {
		return errors.New("ask must be positive")
	}
	if q.Bid.IsZero() || q.Bid.IsNegative() {
		return errors.New("bid must be positive")
	}
	if q.AsOf.IsZero() {
		return errors.New("as_of is required")
	}
	return nil
}

// Common quote sources
const (
	QuoteSourceFMP    = "fmp"
	QuoteSourceManual = "manual"
	QuoteSourceMock   = "mock"
)
