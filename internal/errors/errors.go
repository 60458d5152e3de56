package errors

import (
	"fmt"
	"time"
)

type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return e.Field + ": " + e.Message
}

// ErrNoRateData means no usable currency quotes exist at or before the
// anchor instant. Normalization cannot proceed without rates.
type ErrNoRateData struct {
	AsOf *time.Time
}

func (e *ErrNoRateData) Error() string {
	if e.AsOf == nil {
		return "no rate data available"
	}
	return fmt.Sprintf("no rate data available at or before %s", e.AsOf.Format("2006-01-02"))
}

// ErrNoSnapshot means no market-cap snapshot exists for a requested date.
type ErrNoSnapshot struct {
	Date time.Time
}

func (e *ErrNoSnapshot) Error() string {
	return fmt.Sprintf("no snapshot for %s", e.Date.Format("2006-01-02"))
}

// ErrInsufficientDates means an analysis needs more snapshot dates than
// were resolvable.
type ErrInsufficientDates struct {
	Need int
	Got  int
}

func (e *ErrInsufficientDates) Error() string {
	return fmt.Sprintf("need at least %d snapshot dates, got %d", e.Need, e.Got)
}
