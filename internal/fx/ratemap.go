// Package fx holds the pure rate-map construction and currency conversion
// core. It has no I/O; callers load quotes and pass them in.
package fx

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/capwatch/capwatch/internal/models"
)

// BuildRateMap selects one quote per currency pair and folds the selection
// into a bidirectional rate map.
//
// When asOf is set, the quote chosen for each pair is the latest one at or
// before that instant; quotes after it are ignored. When asOf is nil the
// latest quote per pair wins. Invalid quotes are skipped. The ask side is
// used as the conversion rate.
//
// After direct pairs are placed, missing reverse pairs are filled with exact
// reciprocals, then missing cross pairs are derived through a shared
// intermediate currency. When several intermediates qualify, the
// lexicographically smallest currency code is used, so construction is
// deterministic regardless of input order.
func BuildRateMap(quotes []*models.CurrencyQuote, asOf *time.Time) *models.RateMap {
	rm := models.NewRateMap(asOf)

	selected := make(map[string]*models.CurrencyQuote)
	for _, q := range quotes {
		if q.Validate() != nil {
			continue
		}
		if asOf != nil && q.AsOf.After(*asOf) {
			continue
		}
		sym := q.Symbol()
		if cur, ok := selected[sym]; !ok || q.AsOf.After(cur.AsOf) {
			selected[sym] = q
		}
	}

	symbols := make([]string, 0, len(selected))
	for sym := range selected {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	for _, sym := range symbols {
		q := selected[sym]
		rm.Set(q.BaseCurrency, q.QuoteCurrency, q.Ask)
	}

	// Reverse pairs: quoted rates always win over derived reciprocals
	one := decimal.NewFromInt(1)
	for _, sym := range symbols {
		q := selected[sym]
		if !rm.Has(q.QuoteCurrency, q.BaseCurrency) {
			rm.Set(q.QuoteCurrency, q.BaseCurrency, one.Div(q.Ask))
		}
	}

	// Cross pairs derived from the direct+reverse base set only, so a
	// derived rate never feeds another derivation
	currencies := rm.Currencies()
	type cross struct {
		from, to string
		rate     decimal.Decimal
	}
	var derived []cross
	for _, a := range currencies {
		for _, c := range currencies {
			if a >= c || rm.Has(a, c) {
				continue
			}
			for _, b := range currencies {
				ab, ok := rm.Rate(a, b)
				if !ok {
					continue
				}
				bc, ok := rm.Rate(b, c)
				if !ok {
					continue
				}
				derived = append(derived, cross{a, c, ab.Mul(bc)})
				break
			}
		}
	}
	for _, d := range derived {
		rm.Set(d.from, d.to, d.rate)
		rm.Set(d.to, d.from, one.Div(d.rate))
	}

	return rm
}
