package fx

import (
	"github.com/shopspring/decimal"

	"github.com/capwatch/capwatch/internal/models"
)

// minorUnits maps exchange-specific minor-unit codes to their major currency
// and the divisor that rescales amounts. ILA is a plain alias for ILS.
var minorUnits = map[string]struct {
	major   string
	divisor decimal.Decimal
}{
	"GBp": {"GBP", decimal.NewFromInt(100)},
	"ZAc": {"ZAR", decimal.NewFromInt(100)},
	"ILA": {"ILS", decimal.NewFromInt(1)},
}

// Convert converts amount from one currency to another using the rate map.
// It returns the converted amount, the rate applied, and how the rate was
// obtained.
//
// Resolution order: same currency, minor-unit rescale, direct pair, reverse
// pair, cross through an intermediate currency. When no path exists the
// amount passes through unchanged with rate 1 and source Unresolved, so a
// missing pair degrades a single row instead of failing a whole run.
func Convert(amount decimal.Decimal, from, to string, rm *models.RateMap) (decimal.Decimal, decimal.Decimal, models.RateSource) {
	one := decimal.NewFromInt(1)

	if from == to {
		return amount, one, models.RateSourceSame
	}

	adjAmount, adjFrom := rescaleMinor(amount, from)
	adjTo := to
	if mu, ok := minorUnits[to]; ok {
		adjTo = mu.major
	}

	if adjFrom == adjTo {
		return adjAmount, one, models.RateSourceSame
	}

	if rate, ok := rm.Rate(adjFrom, adjTo); ok {
		return adjAmount.Mul(rate), rate, models.RateSourceDirect
	}

	if rate, ok := rm.Rate(adjTo, adjFrom); ok {
		inv := one.Div(rate)
		return adjAmount.Mul(inv), inv, models.RateSourceReverse
	}

	// Smallest intermediate code wins, matching rate-map construction
	for _, via := range rm.Currencies() {
		if via == adjFrom || via == adjTo {
			continue
		}
		fv, ok := rm.Rate(adjFrom, via)
		if !ok {
			continue
		}
		vt, ok := rm.Rate(via, adjTo)
		if !ok {
			continue
		}
		rate := fv.Mul(vt)
		return adjAmount.Mul(rate), rate, models.RateSourceCross
	}

	return amount, one, models.RateSourceUnresolved
}

// rescaleMinor converts a minor-unit amount (e.g. pence) to its major
// currency. Amounts in major currencies pass through untouched.
func rescaleMinor(amount decimal.Decimal, code string) (decimal.Decimal, string) {
	mu, ok := minorUnits[code]
	if !ok {
		return amount, code
	}
	return amount.Div(mu.divisor), mu.major
}
