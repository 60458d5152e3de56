package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// RateSource records how a conversion rate was obtained
type RateSource string

const (
	RateSourceSame       RateSource = "same"
	RateSourceDirect     RateSource = "direct"
	RateSourceReverse    RateSource = "reverse"
	RateSourceCross      RateSource = "cross"
	RateSourceUnresolved RateSource = "unresolved"
)

// RateMap holds conversion rates between currency pairs for a single logical
// instant. It is populated once at build time and read-only afterwards.
// Invariant: if "A/B" is present then "B/A" is present and equals its
// reciprocal.
type RateMap struct {
	// AsOf is the instant the map was built for; nil means "latest" mode.
	AsOf  *time.Time
	rates map[string]decimal.Decimal
}

// NewRateMap creates an empty rate map for the given instant
func NewRateMap(asOf *time.Time) *RateMap {
	return &RateMap{AsOf: asOf, rates: make(map[string]decimal.Decimal)}
}

// Set records the rate for from -> to. Construction-time use only.
func (m *RateMap) Set(from, to string, rate decimal.Decimal) {
	m.rates[from+"/"+to] = rate
}

// Rate returns the rate for from -> to, if present
func (m *RateMap) Rate(from, to string) (decimal.Decimal, bool) {
	r, ok := m.rates[from+"/"+to]
	return r, ok
}

// Has reports whether a rate for from -> to is present
func (m *RateMap) Has(from, to string) bool {
	_, ok := m.rates[from+"/"+to]
	return ok
}

// Len returns the number of pairs in the map
func (m *RateMap) Len() int { return len(m.rates) }

// IsEmpty reports whether the map holds no pairs at all
func (m *RateMap) IsEmpty() bool { return len(m.rates) == 0 }

// Currencies returns the sorted set of currency codes appearing in the map
func (m *RateMap) Currencies() []string {
	seen := make(map[string]struct{})
	for key := range m.rates {
		for i := 0; i < len(key); i++ {
			if key[i] == '/' {
				seen[key[:i]] = struct{}{}
				seen[key[i+1:]] = struct{}{}
				break
			}
		}
	}
	codes := make([]string, 0, len(seen))
	for c := range seen {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
