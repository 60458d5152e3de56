package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/capwatch/capwatch/internal/models"
)

// ---- Mocks for repositories and providers used in unit tests ----

type mockQuoteRepository struct {
	quotes []*models.CurrencyQuote
}

func (m *mockQuoteRepository) Save(ctx context.Context, quote *models.CurrencyQuote) error {
	m.quotes = append(m.quotes, quote)
	return nil
}

func (m *mockQuoteRepository) SaveBatch(ctx context.Context, quotes []*models.CurrencyQuote) error {
	m.quotes = append(m.quotes, quotes...)
	return nil
}

func (m *mockQuoteRepository) ListThrough(ctx context.Context, asOf *time.Time) ([]*models.CurrencyQuote, error) {
	if asOf == nil {
		return m.quotes, nil
	}
	var out []*models.CurrencyQuote
	for _, q := range m.quotes {
		if !q.AsOf.After(*asOf) {
			out = append(out, q)
		}
	}
	return out, nil
}

func (m *mockQuoteRepository) ListAll(ctx context.Context) ([]*models.CurrencyQuote, error) {
	return m.quotes, nil
}

type mockSnapshotRepository struct {
	records map[time.Time][]*models.MarketCapRecord
	saved   []*models.MarketCapRecord
}

func newMockSnapshotRepository() *mockSnapshotRepository {
	return &mockSnapshotRepository{records: make(map[time.Time][]*models.MarketCapRecord)}
}

func (m *mockSnapshotRepository) add(rec *models.MarketCapRecord) {
	d := dateOnly(rec.AsOf)
	m.records[d] = append(m.records[d], rec)
}

func (m *mockSnapshotRepository) SaveRecords(ctx context.Context, records []*models.MarketCapRecord) error {
	m.saved = append(m.saved, records...)
	for _, rec := range records {
		m.add(rec)
	}
	return nil
}

func (m *mockSnapshotRepository) GetSnapshot(ctx context.Context, date time.Time) ([]*models.MarketCapRecord, error) {
	return m.records[dateOnly(date)], nil
}

func (m *mockSnapshotRepository) ListDates(ctx context.Context) ([]time.Time, error) {
	dates := make([]time.Time, 0, len(m.records))
	for d := range m.records {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// mockQuoteProvider fails a configurable number of times per ticker and
// tracks how many fetches run concurrently
type mockQuoteProvider struct {
	mu          sync.Mutex
	caps        map[string]decimal.Decimal
	currency    string
	failures    map[string]int
	calls       map[string]int
	inFlight    int
	maxInFlight int
	quotes      []*models.CurrencyQuote
}

func newMockQuoteProvider() *mockQuoteProvider {
	return &mockQuoteProvider{
		caps:     make(map[string]decimal.Decimal),
		currency: "USD",
		failures: make(map[string]int),
		calls:    make(map[string]int),
	}
}

func (m *mockQuoteProvider) FetchQuotes(ctx context.Context, pairs []string) ([]*models.CurrencyQuote, error) {
	return m.quotes, nil
}

func (m *mockQuoteProvider) FetchMarketCap(ctx context.Context, ticker string, date time.Time) (decimal.Decimal, string, error) {
	m.mu.Lock()
	m.inFlight++
	if m.inFlight > m.maxInFlight {
		m.maxInFlight = m.inFlight
	}
	m.calls[ticker]++
	call := m.calls[ticker]
	m.mu.Unlock()

	// Hold the slot briefly so overlapping fetches are observable
	time.Sleep(2 * time.Millisecond)

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inFlight--

	if call <= m.failures[ticker] {
		return decimal.Zero, "", fmt.Errorf("provider unavailable for %s", ticker)
	}
	amount, ok := m.caps[ticker]
	if !ok {
		return decimal.Zero, "", fmt.Errorf("unknown ticker %s", ticker)
	}
	return amount, m.currency, nil
}
