package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/capwatch/capwatch/internal/db"
	"github.com/capwatch/capwatch/internal/models"
)

type quoteRepository struct {
	db *db.DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(database *db.DB) QuoteRepository {
	return &quoteRepository{db: database}
}

func (r *quoteRepository) Save(ctx context.Context, quote *models.CurrencyQuote) error {
	if err := quote.Validate(); err != nil {
		return fmt.Errorf("invalid quote: %w", err)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_currency"}, {Name: "quote_currency"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"ask", "bid", "source"}),
	}).Create(quote).Error
	if err != nil {
		return fmt.Errorf("failed to save quote %s: %w", quote.Symbol(), err)
	}
	return nil
}

func (r *quoteRepository) SaveBatch(ctx context.Context, quotes []*models.CurrencyQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	for _, q := range quotes {
		if err := q.Validate(); err != nil {
			return fmt.Errorf("invalid quote %s: %w", q.Symbol(), err)
		}
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "base_currency"}, {Name: "quote_currency"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"ask", "bid", "source"}),
	}).Create(&quotes).Error
	if err != nil {
		return fmt.Errorf("failed to save quote batch: %w", err)
	}
	return nil
}

func (r *quoteRepository) ListThrough(ctx context.Context, asOf *time.Time) ([]*models.CurrencyQuote, error) {
	var quotes []*models.CurrencyQuote
	query := r.db.WithContext(ctx).Order("as_of ASC")
	if asOf != nil {
		query = query.Where("as_of <= ?", *asOf)
	}
	if err := query.Find(&quotes).Error; err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, nil
}

func (r *quoteRepository) ListAll(ctx context.Context) ([]*models.CurrencyQuote, error) {
	return r.ListThrough(ctx, nil)
}
