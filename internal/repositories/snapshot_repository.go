package repositories

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"github.com/capwatch/capwatch/internal/db"
	"github.com/capwatch/capwatch/internal/models"
)

type snapshotRepository struct {
	db *db.DB
}

// NewSnapshotRepository creates a new snapshot repository
func NewSnapshotRepository(database *db.DB) SnapshotRepository {
	return &snapshotRepository{db: database}
}

func (r *snapshotRepository) SaveRecords(ctx context.Context, records []*models.MarketCapRecord) error {
	if len(records) == 0 {
		return nil
	}
	for _, rec := range records {
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("invalid record %s: %w", rec.Ticker, err)
		}
		// Snapshots are daily; midnight UTC keeps one row per (ticker, day)
		rec.AsOf = truncateToDay(rec.AsOf)
	}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "ticker"}, {Name: "as_of"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "raw_amount", "raw_currency", "active"}),
	}).Create(&records).Error
	if err != nil {
		return fmt.Errorf("failed to save snapshot records: %w", err)
	}
	return nil
}

func (r *snapshotRepository) GetSnapshot(ctx context.Context, date time.Time) ([]*models.MarketCapRecord, error) {
	start := truncateToDay(date)
	end := start.Add(24 * time.Hour)

	var records []*models.MarketCapRecord
	err := r.db.WithContext(ctx).
		Where("as_of >= ? AND as_of < ?", start, end).
		Order("ticker ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load snapshot for %s: %w", start.Format("2006-01-02"), err)
	}
	return records, nil
}

func (r *snapshotRepository) ListDates(ctx context.Context) ([]time.Time, error) {
	var dates []time.Time
	err := r.db.WithContext(ctx).
		Model(&models.MarketCapRecord{}).
		Distinct("as_of").
		Order("as_of ASC").
		Pluck("as_of", &dates).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list snapshot dates: %w", err)
	}
	for i := range dates {
		dates[i] = truncateToDay(dates[i])
	}
	return dates, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
