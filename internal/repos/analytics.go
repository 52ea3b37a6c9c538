package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type AnalyticsRepo interface {
	// IncrementDaily applies the deltas to the row for date as one upsert
	// statement, so concurrent callers never lose an increment.
	IncrementDaily(ctx context.Context, tx *gorm.DB, date string, deltas types.AnalyticsDeltas) error
	GetByDate(ctx context.Context, tx *gorm.DB, date string) (*types.AnalyticsEntry, error)
	GetRange(ctx context.Context, tx *gorm.DB, startDate, endDate string) ([]*types.AnalyticsEntry, error)
}

type analyticsRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAnalyticsRepo(db *gorm.DB, baseLog *logger.Logger) AnalyticsRepo {
	return &analyticsRepo{db: db, log: baseLog.With("repo", "AnalyticsRepo")}
}

func (r *analyticsRepo) IncrementDaily(ctx context.Context, tx *gorm.DB, date string, deltas types.AnalyticsDeltas) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}

	assignments := map[string]interface{}{}
	if deltas.SignUps != 0 {
		assignments["sign_ups"] = gorm.Expr(`sign_ups + ?`, deltas.SignUps)
	}
	if deltas.FilamentCreated != 0 {
		assignments["filament_created"] = gorm.Expr(`filament_created + ?`, deltas.FilamentCreated)
	}
	if deltas.LogsCreated != 0 {
		assignments["logs_created"] = gorm.Expr(`logs_created + ?`, deltas.LogsCreated)
	}
	if deltas.BoxesCreated != 0 {
		assignments["boxes_created"] = gorm.Expr(`boxes_created + ?`, deltas.BoxesCreated)
	}
	if len(assignments) == 0 {
		return nil
	}

	entry := &types.AnalyticsEntry{
		Date:            date,
		SignUps:         deltas.SignUps,
		FilamentCreated: deltas.FilamentCreated,
		LogsCreated:     deltas.LogsCreated,
		BoxesCreated:    deltas.BoxesCreated,
	}
	return transaction.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "date"}},
			DoUpdates: clause.Assignments(assignments),
		}).
		Create(entry).Error
}

func (r *analyticsRepo) GetByDate(ctx context.Context, tx *gorm.DB, date string) (*types.AnalyticsEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AnalyticsEntry
	if err := transaction.WithContext(ctx).
		Where("date = ?", date).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *analyticsRepo) GetRange(ctx context.Context, tx *gorm.DB, startDate, endDate string) ([]*types.AnalyticsEntry, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.AnalyticsEntry
	if err := transaction.WithContext(ctx).
		Where("date BETWEEN ? AND ?", startDate, endDate).
		Order("date ASC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}
