package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type FilamentLogRepo interface {
	Create(ctx context.Context, tx *gorm.DB, logs []*types.FilamentLog) ([]*types.FilamentLog, error)
	GetByFilamentIDs(ctx context.Context, tx *gorm.DB, filamentIDs []uuid.UUID) ([]*types.FilamentLog, error)
	DeleteByFilamentIDs(ctx context.Context, tx *gorm.DB, filamentIDs []uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type filamentLogRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFilamentLogRepo(db *gorm.DB, baseLog *logger.Logger) FilamentLogRepo {
	return &filamentLogRepo{db: db, log: baseLog.With("repo", "FilamentLogRepo")}
}

func (r *filamentLogRepo) Create(ctx context.Context, tx *gorm.DB, logs []*types.FilamentLog) ([]*types.FilamentLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(logs) == 0 {
		return []*types.FilamentLog{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}

func (r *filamentLogRepo) GetByFilamentIDs(ctx context.Context, tx *gorm.DB, filamentIDs []uuid.UUID) ([]*types.FilamentLog, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.FilamentLog
	if len(filamentIDs) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("filament_id IN ?", filamentIDs).
		Order("time DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *filamentLogRepo) DeleteByFilamentIDs(ctx context.Context, tx *gorm.DB, filamentIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(filamentIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("filament_id IN ?", filamentIDs).
		Delete(&types.FilamentLog{}).Error
}

func (r *filamentLogRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.FilamentLog{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
