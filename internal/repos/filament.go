package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type FilamentRepo interface {
	Create(ctx context.Context, tx *gorm.DB, filaments []*types.Filament) ([]*types.Filament, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Filament, error)
	GetByShortID(ctx context.Context, tx *gorm.DB, shortID string) (*types.Filament, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Filament, error)
	// GetScope returns the filament of one ordering scope in index order:
	// the named box when boxID is set, the user's unboxed list otherwise.
	GetScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID) ([]*types.Filament, error)
	SetBoxID(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, boxID *uuid.UUID) error
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	UpdateIndexes(ctx context.Context, tx *gorm.DB, indexes map[uuid.UUID]int) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type filamentRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFilamentRepo(db *gorm.DB, baseLog *logger.Logger) FilamentRepo {
	return &filamentRepo{db: db, log: baseLog.With("repo", "FilamentRepo")}
}

func (r *filamentRepo) Create(ctx context.Context, tx *gorm.DB, filaments []*types.Filament) ([]*types.Filament, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(filaments) == 0 {
		return []*types.Filament{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&filaments).Error; err != nil {
		return nil, err
	}
	return filaments, nil
}

func (r *filamentRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Filament, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Filament
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *filamentRepo) GetByShortID(ctx context.Context, tx *gorm.DB, shortID string) (*types.Filament, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Filament
	if err := transaction.WithContext(ctx).
		Where("short_id = ?", shortID).
		Limit(1).
		Find(&results).Error; err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0], nil
}

func (r *filamentRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Filament, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Filament
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(`"index" ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *filamentRepo) GetScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID) ([]*types.Filament, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	query := transaction.WithContext(ctx).Where("user_id = ?", userID)
	if boxID != nil {
		query = query.Where("box_id = ?", *boxID)
	} else {
		query = query.Where("box_id IS NULL")
	}
	var results []*types.Filament
	if err := query.Order(`"index" ASC`).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *filamentRepo) SetBoxID(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, boxID *uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Filament{}).
		Where("id IN ?", ids).
		Update("box_id", boxID).Error
}

func (r *filamentRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Filament{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *filamentRepo) UpdateIndexes(ctx context.Context, tx *gorm.DB, indexes map[uuid.UUID]int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	for id, idx := range indexes {
		if err := transaction.WithContext(ctx).
			Model(&types.Filament{}).
			Where("id = ?", id).
			Update("index", idx).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *filamentRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Filament{}).Error
}

func (r *filamentRepo) DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.Filament{}).Error
}

func (r *filamentRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Filament{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
