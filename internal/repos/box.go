package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type BoxRepo interface {
	Create(ctx context.Context, tx *gorm.DB, boxes []*types.Box) ([]*types.Box, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Box, error)
	// GetByIDsForUpdate locks the rows until the surrounding transaction
	// ends. Writers that read filament_ids and write a recomputed copy back
	// must use this form, or two of them overwrite each other.
	GetByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Box, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Box, error)
	UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error
	UpdateIndexes(ctx context.Context, tx *gorm.DB, indexes map[uuid.UUID]int) error
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
	NextIndex(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error)
	Count(ctx context.Context, tx *gorm.DB) (int64, error)
}

type boxRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBoxRepo(db *gorm.DB, baseLog *logger.Logger) BoxRepo {
	return &boxRepo{db: db, log: baseLog.With("repo", "BoxRepo")}
}

func (r *boxRepo) Create(ctx context.Context, tx *gorm.DB, boxes []*types.Box) ([]*types.Box, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(boxes) == 0 {
		return []*types.Box{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&boxes).Error; err != nil {
		return nil, err
	}
	return boxes, nil
}

func (r *boxRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Box, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Box
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

func (r *boxRepo) GetByIDsForUpdate(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Box, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Box
	if len(ids) == 0 {
		return results, nil
	}
	if err := transaction.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id IN ?", ids).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *boxRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Box, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Box
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order(`"index" ASC`).
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *boxRepo) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, updates map[string]interface{}) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(updates) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Model(&types.Box{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// UpdateIndexes persists one index per box. Callers pass the surrounding
// transaction so the whole set commits as a unit.
func (r *boxRepo) UpdateIndexes(ctx context.Context, tx *gorm.DB, indexes map[uuid.UUID]int) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	for id, idx := range indexes {
		if err := transaction.WithContext(ctx).
			Model(&types.Box{}).
			Where("id = ?", id).
			Update("index", idx).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *boxRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Box{}).Error
}

func (r *boxRepo) DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.Box{}).Error
}

func (r *boxRepo) NextIndex(ctx context.Context, tx *gorm.DB, userID uuid.UUID) (int, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var next int
	if err := transaction.WithContext(ctx).
		Model(&types.Box{}).
		Where("user_id = ?", userID).
		Select(`COALESCE(MAX("index") + 1, 0)`).
		Scan(&next).Error; err != nil {
		return 0, err
	}
	return next, nil
}

func (r *boxRepo) Count(ctx context.Context, tx *gorm.DB) (int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var count int64
	if err := transaction.WithContext(ctx).
		Model(&types.Box{}).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
