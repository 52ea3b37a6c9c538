package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type PrintRepo interface {
	Create(ctx context.Context, tx *gorm.DB, prints []*types.Print) ([]*types.Print, error)
	GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Print, error)
	GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Print, error)
	DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error
	DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type printRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPrintRepo(db *gorm.DB, baseLog *logger.Logger) PrintRepo {
	return &printRepo{db: db, log: baseLog.With("repo", "PrintRepo")}
}

func (r *printRepo) Create(ctx context.Context, tx *gorm.DB, prints []*types.Print) ([]*types.Print, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(prints) == 0 {
		return []*types.Print{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&prints).Error; err != nil {
		return nil, err
	}
	return prints, nil
}

func (r *printRepo) GetByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) ([]*types.Print, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Print
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

func (r *printRepo) GetByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Print, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var results []*types.Print
	if err := transaction.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *printRepo) DeleteByIDs(ctx context.Context, tx *gorm.DB, ids []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(ids) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("id IN ?", ids).
		Delete(&types.Print{}).Error
}

func (r *printRepo) DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.Print{}).Error
}
