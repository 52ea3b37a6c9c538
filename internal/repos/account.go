package repos

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type AccountRepo interface {
	Create(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error)
	CountByProvider(ctx context.Context, tx *gorm.DB) (map[string]int64, error)
	DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error
}

type accountRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewAccountRepo(db *gorm.DB, baseLog *logger.Logger) AccountRepo {
	return &accountRepo{db: db, log: baseLog.With("repo", "AccountRepo")}
}

func (r *accountRepo) Create(ctx context.Context, tx *gorm.DB, accounts []*types.Account) ([]*types.Account, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(accounts) == 0 {
		return []*types.Account{}, nil
	}
	if err := transaction.WithContext(ctx).Create(&accounts).Error; err != nil {
		return nil, err
	}
	return accounts, nil
}

func (r *accountRepo) CountByProvider(ctx context.Context, tx *gorm.DB) (map[string]int64, error) {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	var rows []struct {
		Provider string
		Total    int64
	}
	if err := transaction.WithContext(ctx).
		Model(&types.Account{}).
		Select("provider, COUNT(*) AS total").
		Group("provider").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Provider] = row.Total
	}
	return out, nil
}

func (r *accountRepo) DeleteByUserIDs(ctx context.Context, tx *gorm.DB, userIDs []uuid.UUID) error {
	transaction := tx
	if transaction == nil {
		transaction = r.db
	}
	if len(userIDs) == 0 {
		return nil
	}
	return transaction.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Delete(&types.Account{}).Error
}
