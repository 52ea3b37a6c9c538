package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type EditUserParams struct {
	Name      *string `json:"name,omitempty"`
	AvatarURL *string `json:"avatar_url,omitempty"`
}

type UserService interface {
	GetMe(ctx context.Context) (*types.User, error)
	EditMe(ctx context.Context, params EditUserParams) (*types.User, error)
	DeleteMe(ctx context.Context) error
}

type userService struct {
	db              *gorm.DB
	log             *logger.Logger
	userRepo        repos.UserRepo
	accountRepo     repos.AccountRepo
	userTokenRepo   repos.UserTokenRepo
	boxRepo         repos.BoxRepo
	filamentRepo    repos.FilamentRepo
	filamentLogRepo repos.FilamentLogRepo
	printRepo       repos.PrintRepo
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	accountRepo repos.AccountRepo,
	userTokenRepo repos.UserTokenRepo,
	boxRepo repos.BoxRepo,
	filamentRepo repos.FilamentRepo,
	filamentLogRepo repos.FilamentLogRepo,
	printRepo repos.PrintRepo,
) UserService {
	return &userService{
		db:              db,
		log:             log.With("service", "UserService"),
		userRepo:        userRepo,
		accountRepo:     accountRepo,
		userTokenRepo:   userTokenRepo,
		boxRepo:         boxRepo,
		filamentRepo:    filamentRepo,
		filamentLogRepo: filamentLogRepo,
		printRepo:       printRepo,
	}
}

func (s *userService) GetMe(ctx context.Context) (*types.User, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	users, err := s.userRepo.GetByIDs(ctx, nil, []uuid.UUID{rd.UserID})
	if err != nil {
		return nil, fmt.Errorf("fetch user: %w", err)
	}
	if len(users) == 0 {
		return nil, apierr.NotFound()
	}
	return users[0], nil
}

func (s *userService) EditMe(ctx context.Context, params EditUserParams) (*types.User, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if params.Name != nil && strings.TrimSpace(*params.Name) == "" {
		return nil, apierr.InvalidField("You must provide a name")
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users, err := s.userRepo.GetByIDs(ctx, tx, []uuid.UUID{rd.UserID})
		if err != nil {
			return fmt.Errorf("fetch user: %w", err)
		}
		if len(users) == 0 {
			return apierr.NotFound()
		}
		updates := map[string]interface{}{}
		if params.Name != nil {
			updates["name"] = strings.TrimSpace(*params.Name)
		}
		if params.AvatarURL != nil {
			updates["avatar_url"] = *params.AvatarURL
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.WithContext(ctx).
			Model(&types.User{}).
			Where("id = ?", rd.UserID).
			Updates(updates).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetMe(ctx)
}

// DeleteMe removes the user and everything hanging off them. Filament logs
// go first because they reference filament rows, then the rest in dependency
// order; one transaction so a failure leaves the account intact.
func (s *userService) DeleteMe(ctx context.Context) error {
	rd, err := sessionUser(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		filaments, err := s.filamentRepo.GetByUserID(ctx, tx, rd.UserID)
		if err != nil {
			return fmt.Errorf("fetch filament for delete: %w", err)
		}
		filamentIDs := make([]uuid.UUID, 0, len(filaments))
		for _, f := range filaments {
			filamentIDs = append(filamentIDs, f.ID)
		}
		if err := s.filamentLogRepo.DeleteByFilamentIDs(ctx, tx, filamentIDs); err != nil {
			return fmt.Errorf("delete filament logs: %w", err)
		}
		if err := s.filamentRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); err != nil {
			return fmt.Errorf("delete filament: %w", err)
		}
		if err := s.boxRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); err != nil {
			return fmt.Errorf("delete boxes: %w", err)
		}
		if err := s.printRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); err != nil {
			return fmt.Errorf("delete prints: %w", err)
		}
		if err := s.userTokenRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); err != nil {
			return fmt.Errorf("delete tokens: %w", err)
		}
		if err := s.accountRepo.DeleteByUserIDs(ctx, tx, []uuid.UUID{rd.UserID}); err != nil {
			return fmt.Errorf("delete accounts: %w", err)
		}
		return s.userRepo.DeleteByIDs(ctx, tx, []uuid.UUID{rd.UserID})
	})
}
