package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/types"
)

// Totals are the instance-wide row counts shown on the admin dashboard.
type Totals struct {
	Users    int64 `json:"users"`
	Filament int64 `json:"filament"`
	Logs     int64 `json:"logs"`
	Boxes    int64 `json:"boxes"`
}

type AnalyticsService interface {
	// IncrementDaily is a mutation side effect, not a user-facing operation;
	// callers invoke it after their own transaction commits.
	IncrementDaily(ctx context.Context, at time.Time, deltas types.AnalyticsDeltas) error

	GetEntry(ctx context.Context, at time.Time) (*types.AnalyticsEntry, error)
	GetRange(ctx context.Context, start, end time.Time) ([]*types.AnalyticsEntry, error)
	GetTotals(ctx context.Context) (*Totals, error)
	GetAuthMethodStats(ctx context.Context) (map[string]int64, error)
}

type analyticsService struct {
	db              *gorm.DB
	log             *logger.Logger
	analyticsRepo   repos.AnalyticsRepo
	userRepo        repos.UserRepo
	filamentRepo    repos.FilamentRepo
	filamentLogRepo repos.FilamentLogRepo
	boxRepo         repos.BoxRepo
	accountRepo     repos.AccountRepo
}

func NewAnalyticsService(
	db *gorm.DB,
	log *logger.Logger,
	analyticsRepo repos.AnalyticsRepo,
	userRepo repos.UserRepo,
	filamentRepo repos.FilamentRepo,
	filamentLogRepo repos.FilamentLogRepo,
	boxRepo repos.BoxRepo,
	accountRepo repos.AccountRepo,
) AnalyticsService {
	return &analyticsService{
		db:              db,
		log:             log.With("service", "AnalyticsService"),
		analyticsRepo:   analyticsRepo,
		userRepo:        userRepo,
		filamentRepo:    filamentRepo,
		filamentLogRepo: filamentLogRepo,
		boxRepo:         boxRepo,
		accountRepo:     accountRepo,
	}
}

func (s *analyticsService) IncrementDaily(ctx context.Context, at time.Time, deltas types.AnalyticsDeltas) error {
	return s.analyticsRepo.IncrementDaily(ctx, nil, dateKey(at), deltas)
}

func (s *analyticsService) requireAdmin(ctx context.Context) error {
	rd, err := sessionUser(ctx)
	if err != nil {
		return err
	}
	if !rd.IsAdmin {
		return apierr.NotAuthorized()
	}
	return nil
}

func (s *analyticsService) GetEntry(ctx context.Context, at time.Time) (*types.AnalyticsEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	entry, err := s.analyticsRepo.GetByDate(ctx, nil, dateKey(at))
	if err != nil {
		return nil, fmt.Errorf("fetch analytics entry: %w", err)
	}
	if entry == nil {
		return nil, apierr.NotFound()
	}
	return entry, nil
}

func (s *analyticsService) GetRange(ctx context.Context, start, end time.Time) ([]*types.AnalyticsEntry, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	entries, err := s.analyticsRepo.GetRange(ctx, nil, dateKey(start), dateKey(end))
	if err != nil {
		return nil, fmt.Errorf("fetch analytics range: %w", err)
	}
	return entries, nil
}

func (s *analyticsService) GetTotals(ctx context.Context) (*Totals, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	totals := &Totals{}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.userRepo.Count(gctx, nil)
		totals.Users = n
		return err
	})
	g.Go(func() error {
		n, err := s.filamentRepo.Count(gctx, nil)
		totals.Filament = n
		return err
	})
	g.Go(func() error {
		n, err := s.filamentLogRepo.Count(gctx, nil)
		totals.Logs = n
		return err
	})
	g.Go(func() error {
		n, err := s.boxRepo.Count(gctx, nil)
		totals.Boxes = n
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("count totals: %w", err)
	}
	return totals, nil
}

func (s *analyticsService) GetAuthMethodStats(ctx context.Context) (map[string]int64, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	stats, err := s.accountRepo.CountByProvider(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count auth providers: %w", err)
	}
	return stats, nil
}
