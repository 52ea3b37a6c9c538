package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/types"
)

type CreatePrintParams struct {
	Name      string  `json:"name"`
	TimeHours float64 `json:"time_hours"`
	// FilamentUsed maps filament id to grams consumed by this print.
	FilamentUsed map[uuid.UUID]int `json:"filament_used"`
}

type PrintService interface {
	GetAll(ctx context.Context) ([]*types.Print, error)
	Create(ctx context.Context, params CreatePrintParams) (*types.Print, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type printService struct {
	db               *gorm.DB
	log              *logger.Logger
	printRepo        repos.PrintRepo
	filamentRepo     repos.FilamentRepo
	filamentLogRepo  repos.FilamentLogRepo
	analyticsService AnalyticsService
}

func NewPrintService(
	db *gorm.DB,
	log *logger.Logger,
	printRepo repos.PrintRepo,
	filamentRepo repos.FilamentRepo,
	filamentLogRepo repos.FilamentLogRepo,
	analyticsService AnalyticsService,
) PrintService {
	return &printService{
		db:               db,
		log:              log.With("service", "PrintService"),
		printRepo:        printRepo,
		filamentRepo:     filamentRepo,
		filamentLogRepo:  filamentLogRepo,
		analyticsService: analyticsService,
	}
}

func (s *printService) GetAll(ctx context.Context) ([]*types.Print, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	prints, err := s.printRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch prints: %w", err)
	}
	return prints, nil
}

// Create records the print and applies its usage to every referenced spool
// in one transaction. If any spool is missing or foreign, nothing commits.
func (s *printService) Create(ctx context.Context, params CreatePrintParams) (*types.Print, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, apierr.InvalidField("You must name the print")
	}
	if params.TimeHours < 0 {
		return nil, apierr.InvalidField("Print time cannot be negative")
	}

	filamentIDs := make([]uuid.UUID, 0, len(params.FilamentUsed))
	total := 0
	usedByID := make(map[string]int, len(params.FilamentUsed))
	for id, grams := range params.FilamentUsed {
		if grams <= 0 {
			return nil, apierr.InvalidField("Used mass must be positive")
		}
		filamentIDs = append(filamentIDs, id)
		usedByID[id.String()] = grams
		total += grams
	}

	newPrint := &types.Print{
		ID:                uuid.New(),
		UserID:            rd.UserID,
		Name:              params.Name,
		TimeHours:         params.TimeHours,
		TotalFilamentUsed: total,
		FilamentUsed:      datatypes.NewJSONType(usedByID),
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		filaments, err := s.filamentRepo.GetByIDs(ctx, tx, filamentIDs)
		if err != nil {
			return fmt.Errorf("fetch filament: %w", err)
		}
		if len(filaments) != len(filamentIDs) {
			return apierr.NotFound()
		}
		now := time.Now().UTC()
		for _, f := range filaments {
			if f.UserID != rd.UserID {
				return apierr.NotAuthorized()
			}
			grams := params.FilamentUsed[f.ID]
			previousMass := f.CurrentMass
			newMass := previousMass - grams
			if newMass < 0 {
				newMass = 0
			}
			logEntry := &types.FilamentLog{
				ID:           uuid.New(),
				FilamentID:   f.ID,
				FilamentUsed: grams,
				Note:         &newPrint.Name,
				PreviousMass: &previousMass,
				NewMass:      &newMass,
				Time:         now,
			}
			if _, err := s.filamentLogRepo.Create(ctx, tx, []*types.FilamentLog{logEntry}); err != nil {
				return fmt.Errorf("create filament log: %w", err)
			}
			if err := s.filamentRepo.UpdateFields(ctx, tx, f.ID, map[string]interface{}{
				"current_mass": newMass,
				"last_used":    now,
			}); err != nil {
				return fmt.Errorf("update filament mass: %w", err)
			}
		}
		if _, err := s.printRepo.Create(ctx, tx, []*types.Print{newPrint}); err != nil {
			return fmt.Errorf("create print: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(filamentIDs) > 0 {
		if err := s.analyticsService.IncrementDaily(ctx, time.Now(), types.AnalyticsDeltas{LogsCreated: len(filamentIDs)}); err != nil {
			s.log.Warn("Failed to record print usage in analytics", "error", err)
		}
	}
	return newPrint, nil
}

func (s *printService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := sessionUser(ctx)
	if err != nil {
		return err
	}
	prints, err := s.printRepo.GetByIDs(ctx, nil, []uuid.UUID{id})
	if err != nil {
		return fmt.Errorf("fetch print: %w", err)
	}
	if len(prints) == 0 {
		return apierr.NotFound()
	}
	if prints[0].UserID != rd.UserID {
		return apierr.NotAuthorized()
	}
	return s.printRepo.DeleteByIDs(ctx, nil, []uuid.UUID{id})
}
