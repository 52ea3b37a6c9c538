package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	redisclient "github.com/yungbote/filatrack-backend/internal/clients/redis"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/types"
)

// CreateFilamentParams carries the descriptive attributes of a new spool.
// They are opaque here beyond basic presence checks.
type CreateFilamentParams struct {
	Name                string   `json:"name"`
	Brand               string   `json:"brand"`
	Color               string   `json:"color"`
	Material            string   `json:"material"`
	Note                string   `json:"note"`
	CurrentMass         int      `json:"current_mass"`
	StartingMass        int      `json:"starting_mass"`
	PrintingTemperature *int     `json:"printing_temperature,omitempty"`
	Diameter            *float64 `json:"diameter,omitempty"`
	Cost                *float64 `json:"cost,omitempty"`
}

// EditFilamentParams updates descriptive attributes only; index and box
// membership are owned by the ordering and box services.
type EditFilamentParams struct {
	Name                *string  `json:"name,omitempty"`
	Brand               *string  `json:"brand,omitempty"`
	Color               *string  `json:"color,omitempty"`
	Material            *string  `json:"material,omitempty"`
	Note                *string  `json:"note,omitempty"`
	CurrentMass         *int     `json:"current_mass,omitempty"`
	PrintingTemperature *int     `json:"printing_temperature,omitempty"`
	Diameter            *float64 `json:"diameter,omitempty"`
	Cost                *float64 `json:"cost,omitempty"`
}

type FilamentService interface {
	GetAll(ctx context.Context) ([]*types.Filament, error)
	Get(ctx context.Context, id uuid.UUID) (*types.Filament, error)
	GetByShortID(ctx context.Context, shortID string) (*types.Filament, error)
	GetByBox(ctx context.Context, boxID *uuid.UUID) ([]*types.Filament, error)
	Create(ctx context.Context, params CreateFilamentParams) (*types.Filament, error)
	Edit(ctx context.Context, id uuid.UUID, params EditFilamentParams) (*types.Filament, error)
	Delete(ctx context.Context, id uuid.UUID) error

	LogUsage(ctx context.Context, id uuid.UUID, usedMass int, note *string) (*types.FilamentLog, error)
	GetLogs(ctx context.Context, id uuid.UUID) ([]*types.FilamentLog, error)

	Reorder(ctx context.Context, boxID *uuid.UUID, orderedIDs []uuid.UUID) ([]*types.Filament, error)
}

type filamentService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	filamentRepo     repos.FilamentRepo
	filamentLogRepo  repos.FilamentLogRepo
	boxRepo          repos.BoxRepo
	orderingService  OrderingService
	analyticsService AnalyticsService
	shortIDCache     redisclient.ShortIDCache
	genShortID       func() string
}

func NewFilamentService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	filamentRepo repos.FilamentRepo,
	filamentLogRepo repos.FilamentLogRepo,
	boxRepo repos.BoxRepo,
	orderingService OrderingService,
	analyticsService AnalyticsService,
	shortIDCache redisclient.ShortIDCache,
) FilamentService {
	return &filamentService{
		db:               db,
		log:              log.With("service", "FilamentService"),
		userRepo:         userRepo,
		filamentRepo:     filamentRepo,
		filamentLogRepo:  filamentLogRepo,
		boxRepo:          boxRepo,
		orderingService:  orderingService,
		analyticsService: analyticsService,
		shortIDCache:     shortIDCache,
		genShortID:       newShortID,
	}
}

// uniqueShortID draws candidates until one misses the unique index. Eight
// hex characters collide rarely but not never, and a collision would
// otherwise surface as a failed create.
func (s *filamentService) uniqueShortID(ctx context.Context, tx *gorm.DB) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		candidate := s.genShortID()
		existing, err := s.filamentRepo.GetByShortID(ctx, tx, candidate)
		if err != nil {
			return "", fmt.Errorf("check short id: %w", err)
		}
		if existing == nil {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("exhausted short id candidates")
}

func (s *filamentService) loadOwnedFilament(ctx context.Context, tx *gorm.DB, id, userID uuid.UUID) (*types.Filament, error) {
	filaments, err := s.filamentRepo.GetByIDs(ctx, tx, []uuid.UUID{id})
	if err != nil {
		return nil, fmt.Errorf("fetch filament: %w", err)
	}
	if len(filaments) == 0 || filaments[0] == nil {
		return nil, apierr.NotFound()
	}
	if filaments[0].UserID != userID {
		return nil, apierr.NotAuthorized()
	}
	return filaments[0], nil
}

func (s *filamentService) GetAll(ctx context.Context) ([]*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	filaments, err := s.filamentRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch filament: %w", err)
	}
	return filaments, nil
}

func (s *filamentService) Get(ctx context.Context, id uuid.UUID) (*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadOwnedFilament(ctx, nil, id, rd.UserID)
}

func (s *filamentService) GetByShortID(ctx context.Context, shortID string) (*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}

	// The QR scan path hits this constantly, so the short id -> row id hop
	// is cached when Redis is configured. Ownership is still checked on the
	// loaded row every time.
	if s.shortIDCache != nil {
		if id, ok := s.shortIDCache.GetFilamentID(ctx, shortID); ok {
			f, err := s.loadOwnedFilament(ctx, nil, id, rd.UserID)
			if err == nil {
				return f, nil
			}
			var ae *apierr.Error
			if !errors.As(err, &ae) || ae.Code != apierr.CodeNotFound {
				return nil, err
			}
			s.shortIDCache.Invalidate(ctx, shortID)
		}
	}

	filament, err := s.filamentRepo.GetByShortID(ctx, nil, shortID)
	if err != nil {
		return nil, fmt.Errorf("fetch filament by short id: %w", err)
	}
	if filament == nil {
		return nil, apierr.NotFound()
	}
	if filament.UserID != rd.UserID {
		return nil, apierr.NotAuthorized()
	}
	if s.shortIDCache != nil {
		s.shortIDCache.SetFilamentID(ctx, shortID, filament.ID)
	}
	return filament, nil
}

func (s *filamentService) GetByBox(ctx context.Context, boxID *uuid.UUID) ([]*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if boxID != nil {
		boxes, err := s.boxRepo.GetByIDs(ctx, nil, []uuid.UUID{*boxID})
		if err != nil {
			return nil, fmt.Errorf("fetch box: %w", err)
		}
		if len(boxes) == 0 {
			return nil, apierr.NotFound()
		}
		if boxes[0].UserID != rd.UserID {
			return nil, apierr.NotAuthorized()
		}
	}
	filaments, err := s.filamentRepo.GetScope(ctx, nil, rd.UserID, boxID)
	if err != nil {
		return nil, fmt.Errorf("fetch filament scope: %w", err)
	}
	return filaments, nil
}

func (s *filamentService) Create(ctx context.Context, params CreateFilamentParams) (*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if params.Name == "" {
		return nil, apierr.InvalidField("You must name the filament")
	}
	if params.StartingMass <= 0 {
		return nil, apierr.InvalidField("Starting mass must be positive")
	}
	if params.CurrentMass < 0 || params.CurrentMass > params.StartingMass {
		return nil, apierr.InvalidField("Current mass must be between 0 and the starting mass")
	}

	filament := &types.Filament{
		ID:                  uuid.New(),
		UserID:              rd.UserID,
		Name:                params.Name,
		Brand:               params.Brand,
		Color:               params.Color,
		Material:            params.Material,
		Note:                params.Note,
		CurrentMass:         params.CurrentMass,
		StartingMass:        params.StartingMass,
		PrintingTemperature: params.PrintingTemperature,
		Diameter:            params.Diameter,
		Cost:                params.Cost,
		LastUsed:            time.Unix(0, 0).UTC(),
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		shortID, err := s.uniqueShortID(ctx, tx)
		if err != nil {
			return err
		}
		filament.ShortID = shortID
		// New spools append to the unboxed list; the scope is gapless so
		// its size is the next index.
		unboxed, err := s.filamentRepo.GetScope(ctx, tx, rd.UserID, nil)
		if err != nil {
			return fmt.Errorf("fetch unboxed filament: %w", err)
		}
		filament.Index = len(unboxed)
		if _, err := s.filamentRepo.Create(ctx, tx, []*types.Filament{filament}); err != nil {
			return fmt.Errorf("create filament: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.analyticsService.IncrementDaily(ctx, time.Now(), types.AnalyticsDeltas{FilamentCreated: 1}); err != nil {
		s.log.Warn("Failed to record filament creation in analytics", "error", err)
	}
	return filament, nil
}

func (s *filamentService) Edit(ctx context.Context, id uuid.UUID, params EditFilamentParams) (*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	filament, err := s.loadOwnedFilament(ctx, nil, id, rd.UserID)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if params.Name != nil {
		if *params.Name == "" {
			return nil, apierr.InvalidField("You must name the filament")
		}
		updates["name"] = *params.Name
	}
	if params.Brand != nil {
		updates["brand"] = *params.Brand
	}
	if params.Color != nil {
		updates["color"] = *params.Color
	}
	if params.Material != nil {
		updates["material"] = *params.Material
	}
	if params.Note != nil {
		updates["note"] = *params.Note
	}
	if params.CurrentMass != nil {
		if *params.CurrentMass < 0 {
			return nil, apierr.InvalidField("Current mass cannot be negative")
		}
		updates["current_mass"] = *params.CurrentMass
	}
	if params.PrintingTemperature != nil {
		updates["printing_temperature"] = *params.PrintingTemperature
	}
	if params.Diameter != nil {
		updates["diameter"] = *params.Diameter
	}
	if params.Cost != nil {
		updates["cost"] = *params.Cost
	}
	if len(updates) == 0 {
		return filament, nil
	}
	if err := s.filamentRepo.UpdateFields(ctx, nil, filament.ID, updates); err != nil {
		return nil, fmt.Errorf("update filament: %w", err)
	}
	reloaded, err := s.filamentRepo.GetByIDs(ctx, nil, []uuid.UUID{filament.ID})
	if err != nil || len(reloaded) == 0 {
		return nil, fmt.Errorf("reload filament: %w", err)
	}
	return reloaded[0], nil
}

func (s *filamentService) Delete(ctx context.Context, id uuid.UUID) error {
	rd, err := sessionUser(ctx)
	if err != nil {
		return err
	}
	var shortID string
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		filament, err := s.loadOwnedFilament(ctx, tx, id, rd.UserID)
		if err != nil {
			return err
		}
		shortID = filament.ShortID

		scopeBoxID := filament.BoxID
		if scopeBoxID != nil {
			boxes, err := s.boxRepo.GetByIDsForUpdate(ctx, tx, []uuid.UUID{*scopeBoxID})
			if err != nil {
				return fmt.Errorf("fetch containing box: %w", err)
			}
			if len(boxes) > 0 {
				trimmed := removeIDs(boxes[0].FilamentIDs, []uuid.UUID{filament.ID})
				if err := s.boxRepo.UpdateFields(ctx, tx, boxes[0].ID, map[string]interface{}{
					"filament_ids": datatypes.NewJSONSlice(trimmed),
				}); err != nil {
					return fmt.Errorf("update box members: %w", err)
				}
			}
		}

		if err := s.filamentLogRepo.DeleteByFilamentIDs(ctx, tx, []uuid.UUID{filament.ID}); err != nil {
			return fmt.Errorf("delete filament logs: %w", err)
		}
		if err := s.filamentRepo.DeleteByIDs(ctx, tx, []uuid.UUID{filament.ID}); err != nil {
			return fmt.Errorf("delete filament: %w", err)
		}
		return s.orderingService.CompactFilamentScope(ctx, tx, rd.UserID, scopeBoxID)
	})
	if err != nil {
		return err
	}
	if s.shortIDCache != nil {
		s.shortIDCache.Invalidate(ctx, shortID)
	}
	return nil
}

func (s *filamentService) LogUsage(ctx context.Context, id uuid.UUID, usedMass int, note *string) (*types.FilamentLog, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if usedMass <= 0 {
		return nil, apierr.InvalidField("Used mass must be positive")
	}

	var logEntry *types.FilamentLog
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		filament, err := s.loadOwnedFilament(ctx, tx, id, rd.UserID)
		if err != nil {
			return err
		}

		previousMass := filament.CurrentMass
		newMass := previousMass - usedMass
		if newMass < 0 {
			newMass = 0
		}
		now := time.Now().UTC()

		logEntry = &types.FilamentLog{
			ID:           uuid.New(),
			FilamentID:   filament.ID,
			FilamentUsed: usedMass,
			Note:         note,
			PreviousMass: &previousMass,
			NewMass:      &newMass,
			Time:         now,
		}
		if _, err := s.filamentLogRepo.Create(ctx, tx, []*types.FilamentLog{logEntry}); err != nil {
			return fmt.Errorf("create filament log: %w", err)
		}
		return s.filamentRepo.UpdateFields(ctx, tx, filament.ID, map[string]interface{}{
			"current_mass": newMass,
			"last_used":    now,
		})
	})
	if err != nil {
		return nil, err
	}

	if err := s.analyticsService.IncrementDaily(ctx, time.Now(), types.AnalyticsDeltas{LogsCreated: 1}); err != nil {
		s.log.Warn("Failed to record usage log in analytics", "error", err)
	}
	return logEntry, nil
}

func (s *filamentService) GetLogs(ctx context.Context, id uuid.UUID) ([]*types.FilamentLog, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	filament, err := s.loadOwnedFilament(ctx, nil, id, rd.UserID)
	if err != nil {
		return nil, err
	}
	logs, err := s.filamentLogRepo.GetByFilamentIDs(ctx, nil, []uuid.UUID{filament.ID})
	if err != nil {
		return nil, fmt.Errorf("fetch filament logs: %w", err)
	}
	return logs, nil
}

func (s *filamentService) Reorder(ctx context.Context, boxID *uuid.UUID, orderedIDs []uuid.UUID) ([]*types.Filament, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if boxID != nil {
		boxes, err := s.boxRepo.GetByIDs(ctx, nil, []uuid.UUID{*boxID})
		if err != nil {
			return nil, fmt.Errorf("fetch box: %w", err)
		}
		if len(boxes) == 0 {
			return nil, apierr.NotFound()
		}
		if boxes[0].UserID != rd.UserID {
			return nil, apierr.NotAuthorized()
		}
	}

	var filaments []*types.Filament
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		if err := s.orderingService.ReorderFilament(ctx, tx, rd.UserID, boxID, orderedIDs); err != nil {
			return err
		}
		filaments, err = s.filamentRepo.GetScope(ctx, tx, rd.UserID, boxID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return filaments, nil
}
