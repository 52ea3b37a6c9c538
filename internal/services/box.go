package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
	"github.com/yungbote/filatrack-backend/internal/types"
)

const maxBoxNameLength = 48

// BoxFilamentResult is the payload of a relationship mutation: the box and
// every filament the call touched, in their post-commit state.
type BoxFilamentResult struct {
	Box      *types.Box        `json:"box"`
	Filament []*types.Filament `json:"filament"`
}

// BoxService owns boxes and the box<->filament relationship. The stored
// filament id list on a box is a denormalized copy of the members' box_id
// column; the two are only ever written inside the same transaction, so no
// reader can observe them diverged. (Deriving the list from box_id at read
// time would remove the sync entirely, but the stored array is part of the
// public payload shape.)
type BoxService interface {
	GetAll(ctx context.Context) ([]*types.Box, error)
	Get(ctx context.Context, boxID uuid.UUID) (*types.Box, error)
	Create(ctx context.Context, name string) (*types.Box, error)
	Edit(ctx context.Context, boxID uuid.UUID, name *string) (*types.Box, error)
	Delete(ctx context.Context, boxID uuid.UUID) error

	AddFilament(ctx context.Context, boxID, filamentID uuid.UUID) (*BoxFilamentResult, error)
	AddFilaments(ctx context.Context, boxID uuid.UUID, filamentIDs []uuid.UUID) (*BoxFilamentResult, error)
	RemoveFilament(ctx context.Context, boxID, filamentID uuid.UUID) (*BoxFilamentResult, error)
	RemoveFilaments(ctx context.Context, boxID uuid.UUID, filamentIDs []uuid.UUID) (*BoxFilamentResult, error)

	Reorder(ctx context.Context, orderedIDs []uuid.UUID) ([]*types.Box, error)
}

type boxService struct {
	db               *gorm.DB
	log              *logger.Logger
	userRepo         repos.UserRepo
	boxRepo          repos.BoxRepo
	filamentRepo     repos.FilamentRepo
	orderingService  OrderingService
	analyticsService AnalyticsService
}

func NewBoxService(
	db *gorm.DB,
	log *logger.Logger,
	userRepo repos.UserRepo,
	boxRepo repos.BoxRepo,
	filamentRepo repos.FilamentRepo,
	orderingService OrderingService,
	analyticsService AnalyticsService,
) BoxService {
	return &boxService{
		db:               db,
		log:              log.With("service", "BoxService"),
		userRepo:         userRepo,
		boxRepo:          boxRepo,
		filamentRepo:     filamentRepo,
		orderingService:  orderingService,
		analyticsService: analyticsService,
	}
}

func validateBoxName(name string) error {
	if len([]rune(name)) > maxBoxNameLength {
		return apierr.InvalidField("Name too long")
	}
	if name == "" {
		return apierr.InvalidField("You must name the box")
	}
	return nil
}

// loadOwnedBox fetches a box and enforces ownership against the loaded row,
// never against anything the request claims.
func (s *boxService) loadOwnedBox(ctx context.Context, tx *gorm.DB, boxID, userID uuid.UUID) (*types.Box, error) {
	boxes, err := s.boxRepo.GetByIDs(ctx, tx, []uuid.UUID{boxID})
	if err != nil {
		return nil, fmt.Errorf("fetch box: %w", err)
	}
	if len(boxes) == 0 || boxes[0] == nil {
		return nil, apierr.NotFound()
	}
	if boxes[0].UserID != userID {
		return nil, apierr.NotAuthorized()
	}
	return boxes[0], nil
}

// loadOwnedBoxForUpdate is loadOwnedBox with the row locked for the rest of
// the transaction. Mutations that recompute filament_ids from the loaded row
// must use it, or two concurrent writers overwrite each other's list.
func (s *boxService) loadOwnedBoxForUpdate(ctx context.Context, tx *gorm.DB, boxID, userID uuid.UUID) (*types.Box, error) {
	boxes, err := s.boxRepo.GetByIDsForUpdate(ctx, tx, []uuid.UUID{boxID})
	if err != nil {
		return nil, fmt.Errorf("fetch box: %w", err)
	}
	if len(boxes) == 0 || boxes[0] == nil {
		return nil, apierr.NotFound()
	}
	if boxes[0].UserID != userID {
		return nil, apierr.NotAuthorized()
	}
	return boxes[0], nil
}

func (s *boxService) GetAll(ctx context.Context) ([]*types.Box, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	boxes, err := s.boxRepo.GetByUserID(ctx, nil, rd.UserID)
	if err != nil {
		return nil, fmt.Errorf("fetch boxes: %w", err)
	}
	return boxes, nil
}

func (s *boxService) Get(ctx context.Context, boxID uuid.UUID) (*types.Box, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.loadOwnedBox(ctx, nil, boxID, rd.UserID)
}

func (s *boxService) Create(ctx context.Context, name string) (*types.Box, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateBoxName(name); err != nil {
		return nil, err
	}

	box := &types.Box{
		ID:          uuid.New(),
		UserID:      rd.UserID,
		Name:        name,
		FilamentIDs: datatypes.NewJSONSlice([]uuid.UUID{}),
	}
	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		idx, err := s.boxRepo.NextIndex(ctx, tx, rd.UserID)
		if err != nil {
			return fmt.Errorf("next box index: %w", err)
		}
		box.Index = idx
		if _, err := s.boxRepo.Create(ctx, tx, []*types.Box{box}); err != nil {
			return fmt.Errorf("create box: %w", err)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	if err := s.analyticsService.IncrementDaily(ctx, time.Now(), types.AnalyticsDeltas{BoxesCreated: 1}); err != nil {
		s.log.Warn("Failed to record box creation in analytics", "error", err)
	}
	return box, nil
}

func (s *boxService) Edit(ctx context.Context, boxID uuid.UUID, name *string) (*types.Box, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if name != nil {
		if err := validateBoxName(*name); err != nil {
			return nil, err
		}
	}

	box, err := s.loadOwnedBox(ctx, nil, boxID, rd.UserID)
	if err != nil {
		return nil, err
	}
	if name == nil {
		return box, nil
	}
	if err := s.boxRepo.UpdateFields(ctx, nil, box.ID, map[string]interface{}{"name": *name}); err != nil {
		return nil, fmt.Errorf("update box: %w", err)
	}
	box.Name = *name
	return box, nil
}

func (s *boxService) Delete(ctx context.Context, boxID uuid.UUID) error {
	rd, err := sessionUser(ctx)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		box, err := s.loadOwnedBoxForUpdate(ctx, tx, boxID, rd.UserID)
		if err != nil {
			return err
		}

		members, err := s.filamentRepo.GetScope(ctx, tx, rd.UserID, &box.ID)
		if err != nil {
			return fmt.Errorf("fetch box members: %w", err)
		}
		unboxed, err := s.filamentRepo.GetScope(ctx, tx, rd.UserID, nil)
		if err != nil {
			return fmt.Errorf("fetch unboxed filament: %w", err)
		}

		// Members drop to the end of the unboxed list, keeping their
		// relative order, so both scopes stay gapless.
		memberIDs := make([]uuid.UUID, 0, len(members))
		indexes := make(map[uuid.UUID]int, len(members))
		for i, m := range members {
			memberIDs = append(memberIDs, m.ID)
			indexes[m.ID] = len(unboxed) + i
		}
		if err := s.filamentRepo.SetBoxID(ctx, tx, memberIDs, nil); err != nil {
			return fmt.Errorf("detach box members: %w", err)
		}
		if err := s.filamentRepo.UpdateIndexes(ctx, tx, indexes); err != nil {
			return fmt.Errorf("reindex detached members: %w", err)
		}
		if err := s.boxRepo.DeleteByIDs(ctx, tx, []uuid.UUID{box.ID}); err != nil {
			return fmt.Errorf("delete box: %w", err)
		}
		return s.orderingService.CompactBoxes(ctx, tx, rd.UserID)
	})
}

func (s *boxService) AddFilament(ctx context.Context, boxID, filamentID uuid.UUID) (*BoxFilamentResult, error) {
	return s.AddFilaments(ctx, boxID, []uuid.UUID{filamentID})
}

func (s *boxService) AddFilaments(ctx context.Context, boxID uuid.UUID, filamentIDs []uuid.UUID) (*BoxFilamentResult, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateIDs(filamentIDs); err != nil {
		return nil, err
	}

	var result *BoxFilamentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		box, err := s.loadOwnedBoxForUpdate(ctx, tx, boxID, rd.UserID)
		if err != nil {
			return err
		}

		filaments, err := s.loadOwnedFilaments(ctx, tx, filamentIDs, rd.UserID)
		if err != nil {
			return err
		}
		for _, f := range filaments {
			if f.BoxID != nil && *f.BoxID == box.ID {
				return apierr.InvalidField("This filament is already in this box")
			}
		}

		// Filaments moving out of another box must leave that box's stored
		// list too, or the relationship diverges.
		sourceBoxIDs := map[uuid.UUID][]uuid.UUID{}
		fromUnboxed := false
		for _, f := range filaments {
			if f.BoxID != nil {
				sourceBoxIDs[*f.BoxID] = append(sourceBoxIDs[*f.BoxID], f.ID)
			} else {
				fromUnboxed = true
			}
		}
		for srcID, moved := range sourceBoxIDs {
			srcBoxes, err := s.boxRepo.GetByIDsForUpdate(ctx, tx, []uuid.UUID{srcID})
			if err != nil {
				return fmt.Errorf("fetch source box: %w", err)
			}
			if len(srcBoxes) == 0 {
				continue
			}
			trimmed := removeIDs(srcBoxes[0].FilamentIDs, moved)
			if err := s.boxRepo.UpdateFields(ctx, tx, srcID, map[string]interface{}{
				"filament_ids": datatypes.NewJSONSlice(trimmed),
			}); err != nil {
				return fmt.Errorf("update source box members: %w", err)
			}
		}

		targetScope, err := s.filamentRepo.GetScope(ctx, tx, rd.UserID, &box.ID)
		if err != nil {
			return fmt.Errorf("fetch target scope: %w", err)
		}
		indexes := make(map[uuid.UUID]int, len(filamentIDs))
		for i, id := range filamentIDs {
			indexes[id] = len(targetScope) + i
		}

		newList := append(append([]uuid.UUID{}, box.FilamentIDs...), filamentIDs...)
		if err := s.boxRepo.UpdateFields(ctx, tx, box.ID, map[string]interface{}{
			"filament_ids": datatypes.NewJSONSlice(newList),
		}); err != nil {
			return fmt.Errorf("update box members: %w", err)
		}
		if err := s.filamentRepo.SetBoxID(ctx, tx, filamentIDs, &box.ID); err != nil {
			return fmt.Errorf("attach filament: %w", err)
		}
		if err := s.filamentRepo.UpdateIndexes(ctx, tx, indexes); err != nil {
			return fmt.Errorf("reindex attached filament: %w", err)
		}

		if fromUnboxed {
			if err := s.orderingService.CompactFilamentScope(ctx, tx, rd.UserID, nil); err != nil {
				return err
			}
		}
		for srcID := range sourceBoxIDs {
			srcID := srcID
			if err := s.orderingService.CompactFilamentScope(ctx, tx, rd.UserID, &srcID); err != nil {
				return err
			}
		}

		result, err = s.relationshipResult(ctx, tx, box.ID, filamentIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *boxService) RemoveFilament(ctx context.Context, boxID, filamentID uuid.UUID) (*BoxFilamentResult, error) {
	return s.RemoveFilaments(ctx, boxID, []uuid.UUID{filamentID})
}

func (s *boxService) RemoveFilaments(ctx context.Context, boxID uuid.UUID, filamentIDs []uuid.UUID) (*BoxFilamentResult, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := checkDuplicateIDs(filamentIDs); err != nil {
		return nil, err
	}

	var result *BoxFilamentResult
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		box, err := s.loadOwnedBoxForUpdate(ctx, tx, boxID, rd.UserID)
		if err != nil {
			return err
		}

		filaments, err := s.loadOwnedFilaments(ctx, tx, filamentIDs, rd.UserID)
		if err != nil {
			return err
		}
		for _, f := range filaments {
			if f.BoxID == nil || *f.BoxID != box.ID {
				return apierr.InvalidField("This filament isn't in this box")
			}
		}

		unboxed, err := s.filamentRepo.GetScope(ctx, tx, rd.UserID, nil)
		if err != nil {
			return fmt.Errorf("fetch unboxed filament: %w", err)
		}
		sort.Slice(filaments, func(i, j int) bool { return filaments[i].Index < filaments[j].Index })
		indexes := make(map[uuid.UUID]int, len(filaments))
		for i, f := range filaments {
			indexes[f.ID] = len(unboxed) + i
		}

		trimmed := removeIDs(box.FilamentIDs, filamentIDs)
		if err := s.boxRepo.UpdateFields(ctx, tx, box.ID, map[string]interface{}{
			"filament_ids": datatypes.NewJSONSlice(trimmed),
		}); err != nil {
			return fmt.Errorf("update box members: %w", err)
		}
		if err := s.filamentRepo.SetBoxID(ctx, tx, filamentIDs, nil); err != nil {
			return fmt.Errorf("detach filament: %w", err)
		}
		if err := s.filamentRepo.UpdateIndexes(ctx, tx, indexes); err != nil {
			return fmt.Errorf("reindex detached filament: %w", err)
		}
		if err := s.orderingService.CompactFilamentScope(ctx, tx, rd.UserID, &box.ID); err != nil {
			return err
		}

		result, err = s.relationshipResult(ctx, tx, box.ID, filamentIDs)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *boxService) Reorder(ctx context.Context, orderedIDs []uuid.UUID) ([]*types.Box, error) {
	rd, err := sessionUser(ctx)
	if err != nil {
		return nil, err
	}
	var boxes []*types.Box
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockUserScopes(ctx, tx, s.userRepo, rd.UserID); err != nil {
			return err
		}
		if err := s.orderingService.ReorderBoxes(ctx, tx, rd.UserID, orderedIDs); err != nil {
			return err
		}
		boxes, err = s.boxRepo.GetByUserID(ctx, tx, rd.UserID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return boxes, nil
}

// loadOwnedFilaments fetches every id and rejects the whole set if any row
// is missing or foreign. Nothing has been written at that point, so a
// failed check costs nothing.
func (s *boxService) loadOwnedFilaments(ctx context.Context, tx *gorm.DB, ids []uuid.UUID, userID uuid.UUID) ([]*types.Filament, error) {
	filaments, err := s.filamentRepo.GetByIDs(ctx, tx, ids)
	if err != nil {
		return nil, fmt.Errorf("fetch filament: %w", err)
	}
	if len(filaments) != len(ids) {
		return nil, apierr.NotFound()
	}
	for _, f := range filaments {
		if f.UserID != userID {
			return nil, apierr.NotAuthorized()
		}
	}
	return filaments, nil
}

func (s *boxService) relationshipResult(ctx context.Context, tx *gorm.DB, boxID uuid.UUID, filamentIDs []uuid.UUID) (*BoxFilamentResult, error) {
	boxes, err := s.boxRepo.GetByIDs(ctx, tx, []uuid.UUID{boxID})
	if err != nil || len(boxes) == 0 {
		return nil, fmt.Errorf("reload box: %w", err)
	}
	filaments, err := s.filamentRepo.GetByIDs(ctx, tx, filamentIDs)
	if err != nil {
		return nil, fmt.Errorf("reload filament: %w", err)
	}
	return &BoxFilamentResult{Box: boxes[0], Filament: filaments}, nil
}

func checkDuplicateIDs(ids []uuid.UUID) error {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return apierr.InvalidField("Duplicate filament ids")
		}
		seen[id] = struct{}{}
	}
	return nil
}

func removeIDs(list []uuid.UUID, remove []uuid.UUID) []uuid.UUID {
	drop := make(map[uuid.UUID]struct{}, len(remove))
	for _, id := range remove {
		drop[id] = struct{}{}
	}
	out := make([]uuid.UUID, 0, len(list))
	for _, id := range list {
		if _, ok := drop[id]; !ok {
			out = append(out, id)
		}
	}
	return out
}
