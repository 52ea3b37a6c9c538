package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/filatrack-backend/internal/apierr"
	"github.com/yungbote/filatrack-backend/internal/logger"
	"github.com/yungbote/filatrack-backend/internal/repos"
)

// OrderingService owns the index column for every ordering scope: a user's
// boxes, one box's filament, and the unboxed filament list. After any call
// the scope's indexes are exactly 0..n-1.
//
// Every method takes the caller's open transaction, and the caller holds
// the user's scope lock (lockUserScopes) for that transaction. Membership
// read here is therefore stable until commit: a reorder that raced a
// membership change waits for it and then validates against the committed
// state instead of persisting a stale list.
type OrderingService interface {
	ReorderBoxes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderedIDs []uuid.UUID) error
	ReorderFilament(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID, orderedIDs []uuid.UUID) error
	CompactBoxes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error
	CompactFilamentScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID) error
}

type orderingService struct {
	log          *logger.Logger
	boxRepo      repos.BoxRepo
	filamentRepo repos.FilamentRepo
}

func NewOrderingService(log *logger.Logger, boxRepo repos.BoxRepo, filamentRepo repos.FilamentRepo) OrderingService {
	return &orderingService{
		log:          log.With("service", "OrderingService"),
		boxRepo:      boxRepo,
		filamentRepo: filamentRepo,
	}
}

func (s *orderingService) ReorderBoxes(ctx context.Context, tx *gorm.DB, userID uuid.UUID, orderedIDs []uuid.UUID) error {
	current, err := s.boxRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("load boxes: %w", err)
	}
	currentIDs := make([]uuid.UUID, 0, len(current))
	for _, b := range current {
		currentIDs = append(currentIDs, b.ID)
	}
	indexes, err := permutationIndexes(currentIDs, orderedIDs)
	if err != nil {
		return err
	}
	return s.boxRepo.UpdateIndexes(ctx, tx, indexes)
}

func (s *orderingService) ReorderFilament(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID, orderedIDs []uuid.UUID) error {
	current, err := s.filamentRepo.GetScope(ctx, tx, userID, boxID)
	if err != nil {
		return fmt.Errorf("load filament scope: %w", err)
	}
	currentIDs := make([]uuid.UUID, 0, len(current))
	for _, f := range current {
		currentIDs = append(currentIDs, f.ID)
	}
	indexes, err := permutationIndexes(currentIDs, orderedIDs)
	if err != nil {
		return err
	}
	return s.filamentRepo.UpdateIndexes(ctx, tx, indexes)
}

func (s *orderingService) CompactBoxes(ctx context.Context, tx *gorm.DB, userID uuid.UUID) error {
	current, err := s.boxRepo.GetByUserID(ctx, tx, userID)
	if err != nil {
		return fmt.Errorf("load boxes: %w", err)
	}
	indexes := map[uuid.UUID]int{}
	for i, b := range current {
		if b.Index != i {
			indexes[b.ID] = i
		}
	}
	return s.boxRepo.UpdateIndexes(ctx, tx, indexes)
}

func (s *orderingService) CompactFilamentScope(ctx context.Context, tx *gorm.DB, userID uuid.UUID, boxID *uuid.UUID) error {
	current, err := s.filamentRepo.GetScope(ctx, tx, userID, boxID)
	if err != nil {
		return fmt.Errorf("load filament scope: %w", err)
	}
	indexes := map[uuid.UUID]int{}
	for i, f := range current {
		if f.Index != i {
			indexes[f.ID] = i
		}
	}
	return s.filamentRepo.UpdateIndexes(ctx, tx, indexes)
}

// permutationIndexes maps each requested id to its new index after checking
// the request is a true permutation of the scope's current membership.
// Subsets would leave gaps, supersets would write foreign rows, duplicates
// would collapse positions; all are rejected.
func permutationIndexes(currentIDs, orderedIDs []uuid.UUID) (map[uuid.UUID]int, error) {
	if len(orderedIDs) != len(currentIDs) {
		return nil, apierr.InvalidField("Reorder list does not match the current members of this scope")
	}
	members := make(map[uuid.UUID]struct{}, len(currentIDs))
	for _, id := range currentIDs {
		members[id] = struct{}{}
	}
	indexes := make(map[uuid.UUID]int, len(orderedIDs))
	for i, id := range orderedIDs {
		if _, ok := members[id]; !ok {
			return nil, apierr.InvalidField("Reorder list does not match the current members of this scope")
		}
		if _, dup := indexes[id]; dup {
			return nil, apierr.InvalidField("Reorder list contains duplicate entries")
		}
		indexes[id] = i
	}
	return indexes, nil
}
