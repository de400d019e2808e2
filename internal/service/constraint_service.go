package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type assignmentConstraintReader interface {
	GetByKey(ctx context.Context, offeringID string, kind models.SessionKind) (*models.Assignment, error)
	ListBySlot(ctx context.Context, slotID string) ([]models.AssignmentDetail, error)
	ListRefsByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentSlotRef, error)
}

type offeringReader interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
}

type slotReader interface {
	FindByID(ctx context.Context, id string) (*models.Slot, error)
}

type roomReader interface {
	FindByID(ctx context.Context, id string) (*models.Room, error)
}

type teacherReader interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
}

type availabilityReader interface {
	Get(ctx context.Context, teacherID, slotID string) (*models.Availability, error)
}

// Candidate is one proposed (offering, kind) → (slot, room) placement.
type Candidate struct {
	OfferingID string
	Kind       models.SessionKind
	SlotID     string
	RoomID     *string
}

// Key returns the candidate's natural assignment key.
func (c Candidate) Key() models.AssignmentKey {
	return models.AssignmentKey{OfferingID: c.OfferingID, Kind: c.Kind}
}

// ConstraintService evaluates whether a candidate placement violates any
// scheduling invariant against the current store state.
type ConstraintService struct {
	assignments  assignmentConstraintReader
	offerings    offeringReader
	slots        slotReader
	rooms        roomReader
	teachers     teacherReader
	availability availabilityReader
	logger       *zap.Logger
}

// NewConstraintService wires the checker's readers.
func NewConstraintService(
	assignments assignmentConstraintReader,
	offerings offeringReader,
	slots slotReader,
	rooms roomReader,
	teachers teacherReader,
	availability availabilityReader,
	logger *zap.Logger,
) *ConstraintService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConstraintService{
		assignments:  assignments,
		offerings:    offerings,
		slots:        slots,
		rooms:        rooms,
		teachers:     teachers,
		availability: availability,
		logger:       logger,
	}
}

// Violations collects every invariant the candidate would break. peers is the
// full candidate set moving together: members' current rows vacate and never
// count as conflicts, but their proposed positions do, so two members cannot
// land on the same room or teacher in one slot. Fetch failures abort the
// check, found violations do not.
func (s *ConstraintService) Violations(ctx context.Context, cand Candidate, peers []Candidate) ([]models.Violation, error) {
	exclude := make(map[models.AssignmentKey]struct{}, len(peers)+1)
	exclude[cand.Key()] = struct{}{}
	for _, peer := range peers {
		exclude[peer.Key()] = struct{}{}
	}

	offering, err := s.offerings.FindByID(ctx, cand.OfferingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("offering %s not found", cand.OfferingID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load offering")
	}
	slot, err := s.slots.FindByID(ctx, cand.SlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("slot %s not found", cand.SlotID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load slot")
	}
	current, err := s.assignments.GetByKey(ctx, cand.OfferingID, cand.Kind)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment exists for offering %s kind %s", cand.OfferingID, cand.Kind))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load assignment")
	}

	occupants, err := s.assignments.ListBySlot(ctx, cand.SlotID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load slot occupancy")
	}

	siblings, err := s.resolvePeers(ctx, cand, peers)
	if err != nil {
		return nil, err
	}

	var violations []models.Violation

	violations = append(violations, s.teacherClashes(cand, offering, occupants, siblings, exclude)...)
	violations = append(violations, s.roomClashes(cand, occupants, siblings, exclude)...)

	suitability, err := s.roomSuitability(ctx, cand, offering)
	if err != nil {
		return nil, err
	}
	violations = append(violations, suitability...)

	if offering.TeacherID != nil {
		availability, err := s.teacherAvailability(ctx, cand, offering)
		if err != nil {
			return nil, err
		}
		violations = append(violations, availability...)

		load, err := s.teacherLoad(ctx, cand, offering, slot, siblings, exclude)
		if err != nil {
			return nil, err
		}
		violations = append(violations, load...)
	}

	if current.IsLocked {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationAssignmentLocked,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			RoomID:      cand.RoomID,
			Message:     "assignment is locked against reassignment",
		})
	}

	return violations, nil
}

// peerPlacement is a sibling member's proposed position with the lookups the
// cross checks need already resolved.
type peerPlacement struct {
	key       models.AssignmentKey
	slotID    string
	dayOfWeek int
	roomID    *string
	teacherID *string
}

func (s *ConstraintService) resolvePeers(ctx context.Context, cand Candidate, peers []Candidate) ([]peerPlacement, error) {
	resolved := make([]peerPlacement, 0, len(peers))
	for _, peer := range peers {
		if peer.Key() == cand.Key() {
			continue
		}
		offering, err := s.offerings.FindByID(ctx, peer.OfferingID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("offering %s not found", peer.OfferingID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load offering")
		}
		slot, err := s.slots.FindByID(ctx, peer.SlotID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("slot %s not found", peer.SlotID))
			}
			return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load slot")
		}
		resolved = append(resolved, peerPlacement{
			key:       peer.Key(),
			slotID:    peer.SlotID,
			dayOfWeek: slot.DayOfWeek,
			roomID:    peer.RoomID,
			teacherID: offering.TeacherID,
		})
	}
	return resolved, nil
}

func (s *ConstraintService) teacherClashes(cand Candidate, offering *models.Offering, occupants []models.AssignmentDetail, siblings []peerPlacement, exclude map[models.AssignmentKey]struct{}) []models.Violation {
	if offering.TeacherID == nil {
		return nil
	}
	var violations []models.Violation
	for i := range occupants {
		occ := &occupants[i]
		if _, moving := exclude[occ.Key()]; moving {
			continue
		}
		if occ.TeacherID == nil || *occ.TeacherID != *offering.TeacherID {
			continue
		}
		conflictKind := occ.Kind
		violations = append(violations, models.Violation{
			Kind:               models.ViolationTeacherDoubleBooked,
			OfferingID:         cand.OfferingID,
			SessionKind:        cand.Kind,
			SlotID:             cand.SlotID,
			TeacherID:          offering.TeacherID,
			ConflictOfferingID: &occ.OfferingID,
			ConflictKind:       &conflictKind,
			Message:            "teacher already teaches another session in this slot",
		})
	}
	for i := range siblings {
		sib := &siblings[i]
		if sib.slotID != cand.SlotID || sib.teacherID == nil || *sib.teacherID != *offering.TeacherID {
			continue
		}
		conflictID := sib.key.OfferingID
		conflictKind := sib.key.Kind
		violations = append(violations, models.Violation{
			Kind:               models.ViolationTeacherDoubleBooked,
			OfferingID:         cand.OfferingID,
			SessionKind:        cand.Kind,
			SlotID:             cand.SlotID,
			TeacherID:          offering.TeacherID,
			ConflictOfferingID: &conflictID,
			ConflictKind:       &conflictKind,
			Message:            "another session in the set moves the teacher into this slot",
		})
	}
	return violations
}

func (s *ConstraintService) roomClashes(cand Candidate, occupants []models.AssignmentDetail, siblings []peerPlacement, exclude map[models.AssignmentKey]struct{}) []models.Violation {
	if cand.RoomID == nil {
		return nil
	}
	var violations []models.Violation
	for i := range occupants {
		occ := &occupants[i]
		if _, moving := exclude[occ.Key()]; moving {
			continue
		}
		if occ.RoomID == nil || *occ.RoomID != *cand.RoomID {
			continue
		}
		conflictKind := occ.Kind
		violations = append(violations, models.Violation{
			Kind:               models.ViolationRoomDoubleBooked,
			OfferingID:         cand.OfferingID,
			SessionKind:        cand.Kind,
			SlotID:             cand.SlotID,
			RoomID:             cand.RoomID,
			ConflictOfferingID: &occ.OfferingID,
			ConflictKind:       &conflictKind,
			Message:            "room already hosts another session in this slot",
		})
	}
	for i := range siblings {
		sib := &siblings[i]
		if sib.slotID != cand.SlotID || sib.roomID == nil || *sib.roomID != *cand.RoomID {
			continue
		}
		conflictID := sib.key.OfferingID
		conflictKind := sib.key.Kind
		violations = append(violations, models.Violation{
			Kind:               models.ViolationRoomDoubleBooked,
			OfferingID:         cand.OfferingID,
			SessionKind:        cand.Kind,
			SlotID:             cand.SlotID,
			RoomID:             cand.RoomID,
			ConflictOfferingID: &conflictID,
			ConflictKind:       &conflictKind,
			Message:            "another session in the set moves into this room in the same slot",
		})
	}
	return violations
}

func (s *ConstraintService) roomSuitability(ctx context.Context, cand Candidate, offering *models.Offering) ([]models.Violation, error) {
	if cand.RoomID == nil {
		// A roomless placement never conflicts, but an offering that declares
		// room needs can never be satisfied by it either.
		if offering.NeedsRoom() {
			return []models.Violation{{
				Kind:        models.ViolationMissingRoom,
				OfferingID:  cand.OfferingID,
				SessionKind: cand.Kind,
				SlotID:      cand.SlotID,
				Message:     "offering declares room requirements but no room is proposed",
			}}, nil
		}
		return nil, nil
	}

	room, err := s.rooms.FindByID(ctx, *cand.RoomID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("room %s not found", *cand.RoomID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load room")
	}

	var violations []models.Violation
	if offering.RequiredRoomKind != nil && room.Kind != *offering.RequiredRoomKind {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationRoomUnsuitable,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			RoomID:      cand.RoomID,
			Message:     fmt.Sprintf("room kind %s does not match required %s", room.Kind, *offering.RequiredRoomKind),
		})
	}
	if !room.HasFeatures(offering.RequiredFeatures) {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationRoomUnsuitable,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			RoomID:      cand.RoomID,
			Message:     "room lacks required feature tags",
		})
	}
	if offering.ExpectedSize > room.Capacity {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationRoomUnsuitable,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			RoomID:      cand.RoomID,
			Message:     fmt.Sprintf("expected size %d exceeds room capacity %d", offering.ExpectedSize, room.Capacity),
		})
	}
	return violations, nil
}

func (s *ConstraintService) teacherAvailability(ctx context.Context, cand Candidate, offering *models.Offering) ([]models.Violation, error) {
	availability, err := s.availability.Get(ctx, *offering.TeacherID, cand.SlotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return []models.Violation{{
				Kind:        models.ViolationTeacherUnavailable,
				OfferingID:  cand.OfferingID,
				SessionKind: cand.Kind,
				SlotID:      cand.SlotID,
				TeacherID:   offering.TeacherID,
				Message:     "no availability recorded for teacher in this slot",
			}}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load teacher availability")
	}
	if !availability.CanTeach {
		return []models.Violation{{
			Kind:        models.ViolationTeacherUnavailable,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			TeacherID:   offering.TeacherID,
			Message:     "teacher is marked unavailable for this slot",
		}}, nil
	}
	return nil, nil
}

func (s *ConstraintService) teacherLoad(ctx context.Context, cand Candidate, offering *models.Offering, slot *models.Slot, siblings []peerPlacement, exclude map[models.AssignmentKey]struct{}) ([]models.Violation, error) {
	teacher, err := s.teachers.FindByID(ctx, *offering.TeacherID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("teacher %s not found", *offering.TeacherID))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load teacher")
	}
	if teacher.MaxPerDay <= 0 && teacher.MaxPerWeek <= 0 {
		return nil, nil
	}

	refs, err := s.assignments.ListRefsByTeacher(ctx, teacher.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load teacher assignments")
	}

	// Count standing assignments, skipping rows that move with the candidate
	// set, then add the candidate itself plus every sibling landing on this
	// teacher at its new position.
	dayCount, weekCount := 1, 1
	for i := range refs {
		ref := &refs[i]
		key := models.AssignmentKey{OfferingID: ref.OfferingID, Kind: ref.Kind}
		if _, moving := exclude[key]; moving {
			continue
		}
		weekCount++
		if ref.DayOfWeek == slot.DayOfWeek {
			dayCount++
		}
	}
	for i := range siblings {
		sib := &siblings[i]
		if sib.teacherID == nil || *sib.teacherID != *offering.TeacherID {
			continue
		}
		weekCount++
		if sib.dayOfWeek == slot.DayOfWeek {
			dayCount++
		}
	}

	var violations []models.Violation
	if teacher.MaxPerDay > 0 && dayCount > teacher.MaxPerDay {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationTeacherOverloaded,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			TeacherID:   offering.TeacherID,
			Message:     fmt.Sprintf("placement brings teacher to %d sessions on day %d, max %d", dayCount, slot.DayOfWeek, teacher.MaxPerDay),
		})
	}
	if teacher.MaxPerWeek > 0 && weekCount > teacher.MaxPerWeek {
		violations = append(violations, models.Violation{
			Kind:        models.ViolationTeacherOverloaded,
			OfferingID:  cand.OfferingID,
			SessionKind: cand.Kind,
			SlotID:      cand.SlotID,
			TeacherID:   offering.TeacherID,
			Message:     fmt.Sprintf("placement brings teacher to %d weekly sessions, max %d", weekCount, teacher.MaxPerWeek),
		})
	}
	return violations, nil
}
