package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// ErrAssignmentChanged signals that a conditional update matched no row: the
// assignment moved, was locked, or disappeared since it was last read.
var ErrAssignmentChanged = errors.New("assignment changed since it was read")

// AssignmentRepository persists scheduling facts keyed by (offering_id, kind).
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) exec(exec sqlx.ExtContext) sqlx.ExtContext {
	if exec != nil {
		return exec
	}
	return r.db
}

const assignmentColumns = `id, offering_id, kind, slot_id, room_id, is_locked, created_at, updated_at`

// GetByKey loads the assignment for one (offering, kind) pair.
func (r *AssignmentRepository) GetByKey(ctx context.Context, offeringID string, kind models.SessionKind) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE offering_id = $1 AND kind = $2`, assignmentColumns)
	var assignment models.Assignment
	if err := r.db.GetContext(ctx, &assignment, query, offeringID, kind); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ListByOffering returns every session assignment of an offering.
func (r *AssignmentRepository) ListByOffering(ctx context.Context, offeringID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE offering_id = $1 ORDER BY kind ASC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, offeringID); err != nil {
		return nil, fmt.Errorf("list assignments by offering: %w", err)
	}
	return assignments, nil
}

// ListBySlot returns all assignments occupying a slot together with the
// owning offering's teacher, for double-booking checks.
func (r *AssignmentRepository) ListBySlot(ctx context.Context, slotID string) ([]models.AssignmentDetail, error) {
	const query = `
SELECT a.id, a.offering_id, a.kind, a.slot_id, a.room_id, a.is_locked, a.created_at, a.updated_at,
       o.teacher_id
FROM assignments a
JOIN offerings o ON o.id = a.offering_id
WHERE a.slot_id = $1`
	var assignments []models.AssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, slotID); err != nil {
		return nil, fmt.Errorf("list assignments by slot: %w", err)
	}
	return assignments, nil
}

// ListRefsByTeacher returns the slot references of every assignment taught by
// the teacher, with weekday resolved, for load counting.
func (r *AssignmentRepository) ListRefsByTeacher(ctx context.Context, teacherID string) ([]models.AssignmentSlotRef, error) {
	const query = `
SELECT a.offering_id, a.kind, a.slot_id, s.day_of_week
FROM assignments a
JOIN offerings o ON o.id = a.offering_id
JOIN slots s ON s.id = a.slot_id
WHERE o.teacher_id = $1`
	var refs []models.AssignmentSlotRef
	if err := r.db.SelectContext(ctx, &refs, query, teacherID); err != nil {
		return nil, fmt.Errorf("list assignment refs by teacher: %w", err)
	}
	return refs, nil
}

// ApplyMoves executes the conditional updates of a validated candidate set.
// Every update is keyed by (offering_id, kind) and guarded by the previously
// observed slot/room values and the lock flag, so a row changed by a
// concurrent writer matches nothing and the whole set must be rolled back by
// the caller. Runs inside the caller's transaction.
func (r *AssignmentRepository) ApplyMoves(ctx context.Context, exec sqlx.ExtContext, moves []models.AssignmentMove) error {
	target := r.exec(exec)
	now := time.Now().UTC()

	const query = `
UPDATE assignments
SET slot_id = $1, room_id = $2, updated_at = $3
WHERE offering_id = $4 AND kind = $5
  AND slot_id = $6 AND room_id IS NOT DISTINCT FROM $7
  AND is_locked = FALSE`

	for _, move := range moves {
		result, err := target.ExecContext(ctx, query,
			move.NewSlotID, move.NewRoomID, now,
			move.OfferingID, move.Kind,
			move.PriorSlotID, move.PriorRoomID,
		)
		if err != nil {
			return fmt.Errorf("apply assignment move %s/%s: %w", move.OfferingID, move.Kind, err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("assignment move rows affected: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("apply assignment move %s/%s: %w", move.OfferingID, move.Kind, ErrAssignmentChanged)
		}
	}
	return nil
}

// SetLock toggles the lock flag that forbids automatic reassignment.
func (r *AssignmentRepository) SetLock(ctx context.Context, offeringID string, kind models.SessionKind, locked bool) error {
	const query = `UPDATE assignments SET is_locked = $1, updated_at = $2 WHERE offering_id = $3 AND kind = $4`
	result, err := r.db.ExecContext(ctx, query, locked, time.Now().UTC(), offeringID, kind)
	if err != nil {
		return fmt.Errorf("set assignment lock: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("assignment lock rows affected: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
