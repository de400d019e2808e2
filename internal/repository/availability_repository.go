package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// AvailabilityRepository reads (teacher, slot) availability rows.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs the repository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// Get loads the availability row for a teacher-slot pair. Callers treat
// sql.ErrNoRows as "unavailable".
func (r *AvailabilityRepository) Get(ctx context.Context, teacherID, slotID string) (*models.Availability, error) {
	const query = `SELECT id, teacher_id, slot_id, can_teach, created_at
FROM availabilities WHERE teacher_id = $1 AND slot_id = $2`
	var availability models.Availability
	if err := r.db.GetContext(ctx, &availability, query, teacherID, slotID); err != nil {
		return nil, err
	}
	return &availability, nil
}

// ListByTeacher returns every availability row of a teacher ordered by slot.
func (r *AvailabilityRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.Availability, error) {
	const query = `
SELECT av.id, av.teacher_id, av.slot_id, av.can_teach, av.created_at
FROM availabilities av
JOIN slots s ON s.id = av.slot_id
WHERE av.teacher_id = $1
ORDER BY s.day_of_week ASC, s.start_time ASC, s.occurrence ASC`
	var rows []models.Availability
	if err := r.db.SelectContext(ctx, &rows, query, teacherID); err != nil {
		return nil, fmt.Errorf("list availability by teacher: %w", err)
	}
	return rows, nil
}
