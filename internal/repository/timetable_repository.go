package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/timetable-api/internal/models"
)

// TimetableRepository assembles denormalised weekly grids for read endpoints.
type TimetableRepository struct {
	db *sqlx.DB
}

// NewTimetableRepository constructs the repository.
func NewTimetableRepository(db *sqlx.DB) *TimetableRepository {
	return &TimetableRepository{db: db}
}

const timetableSelect = `
SELECT a.id AS assignment_id, a.offering_id, a.kind, a.is_locked,
       c.code AS course_code, c.name AS course_name,
       sec.name AS section_name,
       t.full_name AS teacher_name,
       r.code AS room_code,
       s.day_of_week, s.start_time, s.end_time
FROM assignments a
JOIN offerings o ON o.id = a.offering_id
JOIN courses c ON c.id = o.course_id
JOIN sections sec ON sec.id = o.section_id
JOIN slots s ON s.id = a.slot_id
LEFT JOIN teachers t ON t.id = o.teacher_id
LEFT JOIN rooms r ON r.id = a.room_id`

const timetableOrder = ` ORDER BY s.day_of_week ASC, s.start_time ASC, s.occurrence ASC`

// ListBySection returns the grid entries of one section.
func (r *TimetableRepository) ListBySection(ctx context.Context, sectionID string) ([]models.TimetableEntry, error) {
	query := timetableSelect + ` WHERE o.section_id = $1` + timetableOrder
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, sectionID); err != nil {
		return nil, fmt.Errorf("list timetable by section: %w", err)
	}
	return entries, nil
}

// ListByTeacher returns the grid entries taught by one teacher.
func (r *TimetableRepository) ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableEntry, error) {
	query := timetableSelect + ` WHERE o.teacher_id = $1` + timetableOrder
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, teacherID); err != nil {
		return nil, fmt.Errorf("list timetable by teacher: %w", err)
	}
	return entries, nil
}

// ListByRoom returns the grid entries scheduled into one room.
func (r *TimetableRepository) ListByRoom(ctx context.Context, roomID string) ([]models.TimetableEntry, error) {
	query := timetableSelect + ` WHERE a.room_id = $1` + timetableOrder
	var entries []models.TimetableEntry
	if err := r.db.SelectContext(ctx, &entries, query, roomID); err != nil {
		return nil, fmt.Errorf("list timetable by room: %w", err)
	}
	return entries, nil
}
