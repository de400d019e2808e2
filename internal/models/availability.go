package models

import "time"

// Availability records whether a teacher can teach in a given slot.
// Absence of a row means the pair is treated as unavailable.
type Availability struct {
	ID        string    `db:"id" json:"id"`
	TeacherID string    `db:"teacher_id" json:"teacher_id"`
	SlotID    string    `db:"slot_id" json:"slot_id"`
	CanTeach  bool      `db:"can_teach" json:"can_teach"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
