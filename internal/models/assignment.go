package models

import "time"

// SessionKind enumerates teaching session types of an offering.
type SessionKind string

const (
	SessionKindLecture   SessionKind = "LECTURE"
	SessionKindTutorial  SessionKind = "TUTORIAL"
	SessionKindPractical SessionKind = "PRACTICAL"
)

// ValidSessionKind reports whether the kind is one of the supported values.
func ValidSessionKind(kind SessionKind) bool {
	switch kind {
	case SessionKindLecture, SessionKindTutorial, SessionKindPractical:
		return true
	}
	return false
}

// Assignment is the scheduling fact: (offering, kind) placed into a slot and
// optionally a room. At most one row exists per (offering_id, kind) pair.
type Assignment struct {
	ID         string      `db:"id" json:"id"`
	OfferingID string      `db:"offering_id" json:"offering_id"`
	Kind       SessionKind `db:"kind" json:"kind"`
	SlotID     string      `db:"slot_id" json:"slot_id"`
	RoomID     *string     `db:"room_id" json:"room_id,omitempty"`
	IsLocked   bool        `db:"is_locked" json:"is_locked"`
	CreatedAt  time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time   `db:"updated_at" json:"updated_at"`
}

// AssignmentKey identifies one teaching session of an offering.
type AssignmentKey struct {
	OfferingID string      `json:"offering_id"`
	Kind       SessionKind `json:"kind"`
}

// Key returns the natural key of the assignment.
func (a *Assignment) Key() AssignmentKey {
	return AssignmentKey{OfferingID: a.OfferingID, Kind: a.Kind}
}

// AssignmentDetail joins an assignment with the owning offering's teacher,
// used for occupancy checks against a slot.
type AssignmentDetail struct {
	Assignment
	TeacherID *string `db:"teacher_id" json:"teacher_id,omitempty"`
}

// AssignmentSlotRef pairs an assignment key with its slot's weekday,
// used for teacher load counting.
type AssignmentSlotRef struct {
	OfferingID string      `db:"offering_id" json:"offering_id"`
	Kind       SessionKind `db:"kind" json:"kind"`
	SlotID     string      `db:"slot_id" json:"slot_id"`
	DayOfWeek  int         `db:"day_of_week" json:"day_of_week"`
}

// AssignmentMove describes one row mutation of the apply transaction. Prior
// values form the exact-match predicate that detects concurrent writers.
type AssignmentMove struct {
	OfferingID  string
	Kind        SessionKind
	PriorSlotID string
	PriorRoomID *string
	NewSlotID   string
	NewRoomID   *string
}
