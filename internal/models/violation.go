package models

// ViolationKind enumerates the scheduling invariants a candidate can break.
type ViolationKind string

const (
	ViolationTeacherDoubleBooked ViolationKind = "TEACHER_DOUBLE_BOOKED"
	ViolationRoomDoubleBooked    ViolationKind = "ROOM_DOUBLE_BOOKED"
	ViolationRoomUnsuitable      ViolationKind = "ROOM_UNSUITABLE"
	ViolationMissingRoom         ViolationKind = "MISSING_ROOM"
	ViolationTeacherUnavailable  ViolationKind = "TEACHER_UNAVAILABLE"
	ViolationTeacherOverloaded   ViolationKind = "TEACHER_OVERLOADED"
	ViolationAssignmentLocked    ViolationKind = "ASSIGNMENT_LOCKED"
)

// Violation names a broken invariant together with the entities involved so
// the caller can adjust the recommendation.
type Violation struct {
	Kind               ViolationKind `json:"kind"`
	OfferingID         string        `json:"offering_id"`
	SessionKind        SessionKind   `json:"session_kind"`
	SlotID             string        `json:"slot_id"`
	RoomID             *string       `json:"room_id,omitempty"`
	TeacherID          *string       `json:"teacher_id,omitempty"`
	ConflictOfferingID *string       `json:"conflict_offering_id,omitempty"`
	ConflictKind       *SessionKind  `json:"conflict_kind,omitempty"`
	Message            string        `json:"message"`
}
