package models

import (
	"time"

	"github.com/lib/pq"
)

// Offering is one course taught to one section, optionally by one teacher.
// A nil teacher means the offering is teacher-unconstrained for scheduling.
type Offering struct {
	ID               string         `db:"id" json:"id"`
	CourseID         string         `db:"course_id" json:"course_id"`
	SectionID        string         `db:"section_id" json:"section_id"`
	TeacherID        *string        `db:"teacher_id" json:"teacher_id,omitempty"`
	ExpectedSize     int            `db:"expected_size" json:"expected_size"`
	RequiredRoomKind *RoomKind      `db:"required_room_kind" json:"required_room_kind,omitempty"`
	RequiredFeatures pq.StringArray `db:"required_features" json:"required_features"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// NeedsRoom reports whether the offering declares any room requirement.
// Offerings with declared needs may never be committed without a room.
func (o *Offering) NeedsRoom() bool {
	return o.RequiredRoomKind != nil || len(o.RequiredFeatures) > 0
}

// OfferingFilter constrains offering listings.
type OfferingFilter struct {
	CourseID  string
	SectionID string
	TeacherID string
	Page      int
	PageSize  int
}
