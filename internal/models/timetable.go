package models

// TimetableEntry is one cell of a rendered weekly grid, joining an assignment
// with the names the UI and exporters need.
type TimetableEntry struct {
	AssignmentID string      `db:"assignment_id" json:"assignment_id"`
	OfferingID   string      `db:"offering_id" json:"offering_id"`
	Kind         SessionKind `db:"kind" json:"kind"`
	CourseCode   string      `db:"course_code" json:"course_code"`
	CourseName   string      `db:"course_name" json:"course_name"`
	SectionName  string      `db:"section_name" json:"section_name"`
	TeacherName  *string     `db:"teacher_name" json:"teacher_name,omitempty"`
	RoomCode     *string     `db:"room_code" json:"room_code,omitempty"`
	DayOfWeek    int         `db:"day_of_week" json:"day_of_week"`
	StartTime    string      `db:"start_time" json:"start_time"`
	EndTime      string      `db:"end_time" json:"end_time"`
	IsLocked     bool        `db:"is_locked" json:"is_locked"`
}
