package models

import "time"

// Slot is a fixed weekly time unit sessions can be scheduled into.
// DayOfWeek runs 1 (Monday) through 5 (Friday). Occurrence distinguishes
// repeats of the same time-of-day within one day.
type Slot struct {
	ID         string    `db:"id" json:"id"`
	DayOfWeek  int       `db:"day_of_week" json:"day_of_week"`
	StartTime  string    `db:"start_time" json:"start_time"`
	EndTime    string    `db:"end_time" json:"end_time"`
	Occurrence int       `db:"occurrence" json:"occurrence"`
	ClusterID  *string   `db:"cluster_id" json:"cluster_id,omitempty"`
	IsLab      bool      `db:"is_lab" json:"is_lab"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

var dayNames = map[int]string{
	1: "Monday",
	2: "Tuesday",
	3: "Wednesday",
	4: "Thursday",
	5: "Friday",
}

// DayName returns the human readable weekday for grid rendering.
func (s *Slot) DayName() string {
	if name, ok := dayNames[s.DayOfWeek]; ok {
		return name
	}
	return "Unknown"
}
