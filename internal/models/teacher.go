package models

import (
	"time"

	"github.com/lib/pq"
)

// Teacher represents an instructor record with weekly load limits.
type Teacher struct {
	ID            string        `db:"id" json:"id"`
	Code          string        `db:"code" json:"code"`
	FullName      string        `db:"full_name" json:"full_name"`
	MaxPerDay     int           `db:"max_per_day" json:"max_per_day"`
	MaxPerWeek    int           `db:"max_per_week" json:"max_per_week"`
	AvoidEarly    bool          `db:"avoid_early" json:"avoid_early"`
	AvoidLate     bool          `db:"avoid_late" json:"avoid_late"`
	PreferredDays pq.Int64Array `db:"preferred_days" json:"preferred_days"`
	Active        bool          `db:"active" json:"active"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// TeacherFilter captures filtering options for listing teachers.
type TeacherFilter struct {
	Search   string
	Active   *bool
	Page     int
	PageSize int
}
