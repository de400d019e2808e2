package models

import "time"

// Section represents a cohort of students within a program year.
type Section struct {
	ID        string    `db:"id" json:"id"`
	Program   string    `db:"program" json:"program"`
	Year      int       `db:"year" json:"year"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
