package models

import "time"

// Course represents a course in the weekly plan with L/T/P hour counts.
type Course struct {
	ID             string    `db:"id" json:"id"`
	Code           string    `db:"code" json:"code"`
	Name           string    `db:"name" json:"name"`
	LectureHours   int       `db:"lecture_hours" json:"lecture_hours"`
	TutorialHours  int       `db:"tutorial_hours" json:"tutorial_hours"`
	PracticalHours int       `db:"practical_hours" json:"practical_hours"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}
