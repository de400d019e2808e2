package dto

import "github.com/noah-isme/timetable-api/internal/models"

// TimetableResponse wraps grid entries for one section, teacher or room.
type TimetableResponse struct {
	Scope   string                  `json:"scope"`
	ScopeID string                  `json:"scope_id"`
	Entries []models.TimetableEntry `json:"entries"`
}

// ExportQuery selects the export rendering format.
type ExportQuery struct {
	Format string `form:"format" binding:"omitempty,oneof=csv pdf"`
}
