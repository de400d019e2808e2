package export

import (
	"fmt"
	"sort"

	"github.com/noah-isme/timetable-api/internal/models"
)

var timetableHeaders = []string{"Day", "Start", "End", "Course", "Kind", "Teacher", "Room"}

// TimetableDataset flattens grid entries into a renderable dataset ordered by
// day then start time, so exports read chronologically regardless of how the
// entries were fetched.
func TimetableDataset(entries []models.TimetableEntry) Dataset {
	ordered := make([]models.TimetableEntry, len(entries))
	copy(ordered, entries)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].DayOfWeek != ordered[j].DayOfWeek {
			return ordered[i].DayOfWeek < ordered[j].DayOfWeek
		}
		if ordered[i].StartTime != ordered[j].StartTime {
			return ordered[i].StartTime < ordered[j].StartTime
		}
		return ordered[i].CourseCode < ordered[j].CourseCode
	})

	rows := make([]map[string]string, 0, len(ordered))
	for i := range ordered {
		entry := &ordered[i]
		slot := models.Slot{DayOfWeek: entry.DayOfWeek}
		row := map[string]string{
			"Day":    slot.DayName(),
			"Start":  entry.StartTime,
			"End":    entry.EndTime,
			"Course": fmt.Sprintf("%s %s", entry.CourseCode, entry.CourseName),
			"Kind":   string(entry.Kind),
		}
		if entry.TeacherName != nil {
			row["Teacher"] = *entry.TeacherName
		}
		if entry.RoomCode != nil {
			row["Room"] = *entry.RoomCode
		}
		rows = append(rows, row)
	}
	return Dataset{Headers: timetableHeaders, Rows: rows}
}
