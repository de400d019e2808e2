package export

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func strPtr(s string) *string { return &s }

func TestTimetableDatasetOrdersByDayThenStart(t *testing.T) {
	teacher := "Alice Mercer"
	entries := []models.TimetableEntry{
		{CourseCode: "PH201", CourseName: "Waves", Kind: models.SessionKindLecture, DayOfWeek: 3, StartTime: "08:00", EndTime: "08:50"},
		{CourseCode: "MA101", CourseName: "Calculus I", Kind: models.SessionKindLecture, DayOfWeek: 1, StartTime: "10:00", EndTime: "10:50", RoomCode: strPtr("A101")},
		{CourseCode: "CS105", CourseName: "Programming", Kind: models.SessionKindPractical, DayOfWeek: 1, StartTime: "08:00", EndTime: "09:40", TeacherName: &teacher},
	}

	dataset := TimetableDataset(entries)
	require.Equal(t, []string{"Day", "Start", "End", "Course", "Kind", "Teacher", "Room"}, dataset.Headers)
	require.Len(t, dataset.Rows, 3)
	require.Equal(t, "CS105 Programming", dataset.Rows[0]["Course"])
	require.Equal(t, "MA101 Calculus I", dataset.Rows[1]["Course"])
	require.Equal(t, "PH201 Waves", dataset.Rows[2]["Course"])
	require.Equal(t, "Monday", dataset.Rows[0]["Day"])
	require.Equal(t, "Wednesday", dataset.Rows[2]["Day"])
	require.Equal(t, "Alice Mercer", dataset.Rows[0]["Teacher"])
	require.Empty(t, dataset.Rows[0]["Room"])
}

func TestTimetableDatasetRendersAsCSV(t *testing.T) {
	entries := []models.TimetableEntry{
		{CourseCode: "MA101", CourseName: "Calculus I", Kind: models.SessionKindLecture, DayOfWeek: 2, StartTime: "09:00", EndTime: "09:50"},
		{CourseCode: "CS105", CourseName: "Programming", Kind: models.SessionKindLecture, DayOfWeek: 1, StartTime: "08:00", EndTime: "08:50"},
	}

	payload, err := NewCSVExporter().Render(TimetableDataset(entries))
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 3)
	require.Contains(t, lines[1], "Monday")
	require.Contains(t, lines[2], "Tuesday")
}
