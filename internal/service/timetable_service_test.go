package service

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type timetableReaderStub struct {
	entries map[string][]models.TimetableEntry
	calls   int
}

func (s *timetableReaderStub) ListBySection(ctx context.Context, sectionID string) ([]models.TimetableEntry, error) {
	s.calls++
	return s.entries["section:"+sectionID], nil
}

func (s *timetableReaderStub) ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableEntry, error) {
	s.calls++
	return s.entries["teacher:"+teacherID], nil
}

func (s *timetableReaderStub) ListByRoom(ctx context.Context, roomID string) ([]models.TimetableEntry, error) {
	s.calls++
	return s.entries["room:"+roomID], nil
}

type sectionFinderStub struct {
	sections map[string]*models.Section
}

func (s *sectionFinderStub) FindByID(ctx context.Context, id string) (*models.Section, error) {
	if sec, ok := s.sections[id]; ok {
		copy := *sec
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func knownSections(ids ...string) *sectionFinderStub {
	stub := &sectionFinderStub{sections: make(map[string]*models.Section)}
	for _, id := range ids {
		stub.sections[id] = &models.Section{ID: id, Program: "CS", Year: 1, Name: id}
	}
	return stub
}

type cacheRepoStub struct {
	store map[string][]byte
}

func newCacheRepoStub() *cacheRepoStub {
	return &cacheRepoStub{store: make(map[string][]byte)}
}

func (s *cacheRepoStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := s.store[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (s *cacheRepoStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.store[key] = raw
	return nil
}

func (s *cacheRepoStub) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range s.store {
		delete(s.store, key)
	}
	return nil
}

func sampleEntries() []models.TimetableEntry {
	teacher := "Alice Mercer"
	room := "A101"
	return []models.TimetableEntry{{
		OfferingID:  "off-1",
		Kind:        models.SessionKindLecture,
		DayOfWeek:   1,
		StartTime:   "08:00",
		EndTime:     "08:50",
		CourseCode:  "MA101",
		CourseName:  "Calculus I",
		SectionName: "CS-1A",
		TeacherName: &teacher,
		RoomCode:    &room,
	}}
}

func TestTimetableServiceGridCaching(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{
		"section:sec-1": sampleEntries(),
	}}
	cacheRepo := newCacheRepoStub()
	cache := NewCacheService(cacheRepo, nil, time.Minute, nil, true)
	svc := NewTimetableService(reader, knownSections("sec-1"), cache, "", nil)

	first, err := svc.Grid(context.Background(), "section", "sec-1")
	require.NoError(t, err)
	require.Len(t, first.Entries, 1)
	require.Equal(t, 1, reader.calls)

	// Second read is served from cache.
	second, err := svc.Grid(context.Background(), "section", "sec-1")
	require.NoError(t, err)
	require.Equal(t, first.Entries, second.Entries)
	require.Equal(t, 1, reader.calls)

	// Invalidation forces a fresh read.
	require.NoError(t, cache.Invalidate(context.Background(), "timetable:*"))
	_, err = svc.Grid(context.Background(), "section", "sec-1")
	require.NoError(t, err)
	require.Equal(t, 2, reader.calls)
}

func TestTimetableServiceGridScopes(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{
		"teacher:t-1": sampleEntries(),
		"room:r-1":    sampleEntries(),
	}}
	svc := NewTimetableService(reader, knownSections(), nil, "", nil)

	grid, err := svc.Grid(context.Background(), "teacher", "t-1")
	require.NoError(t, err)
	require.Equal(t, "teacher", grid.Scope)

	grid, err = svc.Grid(context.Background(), "room", "r-1")
	require.NoError(t, err)
	require.Equal(t, "room", grid.Scope)

	_, err = svc.Grid(context.Background(), "building", "b-1")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	_, err = svc.Grid(context.Background(), "section", " ")
	require.Error(t, err)
}

func TestTimetableServiceExportSectionCSV(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{
		"section:sec-1": sampleEntries(),
	}}
	svc := NewTimetableService(reader, knownSections("sec-1"), nil, "", nil)

	payload, contentType, filename, err := svc.ExportSection(context.Background(), "sec-1", "csv")
	require.NoError(t, err)
	require.Equal(t, "text/csv", contentType)
	require.Equal(t, "timetable-sec-1.csv", filename)

	lines := strings.Split(strings.TrimSpace(string(payload)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "Day")
	require.Contains(t, lines[1], "Monday")
	require.Contains(t, lines[1], "MA101")
}

func TestTimetableServiceExportSectionPDF(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{
		"section:sec-1": sampleEntries(),
	}}
	svc := NewTimetableService(reader, knownSections("sec-1"), nil, "Weekly Timetable", nil)

	payload, contentType, filename, err := svc.ExportSection(context.Background(), "sec-1", "pdf")
	require.NoError(t, err)
	require.Equal(t, "application/pdf", contentType)
	require.Equal(t, "timetable-sec-1.pdf", filename)
	require.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}

func TestTimetableServiceExportUnknownFormat(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{}}
	svc := NewTimetableService(reader, knownSections("sec-1"), nil, "", nil)

	_, _, _, err := svc.ExportSection(context.Background(), "sec-1", "xlsx")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTimetableServiceExportUnknownSection(t *testing.T) {
	reader := &timetableReaderStub{entries: map[string][]models.TimetableEntry{}}
	svc := NewTimetableService(reader, knownSections(), nil, "", nil)

	_, _, _, err := svc.ExportSection(context.Background(), "sec-missing", "csv")
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	require.Equal(t, 0, reader.calls)
}
