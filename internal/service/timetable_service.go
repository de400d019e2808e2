package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/export"
)

type timetableReader interface {
	ListBySection(ctx context.Context, sectionID string) ([]models.TimetableEntry, error)
	ListByTeacher(ctx context.Context, teacherID string) ([]models.TimetableEntry, error)
	ListByRoom(ctx context.Context, roomID string) ([]models.TimetableEntry, error)
}

type sectionFinder interface {
	FindByID(ctx context.Context, id string) (*models.Section, error)
}

// TimetableService serves read-side weekly grids with optional caching.
type TimetableService struct {
	repo        timetableReader
	sections    sectionFinder
	cache       *CacheService
	csv         *export.CSVExporter
	pdf         *export.PDFExporter
	exportTitle string
	logger      *zap.Logger
}

// NewTimetableService constructs the read service.
func NewTimetableService(repo timetableReader, sections sectionFinder, cache *CacheService, exportTitle string, logger *zap.Logger) *TimetableService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if exportTitle == "" {
		exportTitle = "Weekly Timetable"
	}
	return &TimetableService{
		repo:        repo,
		sections:    sections,
		cache:       cache,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		exportTitle: exportTitle,
		logger:      logger,
	}
}

// Grid returns entries for the given scope ("section", "teacher" or "room").
func (s *TimetableService) Grid(ctx context.Context, scope, scopeID string) (*dto.TimetableResponse, error) {
	if strings.TrimSpace(scopeID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "scope id is required")
	}

	cacheKey := fmt.Sprintf("timetable:%s:%s", scope, scopeID)
	if s.cache.Enabled() {
		var cached dto.TimetableResponse
		if hit, err := s.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	var (
		entries []models.TimetableEntry
		err     error
	)
	switch scope {
	case "section":
		entries, err = s.repo.ListBySection(ctx, scopeID)
	case "teacher":
		entries, err = s.repo.ListByTeacher(ctx, scopeID)
	case "room":
		entries, err = s.repo.ListByRoom(ctx, scopeID)
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported timetable scope: %s", scope))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}

	resp := &dto.TimetableResponse{Scope: scope, ScopeID: scopeID, Entries: entries}
	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, resp, 0); err != nil {
			s.logger.Warn("failed to cache timetable", zap.String("key", cacheKey), zap.Error(err))
		}
	}
	return resp, nil
}

// ExportSection renders a section grid as CSV or PDF bytes. An empty grid is
// exportable, but the section itself must exist.
func (s *TimetableService) ExportSection(ctx context.Context, sectionID, format string) ([]byte, string, string, error) {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", "", appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("section %s not found", sectionID))
		}
		return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load section")
	}

	grid, err := s.Grid(ctx, "section", section.ID)
	if err != nil {
		return nil, "", "", err
	}

	dataset := export.TimetableDataset(grid.Entries)
	switch format {
	case "", "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", fmt.Sprintf("timetable-%s.csv", sectionID), nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, s.exportTitle)
		if err != nil {
			return nil, "", "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", fmt.Sprintf("timetable-%s.pdf", sectionID), nil
	default:
		return nil, "", "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format: %s", format))
	}
}
