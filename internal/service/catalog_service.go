package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type teacherLister interface {
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
}

type roomLister interface {
	List(ctx context.Context) ([]models.Room, error)
}

type slotLister interface {
	List(ctx context.Context) ([]models.Slot, error)
	ListByCluster(ctx context.Context, clusterID string) ([]models.Slot, error)
}

type courseLister interface {
	List(ctx context.Context) ([]models.Course, error)
}

type sectionLister interface {
	List(ctx context.Context) ([]models.Section, error)
}

type offeringLister interface {
	FindByID(ctx context.Context, id string) (*models.Offering, error)
	List(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, int, error)
}

type assignmentLister interface {
	ListByOffering(ctx context.Context, offeringID string) ([]models.Assignment, error)
	SetLock(ctx context.Context, offeringID string, kind models.SessionKind, locked bool) error
}

type availabilityLister interface {
	ListByTeacher(ctx context.Context, teacherID string) ([]models.Availability, error)
}

// CatalogService exposes reference data reads for the timetable UI. All of
// this is single-row/plain-list access; the apply engine never goes through
// it.
type CatalogService struct {
	teachers     teacherLister
	rooms        roomLister
	slots        slotLister
	courses      courseLister
	sections     sectionLister
	offerings    offeringLister
	assignments  assignmentLister
	availability availabilityLister
}

// NewCatalogService wires the catalog readers.
func NewCatalogService(
	teachers teacherLister,
	rooms roomLister,
	slots slotLister,
	courses courseLister,
	sections sectionLister,
	offerings offeringLister,
	assignments assignmentLister,
	availability availabilityLister,
) *CatalogService {
	return &CatalogService{
		teachers:     teachers,
		rooms:        rooms,
		slots:        slots,
		courses:      courses,
		sections:     sections,
		offerings:    offerings,
		assignments:  assignments,
		availability: availability,
	}
}

// ListTeachers returns teachers with pagination metadata.
func (s *CatalogService) ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error) {
	teachers, total, err := s.teachers.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}
	return teachers, paging(filter.Page, filter.PageSize, total), nil
}

// ListRooms returns all rooms.
func (s *CatalogService) ListRooms(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list rooms")
	}
	return rooms, nil
}

// ListSlots returns the weekly slot grid, optionally narrowed to one cluster
// (a lab block groups its slots under a shared cluster id).
func (s *CatalogService) ListSlots(ctx context.Context, clusterID string) ([]models.Slot, error) {
	var (
		slots []models.Slot
		err   error
	)
	if clusterID != "" {
		slots, err = s.slots.ListByCluster(ctx, clusterID)
	} else {
		slots, err = s.slots.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list slots")
	}
	return slots, nil
}

// ListCourses returns all courses.
func (s *CatalogService) ListCourses(ctx context.Context) ([]models.Course, error) {
	courses, err := s.courses.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListSections returns all sections.
func (s *CatalogService) ListSections(ctx context.Context) ([]models.Section, error) {
	sections, err := s.sections.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list sections")
	}
	return sections, nil
}

// ListOfferings returns offerings with pagination metadata.
func (s *CatalogService) ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error) {
	offerings, total, err := s.offerings.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list offerings")
	}
	return offerings, paging(filter.Page, filter.PageSize, total), nil
}

// OfferingAssignments returns the session assignments of one offering.
func (s *CatalogService) OfferingAssignments(ctx context.Context, offeringID string) ([]models.Assignment, error) {
	if _, err := s.offerings.FindByID(ctx, offeringID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load offering")
	}
	assignments, err := s.assignments.ListByOffering(ctx, offeringID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// SetAssignmentLock toggles the manual lock on one assignment.
func (s *CatalogService) SetAssignmentLock(ctx context.Context, offeringID string, kind models.SessionKind, locked bool) error {
	if !models.ValidSessionKind(kind) {
		return appErrors.Clone(appErrors.ErrValidation, "unsupported session kind")
	}
	if err := s.assignments.SetLock(ctx, offeringID, kind, locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.ErrNotFound
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update assignment lock")
	}
	return nil
}

// TeacherAvailability returns the availability rows of one teacher.
func (s *CatalogService) TeacherAvailability(ctx context.Context, teacherID string) ([]models.Availability, error) {
	if _, err := s.teachers.FindByID(ctx, teacherID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	rows, err := s.availability.ListByTeacher(ctx, teacherID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return rows, nil
}

func paging(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}
