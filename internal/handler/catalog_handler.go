package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type catalogService interface {
	ListTeachers(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, error)
	ListRooms(ctx context.Context) ([]models.Room, error)
	ListSlots(ctx context.Context, clusterID string) ([]models.Slot, error)
	ListCourses(ctx context.Context) ([]models.Course, error)
	ListSections(ctx context.Context) ([]models.Section, error)
	ListOfferings(ctx context.Context, filter models.OfferingFilter) ([]models.Offering, *models.Pagination, error)
	OfferingAssignments(ctx context.Context, offeringID string) ([]models.Assignment, error)
	SetAssignmentLock(ctx context.Context, offeringID string, kind models.SessionKind, locked bool) error
	TeacherAvailability(ctx context.Context, teacherID string) ([]models.Availability, error)
}

// CatalogHandler exposes reference data listings.
type CatalogHandler struct {
	service catalogService
}

// NewCatalogHandler constructs the handler.
func NewCatalogHandler(service catalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Catalog
// @Produce json
// @Param search query string false "Code or name search"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *CatalogHandler) ListTeachers(c *gin.Context) {
	filter := models.TeacherFilter{Search: strings.TrimSpace(c.Query("search"))}
	filter.Page, filter.PageSize = pageParams(c)
	if raw := c.Query("active"); raw != "" {
		active := raw == "true"
		filter.Active = &active
	}
	teachers, pagination, err := h.service.ListTeachers(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// ListRooms godoc
// @Summary List rooms
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /rooms [get]
func (h *CatalogHandler) ListRooms(c *gin.Context) {
	rooms, err := h.service.ListRooms(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rooms, nil)
}

// ListSlots godoc
// @Summary List weekly slots
// @Tags Catalog
// @Produce json
// @Param clusterId query string false "Cluster ID"
// @Success 200 {object} response.Envelope
// @Router /slots [get]
func (h *CatalogHandler) ListSlots(c *gin.Context) {
	slots, err := h.service.ListSlots(c.Request.Context(), strings.TrimSpace(c.Query("clusterId")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// ListCourses godoc
// @Summary List courses
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /courses [get]
func (h *CatalogHandler) ListCourses(c *gin.Context) {
	courses, err := h.service.ListCourses(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, courses, nil)
}

// ListSections godoc
// @Summary List sections
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /sections [get]
func (h *CatalogHandler) ListSections(c *gin.Context) {
	sections, err := h.service.ListSections(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, sections, nil)
}

// ListOfferings godoc
// @Summary List offerings
// @Tags Catalog
// @Produce json
// @Param courseId query string false "Course ID"
// @Param sectionId query string false "Section ID"
// @Param teacherId query string false "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /offerings [get]
func (h *CatalogHandler) ListOfferings(c *gin.Context) {
	filter := models.OfferingFilter{
		CourseID:  strings.TrimSpace(c.Query("courseId")),
		SectionID: strings.TrimSpace(c.Query("sectionId")),
		TeacherID: strings.TrimSpace(c.Query("teacherId")),
	}
	filter.Page, filter.PageSize = pageParams(c)
	offerings, pagination, err := h.service.ListOfferings(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offerings, pagination)
}

// OfferingAssignments godoc
// @Summary List session assignments of an offering
// @Tags Catalog
// @Produce json
// @Param id path string true "Offering ID"
// @Success 200 {object} response.Envelope
// @Router /offerings/{id}/assignments [get]
func (h *CatalogHandler) OfferingAssignments(c *gin.Context) {
	assignments, err := h.service.OfferingAssignments(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// SetAssignmentLock godoc
// @Summary Lock or unlock an assignment against reassignment
// @Tags Catalog
// @Accept json
// @Produce json
// @Param id path string true "Offering ID"
// @Param kind path string true "Session kind"
// @Param payload body dto.LockRequest true "Lock payload"
// @Success 204
// @Router /offerings/{id}/assignments/{kind}/lock [put]
func (h *CatalogHandler) SetAssignmentLock(c *gin.Context) {
	var req dto.LockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid lock payload"))
		return
	}
	kind := models.SessionKind(strings.ToUpper(c.Param("kind")))
	if err := h.service.SetAssignmentLock(c.Request.Context(), c.Param("id"), kind, req.Locked); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// TeacherAvailability godoc
// @Summary List availability rows of a teacher
// @Tags Catalog
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/availability [get]
func (h *CatalogHandler) TeacherAvailability(c *gin.Context) {
	rows, err := h.service.TeacherAvailability(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// pageParams binds the common pagination query. Out-of-range values are
// normalised by the service layer.
func pageParams(c *gin.Context) (int, int) {
	var query dto.ListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		return 1, 20
	}
	return query.Page, query.PageSize
}
