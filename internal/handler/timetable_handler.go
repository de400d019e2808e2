package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type timetableService interface {
	Grid(ctx context.Context, scope, scopeID string) (*dto.TimetableResponse, error)
	ExportSection(ctx context.Context, sectionID, format string) ([]byte, string, string, error)
}

// TimetableHandler serves weekly grid reads and exports.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(service timetableService) *TimetableHandler {
	return &TimetableHandler{service: service}
}

// Section godoc
// @Summary Weekly timetable of a section
// @Tags Timetable
// @Produce json
// @Param id path string true "Section ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/sections/{id} [get]
func (h *TimetableHandler) Section(c *gin.Context) {
	h.grid(c, "section")
}

// Teacher godoc
// @Summary Weekly timetable of a teacher
// @Tags Timetable
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/teachers/{id} [get]
func (h *TimetableHandler) Teacher(c *gin.Context) {
	h.grid(c, "teacher")
}

// Room godoc
// @Summary Weekly timetable of a room
// @Tags Timetable
// @Produce json
// @Param id path string true "Room ID"
// @Success 200 {object} response.Envelope
// @Router /timetable/rooms/{id} [get]
func (h *TimetableHandler) Room(c *gin.Context) {
	h.grid(c, "room")
}

func (h *TimetableHandler) grid(c *gin.Context, scope string) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "timetable service not configured"))
		return
	}
	grid, err := h.service.Grid(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, grid, nil)
}

// ExportSection godoc
// @Summary Export a section timetable as CSV or PDF
// @Tags Timetable
// @Produce text/csv
// @Param id path string true "Section ID"
// @Param format query string false "csv (default) or pdf"
// @Success 200 {file} byte
// @Router /timetable/sections/{id}/export [get]
func (h *TimetableHandler) ExportSection(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "timetable service not configured"))
		return
	}
	var query dto.ExportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export query"))
		return
	}
	payload, contentType, filename, err := h.service.ExportSection(c.Request.Context(), c.Param("id"), query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, contentType, filename, payload)
}
