package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/timetable-api/internal/dto"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
	"github.com/noah-isme/timetable-api/pkg/response"
)

type recommendationService interface {
	Apply(ctx context.Context, req dto.ApplyRecommendationRequest) (*dto.ApplyRecommendationResponse, error)
}

// RecommendationHandler exposes the apply-recommendation endpoint.
type RecommendationHandler struct {
	service recommendationService
}

// NewRecommendationHandler constructs the handler.
func NewRecommendationHandler(service recommendationService) *RecommendationHandler {
	return &RecommendationHandler{service: service}
}

// Apply godoc
// @Summary Apply a recommendation (target move plus dependent swaps) atomically
// @Tags Recommendations
// @Accept json
// @Produce json
// @Param payload body dto.ApplyRecommendationRequest true "Recommendation payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /recommendations/apply [post]
func (h *RecommendationHandler) Apply(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrInternal, "recommendation service not configured"))
		return
	}
	var req dto.ApplyRecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrMalformedRequest, "invalid recommendation payload"))
		return
	}
	outcome, err := h.service.Apply(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusOK
	if outcome.Status == dto.OutcomeRejected {
		status = appErrors.ErrConstraintViolated.Status
	}
	response.JSON(c, status, outcome, nil)
}
