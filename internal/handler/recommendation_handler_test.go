package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type recommendationServiceMock struct {
	resp *dto.ApplyRecommendationResponse
	err  error
}

func (m *recommendationServiceMock) Apply(ctx context.Context, req dto.ApplyRecommendationRequest) (*dto.ApplyRecommendationResponse, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

func applyRequest(t *testing.T, handler *RecommendationHandler, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, err := http.NewRequest(http.MethodPost, "/recommendations/apply", bytes.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	handler.Apply(c)
	return w
}

func TestRecommendationHandlerApplied(t *testing.T) {
	handler := NewRecommendationHandler(&recommendationServiceMock{
		resp: &dto.ApplyRecommendationResponse{
			Status: dto.OutcomeApplied,
			Assignments: []models.Assignment{
				{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
			},
		},
	})
	body, _ := json.Marshal(dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})

	w := applyRequest(t, handler, body)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), dto.OutcomeApplied)
}

func TestRecommendationHandlerRejected(t *testing.T) {
	handler := NewRecommendationHandler(&recommendationServiceMock{
		resp: &dto.ApplyRecommendationResponse{
			Status: dto.OutcomeRejected,
			Violations: []dto.CandidateViolations{{
				OfferingID: "off-1",
				Kind:       models.SessionKindLecture,
				Violations: []models.Violation{{Kind: models.ViolationTeacherDoubleBooked}},
			}},
		},
	})
	body, _ := json.Marshal(dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})

	w := applyRequest(t, handler, body)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	require.Contains(t, w.Body.String(), string(models.ViolationTeacherDoubleBooked))
}

func TestRecommendationHandlerConcurrencyConflict(t *testing.T) {
	handler := NewRecommendationHandler(&recommendationServiceMock{
		err: appErrors.ErrConcurrencyConflict,
	})
	body, _ := json.Marshal(dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})

	w := applyRequest(t, handler, body)
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrConcurrencyConflict.Code)
}

func TestRecommendationHandlerMalformedBody(t *testing.T) {
	handler := NewRecommendationHandler(&recommendationServiceMock{})

	w := applyRequest(t, handler, []byte(`not json`))
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), appErrors.ErrMalformedRequest.Code)
}
