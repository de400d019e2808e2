package dto

import "github.com/noah-isme/timetable-api/internal/models"

// AssignmentMoveRequest proposes a new slot/room for one teaching session.
type AssignmentMoveRequest struct {
	OfferingID string             `json:"offeringId" validate:"required"`
	Kind       models.SessionKind `json:"kind" validate:"required"`
	SlotID     string             `json:"slotId" validate:"required"`
	RoomID     *string            `json:"roomId,omitempty"`
}

// ApplyRecommendationRequest carries the primary change plus the dependent
// swaps that must move with it. The whole set applies atomically or not at all.
type ApplyRecommendationRequest struct {
	Target AssignmentMoveRequest   `json:"target" validate:"required"`
	Swaps  []AssignmentMoveRequest `json:"swaps" validate:"omitempty,dive"`
}

// Outcome statuses of an apply call. Failures (concurrency, store) surface as
// typed errors instead, so the two statuses below are exhaustive for payloads.
const (
	OutcomeApplied  = "APPLIED"
	OutcomeRejected = "REJECTED"
)

// CandidateViolations groups constraint violations per candidate member.
type CandidateViolations struct {
	OfferingID string             `json:"offeringId"`
	Kind       models.SessionKind `json:"kind"`
	Violations []models.Violation `json:"violations"`
}

// ApplyRecommendationResponse reports the outcome of an apply call.
type ApplyRecommendationResponse struct {
	Status      string                `json:"status"`
	Assignments []models.Assignment   `json:"assignments,omitempty"`
	Violations  []CandidateViolations `json:"violations,omitempty"`
}
