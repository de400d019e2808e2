package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type assignmentApplyStore interface {
	GetByKey(ctx context.Context, offeringID string, kind models.SessionKind) (*models.Assignment, error)
	ApplyMoves(ctx context.Context, exec sqlx.ExtContext, moves []models.AssignmentMove) error
}

type constraintChecker interface {
	Violations(ctx context.Context, cand Candidate, peers []Candidate) ([]models.Violation, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type timetableInvalidator interface {
	Invalidate(ctx context.Context, pattern string) error
}

// RecommendationConfig governs apply behaviour.
type RecommendationConfig struct {
	MaxSwaps int
}

// RecommendationService validates a recommendation (primary move plus
// dependent swaps) and commits the whole candidate set atomically.
type RecommendationService struct {
	assignments assignmentApplyStore
	checker     constraintChecker
	tx          txProvider
	cache       timetableInvalidator
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	maxSwaps    int
}

// NewRecommendationService wires the apply engine.
func NewRecommendationService(
	assignments assignmentApplyStore,
	checker constraintChecker,
	tx txProvider,
	cache timetableInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RecommendationConfig,
) *RecommendationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSwaps <= 0 {
		cfg.MaxSwaps = 8
	}
	return &RecommendationService{
		assignments: assignments,
		checker:     checker,
		tx:          tx,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		maxSwaps:    cfg.MaxSwaps,
	}
}

// Apply validates the candidate set against the current schedule and commits
// every move in one transaction. The store either reflects the full
// recommendation afterwards or is untouched.
func (s *RecommendationService) Apply(ctx context.Context, req dto.ApplyRecommendationRequest) (*dto.ApplyRecommendationResponse, error) {
	start := time.Now()

	candidates, err := s.buildCandidates(req)
	if err != nil {
		s.recordOutcome("malformed", start)
		return nil, err
	}

	var rejections []dto.CandidateViolations
	priors := make([]*models.Assignment, len(candidates))
	for i, cand := range candidates {
		prior, err := s.assignments.GetByKey(ctx, cand.OfferingID, cand.Kind)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				s.recordOutcome("not_found", start)
				return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no assignment exists for offering %s kind %s", cand.OfferingID, cand.Kind))
			}
			s.recordOutcome("store_failure", start)
			return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to load assignment")
		}
		priors[i] = prior

		// Every member sees the whole set, so sibling destinations are checked
		// against each other, not just against standing rows.
		violations, err := s.checker.Violations(ctx, cand, candidates)
		if err != nil {
			s.recordOutcome("store_failure", start)
			return nil, err
		}
		if len(violations) > 0 {
			rejections = append(rejections, dto.CandidateViolations{
				OfferingID: cand.OfferingID,
				Kind:       cand.Kind,
				Violations: violations,
			})
		}
	}

	if len(rejections) > 0 {
		s.recordOutcome("rejected", start)
		return &dto.ApplyRecommendationResponse{
			Status:     dto.OutcomeRejected,
			Violations: rejections,
		}, nil
	}

	updated, err := s.commit(ctx, candidates, priors)
	if err != nil {
		if errors.Is(err, repository.ErrAssignmentChanged) {
			s.recordOutcome("concurrency_conflict", start)
			return nil, appErrors.Wrap(err, appErrors.ErrConcurrencyConflict.Code, appErrors.ErrConcurrencyConflict.Status, appErrors.ErrConcurrencyConflict.Message)
		}
		s.recordOutcome("store_failure", start)
		return nil, appErrors.Wrap(err, appErrors.ErrStoreFailure.Code, appErrors.ErrStoreFailure.Status, "failed to apply recommendation")
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, "timetable:*"); err != nil {
			s.logger.Warn("failed to invalidate timetable cache", zap.Error(err))
		}
	}
	s.recordOutcome("applied", start)
	s.logger.Info("recommendation applied",
		zap.String("offering_id", req.Target.OfferingID),
		zap.String("kind", string(req.Target.Kind)),
		zap.Int("swaps", len(req.Swaps)),
	)

	return &dto.ApplyRecommendationResponse{
		Status:      dto.OutcomeApplied,
		Assignments: updated,
	}, nil
}

// buildCandidates enforces structural completeness of the payload.
func (s *RecommendationService) buildCandidates(req dto.ApplyRecommendationRequest) ([]Candidate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrMalformedRequest.Code, appErrors.ErrMalformedRequest.Status, "recommendation payload is incomplete")
	}
	if len(req.Swaps) > s.maxSwaps {
		return nil, appErrors.Clone(appErrors.ErrMalformedRequest, fmt.Sprintf("recommendation carries %d swaps, max %d", len(req.Swaps), s.maxSwaps))
	}

	members := append([]dto.AssignmentMoveRequest{req.Target}, req.Swaps...)
	candidates := make([]Candidate, 0, len(members))
	seen := make(map[models.AssignmentKey]struct{}, len(members))
	for _, member := range members {
		if !models.ValidSessionKind(member.Kind) {
			return nil, appErrors.Clone(appErrors.ErrMalformedRequest, fmt.Sprintf("unsupported session kind: %s", member.Kind))
		}
		key := models.AssignmentKey{OfferingID: member.OfferingID, Kind: member.Kind}
		if _, dup := seen[key]; dup {
			return nil, appErrors.Clone(appErrors.ErrMalformedRequest, fmt.Sprintf("offering %s kind %s appears more than once", member.OfferingID, member.Kind))
		}
		seen[key] = struct{}{}
		candidates = append(candidates, Candidate{
			OfferingID: member.OfferingID,
			Kind:       member.Kind,
			SlotID:     member.SlotID,
			RoomID:     member.RoomID,
		})
	}
	return candidates, nil
}

// commit writes the candidate set inside one transaction. Each update is
// predicated on the slot/room values observed during validation, so any row
// touched by a concurrent writer fails the whole set.
func (s *RecommendationService) commit(ctx context.Context, candidates []Candidate, priors []*models.Assignment) ([]models.Assignment, error) {
	if s.tx == nil {
		return nil, fmt.Errorf("transaction provider missing")
	}

	moves := make([]models.AssignmentMove, len(candidates))
	for i, cand := range candidates {
		moves[i] = models.AssignmentMove{
			OfferingID:  cand.OfferingID,
			Kind:        cand.Kind,
			PriorSlotID: priors[i].SlotID,
			PriorRoomID: priors[i].RoomID,
			NewSlotID:   cand.SlotID,
			NewRoomID:   cand.RoomID,
		}
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin apply transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = s.assignments.ApplyMoves(ctx, tx, moves); err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit apply transaction: %w", err)
	}

	now := time.Now().UTC()
	updated := make([]models.Assignment, len(candidates))
	for i, cand := range candidates {
		row := *priors[i]
		row.SlotID = cand.SlotID
		row.RoomID = cand.RoomID
		row.UpdatedAt = now
		updated[i] = row
	}
	return updated, nil
}

func (s *RecommendationService) recordOutcome(outcome string, start time.Time) {
	if s.metrics != nil {
		s.metrics.RecordApply(outcome, time.Since(start))
	}
}
