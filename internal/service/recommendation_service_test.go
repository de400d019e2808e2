package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/dto"
	"github.com/noah-isme/timetable-api/internal/models"
	"github.com/noah-isme/timetable-api/internal/repository"
	appErrors "github.com/noah-isme/timetable-api/pkg/errors"
)

type applyStoreStub struct {
	assignments map[models.AssignmentKey]*models.Assignment
	applied     [][]models.AssignmentMove
	applyErr    error
}

func newApplyStoreStub() *applyStoreStub {
	return &applyStoreStub{assignments: make(map[models.AssignmentKey]*models.Assignment)}
}

func (s *applyStoreStub) GetByKey(ctx context.Context, offeringID string, kind models.SessionKind) (*models.Assignment, error) {
	if a, ok := s.assignments[models.AssignmentKey{OfferingID: offeringID, Kind: kind}]; ok {
		copy := *a
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (s *applyStoreStub) ApplyMoves(ctx context.Context, exec sqlx.ExtContext, moves []models.AssignmentMove) error {
	if s.applyErr != nil {
		return s.applyErr
	}
	s.applied = append(s.applied, moves)
	return nil
}

type checkerStub struct {
	violations map[models.AssignmentKey][]models.Violation
	peerSets   [][]Candidate
	err        error
}

func (s *checkerStub) Violations(ctx context.Context, cand Candidate, peers []Candidate) ([]models.Violation, error) {
	s.peerSets = append(s.peerSets, peers)
	if s.err != nil {
		return nil, s.err
	}
	return s.violations[cand.Key()], nil
}

type invalidatorStub struct {
	patterns []string
}

func (s *invalidatorStub) Invalidate(ctx context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func newApplyTxMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

type applyFixture struct {
	store       *applyStoreStub
	checker     *checkerStub
	invalidator *invalidatorStub
	mock        sqlmock.Sqlmock
	svc         *RecommendationService
	cleanup     func()
}

func newApplyFixture(t *testing.T) *applyFixture {
	db, mock, cleanup := newApplyTxMock(t)
	store := newApplyStoreStub()
	checker := &checkerStub{violations: make(map[models.AssignmentKey][]models.Violation)}
	invalidator := &invalidatorStub{}

	store.assignments[models.AssignmentKey{OfferingID: "off-1", Kind: models.SessionKindLecture}] = &models.Assignment{
		ID: "a-1", OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-1", RoomID: strPtr("r-1"),
	}
	store.assignments[models.AssignmentKey{OfferingID: "off-2", Kind: models.SessionKindLecture}] = &models.Assignment{
		ID: "a-2", OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-2", RoomID: strPtr("r-2"),
	}

	svc := NewRecommendationService(store, checker, db, invalidator, nil, nil, nil, RecommendationConfig{MaxSwaps: 4})
	return &applyFixture{store: store, checker: checker, invalidator: invalidator, mock: mock, svc: svc, cleanup: cleanup}
}

func TestRecommendationServiceApply(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	resp, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3", RoomID: strPtr("r-1")},
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeApplied, resp.Status)
	require.Len(t, resp.Assignments, 1)
	require.Equal(t, "s-3", resp.Assignments[0].SlotID)

	require.Len(t, f.store.applied, 1)
	move := f.store.applied[0][0]
	require.Equal(t, "s-1", move.PriorSlotID)
	require.Equal(t, "r-1", *move.PriorRoomID)
	require.Equal(t, "s-3", move.NewSlotID)

	require.Equal(t, []string{"timetable:*"}, f.invalidator.patterns)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecommendationServiceApplySwapSet(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	f.mock.ExpectBegin()
	f.mock.ExpectCommit()

	// off-1 and off-2 exchange slots; each one's check must see the full
	// set so the other counts as vacating its row.
	resp, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-2", RoomID: strPtr("r-2")},
		Swaps: []dto.AssignmentMoveRequest{
			{OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-1", RoomID: strPtr("r-1")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeApplied, resp.Status)
	require.Len(t, resp.Assignments, 2)

	require.Len(t, f.checker.peerSets, 2)
	for _, peers := range f.checker.peerSets {
		keys := make([]models.AssignmentKey, 0, len(peers))
		for _, peer := range peers {
			keys = append(keys, peer.Key())
		}
		require.Contains(t, keys, models.AssignmentKey{OfferingID: "off-1", Kind: models.SessionKindLecture})
		require.Contains(t, keys, models.AssignmentKey{OfferingID: "off-2", Kind: models.SessionKindLecture})
	}

	require.Len(t, f.store.applied, 1)
	require.Len(t, f.store.applied[0], 2)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecommendationServiceRejectsOnViolations(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	f.checker.violations[models.AssignmentKey{OfferingID: "off-1", Kind: models.SessionKindLecture}] = []models.Violation{
		{Kind: models.ViolationTeacherDoubleBooked, OfferingID: "off-1", SessionKind: models.SessionKindLecture, SlotID: "s-3"},
	}

	resp, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRejected, resp.Status)
	require.Len(t, resp.Violations, 1)
	require.Equal(t, models.ViolationTeacherDoubleBooked, resp.Violations[0].Violations[0].Kind)

	// Nothing was written and the cache stayed put.
	require.Empty(t, f.store.applied)
	require.Empty(t, f.invalidator.patterns)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecommendationServiceRejectsSetInternalCollision(t *testing.T) {
	db, mock, cleanup := newApplyTxMock(t)
	defer cleanup()

	// Real checker, so the members' destinations are validated against each
	// other: target and swap both claim s-1/r-1 with different teachers.
	cf := newConstraintFixture()
	cf.teachers.teachers["t-2"] = &models.Teacher{ID: "t-2", Code: "T02", FullName: "Bram Okafor", MaxPerDay: 4, MaxPerWeek: 18, Active: true}
	cf.offerings.offerings["off-2"] = &models.Offering{ID: "off-2", CourseID: "c-2", SectionID: "sec-2", TeacherID: strPtr("t-2"), ExpectedSize: 25}
	cf.availability.rows[availabilityKey("t-2", "s-1")] = &models.Availability{TeacherID: "t-2", SlotID: "s-1", CanTeach: true}
	cf.assignments.byKey[models.AssignmentKey{OfferingID: "off-2", Kind: models.SessionKindLecture}] = &models.Assignment{
		ID: "a-2", OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-2", RoomID: strPtr("r-2"),
	}

	store := newApplyStoreStub()
	store.assignments[models.AssignmentKey{OfferingID: "off-1", Kind: models.SessionKindLecture}] = &models.Assignment{
		ID: "a-1", OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-2", RoomID: strPtr("r-1"),
	}
	store.assignments[models.AssignmentKey{OfferingID: "off-2", Kind: models.SessionKindLecture}] = &models.Assignment{
		ID: "a-2", OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-2", RoomID: strPtr("r-2"),
	}

	svc := NewRecommendationService(store, cf.svc, db, nil, nil, nil, nil, RecommendationConfig{MaxSwaps: 4})

	resp, err := svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-1", RoomID: strPtr("r-1")},
		Swaps: []dto.AssignmentMoveRequest{
			{OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-1", RoomID: strPtr("r-1")},
		},
	})
	require.NoError(t, err)
	require.Equal(t, dto.OutcomeRejected, resp.Status)
	require.Len(t, resp.Violations, 2)
	for _, cv := range resp.Violations {
		require.Equal(t, []models.ViolationKind{models.ViolationRoomDoubleBooked}, kinds(cv.Violations))
	}

	require.Empty(t, store.applied)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationServiceConcurrencyConflictRollsBack(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	f.store.applyErr = fmt.Errorf("apply assignment move off-1/LECTURE: %w", repository.ErrAssignmentChanged)
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrConcurrencyConflict.Code, appErrors.FromError(err).Code)
	require.Empty(t, f.invalidator.patterns)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecommendationServiceStoreFailureRollsBack(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	f.store.applyErr = fmt.Errorf("connection reset")
	f.mock.ExpectBegin()
	f.mock.ExpectRollback()

	_, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrStoreFailure.Code, appErrors.FromError(err).Code)
	require.NoError(t, f.mock.ExpectationsWereMet())
}

func TestRecommendationServiceMalformedPayloads(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	cases := []struct {
		name string
		req  dto.ApplyRecommendationRequest
	}{
		{
			name: "missing slot",
			req: dto.ApplyRecommendationRequest{
				Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture},
			},
		},
		{
			name: "unknown kind",
			req: dto.ApplyRecommendationRequest{
				Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: "SEMINAR", SlotID: "s-3"},
			},
		},
		{
			name: "duplicate member",
			req: dto.ApplyRecommendationRequest{
				Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
				Swaps: []dto.AssignmentMoveRequest{
					{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-4"},
				},
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Apply(context.Background(), tc.req)
			require.Error(t, err)
			require.Equal(t, appErrors.ErrMalformedRequest.Code, appErrors.FromError(err).Code)
		})
	}
	require.Empty(t, f.store.applied)
}

func TestRecommendationServiceSwapLimit(t *testing.T) {
	db, mock, cleanup := newApplyTxMock(t)
	defer cleanup()

	store := newApplyStoreStub()
	checker := &checkerStub{violations: make(map[models.AssignmentKey][]models.Violation)}
	svc := NewRecommendationService(store, checker, db, nil, nil, nil, nil, RecommendationConfig{MaxSwaps: 1})

	_, err := svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-1", Kind: models.SessionKindLecture, SlotID: "s-3"},
		Swaps: []dto.AssignmentMoveRequest{
			{OfferingID: "off-2", Kind: models.SessionKindLecture, SlotID: "s-1"},
			{OfferingID: "off-3", Kind: models.SessionKindLecture, SlotID: "s-2"},
		},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrMalformedRequest.Code, appErrors.FromError(err).Code)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRecommendationServiceUnknownAssignment(t *testing.T) {
	f := newApplyFixture(t)
	defer f.cleanup()

	_, err := f.svc.Apply(context.Background(), dto.ApplyRecommendationRequest{
		Target: dto.AssignmentMoveRequest{OfferingID: "off-missing", Kind: models.SessionKindLecture, SlotID: "s-3"},
	})
	require.Error(t, err)
	require.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
