package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/timetable-api/internal/models"
)

func newAssignmentRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryGetByKey(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "offering_id", "kind", "slot_id", "room_id", "is_locked", "created_at", "updated_at"}).
		AddRow("a-1", "off-1", "LECTURE", "s-1", "r-1", false, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, offering_id, kind, slot_id, room_id, is_locked, created_at, updated_at FROM assignments")).
		WithArgs("off-1", models.SessionKindLecture).
		WillReturnRows(rows)

	assignment, err := repo.GetByKey(context.Background(), "off-1", models.SessionKindLecture)
	require.NoError(t, err)
	require.Equal(t, "a-1", assignment.ID)
	require.Equal(t, "s-1", assignment.SlotID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListBySlot(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"id", "offering_id", "kind", "slot_id", "room_id", "is_locked", "created_at", "updated_at", "teacher_id"}).
		AddRow("a-1", "off-1", "LECTURE", "s-1", "r-1", false, time.Now(), time.Now(), "t-1").
		AddRow("a-2", "off-2", "TUTORIAL", "s-1", nil, false, time.Now(), time.Now(), nil)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN offerings o ON o.id = a.offering_id")).
		WithArgs("s-1").
		WillReturnRows(rows)

	occupants, err := repo.ListBySlot(context.Background(), "s-1")
	require.NoError(t, err)
	require.Len(t, occupants, 2)
	require.Equal(t, "t-1", *occupants[0].TeacherID)
	require.Nil(t, occupants[1].TeacherID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryApplyMoves(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	roomID := "r-1"
	moves := []models.AssignmentMove{
		{OfferingID: "off-1", Kind: models.SessionKindLecture, PriorSlotID: "s-1", PriorRoomID: &roomID, NewSlotID: "s-3", NewRoomID: &roomID},
		{OfferingID: "off-2", Kind: models.SessionKindLecture, PriorSlotID: "s-3", PriorRoomID: nil, NewSlotID: "s-1", NewRoomID: nil},
	}

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WithArgs("s-3", &roomID, sqlmock.AnyArg(), "off-1", models.SessionKindLecture, "s-1", &roomID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WithArgs("s-1", nil, sqlmock.AnyArg(), "off-2", models.SessionKindLecture, "s-3", nil).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ApplyMoves(context.Background(), nil, moves))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryApplyMovesConflict(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	moves := []models.AssignmentMove{
		{OfferingID: "off-1", Kind: models.SessionKindLecture, PriorSlotID: "s-1", NewSlotID: "s-3"},
	}

	// The guarded update matches nothing when the row moved underneath us.
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.ApplyMoves(context.Background(), nil, moves)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrAssignmentChanged))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryApplyMovesInTx(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ApplyMoves(context.Background(), tx, []models.AssignmentMove{
		{OfferingID: "off-1", Kind: models.SessionKindLecture, PriorSlotID: "s-1", NewSlotID: "s-3"},
	}))
	require.NoError(t, tx.Commit())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySetLock(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET is_locked")).
		WithArgs(true, sqlmock.AnyArg(), "off-1", models.SessionKindLecture).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetLock(context.Background(), "off-1", models.SessionKindLecture, true))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET is_locked")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	err := repo.SetLock(context.Background(), "off-9", models.SessionKindLecture, true)
	require.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListRefsByTeacher(t *testing.T) {
	db, mock, cleanup := newAssignmentRepoMock(t)
	defer cleanup()

	repo := NewAssignmentRepository(db)
	rows := sqlmock.NewRows([]string{"offering_id", "kind", "slot_id", "day_of_week"}).
		AddRow("off-1", "LECTURE", "s-1", 1).
		AddRow("off-2", "PRACTICAL", "s-7", 3)
	mock.ExpectQuery(regexp.QuoteMeta("JOIN slots s ON s.id = a.slot_id")).
		WithArgs("t-1").
		WillReturnRows(rows)

	refs, err := repo.ListRefsByTeacher(context.Background(), "t-1")
	require.NoError(t, err)
	require.Len(t, refs, 2)
	require.Equal(t, 3, refs[1].DayOfWeek)
	require.NoError(t, mock.ExpectationsWereMet())
}
