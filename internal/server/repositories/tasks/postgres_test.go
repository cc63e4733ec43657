package tasks

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/common"
	"github.com/dmitrijs2005/todokeeper/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const taskID = "0b5d7c3e-8d9f-4a1b-9c2d-3e4f5a6b7c8d"

var columns = []string{"id", "title", "description", "is_completed", "created_at", "updated_at"}

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewPostgresRepository(db), mock
}

func TestCreate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^INSERT\s+INTO\s+tasks\s*\(title,\s*description,\s*is_completed\).*RETURNING\s+id`).
		WithArgs("buy milk", "2 litres", false).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(taskID, "buy milk", "2 litres", false, now, now))

	got, err := repo.Create(context.Background(), &models.Task{Title: "buy milk", Description: "2 litres"})
	require.NoError(t, err)
	assert.Equal(t, taskID, got.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()

	mock.ExpectQuery(`(?s)^SELECT\s+id,.*FROM\s+tasks\s+ORDER\s+BY\s+created_at$`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(taskID, "a", "", false, now, now).
			AddRow("1b5d7c3e-8d9f-4a1b-9c2d-3e4f5a6b7c8d", "b", "", true, now, now))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[1].IsCompleted)
}

func TestList_Empty(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+tasks`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := repo.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectQuery(`(?s)^SELECT.*FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(taskID).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), taskID)
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestGetByID_InvalidID(t *testing.T) {
	repo, _ := newRepoWithMock(t)
	_, err := repo.GetByID(context.Background(), "not-a-uuid")
	assert.ErrorIs(t, err, common.ErrorNotFound)
}

func TestLockByID_UsesForUpdate(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)WHERE\s+id\s*=\s*\$1\s+FOR\s+UPDATE$`).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(taskID, "a", "", true, now, now))

	got, err := repo.LockByID(context.Background(), taskID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
}

func TestToggle(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	now := time.Now()
	mock.ExpectQuery(`(?s)^UPDATE\s+tasks\s+SET\s+is_completed\s*=\s*NOT\s+is_completed`).
		WithArgs(taskID).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(taskID, "a", "", true, now, now))

	got, err := repo.Toggle(context.Background(), taskID)
	require.NoError(t, err)
	assert.True(t, got.IsCompleted)
}

func TestDelete(t *testing.T) {
	repo, mock := newRepoWithMock(t)
	mock.ExpectExec(`^DELETE\s+FROM\s+tasks\s+WHERE\s+id\s*=\s*\$1$`).
		WithArgs(taskID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.Delete(context.Background(), taskID))

	mock.ExpectExec(`^DELETE`).WithArgs(taskID).WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, repo.Delete(context.Background(), taskID), common.ErrorNotFound)

	mock.ExpectExec(`^DELETE`).WithArgs(taskID).WillReturnError(errors.New("db down"))
	err := repo.Delete(context.Background(), taskID)
	require.Error(t, err)
	assert.Regexp(t, regexp.MustCompile(`db error: .*db down`), err.Error())
}
