package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/server/migrations"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) *sql.DB {
	t.Helper()
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestFactories_ReturnRepos(t *testing.T) {
	db := newDB(t)
	var m RepositoryManager = NewPostgresRepositoryManager()

	assert.NotNil(t, m.Users(db))
	assert.NotNil(t, m.Tasks(db))
}

func TestRunMigrations_Success(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(ctx context.Context, got *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if got != db || dir != "." {
			return errors.New("unexpected args")
		}
		return nil
	}

	require.NoError(t, NewPostgresRepositoryManager().RunMigrations(context.Background(), db))
}

func TestRunMigrations_Error(t *testing.T) {
	db := newDB(t)

	orig := gooseUpContext
	t.Cleanup(func() { gooseUpContext = orig })
	gooseUpContext = func(context.Context, *sql.DB, string, ...goose.OptionsFunc) error {
		return errors.New("boom")
	}

	err := NewPostgresRepositoryManager().RunMigrations(context.Background(), db)
	assert.EqualError(t, err, "boom")
}

func TestEmbeddedMigrations_DeclareUsernameConstraint(t *testing.T) {
	body, err := migrations.Migrations.ReadFile("00001_create_users.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "UNIQUE (username)")

	_, err = migrations.Migrations.ReadFile("00002_create_tasks.sql")
	require.NoError(t, err)
}
