package server

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/todokeeper/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewApp_OpenError(t *testing.T) {
	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(string, string) (*sql.DB, error) { return nil, errors.New("bad dsn") }

	cfg := &config.Config{}
	cfg.LoadDefaults()
	_, err := NewApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "db init error")
}

func TestNewApp_PingError(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()

	orig := sqlOpen
	t.Cleanup(func() { sqlOpen = orig })
	sqlOpen = func(driver, dsn string) (*sql.DB, error) {
		assert.Equal(t, "pgx", driver)
		return db, nil
	}

	cfg := &config.Config{}
	cfg.LoadDefaults()
	_, err = NewApp(context.Background(), cfg)
	assert.ErrorContains(t, err, "db ping error")
	assert.NoError(t, mock.ExpectationsWereMet())
}
