package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWaitReadyRetriesUntilServerAnswers(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("connection refused"))
	mock.ExpectPing()

	require.NoError(t, waitReady(context.Background(), db, 3, time.Millisecond))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWaitReadyGivesUp(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(errors.New("refused"))
	mock.ExpectPing().WillReturnError(errors.New("refused"))

	assert.ErrorContains(t, waitReady(context.Background(), db, 2, time.Millisecond), "after 2 attempts")
}

func TestWaitReadyStopsOnAuthFailure(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPing().WillReturnError(&pq.Error{Code: "28P01", Message: "password authentication failed"})

	err = waitReady(context.Background(), db, 5, time.Millisecond)
	assert.ErrorContains(t, err, "password authentication failed")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestOpenValidatesDSN(t *testing.T) {
	_, err := Open(context.Background(), Config{})
	assert.ErrorContains(t, err, "dsn is required")

	_, err = Open(context.Background(), Config{DSN: "postgres://%zz"})
	assert.ErrorContains(t, err, "parse dsn")
}
