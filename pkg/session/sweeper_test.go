package session

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/entitykit/entityauth/pkg/storage/postgres"
)

func newTestSweeper(t *testing.T) (*Sweeper, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSweeper(postgres.NewStore(db), nil, "", 0), mock
}

func TestSweeperDefaults(t *testing.T) {
	sweeper, _ := newTestSweeper(t)
	assert.Equal(t, DefaultSweepSchedule, sweeper.schedule)
	assert.Equal(t, DefaultRetention, sweeper.retention)
}

func TestSweepOnce(t *testing.T) {
	sweeper, mock := newTestSweeper(t)
	mock.ExpectExec(`DELETE FROM sessions`).
		WillReturnResult(sqlmock.NewResult(0, 3))

	sweeper.SweepOnce(context.Background())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSweeperRunsRegisteredJobs(t *testing.T) {
	sweeper, _ := newTestSweeper(t)

	var ran []string
	sweeper.AddJob("first", func(ctx context.Context) { ran = append(ran, "first") })
	sweeper.AddJob("second", func(ctx context.Context) { ran = append(ran, "second") })

	sweeper.runJobs(context.Background())
	assert.Equal(t, []string{"first", "second"}, ran)
}

func TestSweeperStartRejectsBadSchedule(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	sweeper := NewSweeper(postgres.NewStore(db), nil, "not a schedule", time.Hour)
	assert.Error(t, sweeper.Start())
}
