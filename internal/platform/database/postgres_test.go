package database

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type flakyDB struct {
	failures int
	calls    int
}

func (f *flakyDB) PingContext(ctx context.Context) error {
	f.calls++
	if f.calls <= f.failures {
		return errors.New("connection refused")
	}
	return nil
}

func TestWaitForPing(t *testing.T) {
	ctx := context.Background()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		db := &flakyDB{failures: 2}

		err := waitForPing(ctx, db, 5, time.Millisecond, zap.NewNop())

		require.NoError(t, err)
		assert.Equal(t, 3, db.calls)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		db := &flakyDB{failures: 10}

		err := waitForPing(ctx, db, 3, time.Millisecond, zap.NewNop())

		assert.ErrorContains(t, err, "after 3 attempts")
		assert.Equal(t, 3, db.calls)
	})

	t.Run("stops when the context is cancelled", func(t *testing.T) {
		db := &flakyDB{failures: 10}
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		err := waitForPing(cctx, db, 5, time.Hour, zap.NewNop())

		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestMigrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	schema := `CREATE TABLE IF NOT EXISTS rooms (id UUID PRIMARY KEY);`

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(schema)).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	require.NoError(t, Migrate(context.Background(), db, schema))
	assert.NoError(t, mock.ExpectationsWereMet())
}
