package database

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ruralpay/ledger/internal/models"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSnapshot() *models.Snapshot {
	snap := models.NewSnapshot()
	snap.Accounts["alice"] = models.Account{
		Username:  "alice",
		AccountID: "a1b2c3d4",
		Email:     "alice@example.com",
		Balance:   100,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		Status:    models.AccountStatusActive,
	}
	return snap
}

func TestPostgresSnapshotStore_Load(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	store := NewPostgresSnapshotStore(db, 0)

	t.Run("empty table yields empty snapshot", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(selectLatestSnapshot)).
			WillReturnRows(sqlmock.NewRows([]string{"data"}))

		snap, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Empty(t, snap.Accounts)
		assert.NotNil(t, snap.Loans)
	})

	t.Run("latest row is decoded", func(t *testing.T) {
		data, _ := json.Marshal(sampleSnapshot())
		mock.ExpectQuery(regexp.QuoteMeta(selectLatestSnapshot)).
			WillReturnRows(sqlmock.NewRows([]string{"data"}).AddRow(data))

		snap, err := store.Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(100), snap.Accounts["alice"].Balance)
		assert.NotNil(t, snap.FailedAttempts)
	})

	t.Run("query error", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(selectLatestSnapshot)).
			WillReturnError(errors.New("connection reset"))

		_, err := store.Load(context.Background())
		assert.Error(t, err)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	t.Run("insert and prune", func(t *testing.T) {
		store := NewPostgresSnapshotStore(db, 10)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(insertSnapshot)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(25))
		mock.ExpectExec(regexp.QuoteMeta(pruneSnapshots)).
			WithArgs(int64(15)).
			WillReturnResult(sqlmock.NewResult(0, 15))
		mock.ExpectCommit()

		assert.NoError(t, store.Save(context.Background(), sampleSnapshot()))
	})

	t.Run("no pruning below retention", func(t *testing.T) {
		store := NewPostgresSnapshotStore(db, 10)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(insertSnapshot)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(3))
		mock.ExpectCommit()

		assert.NoError(t, store.Save(context.Background(), sampleSnapshot()))
	})

	t.Run("insert failure rolls back", func(t *testing.T) {
		store := NewPostgresSnapshotStore(db, 0)

		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(insertSnapshot)).
			WithArgs(sqlmock.AnyArg()).
			WillReturnError(errors.New("disk full"))
		mock.ExpectRollback()

		err := store.Save(context.Background(), sampleSnapshot())
		assert.ErrorContains(t, err, "insert snapshot")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSnapshotStore_Migrate(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS ledger_snapshots").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, NewPostgresSnapshotStore(db, 0).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetConfigDefaults(t *testing.T) {
	cfg := GetConfig(viper.New())

	assert.Equal(t, "localhost", cfg.Host)
	assert.Equal(t, "5432", cfg.Port)
	assert.Equal(t, "ruralpay_ledger", cfg.Name)
	assert.Equal(t, 25, cfg.MaxOpenConns)
	assert.Equal(t, 100, cfg.RetainSnapshots)
}
