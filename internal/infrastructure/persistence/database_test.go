package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/merchantops/backend/internal/infrastructure/config"
	"github.com/merchantops/backend/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestDatabase_Ping(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	db := &Database{DB: mdb.DB}

	t.Run("successful ping", func(t *testing.T) {
		mdb.Mock.ExpectPing()
		require.NoError(t, db.Ping(context.Background()))
		mdb.ExpectationsWereMet(t)
	})
}

func TestDatabase_Close(t *testing.T) {
	mdb := testutil.NewMockDB(t)
	db := &Database{DB: mdb.DB}

	mdb.Mock.ExpectClose()
	require.NoError(t, db.Close())
	mdb.ExpectationsWereMet(t)
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits on success", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error { return nil })
		require.NoError(t, err)
		mdb.ExpectationsWereMet(t)
	})

	t.Run("rolls back on error", func(t *testing.T) {
		mdb := testutil.NewMockDB(t)
		db := &Database{DB: mdb.DB}

		mdb.Mock.ExpectBegin()
		mdb.Mock.ExpectRollback()

		boom := errors.New("boom")
		err := db.Transaction(func(tx *gorm.DB) error { return boom })
		assert.ErrorIs(t, err, boom)
		mdb.ExpectationsWereMet(t)
	})
}

func TestNewDatabase_SQLite(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Driver:     "sqlite",
		SQLitePath: "file:newdb_test?mode=memory&cache=shared",
	}

	db, err := NewDatabase(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, db.AutoMigrate())
	for _, m := range Models() {
		assert.True(t, db.DB.Migrator().HasTable(m), "table for %T should exist", m)
	}
	assert.NoError(t, db.Ping(context.Background()))
}
