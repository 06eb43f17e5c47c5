package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/plyght/ora-plyght/internal/database/repository"
)

func TestMigrateAndSeedAreIdempotent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "nested", "tabs.db")

	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, RunMigrations(path))
	require.NoError(t, RunMigrations(path))

	require.NoError(t, SeedDefaults(ctx, db, "Work"))
	require.NoError(t, SeedDefaults(ctx, db, "Other"))

	list, err := repository.NewContainerRepo(db).List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, DefaultContainerID("work"), list[0].ID)
	require.Equal(t, "Work", list[0].Name)
}

func TestWithTxRollsBack(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "tabs.db")
	require.NoError(t, RunMigrations(path))
	db, err := Open(path)
	require.NoError(t, err)
	defer db.Close()

	boom := errors.New("boom")
	err = WithTx(ctx, db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `INSERT INTO containers(id, name) VALUES ('c1', 'x')`); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var n int
	require.NoError(t, db.QueryRowContext(ctx, `SELECT COUNT(*) FROM containers`).Scan(&n))
	require.Zero(t, n)
}

func TestSeedDefaultsReturnsListError(t *testing.T) {
	t.Parallel()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("FROM containers").WillReturnError(sql.ErrConnDone)

	err = SeedDefaults(context.Background(), db, "Work")
	require.ErrorIs(t, err, sql.ErrConnDone)
	require.NoError(t, mock.ExpectationsWereMet())
}
