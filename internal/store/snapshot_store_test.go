package store

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotStoreCreate(t *testing.T) {
	store := NewSnapshotStore(openTestDB(t))

	snap, err := store.Create(context.Background(), "2026-09", 87.5)
	require.NoError(t, err)
	assert.NotZero(t, snap.ID)
	assert.Equal(t, "2026-09", snap.Name)
	assert.InDelta(t, 87.5, snap.Value, 0.0001)
}

func TestSnapshotStoreListSortedByName(t *testing.T) {
	store := NewSnapshotStore(openTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"2026-09", "2026-07", "2026-08"} {
		_, err := store.Create(ctx, name, 90)
		require.NoError(t, err)
	}

	snaps, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "2026-07", snaps[0].Name)
	assert.Equal(t, "2026-08", snaps[1].Name)
	assert.Equal(t, "2026-09", snaps[2].Name)
}

func TestSnapshotStoreList_DBError(t *testing.T) {
	d, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })

	mock.ExpectQuery("SELECT id, name, value").WillReturnError(errors.New("no such table"))

	_, err = NewSnapshotStore(d).List(context.Background())
	assert.ErrorContains(t, err, "failed to list snapshots")
	assert.NoError(t, mock.ExpectationsWereMet())
}
