package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/alumnet/alumnet/cmd/alumnet/models"
)

func TestMemoryCandidateStore_PutGetClear(t *testing.T) {
	store := NewMemoryCandidateStore(15 * time.Minute)
	ctx := context.Background()

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)

	require.NoError(t, store.Put(ctx, "alice", []string{"R1", "R2"}))

	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"R1", "R2"}, got)

	require.NoError(t, store.Clear(ctx, "alice"))

	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryCandidateStore_Expiry(t *testing.T) {
	store := NewMemoryCandidateStore(15 * time.Minute)
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "alice", []string{"R1"}))

	store.now = func() time.Time { return time.Now().Add(16 * time.Minute) }

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestMemoryCandidateStore_PutReplacesAndCopies(t *testing.T) {
	store := NewMemoryCandidateStore(15 * time.Minute)
	ctx := context.Background()

	rolls := []string{"R1"}
	require.NoError(t, store.Put(ctx, "alice", rolls))
	rolls[0] = "mutated"

	got, err := store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"R1"}, got)

	require.NoError(t, store.Put(ctx, "alice", []string{"R9"}))
	got, err = store.Get(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, []string{"R9"}, got)
}

func TestRosterIndex_ReloadSwapsSnapshot(t *testing.T) {
	store := &fakeRosterStore{records: []models.RosterRecord{
		{RollNo: "R1", Name: "Jon Doe", Batch: "2015", Branch: "CS"},
	}}
	idx := NewRosterIndex(store, testLogger())
	ctx := context.Background()

	require.Empty(t, idx.Snapshot())
	require.Zero(t, idx.Size())

	require.NoError(t, idx.Reload(ctx))
	require.Equal(t, 1, idx.Size())
	old := idx.Snapshot()

	store.records = append(store.records, models.RosterRecord{
		RollNo: "R2", Name: "Jane Smith", Batch: "2015", Branch: "CS",
	})
	require.NoError(t, idx.Reload(ctx))
	require.Equal(t, 2, idx.Size())

	// A slice handed out earlier stays intact for readers mid-rank.
	require.Len(t, old, 1)
}
