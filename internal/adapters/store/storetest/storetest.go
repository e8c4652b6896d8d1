// Package storetest holds the behaviour every ports.IdentityStore backend
// must share. Backends call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/dropship/internal/domain"
	"github.com/bft-labs/dropship/internal/ports"
)

// Factory returns a fresh, empty store. The suite closes it.
type Factory func(t *testing.T) ports.IdentityStore

// Run exercises the IdentityStore contract against stores built by open.
func Run(t *testing.T, open Factory) {
	t.Run("FindMatchEmpty", func(t *testing.T) { testFindMatchEmpty(t, open(t)) })
	t.Run("MatchByHash", func(t *testing.T) { testMatchByHash(t, open(t)) })
	t.Run("MatchByIdentity", func(t *testing.T) { testMatchByIdentity(t, open(t)) })
	t.Run("EmptyIdentityNeverMatches", func(t *testing.T) { testEmptyIdentity(t, open(t)) })
	t.Run("InsertConflicts", func(t *testing.T) { testInsertConflicts(t, open(t)) })
	t.Run("DeleteByIDs", func(t *testing.T) { testDeleteByIDs(t, open(t)) })
	t.Run("ListOrdered", func(t *testing.T) { testListOrdered(t, open(t)) })
	t.Run("ConcurrentInsertSameHash", func(t *testing.T) { testConcurrentInsert(t, open(t)) })
}

// NewRecord builds a record with a fresh ID.
func NewRecord(name, hash, ident string, sentAt time.Time) *domain.FileRecord {
	return &domain.FileRecord{
		ID:          uuid.NewString(),
		Name:        name,
		Path:        "/srv/inbox/" + name,
		ContentHash: hash,
		IdentityKey: ident,
		Size:        int64(len(name)),
		SentAt:      sentAt,
	}
}

var t0 = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testFindMatchEmpty(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	rec, err := s.FindMatch(context.Background(), "h1", "1:1")
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func testMatchByHash(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	want := NewRecord("file1.txt", "h1", "1:10", t0)
	require.NoError(t, s.Insert(ctx, want))

	got, err := s.FindMatch(ctx, "h1", "9:99")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, "file1.txt", got.Name)
	assert.Equal(t, "1:10", got.IdentityKey)
	assert.True(t, want.SentAt.Equal(got.SentAt))
}

func testMatchByIdentity(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	want := NewRecord("old.txt", "h1", "1:10", t0)
	require.NoError(t, s.Insert(ctx, want))

	got, err := s.FindMatch(ctx, "h-changed", "1:10")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)

	none, err := s.FindMatch(ctx, "h-other", "2:20")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func testEmptyIdentity(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, NewRecord("a", "h1", "", t0)))
	// Two records without identity must coexist.
	require.NoError(t, s.Insert(ctx, NewRecord("b", "h2", "", t0)))

	got, err := s.FindMatch(ctx, "h3", "")
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func testInsertConflicts(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	require.NoError(t, s.Insert(ctx, NewRecord("file1.txt", "h1", "1:10", t0)))

	err := s.Insert(ctx, NewRecord("file2.txt", "h1", "1:11", t0))
	assert.True(t, errors.Is(err, domain.ErrRecordConflict), "hash conflict: %v", err)

	err = s.Insert(ctx, NewRecord("renamed.txt", "h2", "1:10", t0))
	assert.True(t, errors.Is(err, domain.ErrRecordConflict), "identity conflict: %v", err)

	n, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A rejected insert leaves no partial index entries behind.
	got, err := s.FindMatch(ctx, "h2", "1:11")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func testDeleteByIDs(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	a := NewRecord("a", "ha", "1:1", t0)
	b := NewRecord("b", "hb", "1:2", t0.Add(time.Second))
	c := NewRecord("c", "hc", "1:3", t0.Add(2*time.Second))
	for _, r := range []*domain.FileRecord{a, b, c} {
		require.NoError(t, s.Insert(ctx, r))
	}

	n, err := s.DeleteByIDs(ctx, []string{a.ID, c.ID, "unknown"})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	// Deleted hashes and identities are free again.
	got, err := s.FindMatch(ctx, "ha", "1:3")
	require.NoError(t, err)
	assert.Nil(t, got)
	require.NoError(t, s.Insert(ctx, NewRecord("a2", "ha", "1:1", t0)))

	n, err = s.DeleteByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func testListOrdered(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()
	late := NewRecord("late", "h2", "1:2", t0.Add(time.Minute))
	early := NewRecord("early", "h1", "1:1", t0)
	require.NoError(t, s.Insert(ctx, late))
	require.NoError(t, s.Insert(ctx, early))

	recs, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "early", recs[0].Name)
	assert.Equal(t, "late", recs[1].Name)
}

func testConcurrentInsert(t *testing.T, s ports.IdentityStore) {
	defer s.Close()
	ctx := context.Background()

	const workers = 8
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Insert(ctx, NewRecord("same.txt", "shared-hash", "", t0))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, domain.ErrRecordConflict):
				conflicts++
			default:
				t.Errorf("unexpected insert error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)
}
