package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ttbonn/reviewagent/internal/store"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestMarkPosted_RoundTrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	posted := store.PostedFinding{
		Owner:       "octo",
		Repo:        "demo",
		PullNumber:  8,
		Fingerprint: "fp-1",
		Rule:        "print-call",
		File:        "main.py",
		PostedAt:    time.Now(),
	}

	seen, err := s.WasPosted(ctx, "octo", "demo", 8, "fp-1")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, s.MarkPosted(ctx, posted))

	seen, err = s.WasPosted(ctx, "octo", "demo", 8, "fp-1")
	require.NoError(t, err)
	assert.True(t, seen)

	// The same fingerprint on a different PR is unseen.
	seen, err = s.WasPosted(ctx, "octo", "demo", 9, "fp-1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkPosted_DuplicateIsNotAnError(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	posted := store.PostedFinding{
		Owner: "octo", Repo: "demo", PullNumber: 8,
		Fingerprint: "fp-1", Rule: "clean", File: "main.go",
		PostedAt: time.Now(),
	}

	require.NoError(t, s.MarkPosted(ctx, posted))
	require.NoError(t, s.MarkPosted(ctx, posted))
}

func TestListPosted(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for _, fp := range []string{"fp-1", "fp-2"} {
		require.NoError(t, s.MarkPosted(ctx, store.PostedFinding{
			Owner: "octo", Repo: "demo", PullNumber: 8,
			Fingerprint: fp, Rule: "r", File: "f",
			PostedAt: time.Now(),
		}))
	}

	fingerprints, err := s.ListPosted(ctx, "octo", "demo", 8)
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"fp-1": true, "fp-2": true}, fingerprints)

	empty, err := s.ListPosted(ctx, "octo", "demo", 9)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestMarkDelivery_Deduplicates(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	fresh, err := s.MarkDelivery(ctx, "delivery-123")
	require.NoError(t, err)
	assert.True(t, fresh)

	// A redelivered hook must not be processed twice.
	fresh, err = s.MarkDelivery(ctx, "delivery-123")
	require.NoError(t, err)
	assert.False(t, fresh)

	fresh, err = s.MarkDelivery(ctx, "delivery-456")
	require.NoError(t, err)
	assert.True(t, fresh)
}
