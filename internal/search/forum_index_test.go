package search

import (
	"context"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/models"
)

func newIndex(t *testing.T) *ForumIndex {
	t.Helper()
	idx, err := NewForumIndex()
	require.NoError(t, err)
	t.Cleanup(func() { _ = idx.Close() })
	return idx
}

func TestSearchScopedToNeighborhood(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Rebuild([]models.ForumPost{
		{ID: "p1", NeighborhoodID: "n1", Title: "Lost cat near the park", Content: "Grey tabby"},
		{ID: "p2", NeighborhoodID: "n2", Title: "Found cat", Content: "Black cat on Elm street"},
		{ID: "p3", NeighborhoodID: "n1", Title: "Block party", Content: "Bring snacks"},
	}))

	ids, err := idx.Search(context.Background(), "n1", "cat", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestSearchMatchesTags(t *testing.T) {
	idx := newIndex(t)
	require.NoError(t, idx.Index(models.ForumPost{ID: "p1", NeighborhoodID: "n1", Title: "Weekend plans", Tags: pq.StringArray{"Gardening"}}))

	ids, err := idx.Search(context.Background(), "n1", "gardening", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)
}

func TestIndexReplacesAndRemoves(t *testing.T) {
	idx := newIndex(t)
	ctx := context.Background()
	require.NoError(t, idx.Index(models.ForumPost{ID: "p1", NeighborhoodID: "n1", Title: "Plumber wanted"}))
	require.NoError(t, idx.Index(models.ForumPost{ID: "p1", NeighborhoodID: "n1", Title: "Electrician wanted"}))

	ids, err := idx.Search(ctx, "n1", "plumber", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)

	ids, err = idx.Search(ctx, "n1", "electrician", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, ids)

	require.NoError(t, idx.Remove("p1"))
	ids, err = idx.Search(ctx, "n1", "electrician", 10)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSearchBlankText(t *testing.T) {
	idx := newIndex(t)

	ids, err := idx.Search(context.Background(), "n1", "   ", 10)
	require.NoError(t, err)
	assert.Nil(t, ids)
}
