package search

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryIndexSearchMatchesAnyProjectionField(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Create(ctx, Document{ID: "1", Title: "Acme Coffee", Description: "punch-cards", URL: "https://acme.is"}))
	require.NoError(t, idx.Create(ctx, Document{ID: "2", Title: "Beta Bakery", Description: "bread", URL: "https://beta.is"}))

	docs, err := idx.Search(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "1", docs[0].ID)

	docs, err = idx.Search(ctx, "bread")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "2", docs[0].ID)

	docs, err = idx.Search(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestMemoryIndexUpdateIsPartial(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Create(ctx, Document{ID: "1", Title: "Acme", Description: "coffee"}))

	require.NoError(t, idx.Update(ctx, Document{ID: "1", Description: "espresso"}))

	docs, err := idx.Search(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "Acme", docs[0].Title)
	assert.Equal(t, "espresso", docs[0].Description)
}

func TestMemoryIndexUpdateMaterializesMissedCreate(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()

	// The create never reached the index; a later update writes the doc in
	// full rather than failing.
	require.NoError(t, idx.Update(ctx, Document{ID: "1", Title: "Acme", Description: "coffee"}))

	docs, err := idx.Search(ctx, "acme")
	require.NoError(t, err)
	require.Len(t, docs, 1)
}

func TestMemoryIndexDelete(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex()
	require.NoError(t, idx.Create(ctx, Document{ID: "1", Title: "Acme"}))
	require.NoError(t, idx.Delete(ctx, "1"))

	docs, err := idx.Search(ctx, "acme")
	require.NoError(t, err)
	assert.Empty(t, docs)

	assert.NoError(t, idx.Delete(ctx, "1"), "deleting an absent doc is not an error")
}
