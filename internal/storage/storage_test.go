package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateAssignsIDAndTimestamps(t *testing.T) {
	store := NewMemory()

	doc, err := store.Create(context.Background(), NewDocument{
		Title:    "Receipt",
		Filter:   "grayscale",
		ImageURI: "file:///scans/receipt.jpg",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, doc.ID)
	assert.Equal(t, "Receipt", doc.Title)
	assert.Equal(t, 1, doc.PageCount, "page count defaults to 1")
	assert.False(t, doc.CreatedAt.IsZero())
	assert.Equal(t, doc.CreatedAt, doc.UpdatedAt)
}

func TestCreateValidatesRequiredFields(t *testing.T) {
	store := NewMemory()

	_, err := store.Create(context.Background(), NewDocument{ImageURI: "file:///x.jpg"})
	assert.Error(t, err, "missing title")

	_, err = store.Create(context.Background(), NewDocument{Title: "x"})
	assert.Error(t, err, "missing imageUri")
}

func TestListOrdersNewestFirst(t *testing.T) {
	store := NewMemory()
	current := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time {
		current = current.Add(time.Minute)
		return current
	}

	ctx := context.Background()
	for _, title := range []string{"first", "second", "third"} {
		_, err := store.Create(ctx, NewDocument{Title: title, ImageURI: "file:///x.jpg"})
		require.NoError(t, err)
	}

	docs, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, docs, 3)
	assert.Equal(t, "third", docs[0].Title)
	assert.Equal(t, "first", docs[2].Title)
}

func TestGetMissingReturnsNotFound(t *testing.T) {
	store := NewMemory()

	_, err := store.Get(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUpdateAppliesPartialFields(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	doc, err := store.Create(ctx, NewDocument{Title: "old", Filter: "none", ImageURI: "file:///x.jpg"})
	require.NoError(t, err)

	title := "new"
	pages := 4
	updated, err := store.Update(ctx, doc.ID, DocumentUpdate{Title: &title, PageCount: &pages})
	require.NoError(t, err)

	assert.Equal(t, "new", updated.Title)
	assert.Equal(t, 4, updated.PageCount)
	assert.Equal(t, "none", updated.Filter, "unset fields are untouched")
	assert.False(t, updated.UpdatedAt.Before(doc.UpdatedAt))

	_, err = store.Update(ctx, "missing", DocumentUpdate{Title: &title})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDelete(t *testing.T) {
	store := NewMemory()
	ctx := context.Background()

	doc, err := store.Create(ctx, NewDocument{Title: "x", ImageURI: "file:///x.jpg"})
	require.NoError(t, err)

	require.NoError(t, store.Delete(ctx, doc.ID))
	assert.ErrorIs(t, store.Delete(ctx, doc.ID), ErrNotFound)

	docs, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestDocumentUpdateEmpty(t *testing.T) {
	assert.True(t, DocumentUpdate{}.Empty())
	title := "t"
	assert.False(t, DocumentUpdate{Title: &title}.Empty())
}
