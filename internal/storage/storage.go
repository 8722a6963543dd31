// Package storage holds document metadata records for the scanning client.
// The transform pipeline never touches this store; it exists for the CRUD
// surface only.
package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound indicates no document exists with the requested ID.
var ErrNotFound = errors.New("document not found")

// Document is a stored metadata record for one scanned document.
type Document struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Filter    string    `json:"filter"`
	PageCount int       `json:"pageCount"`
	ImageURI  string    `json:"imageUri"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewDocument carries the fields a client supplies when creating a record.
type NewDocument struct {
	Title     string `json:"title"`
	Filter    string `json:"filter"`
	PageCount int    `json:"pageCount"`
	ImageURI  string `json:"imageUri"`
}

// Validate checks the required creation fields.
func (d NewDocument) Validate() error {
	if d.Title == "" {
		return fmt.Errorf("title is required")
	}
	if d.ImageURI == "" {
		return fmt.Errorf("imageUri is required")
	}
	if d.PageCount < 0 {
		return fmt.Errorf("pageCount must not be negative")
	}
	return nil
}

// DocumentUpdate carries a partial update; nil fields are left unchanged.
type DocumentUpdate struct {
	Title     *string `json:"title"`
	Filter    *string `json:"filter"`
	PageCount *int    `json:"pageCount"`
}

// Empty reports whether the update would change nothing.
func (u DocumentUpdate) Empty() bool {
	return u.Title == nil && u.Filter == nil && u.PageCount == nil
}

// Storage is the document metadata store contract.
type Storage interface {
	List(ctx context.Context) ([]Document, error)
	Get(ctx context.Context, id string) (Document, error)
	Create(ctx context.Context, doc NewDocument) (Document, error)
	Update(ctx context.Context, id string, update DocumentUpdate) (Document, error)
	Delete(ctx context.Context, id string) error
}

// Memory is an in-process Storage backed by a map. Safe for concurrent use.
type Memory struct {
	mu   sync.RWMutex
	docs map[string]Document
	now  func() time.Time
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string]Document),
		now:  time.Now,
	}
}

// List returns all documents ordered by creation time, newest first.
func (m *Memory) List(_ context.Context) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		if !docs[i].CreatedAt.Equal(docs[j].CreatedAt) {
			return docs[i].CreatedAt.After(docs[j].CreatedAt)
		}
		return docs[i].ID < docs[j].ID
	})
	return docs, nil
}

// Get returns the document with the given ID or ErrNotFound.
func (m *Memory) Get(_ context.Context, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	doc, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// Create stores a new document record and returns it with ID and timestamps
// assigned.
func (m *Memory) Create(_ context.Context, newDoc NewDocument) (Document, error) {
	if err := newDoc.Validate(); err != nil {
		return Document{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	pageCount := newDoc.PageCount
	if pageCount == 0 {
		pageCount = 1
	}
	doc := Document{
		ID:        uuid.NewString(),
		Title:     newDoc.Title,
		Filter:    newDoc.Filter,
		PageCount: pageCount,
		ImageURI:  newDoc.ImageURI,
		CreatedAt: now,
		UpdatedAt: now,
	}
	m.docs[doc.ID] = doc
	return doc, nil
}

// Update applies a partial update and bumps UpdatedAt. Returns ErrNotFound
// for unknown IDs.
func (m *Memory) Update(_ context.Context, id string, update DocumentUpdate) (Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[id]
	if !ok {
		return Document{}, ErrNotFound
	}

	if update.Title != nil {
		doc.Title = *update.Title
	}
	if update.Filter != nil {
		doc.Filter = *update.Filter
	}
	if update.PageCount != nil {
		doc.PageCount = *update.PageCount
	}
	doc.UpdatedAt = m.now()

	m.docs[id] = doc
	return doc, nil
}

// Delete removes the document with the given ID or returns ErrNotFound.
func (m *Memory) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.docs[id]; !ok {
		return ErrNotFound
	}
	delete(m.docs, id)
	return nil
}
