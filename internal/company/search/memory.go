package search

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// MemoryIndex backs unit tests and exercises the same drift semantics as the
// redis index: it only ever reflects the writes that reached it.
type MemoryIndex struct {
	mu   sync.RWMutex
	docs map[string]Document
}

func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{docs: make(map[string]Document)}
}

func (m *MemoryIndex) EnsureIndex(_ context.Context) error { return nil }

func (m *MemoryIndex) Create(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.docs[doc.ID] = doc
	return nil
}

func (m *MemoryIndex) Update(_ context.Context, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.docs[doc.ID]
	if !ok {
		// Index may have missed the create; the update materializes the doc.
		m.docs[doc.ID] = doc
		return nil
	}
	m.docs[doc.ID] = merge(existing, doc)
	return nil
}

func (m *MemoryIndex) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.docs, id)
	return nil
}

func (m *MemoryIndex) Search(_ context.Context, query string) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q := strings.ToLower(query)
	var out []Document
	for _, doc := range m.docs {
		if matches(doc, q) {
			out = append(out, doc)
		}
	}
	sortByTitle(out)
	return out, nil
}

func (m *MemoryIndex) List(_ context.Context, page, size int) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := make([]Document, 0, len(m.docs))
	for _, doc := range m.docs {
		all = append(all, doc)
	}
	sortByTitle(all)
	return paginate(all, page, size), nil
}

func merge(existing, update Document) Document {
	if update.Title != "" {
		existing.Title = update.Title
	}
	if update.URL != "" {
		existing.URL = update.URL
	}
	if update.Description != "" {
		existing.Description = update.Description
	}
	return existing
}

func matches(doc Document, q string) bool {
	return strings.Contains(strings.ToLower(doc.Title), q) ||
		strings.Contains(strings.ToLower(doc.Description), q) ||
		strings.Contains(strings.ToLower(doc.URL), q)
}

func sortByTitle(docs []Document) {
	sort.Slice(docs, func(i, j int) bool { return docs[i].Title < docs[j].Title })
}

func paginate(docs []Document, page, size int) []Document {
	if size <= 0 {
		size = 20
	}
	if page < 0 {
		page = 0
	}
	start := page * size
	if start >= len(docs) {
		return nil
	}
	end := start + size
	if end > len(docs) {
		end = len(docs)
	}
	return docs[start:end]
}
