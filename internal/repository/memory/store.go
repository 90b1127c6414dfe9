// Package memory is an in-process document store. It backs local
// development (store type "memory") and the service and API tests.
package memory

import (
	"context"
	"sync"

	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/service/application"
)

// Store keeps documents in insertion order behind a mutex.
type Store struct {
	mu         sync.RWMutex
	collection string
	docs       map[string]domain.Document
	order      []string
}

// New creates an empty store for the named collection.
func New(collection string) *Store {
	if collection == "" {
		collection = domain.Collection
	}
	return &Store{
		collection: collection,
		docs:       make(map[string]domain.Document),
	}
}

func (s *Store) Name() string { return "memory" }

func (s *Store) Insert(_ context.Context, doc domain.Document) (string, error) {
	id := application.NewID()
	stored := doc.Clone().Compact()
	delete(stored, domain.IDKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = stored
	s.order = append(s.order, id)
	return id, nil
}

func (s *Store) Find(_ context.Context, f domain.Filter, limit int) ([]domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Document, 0)
	for _, id := range s.order {
		if limit > 0 && len(out) >= limit {
			break
		}
		doc := s.docs[id]
		if !f.Matches(doc) {
			continue
		}
		out = append(out, withID(doc, id))
	}
	return out, nil
}

func (s *Store) FindByID(_ context.Context, id string) (domain.Document, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return nil, application.ErrNotFound
	}
	return withID(doc, id), nil
}

func (s *Store) UpdateByID(_ context.Context, id string, patch domain.Patch) error {
	id, err := application.ValidateID(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.docs[id]
	if !ok {
		return application.ErrNotFound
	}
	updated := patch.Apply(doc)
	delete(updated, domain.IDKey)
	s.docs[id] = updated.Compact()
	return nil
}

func (s *Store) DeleteByID(_ context.Context, id string) (int64, error) {
	id, err := application.ValidateID(id)
	if err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[id]; !ok {
		return 0, nil
	}
	delete(s.docs, id)
	for i, existing := range s.order {
		if existing == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return 1, nil
}

func (s *Store) CollectionNames(_ context.Context) ([]string, error) {
	return []string{s.collection}, nil
}

// Len returns the number of stored documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func withID(doc domain.Document, id string) domain.Document {
	out := doc.Clone()
	out[domain.IDKey] = id
	return out
}
