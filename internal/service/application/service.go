package application

import (
	"context"
	"fmt"
	"time"

	"github.com/ignite/jobtracker/internal/domain"
	"github.com/ignite/jobtracker/internal/pkg/logger"
)

// Service implements the job application CRUD translation. It holds no
// mutable state of its own; the store is the only shared resource.
type Service struct {
	store Store
	now   func() time.Time
}

// NewService creates a service backed by the given store. A nil store is
// allowed and makes every operation fail with ErrNotConfigured.
func NewService(store Store) *Service {
	return &Service{store: store, now: time.Now}
}

// Configured reports whether a store is attached.
func (s *Service) Configured() bool {
	return s != nil && s.store != nil
}

// StoreName returns the backend label, or "" when not configured.
func (s *Service) StoreName() string {
	if !s.Configured() {
		return ""
	}
	return s.store.Name()
}

// List returns public-form applications matching the filter. Zero matches
// is an empty slice, never an error.
func (s *Service) List(ctx context.Context, f ListFilter) ([]domain.JobApplication, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	limit := f.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	docs, err := s.store.Find(ctx, domain.Filter{Status: f.Status, Query: f.Query}, limit)
	if err != nil {
		return nil, unavailable(err)
	}

	out := make([]domain.JobApplication, 0, len(docs))
	for _, doc := range docs {
		out = append(out, domain.ToPublic(doc))
	}
	return out, nil
}

// Get returns a single application.
func (s *Service) Get(ctx context.Context, id string) (*domain.JobApplication, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}
	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, rejected(err)
	}
	app := domain.ToPublic(doc)
	return &app, nil
}

// Create applies server-side defaults, inserts the document and returns it
// as stored, including the new identifier.
func (s *Service) Create(ctx context.Context, in domain.NewApplication) (*domain.JobApplication, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	doc := withDefaults(in.Document())
	id, err := s.store.Insert(ctx, doc)
	if err != nil {
		return nil, rejected(err)
	}

	saved, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, rejected(err)
	}

	fields := []interface{}{"id", id, "company", in.Company, "store", s.store.Name()}
	if in.ContactEmail != nil {
		fields = append(fields, "contact_email", *in.ContactEmail)
	}
	logger.Info("application created", fields...)
	app := domain.ToPublic(saved)
	return &app, nil
}

// Update applies only the fields present in the patch and always refreshes
// updated_at. An empty patch is rejected before the store is consulted.
func (s *Service) Update(ctx context.Context, id string, patch domain.ApplicationPatch) (*domain.JobApplication, error) {
	if !s.Configured() {
		return nil, ErrNotConfigured
	}

	changes := patch.Changes()
	if changes.Empty() {
		return nil, fmt.Errorf("%w: no fields to update", ErrInvalidInput)
	}
	changes.Set[domain.FieldUpdatedAt] = s.now().UTC()

	if err := s.store.UpdateByID(ctx, id, changes); err != nil {
		return nil, rejected(err)
	}

	doc, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, rejected(err)
	}

	logger.Debug("application updated", "id", id, "fields", len(changes.Set)+len(changes.Unset)-1)
	app := domain.ToPublic(doc)
	return &app, nil
}

// Delete removes one application.
func (s *Service) Delete(ctx context.Context, id string) error {
	if !s.Configured() {
		return ErrNotConfigured
	}

	n, err := s.store.DeleteByID(ctx, id)
	if err != nil {
		return rejected(err)
	}
	if n == 0 {
		return ErrNotFound
	}

	logger.Info("application deleted", "id", id)
	return nil
}

func withDefaults(doc domain.Document) domain.Document {
	if _, ok := doc[domain.FieldStatus]; !ok {
		doc[domain.FieldStatus] = domain.StatusApplied
	}
	if _, ok := doc[domain.FieldPriority]; !ok {
		doc[domain.FieldPriority] = domain.PriorityMedium
	}
	if _, ok := doc[domain.FieldTags]; !ok {
		doc[domain.FieldTags] = []string{}
	}
	return doc.Compact()
}

// Ping checks that the store answers a cheap request.
func (s *Service) Ping(ctx context.Context) error {
	if !s.Configured() {
		return ErrNotConfigured
	}
	if _, err := s.store.CollectionNames(ctx); err != nil {
		return unavailable(err)
	}
	return nil
}
