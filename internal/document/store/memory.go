package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"sacra360/internal/document/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/sentinel"
)

// BookLookup resolves libros by id.
type BookLookup interface {
	NameOf(id int64) (string, bool)
}

// InMemory mirrors the documentos table, including its libro_id foreign key
// and the unique storage_key.
type InMemory struct {
	mu     sync.RWMutex
	books  BookLookup
	nextID int64
	rows   map[int64]models.Document
}

// NewInMemory checks libro_id against books when it is non-nil.
func NewInMemory(books BookLookup) *InMemory {
	return &InMemory{books: books, rows: make(map[int64]models.Document)}
}

func (s *InMemory) Create(_ context.Context, d *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if d.LibroID != nil && s.books != nil {
		if _, ok := s.books.NameOf(*d.LibroID); !ok {
			return &postgres.ConstraintError{
				Kind:       postgres.KindForeignKey,
				Constraint: "documentos_libro_id_fkey",
				Detail:     fmt.Sprintf("Key (libro_id)=(%d) is not present in table \"libros\".", *d.LibroID),
				Err:        sentinel.ErrInvalidReference,
			}
		}
	}
	for _, other := range s.rows {
		if other.StorageKey == d.StorageKey {
			return &postgres.ConstraintError{
				Kind:       postgres.KindUnique,
				Constraint: "documentos_storage_key_key",
				Detail:     fmt.Sprintf("Key (storage_key)=(%s) already exists.", d.StorageKey),
				Err:        sentinel.ErrAlreadyUsed,
			}
		}
	}
	s.nextID++
	d.ID = s.nextID
	s.rows[d.ID] = *d
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rows[id]
	if !ok || !d.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &d, nil
}

// Snapshot implements tx.Snapshotter.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	rows, nextID := maps.Clone(s.rows), s.nextID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows, s.nextID = rows, nextID
	}
}

// Exists reports whether an active document has the id.
func (s *InMemory) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.rows[id]
	return ok && d.Activo
}
