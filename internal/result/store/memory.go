package store

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/result/models"
	"sacra360/pkg/platform/sentinel"
)

// DocumentLookup reports whether a documentos row exists.
type DocumentLookup interface {
	Exists(id int64) bool
}

type InMemory struct {
	mu        sync.RWMutex
	documents DocumentLookup
	nextID    int64
	rows      map[int64]models.StoredResult
}

// NewInMemory checks documento_id against documents when it is non-nil.
func NewInMemory(documents DocumentLookup) *InMemory {
	return &InMemory{documents: documents, rows: make(map[int64]models.StoredResult)}
}

func (s *InMemory) Create(_ context.Context, r *models.StoredResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.DocumentoID != nil && s.documents != nil && !s.documents.Exists(*r.DocumentoID) {
		return &postgres.ConstraintError{
			Kind:       postgres.KindForeignKey,
			Constraint: "resultados_documento_id_fkey",
			Detail:     fmt.Sprintf("Key (documento_id)=(%d) is not present in table \"documentos\".", *r.DocumentoID),
			Err:        sentinel.ErrInvalidReference,
		}
	}
	s.nextID++
	r.ID = s.nextID
	stored := *r
	stored.Payload = maps.Clone(r.Payload)
	s.rows[r.ID] = stored
	return nil
}

// Count reports how many results were stored locally.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
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
