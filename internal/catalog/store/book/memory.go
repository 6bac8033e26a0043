package book

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"sacra360/internal/catalog/models"
	"sacra360/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.Book
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]models.Book)}
}

func (s *InMemory) Create(_ context.Context, b *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	b.ID = s.nextID
	s.rows[b.ID] = *b
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.rows[id]
	if !ok || !b.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &b, nil
}

func (s *InMemory) List(_ context.Context, f models.BookFilter) ([]*models.Book, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Nombre))

	s.mu.RLock()
	matched := make([]models.Book, 0, len(s.rows))
	for _, b := range s.rows {
		if !f.Visibility.Includes(b.Activo) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(b.Nombre), needle) {
			continue
		}
		if !b.Overlaps(f.Desde, f.Hasta) {
			continue
		}
		matched = append(matched, b)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Book) int {
		var c int
		switch f.Order.Field {
		case "nombre":
			c = cmp.Compare(a.Nombre, b.Nombre)
		case "fecha_inicio":
			c = a.FechaInicio.Time().Compare(b.FechaInicio.Time())
		case "fecha_fin":
			c = a.FechaFin.Time().Compare(b.FechaFin.Time())
		}
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if f.Order.Desc {
			return -c
		}
		return c
	})

	start, end := f.Page.Window(len(matched))
	out := make([]*models.Book, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, b *models.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[b.ID]
	if !ok || !existing.Activo {
		return sentinel.ErrNotFound
	}
	b.Activo = true
	b.FechaRegistro = existing.FechaRegistro
	s.rows[b.ID] = *b
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.rows[id]
	if !ok || !b.Activo {
		return sentinel.ErrNotFound
	}
	b.Activo = false
	b.FechaActualizacion = at
	s.rows[id] = b
	return nil
}

// Exists reports whether a book row exists, active or not. It backs foreign
// key emulation in the in-memory sacrament store.
func (s *InMemory) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[id]
	return ok
}

// NameOf returns the book name of any stored row.
func (s *InMemory) NameOf(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.rows[id]
	return b.Nombre, ok
}

func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	rows := maps.Clone(s.rows)
	nextID := s.nextID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows = rows
		s.nextID = nextID
	}
}
