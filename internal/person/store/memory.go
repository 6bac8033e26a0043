package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"sacra360/internal/person/models"
	"sacra360/pkg/platform/sentinel"
)

// InMemory is a person store for tests and local runs. It mirrors the
// Postgres natural-key constraint on baptized persons.
type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.Person
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]models.Person)}
}

func (s *InMemory) Create(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.collides(p, 0) {
		return sentinel.ErrAlreadyUsed
	}
	s.nextID++
	p.ID = s.nextID
	s.rows[p.ID] = *p
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok || !p.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &p, nil
}

func (s *InMemory) FindByIdentity(_ context.Context, key models.Identity) (*models.Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if key.FechaBautismo.IsZero() {
		return nil, sentinel.ErrNotFound
	}
	for _, p := range s.rows {
		if p.Identity().Matches(key) {
			return &p, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, f models.ListFilter) ([]*models.Person, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Nombre))

	s.mu.RLock()
	matched := make([]models.Person, 0, len(s.rows))
	for _, p := range s.rows {
		if !f.Visibility.Includes(p.Activo) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(p.FullName()), needle) {
			continue
		}
		matched = append(matched, p)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Person) int {
		c := comparePeople(a, b, f.Order.Field)
		if c == 0 {
			c = cmp.Compare(a.ID, b.ID)
		}
		if f.Order.Desc {
			return -c
		}
		return c
	})

	start, end := f.Page.Window(len(matched))
	out := make([]*models.Person, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func comparePeople(a, b models.Person, field string) int {
	switch field {
	case "nombres":
		return cmp.Compare(a.Nombres, b.Nombres)
	case "apellido_paterno":
		return cmp.Compare(a.ApellidoPaterno, b.ApellidoPaterno)
	case "fecha_nacimiento":
		return a.FechaNacimiento.Time().Compare(b.FechaNacimiento.Time())
	case "fecha_registro":
		return a.FechaRegistro.Compare(b.FechaRegistro)
	default:
		return cmp.Compare(a.ID, b.ID)
	}
}

func (s *InMemory) Update(_ context.Context, p *models.Person) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[p.ID]
	if !ok || !existing.Activo {
		return sentinel.ErrNotFound
	}
	if s.collides(p, p.ID) {
		return sentinel.ErrAlreadyUsed
	}
	p.FechaRegistro = existing.FechaRegistro
	p.Activo = existing.Activo
	s.rows[p.ID] = *p
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.rows[id]
	if !ok || !p.Activo {
		return sentinel.ErrNotFound
	}
	p.Activo = false
	p.FechaActualizacion = at
	s.rows[id] = p
	return nil
}

// NameOf returns the full name of any stored person, active or not.
func (s *InMemory) NameOf(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.rows[id]
	if !ok {
		return "", false
	}
	return p.FullName(), true
}

// Count returns the number of stored rows regardless of status.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// Snapshot captures the current state for transactional rollback.
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

// collides reports whether p's natural key is taken by a row other than self.
// Must be called with the lock held.
func (s *InMemory) collides(p *models.Person, self int64) bool {
	if p.FechaBautismo.IsZero() {
		return false
	}
	key := p.Identity()
	for id, other := range s.rows {
		if id != self && other.Identity().Matches(key) {
			return true
		}
	}
	return false
}
