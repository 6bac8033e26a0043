package institution

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
	rows   map[int64]models.Institution
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]models.Institution)}
}

func (s *InMemory) Create(_ context.Context, i *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	i.ID = s.nextID
	s.rows[i.ID] = *i
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Institution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.rows[id]
	if !ok || !i.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &i, nil
}

func (s *InMemory) List(_ context.Context, f models.InstitutionFilter) ([]*models.Institution, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Nombre))

	s.mu.RLock()
	matched := make([]models.Institution, 0, len(s.rows))
	for _, i := range s.rows {
		if !f.Visibility.Includes(i.Activo) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(i.Nombre), needle) {
			continue
		}
		matched = append(matched, i)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Institution) int {
		c := 0
		if f.Order.Field == "nombre" {
			c = cmp.Compare(a.Nombre, b.Nombre)
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
	out := make([]*models.Institution, 0, end-start)
	for k := start; k < end; k++ {
		out = append(out, &matched[k])
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, i *models.Institution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[i.ID]
	if !ok || !existing.Activo {
		return sentinel.ErrNotFound
	}
	i.Activo = true
	i.FechaRegistro = existing.FechaRegistro
	s.rows[i.ID] = *i
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.rows[id]
	if !ok || !i.Activo {
		return sentinel.ErrNotFound
	}
	i.Activo = false
	i.FechaActualizacion = at
	s.rows[id] = i
	return nil
}

func (s *InMemory) Exists(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.rows[id]
	return ok
}

func (s *InMemory) NameOf(id int64) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	i, ok := s.rows[id]
	return i.Nombre, ok
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
