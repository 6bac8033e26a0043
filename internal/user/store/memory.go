package store

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"sacra360/internal/user/models"
	"sacra360/pkg/platform/sentinel"
)

type InMemory struct {
	mu     sync.RWMutex
	nextID int64
	rows   map[int64]models.User
}

func NewInMemory() *InMemory {
	return &InMemory{rows: make(map[int64]models.User)}
}

func (s *InMemory) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.emailTaken(u.Email, 0) {
		return sentinel.ErrAlreadyUsed
	}
	s.nextID++
	u.ID = s.nextID
	s.rows[u.ID] = *u
	return nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.rows[id]
	if !ok || !u.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &u, nil
}

// FindByEmail matches case-insensitively and ignores deactivated users.
func (s *InMemory) FindByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.rows {
		if u.Activo && strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) List(_ context.Context, f models.ListFilter) ([]*models.User, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	needle := strings.ToLower(strings.TrimSpace(f.Nombre))

	s.mu.RLock()
	matched := make([]models.User, 0, len(s.rows))
	for _, u := range s.rows {
		if !f.Visibility.Includes(u.Activo) {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(u.Nombre), needle) {
			continue
		}
		if f.Rol != "" && u.Rol != f.Rol {
			continue
		}
		matched = append(matched, u)
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.User) int {
		var c int
		switch f.Order.Field {
		case "nombre":
			c = cmp.Compare(a.Nombre, b.Nombre)
		case "email":
			c = cmp.Compare(a.Email, b.Email)
		case "fecha_registro":
			c = a.FechaRegistro.Compare(b.FechaRegistro)
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
	out := make([]*models.User, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[u.ID]
	if !ok || !existing.Activo {
		return sentinel.ErrNotFound
	}
	u.Email = existing.Email
	u.Activo = true
	u.FechaRegistro = existing.FechaRegistro
	s.rows[u.ID] = *u
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.rows[id]
	if !ok || !u.Activo {
		return sentinel.ErrNotFound
	}
	u.Activo = false
	u.FechaActualizacion = at
	s.rows[id] = u
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
	u, ok := s.rows[id]
	return u.Nombre, ok
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

// emailTaken mirrors the unique index on lower(email). Must hold the lock.
func (s *InMemory) emailTaken(email string, self int64) bool {
	for id, u := range s.rows {
		if id != self && strings.EqualFold(u.Email, email) {
			return true
		}
	}
	return false
}
