package store

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
	"time"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/sentinel"
)

// Lookup resolves a referenced row by id. Every in-memory catalog store
// implements it.
type Lookup interface {
	NameOf(id int64) (string, bool)
}

// References are the stores whose rows a sacrament points at. A nil lookup
// disables the matching foreign-key check.
type References struct {
	People       Lookup
	Users        Lookup
	Institutions Lookup
	Books        Lookup
}

// InMemory is a sacrament store for tests and local runs. It reports the same
// constraint errors Postgres would for the schema's foreign keys and the
// partial unique index on active (persona_id, tipo_id).
type InMemory struct {
	mu             sync.RWMutex
	refs           References
	nextID         int64
	nextMarriageID int64
	rows           map[int64]models.Sacrament
	marriages      map[int64]models.Marriage
}

func NewInMemory(refs References) *InMemory {
	return &InMemory{
		refs:      refs,
		rows:      make(map[int64]models.Sacrament),
		marriages: make(map[int64]models.Marriage),
	}
}

func (s *InMemory) Create(_ context.Context, sac *models.Sacrament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkRefs(sac); err != nil {
		return err
	}
	if sac.Activo && s.activeDuplicate(sac.PersonaID, sac.TipoID, 0) != nil {
		return uniqueViolation(sac)
	}
	s.nextID++
	sac.ID = s.nextID
	s.rows[sac.ID] = *sac
	return nil
}

func (s *InMemory) FindDuplicate(_ context.Context, personaID int64, tipoID domain.SacramentType) (*models.Duplicate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	existing := s.activeDuplicate(personaID, tipoID, 0)
	if existing == nil {
		return nil, sentinel.ErrNotFound
	}
	d := &models.Duplicate{
		SacramentoID:    existing.ID,
		PersonaID:       existing.PersonaID,
		FechaSacramento: existing.FechaSacramento,
		TipoID:          existing.TipoID,
	}
	if s.refs.People != nil {
		d.NombreCompleto, _ = s.refs.People.NameOf(personaID)
	}
	return d, nil
}

func (s *InMemory) FindByID(_ context.Context, id int64) (*models.Sacrament, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sac, ok := s.rows[id]
	if !ok || !sac.Activo {
		return nil, sentinel.ErrNotFound
	}
	return &sac, nil
}

func (s *InMemory) List(_ context.Context, f models.ListFilter) ([]*models.Sacrament, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	matched := make([]models.Sacrament, 0, len(s.rows))
	for _, sac := range s.rows {
		if f.Visibility.Includes(sac.Activo) && f.Matches(&sac) {
			matched = append(matched, sac)
		}
	}
	s.mu.RUnlock()

	slices.SortFunc(matched, func(a, b models.Sacrament) int {
		var c int
		switch f.Order.Field {
		case "fecha_sacramento":
			c = a.FechaSacramento.Time().Compare(b.FechaSacramento.Time())
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
	out := make([]*models.Sacrament, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, &matched[i])
	}
	return out, nil
}

func (s *InMemory) Update(_ context.Context, sac *models.Sacrament) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.rows[sac.ID]
	if !ok || !existing.Activo {
		return sentinel.ErrNotFound
	}
	if err := s.checkRefs(sac); err != nil {
		return err
	}
	if s.activeDuplicate(sac.PersonaID, sac.TipoID, sac.ID) != nil {
		return uniqueViolation(sac)
	}
	sac.FechaRegistro = existing.FechaRegistro
	sac.Activo = true
	s.rows[sac.ID] = *sac
	return nil
}

func (s *InMemory) Deactivate(_ context.Context, id int64, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sac, ok := s.rows[id]
	if !ok || !sac.Activo {
		return sentinel.ErrNotFound
	}
	sac.Activo = false
	sac.FechaActualizacion = at
	s.rows[id] = sac
	return nil
}

// Purge removes the sacrament, active or not, together with its marriage
// detail.
func (s *InMemory) Purge(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return sentinel.ErrNotFound
	}
	for mid, m := range s.marriages {
		if m.SacramentoID == id {
			delete(s.marriages, mid)
		}
	}
	delete(s.rows, id)
	return nil
}

func (s *InMemory) CreateMarriage(_ context.Context, m *models.Marriage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[m.SacramentoID]; !ok {
		return fkViolation("matrimonios_sacramento_id_fkey", "sacramento_id", "sacramentos", m.SacramentoID)
	}
	if s.refs.People != nil {
		if _, ok := s.refs.People.NameOf(m.EsposoID); !ok {
			return fkViolation("matrimonios_esposo_id_fkey", "esposo_id", "personas", m.EsposoID)
		}
		if _, ok := s.refs.People.NameOf(m.EsposaID); !ok {
			return fkViolation("matrimonios_esposa_id_fkey", "esposa_id", "personas", m.EsposaID)
		}
	}
	if m.EsposoID == m.EsposaID {
		return &postgres.ConstraintError{
			Kind:       postgres.KindCheck,
			Constraint: "matrimonios_conyuges_distintos_check",
			Detail:     "esposo_id y esposa_id deben ser distintos",
			Err:        sentinel.ErrInvalidState,
		}
	}
	for _, other := range s.marriages {
		if other.SacramentoID == m.SacramentoID {
			return &postgres.ConstraintError{
				Kind:       postgres.KindUnique,
				Constraint: "matrimonios_sacramento_id_key",
				Detail:     fmt.Sprintf("Key (sacramento_id)=(%d) already exists.", m.SacramentoID),
				Err:        sentinel.ErrAlreadyUsed,
			}
		}
	}
	s.nextMarriageID++
	m.ID = s.nextMarriageID
	s.marriages[m.ID] = *m
	return nil
}

func (s *InMemory) FindMarriageBySacrament(_ context.Context, sacramentoID int64) (*models.Marriage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.marriages {
		if m.SacramentoID == sacramentoID {
			return &m, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// IDsByPersona lists the sacraments, active or not, that show the person as
// subject or spouse.
func (s *InMemory) IDsByPersona(_ context.Context, personaID int64) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[int64]struct{})
	for id, sac := range s.rows {
		if sac.PersonaID == personaID {
			seen[id] = struct{}{}
		}
	}
	for _, m := range s.marriages {
		if m.EsposoID == personaID || m.EsposaID == personaID {
			seen[m.SacramentoID] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(seen)), nil
}

func (s *InMemory) IDsByBook(_ context.Context, libroID int64) ([]int64, error) {
	return s.idsWhere(func(sac models.Sacrament) bool { return sac.LibroID == libroID }), nil
}

func (s *InMemory) IDsByInstitution(_ context.Context, institucionID int64) ([]int64, error) {
	return s.idsWhere(func(sac models.Sacrament) bool { return sac.InstitucionID == institucionID }), nil
}

func (s *InMemory) idsWhere(match func(models.Sacrament) bool) []int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []int64
	for id, sac := range s.rows {
		if match(sac) {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out
}

// Count returns the number of stored sacraments regardless of status.
func (s *InMemory) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rows)
}

// CountMarriages returns the number of stored marriage details.
func (s *InMemory) CountMarriages() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.marriages)
}

// Snapshot captures the current state for transactional rollback.
func (s *InMemory) Snapshot() func() {
	s.mu.RLock()
	rows, marriages := maps.Clone(s.rows), maps.Clone(s.marriages)
	nextID, nextMarriageID := s.nextID, s.nextMarriageID
	s.mu.RUnlock()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.rows, s.marriages = rows, marriages
		s.nextID, s.nextMarriageID = nextID, nextMarriageID
	}
}

// activeDuplicate returns the active sacrament of the pair other than self.
// Must be called with the lock held.
func (s *InMemory) activeDuplicate(personaID int64, tipoID domain.SacramentType, self int64) *models.Sacrament {
	for id, sac := range s.rows {
		if id != self && sac.Activo && sac.PersonaID == personaID && sac.TipoID == tipoID {
			return &sac
		}
	}
	return nil
}

func (s *InMemory) checkRefs(sac *models.Sacrament) error {
	checks := []struct {
		lookup Lookup
		column string
		table  string
		id     int64
	}{
		{s.refs.People, "persona_id", "personas", sac.PersonaID},
		{s.refs.Users, "usuario_id", "usuarios", sac.UsuarioID},
		{s.refs.Institutions, "institucion_id", "institucionesparroquias", sac.InstitucionID},
		{s.refs.Books, "libro_id", "libros", sac.LibroID},
	}
	for _, c := range checks {
		if c.lookup == nil {
			continue
		}
		if _, ok := c.lookup.NameOf(c.id); !ok {
			return fkViolation("sacramentos_"+c.column+"_fkey", c.column, c.table, c.id)
		}
	}
	if !sac.TipoID.IsValid() {
		return fkViolation("sacramentos_tipo_id_fkey", "tipo_id", "tipos_sacramento", int64(sac.TipoID))
	}
	return nil
}

func fkViolation(constraint, column, table string, id int64) error {
	return &postgres.ConstraintError{
		Kind:       postgres.KindForeignKey,
		Constraint: constraint,
		Detail:     fmt.Sprintf("Key (%s)=(%d) is not present in table %q.", column, id, table),
		Err:        sentinel.ErrInvalidReference,
	}
}

func uniqueViolation(sac *models.Sacrament) error {
	return &postgres.ConstraintError{
		Kind:       postgres.KindUnique,
		Constraint: UniqueActiveConstraint,
		Detail:     fmt.Sprintf("Key (persona_id, tipo_id)=(%d, %d) already exists.", sac.PersonaID, sac.TipoID),
		Err:        sentinel.ErrAlreadyUsed,
	}
}
