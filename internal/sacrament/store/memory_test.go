package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

type names map[int64]string

func (n names) NameOf(id int64) (string, bool) {
	v, ok := n[id]
	return v, ok
}

type SacramentStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestSacramentStoreSuite(t *testing.T) {
	suite.Run(t, new(SacramentStoreSuite))
}

func (s *SacramentStoreSuite) SetupTest() {
	s.store = NewInMemory(References{
		People:       names{1: "Ana Quispe", 2: "Juan Mamani", 3: "Rosa Flores"},
		Users:        names{10: "Padre Luis"},
		Institutions: names{20: "San Francisco"},
		Books:        names{30: "Libro I"},
	})
	s.ctx = context.Background()
}

func newSacrament(personaID int64, tipo domain.SacramentType, fecha domain.Date) *models.Sacrament {
	return &models.Sacrament{
		PersonaID:       personaID,
		TipoID:          tipo,
		UsuarioID:       10,
		InstitucionID:   20,
		LibroID:         30,
		FechaSacramento: fecha,
		Activo:          true,
		FechaRegistro:   time.Now(),
	}
}

func (s *SacramentStoreSuite) TestUniqueActivePerType() {
	first := newSacrament(1, domain.SacramentBaptism, domain.NewDate(2000, time.January, 9))
	s.Require().NoError(s.store.Create(s.ctx, first))

	s.Run("second active sacrament of the same type is a unique violation", func() {
		err := s.store.Create(s.ctx, newSacrament(1, domain.SacramentBaptism, domain.NewDate(2001, time.January, 9)))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
		s.True(postgres.IsConstraint(err, UniqueActiveConstraint))
	})

	s.Run("other types are independent", func() {
		s.NoError(s.store.Create(s.ctx, newSacrament(1, domain.SacramentConfirmation, domain.NewDate(2010, time.May, 1))))
	})

	s.Run("FindDuplicate reports the existing row with the person name", func() {
		d, err := s.store.FindDuplicate(s.ctx, 1, domain.SacramentBaptism)
		s.Require().NoError(err)
		s.Equal(first.ID, d.SacramentoID)
		s.Equal("Ana Quispe", d.NombreCompleto)
		s.Equal("2000-01-09", d.FechaSacramento.String())
	})

	s.Run("a deactivated sacrament no longer blocks", func() {
		s.Require().NoError(s.store.Deactivate(s.ctx, first.ID, time.Now()))
		_, err := s.store.FindDuplicate(s.ctx, 1, domain.SacramentBaptism)
		s.ErrorIs(err, sentinel.ErrNotFound)
		s.NoError(s.store.Create(s.ctx, newSacrament(1, domain.SacramentBaptism, domain.NewDate(2002, time.March, 1))))
	})
}

func (s *SacramentStoreSuite) TestForeignKeys() {
	cases := map[string]func(*models.Sacrament){
		"sacramentos_persona_id_fkey":     func(m *models.Sacrament) { m.PersonaID = 99 },
		"sacramentos_usuario_id_fkey":     func(m *models.Sacrament) { m.UsuarioID = 99 },
		"sacramentos_institucion_id_fkey": func(m *models.Sacrament) { m.InstitucionID = 99 },
		"sacramentos_libro_id_fkey":       func(m *models.Sacrament) { m.LibroID = 99 },
		"sacramentos_tipo_id_fkey":        func(m *models.Sacrament) { m.TipoID = 9 },
	}
	for constraint, mutate := range cases {
		s.Run(constraint, func() {
			sac := newSacrament(2, domain.SacramentBaptism, domain.NewDate(1999, time.July, 7))
			mutate(sac)
			err := s.store.Create(s.ctx, sac)
			s.ErrorIs(err, sentinel.ErrInvalidReference)
			s.True(postgres.IsConstraint(err, constraint))
		})
	}
	s.Equal(0, s.store.Count())
}

func (s *SacramentStoreSuite) TestMarriageDetail() {
	sac := newSacrament(2, domain.SacramentMarriage, domain.NewDate(2015, time.October, 3))
	s.Require().NoError(s.store.Create(s.ctx, sac))

	s.Run("rejects the same person on both sides", func() {
		err := s.store.CreateMarriage(s.ctx, &models.Marriage{SacramentoID: sac.ID, EsposoID: 2, EsposaID: 2})
		ce, ok := postgres.AsConstraint(err)
		s.Require().True(ok)
		s.Equal(postgres.KindCheck, ce.Kind)
	})

	s.Run("rejects unknown sacrament", func() {
		err := s.store.CreateMarriage(s.ctx, &models.Marriage{SacramentoID: 404, EsposoID: 2, EsposaID: 3})
		s.ErrorIs(err, sentinel.ErrInvalidReference)
	})

	m := &models.Marriage{SacramentoID: sac.ID, EsposoID: 2, EsposaID: 3, Testigo1: "Pedro"}
	s.Require().NoError(s.store.CreateMarriage(s.ctx, m))

	s.Run("one detail per sacrament", func() {
		err := s.store.CreateMarriage(s.ctx, &models.Marriage{SacramentoID: sac.ID, EsposoID: 2, EsposaID: 3})
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	got, err := s.store.FindMarriageBySacrament(s.ctx, sac.ID)
	s.Require().NoError(err)
	s.Equal("Pedro", got.Testigo1)

	s.Run("purge removes the detail too", func() {
		s.Require().NoError(s.store.Purge(s.ctx, sac.ID))
		s.Equal(0, s.store.CountMarriages())
		s.ErrorIs(s.store.Purge(s.ctx, sac.ID), sentinel.ErrNotFound)
	})
}

func (s *SacramentStoreSuite) TestIDsReferencing() {
	baptism := newSacrament(1, domain.SacramentBaptism, domain.NewDate(1990, time.March, 4))
	s.Require().NoError(s.store.Create(s.ctx, baptism))
	wedding := newSacrament(2, domain.SacramentMarriage, domain.NewDate(2015, time.October, 3))
	s.Require().NoError(s.store.Create(s.ctx, wedding))
	s.Require().NoError(s.store.CreateMarriage(s.ctx, &models.Marriage{SacramentoID: wedding.ID, EsposoID: 2, EsposaID: 1}))
	s.Require().NoError(s.store.Deactivate(s.ctx, baptism.ID, time.Now()))

	s.Run("a person as subject or spouse", func() {
		ids, err := s.store.IDsByPersona(s.ctx, 1)
		s.Require().NoError(err)
		s.Equal([]int64{baptism.ID, wedding.ID}, ids)

		ids, err = s.store.IDsByPersona(s.ctx, 3)
		s.Require().NoError(err)
		s.Empty(ids)
	})

	s.Run("a book or institution", func() {
		ids, err := s.store.IDsByBook(s.ctx, 30)
		s.Require().NoError(err)
		s.Equal([]int64{baptism.ID, wedding.ID}, ids)

		ids, err = s.store.IDsByInstitution(s.ctx, 20)
		s.Require().NoError(err)
		s.Equal([]int64{baptism.ID, wedding.ID}, ids)

		ids, err = s.store.IDsByInstitution(s.ctx, 99)
		s.Require().NoError(err)
		s.Empty(ids)
	})
}

func (s *SacramentStoreSuite) TestList() {
	s.Require().NoError(s.store.Create(s.ctx, newSacrament(1, domain.SacramentBaptism, domain.NewDate(2000, time.January, 1))))
	s.Require().NoError(s.store.Create(s.ctx, newSacrament(2, domain.SacramentBaptism, domain.NewDate(2005, time.January, 1))))
	retired := newSacrament(3, domain.SacramentBaptism, domain.NewDate(2010, time.January, 1))
	s.Require().NoError(s.store.Create(s.ctx, retired))
	s.Require().NoError(s.store.Deactivate(s.ctx, retired.ID, time.Now()))

	s.Run("requires visibility", func() {
		_, err := s.store.List(s.ctx, models.ListFilter{})
		s.Error(err)
	})

	s.Run("active only, newest first", func() {
		got, err := s.store.List(s.ctx, models.ListFilter{Params: listing.Params{
			Visibility: listing.ActiveOnly,
			Order:      models.DefaultOrder,
		}})
		s.Require().NoError(err)
		s.Require().Len(got, 2)
		s.Equal(int64(2), got[0].PersonaID)
	})

	s.Run("all with date range and paging", func() {
		got, err := s.store.List(s.ctx, models.ListFilter{
			Desde: domain.NewDate(2004, time.January, 1),
			Params: listing.Params{
				Visibility: listing.All,
				Order:      listing.Order{Field: "fecha_sacramento"},
				Page:       listing.Page{Skip: 1, Limit: 1},
			},
		})
		s.Require().NoError(err)
		s.Require().Len(got, 1)
		s.Equal(retired.ID, got[0].ID)
	})
}

func (s *SacramentStoreSuite) TestSnapshotRestores() {
	restore := s.store.Snapshot()
	s.Require().NoError(s.store.Create(s.ctx, newSacrament(1, domain.SacramentBaptism, domain.NewDate(2000, time.January, 1))))
	restore()
	s.Equal(0, s.store.Count())

	sac := newSacrament(1, domain.SacramentBaptism, domain.NewDate(2000, time.January, 1))
	s.Require().NoError(s.store.Create(s.ctx, sac))
	s.Equal(int64(1), sac.ID)
}
