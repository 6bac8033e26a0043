package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sacra360/internal/person/models"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

type PersonStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestPersonStoreSuite(t *testing.T) {
	suite.Run(t, new(PersonStoreSuite))
}

func (s *PersonStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func newBaptized(nombres string, bautismo domain.Date) *models.Person {
	return &models.Person{
		Nombres:         nombres,
		ApellidoPaterno: "Condori",
		ApellidoMaterno: "Flores",
		FechaNacimiento: domain.NewDate(1990, time.April, 2),
		FechaBautismo:   bautismo,
		Activo:          true,
		FechaRegistro:   time.Now(),
	}
}

func (s *PersonStoreSuite) TestNaturalKey() {
	s.Run("rejects a second baptized person with the same identity", func() {
		first := newBaptized("Luis", domain.NewDate(1990, time.May, 1))
		s.Require().NoError(s.store.Create(s.ctx, first))

		err := s.store.Create(s.ctx, newBaptized("Luis", domain.NewDate(1990, time.May, 1)))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("persons without baptism date never collide", func() {
		s.Require().NoError(s.store.Create(s.ctx, newBaptized("Rosa", domain.Date{})))
		s.Require().NoError(s.store.Create(s.ctx, newBaptized("Rosa", domain.Date{})))
	})

	s.Run("finds by identity regardless of status", func() {
		p := newBaptized("Marta", domain.NewDate(1991, time.May, 1))
		s.Require().NoError(s.store.Create(s.ctx, p))
		s.Require().NoError(s.store.Deactivate(s.ctx, p.ID, time.Now()))

		found, err := s.store.FindByIdentity(s.ctx, p.Identity())
		s.Require().NoError(err)
		s.Equal(p.ID, found.ID)

		_, err = s.store.FindByID(s.ctx, p.ID)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *PersonStoreSuite) TestList() {
	for _, n := range []string{"Carla", "Beatriz", "Alberto"} {
		s.Require().NoError(s.store.Create(s.ctx, newBaptized(n, domain.Date{})))
	}
	inactive := newBaptized("Carlos", domain.Date{})
	s.Require().NoError(s.store.Create(s.ctx, inactive))
	s.Require().NoError(s.store.Deactivate(s.ctx, inactive.ID, time.Now()))

	s.Run("requires explicit visibility", func() {
		_, err := s.store.List(s.ctx, models.ListFilter{})
		s.Error(err)
	})

	s.Run("active only hides deactivated rows", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{Params: listing.Params{Visibility: listing.ActiveOnly}})
		s.Require().NoError(err)
		s.Len(out, 3)
	})

	s.Run("filters by name and sorts descending", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{
			Nombre: "car",
			Params: listing.Params{
				Visibility: listing.All,
				Order:      listing.Order{Field: "nombres", Desc: true},
			},
		})
		s.Require().NoError(err)
		s.Require().Len(out, 2)
		s.Equal("Carlos", out[0].Nombres)
		s.Equal("Carla", out[1].Nombres)
	})

	s.Run("pages the result", func() {
		out, err := s.store.List(s.ctx, models.ListFilter{Params: listing.Params{
			Visibility: listing.All,
			Order:      listing.Order{Field: "nombres"},
			Page:       listing.Page{Skip: 1, Limit: 2},
		}})
		s.Require().NoError(err)
		s.Require().Len(out, 2)
		s.Equal("Beatriz", out[0].Nombres)
	})
}

func (s *PersonStoreSuite) TestSnapshotRestoresRows() {
	s.Require().NoError(s.store.Create(s.ctx, newBaptized("Elena", domain.Date{})))
	restore := s.store.Snapshot()

	s.Require().NoError(s.store.Create(s.ctx, newBaptized("Hugo", domain.Date{})))
	s.Equal(2, s.store.Count())

	restore()
	s.Equal(1, s.store.Count())
	name, ok := s.store.NameOf(1)
	s.True(ok)
	s.Equal("Elena Condori Flores", name)
}
