package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sacra360/internal/person/models"
	"sacra360/internal/person/service/mocks"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/requestcontext"
)

type PersonServiceSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	store     *mocks.MockStore
	publisher *mocks.MockAuditPublisher
	lookup    *mocks.MockSacramentLookup
	cache     *mocks.MockCacheInvalidator
	service   *Service
	ctx       context.Context
	now       time.Time
}

func TestPersonServiceSuite(t *testing.T) {
	suite.Run(t, new(PersonServiceSuite))
}

func (s *PersonServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.store = mocks.NewMockStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.lookup = mocks.NewMockSacramentLookup(s.ctrl)
	s.cache = mocks.NewMockCacheInvalidator(s.ctrl)
	var err error
	s.service, err = New(s.store,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithCacheInvalidator(s.lookup, s.cache),
	)
	s.Require().NoError(err)
	s.now = time.Date(2024, time.March, 10, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *PersonServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *PersonServiceSuite) person() *models.Person {
	return &models.Person{
		ID:              7,
		Nombres:         "Ana",
		ApellidoPaterno: "Quispe",
		ApellidoMaterno: "Mamani",
		FechaNacimiento: domain.NewDate(2001, time.January, 5),
		FechaBautismo:   domain.NewDate(2001, time.June, 9),
		Activo:          true,
	}
}

func (s *PersonServiceSuite) TestNew() {
	_, err := New(nil)
	s.ErrorContains(err, "person store is required")
}

func (s *PersonServiceSuite) TestGet() {
	s.Run("returns the active person", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)

		p, err := s.service.Get(s.ctx, 7)
		s.Require().NoError(err)
		s.Equal("Ana Quispe Mamani", p.FullName())
	})

	s.Run("maps missing rows to not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(8)).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.Get(s.ctx, 8)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("hides store failures behind an internal error", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(9)).Return(nil, errors.New("connection reset"))

		_, err := s.service.Get(s.ctx, 9)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *PersonServiceSuite) TestList() {
	filter := models.ListFilter{Nombre: "ana", Params: listing.Params{Visibility: listing.ActiveOnly}}
	s.store.EXPECT().List(gomock.Any(), filter).Return([]*models.Person{s.person()}, nil)

	people, err := s.service.List(s.ctx, filter)
	s.Require().NoError(err)
	s.Len(people, 1)
}

func (s *PersonServiceSuite) TestUpdate() {
	req := &models.UpdatePersonRequest{
		Nombres:         "  Ana María ",
		ApellidoPaterno: "Quispe",
		ApellidoMaterno: "Mamani",
		FechaNacimiento: domain.NewDate(2001, time.January, 5),
		FechaBautismo:   domain.NewDate(2001, time.June, 9),
	}

	s.Run("applies the correction and emits an audit event", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *models.Person) error {
				s.Equal("Ana María", p.Nombres)
				s.Equal(s.now, p.FechaActualizacion)
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventPersonUpdated), e.Action)
				s.Equal("7", e.AggregateID)
				return nil
			})
		s.lookup.EXPECT().IDsByPersona(gomock.Any(), int64(7)).Return([]int64{4, 11}, nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(4)).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(11)).Return(nil)

		p, err := s.service.Update(s.ctx, 7, req)
		s.Require().NoError(err)
		s.Equal("Ana María Quispe Mamani", p.FullName())
	})

	s.Run("reports identity collisions as duplicates", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		_, err := s.service.Update(s.ctx, 7, req)
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	})

	s.Run("fails when the audit event cannot be written", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := s.service.Update(s.ctx, 7, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("cache failures do not fail a committed update", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.lookup.EXPECT().IDsByPersona(gomock.Any(), int64(7)).Return([]int64{4, 11}, nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(4)).Return(errors.New("redis down"))
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(11)).Return(nil)

		_, err := s.service.Update(s.ctx, 7, req)
		s.NoError(err)
	})

	s.Run("lookup failures do not fail a committed update", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.lookup.EXPECT().IDsByPersona(gomock.Any(), int64(7)).Return(nil, errors.New("connection reset"))

		_, err := s.service.Update(s.ctx, 7, req)
		s.NoError(err)
	})
}

func (s *PersonServiceSuite) TestDeactivate() {
	s.Run("soft-deletes at request time", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(7)).Return(s.person(), nil)
		s.store.EXPECT().Deactivate(gomock.Any(), int64(7), s.now).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.lookup.EXPECT().IDsByPersona(gomock.Any(), int64(7)).Return([]int64{4}, nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(4)).Return(nil)

		s.Require().NoError(s.service.Deactivate(s.ctx, 7))
	})

	s.Run("unknown person is not found", func() {
		s.store.EXPECT().FindByID(gomock.Any(), int64(3)).Return(nil, sentinel.ErrNotFound)

		err := s.service.Deactivate(s.ctx, 3)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}
