package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/lib/pq"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"sacra360/internal/catalog/models"
	"sacra360/internal/catalog/service/mocks"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/requestcontext"
)

type CatalogServiceSuite struct {
	suite.Suite
	ctrl         *gomock.Controller
	books        *mocks.MockBookStore
	institutions *mocks.MockInstitutionStore
	publisher    *mocks.MockAuditPublisher
	lookup       *mocks.MockSacramentLookup
	cache        *mocks.MockCacheInvalidator
	service      *Service
	ctx          context.Context
	now          time.Time
}

func TestCatalogServiceSuite(t *testing.T) {
	suite.Run(t, new(CatalogServiceSuite))
}

func (s *CatalogServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.books = mocks.NewMockBookStore(s.ctrl)
	s.institutions = mocks.NewMockInstitutionStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.lookup = mocks.NewMockSacramentLookup(s.ctrl)
	s.cache = mocks.NewMockCacheInvalidator(s.ctrl)
	var err error
	s.service, err = New(s.books, s.institutions,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithAuditPublisher(s.publisher),
		WithCacheInvalidator(s.lookup, s.cache),
	)
	s.Require().NoError(err)
	s.now = time.Date(2025, time.May, 2, 15, 4, 5, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *CatalogServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *CatalogServiceSuite) TestNew() {
	s.Run("requires both stores", func() {
		_, err := New(nil, s.institutions)
		s.ErrorContains(err, "book store is required")
		_, err = New(s.books, nil)
		s.ErrorContains(err, "institution store is required")
	})
}

func (s *CatalogServiceSuite) TestCreateBook() {
	req := &models.BookRequest{Nombre: " Bautismos 12 ", FechaInicio: domain.NewDate(1998, time.March, 1)}

	s.Run("stamps timestamps from the request clock", func() {
		s.books.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, b *models.Book) error {
				b.ID = 4
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventBookCreated), e.Action)
				s.Equal("libro", e.AggregateType)
				s.Equal("4", e.AggregateID)
				return nil
			})

		b, err := s.service.CreateBook(s.ctx, req)
		s.Require().NoError(err)
		s.Equal("Bautismos 12", b.Nombre)
		s.True(b.Activo)
		s.Equal(s.now, b.FechaRegistro)
		s.Equal(s.now, b.FechaActualizacion)
	})

	s.Run("rejects an inverted date range before touching the store", func() {
		bad := *req
		bad.FechaFin = domain.NewDate(1990, time.January, 1)

		_, err := s.service.CreateBook(s.ctx, &bad)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("surfaces constraint violations as integrity errors", func() {
		violation := postgres.Classify(&pq.Error{Code: "23514", Constraint: "libros_rango_fechas_check", Message: "check"})
		s.books.EXPECT().Create(gomock.Any(), gomock.Any()).Return(violation)

		_, err := s.service.CreateBook(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))
	})
}

func (s *CatalogServiceSuite) TestListBooks() {
	s.Run("rejects a reversed filter range", func() {
		_, err := s.service.ListBooks(s.ctx, models.BookFilter{
			Desde: domain.NewDate(2000, time.January, 1),
			Hasta: domain.NewDate(1999, time.January, 1),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})

	s.Run("wraps store failures", func() {
		s.books.EXPECT().List(gomock.Any(), gomock.Any()).Return(nil, errors.New("timeout"))
		_, err := s.service.ListBooks(s.ctx, models.BookFilter{})
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *CatalogServiceSuite) TestUpdateInstitution() {
	req := &models.InstitutionRequest{Nombre: "Parroquia San Pedro", Email: " Oficina@SanPedro.org "}

	s.Run("applies the request", func() {
		s.institutions.EXPECT().FindByID(gomock.Any(), int64(2)).
			Return(&models.Institution{ID: 2, Nombre: "San Pedro", Activo: true}, nil)
		s.institutions.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.lookup.EXPECT().IDsByInstitution(gomock.Any(), int64(2)).Return([]int64{5, 6}, nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(5)).Return(nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(6)).Return(nil)

		i, err := s.service.UpdateInstitution(s.ctx, 2, req)
		s.Require().NoError(err)
		s.Equal("oficina@sanpedro.org", i.Email)
		s.Equal(s.now, i.FechaActualizacion)
	})

	s.Run("inactive institution is not found", func() {
		s.institutions.EXPECT().FindByID(gomock.Any(), int64(3)).Return(nil, sentinel.ErrNotFound)

		_, err := s.service.UpdateInstitution(s.ctx, 3, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *CatalogServiceSuite) TestUpdateBook() {
	req := &models.BookRequest{Nombre: "Bautismos 12", FechaInicio: domain.NewDate(1998, time.March, 1)}

	s.Run("clears the certificates printed from the book", func() {
		s.books.EXPECT().FindByID(gomock.Any(), int64(4)).
			Return(&models.Book{ID: 4, Nombre: "Bautismos", Activo: true}, nil)
		s.books.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
		s.lookup.EXPECT().IDsByBook(gomock.Any(), int64(4)).Return([]int64{8}, nil)
		s.cache.EXPECT().Invalidate(gomock.Any(), int64(8)).Return(errors.New("redis down"))

		b, err := s.service.UpdateBook(s.ctx, 4, req)
		s.Require().NoError(err)
		s.Equal("Bautismos 12", b.Nombre)
	})

	s.Run("leaves the cache alone when the update rolls back", func() {
		s.books.EXPECT().FindByID(gomock.Any(), int64(4)).
			Return(&models.Book{ID: 4, Nombre: "Bautismos", Activo: true}, nil)
		s.books.EXPECT().Update(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := s.service.UpdateBook(s.ctx, 4, req)
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func (s *CatalogServiceSuite) TestDeactivate() {
	s.books.EXPECT().Deactivate(gomock.Any(), int64(1), s.now).Return(nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	s.lookup.EXPECT().IDsByBook(gomock.Any(), int64(1)).Return([]int64{3}, nil)
	s.cache.EXPECT().Invalidate(gomock.Any(), int64(3)).Return(nil)
	s.Require().NoError(s.service.DeactivateBook(s.ctx, 1))

	s.institutions.EXPECT().Deactivate(gomock.Any(), int64(2), s.now).Return(nil)
	s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)
	s.lookup.EXPECT().IDsByInstitution(gomock.Any(), int64(2)).Return(nil, errors.New("connection reset"))
	s.Require().NoError(s.service.DeactivateInstitution(s.ctx, 2))

	s.institutions.EXPECT().Deactivate(gomock.Any(), int64(1), s.now).Return(sentinel.ErrNotFound)
	err := s.service.DeactivateInstitution(s.ctx, 1)
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}
