//go:build integration

package book_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sacra360/internal/catalog/models"
	"sacra360/internal/catalog/store/book"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *book.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = book.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "documentos", "sacramentos", "libros"))
}

func (s *PostgresStoreSuite) TestDateRangeOverlap() {
	ctx := context.Background()
	now := time.Now().UTC()
	for _, b := range []*models.Book{
		{Nombre: "Libro A", FechaInicio: domain.NewDate(1900, 1, 1), FechaFin: domain.NewDate(1920, 12, 31)},
		{Nombre: "Libro B", FechaInicio: domain.NewDate(1921, 1, 1), FechaFin: domain.NewDate(1950, 12, 31)},
		{Nombre: "Libro C", FechaInicio: domain.NewDate(1951, 1, 1)},
	} {
		b.Activo, b.FechaRegistro, b.FechaActualizacion = true, now, now
		s.Require().NoError(s.store.Create(ctx, b))
	}

	out, err := s.store.List(ctx, models.BookFilter{
		Desde:  domain.NewDate(1930, 1, 1),
		Hasta:  domain.NewDate(1960, 1, 1),
		Params: listing.Params{Visibility: listing.ActiveOnly, Order: models.BookDefaultOrder},
	})
	s.Require().NoError(err)
	s.Require().Len(out, 2)
	s.Equal("Libro B", out[0].Nombre)
	s.True(out[1].FechaFin.IsZero())
}

func (s *PostgresStoreSuite) TestRangeCheckConstraint() {
	now := time.Now().UTC()
	err := s.store.Create(context.Background(), &models.Book{
		Nombre:             "Invertido",
		FechaInicio:        domain.NewDate(2000, 1, 1),
		FechaFin:           domain.NewDate(1999, 1, 1),
		Activo:             true,
		FechaRegistro:      now,
		FechaActualizacion: now,
	})
	s.Require().Error(err)
	s.True(postgres.IsConstraint(err, "libros_rango_fechas_check"))

	var ce *postgres.ConstraintError
	s.True(errors.As(err, &ce))
}
