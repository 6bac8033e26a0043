//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sacra360/internal/document/models"
	"sacra360/internal/document/store"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.PostgresStore
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	ctx := context.Background()
	s.Require().NoError(s.postgres.TruncateTables(ctx, "resultados", "documentos", "libros"))
	_, err := s.postgres.DB.ExecContext(ctx, `INSERT INTO libros (nombre, fecha_inicio) VALUES ('Libro I', '1980-01-01')`)
	s.Require().NoError(err)
}

func (s *PostgresStoreSuite) TestCreateAndFind() {
	ctx := context.Background()
	libro := int64(1)
	d := &models.Document{
		LibroID:       &libro,
		NombreArchivo: "foja.pdf",
		StorageKey:    "documentos/2025/01/x_foja.pdf",
		ContentType:   "application/pdf",
		Tamano:        2048,
		Activo:        true,
		FechaRegistro: time.Now().UTC().Truncate(time.Microsecond),
	}
	s.Require().NoError(s.store.Create(ctx, d))

	got, err := s.store.FindByID(ctx, d.ID)
	s.Require().NoError(err)
	s.Equal(d.StorageKey, got.StorageKey)
	s.Require().NotNil(got.LibroID)
	s.Equal(libro, *got.LibroID)

	dup := *d
	s.ErrorIs(s.store.Create(ctx, &dup), sentinel.ErrAlreadyUsed)

	missing := int64(99)
	orphan := *d
	orphan.StorageKey = "documentos/other"
	orphan.LibroID = &missing
	s.ErrorIs(s.store.Create(ctx, &orphan), sentinel.ErrInvalidReference)

	orphan.LibroID = nil
	s.Require().NoError(s.store.Create(ctx, &orphan))
	got, err = s.store.FindByID(ctx, orphan.ID)
	s.Require().NoError(err)
	s.Nil(got.LibroID)
}
