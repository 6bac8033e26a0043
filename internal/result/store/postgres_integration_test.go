//go:build integration

package store_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"sacra360/internal/result/models"
	"sacra360/internal/result/store"
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
	s.Require().NoError(s.postgres.TruncateTables(context.Background(), "resultados", "documentos"))
}

func (s *PostgresStoreSuite) TestCreatePersistsPayload() {
	ctx := context.Background()
	r := &models.StoredResult{
		Coleccion:     "bautizos_ocr",
		Payload:       map[string]any{"nombre": "Ana", "foja": "12"},
		FechaRegistro: time.Now().UTC(),
	}
	s.Require().NoError(s.store.Create(ctx, r))
	s.Positive(r.ID)

	var raw []byte
	s.Require().NoError(s.postgres.DB.QueryRowContext(ctx, `SELECT payload FROM resultados WHERE id = $1`, r.ID).Scan(&raw))
	var payload map[string]any
	s.Require().NoError(json.Unmarshal(raw, &payload))
	s.Equal("Ana", payload["nombre"])
}

func (s *PostgresStoreSuite) TestUnknownDocument() {
	missing := int64(77)
	err := s.store.Create(context.Background(), &models.StoredResult{
		Coleccion:     "ocr",
		DocumentoID:   &missing,
		Payload:       map[string]any{"a": 1},
		FechaRegistro: time.Now().UTC(),
	})
	s.ErrorIs(err, sentinel.ErrInvalidReference)
}
