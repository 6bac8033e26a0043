package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/result/models"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, r *models.StoredResult) error {
	payload, err := json.Marshal(r.Payload)
	if err != nil {
		return fmt.Errorf("encode resultado payload: %w", err)
	}
	var documentoID sql.NullInt64
	if r.DocumentoID != nil {
		documentoID = sql.NullInt64{Int64: *r.DocumentoID, Valid: true}
	}
	query := `
		INSERT INTO resultados (coleccion, documento_id, payload, fecha_registro)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err = postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		r.Coleccion, documentoID, payload, r.FechaRegistro,
	).Scan(&r.ID)
	if err != nil {
		return fmt.Errorf("insert resultado: %w", postgres.Classify(err))
	}
	return nil
}
