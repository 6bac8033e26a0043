package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sacra360/internal/document/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, d *models.Document) error {
	query := `
		INSERT INTO documentos (libro_id, nombre_archivo, storage_key, content_type, tamano, activo, fecha_registro)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	var libroID sql.NullInt64
	if d.LibroID != nil {
		libroID = sql.NullInt64{Int64: *d.LibroID, Valid: true}
	}
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		libroID, d.NombreArchivo, d.StorageKey, d.ContentType, d.Tamano, d.Activo, d.FechaRegistro,
	).Scan(&d.ID)
	if err != nil {
		return fmt.Errorf("insert documento: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Document, error) {
	query := `
		SELECT id, libro_id, nombre_archivo, storage_key, content_type, tamano, activo, fecha_registro
		FROM documentos WHERE id = $1 AND activo
	`
	var (
		d       models.Document
		libroID sql.NullInt64
	)
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, id).Scan(
		&d.ID, &libroID, &d.NombreArchivo, &d.StorageKey, &d.ContentType, &d.Tamano, &d.Activo, &d.FechaRegistro,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find documento: %w", err)
	}
	if libroID.Valid {
		d.LibroID = &libroID.Int64
	}
	return &d, nil
}
