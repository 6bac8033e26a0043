package book

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sacra360/internal/catalog/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const bookColumns = `id, nombre, fecha_inicio, fecha_fin, observaciones, activo, fecha_registro, fecha_actualizacion`

var orderColumns = map[string]string{
	"id":           "id",
	"nombre":       "nombre",
	"fecha_inicio": "fecha_inicio",
	"fecha_fin":    "fecha_fin",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanBook(row rowScanner) (*models.Book, error) {
	var b models.Book
	if err := row.Scan(&b.ID, &b.Nombre, &b.FechaInicio, &b.FechaFin, &b.Observaciones,
		&b.Activo, &b.FechaRegistro, &b.FechaActualizacion); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s *PostgresStore) Create(ctx context.Context, b *models.Book) error {
	query := `
		INSERT INTO libros (nombre, fecha_inicio, fecha_fin, observaciones, activo, fecha_registro, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		b.Nombre, b.FechaInicio, b.FechaFin, b.Observaciones, b.Activo, b.FechaRegistro, b.FechaActualizacion,
	).Scan(&b.ID)
	if err != nil {
		return fmt.Errorf("insert libro: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM libros WHERE id = $1 AND activo`
	b, err := scanBook(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find libro: %w", err)
	}
	return b, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.BookFilter) ([]*models.Book, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	if f.Visibility == listing.ActiveOnly {
		where = append(where, "activo")
	}
	if n := strings.TrimSpace(f.Nombre); n != "" {
		args = append(args, "%"+n+"%")
		where = append(where, fmt.Sprintf("nombre ILIKE $%d", len(args)))
	}
	if !f.Hasta.IsZero() {
		args = append(args, f.Hasta)
		where = append(where, fmt.Sprintf("fecha_inicio <= $%d", len(args)))
	}
	if !f.Desde.IsZero() {
		args = append(args, f.Desde)
		where = append(where, fmt.Sprintf("(fecha_fin IS NULL OR fecha_fin >= $%d)", len(args)))
	}

	page := f.Page.Normalize()
	query := `SELECT ` + bookColumns + ` FROM libros`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY %s, id LIMIT $%d OFFSET $%d", f.Order.SQL(orderColumns), len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list libros: %w", err)
	}
	defer rows.Close()

	var out []*models.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("scan libro: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, b *models.Book) error {
	query := `
		UPDATE libros SET nombre = $2, fecha_inicio = $3, fecha_fin = $4, observaciones = $5, fecha_actualizacion = $6
		WHERE id = $1 AND activo
		RETURNING activo, fecha_registro
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		b.ID, b.Nombre, b.FechaInicio, b.FechaFin, b.Observaciones, b.FechaActualizacion,
	).Scan(&b.Activo, &b.FechaRegistro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update libro: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE libros SET activo = FALSE, fecha_actualizacion = $2 WHERE id = $1 AND activo`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate libro: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deactivate libro: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
