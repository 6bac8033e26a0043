package institution

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

const institutionColumns = `id, nombre, direccion, telefono, email, activo, fecha_registro, fecha_actualizacion`

var orderColumns = map[string]string{
	"id":     "id",
	"nombre": "nombre",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInstitution(row rowScanner) (*models.Institution, error) {
	var i models.Institution
	if err := row.Scan(&i.ID, &i.Nombre, &i.Direccion, &i.Telefono, &i.Email,
		&i.Activo, &i.FechaRegistro, &i.FechaActualizacion); err != nil {
		return nil, err
	}
	return &i, nil
}

func (s *PostgresStore) Create(ctx context.Context, i *models.Institution) error {
	query := `
		INSERT INTO institucionesparroquias (nombre, direccion, telefono, email, activo, fecha_registro, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		i.Nombre, i.Direccion, i.Telefono, i.Email, i.Activo, i.FechaRegistro, i.FechaActualizacion,
	).Scan(&i.ID)
	if err != nil {
		return fmt.Errorf("insert institucion: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Institution, error) {
	query := `SELECT ` + institutionColumns + ` FROM institucionesparroquias WHERE id = $1 AND activo`
	i, err := scanInstitution(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find institucion: %w", err)
	}
	return i, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.InstitutionFilter) ([]*models.Institution, error) {
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

	page := f.Page.Normalize()
	query := `SELECT ` + institutionColumns + ` FROM institucionesparroquias`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY %s, id LIMIT $%d OFFSET $%d", f.Order.SQL(orderColumns), len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list instituciones: %w", err)
	}
	defer rows.Close()

	var out []*models.Institution
	for rows.Next() {
		i, err := scanInstitution(rows)
		if err != nil {
			return nil, fmt.Errorf("scan institucion: %w", err)
		}
		out = append(out, i)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, i *models.Institution) error {
	query := `
		UPDATE institucionesparroquias SET nombre = $2, direccion = $3, telefono = $4, email = $5, fecha_actualizacion = $6
		WHERE id = $1 AND activo
		RETURNING activo, fecha_registro
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		i.ID, i.Nombre, i.Direccion, i.Telefono, i.Email, i.FechaActualizacion,
	).Scan(&i.Activo, &i.FechaRegistro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update institucion: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE institucionesparroquias SET activo = FALSE, fecha_actualizacion = $2 WHERE id = $1 AND activo`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate institucion: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deactivate institucion: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
