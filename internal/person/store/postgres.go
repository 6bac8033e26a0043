package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sacra360/internal/person/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

// PostgresStore persists persons in the personas table.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const personColumns = `id, nombres, apellido_paterno, apellido_materno, fecha_nacimiento,
	lugar_nacimiento, nombre_padre, nombre_madre, padrino, madrina, fecha_bautismo,
	activo, fecha_registro, fecha_actualizacion`

var orderColumns = map[string]string{
	"id":               "id",
	"nombres":          "nombres",
	"apellido_paterno": "apellido_paterno",
	"fecha_nacimiento": "fecha_nacimiento",
	"fecha_registro":   "fecha_registro",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.Person, error) {
	var p models.Person
	err := row.Scan(&p.ID, &p.Nombres, &p.ApellidoPaterno, &p.ApellidoMaterno, &p.FechaNacimiento,
		&p.LugarNacimiento, &p.NombrePadre, &p.NombreMadre, &p.Padrino, &p.Madrina, &p.FechaBautismo,
		&p.Activo, &p.FechaRegistro, &p.FechaActualizacion)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *PostgresStore) Create(ctx context.Context, p *models.Person) error {
	query := `
		INSERT INTO personas (nombres, apellido_paterno, apellido_materno, fecha_nacimiento,
			lugar_nacimiento, nombre_padre, nombre_madre, padrino, madrina, fecha_bautismo,
			activo, fecha_registro, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		p.Nombres, p.ApellidoPaterno, p.ApellidoMaterno, p.FechaNacimiento,
		p.LugarNacimiento, p.NombrePadre, p.NombreMadre, p.Padrino, p.Madrina, p.FechaBautismo,
		p.Activo, p.FechaRegistro, p.FechaActualizacion,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("insert persona: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Person, error) {
	query := `SELECT ` + personColumns + ` FROM personas WHERE id = $1 AND activo`
	p, err := scanPerson(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find persona by id: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByIdentity(ctx context.Context, key models.Identity) (*models.Person, error) {
	if key.FechaBautismo.IsZero() {
		return nil, sentinel.ErrNotFound
	}
	query := `
		SELECT ` + personColumns + `
		FROM personas
		WHERE nombres = $1 AND apellido_paterno = $2 AND apellido_materno = $3
		  AND fecha_nacimiento = $4 AND fecha_bautismo = $5
		LIMIT 1
	`
	p, err := scanPerson(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		key.Nombres, key.ApellidoPaterno, key.ApellidoMaterno, key.FechaNacimiento, key.FechaBautismo))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find persona by identity: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.ListFilter) ([]*models.Person, error) {
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
		where = append(where, fmt.Sprintf(
			"(nombres || ' ' || apellido_paterno || ' ' || apellido_materno) ILIKE $%d", len(args)))
	}

	page := f.Page.Normalize()
	query := `SELECT ` + personColumns + ` FROM personas`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY %s, id LIMIT $%d OFFSET $%d", f.Order.SQL(orderColumns), len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list personas: %w", err)
	}
	defer rows.Close()

	var out []*models.Person
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan persona: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate personas: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, p *models.Person) error {
	query := `
		UPDATE personas SET
			nombres = $2, apellido_paterno = $3, apellido_materno = $4, fecha_nacimiento = $5,
			lugar_nacimiento = $6, nombre_padre = $7, nombre_madre = $8, padrino = $9,
			madrina = $10, fecha_bautismo = $11, fecha_actualizacion = $12
		WHERE id = $1 AND activo
		RETURNING activo, fecha_registro
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		p.ID, p.Nombres, p.ApellidoPaterno, p.ApellidoMaterno, p.FechaNacimiento,
		p.LugarNacimiento, p.NombrePadre, p.NombreMadre, p.Padrino, p.Madrina,
		p.FechaBautismo, p.FechaActualizacion,
	).Scan(&p.Activo, &p.FechaRegistro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update persona: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64, at time.Time) error {
	query := `UPDATE personas SET activo = FALSE, fecha_actualizacion = $2 WHERE id = $1 AND activo`
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx, query, id, at)
	if err != nil {
		return fmt.Errorf("deactivate persona: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivate persona: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
