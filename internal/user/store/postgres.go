package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/user/models"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const userColumns = `id, nombre, email, password_hash, rol, activo, fecha_registro, fecha_actualizacion`

var orderColumns = map[string]string{
	"id":             "id",
	"nombre":         "nombre",
	"email":          "lower(email)",
	"fecha_registro": "fecha_registro",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var u models.User
	if err := row.Scan(&u.ID, &u.Nombre, &u.Email, &u.PasswordHash, &u.Rol,
		&u.Activo, &u.FechaRegistro, &u.FechaActualizacion); err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *PostgresStore) Create(ctx context.Context, u *models.User) error {
	query := `
		INSERT INTO usuarios (nombre, email, password_hash, rol, activo, fecha_registro, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		u.Nombre, u.Email, u.PasswordHash, u.Rol, u.Activo, u.FechaRegistro, u.FechaActualizacion,
	).Scan(&u.ID)
	if err != nil {
		return fmt.Errorf("insert usuario: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE id = $1 AND activo`, id)
}

func (s *PostgresStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, `SELECT `+userColumns+` FROM usuarios WHERE lower(email) = lower($1) AND activo`, email)
}

func (s *PostgresStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	u, err := scanUser(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find usuario: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.ListFilter) ([]*models.User, error) {
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
	if f.Rol != "" {
		args = append(args, f.Rol)
		where = append(where, fmt.Sprintf("rol = $%d", len(args)))
	}

	page := f.Page.Normalize()
	query := `SELECT ` + userColumns + ` FROM usuarios`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY %s, id LIMIT $%d OFFSET $%d", f.Order.SQL(orderColumns), len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list usuarios: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan usuario: %w", err)
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (s *PostgresStore) Update(ctx context.Context, u *models.User) error {
	query := `
		UPDATE usuarios SET nombre = $2, password_hash = $3, rol = $4, fecha_actualizacion = $5
		WHERE id = $1 AND activo
		RETURNING email, activo, fecha_registro
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		u.ID, u.Nombre, u.PasswordHash, u.Rol, u.FechaActualizacion,
	).Scan(&u.Email, &u.Activo, &u.FechaRegistro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update usuario: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE usuarios SET activo = FALSE, fecha_actualizacion = $2 WHERE id = $1 AND activo`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate usuario: %w", err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return fmt.Errorf("deactivate usuario: %w", err)
	} else if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
