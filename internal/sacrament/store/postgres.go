package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/sentinel"
)

// UniqueActiveConstraint is the partial unique index allowing one active
// sacrament per person and type.
const UniqueActiveConstraint = "sacramentos_persona_tipo_activo_key"

// PostgresStore persists sacraments in the sacramentos table and their
// marriage details in matrimonios.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const sacramentColumns = `id, persona_id, tipo_id, usuario_id, institucion_id, libro_id,
	fecha_sacramento, foja, numero, observaciones, activo, fecha_registro, fecha_actualizacion`

const marriageColumns = `id, sacramento_id, esposo_id, esposa_id, padre_esposo, madre_esposo,
	padre_esposa, madre_esposa, testigo1, testigo2`

var orderColumns = map[string]string{
	"id":               "id",
	"fecha_sacramento": "fecha_sacramento",
	"fecha_registro":   "fecha_registro",
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSacrament(row rowScanner) (*models.Sacrament, error) {
	var s models.Sacrament
	err := row.Scan(&s.ID, &s.PersonaID, &s.TipoID, &s.UsuarioID, &s.InstitucionID, &s.LibroID,
		&s.FechaSacramento, &s.Foja, &s.Numero, &s.Observaciones, &s.Activo, &s.FechaRegistro, &s.FechaActualizacion)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *PostgresStore) Create(ctx context.Context, sac *models.Sacrament) error {
	query := `
		INSERT INTO sacramentos (persona_id, tipo_id, usuario_id, institucion_id, libro_id,
			fecha_sacramento, foja, numero, observaciones, activo, fecha_registro, fecha_actualizacion)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		sac.PersonaID, sac.TipoID, sac.UsuarioID, sac.InstitucionID, sac.LibroID,
		sac.FechaSacramento, sac.Foja, sac.Numero, sac.Observaciones, sac.Activo,
		sac.FechaRegistro, sac.FechaActualizacion,
	).Scan(&sac.ID)
	if err != nil {
		return fmt.Errorf("insert sacramento: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindDuplicate(ctx context.Context, personaID int64, tipoID domain.SacramentType) (*models.Duplicate, error) {
	query := `
		SELECT s.id, s.persona_id,
			concat_ws(' ', NULLIF(p.nombres, ''), NULLIF(p.apellido_paterno, ''), NULLIF(p.apellido_materno, '')),
			s.fecha_sacramento, s.tipo_id
		FROM sacramentos s
		JOIN personas p ON p.id = s.persona_id
		WHERE s.persona_id = $1 AND s.tipo_id = $2 AND s.activo
		LIMIT 1
	`
	var d models.Duplicate
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, personaID, tipoID).
		Scan(&d.SacramentoID, &d.PersonaID, &d.NombreCompleto, &d.FechaSacramento, &d.TipoID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find duplicate sacramento: %w", err)
	}
	return &d, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, id int64) (*models.Sacrament, error) {
	query := `SELECT ` + sacramentColumns + ` FROM sacramentos WHERE id = $1 AND activo`
	sac, err := scanSacrament(postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find sacramento by id: %w", err)
	}
	return sac, nil
}

func (s *PostgresStore) List(ctx context.Context, f models.ListFilter) ([]*models.Sacrament, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Visibility == listing.ActiveOnly {
		where = append(where, "activo")
	}
	if f.PersonaID != 0 {
		add("persona_id = $%d", f.PersonaID)
	}
	if f.TipoID != 0 {
		add("tipo_id = $%d", f.TipoID)
	}
	if f.LibroID != 0 {
		add("libro_id = $%d", f.LibroID)
	}
	if f.InstitucionID != 0 {
		add("institucion_id = $%d", f.InstitucionID)
	}
	if !f.Desde.IsZero() {
		add("fecha_sacramento >= $%d", f.Desde)
	}
	if !f.Hasta.IsZero() {
		add("fecha_sacramento <= $%d", f.Hasta)
	}

	query := `SELECT ` + sacramentColumns + ` FROM sacramentos`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	page := f.Page.Normalize()
	args = append(args, page.Limit, page.Skip)
	query += fmt.Sprintf(" ORDER BY %s, id LIMIT $%d OFFSET $%d", f.Order.SQL(orderColumns), len(args)-1, len(args))

	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sacramentos: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Sacrament, 0)
	for rows.Next() {
		sac, err := scanSacrament(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sacramento: %w", err)
		}
		out = append(out, sac)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sacramentos: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Update(ctx context.Context, sac *models.Sacrament) error {
	query := `
		UPDATE sacramentos
		SET persona_id = $2, tipo_id = $3, usuario_id = $4, institucion_id = $5, libro_id = $6,
			fecha_sacramento = $7, foja = $8, numero = $9, observaciones = $10, fecha_actualizacion = $11
		WHERE id = $1 AND activo
		RETURNING activo, fecha_registro
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, sac.ID,
		sac.PersonaID, sac.TipoID, sac.UsuarioID, sac.InstitucionID, sac.LibroID,
		sac.FechaSacramento, sac.Foja, sac.Numero, sac.Observaciones, sac.FechaActualizacion,
	).Scan(&sac.Activo, &sac.FechaRegistro)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return fmt.Errorf("update sacramento: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) Deactivate(ctx context.Context, id int64, at time.Time) error {
	res, err := postgres.Conn(ctx, s.db).ExecContext(ctx,
		`UPDATE sacramentos SET activo = FALSE, fecha_actualizacion = $2 WHERE id = $1 AND activo`, id, at)
	if err != nil {
		return fmt.Errorf("deactivate sacramento: %w", err)
	}
	return requireAffected(res)
}

// legacyDetailTables predate the current schema and are missing from some
// deployments.
var legacyDetailTables = []string{"bautizos", "confirmaciones"}

// Purge deletes the sacrament and every per-type detail row. It must run in
// the caller's transaction so a failure leaves nothing half-deleted. Legacy
// detail tables that do not exist are skipped; they are checked up front
// because a failed DELETE would abort the transaction.
func (s *PostgresStore) Purge(ctx context.Context, id int64) error {
	conn := postgres.Conn(ctx, s.db)
	tables := []string{"matrimonios"}
	for _, table := range legacyDetailTables {
		var present bool
		if err := conn.QueryRowContext(ctx, `SELECT to_regclass($1) IS NOT NULL`, table).Scan(&present); err != nil {
			return fmt.Errorf("look up %s: %w", table, err)
		}
		if present {
			tables = append(tables, table)
		}
	}
	for _, table := range tables {
		if _, err := conn.ExecContext(ctx, `DELETE FROM `+table+` WHERE sacramento_id = $1`, id); err != nil {
			return fmt.Errorf("purge %s: %w", table, postgres.Classify(err))
		}
	}
	res, err := conn.ExecContext(ctx, `DELETE FROM sacramentos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("purge sacramento: %w", postgres.Classify(err))
	}
	return requireAffected(res)
}

func (s *PostgresStore) CreateMarriage(ctx context.Context, m *models.Marriage) error {
	query := `
		INSERT INTO matrimonios (sacramento_id, esposo_id, esposa_id, padre_esposo, madre_esposo,
			padre_esposa, madre_esposa, testigo1, testigo2)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id
	`
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query,
		m.SacramentoID, m.EsposoID, m.EsposaID, m.PadreEsposo, m.MadreEsposo,
		m.PadreEsposa, m.MadreEsposa, m.Testigo1, m.Testigo2,
	).Scan(&m.ID)
	if err != nil {
		return fmt.Errorf("insert matrimonio: %w", postgres.Classify(err))
	}
	return nil
}

func (s *PostgresStore) FindMarriageBySacrament(ctx context.Context, sacramentoID int64) (*models.Marriage, error) {
	query := `SELECT ` + marriageColumns + ` FROM matrimonios WHERE sacramento_id = $1`
	var m models.Marriage
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, sacramentoID).Scan(
		&m.ID, &m.SacramentoID, &m.EsposoID, &m.EsposaID, &m.PadreEsposo, &m.MadreEsposo,
		&m.PadreEsposa, &m.MadreEsposa, &m.Testigo1, &m.Testigo2)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find matrimonio: %w", err)
	}
	return &m, nil
}

// IDsByPersona lists the sacraments, active or not, that show the person as
// subject or spouse.
func (s *PostgresStore) IDsByPersona(ctx context.Context, personaID int64) ([]int64, error) {
	return s.ids(ctx, `
		SELECT id FROM sacramentos WHERE persona_id = $1
		UNION
		SELECT sacramento_id FROM matrimonios WHERE esposo_id = $1 OR esposa_id = $1
		ORDER BY 1`, personaID)
}

func (s *PostgresStore) IDsByBook(ctx context.Context, libroID int64) ([]int64, error) {
	return s.ids(ctx, `SELECT id FROM sacramentos WHERE libro_id = $1 ORDER BY id`, libroID)
}

func (s *PostgresStore) IDsByInstitution(ctx context.Context, institucionID int64) ([]int64, error) {
	return s.ids(ctx, `SELECT id FROM sacramentos WHERE institucion_id = $1 ORDER BY id`, institucionID)
}

func (s *PostgresStore) ids(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := postgres.Conn(ctx, s.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sacramento ids: %w", err)
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan sacramento id: %w", err)
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sacramento ids: %w", err)
	}
	return out, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
