package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"sacra360/internal/certificate/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/sentinel"
)

// fullName renders a personas row alias as one display name.
func fullName(alias string) string {
	return fmt.Sprintf("concat_ws(' ', NULLIF(%[1]s.nombres, ''), NULLIF(%[1]s.apellido_paterno, ''), NULLIF(%[1]s.apellido_materno, ''))", alias)
}

// PostgresSource reads the rows a certificate is assembled from.
type PostgresSource struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresSource {
	return &PostgresSource{db: db}
}

// FindCore joins the active sacrament with its person, type, institution,
// book and officiant.
func (s *PostgresSource) FindCore(ctx context.Context, sacramentoID int64) (*models.Certificate, error) {
	query := `
		SELECT s.id, s.tipo_id, t.nombre, s.fecha_sacramento, s.foja, s.numero, s.observaciones,
			p.id, ` + fullName("p") + `, p.fecha_nacimiento, p.lugar_nacimiento,
			p.nombre_padre, p.nombre_madre, p.padrino, p.madrina, p.fecha_bautismo,
			i.id, i.nombre, i.direccion,
			l.id, l.nombre,
			u.id, u.nombre
		FROM sacramentos s
		JOIN tipos_sacramento t ON t.id = s.tipo_id
		JOIN personas p ON p.id = s.persona_id
		JOIN institucionesparroquias i ON i.id = s.institucion_id
		JOIN libros l ON l.id = s.libro_id
		JOIN usuarios u ON u.id = s.usuario_id
		WHERE s.id = $1 AND s.activo
	`
	var c models.Certificate
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, sacramentoID).Scan(
		&c.SacramentoID, &c.TipoID, &c.Tipo, &c.FechaSacramento, &c.Foja, &c.Numero, &c.Observaciones,
		&c.Persona.ID, &c.Persona.NombreCompleto, &c.Persona.FechaNacimiento, &c.Persona.LugarNacimiento,
		&c.Persona.NombrePadre, &c.Persona.NombreMadre, &c.Persona.Padrino, &c.Persona.Madrina, &c.Persona.FechaBautismo,
		&c.Institucion.ID, &c.Institucion.Nombre, &c.Institucion.Direccion,
		&c.Libro.ID, &c.Libro.Nombre,
		&c.Ministro.ID, &c.Ministro.Nombre,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find certificate core: %w", err)
	}
	return &c, nil
}

func (s *PostgresSource) FindBaptism(ctx context.Context, sacramentoID int64) (*models.BaptismDetail, error) {
	var d models.BaptismDetail
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT padrino, madrina, ministro FROM bautizos WHERE sacramento_id = $1`, sacramentoID,
	).Scan(&d.Padrino, &d.Madrina, &d.Ministro)
	if err != nil {
		return nil, detailErr("bautizo", err)
	}
	return &d, nil
}

func (s *PostgresSource) FindConfirmation(ctx context.Context, sacramentoID int64) (*models.ConfirmationDetail, error) {
	var d models.ConfirmationDetail
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx,
		`SELECT padrino, ministro FROM confirmaciones WHERE sacramento_id = $1`, sacramentoID,
	).Scan(&d.Padrino, &d.Ministro)
	if err != nil {
		return nil, detailErr("confirmacion", err)
	}
	return &d, nil
}

func (s *PostgresSource) FindMarriage(ctx context.Context, sacramentoID int64) (*models.MarriageDetail, error) {
	query := `
		SELECT m.esposo_id, ` + fullName("eo") + `, m.esposa_id, ` + fullName("ea") + `,
			m.padre_esposo, m.madre_esposo, m.padre_esposa, m.madre_esposa, m.testigo1, m.testigo2
		FROM matrimonios m
		JOIN personas eo ON eo.id = m.esposo_id
		JOIN personas ea ON ea.id = m.esposa_id
		WHERE m.sacramento_id = $1
	`
	var d models.MarriageDetail
	err := postgres.Conn(ctx, s.db).QueryRowContext(ctx, query, sacramentoID).Scan(
		&d.EsposoID, &d.EsposoNombre, &d.EsposaID, &d.EsposaNombre,
		&d.PadreEsposo, &d.MadreEsposo, &d.PadreEsposa, &d.MadreEsposa, &d.Testigo1, &d.Testigo2,
	)
	if err != nil {
		return nil, detailErr("matrimonio", err)
	}
	return &d, nil
}

// detailErr maps a missing row to ErrNotFound. Driver errors, including an
// undefined legacy table, are wrapped so callers can inspect them.
func detailErr(section string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("find %s detail: %w", section, err)
}
