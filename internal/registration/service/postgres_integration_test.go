//go:build integration

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	personstore "sacra360/internal/person/store"
	"sacra360/internal/platform/postgres"
	"sacra360/internal/registration/models"
	"sacra360/internal/registration/service"
	sacramentstore "sacra360/internal/sacrament/store"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/audit/publisher"
	auditstore "sacra360/pkg/platform/audit/store/postgres"
	"sacra360/pkg/testutil/containers"
)

// PostgresWorkflowSuite runs the registration workflows against real stores
// and one *sql.Tx per call.
type PostgresWorkflowSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	service  *service.Service
}

func TestPostgresWorkflowSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresWorkflowSuite))
}

func (s *PostgresWorkflowSuite) SetupSuite() {
	s.postgres = containers.GetManager().GetPostgres(s.T())
	db := s.postgres.DB
	svc, err := service.New(personstore.NewPostgres(db), sacramentstore.NewPostgres(db),
		service.WithTxRunner(postgres.NewTxRunner(db)),
		service.WithAuditPublisher(publisher.NewPublisher(auditstore.New(db))),
	)
	s.Require().NoError(err)
	s.service = svc
}

func (s *PostgresWorkflowSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateTables(context.Background(),
		"outbox", "bautizos", "confirmaciones", "matrimonios", "sacramentos",
		"personas", "libros", "institucionesparroquias", "usuarios"))
	s.exec(`INSERT INTO libros (nombre, fecha_inicio) VALUES ('Libro III', '1995-01-01')`)
	s.exec(`INSERT INTO institucionesparroquias (nombre) VALUES ('Catedral')`)
	s.exec(`INSERT INTO usuarios (nombre, email, password_hash) VALUES ('P. Jorge', 'jorge@sacra360.test', 'x')`)
}

func (s *PostgresWorkflowSuite) exec(query string, args ...any) {
	_, err := s.postgres.DB.ExecContext(context.Background(), query, args...)
	s.Require().NoError(err)
}

func (s *PostgresWorkflowSuite) count(table string) int {
	var n int
	s.Require().NoError(s.postgres.DB.QueryRowContext(context.Background(),
		`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func entry(libroID int64) models.BookEntry {
	return models.BookEntry{UsuarioID: 1, InstitucionID: 1, LibroID: libroID, Foja: "3", Numero: "21"}
}

func baptism() *models.BaptismRequest {
	return &models.BaptismRequest{
		Nombres:         "María",
		ApellidoPaterno: "Quispe",
		ApellidoMaterno: "Condori",
		FechaNacimiento: domain.NewDate(2020, time.March, 2),
		FechaBautismo:   domain.NewDate(2020, time.July, 19),
		Padrino:         "Luis",
		BookEntry:       entry(1),
	}
}

func (s *PostgresWorkflowSuite) TestBaptismTwiceIsRejected() {
	ctx := context.Background()
	first, err := s.service.RegisterBaptism(ctx, baptism())
	s.Require().NoError(err)
	s.NotZero(first.PersonaID)
	s.NotZero(first.SacramentoID)

	_, err = s.service.RegisterBaptism(ctx, baptism())
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
	s.Contains(err.Error(), "ya está registrada")

	s.Equal(1, s.count("personas"))
	s.Equal(1, s.count("sacramentos"))
	s.Equal(1, s.count("outbox"))
}

func (s *PostgresWorkflowSuite) TestBaptismWithUnknownBookRollsBackPerson() {
	req := baptism()
	req.LibroID = 404
	_, err := s.service.RegisterBaptism(context.Background(), req)
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeIntegrity))

	s.Zero(s.count("personas"))
	s.Zero(s.count("outbox"))
}

func (s *PostgresWorkflowSuite) TestMarriageCommitsEveryRow() {
	res, err := s.service.RegisterMarriage(context.Background(), &models.MarriageRequest{
		Esposo:          models.Spouse{Nombres: "Juan", ApellidoPaterno: "Mamani", FechaNacimiento: domain.NewDate(1990, time.May, 1)},
		Esposa:          models.Spouse{Nombres: "Rosa", ApellidoPaterno: "Flores", FechaNacimiento: domain.NewDate(1992, time.May, 1)},
		FechaMatrimonio: domain.NewDate(2019, time.October, 12),
		Testigo1:        "Pedro",
		BookEntry:       entry(1),
	})
	s.Require().NoError(err)
	s.NotEqual(res.EsposoID, res.EsposaID)

	var personaID int64
	s.Require().NoError(s.postgres.DB.QueryRowContext(context.Background(),
		`SELECT persona_id FROM sacramentos WHERE id = $1`, res.SacramentoID).Scan(&personaID))
	s.Equal(res.EsposoID, personaID)
	s.Equal(1, s.count("matrimonios"))
	s.Equal(1, s.count("outbox"))
}

func (s *PostgresWorkflowSuite) TestMarriageFailureLeavesNoSpouses() {
	_, err := s.service.RegisterMarriage(context.Background(), &models.MarriageRequest{
		Esposo:          models.Spouse{Nombres: "Juan", ApellidoPaterno: "Mamani", FechaNacimiento: domain.NewDate(1990, time.May, 1)},
		Esposa:          models.Spouse{Nombres: "Rosa", ApellidoPaterno: "Flores", FechaNacimiento: domain.NewDate(1992, time.May, 1)},
		FechaMatrimonio: domain.NewDate(2019, time.October, 12),
		BookEntry:       entry(404),
	})
	s.Require().Error(err)

	s.Zero(s.count("personas"))
	s.Zero(s.count("sacramentos"))
	s.Zero(s.count("matrimonios"))
}
