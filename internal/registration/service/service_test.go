package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	personmodels "sacra360/internal/person/models"
	personstore "sacra360/internal/person/store"
	"sacra360/internal/registration/models"
	"sacra360/internal/registration/service/mocks"
	"sacra360/internal/sacrament/metrics"
	sacramentmodels "sacra360/internal/sacrament/models"
	sacramentstore "sacra360/internal/sacrament/store"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
	pkgtestutil "sacra360/pkg/testutil"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func baptismRequest() *models.BaptismRequest {
	return &models.BaptismRequest{
		Nombres:         "Ana",
		ApellidoPaterno: "Paz",
		ApellidoMaterno: "Ruiz",
		FechaNacimiento: domain.NewDate(2000, time.January, 1),
		FechaBautismo:   domain.NewDate(2000, time.February, 1),
		BookEntry:       models.BookEntry{UsuarioID: 1, InstitucionID: 2, LibroID: 3, Foja: "4"},
	}
}

func marriageRequest() *models.MarriageRequest {
	return &models.MarriageRequest{
		Esposo: models.Spouse{Nombres: "Juan", ApellidoPaterno: "Mamani", FechaNacimiento: domain.NewDate(1990, time.March, 3),
			NombrePadre: "Pedro Mamani"},
		Esposa: models.Spouse{Nombres: "Rosa", ApellidoPaterno: "Flores", FechaNacimiento: domain.NewDate(1992, time.April, 4),
			NombreMadre: "Carmen Flores"},
		FechaMatrimonio: domain.NewDate(2020, time.December, 12),
		Testigo1:        "Luis Choque",
		BookEntry:       models.BookEntry{UsuarioID: 1, InstitucionID: 2, LibroID: 3},
	}
}

type RegistrationServiceSuite struct {
	suite.Suite
	ctrl       *gomock.Controller
	people     *mocks.MockPersonStore
	sacraments *mocks.MockSacramentStore
	publisher  *mocks.MockAuditPublisher
	metrics    *metrics.Metrics
	service    *Service
	ctx        context.Context
	now        time.Time
}

func TestRegistrationServiceSuite(t *testing.T) {
	suite.Run(t, new(RegistrationServiceSuite))
}

func (s *RegistrationServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.people = mocks.NewMockPersonStore(s.ctrl)
	s.sacraments = mocks.NewMockSacramentStore(s.ctrl)
	s.publisher = mocks.NewMockAuditPublisher(s.ctrl)
	s.metrics = metrics.New(prometheus.NewRegistry())
	var err error
	s.service, err = New(s.people, s.sacraments,
		WithLogger(discard),
		WithAuditPublisher(s.publisher),
		WithMetrics(s.metrics),
	)
	s.Require().NoError(err)
	s.now = time.Date(2025, time.March, 9, 8, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func (s *RegistrationServiceSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *RegistrationServiceSuite) TestNew() {
	_, err := New(nil, s.sacraments)
	s.ErrorContains(err, "person store is required")
	_, err = New(s.people, nil)
	s.ErrorContains(err, "sacrament store is required")
}

func (s *RegistrationServiceSuite) TestRegisterBaptism() {
	s.Run("inserts the person then a baptism dated on the baptism day", func() {
		s.people.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.people.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, p *personmodels.Person) error {
				s.True(p.Activo)
				s.Equal(s.now, p.FechaRegistro)
				p.ID = 21
				return nil
			})
		s.sacraments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, sac *sacramentmodels.Sacrament) error {
				s.Equal(int64(21), sac.PersonaID)
				s.Equal(domain.SacramentBaptism, sac.TipoID)
				s.Equal("2000-02-01", sac.FechaSacramento.String())
				sac.ID = 34
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, e audit.Event) error {
				s.Equal(string(audit.EventBaptismRegistered), e.Action)
				s.Equal("34", e.AggregateID)
				s.Equal("Ana Paz Ruiz", e.Subject)
				return nil
			})

		res, err := s.service.RegisterBaptism(s.ctx, baptismRequest())
		s.Require().NoError(err)
		s.Equal(&models.BaptismResult{PersonaID: 21, SacramentoID: 34}, res)
		s.InDelta(1, testutil.ToFloat64(s.metrics.Registrations.WithLabelValues(kindBaptism, "ok")), 0)
	})

	s.Run("an existing identity is already registered", func() {
		existing := baptismRequest().Person()
		existing.ID = 5
		s.people.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(existing, nil)

		_, err := s.service.RegisterBaptism(s.ctx, baptismRequest())
		de, ok := dErrors.As(err)
		s.Require().True(ok)
		s.Equal(dErrors.CodeDuplicate, de.Code)
		s.Contains(de.Message, "ya está registrada")
		s.Equal(int64(5), de.Details["existing_id"])
	})

	s.Run("a unique violation on insert maps to the same error", func() {
		s.people.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.people.EXPECT().Create(gomock.Any(), gomock.Any()).Return(sentinel.ErrAlreadyUsed)

		_, err := s.service.RegisterBaptism(s.ctx, baptismRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeDuplicate))
		s.ErrorContains(err, "ya está registrada")
	})

	s.Run("falls back to the authenticated officiant", func() {
		req := baptismRequest()
		req.UsuarioID = 0
		ctx := requestcontext.WithPrincipal(s.ctx, requestcontext.Principal{UserID: 8, Role: "sacerdote"})
		s.people.EXPECT().FindByIdentity(gomock.Any(), gomock.Any()).Return(nil, sentinel.ErrNotFound)
		s.people.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.sacraments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, sac *sacramentmodels.Sacrament) error {
				s.Equal(int64(8), sac.UsuarioID)
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		_, err := s.service.RegisterBaptism(ctx, req)
		s.NoError(err)
	})

	s.Run("without any officiant it is a validation error", func() {
		req := baptismRequest()
		req.UsuarioID = 0
		_, err := s.service.RegisterBaptism(s.ctx, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *RegistrationServiceSuite) TestRegisterMarriage() {
	s.Run("inserts both spouses, the sacrament for the groom and the detail", func() {
		ids := int64(40)
		s.people.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).DoAndReturn(
			func(_ context.Context, p *personmodels.Person) error {
				ids++
				p.ID = ids
				return nil
			})
		s.sacraments.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, sac *sacramentmodels.Sacrament) error {
				s.Equal(int64(41), sac.PersonaID)
				s.Equal(domain.SacramentMarriage, sac.TipoID)
				sac.ID = 50
				return nil
			})
		s.sacraments.EXPECT().CreateMarriage(gomock.Any(), gomock.Any()).DoAndReturn(
			func(_ context.Context, m *sacramentmodels.Marriage) error {
				s.Equal(int64(41), m.EsposoID)
				s.Equal(int64(42), m.EsposaID)
				s.Equal("Pedro Mamani", m.PadreEsposo)
				s.Equal("Carmen Flores", m.MadreEsposa)
				m.ID = 60
				return nil
			})
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(nil)

		res, err := s.service.RegisterMarriage(s.ctx, marriageRequest())
		s.Require().NoError(err)
		s.Equal(&models.MarriageResult{EsposoID: 41, EsposaID: 42, SacramentoID: 50, MatrimonioID: 60}, res)
	})

	s.Run("audit failure fails the registration", func() {
		s.people.EXPECT().Create(gomock.Any(), gomock.Any()).Times(2).Return(nil)
		s.sacraments.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
		s.sacraments.EXPECT().CreateMarriage(gomock.Any(), gomock.Any()).Return(nil)
		s.publisher.EXPECT().Emit(gomock.Any(), gomock.Any()).Return(errors.New("outbox down"))

		_, err := s.service.RegisterMarriage(s.ctx, marriageRequest())
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
		s.InDelta(1, testutil.ToFloat64(s.metrics.Registrations.WithLabelValues(kindMarriage, "error")), 0)
	})
}

// failingMarriages wraps a real store and rejects every marriage detail.
type failingMarriages struct {
	*sacramentstore.InMemory
}

func (failingMarriages) CreateMarriage(context.Context, *sacramentmodels.Marriage) error {
	return errors.New("disk full")
}

func TestRegistrationAtomicity(t *testing.T) {
	ctx := requestcontext.WithTime(context.Background(), time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))

	pkgtestutil.Given(t, "a marriage whose detail insert fails", func(t *testing.T) {
		people := personstore.NewInMemory()
		sacraments := sacramentstore.NewInMemory(sacramentstore.References{People: people})
		svc, err := New(people, failingMarriages{sacraments},
			WithLogger(discard),
			WithTxRunner(tx.NewMemoryRunner(people, sacraments)),
		)
		require.NoError(t, err)

		pkgtestutil.When(t, "the marriage is registered", func(t *testing.T) {
			_, err := svc.RegisterMarriage(ctx, marriageRequest())
			require.Error(t, err)

			pkgtestutil.Then(t, "no spouse or sacrament survives", func(t *testing.T) {
				assert.Equal(t, 0, people.Count())
				assert.Equal(t, 0, sacraments.Count())
				assert.Equal(t, 0, sacraments.CountMarriages())
			})
		})
	})

	pkgtestutil.Given(t, "a baptism whose sacrament insert violates a foreign key", func(t *testing.T) {
		people := personstore.NewInMemory()
		sacraments := sacramentstore.NewInMemory(sacramentstore.References{
			People: people,
			Books:  noRows{},
		})
		svc, err := New(people, sacraments, WithLogger(discard), WithTxRunner(tx.NewMemoryRunner(people, sacraments)))
		require.NoError(t, err)

		pkgtestutil.When(t, "the baptism is registered", func(t *testing.T) {
			_, err := svc.RegisterBaptism(ctx, baptismRequest())

			pkgtestutil.Then(t, "it is an integrity error and the person is rolled back", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeIntegrity))
				assert.Equal(t, 0, people.Count())
			})
		})
	})

	pkgtestutil.Given(t, "a registered baptism", func(t *testing.T) {
		people := personstore.NewInMemory()
		sacraments := sacramentstore.NewInMemory(sacramentstore.References{People: people})
		svc, err := New(people, sacraments, WithLogger(discard), WithTxRunner(tx.NewMemoryRunner(people, sacraments)))
		require.NoError(t, err)
		_, err = svc.RegisterBaptism(ctx, baptismRequest())
		require.NoError(t, err)

		pkgtestutil.When(t, "the same person is registered again", func(t *testing.T) {
			_, err := svc.RegisterBaptism(ctx, baptismRequest())

			pkgtestutil.Then(t, "it is rejected and nothing is added", func(t *testing.T) {
				assert.True(t, dErrors.HasCode(err, dErrors.CodeDuplicate))
				assert.Equal(t, 1, people.Count())
				assert.Equal(t, 1, sacraments.Count())
			})
		})
	})
}

type noRows struct{}

func (noRows) NameOf(int64) (string, bool) { return "", false }
