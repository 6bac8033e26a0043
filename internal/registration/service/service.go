package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks PersonStore,SacramentStore,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	personmodels "sacra360/internal/person/models"
	"sacra360/internal/platform/postgres"
	"sacra360/internal/registration/models"
	"sacra360/internal/sacrament/metrics"
	sacramentmodels "sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

const (
	kindBaptism  = "bautizo"
	kindMarriage = "matrimonio"
)

type PersonStore interface {
	Create(ctx context.Context, p *personmodels.Person) error
	FindByIdentity(ctx context.Context, key personmodels.Identity) (*personmodels.Person, error)
}

type SacramentStore interface {
	Create(ctx context.Context, s *sacramentmodels.Sacrament) error
	CreateMarriage(ctx context.Context, m *sacramentmodels.Marriage) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// Service runs the compound registrations. Each one inserts every row it
// needs through the stores inside a single RunInTx, so a failure at any step
// leaves no partial person or sacrament behind.
type Service struct {
	people         PersonStore
	sacraments     SacramentStore
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(people PersonStore, sacraments SacramentStore, opts ...Option) (*Service, error) {
	if people == nil {
		return nil, errors.New("person store is required")
	}
	if sacraments == nil {
		return nil, errors.New("sacrament store is required")
	}
	s := &Service{people: people, sacraments: sacraments}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.tracer = otel.Tracer("sacra360/registration")
	return s, nil
}

// RegisterBaptism inserts the baptized person and the baptism sacrament. A
// person with the same names, birth date and baptism date is rejected.
func (s *Service) RegisterBaptism(ctx context.Context, req *models.BaptismRequest) (result *models.BaptismResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registration.RegisterBaptism")
	defer func() {
		s.finish(ctx, span, kindBaptism, err, start)
	}()

	usuarioID, err := officiant(ctx, req.UsuarioID)
	if err != nil {
		return nil, err
	}
	person := req.Person()

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		existing, err := s.people.FindByIdentity(txCtx, person.Identity())
		switch {
		case err == nil:
			return s.alreadyRegistered(existing.Identity(), existing.ID)
		case !errors.Is(err, sentinel.ErrNotFound):
			return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar la persona")
		}

		now := requestcontext.Now(txCtx)
		stamp(person, now)
		if err := s.people.Create(txCtx, person); err != nil {
			if errors.Is(err, sentinel.ErrAlreadyUsed) {
				return s.alreadyRegistered(person.Identity(), 0)
			}
			return wrapInsertErr(err, "no se pudo registrar la persona")
		}

		entry := req.Sacrament(person.ID, domain.SacramentBaptism, req.FechaBautismo)
		entry.UsuarioID = usuarioID
		sac := entry.Build(now)
		if err := s.sacraments.Create(txCtx, sac); err != nil {
			return wrapInsertErr(err, "no se pudo registrar el bautizo")
		}

		if err := s.emit(txCtx, audit.EventBaptismRegistered, sac.ID, person.FullName()); err != nil {
			return err
		}
		result = &models.BaptismResult{PersonaID: person.ID, SacramentoID: sac.ID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("persona_id", result.PersonaID),
		attribute.Int64("sacramento_id", result.SacramentoID),
	)
	s.metrics.IncrementSacramentCreated(domain.SacramentBaptism.DisplayName())
	return result, nil
}

// RegisterMarriage inserts both spouses, one marriage sacrament recorded
// against the groom and the marriage detail linking them.
func (s *Service) RegisterMarriage(ctx context.Context, req *models.MarriageRequest) (result *models.MarriageResult, err error) {
	start := time.Now()
	ctx, span := s.tracer.Start(ctx, "registration.RegisterMarriage")
	defer func() {
		s.finish(ctx, span, kindMarriage, err, start)
	}()

	usuarioID, err := officiant(ctx, req.UsuarioID)
	if err != nil {
		return nil, err
	}

	err = s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		esposo, esposa := req.Esposo.Person(), req.Esposa.Person()
		for _, p := range []*personmodels.Person{esposo, esposa} {
			stamp(p, now)
			if err := s.people.Create(txCtx, p); err != nil {
				return wrapInsertErr(err, "no se pudo registrar al cónyuge")
			}
		}

		entry := req.Sacrament(esposo.ID, domain.SacramentMarriage, req.FechaMatrimonio)
		entry.UsuarioID = usuarioID
		sac := entry.Build(now)
		if err := s.sacraments.Create(txCtx, sac); err != nil {
			return wrapInsertErr(err, "no se pudo registrar el matrimonio")
		}

		detail := req.Marriage(sac.ID, esposo.ID, esposa.ID)
		if err := s.sacraments.CreateMarriage(txCtx, detail); err != nil {
			return wrapInsertErr(err, "no se pudo registrar el detalle del matrimonio")
		}

		subject := esposo.FullName() + " y " + esposa.FullName()
		if err := s.emit(txCtx, audit.EventMarriageRegistered, sac.ID, subject); err != nil {
			return err
		}
		result = &models.MarriageResult{
			EsposoID:     esposo.ID,
			EsposaID:     esposa.ID,
			SacramentoID: sac.ID,
			MatrimonioID: detail.ID,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.Int64("sacramento_id", result.SacramentoID),
		attribute.Int64("matrimonio_id", result.MatrimonioID),
	)
	s.metrics.IncrementSacramentCreated(domain.SacramentMarriage.DisplayName())
	return result, nil
}

func (s *Service) finish(ctx context.Context, span trace.Span, kind string, err error, start time.Time) {
	defer span.End()
	s.metrics.ObserveRegistration(kind, err, start)
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, string(dErrors.CodeOf(err)))
	if dErrors.CodeOf(err) == dErrors.CodeInternal {
		s.logger.ErrorContext(ctx, "registration failed",
			"kind", kind,
			"request_id", requestcontext.RequestID(ctx),
			"error", err,
		)
	}
}

func (s *Service) alreadyRegistered(id personmodels.Identity, existingID int64) error {
	s.metrics.IncrementDuplicate("persona")
	de := dErrors.New(dErrors.CodeDuplicate, fmt.Sprintf(
		"La persona %s, nacida el %s y bautizada el %s, ya está registrada",
		id.FullName(), id.FechaNacimiento, id.FechaBautismo))
	if existingID != 0 {
		de.WithDetail("existing_id", existingID)
	}
	return de
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, sacramentoID int64, subject string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "sacramento",
		AggregateID:   strconv.FormatInt(sacramentoID, 10),
		Subject:       subject,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"sacramento_id", sacramentoID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

// officiant returns the recording user: the explicit id or the caller.
func officiant(ctx context.Context, explicit int64) (int64, error) {
	if explicit != 0 {
		return explicit, nil
	}
	if id := requestcontext.UserID(ctx); id != 0 {
		return id, nil
	}
	return 0, dErrors.New(dErrors.CodeValidation, "datos inválidos: usuario_id").
		WithDetail("usuario_id", "es obligatorio")
}

func stamp(p *personmodels.Person, now time.Time) {
	p.Activo = true
	p.FechaRegistro = now
	p.FechaActualizacion = now
}

func wrapInsertErr(err error, msg string) error {
	if ce, ok := postgres.AsConstraint(err); ok {
		return dErrors.Wrap(err, dErrors.CodeIntegrity, msg+": "+ce.Detail).WithDetail("detalle", ce.Detail)
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
