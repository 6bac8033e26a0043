package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Remote,AuditPublisher

import (
	"context"
	"errors"
	"log/slog"
	"strconv"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/result/metrics"
	"sacra360/internal/result/models"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/circuit"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

// Store is the local resultados table.
type Store interface {
	Create(ctx context.Context, r *models.StoredResult) error
}

// Remote is the hosted document store.
type Remote interface {
	CreateDocument(ctx context.Context, collection string, doc map[string]any) (string, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	local          Store
	remote         Remote
	breaker        *circuit.Breaker
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
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

// WithRemote sends results to the document store first. Without it every
// result is stored locally.
func WithRemote(r Remote) Option {
	return func(s *Service) {
		s.remote = r
	}
}

// WithBreaker replaces the default breaker guarding the remote.
func WithBreaker(b *circuit.Breaker) Option {
	return func(s *Service) {
		s.breaker = b
	}
}

func New(local Store, opts ...Option) (*Service, error) {
	if local == nil {
		return nil, errors.New("result store is required")
	}
	s := &Service{local: local}
	for _, opt := range opts {
		opt(s)
	}
	if s.breaker == nil {
		s.breaker = circuit.New("docstore")
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Create stores a recognition result in the document store, or in the local
// resultados table when the document store is not configured, is failing, or
// its circuit is open.
func (s *Service) Create(ctx context.Context, req *models.CreateResultRequest) (*models.Result, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	result := &models.Result{
		Coleccion:     req.Coleccion,
		DocumentoID:   req.DocumentoID,
		FechaRegistro: now,
	}

	reason := metrics.ReasonNotConfigured
	if s.remote != nil {
		id, attempted, err := s.tryRemote(ctx, req)
		if attempted && err == nil {
			result.ID = id
			result.Almacenamiento = models.StorageRemote
			if err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
				return s.emit(txCtx, result)
			}); err != nil {
				return nil, err
			}
			s.metrics.IncrementStored(models.StorageRemote)
			return result, nil
		}
		reason = metrics.ReasonCircuitOpen
		if attempted {
			reason = metrics.ReasonRemoteError
		}
	}

	s.metrics.IncrementFallback(reason)
	stored := &models.StoredResult{
		Coleccion:     req.Coleccion,
		DocumentoID:   req.DocumentoID,
		Payload:       req.Datos,
		FechaRegistro: now,
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.local.Create(txCtx, stored); err != nil {
			if ce, ok := postgres.AsConstraint(err); ok {
				return dErrors.Wrap(err, dErrors.CodeIntegrity, "el documento indicado no existe").
					WithDetail("detalle", ce.Detail)
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo guardar el resultado")
		}
		result.ID = strconv.FormatInt(stored.ID, 10)
		result.Almacenamiento = models.StorageLocal
		return s.emit(txCtx, result)
	})
	if err != nil {
		return nil, err
	}
	s.metrics.IncrementStored(models.StorageLocal)
	return result, nil
}

// tryRemote calls the document store when the breaker allows it. attempted
// is false when the call was short-circuited.
func (s *Service) tryRemote(ctx context.Context, req *models.CreateResultRequest) (id string, attempted bool, err error) {
	if !s.breaker.Allow() {
		return "", false, nil
	}
	id, err = s.remote.CreateDocument(ctx, req.Coleccion, req.Document())
	if err != nil {
		_, change := s.breaker.RecordFailure()
		s.logger.WarnContext(ctx, "document store write failed, storing result locally",
			"coleccion", req.Coleccion,
			"error", err,
		)
		if change.Opened {
			s.logger.WarnContext(ctx, "document store circuit opened", "breaker", s.breaker.Name())
			s.metrics.SetCircuitOpen(true)
		}
		return "", true, err
	}
	if _, change := s.breaker.RecordSuccess(); change.Closed {
		s.logger.InfoContext(ctx, "document store circuit closed", "breaker", s.breaker.Name())
		s.metrics.SetCircuitOpen(false)
	}
	return id, true, nil
}

func (s *Service) emit(ctx context.Context, r *models.Result) error {
	if s.auditPublisher == nil {
		return nil
	}
	details := map[string]any{"coleccion": r.Coleccion, "almacenamiento": r.Almacenamiento}
	if r.DocumentoID != nil {
		details["documento_id"] = *r.DocumentoID
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(audit.EventResultStored),
		AggregateType: "resultado",
		AggregateID:   r.ID,
		Details:       details,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", audit.EventResultStored, "resultado_id", r.ID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}
