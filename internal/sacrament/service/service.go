package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher,CacheInvalidator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"sacra360/internal/platform/postgres"
	"sacra360/internal/sacrament/metrics"
	"sacra360/internal/sacrament/models"
	"sacra360/internal/sacrament/store"
	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

type Store interface {
	Create(ctx context.Context, s *models.Sacrament) error
	FindDuplicate(ctx context.Context, personaID int64, tipoID domain.SacramentType) (*models.Duplicate, error)
	FindByID(ctx context.Context, id int64) (*models.Sacrament, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Sacrament, error)
	Update(ctx context.Context, s *models.Sacrament) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
	Purge(ctx context.Context, id int64) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// CacheInvalidator drops derived views of a sacrament, such as assembled
// certificates, after it changes.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sacramentoID int64) error
}

const msgNotFound = "sacramento no encontrado"

// Service records sacraments and guards the one-active-per-type rule.
type Service struct {
	store          Store
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	cache          CacheInvalidator
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

// WithCacheInvalidator registers a cache to clear after committed changes.
func WithCacheInvalidator(cache CacheInvalidator) Option {
	return func(s *Service) {
		s.cache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("sacrament store is required")
	}
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	if s.tx == nil {
		s.tx = tx.NewMemoryRunner()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s, nil
}

// Create checks for an active sacrament of the same type and inserts the new
// one. The partial unique index catches concurrent inserts that pass the
// check; both paths surface the same duplicate error.
func (s *Service) Create(ctx context.Context, req *models.CreateSacramentRequest) (*models.Sacrament, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	var created *models.Sacrament
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.rejectDuplicate(txCtx, req.PersonaID, req.TipoID, 0); err != nil {
			return err
		}
		sac := req.Build(requestcontext.Now(txCtx))
		if err := s.store.Create(txCtx, sac); err != nil {
			return err
		}
		if err := s.emit(txCtx, audit.EventSacramentCreated, sac); err != nil {
			return err
		}
		created = sac
		return nil
	})
	if err != nil {
		return nil, s.writeErr(ctx, err, req.PersonaID, req.TipoID, "no se pudo crear el sacramento")
	}
	s.metrics.IncrementSacramentCreated(created.TipoID.DisplayName())
	return created, nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Sacrament, error) {
	sac, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapSacramentErr(err, "no se pudo obtener el sacramento")
	}
	return sac, nil
}

func (s *Service) List(ctx context.Context, f models.ListFilter) ([]*models.Sacrament, error) {
	if !f.Desde.IsZero() && !f.Hasta.IsZero() && f.Hasta.Before(f.Desde) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "fecha_hasta no puede ser anterior a fecha_desde")
	}
	out, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar sacramentos")
	}
	return out, nil
}

// Update replaces every editable field of an active sacrament.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdateSacramentRequest) (*models.Sacrament, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	var updated *models.Sacrament
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sac, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.rejectDuplicate(txCtx, req.PersonaID, req.TipoID, id); err != nil {
			return err
		}
		req.Apply(sac, requestcontext.Now(txCtx))
		if err := s.store.Update(txCtx, sac); err != nil {
			return err
		}
		if err := s.emit(txCtx, audit.EventSacramentUpdated, sac); err != nil {
			return err
		}
		updated = sac
		return nil
	})
	if err != nil {
		return nil, s.writeErr(ctx, err, req.PersonaID, req.TipoID, "no se pudo actualizar el sacramento")
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Deactivate soft-deletes an active sacrament.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		sac, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return err
		}
		if err := s.store.Deactivate(txCtx, id, requestcontext.Now(txCtx)); err != nil {
			return err
		}
		return s.emit(txCtx, audit.EventSacramentDeactivate, sac)
	})
	if err != nil {
		return wrapSacramentErr(err, "no se pudo desactivar el sacramento")
	}
	s.invalidate(ctx, id)
	return nil
}

// Purge hard-deletes a sacrament, active or not, with its detail rows in one
// transaction.
func (s *Service) Purge(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Purge(txCtx, id); err != nil {
			return err
		}
		return s.emit(txCtx, audit.EventSacramentPurged, &models.Sacrament{ID: id})
	})
	if err != nil {
		return wrapSacramentErr(err, "no se pudo eliminar el sacramento")
	}
	s.invalidate(ctx, id)
	return nil
}

// rejectDuplicate fails when another active sacrament of the type exists
// for the person. self is excluded so updates can keep their own pair.
func (s *Service) rejectDuplicate(ctx context.Context, personaID int64, tipoID domain.SacramentType, self int64) error {
	d, err := s.store.FindDuplicate(ctx, personaID, tipoID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo verificar duplicados")
	}
	if d.SacramentoID == self {
		return nil
	}
	s.metrics.IncrementDuplicate("sacramento")
	return DuplicateError(d)
}

// writeErr translates a failed write. A unique violation on the active pair
// means a concurrent writer won after the pre-check; the winner is looked up
// outside the aborted transaction to report it.
func (s *Service) writeErr(ctx context.Context, err error, personaID int64, tipoID domain.SacramentType, msg string) error {
	if !postgres.IsConstraint(err, store.UniqueActiveConstraint) {
		return wrapSacramentErr(err, msg)
	}
	s.metrics.IncrementDuplicate("sacramento")
	d, findErr := s.store.FindDuplicate(ctx, personaID, tipoID)
	if findErr != nil {
		return dErrors.Wrap(err, dErrors.CodeDuplicate, "ya existe un sacramento activo de este tipo para la persona")
	}
	return DuplicateError(d)
}

// DuplicateError describes the sacrament that blocks a new one.
func DuplicateError(d *models.Duplicate) *dErrors.Error {
	name := d.NombreCompleto
	if name == "" {
		name = "persona " + strconv.FormatInt(d.PersonaID, 10)
	}
	msg := fmt.Sprintf("%s ya tiene %s registrado el %s", name, tipoLabel(d.TipoID), d.FechaSacramento)
	return dErrors.New(dErrors.CodeDuplicate, msg).
		WithDetail("existing_id", d.SacramentoID).
		WithDetail("persona", name).
		WithDetail("fecha_sacramento", d.FechaSacramento.String())
}

func tipoLabel(t domain.SacramentType) string {
	if n := t.DisplayName(); n != "" {
		return "un sacramento de " + n
	}
	return "un sacramento de este tipo"
}

func (s *Service) invalidate(ctx context.Context, id int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate certificate cache",
			"sacramento_id", id,
			"error", err,
		)
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, sac *models.Sacrament) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "sacramento",
		AggregateID:   strconv.FormatInt(sac.ID, 10),
		Subject:       strconv.FormatInt(sac.PersonaID, 10),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"sacramento_id", sac.ID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func wrapSacramentErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, msgNotFound)
	}
	if ce, ok := postgres.AsConstraint(err); ok {
		return dErrors.Wrap(err, dErrors.CodeIntegrity, "referencia inválida: "+ce.Detail).WithDetail("detalle", ce.Detail)
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
