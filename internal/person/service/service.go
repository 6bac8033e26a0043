package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,AuditPublisher,SacramentLookup,CacheInvalidator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"sacra360/internal/person/models"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

// Store is the persistence contract for administrative person maintenance.
type Store interface {
	FindByID(ctx context.Context, id int64) (*models.Person, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Person, error)
	Update(ctx context.Context, p *models.Person) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SacramentLookup finds the sacraments whose certificates show a person.
type SacramentLookup interface {
	IDsByPersona(ctx context.Context, personaID int64) ([]int64, error)
}

// CacheInvalidator drops the cached certificate of a sacrament.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sacramentoID int64) error
}

// Service corrects and retires person records. Persons are created only by
// the registration workflows.
type Service struct {
	store          Store
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	sacraments     SacramentLookup
	cache          CacheInvalidator
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

// WithTxRunner makes updates and their audit events atomic.
func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// WithCacheInvalidator clears the certificates of every sacrament showing a
// person once a change to that person commits.
func WithCacheInvalidator(sacraments SacramentLookup, cache CacheInvalidator) Option {
	return func(s *Service) {
		s.sacraments = sacraments
		s.cache = cache
	}
}

func New(store Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("person store is required")
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

func (s *Service) Get(ctx context.Context, id int64) (*models.Person, error) {
	p, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, wrapPersonErr(err, "no se pudo obtener la persona")
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, f models.ListFilter) ([]*models.Person, error) {
	people, err := s.store.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar personas")
	}
	return people, nil
}

// Update replaces every editable field of an active person.
func (s *Service) Update(ctx context.Context, id int64, req *models.UpdatePersonRequest) (*models.Person, error) {
	var updated *models.Person
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapPersonErr(err, "no se pudo obtener la persona")
		}
		req.Apply(p)
		p.FechaActualizacion = requestcontext.Now(txCtx)

		if err := s.store.Update(txCtx, p); err != nil {
			return wrapPersonErr(err, "no se pudo actualizar la persona")
		}
		if err := s.emit(txCtx, audit.EventPersonUpdated, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)
	return updated, nil
}

// Deactivate soft-deletes a person. Sacraments referencing it are kept.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		p, err := s.store.FindByID(txCtx, id)
		if err != nil {
			return wrapPersonErr(err, "no se pudo obtener la persona")
		}
		if err := s.store.Deactivate(txCtx, id, requestcontext.Now(txCtx)); err != nil {
			return wrapPersonErr(err, "no se pudo desactivar la persona")
		}
		return s.emit(txCtx, audit.EventPersonDeactivated, p)
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

// invalidate is best effort: a stale certificate expires with its TTL.
func (s *Service) invalidate(ctx context.Context, personaID int64) {
	if s.sacraments == nil || s.cache == nil {
		return
	}
	ids, err := s.sacraments.IDsByPersona(ctx, personaID)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to look up sacraments for cache invalidation",
			"persona_id", personaID,
			"error", err,
		)
		return
	}
	for _, id := range ids {
		if err := s.cache.Invalidate(ctx, id); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate certificate cache",
				"persona_id", personaID,
				"sacramento_id", id,
				"error", err,
			)
		}
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, p *models.Person) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: "persona",
		AggregateID:   strconv.FormatInt(p.ID, 10),
		Subject:       p.FullName(),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event",
			"action", action,
			"persona_id", p.ID,
			"error", err,
		)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func wrapPersonErr(err error, msg string) error {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		return dErrors.New(dErrors.CodeNotFound, "persona no encontrada")
	case errors.Is(err, sentinel.ErrAlreadyUsed):
		return dErrors.New(dErrors.CodeDuplicate, "ya existe una persona con los mismos nombres y fechas")
	case dErrors.CodeOf(err) != dErrors.CodeInternal:
		return err
	default:
		return dErrors.Wrap(err, dErrors.CodeInternal, msg)
	}
}
