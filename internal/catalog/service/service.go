package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks BookStore,InstitutionStore,AuditPublisher,SacramentLookup,CacheInvalidator

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"sacra360/internal/catalog/models"
	"sacra360/internal/platform/postgres"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

type BookStore interface {
	Create(ctx context.Context, b *models.Book) error
	FindByID(ctx context.Context, id int64) (*models.Book, error)
	List(ctx context.Context, f models.BookFilter) ([]*models.Book, error)
	Update(ctx context.Context, b *models.Book) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
}

type InstitutionStore interface {
	Create(ctx context.Context, i *models.Institution) error
	FindByID(ctx context.Context, id int64) (*models.Institution, error)
	List(ctx context.Context, f models.InstitutionFilter) ([]*models.Institution, error)
	Update(ctx context.Context, i *models.Institution) error
	Deactivate(ctx context.Context, id int64, at time.Time) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

// SacramentLookup finds the sacraments whose certificates show a book or
// institution.
type SacramentLookup interface {
	IDsByBook(ctx context.Context, libroID int64) ([]int64, error)
	IDsByInstitution(ctx context.Context, institucionID int64) ([]int64, error)
}

// CacheInvalidator drops the cached certificate of a sacrament.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, sacramentoID int64) error
}

// Service maintains the book and institution catalogs referenced by every
// sacrament.
type Service struct {
	books          BookStore
	institutions   InstitutionStore
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

func WithTxRunner(runner tx.Runner) Option {
	return func(s *Service) {
		s.tx = runner
	}
}

// WithCacheInvalidator clears the certificates that show a book or
// institution once a change to it commits.
func WithCacheInvalidator(sacraments SacramentLookup, cache CacheInvalidator) Option {
	return func(s *Service) {
		s.sacraments = sacraments
		s.cache = cache
	}
}

func New(books BookStore, institutions InstitutionStore, opts ...Option) (*Service, error) {
	if books == nil {
		return nil, errors.New("book store is required")
	}
	if institutions == nil {
		return nil, errors.New("institution store is required")
	}
	s := &Service{books: books, institutions: institutions}
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

func (s *Service) CreateBook(ctx context.Context, req *models.BookRequest) (*models.Book, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	var created *models.Book
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		b := &models.Book{Activo: true, FechaRegistro: now, FechaActualizacion: now}
		req.Apply(b)
		if err := s.books.Create(txCtx, b); err != nil {
			return wrapCatalogErr(err, msgBookNotFound, "no se pudo crear el libro")
		}
		if err := s.emit(txCtx, audit.EventBookCreated, "libro", b.ID, b.Nombre); err != nil {
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetBook(ctx context.Context, id int64) (*models.Book, error) {
	b, err := s.books.FindByID(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, msgBookNotFound, "no se pudo obtener el libro")
	}
	return b, nil
}

func (s *Service) ListBooks(ctx context.Context, f models.BookFilter) ([]*models.Book, error) {
	if !f.Desde.IsZero() && !f.Hasta.IsZero() && f.Hasta.Before(f.Desde) {
		return nil, dErrors.New(dErrors.CodeBadRequest, "el rango de fechas es inválido")
	}
	books, err := s.books.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar libros")
	}
	return books, nil
}

func (s *Service) UpdateBook(ctx context.Context, id int64, req *models.BookRequest) (*models.Book, error) {
	if err := req.Check(); err != nil {
		return nil, err
	}
	var updated *models.Book
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		b, err := s.books.FindByID(txCtx, id)
		if err != nil {
			return wrapCatalogErr(err, msgBookNotFound, "no se pudo obtener el libro")
		}
		req.Apply(b)
		b.FechaActualizacion = requestcontext.Now(txCtx)
		if err := s.books.Update(txCtx, b); err != nil {
			return wrapCatalogErr(err, msgBookNotFound, "no se pudo actualizar el libro")
		}
		if err := s.emit(txCtx, audit.EventBookUpdated, "libro", b.ID, b.Nombre); err != nil {
			return err
		}
		updated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "libro", id)
	return updated, nil
}

func (s *Service) DeactivateBook(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.books.Deactivate(txCtx, id, requestcontext.Now(txCtx)); err != nil {
			return wrapCatalogErr(err, msgBookNotFound, "no se pudo desactivar el libro")
		}
		return s.emit(txCtx, audit.EventBookDeactivated, "libro", id, "")
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, "libro", id)
	return nil
}

func (s *Service) CreateInstitution(ctx context.Context, req *models.InstitutionRequest) (*models.Institution, error) {
	var created *models.Institution
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		now := requestcontext.Now(txCtx)
		i := &models.Institution{Activo: true, FechaRegistro: now, FechaActualizacion: now}
		req.Apply(i)
		if err := s.institutions.Create(txCtx, i); err != nil {
			return wrapCatalogErr(err, msgInstitutionNotFound, "no se pudo crear la institución")
		}
		if err := s.emit(txCtx, audit.EventInstitutionCreated, "institucion", i.ID, i.Nombre); err != nil {
			return err
		}
		created = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) GetInstitution(ctx context.Context, id int64) (*models.Institution, error) {
	i, err := s.institutions.FindByID(ctx, id)
	if err != nil {
		return nil, wrapCatalogErr(err, msgInstitutionNotFound, "no se pudo obtener la institución")
	}
	return i, nil
}

func (s *Service) ListInstitutions(ctx context.Context, f models.InstitutionFilter) ([]*models.Institution, error) {
	out, err := s.institutions.List(ctx, f)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo listar instituciones")
	}
	return out, nil
}

func (s *Service) UpdateInstitution(ctx context.Context, id int64, req *models.InstitutionRequest) (*models.Institution, error) {
	var updated *models.Institution
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		i, err := s.institutions.FindByID(txCtx, id)
		if err != nil {
			return wrapCatalogErr(err, msgInstitutionNotFound, "no se pudo obtener la institución")
		}
		req.Apply(i)
		i.FechaActualizacion = requestcontext.Now(txCtx)
		if err := s.institutions.Update(txCtx, i); err != nil {
			return wrapCatalogErr(err, msgInstitutionNotFound, "no se pudo actualizar la institución")
		}
		if err := s.emit(txCtx, audit.EventInstitutionUpdated, "institucion", i.ID, i.Nombre); err != nil {
			return err
		}
		updated = i
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, "institucion", id)
	return updated, nil
}

func (s *Service) DeactivateInstitution(ctx context.Context, id int64) error {
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.institutions.Deactivate(txCtx, id, requestcontext.Now(txCtx)); err != nil {
			return wrapCatalogErr(err, msgInstitutionNotFound, "no se pudo desactivar la institución")
		}
		return s.emit(txCtx, audit.EventInstitutionDeactivated, "institucion", id, "")
	})
	if err != nil {
		return err
	}
	s.invalidate(ctx, "institucion", id)
	return nil
}

// invalidate is best effort: a stale certificate expires with its TTL.
func (s *Service) invalidate(ctx context.Context, aggregate string, id int64) {
	if s.sacraments == nil || s.cache == nil {
		return
	}
	lookup := s.sacraments.IDsByBook
	if aggregate == "institucion" {
		lookup = s.sacraments.IDsByInstitution
	}
	ids, err := lookup(ctx, id)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to look up sacraments for cache invalidation",
			"aggregate", aggregate, "id", id, "error", err)
		return
	}
	for _, sacramentoID := range ids {
		if err := s.cache.Invalidate(ctx, sacramentoID); err != nil {
			s.logger.WarnContext(ctx, "failed to invalidate certificate cache",
				"aggregate", aggregate, "id", id, "sacramento_id", sacramentoID, "error", err)
		}
	}
}

func (s *Service) emit(ctx context.Context, action audit.AuditEvent, aggregate string, id int64, subject string) error {
	if s.auditPublisher == nil {
		return nil
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(action),
		AggregateType: aggregate,
		AggregateID:   strconv.FormatInt(id, 10),
		Subject:       subject,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", action, "id", id, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

const (
	msgBookNotFound        = "libro no encontrado"
	msgInstitutionNotFound = "institución no encontrada"
)

func wrapCatalogErr(err error, notFound, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, notFound)
	}
	if ce, ok := postgres.AsConstraint(err); ok {
		return dErrors.Wrap(err, dErrors.CodeIntegrity, msg).WithDetail("detalle", ce.Detail)
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
