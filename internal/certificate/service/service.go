package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Source,Cache

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"sacra360/internal/certificate/models"
	"sacra360/internal/platform/postgres"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/requestcontext"
)

// Source reads the rows a certificate is built from. Detail lookups return
// sentinel.ErrNotFound when the sacrament has no row in that table.
type Source interface {
	FindCore(ctx context.Context, sacramentoID int64) (*models.Certificate, error)
	FindBaptism(ctx context.Context, sacramentoID int64) (*models.BaptismDetail, error)
	FindConfirmation(ctx context.Context, sacramentoID int64) (*models.ConfirmationDetail, error)
	FindMarriage(ctx context.Context, sacramentoID int64) (*models.MarriageDetail, error)
}

type Cache interface {
	Get(ctx context.Context, sacramentoID int64) (*models.Certificate, bool, error)
	Set(ctx context.Context, cert *models.Certificate) error
}

type Service struct {
	source Source
	cache  Cache
	logger *slog.Logger
	tracer trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithCache serves repeated requests from c. Cache failures are logged and
// never fail an assembly.
func WithCache(c Cache) Option {
	return func(s *Service) {
		s.cache = c
	}
}

func New(source Source, opts ...Option) (*Service, error) {
	if source == nil {
		return nil, errors.New("certificate source is required")
	}
	s := &Service{source: source}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	s.tracer = otel.Tracer("sacra360/certificate")
	return s, nil
}

// Assemble builds the certificate of an active sacrament. Every per-type
// section is attempted; missing rows and missing legacy tables leave the
// section empty.
func (s *Service) Assemble(ctx context.Context, sacramentoID int64) (*models.Certificate, error) {
	ctx, span := s.tracer.Start(ctx, "certificate.Assemble",
		trace.WithAttributes(attribute.Int64("sacramento_id", sacramentoID)))
	defer span.End()

	if cert := s.cached(ctx, sacramentoID); cert != nil {
		span.SetAttributes(attribute.Bool("cache_hit", true))
		return cert, nil
	}

	cert, err := s.source.FindCore(ctx, sacramentoID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "sacramento no encontrado")
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "find core")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo generar el certificado")
	}

	if cert.Bautizo, err = optional(ctx, s.logger, "bautizo", sacramentoID, s.source.FindBaptism); err != nil {
		return nil, err
	}
	if cert.Confirmacion, err = optional(ctx, s.logger, "confirmacion", sacramentoID, s.source.FindConfirmation); err != nil {
		return nil, err
	}
	if cert.Matrimonio, err = optional(ctx, s.logger, "matrimonio", sacramentoID, s.source.FindMarriage); err != nil {
		return nil, err
	}
	cert.GeneradoEn = requestcontext.Now(ctx)

	if s.cache != nil {
		if err := s.cache.Set(ctx, cert); err != nil {
			s.logger.WarnContext(ctx, "failed to cache certificate",
				"sacramento_id", sacramentoID,
				"error", err,
			)
		}
	}
	return cert, nil
}

func (s *Service) cached(ctx context.Context, sacramentoID int64) *models.Certificate {
	if s.cache == nil {
		return nil
	}
	cert, ok, err := s.cache.Get(ctx, sacramentoID)
	if err != nil {
		s.logger.WarnContext(ctx, "certificate cache read failed",
			"sacramento_id", sacramentoID,
			"error", err,
		)
		return nil
	}
	if !ok {
		return nil
	}
	return cert
}

// optional runs one detail lookup, treating a missing row or an undefined
// table as an empty section.
func optional[T any](ctx context.Context, logger *slog.Logger, section string, id int64,
	find func(context.Context, int64) (*T, error)) (*T, error) {
	d, err := find(ctx, id)
	switch {
	case err == nil:
		return d, nil
	case errors.Is(err, sentinel.ErrNotFound):
		return nil, nil
	case postgres.IsUndefinedTable(err):
		logger.DebugContext(ctx, "certificate detail table missing", "section", section)
		return nil, nil
	default:
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo generar el certificado")
	}
}
