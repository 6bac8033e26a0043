package service

//go:generate mockgen -source=service.go -destination=mocks/mocks.go -package=mocks Store,Blob,AuditPublisher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"sacra360/internal/document/models"
	"sacra360/internal/document/storage"
	"sacra360/internal/platform/postgres"
	dErrors "sacra360/pkg/domain-errors"
	audit "sacra360/pkg/platform/audit"
	"sacra360/pkg/platform/sentinel"
	"sacra360/pkg/platform/tx"
	"sacra360/pkg/requestcontext"
)

// DefaultMaxBytes bounds uploads when no limit is configured.
const DefaultMaxBytes int64 = 20 << 20

type Store interface {
	Create(ctx context.Context, d *models.Document) error
	FindByID(ctx context.Context, id int64) (*models.Document, error)
}

type Blob interface {
	Put(ctx context.Context, key string, content io.Reader, size int64, contentType string) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
	Name() string
}

type AuditPublisher interface {
	Emit(ctx context.Context, event audit.Event) error
}

type Service struct {
	documents      Store
	blob           Blob
	tx             tx.Runner
	logger         *slog.Logger
	auditPublisher AuditPublisher
	maxBytes       int64
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

// WithMaxBytes sets the largest accepted upload.
func WithMaxBytes(n int64) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxBytes = n
		}
	}
}

func New(documents Store, blob Blob, opts ...Option) (*Service, error) {
	if documents == nil {
		return nil, errors.New("document store is required")
	}
	if blob == nil {
		return nil, errors.New("blob storage is required")
	}
	s := &Service{documents: documents, blob: blob, maxBytes: DefaultMaxBytes}
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

// MaxBytes is the configured upload limit.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload stores the content first and then records the documentos row. When
// the row cannot be written the stored object is removed again.
func (s *Service) Upload(ctx context.Context, req *models.UploadRequest) (*models.Document, error) {
	if err := s.check(req); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	ct := models.NormalizeContentType(req.ContentType)
	key := storage.NewKey(now, req.NombreArchivo)

	if err := s.blob.Put(ctx, key, io.LimitReader(req.Content, req.Tamano), req.Tamano, ct); err != nil {
		s.logger.ErrorContext(ctx, "failed to store document content",
			"backend", s.blob.Name(),
			"error", err,
		)
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo guardar el archivo")
	}

	doc := &models.Document{
		LibroID:       req.LibroID,
		NombreArchivo: strings.TrimSpace(req.NombreArchivo),
		StorageKey:    key,
		ContentType:   ct,
		Tamano:        req.Tamano,
		Activo:        true,
		FechaRegistro: now,
	}
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.documents.Create(txCtx, doc); err != nil {
			return wrapDocumentErr(err, "no se pudo registrar el documento")
		}
		return s.emit(txCtx, doc)
	})
	if err != nil {
		if delErr := s.blob.Delete(ctx, key); delErr != nil {
			s.logger.WarnContext(ctx, "failed to remove orphaned document content",
				"storage_key", key,
				"error", delErr,
			)
		}
		return nil, err
	}
	return doc, nil
}

func (s *Service) check(req *models.UploadRequest) error {
	if req == nil || req.Content == nil {
		return dErrors.New(dErrors.CodeValidation, "el archivo es obligatorio").WithDetail("campo", "archivo")
	}
	if strings.TrimSpace(req.NombreArchivo) == "" {
		return dErrors.New(dErrors.CodeValidation, "el nombre del archivo es obligatorio").WithDetail("campo", "archivo")
	}
	if !models.IsAllowedContentType(req.ContentType) {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tipo de archivo no permitido: %q", req.ContentType)).
			WithDetail("content_type", req.ContentType)
	}
	if req.Tamano <= 0 {
		return dErrors.New(dErrors.CodeValidation, "el archivo está vacío").WithDetail("campo", "archivo")
	}
	if req.Tamano > s.maxBytes {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("el archivo supera el tamaño máximo de %d bytes", s.maxBytes)).
			WithDetail("max_bytes", s.maxBytes)
	}
	if req.LibroID != nil && *req.LibroID <= 0 {
		return dErrors.New(dErrors.CodeValidation, "libro_id debe ser positivo").WithDetail("campo", "libro_id")
	}
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*models.Document, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		return nil, wrapDocumentErr(err, "no se pudo obtener el documento")
	}
	return doc, nil
}

// Open returns the document metadata and a reader over its content. The
// caller closes the reader.
func (s *Service) Open(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error) {
	doc, err := s.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	rc, err := s.blob.Open(ctx, doc.StorageKey)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			s.logger.ErrorContext(ctx, "document content missing from storage",
				"documento_id", id,
				"storage_key", doc.StorageKey,
			)
			return nil, nil, dErrors.New(dErrors.CodeNotFound, "contenido del documento no encontrado")
		}
		return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo leer el archivo")
	}
	return doc, rc, nil
}

func (s *Service) emit(ctx context.Context, doc *models.Document) error {
	if s.auditPublisher == nil {
		return nil
	}
	details := map[string]any{
		"content_type": doc.ContentType,
		"tamano":       doc.Tamano,
		"backend":      s.blob.Name(),
	}
	if doc.LibroID != nil {
		details["libro_id"] = *doc.LibroID
	}
	err := s.auditPublisher.Emit(ctx, audit.Event{
		Action:        string(audit.EventDocumentUploaded),
		AggregateType: "documento",
		AggregateID:   strconv.FormatInt(doc.ID, 10),
		Subject:       doc.NombreArchivo,
		Details:       details,
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to emit audit event", "action", audit.EventDocumentUploaded, "documento_id", doc.ID, "error", err)
		return dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo registrar la auditoría")
	}
	return nil
}

func wrapDocumentErr(err error, msg string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "documento no encontrado")
	}
	if ce, ok := postgres.AsConstraint(err); ok {
		return dErrors.Wrap(err, dErrors.CodeIntegrity, "el documento hace referencia a un registro inexistente").
			WithDetail("detalle", ce.Detail)
	}
	if dErrors.CodeOf(err) != dErrors.CodeInternal {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, msg)
}
