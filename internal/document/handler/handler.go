package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"sacra360/internal/document/models"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

// multipartMemory is how much of a form is kept in memory before spilling
// file parts to disk.
const multipartMemory = 8 << 20

type Service interface {
	Upload(ctx context.Context, req *models.UploadRequest) (*models.Document, error)
	Get(ctx context.Context, id int64) (*models.Document, error)
	Open(ctx context.Context, id int64) (*models.Document, io.ReadCloser, error)
	MaxBytes() int64
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the document routes on r, which is expected to be
// /api/documentos.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleUpload)
	r.Get("/{id}", h.handleGet)
	r.Get("/{id}/contenido", h.handleContent)
}

func (h *Handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	// Leave room for the multipart envelope around the file part.
	r.Body = http.MaxBytesReader(w, r.Body, h.service.MaxBytes()+1<<20)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httputil.WriteError(w, dErrors.New(dErrors.CodeValidation,
				fmt.Sprintf("el archivo supera el tamaño máximo de %d bytes", h.service.MaxBytes())).
				WithDetail("max_bytes", h.service.MaxBytes()))
			return
		}
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "se espera un formulario multipart/form-data"))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("archivo")
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeValidation, "el archivo es obligatorio").WithDetail("campo", "archivo"))
		return
	}
	defer file.Close()

	libroID, err := parseLibroID(r.FormValue("libro_id"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	contentType, err := detectContentType(file, header)
	if err != nil {
		h.fail(ctx, w, "read upload", dErrors.Wrap(err, dErrors.CodeInternal, "no se pudo leer el archivo"))
		return
	}

	doc, err := h.service.Upload(ctx, &models.UploadRequest{
		NombreArchivo: header.Filename,
		ContentType:   contentType,
		LibroID:       libroID,
		Tamano:        header.Size,
		Content:       file,
	})
	if err != nil {
		h.fail(ctx, w, "upload documento", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get documento", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

func (h *Handler) handleContent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	doc, rc, err := h.service.Open(ctx, id)
	if err != nil {
		h.fail(ctx, w, "open documento", err)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", doc.ContentType)
	w.Header().Set("Content-Length", strconv.FormatInt(doc.Tamano, 10))
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", doc.NombreArchivo))
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, rc); err != nil {
		h.logger.WarnContext(ctx, "stream documento interrupted",
			"request_id", request.GetRequestID(ctx),
			"documento_id", id,
			"error", err,
		)
	}
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}

func parseLibroID(raw string) (*int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "libro_id debe ser un entero positivo").WithDetail("campo", "libro_id")
	}
	return &id, nil
}

// sniffBytes is how much of a part is read to recognise its format.
const sniffBytes = 3072

// detectContentType trusts the part header unless it is missing or generic,
// in which case the magic number decides (TIFF scans included). The file is
// rewound afterwards.
func detectContentType(file multipart.File, header *multipart.FileHeader) (string, error) {
	ct := header.Header.Get("Content-Type")
	if ct != "" && models.NormalizeContentType(ct) != "application/octet-stream" {
		return ct, nil
	}
	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(file, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return mimetype.Detect(buf[:n]).String(), nil
}
