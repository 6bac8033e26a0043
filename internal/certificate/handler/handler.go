package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/certificate/models"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

type Service interface {
	Assemble(ctx context.Context, sacramentoID int64) (*models.Certificate, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts GET /{id} on r, which is expected to be /api/certificados.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{id}", h.handleGet)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cert, err := h.service.Assemble(ctx, id)
	if err != nil {
		h.logger.WarnContext(ctx, "assemble certificate failed",
			"request_id", request.GetRequestID(ctx),
			"sacramento_id", id,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	w.Header().Set("Cache-Control", "private, no-store")
	httputil.WriteJSON(w, http.StatusOK, cert)
}
