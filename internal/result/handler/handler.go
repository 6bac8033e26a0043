package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/result/models"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

type Service interface {
	Create(ctx context.Context, req *models.CreateResultRequest) (*models.Result, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts POST / on r, which is expected to be /api/resultados.
func (h *Handler) Register(r chi.Router) {
	r.Post("/", h.handleCreate)
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndValidate[models.CreateResultRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.Create(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "create resultado failed",
			"request_id", request.GetRequestID(ctx),
			"coleccion", req.Coleccion,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}
