package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/registration/models"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

type Service interface {
	RegisterBaptism(ctx context.Context, req *models.BaptismRequest) (*models.BaptismResult, error)
	RegisterMarriage(ctx context.Context, req *models.MarriageRequest) (*models.MarriageResult, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts /bautizos and /matrimonios on r, which is expected to be /api.
func (h *Handler) Register(r chi.Router) {
	r.Route("/bautizos", func(r chi.Router) {
		r.Post("/", h.handleRegisterBaptism)
	})
	r.Route("/matrimonios", func(r chi.Router) {
		r.Post("/", h.handleRegisterMarriage)
	})
}

func (h *Handler) handleRegisterBaptism(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndValidate[models.BaptismRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.RegisterBaptism(ctx, req)
	if err != nil {
		h.fail(ctx, w, "register bautizo", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) handleRegisterMarriage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndValidate[models.MarriageRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	res, err := h.service.RegisterMarriage(ctx, req)
	if err != nil {
		h.fail(ctx, w, "register matrimonio", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, res)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
