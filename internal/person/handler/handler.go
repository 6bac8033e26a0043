package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/person/models"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

// Service is the person maintenance API used by the handler.
type Service interface {
	Get(ctx context.Context, id int64) (*models.Person, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Person, error)
	Update(ctx context.Context, id int64, req *models.UpdatePersonRequest) (*models.Person, error)
	Deactivate(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the person routes on r, which is expected to be /api/personas.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleList)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDeactivate)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	params, err := httputil.ParseListing(r, models.DefaultOrder, models.OrderFields...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	people, err := h.service.List(ctx, models.ListFilter{
		Nombre: strings.TrimSpace(r.URL.Query().Get("nombre")),
		Params: params,
	})
	if err != nil {
		h.fail(ctx, w, "list personas", err)
		return
	}
	if people == nil {
		people = []*models.Person{}
	}
	httputil.WriteJSON(w, http.StatusOK, people)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get persona", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeAndValidate[models.UpdatePersonRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	p, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "update persona", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(ctx, id); err != nil {
		h.fail(ctx, w, "deactivate persona", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, op string, err error) {
	h.logger.WarnContext(ctx, op+" failed",
		"request_id", request.GetRequestID(ctx),
		"error", err,
	)
	httputil.WriteError(w, err)
}
