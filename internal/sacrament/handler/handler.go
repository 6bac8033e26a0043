package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/admin"
	"sacra360/pkg/platform/middleware/request"
)

type Service interface {
	Create(ctx context.Context, req *models.CreateSacramentRequest) (*models.Sacrament, error)
	Get(ctx context.Context, id int64) (*models.Sacrament, error)
	List(ctx context.Context, f models.ListFilter) ([]*models.Sacrament, error)
	Update(ctx context.Context, id int64, req *models.UpdateSacramentRequest) (*models.Sacrament, error)
	Deactivate(ctx context.Context, id int64) error
	Purge(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the sacrament routes on r, which is expected to be
// /api/sacramentos. Hard deletes are restricted to administrators.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleList)
	r.Post("/", h.handleCreate)
	r.Get("/{id}", h.handleGet)
	r.Put("/{id}", h.handleUpdate)
	r.Delete("/{id}", h.handleDeactivate)
	r.With(admin.RequireAdmin(h.logger)).Delete("/{id}/permanente", h.handlePurge)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	f, err := parseFilter(r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.List(ctx, f)
	if err != nil {
		h.fail(ctx, w, "list sacramentos", err)
		return
	}
	if out == nil {
		out = []*models.Sacrament{}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func parseFilter(r *http.Request) (models.ListFilter, error) {
	var (
		f   models.ListFilter
		err error
	)
	if f.Params, err = httputil.ParseListing(r, models.DefaultOrder, models.OrderFields...); err != nil {
		return f, err
	}
	if f.PersonaID, err = httputil.QueryInt64(r, "persona_id"); err != nil {
		return f, err
	}
	tipo, err := httputil.QueryInt64(r, "tipo_id")
	if err != nil {
		return f, err
	}
	f.TipoID = domain.SacramentType(tipo)
	if f.LibroID, err = httputil.QueryInt64(r, "libro_id"); err != nil {
		return f, err
	}
	if f.InstitucionID, err = httputil.QueryInt64(r, "institucion_id"); err != nil {
		return f, err
	}
	if f.Desde, err = httputil.QueryDate(r, "fecha_desde"); err != nil {
		return f, err
	}
	if f.Hasta, err = httputil.QueryDate(r, "fecha_hasta"); err != nil {
		return f, err
	}
	return f, nil
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, err := httputil.DecodeAndValidate[models.CreateSacramentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sac, err := h.service.Create(ctx, req)
	if err != nil {
		h.fail(ctx, w, "create sacramento", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, sac)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sac, err := h.service.Get(ctx, id)
	if err != nil {
		h.fail(ctx, w, "get sacramento", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sac)
}

func (h *Handler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeAndValidate[models.UpdateSacramentRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	sac, err := h.service.Update(ctx, id, req)
	if err != nil {
		h.fail(ctx, w, "update sacramento", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, sac)
}

func (h *Handler) handleDeactivate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Deactivate(ctx, id); err != nil {
		h.fail(ctx, w, "deactivate sacramento", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePurge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.Purge(ctx, id); err != nil {
		h.fail(ctx, w, "purge sacramento", err)
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
