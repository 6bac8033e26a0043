package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"sacra360/internal/catalog/models"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/request"
)

type Service interface {
	CreateBook(ctx context.Context, req *models.BookRequest) (*models.Book, error)
	GetBook(ctx context.Context, id int64) (*models.Book, error)
	ListBooks(ctx context.Context, f models.BookFilter) ([]*models.Book, error)
	UpdateBook(ctx context.Context, id int64, req *models.BookRequest) (*models.Book, error)
	DeactivateBook(ctx context.Context, id int64) error

	CreateInstitution(ctx context.Context, req *models.InstitutionRequest) (*models.Institution, error)
	GetInstitution(ctx context.Context, id int64) (*models.Institution, error)
	ListInstitutions(ctx context.Context, f models.InstitutionFilter) ([]*models.Institution, error)
	UpdateInstitution(ctx context.Context, id int64, req *models.InstitutionRequest) (*models.Institution, error)
	DeactivateInstitution(ctx context.Context, id int64) error
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts /libros and /instituciones on r.
func (h *Handler) Register(r chi.Router) {
	r.Route("/libros", func(r chi.Router) {
		r.Get("/", h.handleListBooks)
		r.Post("/", h.handleCreateBook)
		r.Get("/{id}", h.handleGetBook)
		r.Put("/{id}", h.handleUpdateBook)
		r.Delete("/{id}", h.handleDeactivateBook)
	})
	r.Route("/instituciones", func(r chi.Router) {
		r.Get("/", h.handleListInstitutions)
		r.Post("/", h.handleCreateInstitution)
		r.Get("/{id}", h.handleGetInstitution)
		r.Put("/{id}", h.handleUpdateInstitution)
		r.Delete("/{id}", h.handleDeactivateInstitution)
	})
}

func (h *Handler) handleListBooks(w http.ResponseWriter, r *http.Request) {
	params, err := httputil.ParseListing(r, models.BookDefaultOrder, models.BookOrderFields...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	f := models.BookFilter{Nombre: strings.TrimSpace(r.URL.Query().Get("nombre")), Params: params}
	if f.Desde, err = httputil.QueryDate(r, "fecha_desde"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if f.Hasta, err = httputil.QueryDate(r, "fecha_hasta"); err != nil {
		httputil.WriteError(w, err)
		return
	}
	books, err := h.service.ListBooks(r.Context(), f)
	if err != nil {
		h.fail(r.Context(), w, "list libros", err)
		return
	}
	if books == nil {
		books = []*models.Book{}
	}
	httputil.WriteJSON(w, http.StatusOK, books)
}

func (h *Handler) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeAndValidate[models.BookRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.CreateBook(r.Context(), req)
	if err != nil {
		h.fail(r.Context(), w, "create libro", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, b)
}

func (h *Handler) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "get libro", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeAndValidate[models.BookRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	b, err := h.service.UpdateBook(r.Context(), id, req)
	if err != nil {
		h.fail(r.Context(), w, "update libro", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, b)
}

func (h *Handler) handleDeactivateBook(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeactivateBook(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "deactivate libro", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleListInstitutions(w http.ResponseWriter, r *http.Request) {
	params, err := httputil.ParseListing(r, models.InstitutionDefaultOrder, models.InstitutionOrderFields...)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	out, err := h.service.ListInstitutions(r.Context(), models.InstitutionFilter{
		Nombre: strings.TrimSpace(r.URL.Query().Get("nombre")),
		Params: params,
	})
	if err != nil {
		h.fail(r.Context(), w, "list instituciones", err)
		return
	}
	if out == nil {
		out = []*models.Institution{}
	}
	httputil.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) handleCreateInstitution(w http.ResponseWriter, r *http.Request) {
	req, err := httputil.DecodeAndValidate[models.InstitutionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	i, err := h.service.CreateInstitution(r.Context(), req)
	if err != nil {
		h.fail(r.Context(), w, "create institucion", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, i)
}

func (h *Handler) handleGetInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	i, err := h.service.GetInstitution(r.Context(), id)
	if err != nil {
		h.fail(r.Context(), w, "get institucion", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, i)
}

func (h *Handler) handleUpdateInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, err := httputil.DecodeAndValidate[models.InstitutionRequest](r)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	i, err := h.service.UpdateInstitution(r.Context(), id, req)
	if err != nil {
		h.fail(r.Context(), w, "update institucion", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, i)
}

func (h *Handler) handleDeactivateInstitution(w http.ResponseWriter, r *http.Request) {
	id, err := httputil.ParseID(r, "id")
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.service.DeactivateInstitution(r.Context(), id); err != nil {
		h.fail(r.Context(), w, "deactivate institucion", err)
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
