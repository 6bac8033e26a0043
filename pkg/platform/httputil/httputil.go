// Package httputil holds the JSON response and request helpers shared by all
// handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/listing"
	"sacra360/pkg/platform/validation"
)

// MaxBodyBytes bounds JSON request bodies.
const MaxBodyBytes = 1 << 20

type errorResponse struct {
	Error            string         `json:"error"`
	ErrorDescription string         `json:"error_description,omitempty"`
	Details          map[string]any `json:"details,omitempty"`
}

// WriteJSON writes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError renders err as {"error": code, "error_description": message}.
// Internal errors never expose their message.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	resp := errorResponse{Error: string(code)}
	if de, ok := dErrors.As(err); ok && code != dErrors.CodeInternal {
		resp.ErrorDescription = de.Message
		resp.Details = de.Details
	}
	WriteJSON(w, dErrors.ToHTTPStatus(code), resp)
}

// DecodeJSON decodes the request body into T. Malformed bodies are reported
// as validation errors.
func DecodeJSON[T any](r *http.Request) (*T, error) {
	var v T
	body := http.MaxBytesReader(nil, r.Body, MaxBodyBytes)
	dec := json.NewDecoder(body)
	if err := dec.Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, dErrors.New(dErrors.CodeValidation, "el cuerpo de la solicitud está vacío")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeValidation, "JSON inválido")
	}
	return &v, nil
}

// DecodeAndValidate decodes the body into T and runs struct validation.
func DecodeAndValidate[T any](r *http.Request) (*T, error) {
	v, err := DecodeJSON[T](r)
	if err != nil {
		return nil, err
	}
	if err := validation.Struct(v); err != nil {
		return nil, err
	}
	return v, nil
}

// ParseID reads a positive integer path parameter.
func ParseID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, "identificador inválido: "+strconv.Quote(raw))
	}
	return id, nil
}

// ParseListing reads skip, limit, orden and incluir_inactivos from the query.
func ParseListing(r *http.Request, def listing.Order, orderFields ...string) (listing.Params, error) {
	q := r.URL.Query()
	p := listing.Params{Visibility: listing.ActiveOnly, Order: def}

	var err error
	if p.Page.Skip, err = queryInt(q.Get("skip"), 0); err != nil {
		return p, dErrors.New(dErrors.CodeBadRequest, "skip inválido")
	}
	if p.Page.Limit, err = queryInt(q.Get("limit"), listing.DefaultLimit); err != nil {
		return p, dErrors.New(dErrors.CodeBadRequest, "limit inválido")
	}
	p.Page = p.Page.Normalize()

	incluir, err := QueryBool(r, "incluir_inactivos")
	if err != nil {
		return p, err
	}
	if incluir {
		p.Visibility = listing.All
	}

	if p.Order, err = listing.ParseOrder(q.Get("orden"), def, orderFields...); err != nil {
		return p, dErrors.New(dErrors.CodeBadRequest, err.Error())
	}
	return p, nil
}

// QueryBool reads an optional boolean query parameter.
func QueryBool(r *http.Request, name string) (bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, dErrors.New(dErrors.CodeBadRequest, name+" debe ser true o false")
	}
	return b, nil
}

// QueryInt64 reads an optional positive integer query parameter. Zero means absent.
func QueryInt64(r *http.Request, name string) (int64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || v <= 0 {
		return 0, dErrors.New(dErrors.CodeBadRequest, name+" inválido")
	}
	return v, nil
}

// QueryDate reads an optional YYYY-MM-DD query parameter.
func QueryDate(r *http.Request, name string) (domain.Date, error) {
	d, err := domain.ParseDate(r.URL.Query().Get(name))
	if err != nil {
		return domain.Date{}, dErrors.Wrap(err, dErrors.CodeBadRequest, name+" inválido")
	}
	return d, nil
}

func queryInt(raw string, def int) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
