package httpapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"sacra360/internal/platform/metrics"
	"sacra360/pkg/platform/httputil"
	"sacra360/pkg/platform/middleware/auth"
	"sacra360/pkg/testutil"
)

type tokens map[string]*auth.Claims

func (t tokens) ValidateToken(token string) (*auth.Claims, error) {
	if c, ok := t[token]; ok {
		return c, nil
	}
	return nil, errors.New("invalid token")
}

type echo string

func (e echo) Register(r chi.Router) {
	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"modulo": string(e)})
	})
}

func newTestRouter() http.Handler {
	reg := prometheus.NewRegistry()
	return NewRouter(Config{
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:  metrics.New(reg),
		Gatherer: reg,
		Tokens: tokens{
			"secretaria": {UserID: 2, Username: "ana@parroquia.test", Role: "secretaria"},
			"admin":      {UserID: 1, Username: "admin@parroquia.test", Role: "admin"},
		},
		Health:      func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) },
		CORSOrigins: []string{"https://sacra360.test"},
	}, Routes{
		Person:      echo("personas"),
		User:        echo("usuarios"),
		Sacrament:   echo("sacramentos"),
		Certificate: echo("certificados"),
	})
}

func bearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestRouter(t *testing.T) {
	router := newTestRouter()

	t.Run("health and metrics are public", func(t *testing.T) {
		testutil.AssertStatusOK(t, testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/health")))
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/metrics"))
		testutil.AssertStatusOK(t, rr)
		assert.Contains(t, rr.Body.String(), "sacra360_http_request_duration_seconds")
	})

	t.Run("api requires a bearer token", func(t *testing.T) {
		rr := testutil.DoRequest(router, testutil.NewRequest(t, http.MethodGet, "/api/personas/"))
		testutil.AssertStatusAndError(t, rr, http.StatusUnauthorized, "unauthorized")

		rr = testutil.DoRequest(router, bearer(testutil.NewRequest(t, http.MethodGet, "/api/personas/"), "forged"))
		testutil.AssertStatus(t, rr, http.StatusUnauthorized)
	})

	t.Run("authenticated requests reach the module", func(t *testing.T) {
		rr := testutil.DoRequest(router, bearer(testutil.NewRequest(t, http.MethodGet, "/api/sacramentos/"), "secretaria"))
		testutil.AssertJSONContains(t, rr, "modulo", "sacramentos")
		assert.NotEmpty(t, rr.Header().Get("X-Request-ID"))
	})

	t.Run("user administration is admin only", func(t *testing.T) {
		rr := testutil.DoRequest(router, bearer(testutil.NewRequest(t, http.MethodGet, "/api/usuarios/"), "secretaria"))
		testutil.AssertStatus(t, rr, http.StatusForbidden)

		rr = testutil.DoRequest(router, bearer(testutil.NewRequest(t, http.MethodGet, "/api/usuarios/"), "admin"))
		testutil.AssertJSONContains(t, rr, "modulo", "usuarios")
	})

	t.Run("cors preflight for a configured origin", func(t *testing.T) {
		req := testutil.NewRequest(t, http.MethodOptions, "/api/certificados/")
		req.Header.Set("Origin", "https://sacra360.test")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		rr := testutil.DoRequest(router, req)
		assert.Equal(t, "https://sacra360.test", rr.Header().Get("Access-Control-Allow-Origin"))
	})
}
