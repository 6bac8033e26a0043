package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacra360/internal/result/docstore"
	"sacra360/internal/result/models"
	"sacra360/internal/result/service"
	"sacra360/internal/result/store"
	"sacra360/pkg/testutil"
)

func newRouter(t *testing.T, opts ...service.Option) http.Handler {
	t.Helper()
	svc, err := service.New(store.NewInMemory(nil), opts...)
	require.NoError(t, err)
	r := chi.NewRouter()
	r.Route("/api/resultados", New(svc, slog.New(slog.NewTextHandler(io.Discard, nil))).Register)
	return r
}

func body() map[string]any {
	return map[string]any{
		"coleccion": "bautizos_ocr",
		"datos":     map[string]any{"nombre": "Ana", "foja": "12"},
	}
}

func TestCreateResult(t *testing.T) {
	t.Run("stored remotely when the document store answers", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"abc"}`))
		}))
		defer srv.Close()
		router := newRouter(t, service.WithRemote(docstore.New(srv.URL, "k", time.Second)), service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/resultados/", body()))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		res := testutil.UnmarshalResponse[models.Result](t, rr)
		assert.Equal(t, models.StorageRemote, res.Almacenamiento)
		assert.Equal(t, "abc", res.ID)
		assert.Equal(t, "bautizos_ocr", res.Coleccion)
	})

	t.Run("falls back to the local table on server errors", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			calls.Add(1)
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()
		router := newRouter(t, service.WithRemote(docstore.New(srv.URL, "k", time.Second)), service.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

		rr := testutil.DoRequest(router, testutil.NewJSONRequest(t, http.MethodPost, "/api/resultados/", body()))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		res := testutil.UnmarshalResponse[models.Result](t, rr)
		assert.Equal(t, models.StorageLocal, res.Almacenamiento)
		assert.Equal(t, "1", res.ID)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("local when no document store is configured", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(t), testutil.NewJSONRequest(t, http.MethodPost, "/api/resultados/", body()))
		testutil.AssertStatus(t, rr, http.StatusCreated)
		testutil.AssertJSONContains(t, rr, "almacenamiento", "local")
	})

	t.Run("missing coleccion is rejected", func(t *testing.T) {
		rr := testutil.DoRequest(newRouter(t), testutil.NewJSONRequest(t, http.MethodPost, "/api/resultados/",
			map[string]any{"datos": map[string]any{"a": 1}}))
		testutil.AssertStatusAndError(t, rr, http.StatusUnprocessableEntity, "validation_error")
	})
}
