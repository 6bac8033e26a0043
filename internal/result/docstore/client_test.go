package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateDocument(t *testing.T) {
	t.Run("posts the document with the api key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/collections/bautizos_ocr/documents", r.URL.Path)
			assert.Equal(t, "secreto", r.Header.Get(APIKeyHeader))
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "Ana", body["nombre"])
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"doc-123"}`))
		}))
		defer srv.Close()

		c := New(srv.URL+"/", "secreto", time.Second)
		id, err := c.CreateDocument(context.Background(), "bautizos_ocr", map[string]any{"nombre": "Ana"})
		require.NoError(t, err)
		assert.Equal(t, "doc-123", id)
	})

	t.Run("non-2xx is a StatusError", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "quota exceeded", http.StatusTooManyRequests)
		}))
		defer srv.Close()

		_, err := New(srv.URL, "", time.Second).CreateDocument(context.Background(), "ocr", map[string]any{"a": 1})
		var se *StatusError
		require.True(t, errors.As(err, &se))
		assert.Equal(t, http.StatusTooManyRequests, se.StatusCode)
		assert.Equal(t, "quota exceeded", se.Body)
	})

	t.Run("missing id is an error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{}`))
		}))
		defer srv.Close()

		_, err := New(srv.URL, "", time.Second).CreateDocument(context.Background(), "ocr", map[string]any{"a": 1})
		assert.ErrorContains(t, err, "no id")
	})

	t.Run("network failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := srv.URL
		srv.Close()

		_, err := New(url, "", time.Second).CreateDocument(context.Background(), "ocr", map[string]any{"a": 1})
		assert.Error(t, err)
	})
}
