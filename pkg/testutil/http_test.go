package testutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResponseAssertionsCanBeChained(t *testing.T) {
	h := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"abc","almacenamiento":"remoto"}`))
	})
	rr := DoRequest(h, httptest.NewRequest(http.MethodPost, "/", nil))

	AssertStatus(t, rr, http.StatusCreated)
	AssertJSONContains(t, rr, "almacenamiento", "remoto")
	AssertJSONContains(t, rr, "id", "abc")
	AssertJSONHasKey(t, rr, "id")

	type result struct {
		ID string `json:"id"`
	}
	assert.Equal(t, "abc", UnmarshalResponse[result](t, rr).ID)
}
