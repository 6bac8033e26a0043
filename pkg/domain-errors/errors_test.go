package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCodeFollowsWrapChain(t *testing.T) {
	base := New(CodeDuplicate, "ya existe")
	wrapped := fmt.Errorf("service layer: %w", base)

	assert.True(t, HasCode(wrapped, CodeDuplicate))
	assert.False(t, HasCode(wrapped, CodeNotFound))
	assert.Equal(t, CodeDuplicate, CodeOf(wrapped))
}

func TestCodeOfPlainErrorIsInternal(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
}

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(cause, CodeUnavailable, "database unavailable")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, "database unavailable: connection refused", err.Error())
}

func TestWithDetail(t *testing.T) {
	err := New(CodeDuplicate, "duplicado").WithDetail("existing_id", int64(7))
	assert.Equal(t, int64(7), err.Details["existing_id"])
}

func TestToHTTPStatus(t *testing.T) {
	cases := map[Code]int{
		CodeValidation:   http.StatusUnprocessableEntity,
		CodeDuplicate:    http.StatusBadRequest,
		CodeIntegrity:    http.StatusBadRequest,
		CodeNotFound:     http.StatusNotFound,
		CodeUnauthorized: http.StatusUnauthorized,
		CodeInternal:     http.StatusInternalServerError,
		Code("unknown"):  http.StatusInternalServerError,
	}
	for code, status := range cases {
		assert.Equal(t, status, ToHTTPStatus(code), "code %s", code)
	}
}
