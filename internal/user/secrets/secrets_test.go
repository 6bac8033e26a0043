package secrets

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "sacra360/pkg/domain-errors"
)

func TestHashAndVerify(t *testing.T) {
	hash, err := Hash("clave-segura-1")
	require.NoError(t, err)
	assert.NotEqual(t, "clave-segura-1", hash)

	assert.NoError(t, Verify("clave-segura-1", hash))

	err = Verify("otra", hash)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestHashRejectsUnusableInput(t *testing.T) {
	_, err := Hash("")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	_, err = Hash(strings.Repeat("x", 73))
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
