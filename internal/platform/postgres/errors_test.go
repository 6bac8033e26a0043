package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacra360/pkg/platform/sentinel"
)

func TestClassify(t *testing.T) {
	t.Run("unique violation unwraps to ErrAlreadyUsed", func(t *testing.T) {
		raw := &pq.Error{Code: "23505", Constraint: "sacramentos_persona_tipo_activo_key", Detail: "Key (persona_id, tipo_id)=(1, 1) already exists."}
		err := Classify(fmt.Errorf("insert: %w", raw))

		require.ErrorIs(t, err, sentinel.ErrAlreadyUsed)
		assert.True(t, IsConstraint(err, "sacramentos_persona_tipo_activo_key"))
		ce, ok := AsConstraint(err)
		require.True(t, ok)
		assert.Equal(t, KindUnique, ce.Kind)
		assert.Contains(t, ce.Detail, "already exists")
	})

	t.Run("foreign key violation unwraps to ErrInvalidReference", func(t *testing.T) {
		err := Classify(&pq.Error{Code: "23503", Constraint: "sacramentos_libro_id_fkey", Message: "violates foreign key"})
		require.ErrorIs(t, err, sentinel.ErrInvalidReference)
		ce, _ := AsConstraint(err)
		assert.Equal(t, "violates foreign key", ce.Detail)
	})

	t.Run("keeps the driver error in the chain", func(t *testing.T) {
		raw := &pq.Error{Code: "23514", Constraint: "libros_rango_fechas_check"}
		err := Classify(raw)
		var pqErr *pq.Error
		require.ErrorAs(t, err, &pqErr)
		assert.False(t, errors.Is(err, sentinel.ErrAlreadyUsed))
	})

	t.Run("passes through other errors", func(t *testing.T) {
		plain := errors.New("connection reset")
		assert.Same(t, plain, Classify(plain))

		syntax := &pq.Error{Code: "42601"}
		assert.Equal(t, error(syntax), Classify(syntax))
	})

	t.Run("detects undefined table", func(t *testing.T) {
		assert.True(t, IsUndefinedTable(fmt.Errorf("query: %w", &pq.Error{Code: "42P01"})))
		assert.False(t, IsUndefinedTable(errors.New("x")))
	})
}
