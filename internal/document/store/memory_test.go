package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sacra360/internal/document/models"
	"sacra360/internal/platform/postgres"
	"sacra360/pkg/platform/sentinel"
)

type books map[int64]string

func (b books) NameOf(id int64) (string, bool) {
	n, ok := b[id]
	return n, ok
}

func newDocument(key string, libroID *int64) *models.Document {
	return &models.Document{
		LibroID:       libroID,
		NombreArchivo: "foja.png",
		StorageKey:    key,
		ContentType:   "image/png",
		Tamano:        10,
		Activo:        true,
		FechaRegistro: time.Now(),
	}
}

func TestInMemory(t *testing.T) {
	ctx := context.Background()
	s := NewInMemory(books{1: "Libro I"})
	one := int64(1)
	missing := int64(7)

	d := newDocument("documentos/a.png", &one)
	require.NoError(t, s.Create(ctx, d))
	assert.Equal(t, int64(1), d.ID)

	got, err := s.FindByID(ctx, d.ID)
	require.NoError(t, err)
	assert.Equal(t, "documentos/a.png", got.StorageKey)

	require.NoError(t, s.Create(ctx, newDocument("documentos/b.png", nil)))

	err = s.Create(ctx, newDocument("documentos/c.png", &missing))
	assert.ErrorIs(t, err, sentinel.ErrInvalidReference)
	assert.True(t, postgres.IsConstraint(err, "documentos_libro_id_fkey"))

	err = s.Create(ctx, newDocument("documentos/a.png", nil))
	assert.ErrorIs(t, err, sentinel.ErrAlreadyUsed)

	_, err = s.FindByID(ctx, 99)
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}
