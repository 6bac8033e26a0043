package models

import (
	"strings"
	"time"

	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/listing"
)

// Book is a physical register (libro) in which sacraments are transcribed.
// FechaFin is zero while the book is still open.
type Book struct {
	ID                 int64       `json:"id"`
	Nombre             string      `json:"nombre"`
	FechaInicio        domain.Date `json:"fecha_inicio"`
	FechaFin           domain.Date `json:"fecha_fin"`
	Observaciones      string      `json:"observaciones"`
	Activo             bool        `json:"activo"`
	FechaRegistro      time.Time   `json:"fecha_registro"`
	FechaActualizacion time.Time   `json:"fecha_actualizacion"`
}

// Overlaps reports whether the book's span intersects [desde, hasta]. A zero
// bound is open.
func (b *Book) Overlaps(desde, hasta domain.Date) bool {
	if !hasta.IsZero() && b.FechaInicio.After(hasta) {
		return false
	}
	if !desde.IsZero() && !b.FechaFin.IsZero() && b.FechaFin.Before(desde) {
		return false
	}
	return true
}

type BookRequest struct {
	Nombre        string      `json:"nombre" validate:"notblank,max=200"`
	FechaInicio   domain.Date `json:"fecha_inicio" validate:"required"`
	FechaFin      domain.Date `json:"fecha_fin"`
	Observaciones string      `json:"observaciones" validate:"max=2000"`
}

// Check enforces the date range after struct validation.
func (r *BookRequest) Check() error {
	if !r.FechaFin.IsZero() && r.FechaFin.Before(r.FechaInicio) {
		return dErrors.New(dErrors.CodeValidation, "fecha_fin no puede ser anterior a fecha_inicio").
			WithDetail("fecha_fin", "anterior a fecha_inicio")
	}
	return nil
}

// Apply copies the request onto b.
func (r *BookRequest) Apply(b *Book) {
	b.Nombre = strings.TrimSpace(r.Nombre)
	b.FechaInicio = r.FechaInicio
	b.FechaFin = r.FechaFin
	b.Observaciones = strings.TrimSpace(r.Observaciones)
}

// BookFilter narrows book listings. Desde/Hasta select books whose span
// overlaps the range.
type BookFilter struct {
	Nombre string
	Desde  domain.Date
	Hasta  domain.Date
	listing.Params
}

var BookOrderFields = []string{"id", "nombre", "fecha_inicio", "fecha_fin"}

var BookDefaultOrder = listing.Order{Field: "fecha_inicio"}
