package models

import (
	"strings"
	"time"

	"sacra360/pkg/platform/listing"
)

// Institution is a parish or other church institution where sacraments are
// celebrated.
type Institution struct {
	ID                 int64     `json:"id"`
	Nombre             string    `json:"nombre"`
	Direccion          string    `json:"direccion"`
	Telefono           string    `json:"telefono"`
	Email              string    `json:"email"`
	Activo             bool      `json:"activo"`
	FechaRegistro      time.Time `json:"fecha_registro"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

type InstitutionRequest struct {
	Nombre    string `json:"nombre" validate:"notblank,max=200"`
	Direccion string `json:"direccion" validate:"max=300"`
	Telefono  string `json:"telefono" validate:"max=40"`
	Email     string `json:"email" validate:"omitempty,email,max=200"`
}

func (r *InstitutionRequest) Apply(i *Institution) {
	i.Nombre = strings.TrimSpace(r.Nombre)
	i.Direccion = strings.TrimSpace(r.Direccion)
	i.Telefono = strings.TrimSpace(r.Telefono)
	i.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

type InstitutionFilter struct {
	Nombre string
	listing.Params
}

var InstitutionOrderFields = []string{"id", "nombre"}

var InstitutionDefaultOrder = listing.Order{Field: "nombre"}
