package models

import (
	"fmt"
	"strings"
	"time"

	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
	"sacra360/pkg/platform/listing"
)

// Sacrament is one entry of a sacramental book: who received which sacrament,
// where, when and who officiated.
type Sacrament struct {
	ID                 int64                `json:"id"`
	PersonaID          int64                `json:"persona_id"`
	TipoID             domain.SacramentType `json:"tipo_id"`
	UsuarioID          int64                `json:"usuario_id"`
	InstitucionID      int64                `json:"institucion_id"`
	LibroID            int64                `json:"libro_id"`
	FechaSacramento    domain.Date          `json:"fecha_sacramento"`
	Foja               string               `json:"foja"`
	Numero             string               `json:"numero"`
	Observaciones      string               `json:"observaciones"`
	Activo             bool                 `json:"activo"`
	FechaRegistro      time.Time            `json:"fecha_registro"`
	FechaActualizacion time.Time            `json:"fecha_actualizacion"`
}

// CreateSacramentRequest is the payload of POST /api/sacramentos.
type CreateSacramentRequest struct {
	PersonaID       int64                `json:"persona_id" validate:"required,gt=0"`
	TipoID          domain.SacramentType `json:"tipo_id" validate:"required,gt=0"`
	UsuarioID       int64                `json:"usuario_id" validate:"required,gt=0"`
	InstitucionID   int64                `json:"institucion_id" validate:"required,gt=0"`
	LibroID         int64                `json:"libro_id" validate:"required,gt=0"`
	FechaSacramento domain.Date          `json:"fecha_sacramento" validate:"required"`
	Foja            string               `json:"foja" validate:"max=20"`
	Numero          string               `json:"numero" validate:"max=20"`
	Observaciones   string               `json:"observaciones" validate:"max=2000"`
}

// Check rejects sacrament types outside the catalog.
func (r *CreateSacramentRequest) Check() error {
	return checkType(r.TipoID)
}

// Build returns the sacrament described by the request, active and stamped
// with now.
func (r *CreateSacramentRequest) Build(now time.Time) *Sacrament {
	return &Sacrament{
		PersonaID:          r.PersonaID,
		TipoID:             r.TipoID,
		UsuarioID:          r.UsuarioID,
		InstitucionID:      r.InstitucionID,
		LibroID:            r.LibroID,
		FechaSacramento:    r.FechaSacramento,
		Foja:               strings.TrimSpace(r.Foja),
		Numero:             strings.TrimSpace(r.Numero),
		Observaciones:      strings.TrimSpace(r.Observaciones),
		Activo:             true,
		FechaRegistro:      now,
		FechaActualizacion: now,
	}
}

// UpdateSacramentRequest is a full-row replacement of an active sacrament.
type UpdateSacramentRequest CreateSacramentRequest

func (r *UpdateSacramentRequest) Check() error {
	return checkType(r.TipoID)
}

// Apply copies the request onto s, keeping identity and creation time.
func (r *UpdateSacramentRequest) Apply(s *Sacrament, now time.Time) {
	s.PersonaID = r.PersonaID
	s.TipoID = r.TipoID
	s.UsuarioID = r.UsuarioID
	s.InstitucionID = r.InstitucionID
	s.LibroID = r.LibroID
	s.FechaSacramento = r.FechaSacramento
	s.Foja = strings.TrimSpace(r.Foja)
	s.Numero = strings.TrimSpace(r.Numero)
	s.Observaciones = strings.TrimSpace(r.Observaciones)
	s.FechaActualizacion = now
}

func checkType(t domain.SacramentType) error {
	if !t.IsValid() {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("tipo de sacramento desconocido: %d", t)).
			WithDetail("tipo_id", "no existe en el catálogo")
	}
	return nil
}

// Duplicate describes the active sacrament that blocks a new one of the same
// type for the same person.
type Duplicate struct {
	SacramentoID    int64
	PersonaID       int64
	NombreCompleto  string
	FechaSacramento domain.Date
	TipoID          domain.SacramentType
}

// Marriage is the detail row of a marriage sacrament. The sacrament itself is
// recorded against the groom.
type Marriage struct {
	ID           int64  `json:"id"`
	SacramentoID int64  `json:"sacramento_id"`
	EsposoID     int64  `json:"esposo_id"`
	EsposaID     int64  `json:"esposa_id"`
	PadreEsposo  string `json:"padre_esposo"`
	MadreEsposo  string `json:"madre_esposo"`
	PadreEsposa  string `json:"padre_esposa"`
	MadreEsposa  string `json:"madre_esposa"`
	Testigo1     string `json:"testigo1"`
	Testigo2     string `json:"testigo2"`
}

// ListFilter narrows sacrament listings. Zero values are ignored.
type ListFilter struct {
	PersonaID     int64
	TipoID        domain.SacramentType
	LibroID       int64
	InstitucionID int64
	Desde         domain.Date
	Hasta         domain.Date
	listing.Params
}

// Matches reports whether s passes every filter except visibility.
func (f *ListFilter) Matches(s *Sacrament) bool {
	switch {
	case f.PersonaID != 0 && s.PersonaID != f.PersonaID:
		return false
	case f.TipoID != 0 && s.TipoID != f.TipoID:
		return false
	case f.LibroID != 0 && s.LibroID != f.LibroID:
		return false
	case f.InstitucionID != 0 && s.InstitucionID != f.InstitucionID:
		return false
	case !f.Desde.IsZero() && s.FechaSacramento.Before(f.Desde):
		return false
	case !f.Hasta.IsZero() && s.FechaSacramento.After(f.Hasta):
		return false
	}
	return true
}

var OrderFields = []string{"id", "fecha_sacramento", "fecha_registro"}

var DefaultOrder = listing.Order{Field: "fecha_sacramento", Desc: true}
