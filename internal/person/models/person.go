package models

import (
	"strings"
	"time"

	"sacra360/pkg/domain"
	"sacra360/pkg/platform/listing"
)

// Person is a participant in one or more sacraments. Rows are created by the
// registration workflows and afterwards only corrected administratively.
type Person struct {
	ID                 int64       `json:"id"`
	Nombres            string      `json:"nombres"`
	ApellidoPaterno    string      `json:"apellido_paterno"`
	ApellidoMaterno    string      `json:"apellido_materno"`
	FechaNacimiento    domain.Date `json:"fecha_nacimiento"`
	LugarNacimiento    string      `json:"lugar_nacimiento"`
	NombrePadre        string      `json:"nombre_padre"`
	NombreMadre        string      `json:"nombre_madre"`
	Padrino            string      `json:"padrino"`
	Madrina            string      `json:"madrina"`
	FechaBautismo      domain.Date `json:"fecha_bautismo"`
	Activo             bool        `json:"activo"`
	FechaRegistro      time.Time   `json:"fecha_registro"`
	FechaActualizacion time.Time   `json:"fecha_actualizacion"`
}

// FullName joins given names and surnames, skipping empty parts.
func (p *Person) FullName() string {
	parts := make([]string, 0, 3)
	for _, s := range []string{p.Nombres, p.ApellidoPaterno, p.ApellidoMaterno} {
		if s = strings.TrimSpace(s); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

// Identity returns the tuple that identifies a baptized person.
func (p *Person) Identity() Identity {
	return Identity{
		Nombres:         p.Nombres,
		ApellidoPaterno: p.ApellidoPaterno,
		ApellidoMaterno: p.ApellidoMaterno,
		FechaNacimiento: p.FechaNacimiento,
		FechaBautismo:   p.FechaBautismo,
	}
}

// Normalize trims whitespace from every text field.
func (p *Person) Normalize() {
	for _, f := range []*string{
		&p.Nombres, &p.ApellidoPaterno, &p.ApellidoMaterno, &p.LugarNacimiento,
		&p.NombrePadre, &p.NombreMadre, &p.Padrino, &p.Madrina,
	} {
		*f = strings.TrimSpace(*f)
	}
}

// Identity is the natural key of a baptized person. The database enforces it
// with a unique constraint; rows without a baptism date never collide.
type Identity struct {
	Nombres         string
	ApellidoPaterno string
	ApellidoMaterno string
	FechaNacimiento domain.Date
	FechaBautismo   domain.Date
}

// Matches compares two identities field by field.
func (i Identity) Matches(o Identity) bool {
	return i.Nombres == o.Nombres &&
		i.ApellidoPaterno == o.ApellidoPaterno &&
		i.ApellidoMaterno == o.ApellidoMaterno &&
		i.FechaNacimiento.Equal(o.FechaNacimiento) &&
		i.FechaBautismo.Equal(o.FechaBautismo)
}

func (i Identity) FullName() string {
	p := Person{Nombres: i.Nombres, ApellidoPaterno: i.ApellidoPaterno, ApellidoMaterno: i.ApellidoMaterno}
	return p.FullName()
}

// UpdatePersonRequest is a full-row administrative correction.
type UpdatePersonRequest struct {
	Nombres         string      `json:"nombres" validate:"notblank,max=120"`
	ApellidoPaterno string      `json:"apellido_paterno" validate:"notblank,max=120"`
	ApellidoMaterno string      `json:"apellido_materno" validate:"max=120"`
	FechaNacimiento domain.Date `json:"fecha_nacimiento" validate:"required"`
	LugarNacimiento string      `json:"lugar_nacimiento" validate:"max=200"`
	NombrePadre     string      `json:"nombre_padre" validate:"max=200"`
	NombreMadre     string      `json:"nombre_madre" validate:"max=200"`
	Padrino         string      `json:"padrino" validate:"max=200"`
	Madrina         string      `json:"madrina" validate:"max=200"`
	FechaBautismo   domain.Date `json:"fecha_bautismo"`
}

// Apply copies the request onto p.
func (r *UpdatePersonRequest) Apply(p *Person) {
	p.Nombres = r.Nombres
	p.ApellidoPaterno = r.ApellidoPaterno
	p.ApellidoMaterno = r.ApellidoMaterno
	p.FechaNacimiento = r.FechaNacimiento
	p.LugarNacimiento = r.LugarNacimiento
	p.NombrePadre = r.NombrePadre
	p.NombreMadre = r.NombreMadre
	p.Padrino = r.Padrino
	p.Madrina = r.Madrina
	p.FechaBautismo = r.FechaBautismo
	p.Normalize()
}

// ListFilter narrows person listings. Nombre matches any name part,
// case-insensitively.
type ListFilter struct {
	Nombre string
	listing.Params
}

// OrderFields are the sort keys accepted by List.
var OrderFields = []string{"id", "nombres", "apellido_paterno", "fecha_nacimiento", "fecha_registro"}

var DefaultOrder = listing.Order{Field: "id"}
