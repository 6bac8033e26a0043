package models

import (
	"strings"

	personmodels "sacra360/internal/person/models"
	sacramentmodels "sacra360/internal/sacrament/models"
	"sacra360/pkg/domain"
)

// BookEntry locates a sacrament in the archive and names who recorded it.
// UsuarioID may be omitted; the authenticated officiant is used instead.
type BookEntry struct {
	UsuarioID     int64  `json:"usuario_id" validate:"omitempty,gt=0"`
	InstitucionID int64  `json:"institucion_id" validate:"required,gt=0"`
	LibroID       int64  `json:"libro_id" validate:"required,gt=0"`
	Foja          string `json:"foja" validate:"max=20"`
	Numero        string `json:"numero" validate:"max=20"`
	Observaciones string `json:"observaciones" validate:"max=2000"`
}

// Sacrament builds the sacrament create request for the entry.
func (e *BookEntry) Sacrament(personaID int64, tipo domain.SacramentType, fecha domain.Date) *sacramentmodels.CreateSacramentRequest {
	return &sacramentmodels.CreateSacramentRequest{
		PersonaID:       personaID,
		TipoID:          tipo,
		UsuarioID:       e.UsuarioID,
		InstitucionID:   e.InstitucionID,
		LibroID:         e.LibroID,
		FechaSacramento: fecha,
		Foja:            e.Foja,
		Numero:          e.Numero,
		Observaciones:   e.Observaciones,
	}
}

// BaptismRequest is the payload of POST /api/bautizos: the baptized person
// plus the book entry.
type BaptismRequest struct {
	Nombres         string      `json:"nombres" validate:"notblank,max=120"`
	ApellidoPaterno string      `json:"apellido_paterno" validate:"notblank,max=120"`
	ApellidoMaterno string      `json:"apellido_materno" validate:"max=120"`
	FechaNacimiento domain.Date `json:"fecha_nacimiento" validate:"required"`
	LugarNacimiento string      `json:"lugar_nacimiento" validate:"max=200"`
	NombrePadre     string      `json:"nombre_padre" validate:"max=200"`
	NombreMadre     string      `json:"nombre_madre" validate:"max=200"`
	Padrino         string      `json:"padrino" validate:"max=200"`
	Madrina         string      `json:"madrina" validate:"max=200"`
	FechaBautismo   domain.Date `json:"fecha_bautismo" validate:"required"`
	BookEntry
}

// Person returns the normalized person row to insert.
func (r *BaptismRequest) Person() *personmodels.Person {
	p := &personmodels.Person{
		Nombres:         r.Nombres,
		ApellidoPaterno: r.ApellidoPaterno,
		ApellidoMaterno: r.ApellidoMaterno,
		FechaNacimiento: r.FechaNacimiento,
		LugarNacimiento: r.LugarNacimiento,
		NombrePadre:     r.NombrePadre,
		NombreMadre:     r.NombreMadre,
		Padrino:         r.Padrino,
		Madrina:         r.Madrina,
		FechaBautismo:   r.FechaBautismo,
	}
	p.Normalize()
	return p
}

type BaptismResult struct {
	PersonaID    int64 `json:"persona_id"`
	SacramentoID int64 `json:"sacramento_id"`
}

// Spouse is one party of a marriage. Parents are copied both to the person
// row and to the marriage detail.
type Spouse struct {
	Nombres         string      `json:"nombres" validate:"notblank,max=120"`
	ApellidoPaterno string      `json:"apellido_paterno" validate:"notblank,max=120"`
	ApellidoMaterno string      `json:"apellido_materno" validate:"max=120"`
	FechaNacimiento domain.Date `json:"fecha_nacimiento" validate:"required"`
	LugarNacimiento string      `json:"lugar_nacimiento" validate:"max=200"`
	NombrePadre     string      `json:"nombre_padre" validate:"max=200"`
	NombreMadre     string      `json:"nombre_madre" validate:"max=200"`
}

func (s *Spouse) Person() *personmodels.Person {
	p := &personmodels.Person{
		Nombres:         s.Nombres,
		ApellidoPaterno: s.ApellidoPaterno,
		ApellidoMaterno: s.ApellidoMaterno,
		FechaNacimiento: s.FechaNacimiento,
		LugarNacimiento: s.LugarNacimiento,
		NombrePadre:     s.NombrePadre,
		NombreMadre:     s.NombreMadre,
	}
	p.Normalize()
	return p
}

// MarriageRequest is the payload of POST /api/matrimonios.
type MarriageRequest struct {
	Esposo          Spouse      `json:"esposo"`
	Esposa          Spouse      `json:"esposa"`
	FechaMatrimonio domain.Date `json:"fecha_matrimonio" validate:"required"`
	Testigo1        string      `json:"testigo1" validate:"max=200"`
	Testigo2        string      `json:"testigo2" validate:"max=200"`
	BookEntry
}

// Marriage returns the detail row linking the inserted spouses.
func (r *MarriageRequest) Marriage(sacramentoID, esposoID, esposaID int64) *sacramentmodels.Marriage {
	return &sacramentmodels.Marriage{
		SacramentoID: sacramentoID,
		EsposoID:     esposoID,
		EsposaID:     esposaID,
		PadreEsposo:  strings.TrimSpace(r.Esposo.NombrePadre),
		MadreEsposo:  strings.TrimSpace(r.Esposo.NombreMadre),
		PadreEsposa:  strings.TrimSpace(r.Esposa.NombrePadre),
		MadreEsposa:  strings.TrimSpace(r.Esposa.NombreMadre),
		Testigo1:     strings.TrimSpace(r.Testigo1),
		Testigo2:     strings.TrimSpace(r.Testigo2),
	}
}

type MarriageResult struct {
	EsposoID     int64 `json:"esposo_id"`
	EsposaID     int64 `json:"esposa_id"`
	SacramentoID int64 `json:"sacramento_id"`
	MatrimonioID int64 `json:"matrimonio_id"`
}
