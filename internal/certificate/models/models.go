package models

import (
	"time"

	"sacra360/pkg/domain"
)

// Certificate is the assembled view printed on a sacramental certificate.
// Detail sections are nil when the sacrament has no row in the matching
// per-type table.
type Certificate struct {
	SacramentoID    int64                `json:"sacramento_id"`
	TipoID          domain.SacramentType `json:"tipo_id"`
	Tipo            string               `json:"tipo"`
	FechaSacramento domain.Date          `json:"fecha_sacramento"`
	Foja            string               `json:"foja"`
	Numero          string               `json:"numero"`
	Observaciones   string               `json:"observaciones"`
	Persona         Person               `json:"persona"`
	Institucion     Institution          `json:"institucion"`
	Libro           Book                 `json:"libro"`
	Ministro        Officiant            `json:"ministro"`
	Bautizo         *BaptismDetail       `json:"bautizo,omitempty"`
	Confirmacion    *ConfirmationDetail  `json:"confirmacion,omitempty"`
	Matrimonio      *MarriageDetail      `json:"matrimonio,omitempty"`
	GeneradoEn      time.Time            `json:"generado_en"`
}

type Person struct {
	ID              int64       `json:"id"`
	NombreCompleto  string      `json:"nombre_completo"`
	FechaNacimiento domain.Date `json:"fecha_nacimiento"`
	LugarNacimiento string      `json:"lugar_nacimiento"`
	NombrePadre     string      `json:"nombre_padre"`
	NombreMadre     string      `json:"nombre_madre"`
	Padrino         string      `json:"padrino"`
	Madrina         string      `json:"madrina"`
	FechaBautismo   domain.Date `json:"fecha_bautismo"`
}

type Institution struct {
	ID        int64  `json:"id"`
	Nombre    string `json:"nombre"`
	Direccion string `json:"direccion"`
}

type Book struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

// Officiant is the user who recorded the sacrament.
type Officiant struct {
	ID     int64  `json:"id"`
	Nombre string `json:"nombre"`
}

type BaptismDetail struct {
	Padrino  string `json:"padrino"`
	Madrina  string `json:"madrina"`
	Ministro string `json:"ministro"`
}

type ConfirmationDetail struct {
	Padrino  string `json:"padrino"`
	Ministro string `json:"ministro"`
}

type MarriageDetail struct {
	EsposoID     int64  `json:"esposo_id"`
	EsposoNombre string `json:"esposo_nombre"`
	EsposaID     int64  `json:"esposa_id"`
	EsposaNombre string `json:"esposa_nombre"`
	PadreEsposo  string `json:"padre_esposo"`
	MadreEsposo  string `json:"madre_esposo"`
	PadreEsposa  string `json:"padre_esposa"`
	MadreEsposa  string `json:"madre_esposa"`
	Testigo1     string `json:"testigo1"`
	Testigo2     string `json:"testigo2"`
}
