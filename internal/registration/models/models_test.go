package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sacra360/pkg/domain"
)

func TestBaptismRequestPerson(t *testing.T) {
	req := BaptismRequest{
		Nombres:         " María ",
		ApellidoPaterno: "Quispe ",
		FechaNacimiento: domain.NewDate(2020, time.March, 2),
		FechaBautismo:   domain.NewDate(2020, time.July, 19),
		Madrina:         " Rosa",
	}
	p := req.Person()
	assert.Equal(t, "María", p.Nombres)
	assert.Equal(t, "Quispe", p.ApellidoPaterno)
	assert.Equal(t, "Rosa", p.Madrina)
	assert.True(t, p.FechaBautismo.Equal(req.FechaBautismo))
}

func TestBookEntrySacrament(t *testing.T) {
	e := BookEntry{UsuarioID: 2, InstitucionID: 3, LibroID: 4, Foja: "10", Numero: "5"}
	fecha := domain.NewDate(2019, time.October, 12)
	s := e.Sacrament(9, domain.SacramentMarriage, fecha)
	assert.Equal(t, int64(9), s.PersonaID)
	assert.Equal(t, domain.SacramentMarriage, s.TipoID)
	assert.Equal(t, int64(4), s.LibroID)
	assert.True(t, s.FechaSacramento.Equal(fecha))
}

func TestMarriageDetailCopiesParentsAndWitnesses(t *testing.T) {
	req := MarriageRequest{
		Esposo:   Spouse{NombrePadre: " Pedro ", NombreMadre: "Lucía"},
		Esposa:   Spouse{NombrePadre: "Mario", NombreMadre: " Elena"},
		Testigo1: " Juan ",
	}
	m := req.Marriage(1, 2, 3)
	assert.Equal(t, int64(1), m.SacramentoID)
	assert.Equal(t, int64(2), m.EsposoID)
	assert.Equal(t, int64(3), m.EsposaID)
	assert.Equal(t, "Pedro", m.PadreEsposo)
	assert.Equal(t, "Elena", m.MadreEsposa)
	assert.Equal(t, "Juan", m.Testigo1)
	assert.Empty(t, m.Testigo2)
}
