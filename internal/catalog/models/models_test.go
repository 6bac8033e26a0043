package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"sacra360/pkg/domain"
	dErrors "sacra360/pkg/domain-errors"
)

func TestBookOverlaps(t *testing.T) {
	b := &Book{FechaInicio: domain.NewDate(1950, time.January, 1), FechaFin: domain.NewDate(1959, time.December, 31)}

	assert.True(t, b.Overlaps(domain.Date{}, domain.Date{}))
	assert.True(t, b.Overlaps(domain.NewDate(1955, time.June, 1), domain.Date{}))
	assert.True(t, b.Overlaps(domain.NewDate(1940, time.January, 1), domain.NewDate(1950, time.January, 1)))
	assert.False(t, b.Overlaps(domain.NewDate(1960, time.January, 1), domain.Date{}))
	assert.False(t, b.Overlaps(domain.Date{}, domain.NewDate(1949, time.December, 31)))

	open := &Book{FechaInicio: domain.NewDate(2020, time.January, 1)}
	assert.True(t, open.Overlaps(domain.NewDate(2030, time.January, 1), domain.Date{}))
}

func TestBookRequestCheck(t *testing.T) {
	req := &BookRequest{
		Nombre:      "Libro 3",
		FechaInicio: domain.NewDate(2000, time.January, 1),
		FechaFin:    domain.NewDate(1999, time.January, 1),
	}
	err := req.Check()
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))

	req.FechaFin = domain.Date{}
	assert.NoError(t, req.Check())
}
