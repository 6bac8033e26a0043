package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPageNormalize(t *testing.T) {
	assert.Equal(t, Page{Skip: 0, Limit: DefaultLimit}, Page{Skip: -3}.Normalize())
	assert.Equal(t, Page{Skip: 10, Limit: MaxLimit}, Page{Skip: 10, Limit: 10_000}.Normalize())
}

func TestPageWindow(t *testing.T) {
	start, end := Page{Skip: 2, Limit: 2}.Window(3)
	assert.Equal(t, 2, start)
	assert.Equal(t, 3, end)

	start, end = Page{Skip: 9, Limit: 2}.Window(3)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)
}

func TestParseOrder(t *testing.T) {
	def := Order{Field: "id"}

	o, err := ParseOrder("", def, "id", "nombres")
	require.NoError(t, err)
	assert.Equal(t, def, o)

	o, err = ParseOrder("-nombres", def, "id", "nombres")
	require.NoError(t, err)
	assert.Equal(t, Order{Field: "nombres", Desc: true}, o)
	assert.Equal(t, "p.nombres DESC", o.SQL(map[string]string{"nombres": "p.nombres"}))

	_, err = ParseOrder("password; drop table", def, "id")
	assert.Error(t, err)
}

func TestVisibility(t *testing.T) {
	assert.False(t, Visibility(0).IsValid())
	assert.Error(t, Params{}.Validate())
	assert.True(t, ActiveOnly.Includes(true))
	assert.False(t, ActiveOnly.Includes(false))
	assert.True(t, All.Includes(false))
}
