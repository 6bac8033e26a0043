// Package listing holds the paging, ordering and visibility parameters shared
// by every list operation.
package listing

import (
	"fmt"
	"strings"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// Visibility selects whether soft-deleted rows are returned. The zero value is
// invalid so callers must choose explicitly.
type Visibility int

const (
	ActiveOnly Visibility = iota + 1
	All
)

func (v Visibility) IsValid() bool {
	return v == ActiveOnly || v == All
}

func (v Visibility) String() string {
	switch v {
	case ActiveOnly:
		return "active_only"
	case All:
		return "all"
	default:
		return "unset"
	}
}

// Includes reports whether a row with the given active flag is visible.
func (v Visibility) Includes(active bool) bool {
	return active || v == All
}

// Page is an offset window.
type Page struct {
	Skip  int
	Limit int
}

// Normalize clamps the window to sane bounds.
func (p Page) Normalize() Page {
	if p.Skip < 0 {
		p.Skip = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Window returns the [start, end) slice bounds of the page over n items.
func (p Page) Window(n int) (int, int) {
	p = p.Normalize()
	start := min(p.Skip, n)
	end := min(start+p.Limit, n)
	return start, end
}

// Order is a whitelisted sort column plus direction.
type Order struct {
	Field string
	Desc  bool
}

// ParseOrder parses "campo" or "-campo" and checks the field against allowed.
// An empty input yields def.
func ParseOrder(raw string, def Order, allowed ...string) (Order, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return def, nil
	}
	o := Order{Field: raw}
	if after, ok := strings.CutPrefix(raw, "-"); ok {
		o = Order{Field: after, Desc: true}
	}
	for _, a := range allowed {
		if a == o.Field {
			return o, nil
		}
	}
	return Order{}, fmt.Errorf("campo de orden no permitido: %q", o.Field)
}

// SQL renders the order as an ORDER BY fragment. columns maps API field
// names to column expressions; Field must already be whitelisted.
func (o Order) SQL(columns map[string]string) string {
	col, ok := columns[o.Field]
	if !ok {
		col = o.Field
	}
	if o.Desc {
		return col + " DESC"
	}
	return col + " ASC"
}

// Params bundles the parameters of a list call.
type Params struct {
	Visibility Visibility
	Page       Page
	Order      Order
}

// Validate rejects parameters without an explicit visibility.
func (p Params) Validate() error {
	if !p.Visibility.IsValid() {
		return fmt.Errorf("listing visibility must be set")
	}
	return nil
}
