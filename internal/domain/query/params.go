package query

import (
	"slices"
	"strconv"
	"strings"
)

// Params is the set of search options sent alongside the compiled query.
// Unset options are left to the backend default. Compare with Equal.
type Params struct {
	rows     int
	hasRows  bool
	start    int
	hasStart bool
	sortBy   string
	sortDesc bool
	fields   []string
	keysOnly bool
}

// SetRows limits the number of hits returned.
func (p *Params) SetRows(n int) {
	p.rows = max(n, 0)
	p.hasRows = true
}

// SetStart sets the offset of the first hit.
func (p *Params) SetStart(n int) {
	p.start = max(n, 0)
	p.hasStart = true
}

// SetSort orders hits by field.
func (p *Params) SetSort(field string, desc bool) {
	p.sortBy = NormalizeField(field)
	p.sortDesc = desc
}

// SetFields restricts the fields returned per hit.
func (p *Params) SetFields(fields ...string) {
	p.fields = make([]string, 0, len(fields))
	for _, f := range fields {
		if f = NormalizeField(f); f != "" {
			p.fields = append(p.fields, f)
		}
	}
}

// SetKeysOnly asks for hit keys without field content.
func (p *Params) SetKeysOnly(v bool) { p.keysOnly = v }

// Rows returns the row limit and whether it is set.
func (p Params) Rows() (int, bool) { return p.rows, p.hasRows }

// Start returns the offset and whether it is set.
func (p Params) Start() (int, bool) { return p.start, p.hasStart }

// Sort returns the sort field (empty when unsorted) and direction.
func (p Params) Sort() (string, bool) { return p.sortBy, p.sortDesc }

// Fields returns the requested field list.
func (p Params) Fields() []string { return p.fields }

// KeysOnly reports whether hits carry keys only.
func (p Params) KeysOnly() bool { return p.keysOnly }

// IsZero reports whether no option is set.
func (p Params) IsZero() bool { return p.Equal(Params{}) }

// Equal compares two parameter sets by value.
func (p Params) Equal(o Params) bool {
	return p.hasRows == o.hasRows && (!p.hasRows || p.rows == o.rows) &&
		p.hasStart == o.hasStart && (!p.hasStart || p.start == o.start) &&
		p.sortBy == o.sortBy && (p.sortBy == "" || p.sortDesc == o.sortDesc) &&
		p.keysOnly == o.keysOnly &&
		slices.Equal(p.fields, o.fields)
}

// Clone returns a deep copy.
func (p Params) Clone() Params {
	c := p
	c.fields = slices.Clone(p.fields)
	return c
}

// String renders the set options in a fixed order.
func (p Params) String() string {
	var parts []string
	if p.hasRows {
		parts = append(parts, "rows="+strconv.Itoa(p.rows))
	}
	if p.hasStart {
		parts = append(parts, "start="+strconv.Itoa(p.start))
	}
	if p.sortBy != "" {
		dir := "asc"
		if p.sortDesc {
			dir = "desc"
		}
		parts = append(parts, "sort="+p.sortBy+" "+dir)
	}
	if len(p.fields) > 0 {
		parts = append(parts, "fl="+strings.Join(p.fields, ","))
	}
	if p.keysOnly {
		parts = append(parts, "keys_only")
	}
	return strings.Join(parts, "&")
}
