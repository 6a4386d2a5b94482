package query

import "github.com/cespare/xxhash/v2"

// Signature identifies an executed query: the compiled string plus its parameters.
type Signature struct {
	Query  string
	Params Params
}

// NewSignature snapshots the query and a copy of params.
func NewSignature(q string, p Params) Signature {
	return Signature{Query: q, Params: p.Clone()}
}

// Equal reports whether both signatures describe the same logical query.
func (s Signature) Equal(o Signature) bool {
	return s.Query == o.Query && s.Params.Equal(o.Params)
}

// Digest returns a short fingerprint for logs and metrics labels.
func (s Signature) Digest() uint64 {
	d := xxhash.New()
	_, _ = d.WriteString(s.Query)
	_, _ = d.WriteString("\x00")
	_, _ = d.WriteString(s.Params.String())
	return d.Sum64()
}
