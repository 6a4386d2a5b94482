// Package query holds the backend-neutral pieces of a lazy search query:
// the filter set, the search parameters and the signature that identifies
// an executed query.
package query

import (
	"fmt"
	"slices"
	"strings"
)

// MatchAll is the compiled form of an empty filter set.
const MatchAll = "*"

// Op is the comparison a filter term applies.
type Op int

const (
	// OpEqual requires field == value.
	OpEqual Op = iota
	// OpNotEqual requires field != value.
	OpNotEqual
	// OpMissing requires the field to be absent.
	OpMissing
	// OpRaw passes the value through as a literal query term.
	OpRaw
)

// Filter is a single predicate term.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// FilterSet accumulates predicate terms joined by AND.
// The zero value is ready to use.
type FilterSet struct {
	terms map[string]struct{}
}

// Add normalises the field name, renders the term and adds it to the set.
// Adding a term that is already present is a no-op.
func (fs *FilterSet) Add(f Filter) error {
	term, err := renderTerm(f)
	if err != nil {
		return err
	}
	if fs.terms == nil {
		fs.terms = make(map[string]struct{})
	}
	fs.terms[term] = struct{}{}
	return nil
}

// Where adds an equality term.
func (fs *FilterSet) Where(field, value string) error {
	return fs.Add(Filter{Field: field, Op: OpEqual, Value: value})
}

// WhereNot adds a negated equality term.
func (fs *FilterSet) WhereNot(field, value string) error {
	return fs.Add(Filter{Field: field, Op: OpNotEqual, Value: value})
}

// WhereMissing adds a term matching records where field is not set.
func (fs *FilterSet) WhereMissing(field string) error {
	return fs.Add(Filter{Field: field, Op: OpMissing})
}

// Raw adds a literal backend query term.
func (fs *FilterSet) Raw(term string) error {
	return fs.Add(Filter{Op: OpRaw, Value: term})
}

// Len returns the number of distinct terms.
func (fs *FilterSet) Len() int { return len(fs.terms) }

// Reset drops all terms.
func (fs *FilterSet) Reset() { clear(fs.terms) }

// Compile returns the AND of all terms in sorted order, or MatchAll when empty.
// Equal sets always compile to the same string.
func (fs *FilterSet) Compile() string {
	if len(fs.terms) == 0 {
		return MatchAll
	}
	terms := make([]string, 0, len(fs.terms))
	for t := range fs.terms {
		terms = append(terms, t)
	}
	slices.Sort(terms)
	return strings.Join(terms, " ")
}

func renderTerm(f Filter) (string, error) {
	if f.Op == OpRaw {
		term := strings.TrimSpace(f.Value)
		if term == "" {
			return "", fmt.Errorf("raw query term is empty")
		}
		return term, nil
	}

	field := NormalizeField(f.Field)
	if field == "" {
		return "", fmt.Errorf("filter field is required")
	}
	attr := "@" + fieldEscaper.Replace(field)

	switch f.Op {
	case OpEqual:
		return fmt.Sprintf("%s:{%s}", attr, tagEscaper.Replace(f.Value)), nil
	case OpNotEqual:
		return fmt.Sprintf("-%s:{%s}", attr, tagEscaper.Replace(f.Value)), nil
	case OpMissing:
		return fmt.Sprintf("ismissing(%s)", attr), nil
	default:
		return "", fmt.Errorf("unknown filter operator %d", f.Op)
	}
}

// NormalizeField turns the legacy double-underscore separator into a dotted path.
func NormalizeField(field string) string {
	return strings.ReplaceAll(strings.TrimSpace(field), "__", ".")
}

var fieldEscaper = strings.NewReplacer(
	".", "\\.",
	"-", "\\-",
	" ", "\\ ",
)

var tagEscaper = strings.NewReplacer(
	",", "\\,",
	".", "\\.",
	"<", "\\<",
	">", "\\>",
	"{", "\\{",
	"}", "\\}",
	"\"", "\\\"",
	"'", "\\'",
	":", "\\:",
	";", "\\;",
	"!", "\\!",
	"@", "\\@",
	"#", "\\#",
	"$", "\\$",
	"%", "\\%",
	"^", "\\^",
	"&", "\\&",
	"*", "\\*",
	"(", "\\(",
	")", "\\)",
	"-", "\\-",
	"+", "\\+",
	"=", "\\=",
	"~", "\\~",
	"|", "\\|",
	" ", "\\ ",
)
