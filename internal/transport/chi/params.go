package chi

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/kailas-cloud/searchkv/internal/domain"
	queryuc "github.com/kailas-cloud/searchkv/internal/usecase/query"
)

type fieldValue struct {
	field string
	value string
}

// queryArgs is the parsed form of the list/count/get query string:
// where=field:value, not=field:value, missing=field, q=term,
// rows, start, sort, desc, fields=a,b, keys_only, raw.
type queryArgs struct {
	where    []fieldValue
	not      []fieldValue
	missing  []string
	terms    []string
	rows     *int
	start    *int
	sort     string
	desc     bool
	fields   []string
	keysOnly bool
	raw      bool
}

func parseQuery(q url.Values) (queryArgs, error) {
	var args queryArgs
	var err error

	if args.where, err = parsePairs("where", q["where"]); err != nil {
		return args, err
	}
	if args.not, err = parsePairs("not", q["not"]); err != nil {
		return args, err
	}
	args.missing = q["missing"]
	args.terms = q["q"]

	if args.rows, err = optionalInt(q, "rows"); err != nil {
		return args, err
	}
	if args.start, err = optionalInt(q, "start"); err != nil {
		return args, err
	}
	args.sort = q.Get("sort")
	if args.desc, err = optionalBool(q, "desc"); err != nil {
		return args, err
	}
	if f := q.Get("fields"); f != "" {
		args.fields = strings.Split(f, ",")
	}
	if args.keysOnly, err = optionalBool(q, "keys_only"); err != nil {
		return args, err
	}
	if args.raw, err = optionalBool(q, "raw"); err != nil {
		return args, err
	}
	return args, nil
}

func (args queryArgs) apply(s *queryuc.Session) {
	for _, p := range args.where {
		s.Where(p.field, p.value)
	}
	for _, p := range args.not {
		s.WhereNot(p.field, p.value)
	}
	for _, f := range args.missing {
		s.WhereMissing(f)
	}
	for _, t := range args.terms {
		s.Query(t)
	}
	if args.rows != nil {
		s.Rows(*args.rows)
	}
	if args.start != nil {
		s.Start(*args.start)
	}
	if args.sort != "" {
		s.SortBy(args.sort, args.desc)
	}
	if len(args.fields) > 0 {
		s.Fields(args.fields...)
	}
	if args.keysOnly {
		s.KeysOnly()
	}
	if args.raw {
		s.Raw()
	}
}

type sliceBounds struct {
	start, stop, step int
}

// parseSlice reads start/stop/step; a missing stop selects everything after start.
func parseSlice(q url.Values) (sliceBounds, error) {
	b := sliceBounds{start: 0, stop: queryuc.ToEnd, step: 1}
	for name, dst := range map[string]*int{"start": &b.start, "stop": &b.stop, "step": &b.step} {
		v := q.Get(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return b, fmt.Errorf("slice %s %q: %w", name, v, domain.ErrInvalidIndex)
		}
		*dst = n
	}
	return b, nil
}

func parsePairs(name string, raw []string) ([]fieldValue, error) {
	out := make([]fieldValue, 0, len(raw))
	for _, r := range raw {
		field, value, ok := strings.Cut(r, ":")
		if !ok || field == "" {
			return nil, fmt.Errorf("%s must be field:value, got %q", name, r)
		}
		out = append(out, fieldValue{field: field, value: value})
	}
	return out, nil
}

func optionalInt(q url.Values, name string) (*int, error) {
	v := q.Get(name)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, fmt.Errorf("%s must be a non-negative integer, got %q", name, v)
	}
	return &n, nil
}

func optionalBool(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean, got %q", name, v)
	}
	return b, nil
}
