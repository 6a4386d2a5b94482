package query

// Hit is a single search document: the record key plus the fields the index returned.
type Hit struct {
	Key    string            `json:"key"`
	Fields map[string]string `json:"fields,omitempty"`
}

// ResultSet is the outcome of one search execution.
type ResultSet struct {
	Hits  []Hit
	Total int
}

// Keys returns the record keys of all hits, in order.
func (r ResultSet) Keys() []string {
	keys := make([]string, len(r.Hits))
	for i, h := range r.Hits {
		keys[i] = h.Key
	}
	return keys
}
