package db

// SearchRequest is the input for a paged FT.SEARCH.
type SearchRequest struct {
	Index string
	Query string

	// Limit applies only when HasLimit is set; otherwise the server default window is used.
	Offset   int
	Limit    int
	HasLimit bool

	SortBy   string
	SortDesc bool

	ReturnFields []string
	NoContent    bool
}

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Fields map[string]string
}
