package query

import domquery "github.com/kailas-cloud/searchkv/internal/domain/query"

// CacheController remembers the signature of the last executed search.
type CacheController struct {
	last     domquery.Signature
	recorded bool
}

// IsReuseValid reports whether sig matches the last executed signature,
// in which case the previous result set may be served again.
func (c *CacheController) IsReuseValid(sig domquery.Signature) bool {
	return c.recorded && c.last.Equal(sig)
}

// RecordExecution stores sig as the last executed signature.
func (c *CacheController) RecordExecution(sig domquery.Signature) {
	c.last = sig
	c.recorded = true
}

// Last returns the last executed signature, if any.
func (c *CacheController) Last() (domquery.Signature, bool) {
	return c.last, c.recorded
}
