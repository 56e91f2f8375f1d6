package fetcher

import "sync"

// ResponseCache memoizes URL -> HTML for the lifetime of the process. A nil
// value is a negative entry ("unreachable this run"); once written it is
// never flipped back, so concurrent fetchers observe a stable answer.
type ResponseCache struct {
	entries sync.Map // string -> []byte (nil for negative)
}

func NewResponseCache() *ResponseCache {
	return &ResponseCache{}
}

// Get returns (body, true) on a hit. body is nil for a negative entry.
func (c *ResponseCache) Get(url string) ([]byte, bool) {
	v, ok := c.entries.Load(url)
	if !ok {
		return nil, false
	}
	body, _ := v.([]byte)
	return body, true
}

// Put stores a positive entry, unless a value is already present.
func (c *ResponseCache) Put(url string, body []byte) {
	c.entries.LoadOrStore(url, body)
}

// PutNegative records the URL as unreachable for this run. A positive entry
// already present wins.
func (c *ResponseCache) PutNegative(url string) {
	c.entries.LoadOrStore(url, []byte(nil))
}

// Len counts entries, positive and negative.
func (c *ResponseCache) Len() int {
	n := 0
	c.entries.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
