package catalog

import "fmt"

// UpstreamError is returned when the catalog API call itself failed:
// transport error or non-2xx status. An empty result set is not an
// UpstreamError — callers must treat "no data" and "call failed" as
// distinct outcomes.
type UpstreamError struct {
	Op     string
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("catalog: %s: unexpected status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("catalog: %s: %v", e.Op, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// StatusCode reports the HTTP status that triggered the error.
func (e *UpstreamError) StatusCode() int { return e.Status }
