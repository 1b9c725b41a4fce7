package analysis

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsupportedResourceType aborts an invocation before any fetch.
	ErrUnsupportedResourceType = errors.New("unsupported resource type")
	// ErrResourceTypeMismatch aborts a single resource whose id
	// structurally contradicts the requested type.
	ErrResourceTypeMismatch = errors.New("resource id does not match requested resource type")
	// ErrEmptyResponse marks a generation call that failed, timed out, or
	// returned a blank string. Soft; the resource is skipped.
	ErrEmptyResponse = errors.New("generation returned an empty response")
	// ErrMalformedJSON marks a generation response that held no parseable
	// JSON object after extraction. Soft; the resource is skipped.
	ErrMalformedJSON = errors.New("generation response held no valid JSON object")
)

// DataFetchError wraps a data-source failure. It is terminal for the whole
// batch, distinct from a fetch that merely returns no rows.
type DataFetchError struct {
	Dataset string
	Err     error
}

func (e *DataFetchError) Error() string {
	return fmt.Sprintf("fetch dataset %s: %v", e.Dataset, e.Err)
}

func (e *DataFetchError) Unwrap() error { return e.Err }
