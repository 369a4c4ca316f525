package chunk

import "fmt"

// FailureReason identifies why a chunk load failed.
type FailureReason int

const (
	// ReasonUnknown indicates an unclassified failure.
	ReasonUnknown FailureReason = iota
	// ReasonNoSuchChunk indicates the logical name is absent from the manifest.
	ReasonNoSuchChunk
	// ReasonFetch indicates the HTTP request itself failed.
	ReasonFetch
	// ReasonStatus indicates a non-200 response (404 for a chunk that no
	// longer exists on the server is the version-skew symptom).
	ReasonStatus
	// ReasonMIME indicates the served content type did not match the manifest.
	ReasonMIME
	// ReasonIntegrity indicates the content digest did not match the manifest.
	ReasonIntegrity
)

func (r FailureReason) String() string {
	switch r {
	case ReasonNoSuchChunk:
		return "no such chunk"
	case ReasonFetch:
		return "fetch failed"
	case ReasonStatus:
		return "unexpected status"
	case ReasonMIME:
		return "mime mismatch"
	case ReasonIntegrity:
		return "integrity mismatch"
	default:
		return "unknown"
	}
}

// LoadError is the failure of a single chunk load attempt.
//
// Every failed [Loader.Load] call produces one fresh LoadError; the identical
// instance is published on [Loader.Failures] and returned to the caller, so
// downstream code can correlate the two deliveries by pointer identity
// without inspecting the message or type.
type LoadError struct {
	// Chunk is the logical chunk name.
	Chunk string
	// URL is the fetched asset URL, if the load got that far.
	URL string
	// Reason classifies the failure.
	Reason FailureReason
	// Status is the HTTP status code for ReasonStatus failures.
	Status int
	// Err is the underlying error, if any.
	Err error
}

func (e *LoadError) Error() string {
	switch {
	case e.Reason == ReasonStatus:
		return fmt.Sprintf("chunk %q: %s: %d from %s", e.Chunk, e.Reason, e.Status, e.URL)
	case e.Err != nil:
		return fmt.Sprintf("chunk %q: %s: %v", e.Chunk, e.Reason, e.Err)
	default:
		return fmt.Sprintf("chunk %q: %s", e.Chunk, e.Reason)
	}
}

func (e *LoadError) Unwrap() error {
	return e.Err
}
