package fabriclog

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned when an extraction has nothing to send.
	ErrEmptyInput = errors.New("input is empty")
	// ErrNoJSONObject is wrapped by MalformedResponse when the reply has no {...} span.
	ErrNoJSONObject = errors.New("no JSON object in response")
	// ErrMissingCredentials is fatal at startup.
	ErrMissingCredentials = errors.New("missing required credentials")
	ErrNotImage           = errors.New("not an image")
	ErrNoModel            = errors.New("no candidate model")
	// ErrNoRecord is returned by Session.Save when there is nothing to save,
	// e.g. a repeated save after the record was already appended.
	ErrNoRecord = errors.New("no working record")
)

// ExtractionFailure reports that the generation service could not be reached
// or refused the request (transport, quota, availability).
type ExtractionFailure struct {
	Model Model
	Err   error
}

func (e *ExtractionFailure) Error() string {
	if e.Model == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extraction failed (%s): %v", e.Model, e.Err)
}

func (e *ExtractionFailure) Unwrap() error { return e.Err }

// MalformedResponse reports that no record could be decoded from the reply.
// Raw holds the full reply so it can be shown for manual entry.
type MalformedResponse struct {
	Raw string
	Err error
}

func (e *MalformedResponse) Error() string {
	return fmt.Sprintf("malformed response: %v", e.Err)
}

func (e *MalformedResponse) Unwrap() error { return e.Err }

// SaveFailure reports that the sink rejected the row. The session keeps the
// record for a retry.
type SaveFailure struct {
	Err error
}

func (e *SaveFailure) Error() string { return fmt.Sprintf("save failed: %v", e.Err) }

func (e *SaveFailure) Unwrap() error { return e.Err }
