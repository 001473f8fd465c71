package llm

import "errors"

var (
	// ErrTimeout indicates the model call exceeded its deadline.
	ErrTimeout = errors.New("model request timed out")

	// ErrTransport indicates the model endpoint was unreachable or
	// returned a non-success status.
	ErrTransport = errors.New("model transport error")

	// ErrInvalidOutput indicates the model response could not be
	// parsed into the expected structured format.
	ErrInvalidOutput = errors.New("invalid model output")
)
