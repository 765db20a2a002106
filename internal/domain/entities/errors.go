package entities

import "errors"

// ErrorKind classifies pipeline failures
type ErrorKind string

// Failure kinds reported by the pipeline stages
const (
	KindUnknown    ErrorKind = "unknown"
	KindConfig     ErrorKind = "config"
	KindTransport  ErrorKind = "transport"
	KindData       ErrorKind = "data"
	KindFilesystem ErrorKind = "filesystem"
)

// PipelineError tags an error with the kind of failure that produced it
type PipelineError struct {
	Kind ErrorKind
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Err == nil {
		return string(e.Kind) + " error"
	}
	return e.Err.Error()
}

func (e *PipelineError) Unwrap() error {
	return e.Err
}

// NewError wraps err with the given kind. A nil err stays nil.
func NewError(kind ErrorKind, err error) error {
	if err == nil {
		return nil
	}
	return &PipelineError{Kind: kind, Err: err}
}

// KindOf returns the kind of the outermost tagged error in err's chain
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind ErrorKind) bool {
	return err != nil && KindOf(err) == kind
}
