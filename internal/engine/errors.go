package engine

import (
	"errors"
	"fmt"
)

// Kind classifies a run failure for diagnostics and exit-code mapping.
type Kind int

const (
	KindUnknown Kind = iota
	// KindConfig: non-positive dimensions or missing parameters, detected
	// before any I/O.
	KindConfig
	// KindConnection: broker unreachable, malformed URL, or rejected
	// credentials during the connect phase.
	KindConnection
	// KindPublish: delivery failed mid-run after retry exhaustion, or the
	// run was interrupted while publishing.
	KindPublish
	// KindIO: the output document could not be written after an otherwise
	// successful run.
	KindIO
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindConnection:
		return "connection"
	case KindPublish:
		return "publish"
	case KindIO:
		return "io"
	default:
		return "unknown"
	}
}

// RunError is the single fatal result surfaced by Run.
type RunError struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *RunError) Error() string { return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err) }
func (e *RunError) Unwrap() error { return e.Err }

func failed(kind Kind, op string, err error) *RunError {
	return &RunError{Kind: kind, Op: op, Err: err}
}

// KindOf extracts the failure kind, or KindUnknown for foreign errors.
func KindOf(err error) Kind {
	var re *RunError
	if errors.As(err, &re) {
		return re.Kind
	}
	return KindUnknown
}
