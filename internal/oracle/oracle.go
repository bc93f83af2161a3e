// v1
// internal/oracle/oracle.go

// Package oracle talks to the external natural-language reasoning service.
// Responses are opaque prose; callers line-scan them through an Extractor.
package oracle

import (
	"context"
	"errors"

	"ecocampus/analyzer/internal/campus"
)

// ErrUnavailable indicates the reasoning service is unreachable or not
// configured. Callers degrade to deterministic output rather than failing.
var ErrUnavailable = errors.New("reasoning oracle unavailable")

// ErrMalformed indicates the service answered with a response we could not
// interpret.
var ErrMalformed = errors.New("reasoning oracle returned malformed response")

// Invoker is the Reasoning Oracle interface consumed by the pipeline and the
// aggregation engine. Any non-error response is opaque prose.
type Invoker interface {
	Invoke(ctx context.Context, prompt string, prior []campus.Turn) (string, error)
}
