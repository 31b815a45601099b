package http

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/servicecall/packages/query"
)

var (
	// ErrInvalidURL is shared with the query package so errors.Is matches
	// either way
	ErrInvalidURL    = query.ErrInvalidURL
	ErrInvalidMethod = errors.New("invalid method")
	ErrInvalidFile   = errors.New("invalid request file")
	ErrBodyEncoding  = errors.New("error in body")
)

// ConstructionError reports a request that could not be built. Nothing has
// been sent when it is returned.
type ConstructionError struct {
	Op  string
	Err error
}

func (e *ConstructionError) Error() string {
	return fmt.Sprintf("building request: %s: %v", e.Op, e.Err)
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func constructionError(op string, err error) error {
	return &ConstructionError{Op: op, Err: err}
}

// IsConstructionError reports whether err came from request construction
func IsConstructionError(err error) bool {
	var ce *ConstructionError
	return errors.As(err, &ce)
}
