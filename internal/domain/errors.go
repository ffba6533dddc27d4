package domain

import (
	"errors"
	"fmt"
)

// ErrNoRegions is returned when no regional client could be constructed,
// i.e. the run produced no records at all.
var ErrNoRegions = errors.New("no region could be reached")

// BackendError wraps a failed call to one of the pipeline queries.
// Kind is the service error code when one is known.
type BackendError struct {
	Op   string
	Kind string
	Err  error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

type ClientInitError struct {
	Region string
	Err    error
}

func (e *ClientInitError) Error() string {
	return fmt.Sprintf("init client for region %s: %v", e.Region, e.Err)
}

func (e *ClientInitError) Unwrap() error { return e.Err }
