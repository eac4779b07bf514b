package domain

import (
	"errors"
	"fmt"
)

// ErrPersistence marks failures of the durable store. It is the only error
// class that fails a manual trigger.
var ErrPersistence = errors.New("persistence fault")

// PersistenceError wraps a store failure for one symbol.
type PersistenceError struct {
	Symbol string
	Err    error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: persisting %s: %v", ErrPersistence, e.Symbol, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrPersistence) match.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}
