package model

import (
	"errors"
	"fmt"
)

var (
	// ErrUnsatisfiableJob is returned when a job cannot fit a freshly created
	// machine; creating more machines would never help.
	ErrUnsatisfiableJob = errors.New("unsatisfiable job")

	// ErrUnknownJob is returned when a job id is absent from the job table.
	ErrUnknownJob = errors.New("unknown job")

	// ErrUnknownMachine is returned when a machine id is absent from the ledger.
	ErrUnknownMachine = errors.New("unknown machine")

	// ErrAlreadyAssigned is returned when assigning a job that already has a machine.
	ErrAlreadyAssigned = errors.New("job already assigned")
)

// ExternalCallError wraps a failed arena call.
type ExternalCallError struct {
	Op  string
	Err error
}

func (e *ExternalCallError) Error() string {
	return fmt.Sprintf("arena %s failed: %v", e.Op, e.Err)
}

func (e *ExternalCallError) Unwrap() error {
	return e.Err
}

// NewExternalCallError wraps err, nil stays nil.
func NewExternalCallError(op string, err error) error {
	if err == nil {
		return nil
	}
	var external *ExternalCallError
	if errors.As(err, &external) {
		return err
	}
	return &ExternalCallError{Op: op, Err: err}
}

// IsExternal returns true if err was caused by an arena call.
func IsExternal(err error) bool {
	var external *ExternalCallError
	return errors.As(err, &external)
}
