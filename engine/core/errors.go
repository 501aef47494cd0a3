package core

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyInitialized is returned when a subsystem that holds
	// process-unique native state is initialized twice.
	ErrAlreadyInitialized = errors.New("already initialized")
	// ErrNotInitialized is returned by operations that require an
	// initialized subsystem.
	ErrNotInitialized = errors.New("not initialized")
	// ErrNoBackend is returned when the requested graphics backend has
	// no registered implementation in this build.
	ErrNoBackend = errors.New("no such backend registered")
	// ErrNoDevice is returned when device negotiation finds no viable
	// physical device.
	ErrNoDevice = errors.New("no viable physical device")
	// ErrUnsupported is returned when a resource kind does not exist on
	// the active backend's native object model.
	ErrUnsupported = errors.New("unsupported on this backend")
)

// ContractViolation is the panic value raised by Abortf. It marks a
// build or integration defect rather than a runtime condition the
// caller could recover from.
type ContractViolation struct {
	Reason string
}

func (v ContractViolation) Error() string {
	return "contract violation: " + v.Reason
}

// Abortf logs a contract violation and panics with it. Left
// unrecovered, the panic terminates the process; the message names the
// misuse so the defect is caught at the call site.
func Abortf(format string, args ...interface{}) {
	reason := fmt.Sprintf(format, args...)
	LogError("contract violation: %s", reason)
	panic(ContractViolation{Reason: reason})
}
