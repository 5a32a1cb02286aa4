package provider

import (
	"errors"
	"fmt"
)

// Errors surfaced by the base provider.
var (
	// ErrENSNotConfigured is returned by name-resolution operations when the
	// provider has no ENS registry address configured.
	ErrENSNotConfigured = errors.New("ens registry not configured")

	// ErrEIP1559NotActivated is returned by fee estimation when the chain
	// head carries no base fee.
	ErrEIP1559NotActivated = errors.New("eip-1559 not activated on this chain")
)

// Error wraps a transport or protocol failure with the operation that
// produced it. Unwrap exposes the original cause for errors.Is/As.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return "provider: " + e.Op + ": " + e.Err.Error() }

func (e *Error) Unwrap() error { return e.Err }

func opErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// ENSError reports a failed name resolution. Resolution failures are fatal
// to the operation that required them.
type ENSError struct {
	Name   string
	Reason string
	Err    error
}

func (e *ENSError) Error() string {
	msg := fmt.Sprintf("ens: %q: %s", e.Name, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ENSError) Unwrap() error { return e.Err }

// LogQueryKind tells which fetch of the log pagination state machine failed.
type LogQueryKind uint8

const (
	// LoadLastBlock is the initial head-block fetch bounding the pagination.
	LoadLastBlock LogQueryKind = iota
	// LoadLogs is a page fetch.
	LoadLogs
)

func (k LogQueryKind) String() string {
	if k == LoadLastBlock {
		return "load last block"
	}
	return "load logs"
}

// LogQueryError wraps the transport error that terminated a paginated log
// retrieval.
type LogQueryError struct {
	Kind LogQueryKind
	Err  error
}

func (e *LogQueryError) Error() string {
	return fmt.Sprintf("log query: %s: %s", e.Kind, e.Err.Error())
}

func (e *LogQueryError) Unwrap() error { return e.Err }
