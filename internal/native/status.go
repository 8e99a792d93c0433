// Package native implements the accelerated route matcher that can stand in
// for the router's primary engine.
//
// The adapter speaks only in strings: routes are added with an opaque
// handler id and matches report handler ids plus raw parameter values.
// Mapping ids back to routes, and enforcing parameter constraints, is the
// caller's job. Every operation reports a Status instead of panicking or
// returning an error, so callers can branch on availability explicitly.
package native

import "fmt"

// Status is the outcome code of an adapter operation.
type Status int

const (
	StatusOK             Status = 0
	StatusInvalidInput   Status = -1
	StatusInvalidMethod  Status = -2
	StatusInvalidPath    Status = -3
	StatusInvalidHandler Status = -4
	StatusInsertFailed   Status = -5
	StatusNotFound       Status = -404
	StatusUnavailable    Status = -503
)

// OK reports whether the status is StatusOK.
func (s Status) OK() bool {
	return s == StatusOK
}

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusInvalidInput:
		return "invalid input"
	case StatusInvalidMethod:
		return "invalid method"
	case StatusInvalidPath:
		return "invalid path"
	case StatusInvalidHandler:
		return "invalid handler id"
	case StatusInsertFailed:
		return "insert failed"
	case StatusNotFound:
		return "not found"
	case StatusUnavailable:
		return "unavailable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Capability is a bit set describing what the adapter supports.
type Capability uint32

const (
	CapRadixTree Capability = 1 << iota
	CapCaching
	CapBatchOperations
	CapStatistics
)

// Has reports whether all bits of other are set.
func (c Capability) Has(other Capability) bool {
	return c&other == other
}
