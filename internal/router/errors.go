package router

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a RouterError.
type ErrorKind uint8

const (
	// ErrKindPattern is raised by Register for a malformed path pattern.
	ErrKindPattern ErrorKind = iota + 1

	// ErrKindConfig is raised by New when the requested engine cannot be used.
	ErrKindConfig
)

// Sentinel errors for errors.Is checks.
var (
	ErrPattern = errors.New("invalid route pattern")
	ErrConfig  = errors.New("invalid router configuration")
)

// RouterError is returned for registration-time and construction-time failures.
// A missing match is never reported as an error.
type RouterError struct {
	Kind    ErrorKind
	Pattern string // offending pattern, empty for configuration errors
	Reason  string
}

func (e *RouterError) Error() string {
	switch e.Kind {
	case ErrKindPattern:
		return fmt.Sprintf("%s %q: %s", ErrPattern, e.Pattern, e.Reason)
	case ErrKindConfig:
		return fmt.Sprintf("%s: %s", ErrConfig, e.Reason)
	default:
		return "router: " + e.Reason
	}
}

// Is reports whether the error belongs to the target sentinel.
func (e *RouterError) Is(target error) bool {
	switch target {
	case ErrPattern:
		return e.Kind == ErrKindPattern
	case ErrConfig:
		return e.Kind == ErrKindConfig
	}
	return false
}

func patternError(pattern, format string, args ...any) *RouterError {
	return &RouterError{
		Kind:    ErrKindPattern,
		Pattern: pattern,
		Reason:  fmt.Sprintf(format, args...),
	}
}

func configError(format string, args ...any) *RouterError {
	return &RouterError{
		Kind:   ErrKindConfig,
		Reason: fmt.Sprintf(format, args...),
	}
}
