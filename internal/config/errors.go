package config

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformed is matched by every ParseError.
	ErrMalformed = errors.New("config: malformed document")

	// ErrNotMapping indicates a document whose top level is not a key/value mapping.
	ErrNotMapping = errors.New("config: top level is not a mapping")

	// ErrDuplicateKey indicates the same key appears twice in one mapping.
	ErrDuplicateKey = errors.New("config: duplicate key")
)

// ParseError reports text that is not a well-formed configuration document.
type ParseError struct {
	Path   string
	Line   int
	Column int
	Err    error
}

func (e *ParseError) Error() string {
	src := e.Path
	if src == "" {
		src = "<input>"
	}
	if e.Line > 0 {
		return fmt.Sprintf("parse %s:%d:%d: %v", src, e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", src, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrMalformed }

// IOError reports a failure to read or write a configuration file, as
// opposed to a failure to understand its contents.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }
