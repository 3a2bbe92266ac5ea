package sweep

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSpec is matched by every ValidationError.
	ErrInvalidSpec = errors.New("sweep: invalid sweep specification")

	// ErrCollision is matched by every NamingCollisionError.
	ErrCollision = errors.New("sweep: directory name collision")
)

// ValidationError reports a sweep entry that cannot be expanded or named.
type ValidationError struct {
	Key    string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("sweep: parameter %q: %s", e.Key, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidSpec }

// NamingCollisionError reports two Combinations that map to the same
// directory name.
type NamingCollisionError struct {
	Dir    string
	First  Combination
	Second Combination
}

func (e *NamingCollisionError) Error() string {
	return fmt.Sprintf("sweep: combinations #%d %s and #%d %s both map to directory %q",
		e.First.Index, e.First, e.Second.Index, e.Second, e.Dir)
}

func (e *NamingCollisionError) Is(target error) bool { return target == ErrCollision }
