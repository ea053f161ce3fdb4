package config

import (
	"errors"
	"fmt"
)

var (
	// ErrSettingNotFound is returned by the getters for paths no layer sets.
	ErrSettingNotFound = errors.New("setting not found")

	// ErrTypeMismatch matches every *TypeError.
	ErrTypeMismatch = errors.New("type mismatch")

	// ErrValidationFailed matches every *ValidationError.
	ErrValidationFailed = errors.New("validation failed")

	// ErrInvalidPath is returned by Set for an empty path or one that
	// descends through a non-table value.
	ErrInvalidPath = errors.New("invalid setting path")
)

// ValidationError reports a setting whose value keysearch cannot use.
type ValidationError struct {
	Path    string
	Message string
	Value   any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (value: %v)", e.Path, e.Message, e.Value)
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidationFailed }

// TypeError reports a setting read as the wrong type, such as a string
// where search.caseSensitive expects a bool.
type TypeError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeError) Error() string {
	return fmt.Sprintf("%s: want %s, have %s", e.Path, e.Expected, e.Actual)
}

func (e *TypeError) Is(target error) bool { return target == ErrTypeMismatch }
