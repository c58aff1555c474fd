package types

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyGrid is the cause when the grid source holds no entries.
	ErrEmptyGrid = errors.New("grid source is empty")
	// ErrMissingUSNG is the cause when a grid entry lacks its identifier.
	ErrMissingUSNG = errors.New("grid entry has no usng")
)

// InputError reports that the grid source is missing, unreadable, not valid
// JSON, empty or malformed.
type InputError struct {
	Source string
	Err    error
}

func (e *InputError) Error() string {
	if e.Source == "" {
		return fmt.Sprintf("input error: %v", e.Err)
	}
	return fmt.Sprintf("input error: %s: %v", e.Source, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err unless it already is an InputError.
func NewInputError(source string, err error) error {
	if err == nil {
		return nil
	}
	var ie *InputError
	if errors.As(err, &ie) {
		return err
	}
	return &InputError{Source: source, Err: err}
}

// StorageError reports that the generated batch could not be persisted.
type StorageError struct {
	Dest string
	Err  error
}

func (e *StorageError) Error() string {
	if e.Dest == "" {
		return fmt.Sprintf("storage error: %v", e.Err)
	}
	return fmt.Sprintf("storage error: %s: %v", e.Dest, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err unless it already is a StorageError.
func NewStorageError(dest string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Dest: dest, Err: err}
}

// ValidateGrid checks the generator's input preconditions: at least one entry
// and a usng on every entry.
func ValidateGrid(entries []GridEntry) error {
	if len(entries) == 0 {
		return ErrEmptyGrid
	}
	for i, e := range entries {
		if _, ok := e.USNG(); !ok {
			return fmt.Errorf("entry %d: %w", i, ErrMissingUSNG)
		}
	}
	return nil
}
