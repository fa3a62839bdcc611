package ordering

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID = errors.New("duplicate entry id")
	ErrNotFound    = errors.New("entry not found")
)

// DuplicateIDError is returned when appending an entry whose id is already listed.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("entry %q already in list", e.ID)
}

func (e *DuplicateIDError) Unwrap() error { return ErrDuplicateID }

// NotFoundError is returned when a reposition references an id that is not listed.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %q not found", e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }
