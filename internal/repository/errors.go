package repository

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrAlreadyExists = errors.New("record already exists")

	// ErrOwnershipConflict means the key was no longer held by the expected owner
	// when the transfer ran. It matches ErrNotFound as well.
	ErrOwnershipConflict = fmt.Errorf("key owner changed: %w", ErrNotFound)

	ErrUnitOfWorkClosed = errors.New("unit of work is not open")
)
