package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	FitID ID
	RunID ID
)

func (id FitID) String() string { return ID(id).String() }
func (id RunID) String() string { return ID(id).String() }

// NewFitID creates an identifier for a stored fit result
func NewFitID() FitID { return FitID(NewID()) }

// NewRunID creates an identifier grouping the fits of one plan run
func NewRunID() RunID { return RunID(NewID()) }

// ParseFitID parses a string into FitID
func ParseFitID(s string) (FitID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: fit ID cannot be empty", ErrArgument)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w: fit ID %q is not a UUID", ErrArgument, s)
	}
	return FitID(s), nil
}

// ParseRunID parses a string into RunID
func ParseRunID(s string) (RunID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("%w: run ID cannot be empty", ErrArgument)
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("%w: run ID %q is not a UUID", ErrArgument, s)
	}
	return RunID(s), nil
}
