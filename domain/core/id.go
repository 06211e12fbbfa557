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
	// Use UUID v7 for time-ordered, sortable IDs
	// Falls back to v4 if v7 is not available (for compatibility)
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
	ReflectionID ID
	DatasetID    ID
	ColumnName   string
)

// String conversions for domain IDs
func (id ReflectionID) String() string { return ID(id).String() }
func (id DatasetID) String() string    { return ID(id).String() }
func (c ColumnName) String() string    { return string(c) }

// ParseReflectionID parses a string into ReflectionID
func ParseReflectionID(s string) (ReflectionID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("reflection ID cannot be empty")
	}
	return ReflectionID(s), nil
}

// ParseDatasetID parses a string into DatasetID
func ParseDatasetID(s string) (DatasetID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("dataset ID cannot be empty")
	}
	return DatasetID(s), nil
}
