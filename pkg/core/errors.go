package core

import (
	"errors"
	"fmt"
)

// Common errors.
var (
	ErrReadOnly = errors.New("repository is in read-only mode")

	// ErrEntityNotFound is returned when the entity is not listed under the root.
	ErrEntityNotFound = errors.New("entity not found")

	// ErrSectionCorrupt is returned when a backing file exists but cannot be parsed.
	ErrSectionCorrupt = errors.New("section corrupt")

	// ErrVersionMismatch is returned when a versioned attribute's pointer, content
	// files and mirror disagree, which is what an interrupted save leaves behind.
	ErrVersionMismatch = errors.New("version pointer and content disagree")

	ErrUnknownAttribute = errors.New("unknown attribute")
)

// SectionError locates a failure inside one section of one entity.
type SectionError struct {
	Entity  string
	Section string
	Path    string
	Err     error
}

func (e *SectionError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s/%s: %s: %v", e.Entity, e.Section, e.Path, e.Err)
	}
	return fmt.Sprintf("%s/%s: %v", e.Entity, e.Section, e.Err)
}

func (e *SectionError) Unwrap() error { return e.Err }

// UnknownAttribute builds the error returned for attribute names outside BlogAttributes.
func UnknownAttribute(attr string) error {
	return fmt.Errorf("%w: %q", ErrUnknownAttribute, attr)
}

// EntityNotFound builds the error returned for entities missing from the listing.
func EntityNotFound(entity string) error {
	return fmt.Errorf("%w: %q", ErrEntityNotFound, entity)
}
