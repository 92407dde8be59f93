// Package model holds the board entities and the validation rules the
// store applies before any mutation is dispatched.
package model

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const (
	MaxCardTitleLen       = 100
	MaxCardDescriptionLen = 1000
	MaxColumnTitleLen     = 40
)

var ErrEmptyTitle = errors.New("title must not be empty")

// Card is one board item. Order is its dense position within its column.
type Card struct {
	ID          uuid.UUID
	Title       string
	Description string
	IsDone      bool
	Order       int
	ColumnID    uuid.UUID
}

// ValidateCardTitle rejects titles that are empty after trimming or
// longer than MaxCardTitleLen.
func ValidateCardTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxCardTitleLen {
		return fmt.Errorf("title must be at most %d characters", MaxCardTitleLen)
	}
	return nil
}

// ValidateCardDescription allows an empty description but bounds its
// length.
func ValidateCardDescription(description string) error {
	if len(description) > MaxCardDescriptionLen {
		return fmt.Errorf("description must be at most %d characters", MaxCardDescriptionLen)
	}
	return nil
}

func ValidateColumnTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return ErrEmptyTitle
	}
	if len(title) > MaxColumnTitleLen {
		return fmt.Errorf("title must be at most %d characters", MaxColumnTitleLen)
	}
	return nil
}
