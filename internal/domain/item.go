package domain

import (
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Item status values. Status is free-form text; these are the values the
// application itself writes.
const (
	ItemStatusNew       = "NEW"
	ItemStatusProcessed = "PROCESSED"
)

// Item is a stored record. Its ID is assigned by the store on first save;
// zero means the item has not been persisted yet.
type Item struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Email       string `json:"email"`
}

// Validate checks if the Item has valid data.
func (i *Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return NewValidationError("name", "is required", ErrEmptyItemName)
	}

	if i.Email != "" {
		if err := validate.Var(i.Email, "email"); err != nil {
			return NewValidationError("email", "has invalid format", ErrInvalidEmail)
		}
	}

	return nil
}

// MarkProcessed sets the status written by the bulk processor.
func (i *Item) MarkProcessed() {
	i.Status = ItemStatusProcessed
}

// IsProcessed reports whether the item carries the processed status.
func (i *Item) IsProcessed() bool {
	return i.Status == ItemStatusProcessed
}

// Clone returns a copy that can be mutated without affecting i.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}
