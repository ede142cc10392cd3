// Package catalog is the library inventory: books with a lending status,
// persisted as one JSON file.
package catalog

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "labpulse/internal/errors"
)

// Status is the lending state of a book
type Status string

const (
	StatusAvailable Status = "available"
	StatusIssued    Status = "issued"
)

var validate = validator.New()

// Book is one catalog entry
type Book struct {
	Title  string `json:"title" validate:"required"`
	Author string `json:"author" validate:"required"`
	ISBN   string `json:"isbn" validate:"required"`
	Status Status `json:"status" validate:"oneof=available issued"`
}

// NewBook creates an available book from trimmed input
func NewBook(title, author, isbn string) (*Book, error) {
	b := &Book{
		Title:  strings.TrimSpace(title),
		Author: strings.TrimSpace(author),
		ISBN:   strings.TrimSpace(isbn),
		Status: StatusAvailable,
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// Validate checks the required fields and the status
func (b *Book) Validate() error {
	if err := validate.Struct(b); err != nil {
		return apperrors.NewValidationError("invalid book", err)
	}
	return nil
}

func (b *Book) String() string {
	return fmt.Sprintf("%s by %s | ISBN: %s | Status: %s", b.Title, b.Author, b.ISBN, b.Status)
}

// Available reports whether the book can be issued
func (b *Book) Available() bool {
	return b.Status == StatusAvailable
}

// Issue lends an available book. Any other state is a STATE error and the
// book is left unchanged.
func (b *Book) Issue() error {
	if !b.Available() {
		return apperrors.NewStateError(fmt.Sprintf("book %s is %s, not available", b.ISBN, b.Status)).
			WithContext("isbn", b.ISBN)
	}
	b.Status = StatusIssued
	return nil
}

// Return takes back an issued book. Any other state is a STATE error and
// the book is left unchanged.
func (b *Book) Return() error {
	if b.Status != StatusIssued {
		return apperrors.NewStateError(fmt.Sprintf("book %s is %s, not issued", b.ISBN, b.Status)).
			WithContext("isbn", b.ISBN)
	}
	b.Status = StatusAvailable
	return nil
}
