package book

import (
	"errors"
)

// ErrNotFound is returned when a book is not found.
var ErrNotFound = errors.New("book not found")

// Book is a user-created catalog entry. Title and author are a free-text
// snapshot supplied by the creator and may disagree with any linked metadata
// record. MetadataID is a weak reference: it is never validated at write time
// and a dangling value resolves to no metadata at read time.
type Book struct {
	ID         int64   `json:"id"`
	Title      *string `json:"title,omitempty"`
	Author     *string `json:"author,omitempty"`
	MetadataID *int64  `json:"metadata_id,omitempty"`
}
