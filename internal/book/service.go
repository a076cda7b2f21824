package book

import (
	"context"
	"errors"

	"booklib/internal/metadata"
)

// MetadataStore is the slice of the metadata repository the registry needs to
// resolve a book's weak reference.
type MetadataStore interface {
	GetByID(ctx context.Context, id int64) (metadata.Record, error)
}

// Service provides the book registry: plain CRUD plus metadata resolution.
type Service struct {
	repo     Repository
	metadata MetadataStore
}

func NewService(repo Repository, metadata MetadataStore) *Service {
	return &Service{repo: repo, metadata: metadata}
}

// Create persists a new book. The metadata reference, if any, is stored as
// given; its existence is checked at read time, not here.
func (s *Service) Create(ctx context.Context, title, author *string, metadataID *int64) (Book, error) {
	return s.repo.Create(ctx, Book{
		Title:      title,
		Author:     author,
		MetadataID: metadataID,
	})
}

// List returns all books.
func (s *Service) List(ctx context.Context) ([]Book, error) {
	return s.repo.List(ctx)
}

// GetByID returns a book by its id.
func (s *Service) GetByID(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetByID(ctx, id)
}

// ResolveMetadata looks up the book's metadata reference. It returns nil both
// when the book has no reference and when the reference is dangling; a missing
// target is not an error.
func (s *Service) ResolveMetadata(ctx context.Context, b Book) (*metadata.Record, error) {
	if b.MetadataID == nil {
		return nil, nil
	}

	rec, err := s.metadata.GetByID(ctx, *b.MetadataID)
	if err != nil {
		if errors.Is(err, metadata.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
