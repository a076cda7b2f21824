package metadata

import (
	"context"

	"booklib/internal/platform/openlibrary"
)

// Repository is the persistence contract for metadata records. Upsert must be
// atomic per external id: two concurrent calls for the same key must not both
// observe "no existing record".
type Repository interface {
	Upsert(ctx context.Context, draft Record) (Record, error)
	GetByID(ctx context.Context, id int64) (Record, error)
}

// SearchClient issues a bibliographic search against the external source.
type SearchClient interface {
	Search(ctx context.Context, title, author string) ([]openlibrary.SearchDoc, error)
}
