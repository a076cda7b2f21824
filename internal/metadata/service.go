package metadata

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// Service is the reconciliation engine plus the search-and-reconcile pipeline.
type Service struct {
	search SearchClient
	repo   Repository
	now    func() time.Time
}

func NewService(search SearchClient, repo Repository) *Service {
	return &Service{
		search: search,
		repo:   repo,
		now:    time.Now,
	}
}

// Reconcile merges one draft into the store and returns the authoritative
// post-merge record. Safe to call repeatedly with the same draft: the strict
// recency gate makes the second call a no-op. A duplicate-key race with a
// concurrent insert is retried once; by then the row exists and the retry
// takes the merge path.
func (s *Service) Reconcile(ctx context.Context, draft Record) (Record, error) {
	rec, err := s.repo.Upsert(ctx, draft)
	if errors.Is(err, ErrDuplicateExternalID) {
		rec, err = s.repo.Upsert(ctx, draft)
	}
	return rec, err
}

// SearchAndReconcile queries Open Library and merges every hit into the store,
// returning the authoritative records in hit order. Hits are processed
// strictly sequentially: two hits in one batch can share an external id, and
// the later one must observe the earlier one's merge. A hit that cannot be
// normalized is logged and skipped; a store failure aborts the batch.
func (s *Service) SearchAndReconcile(ctx context.Context, title, author string) ([]Record, error) {
	if strings.TrimSpace(title) == "" && strings.TrimSpace(author) == "" {
		return nil, ErrInvalidQuery
	}

	docs, err := s.search.Search(ctx, title, author)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpstreamUnavailable, err)
	}

	records := make([]Record, 0, len(docs))
	for _, doc := range docs {
		draft, err := Normalize(doc, s.now())
		if err != nil {
			log.Printf("metadata: skipping hit key=%q: %v", doc.Key, err)
			continue
		}

		rec, err := s.Reconcile(ctx, draft)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// GetByID returns the stored record for a surrogate id.
func (s *Service) GetByID(ctx context.Context, id int64) (Record, error) {
	return s.repo.GetByID(ctx, id)
}
