package metadata

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when no record exists for a given id.
	ErrNotFound = errors.New("metadata record not found")

	// ErrMalformedExternalKey is returned when a search hit's key has no
	// namespace separator and no external id can be extracted. It is permanent
	// for that hit and never aborts a batch.
	ErrMalformedExternalKey = errors.New("malformed external key")

	// ErrInvalidQuery is returned when a search carries neither a title nor an
	// author filter.
	ErrInvalidQuery = errors.New("at least one of title or author must be supplied")

	// ErrUpstreamUnavailable is returned when the Open Library call fails or
	// times out. The whole batch is aborted.
	ErrUpstreamUnavailable = errors.New("open library unavailable")

	// ErrStoreUnavailable is returned when the database cannot be reached.
	// Reconciliation is idempotent, so the caller may retry the whole call.
	ErrStoreUnavailable = errors.New("metadata store unavailable")

	// ErrDuplicateExternalID is returned when a concurrent insert wins the
	// external_id uniqueness race. The engine retries once before surfacing it.
	ErrDuplicateExternalID = errors.New("duplicate external id")
)

// Record is the canonical bibliographic fact sheet for one work, keyed by the
// Open Library id. ID is zero until the record has been persisted. Optional
// fields are pointers: nil means the value is not known yet, and a merge never
// replaces a known value with an unknown one.
type Record struct {
	ID          int64     `json:"id"`
	ExternalID  string    `json:"external_id"`
	ISBN        *string   `json:"isbn,omitempty"`
	Title       *string   `json:"title,omitempty"`
	Author      *string   `json:"author,omitempty"`
	AuthorKey   *string   `json:"author_key,omitempty"`
	PublishYear *int      `json:"publish_year,omitempty"`
	PageCount   *int      `json:"page_count,omitempty"`
	CoverID     *int64    `json:"cover_id,omitempty"`
	LastUpdated time.Time `json:"last_updated"`
}
