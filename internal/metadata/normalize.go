package metadata

import (
	"fmt"
	"strings"
	"time"

	"booklib/internal/platform/openlibrary"
)

// Normalize converts one raw search hit into a Record draft with ID unset.
// The external id is the suffix of the hit key after its last '/'
// ("works/OL1W" -> "OL1W"). Among the ISBN candidates the first 13-character
// one is taken; 10-digit ISBNs are never selected. ts becomes the draft's
// LastUpdated. Pure function, no I/O.
func Normalize(doc openlibrary.SearchDoc, ts time.Time) (Record, error) {
	idx := strings.LastIndex(doc.Key, "/")
	if idx < 0 {
		return Record{}, fmt.Errorf("%w: %q", ErrMalformedExternalKey, doc.Key)
	}

	rec := Record{
		ExternalID:  doc.Key[idx+1:],
		LastUpdated: ts,
	}

	if doc.Title != "" {
		title := doc.Title
		rec.Title = &title
	}

	for _, isbn := range doc.ISBN {
		if len(isbn) == 13 {
			candidate := isbn
			rec.ISBN = &candidate
			break
		}
	}

	if len(doc.AuthorNames) > 0 {
		author := doc.AuthorNames[0]
		rec.Author = &author
	}
	if len(doc.AuthorKeys) > 0 {
		key := doc.AuthorKeys[0]
		rec.AuthorKey = &key
	}

	if doc.FirstPublishYear != nil {
		year := *doc.FirstPublishYear
		rec.PublishYear = &year
	}
	if doc.MedianPages != nil {
		pages := *doc.MedianPages
		rec.PageCount = &pages
	}
	if doc.CoverID != nil {
		cover := *doc.CoverID
		rec.CoverID = &cover
	}

	return rec, nil
}
