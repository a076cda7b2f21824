package metadata

// Merge applies draft onto stored under the field-level coalesce rule: a field
// is overwritten only when the draft has it set and the draft is strictly newer
// than the stored record. A draft that is not newer changes nothing, whatever
// it carries. LastUpdated advances only when at least one field was actually
// overwritten, so a newer draft with no set fields is a no-op.
//
// The strict comparison means two drafts with identical timestamps never
// overwrite each other; that matches the store's historical behavior and
// changing it would silently alter merge outcomes.
func Merge(stored, draft Record) (Record, bool) {
	if !draft.LastUpdated.After(stored.LastUpdated) {
		return stored, false
	}

	merged := stored
	changed := false

	if draft.ISBN != nil {
		merged.ISBN = draft.ISBN
		changed = true
	}
	if draft.Title != nil {
		merged.Title = draft.Title
		changed = true
	}
	if draft.Author != nil {
		merged.Author = draft.Author
		changed = true
	}
	if draft.AuthorKey != nil {
		merged.AuthorKey = draft.AuthorKey
		changed = true
	}
	if draft.PublishYear != nil {
		merged.PublishYear = draft.PublishYear
		changed = true
	}
	if draft.PageCount != nil {
		merged.PageCount = draft.PageCount
		changed = true
	}
	if draft.CoverID != nil {
		merged.CoverID = draft.CoverID
		changed = true
	}

	if changed {
		merged.LastUpdated = draft.LastUpdated
	}
	return merged, changed
}
