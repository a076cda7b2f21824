package metadata

import (
	"context"
	"errors"
	"testing"
	"time"

	"booklib/internal/platform/openlibrary"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSearchClient struct {
	mock.Mock
}

func (m *mockSearchClient) Search(ctx context.Context, title, author string) ([]openlibrary.SearchDoc, error) {
	args := m.Called(ctx, title, author)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]openlibrary.SearchDoc), args.Error(1)
}

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) Upsert(ctx context.Context, draft Record) (Record, error) {
	args := m.Called(ctx, draft)
	return args.Get(0).(Record), args.Error(1)
}

func (m *mockRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(Record), args.Error(1)
}

// fakeRepo is an in-memory repository with the same merge semantics as the
// Postgres one, used where tests need real state across calls.
type fakeRepo struct {
	byExternal map[string]Record
	nextID     int64
	upserts    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byExternal: make(map[string]Record)}
}

func (f *fakeRepo) Upsert(ctx context.Context, draft Record) (Record, error) {
	f.upserts++
	stored, ok := f.byExternal[draft.ExternalID]
	if !ok {
		f.nextID++
		draft.ID = f.nextID
		f.byExternal[draft.ExternalID] = draft
		return draft, nil
	}

	merged, changed := Merge(stored, draft)
	if changed {
		f.byExternal[draft.ExternalID] = merged
	}
	return merged, nil
}

func (f *fakeRepo) GetByID(ctx context.Context, id int64) (Record, error) {
	for _, rec := range f.byExternal {
		if rec.ID == id {
			return rec, nil
		}
	}
	return Record{}, ErrNotFound
}

// stepClock returns a clock that advances one second per call.
func stepClock(start time.Time) func() time.Time {
	current := start
	return func() time.Time {
		current = current.Add(time.Second)
		return current
	}
}

func TestService_SearchAndReconcile_InvalidQuery(t *testing.T) {
	search := new(mockSearchClient)
	repo := new(mockRepo)
	svc := NewService(search, repo)

	for _, tc := range []struct{ title, author string }{
		{"", ""},
		{"   ", ""},
		{"", "\t"},
	} {
		_, err := svc.SearchAndReconcile(context.Background(), tc.title, tc.author)
		assert.ErrorIs(t, err, ErrInvalidQuery)
	}

	search.AssertNotCalled(t, "Search", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_SearchAndReconcile_UpstreamFailure(t *testing.T) {
	search := new(mockSearchClient)
	repo := new(mockRepo)
	svc := NewService(search, repo)

	search.On("Search", mock.Anything, "Dune", "").Return(nil, errors.New("connection refused"))

	_, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	assert.ErrorIs(t, err, ErrUpstreamUnavailable)
	repo.AssertNotCalled(t, "Upsert", mock.Anything, mock.Anything)
}

func TestService_SearchAndReconcile_SkipsMalformedHits(t *testing.T) {
	search := new(mockSearchClient)
	repo := newFakeRepo()
	svc := NewService(search, repo)
	svc.now = stepClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	search.On("Search", mock.Anything, "Dune", "").Return([]openlibrary.SearchDoc{
		{Key: "no-separator", Title: "Broken"},
		{Key: "works/OL1W", Title: "Dune"},
	}, nil)

	records, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "OL1W", records[0].ExternalID)
}

func TestService_SearchAndReconcile_StoreFailureAbortsBatch(t *testing.T) {
	search := new(mockSearchClient)
	repo := new(mockRepo)
	svc := NewService(search, repo)

	search.On("Search", mock.Anything, "Dune", "").Return([]openlibrary.SearchDoc{
		{Key: "works/OL1W", Title: "Dune"},
		{Key: "works/OL2W", Title: "Dune Messiah"},
	}, nil)
	repo.On("Upsert", mock.Anything, mock.Anything).Return(Record{}, ErrStoreUnavailable).Once()

	_, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	repo.AssertNumberOfCalls(t, "Upsert", 1)
}

func TestService_Reconcile_RetriesDuplicateRaceOnce(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(new(mockSearchClient), repo)

	draft := Record{ExternalID: "OL1W", Title: strPtr("Dune"), LastUpdated: t1}
	want := Record{ID: 7, ExternalID: "OL1W", Title: strPtr("Dune"), LastUpdated: t1}

	repo.On("Upsert", mock.Anything, draft).Return(Record{}, ErrDuplicateExternalID).Once()
	repo.On("Upsert", mock.Anything, draft).Return(want, nil).Once()

	rec, err := svc.Reconcile(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, want, rec)
	repo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestService_Reconcile_SurfacesPersistentDuplicate(t *testing.T) {
	repo := new(mockRepo)
	svc := NewService(new(mockSearchClient), repo)

	draft := Record{ExternalID: "OL1W", LastUpdated: t1}
	repo.On("Upsert", mock.Anything, draft).Return(Record{}, ErrDuplicateExternalID).Twice()

	_, err := svc.Reconcile(context.Background(), draft)
	assert.ErrorIs(t, err, ErrDuplicateExternalID)
	repo.AssertNumberOfCalls(t, "Upsert", 2)
}

func TestService_SearchAndReconcile_BatchOrdering(t *testing.T) {
	// Two hits with the same external id: the later one carries a later draft
	// timestamp and must observe (and overwrite) the earlier one's merge.
	search := new(mockSearchClient)
	repo := newFakeRepo()
	svc := NewService(search, repo)
	svc.now = stepClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	search.On("Search", mock.Anything, "Dune", "").Return([]openlibrary.SearchDoc{
		{Key: "works/OL1W", Title: "A"},
		{Key: "works/OL1W", Title: "B"},
	}, nil)

	records, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "A", *records[0].Title)
	assert.Equal(t, "B", *records[1].Title)
	assert.Equal(t, records[0].ID, records[1].ID)

	stored := repo.byExternal["OL1W"]
	assert.Equal(t, "B", *stored.Title)
}

func TestService_SearchAndReconcile_EndToEnd(t *testing.T) {
	search := new(mockSearchClient)
	repo := newFakeRepo()
	svc := NewService(search, repo)
	svc.now = stepClock(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))

	search.On("Search", mock.Anything, "Dune", "").Return([]openlibrary.SearchDoc{
		{Key: "works/OL1W", Title: "Dune", ISBN: []string{"9780441013593"}},
	}, nil)

	records, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	require.NoError(t, err)
	require.Len(t, records, 1)

	rec := records[0]
	assert.Equal(t, int64(1), rec.ID)
	assert.Equal(t, "OL1W", rec.ExternalID)
	assert.Equal(t, "Dune", *rec.Title)
	assert.Equal(t, "9780441013593", *rec.ISBN)
	assert.Nil(t, rec.Author)

	// A repeated search carries newer draft timestamps but no new
	// information, so the stored record keeps its identity and values.
	again, err := svc.SearchAndReconcile(context.Background(), "Dune", "")
	require.NoError(t, err)
	require.Len(t, again, 1)
	assert.Equal(t, rec.ID, again[0].ID)
	assert.Equal(t, "Dune", *again[0].Title)
}
