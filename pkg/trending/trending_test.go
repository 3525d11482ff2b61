package trending

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/kasuboski/moviefind/pkg/metrics"
	"github.com/kasuboski/moviefind/pkg/storage"
	"github.com/kasuboski/moviefind/pkg/storage/mocks"
	"github.com/kasuboski/moviefind/pkg/tmdb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func ptr[T any](v T) *T {
	return &v
}

func TestNew(t *testing.T) {
	tracker := New(nil)
	assert.Equal(t, DefaultImageURI, tracker.imageURI)
	assert.Equal(t, MaxLimit, tracker.Limit())

	tracker = New(nil, WithLimit(10), WithImageURI("https://img.example.com/w200/"))
	assert.Equal(t, MaxLimit, tracker.Limit())
	assert.Equal(t, "https://img.example.com/w200/", tracker.imageURI)

	tracker = New(nil, WithLimit(3), WithImageURI(""))
	assert.Equal(t, 3, tracker.Limit())
	assert.Equal(t, DefaultImageURI, tracker.imageURI)
}

func TestTracker_PosterURL(t *testing.T) {
	tracker := New(nil)

	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", tracker.PosterURL(ptr("/abc.jpg")))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", tracker.PosterURL(ptr("abc.jpg")))
	assert.Equal(t, "", tracker.PosterURL(nil))
	assert.Equal(t, "", tracker.PosterURL(ptr("")))

	tracker = New(nil, WithImageURI("https://img.example.com/w200/"))
	assert.Equal(t, "https://img.example.com/w200/abc.jpg", tracker.PosterURL(ptr("/abc.jpg")))
}

func TestNormalizeTerm(t *testing.T) {
	// e followed by a combining acute accent composes to a single rune
	assert.Equal(t, "Am\u00e9lie", NormalizeTerm("Ame\u0301lie"))
	assert.Equal(t, " Batman ", NormalizeTerm(" Batman "))
}

func TestTracker_RecordSearch(t *testing.T) {
	movie := tmdb.MovieSummary{ID: 268, Title: "Batman", PosterPath: ptr("/batman.jpg")}

	t.Run("creates a record", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		now := time.Now()
		store.EXPECT().UpsertSearch(ctx, storage.SearchUpsert{
			SearchTerm: "batman",
			PosterURL:  "https://image.tmdb.org/t/p/w500/batman.jpg",
			MovieID:    268,
		}).Return(storage.SearchRecord{ID: "1", SearchTerm: "batman", Count: 1, CreatedAt: now, UpdatedAt: now}, true, nil)

		got := New(store).RecordSearch(ctx, "batman", movie)
		require.NoError(t, got.Err)
		assert.True(t, got.Created)
		require.NotNil(t, got.Record)
		assert.Equal(t, 1, got.Record.Count)
	})

	t.Run("increments a record", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)
		m := metrics.New(prometheus.NewRegistry())

		store.EXPECT().UpsertSearch(ctx, gomock.Any()).Return(storage.SearchRecord{ID: "1", SearchTerm: "batman", Count: 2}, false, nil)

		got := New(store, WithMetrics(m)).RecordSearch(ctx, "batman", movie)
		require.NoError(t, got.Err)
		assert.False(t, got.Created)
		assert.Equal(t, 2, got.Record.Count)
	})

	t.Run("movie without poster", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		store.EXPECT().UpsertSearch(ctx, storage.SearchUpsert{SearchTerm: "obscure", MovieID: 7}).
			Return(storage.SearchRecord{ID: "1", SearchTerm: "obscure", Count: 1}, true, nil)

		got := New(store).RecordSearch(ctx, "obscure", tmdb.MovieSummary{ID: 7})
		require.NoError(t, got.Err)
		assert.Empty(t, got.Record.PosterURL)
	})

	t.Run("empty term", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		got := New(store).RecordSearch(context.Background(), "", movie)
		assert.ErrorIs(t, got.Err, ErrEmptyTerm)
		assert.Nil(t, got.Record)
	})

	t.Run("store failure is returned in the result", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		wantErr := errors.New("expected testing error")
		store.EXPECT().UpsertSearch(ctx, gomock.Any()).Return(storage.SearchRecord{}, false, wantErr)

		got := New(store).RecordSearch(ctx, "batman", movie)
		assert.ErrorIs(t, got.Err, wantErr)
		assert.Nil(t, got.Record)
		assert.False(t, got.Created)
	})
}

func TestTracker_Trending(t *testing.T) {
	t.Run("sorted and capped", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		store.EXPECT().ListTrending(ctx, 3).Return([]storage.SearchRecord{
			{ID: "1", SearchTerm: "alien", Count: 2, UpdatedAt: base},
			{ID: "2", SearchTerm: "batman", Count: 5, UpdatedAt: base},
			{ID: "3", SearchTerm: "cars", Count: 2, UpdatedAt: base.Add(time.Minute)},
			{ID: "4", SearchTerm: "dune", Count: 1, UpdatedAt: base},
		}, nil)

		got := New(store, WithLimit(3)).Trending(ctx)
		require.NoError(t, got.Err)
		require.Len(t, got.Records, 3)
		assert.Equal(t, "batman", got.Records[0].SearchTerm)
		assert.Equal(t, "cars", got.Records[1].SearchTerm)
		assert.Equal(t, "alien", got.Records[2].SearchTerm)
	})

	t.Run("empty store", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		store.EXPECT().ListTrending(ctx, MaxLimit).Return(nil, nil)

		got := New(store).Trending(ctx)
		require.NoError(t, got.Err)
		assert.NotNil(t, got.Records)
		assert.Empty(t, got.Records)
	})

	t.Run("failure", func(t *testing.T) {
		ctx := context.Background()
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)

		store.EXPECT().ListTrending(ctx, MaxLimit).Return(nil, errors.New("expected testing error"))

		got := New(store).Trending(ctx)
		assert.ErrorContains(t, got.Err, "expected testing error")
		assert.NotNil(t, got.Records)
		assert.Empty(t, got.Records)
	})
}

func TestTracker_Lookup(t *testing.T) {
	ctx := context.Background()

	t.Run("normalizes the term", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)
		store.EXPECT().GetSearch(ctx, "Am\u00e9lie").Return(storage.SearchRecord{ID: "4", SearchTerm: "Am\u00e9lie", Count: 3}, nil)

		got, err := New(store).Lookup(ctx, "Ame\u0301lie")
		require.NoError(t, err)
		assert.Equal(t, 3, got.Count)
	})

	t.Run("not found", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		store := mocks.NewMockStorage(ctrl)
		store.EXPECT().GetSearch(ctx, "nothing").Return(storage.SearchRecord{}, storage.ErrNotFound)

		_, err := New(store).Lookup(ctx, "nothing")
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("empty term", func(t *testing.T) {
		_, err := New(nil).Lookup(ctx, "")
		assert.ErrorIs(t, err, ErrEmptyTerm)
	})
}
