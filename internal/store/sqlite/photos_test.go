package sqlite

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
)

func photoIDs(photos []*domain.Photo) []string {
	ids := make([]string, 0, len(photos))
	for _, p := range photos {
		ids = append(ids, p.ID)
	}
	return ids
}

func TestUpsert_InsertsAndReturnsHandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	handles, err := s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("A", "Alpha", "2020-01-01"),
		descriptor("B", "Bravo", "2019-06-15"),
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Handle{{PhotoID: "A"}, {PhotoID: "B"}}, handles)

	photos, err := s.Resolve(ctx, handles)
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "Alpha", photos[0].Title)
	assert.Equal(t, "https://live.staticflickr.com/65535/A_h.jpg", photos[0].RemoteURL)
	assert.True(t, photos[0].DateTaken.Equal(time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, photos[0].CreatedAt.IsZero())
}

func TestResolve_PreservesDateTakenAcrossZones(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	tokyo := time.FixedZone("JST", 9*60*60)
	taken, err := time.ParseInLocation("2006-01-02 15:04:05", "2020-01-01 08:30:15", tokyo)
	require.NoError(t, err)

	d := descriptor("A", "Alpha", "2020-01-01")
	d.DateTaken = taken

	handles, err := s.Upsert(ctx, []domain.PhotoDescriptor{d})
	require.NoError(t, err)

	photos, err := s.Resolve(ctx, handles)
	require.NoError(t, err)
	require.Len(t, photos, 1)

	got := photos[0]
	assert.Equal(t, d.ID, got.ID)
	assert.Equal(t, d.Title, got.Title)
	assert.Equal(t, d.RemoteURL, got.RemoteURL)
	assert.True(t, got.DateTaken.Equal(taken), "got %s, want %s", got.DateTaken, taken)
	assert.Equal(t, time.Date(2019, 12, 31, 23, 30, 15, 0, time.UTC), got.DateTaken.UTC())
}

func TestUpsert_FirstWriteWins(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.PhotoDescriptor{descriptor("A", "original", "2020-01-01")})
	require.NoError(t, err)

	handles, err := s.Upsert(ctx, []domain.PhotoDescriptor{descriptor("A", "changed", "2021-01-01")})
	require.NoError(t, err)
	assert.Equal(t, []domain.Handle{{PhotoID: "A"}}, handles)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "original", all[0].Title)
}

func TestUpsert_DuplicatesWithinBatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	handles, err := s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("A", "first", "2020-01-01"),
		descriptor("B", "bravo", "2020-01-02"),
		descriptor("A", "second", "2020-01-03"),
	})
	require.NoError(t, err)
	assert.Equal(t, []domain.Handle{{PhotoID: "A"}, {PhotoID: "B"}}, handles)

	p, err := s.GetPhoto(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, "first", p.Title)
}

func TestUpsert_Empty(t *testing.T) {
	s := newTestStore(t)

	handles, err := s.Upsert(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, handles)
}

func TestUpsert_BatchIsAtomic(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	// Reject the last row of the batch.
	_, err := s.writer.ExecContext(ctx, `CREATE TRIGGER reject_c BEFORE INSERT ON photos
		WHEN NEW.photo_id = 'C' BEGIN SELECT RAISE(ABORT, 'rejected'); END`)
	require.NoError(t, err)

	_, err = s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("A", "a", "2020-01-01"),
		descriptor("B", "b", "2020-01-02"),
		descriptor("C", "c", "2020-01-03"),
	})
	require.Error(t, err)
	assert.Equal(t, domainerrors.CodeStorage, domainerrors.CodeOf(err))

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "no row of a failed batch may be visible")
}

func TestFetchAll_SortedByDateTaken(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("late", "", "2021-03-01"),
		descriptor("early", "", "2019-06-15"),
		descriptor("mid", "", "2020-01-01"),
	})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "mid", "late"}, photoIDs(all))
}

func TestFetchAll_TiesBrokenByID(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("b", "", "2020-01-01"),
		descriptor("a", "", "2020-01-01"),
	})
	require.NoError(t, err)

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, photoIDs(all))
}

func TestFetchAll_EmptyStore(t *testing.T) {
	s := newTestStore(t)

	all, err := s.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestResolve_KeepsHandleOrderAndSkipsMissing(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.Upsert(ctx, []domain.PhotoDescriptor{
		descriptor("A", "", "2020-01-01"),
		descriptor("B", "", "2019-01-01"),
	})
	require.NoError(t, err)

	photos, err := s.Resolve(ctx, []domain.Handle{{PhotoID: "B"}, {PhotoID: "ghost"}, {PhotoID: "A"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "A"}, photoIDs(photos))
}

func TestResolve_ManyHandles(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	descriptors := make([]domain.PhotoDescriptor, 0, resolveChunk+20)
	for i := range resolveChunk + 20 {
		descriptors = append(descriptors, descriptor("p"+strconv.Itoa(i), "", "2020-01-01"))
	}
	handles, err := s.Upsert(ctx, descriptors)
	require.NoError(t, err)

	photos, err := s.Resolve(ctx, handles)
	require.NoError(t, err)
	require.Len(t, photos, len(handles))
	assert.Equal(t, handles[len(handles)-1].PhotoID, photos[len(photos)-1].ID)
}

func TestGetPhoto_NotFound(t *testing.T) {
	s := newTestStore(t)

	_, err := s.GetPhoto(context.Background(), "missing")
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestUpsert_ConcurrentWritersSerialize(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := range 8 {
		wg.Go(func() {
			_, err := s.Upsert(ctx, []domain.PhotoDescriptor{
				descriptor("shared", strconv.Itoa(i), "2020-01-01"),
				descriptor("own-"+strconv.Itoa(i), "", "2020-01-02"),
			})
			errs <- err
		})
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	all, err := s.FetchAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 9, "one shared photo plus one per writer")
}
