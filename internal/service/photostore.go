// Package service orchestrates the photo sync pipeline: fetch the remote listing,
// parse it, persist it, and hand photos and images back to the caller.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"github.com/photoramax/photorama/internal/domain"
	domainerrors "github.com/photoramax/photorama/internal/errors"
	"github.com/photoramax/photorama/internal/lane"
	"github.com/photoramax/photorama/internal/media/cache"
	"github.com/photoramax/photorama/internal/media/images"
	"github.com/photoramax/photorama/internal/store"
)

// Operation names used in logs and metrics.
const (
	OpRefresh   = "refresh_listing"
	OpLocal     = "fetch_all_local"
	OpImage     = "fetch_image"
	OpTags      = "fetch_all_tags"
	OpCreateTag = "create_tag"
	OpSetTag    = "set_tag"
	OpPhotoTags = "fetch_photo_tags"
)

var tracer = otel.Tracer("github.com/photoramax/photorama/internal/service")

const (
	deliveryLane = "delivery"
	workerLane   = "workers"
)

// Fetcher retrieves remote bytes.
type Fetcher interface {
	FetchListing(ctx context.Context) ([]byte, error)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// ListingParser turns a listing payload into descriptors.
type ListingParser interface {
	Parse(data []byte) ([]domain.PhotoDescriptor, error)
}

// Deps are the collaborators of a PhotoStore. The store does not own them and
// does not close them.
type Deps struct {
	Fetcher Fetcher
	Parser  ListingParser
	Photos  store.PhotoRepository
	Tags    store.TagRepository
	Cache   cache.Cache
}

// Options tune a PhotoStore.
type Options struct {
	// Workers sizes the background pool (runtime.NumCPU() when <= 0).
	Workers int

	// Deliverer runs result callbacks. When nil the store starts its own serial
	// delivery lane.
	Deliverer lane.Deliverer

	// Registerer receives the store's metrics. Nil disables metrics.
	Registerer prometheus.Registerer
}

// PhotoStore is the caller-facing entry point.
//
// The synchronous methods block and are safe for concurrent use. The callback
// methods return immediately, run on the worker pool, and deliver their result
// exactly once on the delivery lane. After Close, callback methods deliver a
// closed error synchronously on the calling goroutine.
type PhotoStore struct {
	deps      Deps
	pool      *lane.Pool
	deliverer lane.Deliverer
	serial    *lane.Serial // nil when the caller supplied a Deliverer
	metrics   *Metrics
	logger    *slog.Logger

	ctx        context.Context
	closed     atomic.Bool
	closeOnce  sync.Once
	drained    chan struct{}
	delivering atomic.Int64 // callbacks currently running
}

// NewPhotoStore wires a PhotoStore and starts its lanes.
func NewPhotoStore(deps Deps, opts Options, logger *slog.Logger) (*PhotoStore, error) {
	switch {
	case deps.Fetcher == nil:
		return nil, fmt.Errorf("photo store: fetcher is required")
	case deps.Parser == nil:
		return nil, fmt.Errorf("photo store: parser is required")
	case deps.Photos == nil || deps.Tags == nil:
		return nil, fmt.Errorf("photo store: repositories are required")
	case deps.Cache == nil:
		return nil, fmt.Errorf("photo store: image cache is required")
	}

	s := &PhotoStore{
		deps:    deps,
		pool:    lane.NewPool(workerLane, opts.Workers, logger),
		logger:  logger,
		ctx:     context.Background(),
		drained: make(chan struct{}),
	}

	if opts.Deliverer != nil {
		s.deliverer = opts.Deliverer
	} else {
		s.serial = lane.NewSerial(deliveryLane, logger)
		s.deliverer = s.serial
	}

	if opts.Registerer != nil {
		s.metrics = NewMetrics(opts.Registerer)
		s.metrics.RegisterPending(opts.Registerer, workerLane, s.pool.Pending)
	}

	return s, nil
}

// Close stops accepting work, waits for in-flight operations and their
// deliveries, and stops the delivery lane. It is safe to call more than once.
//
// Called while a delivered callback is running, typically from the callback
// itself, Close does not wait: the remaining deliveries run after the callback
// returns. Callbacks must not block waiting for the store to drain.
func (s *PhotoStore) Close() error {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		go s.drain()
	})
	if s.delivering.Load() == 0 {
		<-s.drained
	}
	return nil
}

func (s *PhotoStore) drain() {
	s.pool.Close()
	if s.serial != nil {
		s.serial.Close()
	}
	s.logger.Info("photo store closed")
	close(s.drained)
}

// Refresh fetches the remote listing, stores new photos and returns every
// listed photo as stored locally, in listing order.
func (s *PhotoStore) Refresh(ctx context.Context) ([]*domain.Photo, error) {
	data, err := s.deps.Fetcher.FetchListing(ctx)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeTransport, "fetch listing")
	}

	descriptors, err := s.deps.Parser.Parse(data)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeInvalidData, "parse listing")
	}

	handles, err := s.deps.Photos.Upsert(ctx, descriptors)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "store photos")
	}

	photos, err := s.deps.Photos.Resolve(ctx, handles)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "resolve photos")
	}

	if s.metrics != nil {
		s.metrics.LastRefreshPhotos.Set(float64(len(photos)))
	}
	s.logger.Info("listing refreshed", "listed", len(descriptors), "photos", len(photos))

	return photos, nil
}

// LocalPhotos returns every stored photo, oldest first.
func (s *PhotoStore) LocalPhotos(ctx context.Context) ([]*domain.Photo, error) {
	photos, err := s.deps.Photos.FetchAll(ctx)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "fetch local photos")
	}
	return photos, nil
}

// Photo returns one stored photo.
func (s *PhotoStore) Photo(ctx context.Context, photoID string) (*domain.Photo, error) {
	p, err := s.deps.Photos.GetPhoto(ctx, photoID)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "get photo")
	}
	return p, nil
}

// Image returns the decoded image of photo. Cached bytes are used when they
// decode; otherwise the image is downloaded, decoded and cached. A failed cache
// write is logged and does not fail the call.
func (s *PhotoStore) Image(ctx context.Context, photo *domain.Photo) (*images.Image, error) {
	if photo == nil || photo.ID == "" {
		return nil, domainerrors.Validation("photo is required")
	}

	if data, ok := s.deps.Cache.Get(photo.ID); ok {
		img, err := images.Decode(data)
		if err == nil {
			s.metrics.recordCache(cacheHit)
			s.logger.Debug("image cache hit", "photo_id", photo.ID)
			return img, nil
		}
		s.metrics.recordCache(cacheStale)
		s.logger.Warn("cached image does not decode, refetching", "photo_id", photo.ID, "error", err)
	} else {
		s.metrics.recordCache(cacheMiss)
	}

	data, err := s.deps.Fetcher.FetchBytes(ctx, photo.RemoteURL)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeTransport, "fetch image")
	}

	img, err := images.Decode(data)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeDecode, "decode image")
	}

	if err := s.deps.Cache.Put(photo.ID, data); err != nil {
		s.metrics.recordCache(cachePutError)
		s.logger.Warn("failed to cache image", "photo_id", photo.ID, "error", err)
	}

	return img, nil
}

// Tags returns every tag ordered by name.
func (s *PhotoStore) Tags(ctx context.Context) ([]*domain.Tag, error) {
	tags, err := s.deps.Tags.FetchAllTags(ctx)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "fetch tags")
	}
	return tags, nil
}

// NewTag creates a tag.
func (s *PhotoStore) NewTag(ctx context.Context, name string) (*domain.Tag, error) {
	tag, err := s.deps.Tags.CreateTag(ctx, name)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "create tag")
	}
	return tag, nil
}

// Tag returns one tag.
func (s *PhotoStore) Tag(ctx context.Context, tagID string) (*domain.Tag, error) {
	tag, err := s.deps.Tags.GetTag(ctx, tagID)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "get tag")
	}
	return tag, nil
}

// SetPhotoTag attaches (member true) or detaches (member false) a tag.
func (s *PhotoStore) SetPhotoTag(ctx context.Context, photoID, tagID string, member bool) error {
	var err error
	if member {
		err = s.deps.Photos.AddTag(ctx, photoID, tagID)
	} else {
		err = s.deps.Photos.RemoveTag(ctx, photoID, tagID)
	}
	if err != nil {
		return domainerrors.Recode(err, domainerrors.CodeStorage, "update photo tags")
	}
	return nil
}

// PhotoTags returns the tags attached to a photo.
func (s *PhotoStore) PhotoTags(ctx context.Context, photoID string) ([]*domain.Tag, error) {
	tags, err := s.deps.Photos.TagsForPhoto(ctx, photoID)
	if err != nil {
		return nil, domainerrors.Recode(err, domainerrors.CodeStorage, "fetch photo tags")
	}
	return tags, nil
}

// RefreshListing runs Refresh in the background.
func (s *PhotoStore) RefreshListing(cb func([]*domain.Photo, error)) {
	dispatch(s, OpRefresh, s.Refresh, cb)
}

// FetchAllLocal runs LocalPhotos in the background.
func (s *PhotoStore) FetchAllLocal(cb func([]*domain.Photo, error)) {
	dispatch(s, OpLocal, s.LocalPhotos, cb)
}

// FetchImage runs Image in the background.
func (s *PhotoStore) FetchImage(photo *domain.Photo, cb func(*images.Image, error)) {
	dispatch(s, OpImage, func(ctx context.Context) (*images.Image, error) {
		return s.Image(ctx, photo)
	}, cb)
}

// FetchAllTags runs Tags in the background.
func (s *PhotoStore) FetchAllTags(cb func([]*domain.Tag, error)) {
	dispatch(s, OpTags, s.Tags, cb)
}

// CreateTag runs NewTag in the background.
func (s *PhotoStore) CreateTag(name string, cb func(*domain.Tag, error)) {
	dispatch(s, OpCreateTag, func(ctx context.Context) (*domain.Tag, error) {
		return s.NewTag(ctx, name)
	}, cb)
}

// SetTag runs SetPhotoTag in the background.
func (s *PhotoStore) SetTag(photo *domain.Photo, tag *domain.Tag, member bool, cb func(error)) {
	var wrapped func(struct{}, error)
	if cb != nil {
		wrapped = func(_ struct{}, err error) { cb(err) }
	}
	dispatch(s, OpSetTag, func(ctx context.Context) (struct{}, error) {
		if photo == nil || tag == nil {
			return struct{}{}, domainerrors.Validation("photo and tag are required")
		}
		return struct{}{}, s.SetPhotoTag(ctx, photo.ID, tag.ID, member)
	}, wrapped)
}

// FetchPhotoTags runs PhotoTags in the background.
func (s *PhotoStore) FetchPhotoTags(photo *domain.Photo, cb func([]*domain.Tag, error)) {
	dispatch(s, OpPhotoTags, func(ctx context.Context) ([]*domain.Tag, error) {
		if photo == nil {
			return nil, domainerrors.Validation("photo is required")
		}
		return s.PhotoTags(ctx, photo.ID)
	}, cb)
}

// dispatch runs work on the pool and delivers its outcome to cb exactly once.
func dispatch[T any](s *PhotoStore, op string, work func(context.Context) (T, error), cb func(T, error)) {
	if cb == nil {
		cb = func(T, error) {}
	}

	var once sync.Once
	deliver := func(v T, err error) {
		once.Do(func() {
			s.delivering.Add(1)
			defer s.delivering.Add(-1)
			cb(v, err)
		})
	}

	closedErr := func() error {
		return domainerrors.Closed(fmt.Sprintf("photo store is closed; %s not started", op))
	}

	if s.closed.Load() {
		var zero T
		deliver(zero, closedErr())
		return
	}

	task := func() {
		ctx, span := tracer.Start(s.ctx, op)
		start := time.Now()
		v, err := runSafely(ctx, op, work)
		s.metrics.RecordOperation(op, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, string(domainerrors.CodeOf(err)))
			s.logger.Debug("operation failed", "operation", op, "error", err)
		}
		span.End()

		if derr := s.deliverer.Deliver(func() { deliver(v, err) }); derr != nil {
			s.logger.Warn("delivery lane unavailable, delivering on worker", "operation", op, "error", derr)
			deliver(v, err)
		}
	}

	if err := s.pool.Submit(task); err != nil {
		var zero T
		deliver(zero, closedErr())
	}
}

// runSafely converts a panic in work into an internal error so the callback
// still fires.
func runSafely[T any](ctx context.Context, op string, work func(context.Context) (T, error)) (v T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			v = zero
			err = domainerrors.Wrap(fmt.Errorf("panic: %v", r), domainerrors.CodeInternal, op)
		}
	}()
	return work(ctx)
}
