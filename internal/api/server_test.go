package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/photoramax/photorama/internal/flickr"
	"github.com/photoramax/photorama/internal/media/cache"
	"github.com/photoramax/photorama/internal/service"
	"github.com/photoramax/photorama/internal/store/sqlite"
)

// testEnvelope mirrors the wire envelope for decoding in tests.
type testEnvelope[T any] struct {
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// fakeRemote serves a listing at /rest and images under /img/.
type fakeRemote struct {
	*httptest.Server

	mu            sync.Mutex
	listingStatus int
	listingHold   chan struct{} // when set, listing requests block until it is closed
	listingSeen   chan struct{}
	hits          map[string]int
	image         []byte
}

func newFakeRemote(t *testing.T) *fakeRemote {
	t.Helper()

	r := &fakeRemote{
		listingStatus: http.StatusOK,
		hits:          map[string]int{},
		image:         testPNG(t),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/rest", func(w http.ResponseWriter, _ *http.Request) {
		r.mu.Lock()
		status := r.listingStatus
		hold, seen := r.listingHold, r.listingSeen
		r.hits["/rest"]++
		r.mu.Unlock()

		if hold != nil {
			select {
			case seen <- struct{}{}:
			default:
			}
			<-hold
		}

		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"photos": {"photo": [
			{"id": "A", "title": "Alpha", "datetaken": "2020-01-01 00:00:00", "url_h": "%[1]s/img/A.png"},
			{"id": "B", "title": "Bravo", "datetaken": "2019-06-15 00:00:00", "url_h": "%[1]s/img/B.png"},
			{"id": "C", "title": "broken", "datetaken": "not a date", "url_h": "%[1]s/img/C.png"}
		]}, "stat": "ok"}`, r.URL)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, req *http.Request) {
		r.mu.Lock()
		r.hits[req.URL.Path]++
		r.mu.Unlock()
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(r.image)
	})

	r.Server = httptest.NewServer(mux)
	t.Cleanup(r.Close)
	return r
}

func (r *fakeRemote) setListingStatus(status int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listingStatus = status
}

// holdListing makes listing requests block. It returns a channel signalled
// when a held request arrives and a function releasing every held request.
func (r *fakeRemote) holdListing(t *testing.T) (<-chan struct{}, func()) {
	t.Helper()
	hold := make(chan struct{})
	seen := make(chan struct{}, 1)

	r.mu.Lock()
	r.listingHold, r.listingSeen = hold, seen
	r.mu.Unlock()

	var once sync.Once
	release := func() { once.Do(func() { close(hold) }) }
	t.Cleanup(release)
	return seen, release
}

func (r *fakeRemote) hitCount(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.hits[path]
}

func testPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 6))
	for y := range 6 {
		for x := range 8 {
			img.Set(x, y, color.RGBA{R: uint8(x * 30), G: uint8(y * 40), B: 120, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

type testServer struct {
	*Server
	api    humatest.TestAPI
	remote *fakeRemote
}

// setupTestServer wires a server over a real photo store backed by a
// temporary database, a bolt image cache and a fake remote.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()

	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	remote := newFakeRemote(t)

	repo, err := sqlite.Open(filepath.Join(dir, "photorama.db"), logger)
	require.NoError(t, err)

	imageCache, err := cache.Open(cache.BackendBolt, filepath.Join(dir, "images.db"), logger)
	require.NoError(t, err)

	client, err := flickr.NewClient(flickr.ClientConfig{
		BaseURL: remote.URL + "/rest",
		APIKey:  "test-key",
		Timeout: 5 * time.Second,
	}, logger)
	require.NoError(t, err)

	registry := prometheus.NewRegistry()
	photos, err := service.NewPhotoStore(service.Deps{
		Fetcher: client,
		Parser:  flickr.NewParser(time.UTC, nil, logger),
		Photos:  repo,
		Tags:    repo,
		Cache:   imageCache,
	}, service.Options{Workers: 2, Registerer: registry}, logger)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = photos.Close()
		_ = imageCache.Close()
		_ = repo.Close()
		client.Close()
	})

	s := NewServer(photos, registry, logger)
	return &testServer{
		Server: s,
		api:    humatest.Wrap(t, s.api),
		remote: remote,
	}
}

func decodeEnvelope[T any](t *testing.T, body []byte) testEnvelope[T] {
	t.Helper()
	var env testEnvelope[T]
	require.NoError(t, json.Unmarshal(body, &env), "body: %s", body)
	return env
}
