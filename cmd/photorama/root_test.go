package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/photoramax/photorama/internal/config"
	"github.com/photoramax/photorama/internal/domain"
)

type cliEnv struct {
	dataPath string
	remote   *httptest.Server
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("PHOTORAMA_CONFIG", "")

	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.RGBA{R: 200, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	pngData := buf.Bytes()

	env := &cliEnv{dataPath: t.TempDir()}
	mux := http.NewServeMux()
	mux.HandleFunc("/rest", func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, `{"photos": {"photo": [
			{"id": "A", "title": "Alpha", "datetaken": "2020-01-01 00:00:00", "url_h": "%[1]s/img/A.png"},
			{"id": "B", "title": "", "datetaken": "2019-06-15 00:00:00", "url_h": "%[1]s/img/B.png"}
		]}, "stat": "ok"}`, env.remote.URL)
	})
	mux.HandleFunc("/img/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(pngData)
	})
	env.remote = httptest.NewServer(mux)
	t.Cleanup(env.remote.Close)
	return env
}

// run executes one command line against a fresh root command.
func (e *cliEnv) run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	base := []string{
		"--env-file", filepath.Join(e.dataPath, "missing.env"),
		"--log-level", "error",
		"--data-path", e.dataPath,
		"--flickr-url", e.remote.URL + "/rest",
		"--api-key", "test-key",
		"--workers", "2",
	}

	var flags config.Flags
	cmd := newRootCmd(&flags)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, base...))

	err := cmd.Execute()
	return out.String(), err
}

func TestCLI_SyncThenListPhotos(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "sync")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "A  2020-01-01T00:00:00Z  Alpha"))
	assert.True(t, strings.HasPrefix(lines[1], "B  2019-06-15T00:00:00Z  (untitled)"))

	out, err = env.run(t, "photos", "--format", "json")
	require.NoError(t, err)

	var photos []domain.Photo
	require.NoError(t, json.Unmarshal([]byte(out), &photos))
	require.Len(t, photos, 2)
	assert.Equal(t, "B", photos[0].ID, "oldest first")
	assert.Equal(t, "A", photos[1].ID)
}

func TestCLI_TagLifecycle(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "sync")
	require.NoError(t, err)

	out, err := env.run(t, "tag", "create", "Favorites")
	require.NoError(t, err)
	tagID := strings.TrimSpace(out)
	require.NotEmpty(t, tagID)

	_, err = env.run(t, "tag", "add", "A", tagID)
	require.NoError(t, err)

	out, err = env.run(t, "tag", "list", "A")
	require.NoError(t, err)
	assert.Contains(t, out, tagID)
	assert.Contains(t, out, "Favorites")

	_, err = env.run(t, "tag", "remove", "A", tagID)
	require.NoError(t, err)

	out, err = env.run(t, "tag", "list", "A")
	require.NoError(t, err)
	assert.Empty(t, strings.TrimSpace(out))

	out, err = env.run(t, "tags")
	require.NoError(t, err)
	assert.Contains(t, out, "Favorites")
}

func TestCLI_TagAddUnknownPhoto(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "tag", "create", "Favorites")
	require.NoError(t, err)

	_, err = env.run(t, "tag", "add", "ghost", strings.TrimSpace(out))
	assert.Error(t, err)
}

func TestCLI_ImageIsCached(t *testing.T) {
	env := newCLIEnv(t)
	_, err := env.run(t, "sync")
	require.NoError(t, err)

	dest := filepath.Join(t.TempDir(), "a.png")
	out, err := env.run(t, "image", "A", "--out", dest)
	require.NoError(t, err)
	assert.Contains(t, out, "png 4x3")

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	out, err = env.run(t, "cache", "inspect", "--format", "json", "--keys")
	require.NoError(t, err)

	var stats cacheStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, config.CacheBackendBolt, stats.Backend)
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, int64(len(data)), stats.Bytes)
	assert.Equal(t, []string{"A"}, stats.Keys)
}

func TestCLI_SyncRemoteDown(t *testing.T) {
	env := newCLIEnv(t)
	env.remote.Close()

	_, err := env.run(t, "sync")
	assert.Error(t, err)
}

func TestCLI_YAMLOutput(t *testing.T) {
	env := newCLIEnv(t)

	out, err := env.run(t, "tag", "create", "Favorites", "--format", "yaml")
	require.NoError(t, err)

	var tag struct {
		ID   string `yaml:"id"`
		Name string `yaml:"name"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &tag))
	assert.NotEmpty(t, tag.ID)
	assert.Equal(t, "Favorites", tag.Name)
}

func TestCLI_UnknownFormat(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run(t, "tags", "--format", "xml")
	assert.ErrorContains(t, err, "unknown format")
}
