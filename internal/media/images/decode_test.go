package images

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/photoramax/photorama/internal/errors"
)

func gradient(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x * 255 / w), G: uint8(y * 255 / h), B: 128, A: 255})
		}
	}
	return img
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_Formats(t *testing.T) {
	src := gradient(120, 80)

	var jpg, gf bytes.Buffer
	require.NoError(t, jpeg.Encode(&jpg, src, &jpeg.Options{Quality: 80}))
	require.NoError(t, gif.Encode(&gf, src, nil))

	tests := []struct {
		name   string
		data   []byte
		format string
	}{
		{"png", encodePNG(t, src), "png"},
		{"jpeg", jpg.Bytes(), "jpeg"},
		{"gif", gf.Bytes(), "gif"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := Decode(tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.format, img.Format)
			assert.Equal(t, 120, img.Width)
			assert.Equal(t, 80, img.Height)
			assert.NotEmpty(t, img.BlurHash)
			assert.Equal(t, tt.data, img.Data)
		})
	}
}

func TestDecode_Invalid(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":     nil,
		"garbage":   []byte("definitely not an image"),
		"truncated": encodePNG(t, gradient(10, 10))[:20],
	} {
		t.Run(name, func(t *testing.T) {
			img, err := Decode(data)
			assert.Nil(t, img)
			assert.ErrorIs(t, err, domainerrors.ErrDecode)
		})
	}
}

// withPNGSize rewrites the IHDR dimensions of a PNG, keeping its checksum valid.
func withPNGSize(data []byte, w, h uint32) []byte {
	out := bytes.Clone(data)
	binary.BigEndian.PutUint32(out[16:20], w)
	binary.BigEndian.PutUint32(out[20:24], h)
	binary.BigEndian.PutUint32(out[29:33], crc32.ChecksumIEEE(out[12:29]))
	return out
}

func TestDecode_RejectsOversizedDimensions(t *testing.T) {
	data := withPNGSize(encodePNG(t, gradient(4, 4)), 20000, 20000)

	img, err := Decode(data)
	assert.Nil(t, img)
	require.ErrorIs(t, err, domainerrors.ErrDecode)
	assert.Contains(t, err.Error(), "20000x20000")
}

func TestDecode_AcceptsDimensionsWithinLimit(t *testing.T) {
	// Same header rewrite, within the limit: the header passes and the
	// truncated pixel data fails the full decode instead.
	data := withPNGSize(encodePNG(t, gradient(4, 4)), 100, 100)

	_, err := Decode(data)
	require.ErrorIs(t, err, domainerrors.ErrDecode)
	assert.NotContains(t, err.Error(), "pixel limit")
}

func TestComputeBlurHash(t *testing.T) {
	hash, err := ComputeBlurHash(gradient(400, 300))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(hash), 20)

	again, err := ComputeBlurHash(gradient(400, 300))
	require.NoError(t, err)
	assert.Equal(t, hash, again, "hash is deterministic")
}

func TestResizeForBlurHash(t *testing.T) {
	small := gradient(32, 16)
	assert.Same(t, small, resizeForBlurHash(small))

	wide := resizeForBlurHash(gradient(640, 160)).Bounds()
	assert.Equal(t, blurHashSize, wide.Dx())
	assert.Equal(t, 16, wide.Dy())

	sliver := resizeForBlurHash(gradient(1, 1000)).Bounds()
	assert.Equal(t, 1, sliver.Dx())
	assert.Equal(t, blurHashSize, sliver.Dy())
}
