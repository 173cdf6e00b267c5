// Package images decodes fetched photo bytes into renderable images.
package images

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder

	_ "golang.org/x/image/webp" // Register WebP decoder

	domainerrors "github.com/photoramax/photorama/internal/errors"
)

// Image is a decoded photo together with the bytes it was decoded from.
type Image struct {
	image.Image `json:"-" yaml:"-"`

	Format   string `json:"format" yaml:"format"` // "jpeg", "png", "gif" or "webp"
	Width    int    `json:"width" yaml:"width"`
	Height   int    `json:"height" yaml:"height"`
	BlurHash string `json:"blurhash,omitempty" yaml:"blurhash,omitempty"`
	Data     []byte `json:"-" yaml:"-"`
}

// MaxPixels bounds the pixel count Decode accepts. Larger images are rejected
// from their header before any pixel buffer is allocated.
const MaxPixels = 50_000_000

// Decode decodes data into an Image. Undecodable input yields a decode error.
// A BlurHash placeholder is attached when it can be computed; failing to
// compute one does not fail the decode.
func Decode(data []byte) (*Image, error) {
	if len(data) == 0 {
		return nil, &domainerrors.Error{Code: domainerrors.CodeDecode, Message: "image data is empty"}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDecode, "decode image header")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > MaxPixels {
		return nil, &domainerrors.Error{
			Code:    domainerrors.CodeDecode,
			Message: fmt.Sprintf("image dimensions %dx%d exceed the %d pixel limit", cfg.Width, cfg.Height, MaxPixels),
		}
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeDecode, "decode image")
	}

	bounds := img.Bounds()
	out := &Image{
		Image:  img,
		Format: format,
		Width:  bounds.Dx(),
		Height: bounds.Dy(),
		Data:   data,
	}

	if hash, err := ComputeBlurHash(img); err == nil {
		out.BlurHash = hash
	}

	return out, nil
}
