package decode

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
)

var (
	ErrEmptyImage    = errors.New("image has no pixels")
	ErrTooManyPixels = errors.New("image exceeds pixel limit")
)

// Resolver loads the raw bytes behind a source reference.
type Resolver interface {
	Resolve(ctx context.Context, ref models.SourceRef) ([]byte, error)
}

// ResolverFunc adapts a function to Resolver.
type ResolverFunc func(ctx context.Context, ref models.SourceRef) ([]byte, error)

func (f ResolverFunc) Resolve(ctx context.Context, ref models.SourceRef) ([]byte, error) {
	return f(ctx, ref)
}

// DecodeFailure records why one entry could not be decoded.
type DecodeFailure struct {
	ID    string
	Label string
	Err   error
}

func (e *DecodeFailure) Error() string {
	return fmt.Sprintf("failed to decode %s (%s): %v", e.Label, e.ID, e.Err)
}

func (e *DecodeFailure) Unwrap() error { return e.Err }

// Decoder turns entries into pixels.
type Decoder struct {
	resolver Resolver
	// MaxPixels bounds width×height as declared in the image header.
	// Zero means no bound.
	MaxPixels int64
}

func NewDecoder(resolver Resolver) *Decoder {
	return &Decoder{resolver: resolver}
}

// Decode fetches and decodes a single entry. Any error is a *DecodeFailure.
func (d *Decoder) Decode(ctx context.Context, entry models.ImageEntry) (image.Image, models.Dimensions, error) {
	fail := func(err error) (image.Image, models.Dimensions, error) {
		return nil, models.Dimensions{}, &DecodeFailure{ID: entry.ID, Label: entry.Label, Err: err}
	}

	data, err := d.resolver.Resolve(ctx, entry.Source)
	if err != nil {
		return fail(fmt.Errorf("failed to read %s: %w", entry.Source, err))
	}

	if d.MaxPixels > 0 {
		cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
		if err != nil {
			return fail(err)
		}
		if n := int64(cfg.Width) * int64(cfg.Height); n > d.MaxPixels {
			return fail(fmt.Errorf("%w: %dx%d is %d pixels, limit %d", ErrTooManyPixels, cfg.Width, cfg.Height, n, d.MaxPixels))
		}
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return fail(err)
	}

	b := img.Bounds()
	dims := models.Dimensions{Width: b.Dx(), Height: b.Dy()}
	if !dims.Valid() {
		return fail(ErrEmptyImage)
	}
	return img, dims, nil
}
