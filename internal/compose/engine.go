// Package compose concatenates decoded images into one raster.
//
// The canvas is the sum of extents along the main axis and the maximum along
// the cross axis. With KeepAspect, each image is stretched to the canvas's
// cross-axis extent while keeping its native main-axis extent; this does not
// preserve the image's own width/height ratio.
package compose

import (
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"strings"

	xdraw "golang.org/x/image/draw"
)

// Mode is the concatenation axis.
type Mode string

const (
	Horizontal Mode = "horizontal"
	Vertical   Mode = "vertical"
)

// ParseMode accepts "horizontal" or "vertical" (case-insensitive); empty
// means horizontal.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", Horizontal:
		return Horizontal, nil
	case Vertical:
		return Vertical, nil
	default:
		return "", fmt.Errorf("unknown mode %q (want horizontal or vertical)", s)
	}
}

// Options are read at stitch time.
type Options struct {
	Mode       Mode `json:"mode" yaml:"mode"`
	KeepAspect bool `json:"keep_aspect" yaml:"keepAspect"`
}

// Item is one decoded image in draw order.
type Item struct {
	ID    string
	Image image.Image
}

// Placement is where an item lands on the canvas.
type Placement struct {
	ID     string          `json:"id"`
	Rect   image.Rectangle `json:"rect"`
	Scaled bool            `json:"scaled"`
}

// Plan is the computed canvas extent and draw geometry.
type Plan struct {
	Width      int         `json:"width"`
	Height     int         `json:"height"`
	Placements []Placement `json:"placements"`
}

// Raster is a finished composite.
type Raster struct {
	Image *image.RGBA
	Plan  Plan
}

func (r *Raster) Width() int  { return r.Plan.Width }
func (r *Raster) Height() int { return r.Plan.Height }

// EncodePNG writes the raster as PNG.
func (r *Raster) EncodePNG(w io.Writer) error {
	if err := png.Encode(w, r.Image); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// Layout computes canvas extent and placements for images of the given
// native sizes, in order.
func Layout(sizes []image.Point, ids []string, opts Options) Plan {
	horizontal := opts.Mode != Vertical

	var plan Plan
	for _, s := range sizes {
		if horizontal {
			plan.Width += s.X
			plan.Height = max(plan.Height, s.Y)
		} else {
			plan.Width = max(plan.Width, s.X)
			plan.Height += s.Y
		}
	}

	plan.Placements = make([]Placement, len(sizes))
	var cursor image.Point
	for i, s := range sizes {
		drawn := s
		if opts.KeepAspect {
			if horizontal {
				drawn.Y = plan.Height
			} else {
				drawn.X = plan.Width
			}
		}
		p := Placement{Rect: image.Rectangle{Min: cursor, Max: cursor.Add(drawn)}, Scaled: drawn != s}
		if i < len(ids) {
			p.ID = ids[i]
		}
		plan.Placements[i] = p

		// advance along the main axis by the native extent only
		if horizontal {
			cursor.X += s.X
		} else {
			cursor.Y += s.Y
		}
	}
	return plan
}

// ErrCanvasTooLarge is returned when a plan's extent exceeds Engine.MaxPixels.
var ErrCanvasTooLarge = errors.New("canvas exceeds pixel limit")

// Engine draws plans onto fresh canvases.
type Engine struct {
	scaler xdraw.Scaler
	// MaxPixels bounds the canvas area. Zero means no bound.
	MaxPixels int64
}

// NewEngine returns an engine that stretches with scaler. A nil scaler
// falls back to bilinear.
func NewEngine(scaler xdraw.Scaler) *Engine {
	if scaler == nil {
		scaler = xdraw.BiLinear
	}
	return &Engine{scaler: scaler}
}

// Interpolator maps a config name to a scaler.
func Interpolator(name string) (xdraw.Scaler, error) {
	switch strings.ToLower(name) {
	case "nearest":
		return xdraw.NearestNeighbor, nil
	case "", "bilinear":
		return xdraw.BiLinear, nil
	case "approx":
		return xdraw.ApproxBiLinear, nil
	case "catmullrom":
		return xdraw.CatmullRom, nil
	default:
		return nil, fmt.Errorf("unknown interpolation %q", name)
	}
}

// Compose lays out items in order and draws them onto a new canvas.
// Zero items yields a 0×0 raster.
func (e *Engine) Compose(items []Item, opts Options) (*Raster, error) {
	sizes := make([]image.Point, len(items))
	ids := make([]string, len(items))
	for i, it := range items {
		sizes[i] = it.Image.Bounds().Size()
		ids[i] = it.ID
	}

	plan := Layout(sizes, ids, opts)
	if n := int64(plan.Width) * int64(plan.Height); e.MaxPixels > 0 && n > e.MaxPixels {
		return nil, fmt.Errorf("%w: %dx%d is %d pixels, limit %d", ErrCanvasTooLarge, plan.Width, plan.Height, n, e.MaxPixels)
	}
	canvas := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))

	for i, it := range items {
		p := plan.Placements[i]
		src := it.Image.Bounds()
		if p.Scaled {
			e.scaler.Scale(canvas, p.Rect, it.Image, src, xdraw.Over, nil)
			continue
		}
		xdraw.Copy(canvas, p.Rect.Min, it.Image, src, xdraw.Over, nil)
	}

	return &Raster{Image: canvas, Plan: plan}, nil
}
