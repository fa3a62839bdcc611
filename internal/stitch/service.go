// Package stitch runs one stitch: snapshot the list, decode it as a cohort,
// drop failed entries, and compose the rest in snapshot order.
package stitch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/decode"
	"github.com/lehigh-university-libraries/stitcher/internal/metrics"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
)

// Failure describes an entry left out of a stitch.
type Failure struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Error string `json:"error"`
}

// Result is a finished stitch.
type Result struct {
	Raster     *compose.Raster     `json:"-"`
	Options    compose.Options     `json:"options"`
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Stitched   int                 `json:"stitched"`
	Failures   []Failure           `json:"failures"`
	Aggregates decode.Aggregates   `json:"aggregates"`
	Placements []compose.Placement `json:"placements"`
	Pruned     []string            `json:"pruned,omitempty"`
	Duration   time.Duration       `json:"duration_ns"`
}

// Target is the ordered list a stitch reads from and writes back to.
// *ordering.List satisfies it; a session routes Remove through its drag
// controller.
type Target interface {
	OrderedEntries() []models.ImageEntry
	SetDecoded(id string, dims models.Dimensions) bool
	Remove(id string) bool
}

// Service stitches lists.
type Service struct {
	decoder     *decode.Decoder
	engine      *compose.Engine
	metrics     *metrics.Metrics
	concurrency int
	pruneFailed bool
}

// Config tunes a Service.
type Config struct {
	// Concurrency caps in-flight decodes per cohort; zero is unbounded.
	Concurrency int
	// PruneFailed removes entries that failed to decode from the list.
	PruneFailed bool
	// MaxPixels rejects images declaring more pixels than this before
	// they are decoded. Zero disables the check.
	MaxPixels int64
	Metrics   *metrics.Metrics
}

func NewService(resolver decode.Resolver, engine *compose.Engine, cfg Config) *Service {
	if engine == nil {
		engine = compose.NewEngine(nil)
	}
	decoder := decode.NewDecoder(resolver)
	decoder.MaxPixels = cfg.MaxPixels
	return &Service{
		decoder:     decoder,
		engine:      engine,
		metrics:     cfg.Metrics,
		concurrency: cfg.Concurrency,
		pruneFailed: cfg.PruneFailed,
	}
}

// Start snapshots list and starts decoding it. Entries appended after this
// call are not part of the returned cohort.
func (s *Service) Start(ctx context.Context, list Target) *decode.Cohort {
	entries := list.OrderedEntries()
	s.metrics.CohortStarted()
	slog.Info("Stitch started", "entries", len(entries))

	return decode.Start(ctx, s.decoder, entries, decode.Options{
		Concurrency: s.concurrency,
		OnResolved: func(r decode.Result, completed, expected int) {
			s.metrics.Decoded(r.OK())
			slog.Debug("Entry resolved", "id", r.Entry.ID, "ok", r.OK(), "completed", completed, "expected", expected)
		},
	})
}

// Finish waits for cohort and composes its successful entries. Decoded
// dimensions are written back to list; failed entries are removed from list
// when pruning is on.
func (s *Service) Finish(ctx context.Context, list Target, cohort *decode.Cohort, opts compose.Options) (*Result, error) {
	started := time.Now()
	out, err := cohort.Wait(ctx)
	if err != nil {
		s.metrics.CohortFinished(string(opts.Mode), "abandoned", time.Since(started), 0)
		return nil, fmt.Errorf("failed waiting for decode: %w", err)
	}

	items := make([]compose.Item, 0, len(out.Results))
	res := &Result{Options: opts, Aggregates: out.Aggregates, Failures: []Failure{}}
	for _, r := range out.Results {
		if !r.OK() {
			res.Failures = append(res.Failures, Failure{ID: r.Entry.ID, Label: r.Entry.Label, Error: r.Err.Error()})
			if s.pruneFailed && list.Remove(r.Entry.ID) {
				res.Pruned = append(res.Pruned, r.Entry.ID)
			}
			continue
		}
		list.SetDecoded(r.Entry.ID, r.Dims)
		items = append(items, compose.Item{ID: r.Entry.ID, Image: r.Image})
	}

	raster, err := s.engine.Compose(items, opts)
	if err != nil {
		s.metrics.CohortFinished(string(opts.Mode), "error", time.Since(started), 0)
		return nil, err
	}
	res.Raster = raster
	res.Width, res.Height = raster.Width(), raster.Height()
	res.Stitched = len(items)
	res.Placements = raster.Plan.Placements
	res.Duration = time.Since(started)

	s.metrics.CohortFinished(string(opts.Mode), "ok", res.Duration, res.Width*res.Height)
	slog.Info("Stitch finished",
		"mode", opts.Mode,
		"keep_aspect", opts.KeepAspect,
		"width", res.Width,
		"height", res.Height,
		"stitched", res.Stitched,
		"failed", len(res.Failures),
		"duration", res.Duration,
	)
	return res, nil
}

// Stitch runs Start then Finish.
func (s *Service) Stitch(ctx context.Context, list Target, opts compose.Options) (*Result, error) {
	return s.Finish(ctx, list, s.Start(ctx, list), opts)
}

// StitchEntries stitches a fixed set of entries without a session.
func (s *Service) StitchEntries(ctx context.Context, entries []models.ImageEntry, opts compose.Options) (*Result, error) {
	list := ordering.NewList()
	for _, e := range entries {
		if err := list.Append(e); err != nil {
			return nil, err
		}
	}
	return s.Stitch(ctx, list, opts)
}
