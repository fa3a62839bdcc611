// Package decode resolves a snapshot of entries into pixels concurrently.
//
// A Cohort is created per stitch. It decodes every entry it was started with,
// isolates failures per entry, and closes Done exactly once when all entries
// have resolved. Results keep snapshot order regardless of arrival order.
package decode

import (
	"context"
	"image"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
)

// Result is one entry's outcome.
type Result struct {
	Entry models.ImageEntry
	Image image.Image
	Dims  models.Dimensions
	Err   error
}

// OK reports whether the entry decoded.
func (r Result) OK() bool { return r.Err == nil }

// Options tune a cohort.
type Options struct {
	// Concurrency caps in-flight decodes. Zero or less means unbounded.
	Concurrency int
	// OnResolved is called after each entry resolves, with the running
	// completed count. It may be nil.
	OnResolved func(r Result, completed, expected int)
}

// Cohort tracks one concurrent decode of a fixed snapshot.
type Cohort struct {
	expected  int
	completed int
	results   []Result
	agg       Aggregates
	failures  int
	done      chan struct{}
	mu        sync.Mutex
}

// Start snapshots entries and begins decoding them. It returns immediately.
// ctx supplies values to the resolver; its cancellation does not reach the
// decodes, which always run to completion.
func Start(ctx context.Context, decoder *Decoder, entries []models.ImageEntry, opts Options) *Cohort {
	c := &Cohort{
		expected: len(entries),
		results:  make([]Result, len(entries)),
		done:     make(chan struct{}),
	}
	for i, e := range entries {
		c.results[i].Entry = e.Clone()
	}

	if c.expected == 0 {
		close(c.done)
		return c
	}

	var g errgroup.Group
	if opts.Concurrency > 0 {
		g.SetLimit(opts.Concurrency)
	}

	decodeCtx := context.WithoutCancel(ctx)
	go func() {
		for i := range c.results {
			entry := c.results[i].Entry
			g.Go(func() error {
				img, dims, err := decoder.Decode(decodeCtx, entry)
				r := c.record(i, img, dims, err)
				if opts.OnResolved != nil {
					opts.OnResolved(r.result, r.completed, c.expected)
				}
				if r.last {
					close(c.done)
				}
				// one entry's failure never stops the others
				return nil
			})
		}
		_ = g.Wait()
	}()

	return c
}

type recorded struct {
	result    Result
	completed int
	last      bool
}

func (c *Cohort) record(i int, img image.Image, dims models.Dimensions, err error) recorded {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &c.results[i]
	r.Image, r.Dims, r.Err = img, dims, err
	if err != nil {
		c.failures++
		slog.Warn("Entry failed to decode", "id", r.Entry.ID, "label", r.Entry.Label, "err", err)
	} else {
		c.agg = c.agg.Add(dims)
	}
	c.completed++
	return recorded{result: *r, completed: c.completed, last: c.completed == c.expected}
}

// Done is closed once every entry has resolved.
func (c *Cohort) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until the cohort completes or ctx ends. Cancelling ctx stops
// the wait only; decoding carries on.
func (c *Cohort) Wait(ctx context.Context) (*Outcome, error) {
	select {
	case <-c.done:
		return c.Outcome(), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Progress returns completed and expected counts.
func (c *Cohort) Progress() (completed, expected int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.completed, c.expected
}

// Aggregates returns the running fold over successful entries.
func (c *Cohort) Aggregates() Aggregates {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.agg
}

// Outcome is a completed cohort.
type Outcome struct {
	Results    []Result
	Aggregates Aggregates
	Failures   int
}

// Outcome snapshots the current state. Call after Done for a final view.
func (c *Cohort) Outcome() *Outcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	return &Outcome{
		Results:    append([]Result(nil), c.results...),
		Aggregates: c.agg,
		Failures:   c.failures,
	}
}

// Succeeded returns the decoded results in snapshot order.
func (o *Outcome) Succeeded() []Result {
	out := make([]Result, 0, len(o.Results)-o.Failures)
	for _, r := range o.Results {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}

// Failed returns the failed results in snapshot order.
func (o *Outcome) Failed() []Result {
	out := make([]Result, 0, o.Failures)
	for _, r := range o.Results {
		if !r.OK() {
			out = append(out, r)
		}
	}
	return out
}
