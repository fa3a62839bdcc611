package stitch

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/decode"
	"github.com/lehigh-university-libraries/stitcher/internal/metrics"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

type memResolver struct {
	data map[string][]byte
	gate chan struct{}
}

func (m *memResolver) Resolve(ctx context.Context, ref models.SourceRef) ([]byte, error) {
	if m.gate != nil {
		select {
		case <-m.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	d, ok := m.data[ref.Key]
	if !ok {
		return nil, fmt.Errorf("no such blob %q", ref.Key)
	}
	return d, nil
}

func encode(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return buf.Bytes()
}

func setup(t *testing.T) (*memResolver, *ordering.List) {
	t.Helper()
	res := &memResolver{data: map[string][]byte{
		"one":   encode(t, 10, 10),
		"two":   encode(t, 20, 30),
		"three": encode(t, 5, 5),
	}}
	list := ordering.NewList()
	for _, id := range []string{"one", "two", "three"} {
		require.NoError(t, list.Append(models.ImageEntry{ID: id, Source: models.BlobRef(id), Label: id + ".png"}))
	}
	return res, list
}

func TestStitchFollowsListOrder(t *testing.T) {
	res, list := setup(t)
	require.NoError(t, list.MoveBefore("three", "one"))

	svc := NewService(res, nil, Config{})
	out, err := svc.Stitch(context.Background(), list, compose.Options{Mode: compose.Horizontal})
	require.NoError(t, err)

	assert.Equal(t, 35, out.Width)
	assert.Equal(t, 30, out.Height)
	assert.Equal(t, 3, out.Stitched)
	assert.Empty(t, out.Failures)
	require.Len(t, out.Placements, 3)
	assert.Equal(t, "three", out.Placements[0].ID)
	assert.Equal(t, image.Rect(5, 0, 15, 10), out.Placements[1].Rect)

	e, _ := list.Get("two")
	require.NotNil(t, e.Decoded)
	assert.Equal(t, models.Dimensions{Width: 20, Height: 30}, *e.Decoded)
}

func TestFailedEntriesAreSkipped(t *testing.T) {
	res, list := setup(t)
	require.NoError(t, list.Append(models.ImageEntry{ID: "ghost", Source: models.BlobRef("ghost"), Label: "ghost.png"}))
	require.NoError(t, list.MoveAfter("ghost", "one"))

	out, err := NewService(res, nil, Config{}).Stitch(context.Background(), list, compose.Options{Mode: compose.Vertical})
	require.NoError(t, err)

	assert.Equal(t, 20, out.Width)
	assert.Equal(t, 45, out.Height)
	assert.Equal(t, 3, out.Stitched)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "ghost", out.Failures[0].ID)
	assert.Empty(t, out.Pruned)
	assert.True(t, list.Contains("ghost"))
}

func TestPruneFailed(t *testing.T) {
	res, list := setup(t)
	require.NoError(t, list.Append(models.ImageEntry{ID: "ghost", Source: models.BlobRef("ghost")}))

	out, err := NewService(res, nil, Config{PruneFailed: true}).Stitch(context.Background(), list, compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, out.Pruned)
	assert.Equal(t, []string{"one", "two", "three"}, list.OrderedIDs())
}

func TestAllFailedYieldsEmptyRaster(t *testing.T) {
	list := ordering.NewList()
	require.NoError(t, list.Append(models.ImageEntry{ID: "x", Source: models.BlobRef("x")}))

	out, err := NewService(&memResolver{}, nil, Config{}).Stitch(context.Background(), list, compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Width)
	assert.Equal(t, 0, out.Height)
	assert.Len(t, out.Failures, 1)
}

func TestEmptyListYieldsEmptyRaster(t *testing.T) {
	out, err := NewService(&memResolver{}, nil, Config{}).Stitch(context.Background(), ordering.NewList(), compose.Options{KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 0, out.Width)
	assert.Equal(t, 0, out.Height)
	require.NotNil(t, out.Raster)
	assert.Equal(t, image.Rectangle{}, out.Raster.Image.Bounds())
}

func TestEntriesAppendedMidCohortWaitForNextStitch(t *testing.T) {
	res, list := setup(t)
	res.gate = make(chan struct{})
	res.data["late"] = encode(t, 100, 100)

	svc := NewService(res, nil, Config{})
	cohort := svc.Start(context.Background(), list)

	require.NoError(t, list.Append(models.ImageEntry{ID: "late", Source: models.BlobRef("late")}))
	close(res.gate)

	out, err := svc.Finish(context.Background(), list, cohort, compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, out.Stitched)
	assert.Equal(t, 35, out.Width)

	next, err := svc.Stitch(context.Background(), list, compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, 4, next.Stitched)
	assert.Equal(t, 135, next.Width)
}

func TestFinishReturnsWhenContextEnds(t *testing.T) {
	res, list := setup(t)
	res.gate = make(chan struct{})
	defer close(res.gate)

	svc := NewService(res, nil, Config{})
	cohort := svc.Start(context.Background(), list)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := svc.Finish(ctx, list, cohort, compose.Options{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMetricsRecorded(t *testing.T) {
	res, list := setup(t)
	require.NoError(t, list.Append(models.ImageEntry{ID: "ghost", Source: models.BlobRef("ghost")}))

	reg := prometheus.NewRegistry()
	m := metrics.MustNew(reg)
	_, err := NewService(res, nil, Config{Metrics: m, Concurrency: 2}).Stitch(context.Background(), list, compose.Options{Mode: compose.Horizontal})
	require.NoError(t, err)

	count, err := testutil.GatherAndCount(reg, "stitcher_decodes_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count, "ok and failed series")
	count, err = testutil.GatherAndCount(reg, "stitcher_stitch_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestStitchEntries(t *testing.T) {
	res, _ := setup(t)
	entries := []models.ImageEntry{
		{ID: "a", Source: models.BlobRef("two")},
		{ID: "b", Source: models.BlobRef("one")},
	}
	out, err := NewService(res, nil, Config{}).StitchEntries(context.Background(), entries, compose.Options{Mode: compose.Vertical, KeepAspect: true})
	require.NoError(t, err)
	assert.Equal(t, 20, out.Width)
	assert.Equal(t, 40, out.Height)
	assert.Equal(t, image.Rect(0, 30, 20, 40), out.Placements[1].Rect)

	_, err = NewService(res, nil, Config{}).StitchEntries(context.Background(), []models.ImageEntry{entries[0], entries[0]}, compose.Options{})
	assert.ErrorIs(t, err, ordering.ErrDuplicateID)
}

var _ decode.Resolver = (*memResolver)(nil)

func TestCancelledRequestDoesNotFailDecodes(t *testing.T) {
	res, list := setup(t)
	res.gate = make(chan struct{})

	svc := NewService(res, nil, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cohort := svc.Start(ctx, list)
	cancel()
	close(res.gate)

	out, err := svc.Finish(context.Background(), list, cohort, compose.Options{})
	require.NoError(t, err)
	assert.Empty(t, out.Failures)
	assert.Equal(t, 3, out.Stitched)
}

func TestOversizedImageIsSkipped(t *testing.T) {
	res, list := setup(t)

	out, err := NewService(res, nil, Config{MaxPixels: 100}).Stitch(context.Background(), list, compose.Options{})
	require.NoError(t, err)
	require.Len(t, out.Failures, 1)
	assert.Equal(t, "two", out.Failures[0].ID)
	assert.Contains(t, out.Failures[0].Error, "pixel limit")
	assert.Equal(t, 15, out.Width)
}

func TestCanvasLimit(t *testing.T) {
	res, list := setup(t)
	engine := compose.NewEngine(nil)
	engine.MaxPixels = 100

	_, err := NewService(res, engine, Config{}).Stitch(context.Background(), list, compose.Options{})
	assert.ErrorIs(t, err, compose.ErrCanvasTooLarge)
}

func TestPruneEndsDragOfFailedEntry(t *testing.T) {
	res, _ := setup(t)
	sess := session.New(1)
	for _, id := range []string{"one", "ghost"} {
		require.NoError(t, sess.List.Append(models.ImageEntry{ID: id, Source: models.BlobRef(id)}))
	}
	require.NoError(t, sess.Reorder.Begin("ghost"))

	out, err := NewService(res, nil, Config{PruneFailed: true}).Stitch(context.Background(), sess, compose.Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ghost"}, out.Pruned)
	assert.Equal(t, reorder.Idle, sess.Reorder.State())
	assert.Equal(t, []string{"one"}, sess.List.OrderedIDs())
}
