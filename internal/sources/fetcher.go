package sources

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
)

var ErrTooLarge = errors.New("source exceeds size limit")

// Blobs is where uploaded bytes live.
type Blobs interface {
	Get(key string) ([]byte, bool)
}

// Fetcher retrieves raw image bytes for any kind of SourceRef
type Fetcher struct {
	HTTPClient *http.Client
	Blobs      Blobs
	MaxBytes   int64
}

// NewFetcher creates a new fetcher backed by blobs
func NewFetcher(blobs Blobs, timeout time.Duration, maxBytes int64) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
		Blobs:    blobs,
		MaxBytes: maxBytes,
	}
}

// Resolve returns the bytes behind ref
func (f *Fetcher) Resolve(ctx context.Context, ref models.SourceRef) ([]byte, error) {
	switch ref.Kind {
	case models.SourceBlob:
		if f.Blobs == nil {
			return nil, fmt.Errorf("no blob store configured")
		}
		data, ok := f.Blobs.Get(ref.Key)
		if !ok {
			return nil, fmt.Errorf("blob %s not found", ref.Key)
		}
		return data, nil
	case models.SourceFile:
		return f.readFile(ref.Key)
	case models.SourceURL:
		return f.download(ctx, ref.Key)
	default:
		return nil, fmt.Errorf("unsupported source kind %q", ref.Kind)
	}
}

func (f *Fetcher) readFile(path string) ([]byte, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()
	return f.readLimited(file)
}

// download fetches an image from a URL
func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := f.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: HTTP %d", resp.StatusCode)
	}

	data, err := f.readLimited(resp.Body)
	if err != nil {
		return nil, err
	}
	slog.Debug("Downloaded image", "url", url, "bytes", len(data))
	return data, nil
}

func (f *Fetcher) readLimited(r io.Reader) ([]byte, error) {
	if f.MaxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read image data: %w", err)
		}
		return data, nil
	}

	data, err := io.ReadAll(io.LimitReader(r, f.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if int64(len(data)) > f.MaxBytes {
		return nil, fmt.Errorf("%w (max %d bytes)", ErrTooLarge, f.MaxBytes)
	}
	return data, nil
}
