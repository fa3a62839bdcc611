package models

import (
	"fmt"

	"github.com/google/uuid"
)

// SourceKind tags where an entry's raw bytes live.
type SourceKind string

const (
	SourceBlob SourceKind = "blob" // uploaded bytes held in the blob store
	SourceFile SourceKind = "file" // path on the local filesystem
	SourceURL  SourceKind = "url"  // http(s) URL
)

// SourceRef points at the raw bytes of an image.
type SourceRef struct {
	Kind SourceKind `json:"kind"`
	Key  string     `json:"key"`
}

func BlobRef(key string) SourceRef { return SourceRef{Kind: SourceBlob, Key: key} }
func FileRef(path string) SourceRef { return SourceRef{Kind: SourceFile, Key: path} }
func URLRef(url string) SourceRef  { return SourceRef{Kind: SourceURL, Key: url} }

func (r SourceRef) String() string {
	return fmt.Sprintf("%s:%s", r.Kind, r.Key)
}

// Dimensions are the decoded pixel extent of an image.
type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Valid reports whether both extents are positive.
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0
}

// ImageEntry represents one image waiting to be ordered and stitched
type ImageEntry struct {
	ID      string      `json:"id"`
	Source  SourceRef   `json:"source"`
	Label   string      `json:"label"`
	Decoded *Dimensions `json:"decoded,omitempty"`
}

// NewEntry creates an entry with a fresh random id.
func NewEntry(source SourceRef, label string) ImageEntry {
	return ImageEntry{
		ID:     uuid.NewString(),
		Source: source,
		Label:  label,
	}
}

// Clone returns a copy that shares no pointers with e.
func (e ImageEntry) Clone() ImageEntry {
	if e.Decoded != nil {
		d := *e.Decoded
		e.Decoded = &d
	}
	return e
}
