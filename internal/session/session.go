// Package session ties one user's ordered list, drag controller and current
// raster together.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lehigh-university-libraries/stitcher/internal/compose"
	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

// Session represents one stitching workspace
type Session struct {
	ID        string
	CreatedAt time.Time
	List      *ordering.List
	Reorder   *reorder.Controller

	result *compose.Raster
	mu     sync.RWMutex
}

// New creates an empty session whose rows are rowHeight apart.
func New(rowHeight float64) *Session {
	return NewAt(reorder.Point{}, rowHeight)
}

// NewAt is New with the first row's top-left corner at origin.
func NewAt(origin reorder.Point, rowHeight float64) *Session {
	list := ordering.NewList()
	return &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		List:      list,
		Reorder:   reorder.NewController(list, reorder.RowLayout{Rows: list, Origin: origin, RowHeight: rowHeight}),
	}
}

// OrderedEntries snapshots the list.
func (s *Session) OrderedEntries() []models.ImageEntry { return s.List.OrderedEntries() }

// SetDecoded records decoded dimensions for id.
func (s *Session) SetDecoded(id string, dims models.Dimensions) bool {
	return s.List.SetDecoded(id, dims)
}

// Remove takes id out of the list through the controller, so a drag of id
// ends with it.
func (s *Session) Remove(id string) bool { return s.Reorder.Remove(id) }

// Result returns the current raster, or nil.
func (s *Session) Result() *compose.Raster {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.result
}

// SetResult replaces the current raster. nil discards it.
func (s *Session) SetResult(r *compose.Raster) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.result = r
}

// Reset ends any drag, empties the list and discards the raster.
// It returns the entries that were removed.
func (s *Session) Reset() []models.ImageEntry {
	removed := s.Reorder.Clear()
	s.SetResult(nil)
	return removed
}

// Summary is the JSON view of a session.
type Summary struct {
	ID        string              `json:"id"`
	CreatedAt time.Time           `json:"created_at"`
	Entries   []models.ImageEntry `json:"entries"`
	Drag      reorder.DragSession `json:"drag"`
	Result    *ResultSummary      `json:"result,omitempty"`
}

// ResultSummary describes the current raster.
type ResultSummary struct {
	Width      int                 `json:"width"`
	Height     int                 `json:"height"`
	Placements []compose.Placement `json:"placements"`
}

func (s *Session) Summary() Summary {
	sum := Summary{
		ID:        s.ID,
		CreatedAt: s.CreatedAt,
		Entries:   s.List.OrderedEntries(),
		Drag:      s.Reorder.Session(),
	}
	if r := s.Result(); r != nil {
		sum.Result = &ResultSummary{Width: r.Width(), Height: r.Height(), Placements: r.Plan.Placements}
	}
	return sum
}
