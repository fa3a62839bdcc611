// Package ordering holds the user's pending images in display order.
//
// Order is the only carrier of stitch order; entries have no rank field.
package ordering

import (
	"slices"
	"sync"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
)

// List is an ordered set of image entries keyed by id.
type List struct {
	entries []models.ImageEntry
	mu      sync.RWMutex
}

func NewList() *List {
	return &List{}
}

// Append adds entry at the end of the list.
func (l *List) Append(entry models.ImageEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.indexOf(entry.ID) >= 0 {
		return &DuplicateIDError{ID: entry.ID}
	}
	l.entries = append(l.entries, entry.Clone())
	return nil
}

// Remove deletes the entry with id. Absent ids are ignored.
func (l *List) Remove(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 {
		return false
	}
	l.entries = slices.Delete(l.entries, i, i+1)
	return true
}

// MoveBefore places id immediately before targetID.
func (l *List) MoveBefore(id, targetID string) error {
	return l.move(id, targetID, 0)
}

// MoveAfter places id immediately after targetID.
func (l *List) MoveAfter(id, targetID string) error {
	return l.move(id, targetID, 1)
}

func (l *List) move(id, targetID string, offset int) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	from := l.indexOf(id)
	if from < 0 {
		return &NotFoundError{ID: id}
	}
	if l.indexOf(targetID) < 0 {
		return &NotFoundError{ID: targetID}
	}
	if id == targetID {
		return nil
	}

	entry := l.entries[from]
	l.entries = slices.Delete(l.entries, from, from+1)
	to := l.indexOf(targetID) + offset
	l.entries = slices.Insert(l.entries, to, entry)
	return nil
}

// Clear removes every entry and returns them in order.
func (l *List) Clear() []models.ImageEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := l.entries
	l.entries = nil
	return removed
}

// Len returns the number of entries.
func (l *List) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Contains reports whether id is listed.
func (l *List) Contains(id string) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(id) >= 0
}

// Index returns the position of id, or -1.
func (l *List) Index(id string) int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.indexOf(id)
}

// Get returns a copy of the entry with id.
func (l *List) Get(id string) (models.ImageEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	i := l.indexOf(id)
	if i < 0 {
		return models.ImageEntry{}, false
	}
	return l.entries[i].Clone(), true
}

// OrderedIDs returns the ids in current order.
func (l *List) OrderedIDs() []string {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]string, len(l.entries))
	for i, e := range l.entries {
		ids[i] = e.ID
	}
	return ids
}

// OrderedEntries returns a snapshot of the entries in current order.
// The caller owns the returned slice.
func (l *List) OrderedEntries() []models.ImageEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]models.ImageEntry, len(l.entries))
	for i, e := range l.entries {
		out[i] = e.Clone()
	}
	return out
}

// SetDecoded records decoded dimensions for id. The first recorded value
// sticks; later calls for the same entry are ignored and return false.
func (l *List) SetDecoded(id string, dims models.Dimensions) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	i := l.indexOf(id)
	if i < 0 || l.entries[i].Decoded != nil {
		return false
	}
	l.entries[i].Decoded = &dims
	return true
}

func (l *List) indexOf(id string) int {
	return slices.IndexFunc(l.entries, func(e models.ImageEntry) bool {
		return e.ID == id
	})
}
