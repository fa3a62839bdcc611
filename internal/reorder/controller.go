// Package reorder turns drag gestures into list repositioning.
//
// Pointer drag-and-drop and touch dragging feed the same Controller, so both
// channels share one comparison rule: a source row that sits below the target
// moves before it, anything else (ties included) moves after it.
package reorder

import (
	"fmt"
	"sync"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/ordering"
)

// List is the subset of the ordered list a Controller mutates.
type List interface {
	Contains(id string) bool
	MoveBefore(id, targetID string) error
	MoveAfter(id, targetID string) error
	Remove(id string) bool
	Clear() []models.ImageEntry
}

// State is the controller's gesture state.
type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// DragSession is the in-flight drag, if any.
type DragSession struct {
	Active   bool   `json:"active"`
	SourceID string `json:"source_id,omitempty"`
}

// Controller owns one drag session for one list.
type Controller struct {
	list    List
	layout  Layout
	session DragSession
	mu      sync.Mutex
}

func NewController(list List, layout Layout) *Controller {
	return &Controller{list: list, layout: layout}
}

// Session returns a copy of the current drag session.
func (c *Controller) Session() DragSession {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// State reports Idle or Dragging.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session.Active {
		return Dragging
	}
	return Idle
}

// Begin starts dragging id. A new Begin replaces any session in progress.
func (c *Controller) Begin(id string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.list.Contains(id) {
		return &ordering.NotFoundError{ID: id}
	}
	c.session = DragSession{Active: true, SourceID: id}
	return nil
}

// MoveOver repositions the dragged entry next to targetID.
// Ignored while Idle or when targetID is the source itself.
func (c *Controller) MoveOver(targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.moveOver(targetID)
}

func (c *Controller) moveOver(targetID string) error {
	if !c.session.Active || targetID == c.session.SourceID {
		return nil
	}
	source := c.session.SourceID

	sourceTop, ok := c.layout.Top(source)
	if !ok {
		// source was removed outside the controller
		c.session = DragSession{}
		return nil
	}
	targetTop, ok := c.layout.Top(targetID)
	if !ok {
		return &ordering.NotFoundError{ID: targetID}
	}

	if sourceTop > targetTop {
		return c.list.MoveBefore(source, targetID)
	}
	return c.list.MoveAfter(source, targetID)
}

// End finishes the session without removing anything.
func (c *Controller) End() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = DragSession{}
}

// DropOnDiscard removes the dragged entry and ends the session.
// Returns the removed id, or "" when there was nothing to remove.
func (c *Controller) DropOnDiscard() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Active {
		return ""
	}
	source := c.session.SourceID
	c.session = DragSession{}
	if !c.list.Remove(source) {
		return ""
	}
	return source
}

// Remove takes id out of the list. Removing the dragged entry ends the
// session. Reports whether id was present.
func (c *Controller) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.session.Active && c.session.SourceID == id {
		c.session = DragSession{}
	}
	return c.list.Remove(id)
}

// Clear ends any session and empties the list in one step. It returns the
// removed entries.
func (c *Controller) Clear() []models.ImageEntry {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = DragSession{}
	return c.list.Clear()
}

// TouchStart begins a session on the row under p. A touch outside every row
// starts nothing and reports false.
func (c *Controller) TouchStart(p Point) (bool, error) {
	id, ok := c.layout.HitTest(p)
	if !ok {
		return false, nil
	}
	if err := c.Begin(id); err != nil {
		return false, err
	}
	return true, nil
}

// TouchMove hit-tests p and moves over the row found there.
// Points outside every row are ignored and the session stays open.
func (c *Controller) TouchMove(p Point) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.session.Active {
		return nil
	}
	id, ok := c.layout.HitTest(p)
	if !ok {
		return nil
	}
	return c.moveOver(id)
}
