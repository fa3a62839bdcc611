package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/lehigh-university-libraries/stitcher/internal/models"
	"github.com/lehigh-university-libraries/stitcher/internal/reorder"
)

type gestureRequest struct {
	Action string  `json:"action"`
	ID     string  `json:"id"`
	Target string  `json:"target"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

type gestureResponse struct {
	State   string              `json:"state"`
	Drag    reorder.DragSession `json:"drag"`
	Order   []string            `json:"order"`
	Removed string              `json:"removed,omitempty"`
}

// HandleGesture feeds one pointer or touch event to the session's controller.
//
// Pointer events use begin/over/end/discard with row ids. Touch events use
// touch_start/touch_move with a screen point and are hit-tested against rows.
func (h *Handler) HandleGesture(w http.ResponseWriter, r *http.Request) {
	sess, ok := h.getSessionOrError(w, r.PathValue("id"))
	if !ok {
		return
	}

	var req gestureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	ctrl := sess.Reorder
	var resp gestureResponse
	var err error
	switch req.Action {
	case "begin":
		err = ctrl.Begin(req.ID)
	case "over":
		err = ctrl.MoveOver(req.Target)
	case "end":
		ctrl.End()
	case "discard":
		dragged, found := sess.List.Get(ctrl.Session().SourceID)
		resp.Removed = ctrl.DropOnDiscard()
		if found && resp.Removed == dragged.ID {
			h.releaseEntries([]models.ImageEntry{dragged})
		}
	case "touch_start":
		_, err = ctrl.TouchStart(reorder.Point{X: req.X, Y: req.Y})
	case "touch_move":
		err = ctrl.TouchMove(reorder.Point{X: req.X, Y: req.Y})
	case "touch_end":
		ctrl.End()
	default:
		h.writeError(w, "Unknown gesture action: "+req.Action, http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeDomainError(w, err)
		return
	}

	resp.State = ctrl.State().String()
	resp.Drag = ctrl.Session()
	resp.Order = sess.List.OrderedIDs()
	h.writeJSON(w, resp)
}
