package tabtree

import "github.com/google/uuid"

// Token is the opaque handle handed to the gesture layer when a drag starts.
type Token string

// DragSession tracks the single in-flight drag. Starting or cancelling a drag
// never touches tab data; only a drop produces a mutation.
type DragSession struct {
	token Token
	tabID string
}

// Start begins dragging tabID, replacing any previous drag.
func (d *DragSession) Start(tabID string) Token {
	d.token = Token(uuid.NewString())
	d.tabID = tabID
	return d.token
}

// Take consumes the token and returns the dragged tab id.
func (d *DragSession) Take(token Token) (string, bool) {
	if d.token == "" || token != d.token {
		return "", false
	}
	id := d.tabID
	d.Cancel()
	return id, true
}

// Cancel aborts the drag.
func (d *DragSession) Cancel() {
	d.token = ""
	d.tabID = ""
}

// Active reports whether a drag is in flight.
func (d *DragSession) Active() bool { return d.token != "" }

// DraggedID returns the id of the tab being dragged, or "".
func (d *DragSession) DraggedID() string { return d.tabID }

// IsDragging reports whether tabID is the tab being dragged.
func (d *DragSession) IsDragging(tabID string) bool {
	return d.token != "" && d.tabID == tabID
}
