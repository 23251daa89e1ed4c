package gui

import (
	"errors"
	"sync"
)

var (
	// ErrSessionActive is returned when a selection is requested while
	// another overlay is still open.
	ErrSessionActive = errors.New("a region selection session is already active")
	// ErrNotSupported is returned on platforms without an overlay.
	ErrNotSupported = errors.New("interactive region selection not implemented for this platform")
)

// sessionTable maps overlay window handles to their selection state. Only
// one session may be live at a time; the window procedure finds its state
// through the handle it is called with.
type sessionTable struct {
	mu       sync.Mutex
	live     *Selection
	byHandle map[uintptr]*Selection
}

var sessions = newSessionTable()

func newSessionTable() *sessionTable {
	return &sessionTable{byHandle: make(map[uintptr]*Selection)}
}

// begin reserves the single live slot for a new selection.
func (t *sessionTable) begin() (*Selection, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live != nil {
		return nil, ErrSessionActive
	}
	t.live = NewSelection()
	return t.live, nil
}

// attach binds the live selection to its window once the window exists.
func (t *sessionTable) attach(handle uintptr, sel *Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.live == sel {
		t.byHandle[handle] = sel
	}
}

func (t *sessionTable) lookup(handle uintptr) *Selection {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.byHandle[handle]
}

// detach forgets the window; called when the window is destroyed.
func (t *sessionTable) detach(handle uintptr) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.byHandle, handle)
}

// end frees the live slot held by sel and any handles still bound to it.
func (t *sessionTable) end(sel *Selection) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for h, s := range t.byHandle {
		if s == sel {
			delete(t.byHandle, h)
		}
	}
	if t.live == sel {
		t.live = nil
	}
}
