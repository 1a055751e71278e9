package fog

import "sort"

// VisibilityChange reports that a watched entity entered or left the
// visible area.
type VisibilityChange struct {
	Key     int
	Visible bool
}

type watchEntry struct {
	pos     func() Vec3
	visible bool
}

// Watcher diffs the visibility of a set of tracked positions between polls.
// Entities are identified by key and their position is read through a
// callback on every Poll, so a destroyed entity only needs Unwatch.
//
// Not safe for concurrent use.
type Watcher struct {
	entries map[int]*watchEntry
	keys    []int
	sorted  bool
}

// NewWatcher creates an empty watcher.
func NewWatcher() *Watcher {
	return &Watcher{entries: make(map[int]*watchEntry)}
}

// Watch starts tracking key. Watching an existing key replaces its position
// source and resets its state, so the next Poll reports it if visible.
func (w *Watcher) Watch(key int, pos func() Vec3) {
	if pos == nil {
		return
	}
	if _, ok := w.entries[key]; !ok {
		w.keys = append(w.keys, key)
		w.sorted = false
	}
	w.entries[key] = &watchEntry{pos: pos}
}

// Unwatch stops tracking key. Unknown keys are ignored.
func (w *Watcher) Unwatch(key int) {
	if _, ok := w.entries[key]; !ok {
		return
	}
	delete(w.entries, key)
	for i, k := range w.keys {
		if k == key {
			w.keys = append(w.keys[:i], w.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of watched keys.
func (w *Watcher) Len() int {
	return len(w.entries)
}

// Poll checks every watched position against the engine's last committed
// frame and returns the keys whose visibility changed, in key order. On the
// first poll of a key only a visible result counts as a change.
func (w *Watcher) Poll(e *Engine) []VisibilityChange {
	if !w.sorted {
		sort.Ints(w.keys)
		w.sorted = true
	}
	var out []VisibilityChange
	for _, k := range w.keys {
		en := w.entries[k]
		vis := e.IsVisible(en.pos())
		if vis != en.visible {
			out = append(out, VisibilityChange{Key: k, Visible: vis})
		}
		en.visible = vis
	}
	return out
}
