package fog

// Registry is a slot array of observers with id reuse. Freed ids go on a
// stack and the most recently freed one is handed out first. The compacted
// active list is rebuilt lazily, only after a register or unregister.
//
// Not safe for concurrent use: mutate on the simulation goroutine only.
type Registry struct {
	slots  []*Observer
	free   []ObserverID
	active []*Observer
	dirty  bool
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register stores o and returns its id.
func (r *Registry) Register(o *Observer) ObserverID {
	var id ObserverID
	if n := len(r.free); n > 0 {
		id = r.free[n-1]
		r.free = r.free[:n-1]
		r.slots[id] = o
	} else {
		r.slots = append(r.slots, o)
		id = ObserverID(len(r.slots) - 1)
	}
	r.dirty = true
	return id
}

// Unregister frees id. Unknown, out-of-range or already freed ids are ignored
// so collaborators may unregister twice during teardown.
func (r *Registry) Unregister(id ObserverID) {
	if id < 0 || int(id) >= len(r.slots) || r.slots[id] == nil {
		return
	}
	r.slots[id] = nil
	r.free = append(r.free, id)
	r.dirty = true
}

// Get returns the observer in slot id.
func (r *Registry) Get(id ObserverID) (*Observer, bool) {
	if id < 0 || int(id) >= len(r.slots) || r.slots[id] == nil {
		return nil, false
	}
	return r.slots[id], true
}

// ActiveObservers returns the live observers in slot order. The slice is
// cached and owned by the registry; callers must not modify it.
func (r *Registry) ActiveObservers() []*Observer {
	if r.dirty {
		r.refresh()
	}
	return r.active
}

// Len returns the number of live observers.
func (r *Registry) Len() int {
	return len(r.slots) - len(r.free)
}

// Cap returns the number of slots ever issued.
func (r *Registry) Cap() int {
	return len(r.slots)
}

func (r *Registry) refresh() {
	r.active = r.active[:0]
	for _, o := range r.slots {
		if o != nil {
			r.active = append(r.active, o)
		}
	}
	r.dirty = false
}
