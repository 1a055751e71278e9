package fog

import "testing"

func TestRegistry_SlotReuse(t *testing.T) {
	r := NewRegistry()
	a, b, c := &Observer{}, &Observer{}, &Observer{}
	ia := r.Register(a)
	ib := r.Register(b)
	ic := r.Register(c)
	if ia != 0 || ib != 1 || ic != 2 {
		t.Fatalf("ids = %d,%d,%d, want 0,1,2", ia, ib, ic)
	}

	r.Unregister(ib)
	d := &Observer{}
	if id := r.Register(d); id != ib {
		t.Fatalf("re-register got id %d, want freed id %d", id, ib)
	}
	if r.Cap() != 3 {
		t.Fatalf("Cap = %d, want 3", r.Cap())
	}
}

func TestRegistry_LastFreedFirst(t *testing.T) {
	r := NewRegistry()
	for i := 0; i < 4; i++ {
		r.Register(&Observer{})
	}
	r.Unregister(0)
	r.Unregister(2)
	if id := r.Register(&Observer{}); id != 2 {
		t.Fatalf("first reuse = %d, want 2", id)
	}
	if id := r.Register(&Observer{}); id != 0 {
		t.Fatalf("second reuse = %d, want 0", id)
	}
	if id := r.Register(&Observer{}); id != 4 {
		t.Fatalf("fresh id = %d, want 4", id)
	}
}

func TestRegistry_DoubleUnregisterIsNoop(t *testing.T) {
	r := NewRegistry()
	id := r.Register(&Observer{})
	r.Register(&Observer{})
	r.Unregister(id)
	r.Unregister(id)
	r.Unregister(ObserverID(42))
	r.Unregister(ObserverID(-1))
	if r.Len() != 1 {
		t.Fatalf("Len = %d, want 1", r.Len())
	}
	// A second unregister must not push the id twice.
	first := r.Register(&Observer{})
	second := r.Register(&Observer{})
	if first == second {
		t.Fatalf("two registrations shared id %d", first)
	}
}

func TestRegistry_ActiveObserversCompacted(t *testing.T) {
	r := NewRegistry()
	obs := []*Observer{{GridX: 0}, {GridX: 1}, {GridX: 2}}
	ids := make([]ObserverID, len(obs))
	for i, o := range obs {
		ids[i] = r.Register(o)
	}
	if got := len(r.ActiveObservers()); got != 3 {
		t.Fatalf("active = %d, want 3", got)
	}
	r.Unregister(ids[1])
	active := r.ActiveObservers()
	if len(active) != 2 || active[0] != obs[0] || active[1] != obs[2] {
		t.Fatalf("active after unregister = %v", active)
	}
	if _, ok := r.Get(ids[1]); ok {
		t.Fatal("Get on freed slot should fail")
	}
}
