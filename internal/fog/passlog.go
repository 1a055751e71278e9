package fog

import (
	"fmt"
	"strings"
	"sync"
)

// PassLogEntry is one scheduler event.
type PassLogEntry struct {
	Tick     int
	Category string  // pass, commit, defer, scan, registry
	Key      string  // event name within the category
	Value    string  // human-readable detail
	NumVal   float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[T=042] pass     complete         3 observers, 120 new cells
func (e PassLogEntry) String() string {
	return fmt.Sprintf("[T=%03d] %-8s %-16s %s", e.Tick, e.Category, e.Key, e.Value)
}

// PassLog records scheduler events for tests and reports. Unlike the logrus
// output it is unbounded and queryable. Entries may be added from the
// background pass goroutine, so access is locked.
type PassLog struct {
	mu      sync.Mutex
	entries []PassLogEntry
	verbose bool
}

// NewPassLog creates a PassLog. When verbose is true, per-observer scan
// entries are recorded too.
func NewPassLog(verbose bool) *PassLog {
	return &PassLog{verbose: verbose}
}

// Add records a new entry.
func (pl *PassLog) Add(tick int, category, key, value string, numVal float64) {
	if pl == nil {
		return
	}
	pl.mu.Lock()
	pl.entries = append(pl.entries, PassLogEntry{
		Tick:     tick,
		Category: category,
		Key:      key,
		Value:    value,
		NumVal:   numVal,
	})
	pl.mu.Unlock()
}

// AddVerbose records an entry only when verbose mode is on.
func (pl *PassLog) AddVerbose(tick int, category, key, value string, numVal float64) {
	if pl == nil || !pl.verbose {
		return
	}
	pl.Add(tick, category, key, value, numVal)
}

// Entries returns a copy of all recorded entries.
func (pl *PassLog) Entries() []PassLogEntry {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	out := make([]PassLogEntry, len(pl.entries))
	copy(out, pl.entries)
	return out
}

// Since returns a copy of the entries recorded after the first n.
func (pl *PassLog) Since(n int) []PassLogEntry {
	if pl == nil {
		return nil
	}
	pl.mu.Lock()
	defer pl.mu.Unlock()
	if n < 0 {
		n = 0
	}
	if n >= len(pl.entries) {
		return nil
	}
	out := make([]PassLogEntry, len(pl.entries)-n)
	copy(out, pl.entries[n:])
	return out
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (pl *PassLog) Filter(category, key string) []PassLogEntry {
	pl.mu.Lock()
	defer pl.mu.Unlock()
	var out []PassLogEntry
	for _, e := range pl.entries {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Count returns how many entries match the given category and key.
func (pl *PassLog) Count(category, key string) int {
	return len(pl.Filter(category, key))
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (pl *PassLog) LastOf(category, key string) (PassLogEntry, bool) {
	entries := pl.Filter(category, key)
	if len(entries) == 0 {
		return PassLogEntry{}, false
	}
	return entries[len(entries)-1], true
}

// Format renders all entries, one per line.
func (pl *PassLog) Format() string {
	var b strings.Builder
	for _, e := range pl.Entries() {
		b.WriteString(e.String())
		b.WriteByte('\n')
	}
	return b.String()
}
