// Package index keeps an in-memory view of all entries keyed by week box.
package index

import (
	"sort"

	"github.com/nholden/lifeweeks/internal/models"
)

// WeekKey identifies one box of the life grid.
type WeekKey struct {
	AgeYear   int
	WeekIndex int
}

// Index maps week keys to the entries placed in that box. It is not safe for
// concurrent mutation; all writes are routed through the store façade, which
// serializes them.
type Index struct {
	buckets   map[WeekKey][]models.Entry
	locations map[string]WeekKey // entry id -> current bucket
	observers []func()
}

func New() *Index {
	return &Index{
		buckets:   make(map[WeekKey][]models.Entry),
		locations: make(map[string]WeekKey),
	}
}

// OnChanged registers a callback fired after every mutation. Callbacks run
// synchronously on the mutating goroutine.
func (ix *Index) OnChanged(fn func()) {
	ix.observers = append(ix.observers, fn)
}

func (ix *Index) notify() {
	for _, fn := range ix.observers {
		fn()
	}
}

// Put inserts or replaces an entry by id. If an edit moved the entry to a
// different week box it is removed from the old bucket first.
func (ix *Index) Put(entry models.Entry) {
	key := WeekKey{AgeYear: entry.AgeYear, WeekIndex: entry.WeekIndex}

	if prev, ok := ix.locations[entry.ID]; ok && prev != key {
		ix.removeFromBucket(prev, entry.ID)
	}

	bucket := ix.buckets[key]
	replaced := false
	for i := range bucket {
		if bucket[i].ID == entry.ID {
			bucket[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		bucket = append(bucket, entry)
	}
	ix.buckets[key] = bucket
	ix.locations[entry.ID] = key
	ix.notify()
}

// Remove deletes an entry from whichever bucket currently holds it. Removing
// an unknown id is a no-op.
func (ix *Index) Remove(id string) {
	key, ok := ix.locations[id]
	if !ok {
		return
	}
	ix.removeFromBucket(key, id)
	delete(ix.locations, id)
	ix.notify()
}

func (ix *Index) removeFromBucket(key WeekKey, id string) {
	bucket := ix.buckets[key]
	for i := range bucket {
		if bucket[i].ID == id {
			bucket = append(bucket[:i], bucket[i+1:]...)
			break
		}
	}
	if len(bucket) == 0 {
		delete(ix.buckets, key)
	} else {
		ix.buckets[key] = bucket
	}
}

// Get returns the entry with the given id, if indexed.
func (ix *Index) Get(id string) (models.Entry, bool) {
	key, ok := ix.locations[id]
	if !ok {
		return models.Entry{}, false
	}
	for _, e := range ix.buckets[key] {
		if e.ID == id {
			return e, true
		}
	}
	return models.Entry{}, false
}

// Query returns the entries in a week box, sorted by creation time for stable
// display. With a non-nil day filter, entries with an unspecified day float
// across the whole week and match any day; entries with a concrete day must
// match exactly. The float behavior is a business rule, not an oversight.
func (ix *Index) Query(ageYear, weekIndex int, day *int) []models.Entry {
	bucket := ix.buckets[WeekKey{AgeYear: ageYear, WeekIndex: weekIndex}]

	var out []models.Entry
	for _, e := range bucket {
		if day != nil && e.Day != nil && *e.Day != *day {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// HasGoalTitled reports whether the week box already holds a goal entry with
// the given title. Used for idempotent recurrence generation.
func (ix *Index) HasGoalTitled(ageYear, weekIndex int, title string) bool {
	for _, e := range ix.buckets[WeekKey{AgeYear: ageYear, WeekIndex: weekIndex}] {
		if e.Type == models.EntryTypeGoal && e.Title == title {
			return true
		}
	}
	return false
}

// ByParent returns every entry whose ParentMemoryID matches the given id.
func (ix *Index) ByParent(parentID string) []models.Entry {
	var out []models.Entry
	for _, bucket := range ix.buckets {
		for _, e := range bucket {
			if e.ParentMemoryID == parentID {
				out = append(out, e)
			}
		}
	}
	return out
}

// Goals returns every goal entry in the index.
func (ix *Index) Goals() []models.Entry {
	var out []models.Entry
	for _, bucket := range ix.buckets {
		for _, e := range bucket {
			if e.Type == models.EntryTypeGoal {
				out = append(out, e)
			}
		}
	}
	return out
}

// All returns every indexed entry.
func (ix *Index) All() []models.Entry {
	out := make([]models.Entry, 0, len(ix.locations))
	for _, bucket := range ix.buckets {
		out = append(out, bucket...)
	}
	return out
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return len(ix.locations)
}

// Reset replaces the whole index contents with the given entries, used when
// rebuilding from a storage snapshot.
func (ix *Index) Reset(entries []models.Entry) {
	ix.buckets = make(map[WeekKey][]models.Entry)
	ix.locations = make(map[string]WeekKey)
	for _, e := range entries {
		key := WeekKey{AgeYear: e.AgeYear, WeekIndex: e.WeekIndex}
		ix.buckets[key] = append(ix.buckets[key], e)
		ix.locations[e.ID] = key
	}
	ix.notify()
}
