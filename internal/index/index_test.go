package index

import (
	"testing"
	"time"

	"github.com/nholden/lifeweeks/internal/models"
)

func intPtr(n int) *int { return &n }

func entry(id string, age, week int, day *int) models.Entry {
	return models.Entry{
		ID:        id,
		Type:      models.EntryTypeMemory,
		AgeYear:   age,
		WeekIndex: week,
		Day:       day,
		Title:     "entry " + id,
		CreatedAt: time.Now(),
	}
}

func TestPut_InsertAndReplace(t *testing.T) {
	ix := New()
	e := entry("a", 25, 10, intPtr(3))
	ix.Put(e)

	if got := ix.Query(25, 10, nil); len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}

	e.Title = "edited"
	ix.Put(e)
	got := ix.Query(25, 10, nil)
	if len(got) != 1 {
		t.Fatalf("replace duplicated the entry: %d entries", len(got))
	}
	if got[0].Title != "edited" {
		t.Errorf("expected replaced title, got %q", got[0].Title)
	}
}

func TestPut_MoveBetweenBuckets(t *testing.T) {
	ix := New()
	e := entry("a", 25, 10, intPtr(3))
	ix.Put(e)

	e.WeekIndex = 11
	ix.Put(e)

	if got := ix.Query(25, 10, nil); len(got) != 0 {
		t.Errorf("old bucket still holds %d entries", len(got))
	}
	if got := ix.Query(25, 11, nil); len(got) != 1 {
		t.Errorf("new bucket holds %d entries, want 1", len(got))
	}
	if ix.Len() != 1 {
		t.Errorf("Len = %d, want 1", ix.Len())
	}
}

func TestRemove_PrunesEmptyBucket(t *testing.T) {
	ix := New()
	ix.Put(entry("a", 3, 7, nil))
	ix.Remove("a")

	if ix.Len() != 0 {
		t.Errorf("Len = %d after remove, want 0", ix.Len())
	}
	if len(ix.buckets) != 0 {
		t.Errorf("bucket not pruned: %d buckets remain", len(ix.buckets))
	}

	// Removing an unknown id is a no-op.
	ix.Remove("missing")
}

func TestQuery_DayFilterFloatsAbsentDay(t *testing.T) {
	ix := New()
	ix.Put(entry("pinned", 30, 20, intPtr(2)))
	ix.Put(entry("floating", 30, 20, nil))
	ix.Put(entry("other-day", 30, 20, intPtr(5)))

	// No filter: everything in the box.
	if got := ix.Query(30, 20, nil); len(got) != 3 {
		t.Fatalf("unfiltered query returned %d entries, want 3", len(got))
	}

	// Day 2: the pinned entry plus the floating one; day-5 entry filtered out.
	got := ix.Query(30, 20, intPtr(2))
	if len(got) != 2 {
		t.Fatalf("day-2 query returned %d entries, want 2", len(got))
	}
	ids := map[string]bool{}
	for _, e := range got {
		ids[e.ID] = true
	}
	if !ids["pinned"] || !ids["floating"] {
		t.Errorf("day-2 query returned %v, want pinned and floating", ids)
	}

	// The floating entry matches every day of its week.
	for day := 1; day <= 7; day++ {
		found := false
		for _, e := range ix.Query(30, 20, intPtr(day)) {
			if e.ID == "floating" {
				found = true
			}
		}
		if !found {
			t.Errorf("floating entry missing from day %d query", day)
		}
	}
}

func TestQuery_SortedByCreatedAt(t *testing.T) {
	ix := New()
	base := time.Date(2025, time.January, 1, 12, 0, 0, 0, time.UTC)

	newer := entry("newer", 1, 1, nil)
	newer.CreatedAt = base.Add(time.Hour)
	older := entry("older", 1, 1, nil)
	older.CreatedAt = base

	ix.Put(newer)
	ix.Put(older)

	got := ix.Query(1, 1, nil)
	if len(got) != 2 || got[0].ID != "older" || got[1].ID != "newer" {
		t.Errorf("expected creation-time order [older newer], got %v", []string{got[0].ID, got[1].ID})
	}
}

func TestHasGoalTitled(t *testing.T) {
	ix := New()
	g := entry("g", 26, 10, nil)
	g.Type = models.EntryTypeGoal
	g.Title = "Anniversary dinner"
	ix.Put(g)

	if !ix.HasGoalTitled(26, 10, "Anniversary dinner") {
		t.Error("expected goal to be found by title")
	}
	if ix.HasGoalTitled(26, 10, "Something else") {
		t.Error("unexpected match for different title")
	}
	if ix.HasGoalTitled(26, 11, "Anniversary dinner") {
		t.Error("unexpected match in different week")
	}

	m := entry("m", 26, 10, nil)
	m.Title = "Wedding"
	ix.Put(m)
	if ix.HasGoalTitled(26, 10, "Wedding") {
		t.Error("memory entry must not satisfy the goal duplicate check")
	}
}

func TestByParent(t *testing.T) {
	ix := New()
	for i, id := range []string{"c1", "c2", "c3"} {
		c := entry(id, 26+i, 10, nil)
		c.Type = models.EntryTypeGoal
		c.ParentMemoryID = "template"
		ix.Put(c)
	}
	unrelated := entry("u", 26, 10, nil)
	ix.Put(unrelated)

	if got := ix.ByParent("template"); len(got) != 3 {
		t.Errorf("ByParent returned %d entries, want 3", len(got))
	}
}

func TestOnChanged(t *testing.T) {
	ix := New()
	fired := 0
	ix.OnChanged(func() { fired++ })

	ix.Put(entry("a", 1, 1, nil))
	ix.Remove("a")
	ix.Reset(nil)

	if fired != 3 {
		t.Errorf("observer fired %d times, want 3", fired)
	}
}

func TestReset(t *testing.T) {
	ix := New()
	ix.Put(entry("stale", 1, 1, nil))

	ix.Reset([]models.Entry{entry("a", 2, 2, nil), entry("b", 2, 2, nil)})

	if ix.Len() != 2 {
		t.Errorf("Len = %d after reset, want 2", ix.Len())
	}
	if _, ok := ix.Get("stale"); ok {
		t.Error("stale entry survived reset")
	}
	if got := ix.Query(2, 2, nil); len(got) != 2 {
		t.Errorf("reset bucket holds %d entries, want 2", len(got))
	}
}
