package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/nholden/lifeweeks/internal/backup"
	"github.com/nholden/lifeweeks/internal/constants"
	"github.com/nholden/lifeweeks/internal/logger"
	"github.com/nholden/lifeweeks/internal/models"
	"github.com/nholden/lifeweeks/internal/storage"
	"github.com/nholden/lifeweeks/internal/store"
)

type Context struct {
	Provider storage.Provider
	App      *store.Store
	Config   string
}

// UsingSQLite reports whether the provider is file-backed; backups only make
// sense for SQLite.
func (c *Context) UsingSQLite() bool {
	_, ok := c.Provider.(*storage.SQLiteStore)
	return ok
}

// PerformAutomaticBackup creates an automatic backup and silently handles errors
func (c *Context) PerformAutomaticBackup() {
	if !c.UsingSQLite() {
		return
	}
	mgr := backup.NewManager(c.Provider.GetConfigPath())
	if _, err := mgr.CreateBackup(); err != nil {
		// Log warning but don't interrupt user workflow
		logger.Warn("Automatic backup failed", "error", err)
	}
}

// ParseDay parses a day-in-week value: a weekday name or a number 1-7
// (1=Monday). An empty string means no day, i.e. the entry floats within
// its week.
func ParseDay(s string) (*int, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return nil, nil
	}

	dayMap := map[string]int{
		"mon": 1, "monday": 1,
		"tue": 2, "tuesday": 2,
		"wed": 3, "wednesday": 3,
		"thu": 4, "thursday": 4,
		"fri": 5, "friday": 5,
		"sat": 6, "saturday": 6,
		"sun": 7, "sunday": 7,
	}
	if d, ok := dayMap[s]; ok {
		return &d, nil
	}

	num, err := strconv.Atoi(s)
	if err != nil || num < 1 || num > constants.DaysPerWeek {
		return nil, fmt.Errorf("invalid day: %s (expected a weekday name or 1-7)", s)
	}
	return &num, nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(constants.DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (expected YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// FormatEntry renders a one-line summary of an entry for list output.
func FormatEntry(e models.Entry) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Type, e.Title)
	fmt.Fprintf(&b, "  (age %d, week %d", e.AgeYear, e.WeekIndex)
	if e.Day != nil {
		fmt.Fprintf(&b, ", day %d", *e.Day)
	}
	b.WriteString(")")
	if e.IsRecurring {
		fmt.Fprintf(&b, "  recurring %s", e.Frequency)
	}
	if e.IsCompleted {
		b.WriteString("  ✓ completed")
		if e.ConvertToMemory {
			b.WriteString(" (converts)")
		}
	}
	if len(e.Tags) > 0 {
		fmt.Fprintf(&b, "  #%s", strings.Join(e.Tags, " #"))
	}
	fmt.Fprintf(&b, "  [%s]", e.ID)
	return b.String()
}

// SplitList splits a comma-separated flag value, trimming blanks.
func SplitList(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
