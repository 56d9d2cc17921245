// Package store is the orchestration layer between the storage provider, the
// in-memory week index, and the recurrence/lifecycle logic. Every mutation
// persists first and touches the index only after the write was accepted, so
// a failed write never leaves phantom entries visible to queries.
package store

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/nholden/lifeweeks/internal/index"
	"github.com/nholden/lifeweeks/internal/lifecycle"
	"github.com/nholden/lifeweeks/internal/logger"
	"github.com/nholden/lifeweeks/internal/models"
	"github.com/nholden/lifeweeks/internal/recurrence"
	"github.com/nholden/lifeweeks/internal/storage"
)

// Scheduler delivers reminders through an external notification agent.
// Scheduling failures are never fatal to the owning mutation.
type Scheduler interface {
	ScheduleReminder(entry models.Entry, at time.Time) (string, error)
	CancelReminder(notificationID string) error
}

// PersistenceError wraps a provider failure so callers can tell a storage
// problem apart from a validation one.
type PersistenceError struct {
	Op  string
	ID  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s entry %s: %v", e.Op, e.ID, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DeleteFailure records one child that survived a cascade delete.
type DeleteFailure struct {
	ChildID string
	Err     error
}

// CascadeError reports a partial cascade. The template itself is kept so the
// cascade can be retried; already-deleted children stay deleted.
type CascadeError struct {
	TemplateID string
	Failures   []DeleteFailure
}

func (e *CascadeError) Error() string {
	return fmt.Sprintf("cascade delete of template %s left %d child goal(s) behind", e.TemplateID, len(e.Failures))
}

// GenerateResult summarizes one generation pass for a template.
type GenerateResult struct {
	TemplateID string
	Created    int
	Skipped    int
}

// SweepResult summarizes a conversion sweep.
type SweepResult struct {
	Converted int
}

// Store composes the provider, index, and recurrence generator behind a
// single serialized entry point.
type Store struct {
	mu       sync.Mutex
	provider storage.Provider
	idx      *index.Index
	gen      *recurrence.Generator
	sched    Scheduler

	profile  models.Profile
	birth    time.Time
	subToken int
}

// New wires a Store. sched may be nil when no notification agent is running.
func New(provider storage.Provider, sched Scheduler) *Store {
	return &Store{
		provider: provider,
		idx:      index.New(),
		gen:      recurrence.New(),
		sched:    sched,
	}
}

// Load pulls the profile and full entry set from the provider, rebuilds the
// index, and subscribes to provider change notifications so external writes
// are reflected without restarting.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	profile, err := s.provider.GetProfile()
	if err != nil {
		return err
	}
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("stored profile is invalid: %w", err)
	}
	s.profile = profile
	s.birth = profile.Birth()

	entries, err := s.provider.LoadEntries(profile.UserID)
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}
	s.idx.Reset(entries)

	s.subToken = s.provider.Subscribe(profile.UserID, func(snapshot []models.Entry) {
		s.idx.Reset(snapshot)
	})
	return nil
}

// Close detaches from the provider.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.provider.Unsubscribe(s.subToken)
	return s.provider.Close()
}

// OnChanged registers an observer fired after every index mutation, local
// or pushed from the provider.
func (s *Store) OnChanged(fn func()) {
	s.idx.OnChanged(fn)
}

// Profile returns the loaded profile.
func (s *Store) Profile() models.Profile {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.profile
}

// CreateEntry validates and persists a new entry, then indexes it. The
// returned entry carries the assigned id, timestamps, and any notification
// handle from reminder scheduling.
func (s *Store) CreateEntry(e models.Entry) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.UserID == "" {
		e.UserID = s.profile.UserID
	}
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now

	if err := e.Validate(); err != nil {
		return models.Entry{}, err
	}
	if err := s.provider.SaveEntry(e); err != nil {
		return models.Entry{}, &PersistenceError{Op: "save", ID: e.ID, Err: err}
	}

	e = s.attachReminder(e)
	s.idx.Put(e)
	return e, nil
}

// UpdateEntry persists changes to an existing entry. A stale notification
// handle is cancelled and the reminder rescheduled against the new fields.
func (s *Store) UpdateEntry(e models.Entry) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.provider.GetEntry(e.ID)
	if err != nil {
		return models.Entry{}, err
	}

	e.UserID = existing.UserID
	e.CreatedAt = existing.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	e.NotificationID = ""

	if err := e.Validate(); err != nil {
		return models.Entry{}, err
	}
	if err := s.provider.UpdateEntry(e); err != nil {
		return models.Entry{}, &PersistenceError{Op: "update", ID: e.ID, Err: err}
	}

	s.cancelReminder(existing)
	e = s.attachReminder(e)
	s.idx.Put(e)
	return e, nil
}

// GetEntry reads a single entry from the index.
func (s *Store) GetEntry(id string) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.idx.Get(id)
	if !ok {
		return models.Entry{}, storage.ErrEntryNotFound
	}
	return entry, nil
}

// DeleteEntry removes an entry. Deleting a recurring template memory cascades
// to its generated child goals, children first; each child is deleted
// remotely before it leaves the index, and any child failure keeps the
// template in place so the cascade can be retried.
func (s *Store) DeleteEntry(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.idx.Get(id)
	if !ok {
		var err error
		entry, err = s.provider.GetEntry(id)
		if err != nil {
			return err
		}
	}

	if entry.IsTemplate() {
		var failures []DeleteFailure
		for _, child := range s.idx.ByParent(id) {
			if err := s.deleteOne(child); err != nil {
				failures = append(failures, DeleteFailure{ChildID: child.ID, Err: err})
			}
		}
		if len(failures) > 0 {
			return &CascadeError{TemplateID: id, Failures: failures}
		}
	}

	return s.deleteOne(entry)
}

// deleteOne removes a single entry remote-first. Caller holds the lock.
func (s *Store) deleteOne(entry models.Entry) error {
	s.cancelReminder(entry)
	if err := s.provider.DeleteEntry(entry.ID); err != nil {
		return &PersistenceError{Op: "delete", ID: entry.ID, Err: err}
	}
	s.idx.Remove(entry.ID)
	return nil
}

// Week returns the entries for one week, optionally narrowed to a day.
// Entries without a day always match.
func (s *Store) Week(ageYear, weekIndex int, day *int) []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.Query(ageYear, weekIndex, day)
}

// Entries returns every loaded entry.
func (s *Store) Entries() []models.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.idx.All()
}

// MarkCompleted flags a goal done, optionally marking it for conversion on
// the next sweep.
func (s *Store) MarkCompleted(id string, convert bool, now time.Time) (models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.idx.Get(id)
	if !ok {
		return models.Entry{}, storage.ErrEntryNotFound
	}
	updated, err := lifecycle.MarkCompleted(entry, convert, now)
	if err != nil {
		return models.Entry{}, err
	}
	if err := s.provider.UpdateEntry(updated); err != nil {
		return models.Entry{}, &PersistenceError{Op: "update", ID: id, Err: err}
	}
	s.idx.Put(updated)
	return updated, nil
}

// GenerateRecurring materializes pending goal instances for one template.
// Instances already present under the same week and title are skipped, so
// running it twice is a no-op. Each instance commits independently; a
// persistence failure stops the pass and reports what was already created.
func (s *Store) GenerateRecurring(templateID string, now time.Time) (GenerateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	template, ok := s.idx.Get(templateID)
	if !ok {
		return GenerateResult{}, storage.ErrEntryNotFound
	}

	plan, err := s.gen.Generate(template, s.birth, now, s.idx)
	if err != nil {
		return GenerateResult{}, err
	}

	result := GenerateResult{TemplateID: templateID, Skipped: plan.Skipped}
	for _, inst := range plan.Instances {
		inst.UserID = s.profile.UserID
		if err := s.provider.SaveEntry(inst); err != nil {
			return result, &PersistenceError{Op: "save", ID: inst.ID, Err: err}
		}
		inst = s.attachReminder(inst)
		s.idx.Put(inst)
		result.Created++
	}
	return result, nil
}

// GenerateAll runs a generation pass over every recurring template.
func (s *Store) GenerateAll(now time.Time) ([]GenerateResult, error) {
	var templates []string
	s.mu.Lock()
	for _, e := range s.idx.All() {
		if e.IsTemplate() {
			templates = append(templates, e.ID)
		}
	}
	s.mu.Unlock()

	var results []GenerateResult
	for _, id := range templates {
		res, err := s.GenerateRecurring(id, now)
		if err != nil {
			return results, err
		}
		results = append(results, res)
	}
	return results, nil
}

// SweepConversions converts every completed, conversion-flagged goal whose
// date has passed into a memory. Each conversion commits on its own: the
// memory is persisted, the goal deleted, and only then does the index change.
// Failed conversions are collected and do not block the rest.
func (s *Store) SweepConversions(now time.Time) (SweepResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	plan := lifecycle.PlanSweep(s.idx.All(), s.birth, now)
	failures := append([]lifecycle.ConversionFailure(nil), plan.Failures...)

	var result SweepResult
	for _, conv := range plan.Conversions {
		memory := conv.Memory
		memory.UserID = s.profile.UserID
		if err := s.provider.SaveEntry(memory); err != nil {
			failures = append(failures, lifecycle.ConversionFailure{GoalID: conv.Goal.ID, Err: err})
			continue
		}
		if err := s.provider.DeleteEntry(conv.Goal.ID); err != nil {
			// The memory is committed; report the dangling goal rather than
			// unwinding it.
			failures = append(failures, lifecycle.ConversionFailure{GoalID: conv.Goal.ID, Err: err})
			s.idx.Put(memory)
			continue
		}
		s.cancelReminder(conv.Goal)
		s.idx.Put(memory)
		s.idx.Remove(conv.Goal.ID)
		result.Converted++
	}

	if len(failures) > 0 {
		return result, &lifecycle.SweepError{Failures: failures}
	}
	return result, nil
}

// attachReminder schedules the entry's reminder and stores the returned
// notification handle. Scheduling problems are logged and swallowed; the
// entry itself is already committed.
func (s *Store) attachReminder(e models.Entry) models.Entry {
	if s.sched == nil || !e.ReminderEnabled || e.ReminderAt == nil {
		return e
	}
	notifID, err := s.sched.ScheduleReminder(e, *e.ReminderAt)
	if err != nil {
		logger.Warn("could not schedule reminder", "entry", e.ID, "error", err)
		return e
	}
	e.NotificationID = notifID
	if err := s.provider.UpdateEntry(e); err != nil {
		logger.Warn("reminder scheduled but handle not stored", "entry", e.ID, "error", err)
		e.NotificationID = ""
	}
	return e
}

// cancelReminder tears down an existing notification, if any.
func (s *Store) cancelReminder(e models.Entry) {
	if s.sched == nil || e.NotificationID == "" {
		return
	}
	if err := s.sched.CancelReminder(e.NotificationID); err != nil {
		logger.Warn("could not cancel reminder", "entry", e.ID, "error", err)
	}
}
