package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nholden/lifeweeks/internal/migration"
	"github.com/nholden/lifeweeks/internal/models"
	"github.com/nholden/lifeweeks/migrations"
)

const entryColumns = `id, user_id, entry_type, age_year, week_index, day_in_week,
	title, description, media_refs, tags, location,
	is_recurring, frequency, recurring_end_date, lead_time, lead_time_unit,
	is_completed, completed_at, convert_to_memory, parent_memory_id,
	reminder_at, reminder_enabled, notification_id, created_at, updated_at`

type SQLiteStore struct {
	path string
	db   *sql.DB
	subs *subscribers
}

func NewSQLiteStore(path string) *SQLiteStore {
	return &SQLiteStore{
		path: path,
		subs: newSubscribers(),
	}
}

func (s *SQLiteStore) Init() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Load() error {
	if s.db != nil {
		return nil
	}

	if _, err := os.Stat(s.path); os.IsNotExist(err) {
		return fmt.Errorf("storage not initialized, run 'lifeweeks init' first")
	}

	db, err := sql.Open("sqlite", s.path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	runner := migration.NewRunner(s.db, s.migrationsFS())
	return runner.ValidateVersion()
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) GetConfigPath() string {
	return s.path
}

func (s *SQLiteStore) migrationsFS() fs.FS {
	sub, err := fs.Sub(migrations.FS, "sqlite")
	if err != nil {
		// The embedded tree always contains sqlite/; reaching this means a
		// build problem, not a runtime condition.
		panic(err)
	}
	return sub
}

func (s *SQLiteStore) runMigrations() error {
	runner := migration.NewRunner(s.db, s.migrationsFS())
	_, err := runner.ApplyMigrations(nil)
	return err
}

// Migrate applies pending schema migrations, opening the database without the
// version check Load performs.
func (s *SQLiteStore) Migrate(logFn func(string)) (int, error) {
	if s.db == nil {
		if _, err := os.Stat(s.path); os.IsNotExist(err) {
			return 0, fmt.Errorf("storage not initialized, run 'lifeweeks init' first")
		}
		db, err := sql.Open("sqlite", s.path)
		if err != nil {
			return 0, fmt.Errorf("failed to open database: %w", err)
		}
		s.db = db
	}
	runner := migration.NewRunner(s.db, s.migrationsFS())
	return runner.ApplyMigrations(logFn)
}

func (s *SQLiteStore) GetProfile() (models.Profile, error) {
	rows, err := s.db.Query("SELECT key, value FROM profile")
	if err != nil {
		return models.Profile{}, err
	}
	defer rows.Close()

	profile := models.Profile{}
	count := 0
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return models.Profile{}, err
		}
		switch key {
		case "user_id":
			profile.UserID = value
		case "display_name":
			profile.DisplayName = value
		case "birth_date":
			profile.BirthDate = value
		case "timezone":
			profile.Timezone = value
		}
		count++
	}
	if count == 0 {
		return models.Profile{}, ErrProfileNotFound
	}
	return profile, rows.Err()
}

func (s *SQLiteStore) SaveProfile(profile models.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO profile (key, value) VALUES (?, ?)")
	if err != nil {
		return err
	}
	defer stmt.Close()

	pairs := [][2]string{
		{"user_id", profile.UserID},
		{"display_name", profile.DisplayName},
		{"birth_date", profile.BirthDate},
		{"timezone", profile.Timezone},
	}
	for _, kv := range pairs {
		if _, err := stmt.Exec(kv[0], kv[1]); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *SQLiteStore) SaveEntry(entry models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	mediaJSON, tagsJSON, err := marshalLists(entry)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT OR REPLACE INTO entries (`+entryColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, string(entry.Type), entry.AgeYear, entry.WeekIndex, nullableInt(entry.Day),
		entry.Title, entry.Description, mediaJSON, tagsJSON, entry.Location,
		entry.IsRecurring, string(entry.Frequency), formatTime(entry.RecurringEndDate), entry.LeadTime, string(entry.LeadTimeUnit),
		entry.IsCompleted, formatTime(entry.CompletedAt), entry.ConvertToMemory, entry.ParentMemoryID,
		formatTime(entry.ReminderAt), entry.ReminderEnabled, entry.NotificationID,
		entry.CreatedAt.Format(time.RFC3339), entry.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	s.notifyChanged()
	return nil
}

func (s *SQLiteStore) UpdateEntry(entry models.Entry) error {
	if _, err := s.GetEntry(entry.ID); err != nil {
		return err
	}
	return s.SaveEntry(entry)
}

func (s *SQLiteStore) GetEntry(id string) (models.Entry, error) {
	row := s.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE id = ?", id)
	entry, err := scanSQLiteEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *SQLiteStore) LoadEntries(userID string) ([]models.Entry, error) {
	rows, err := s.db.Query(
		"SELECT "+entryColumns+" FROM entries WHERE user_id = ? ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, err := scanSQLiteEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *SQLiteStore) DeleteEntry(id string) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEntryNotFound
	}

	s.notifyChanged()
	return nil
}

func (s *SQLiteStore) Subscribe(userID string, onChange ChangeFunc) int {
	return s.subs.add(userID, onChange)
}

func (s *SQLiteStore) Unsubscribe(token int) {
	s.subs.remove(token)
}

func (s *SQLiteStore) notifyChanged() {
	s.subs.broadcast(s.LoadEntries)
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanSQLiteEntry(row scanner) (models.Entry, error) {
	var (
		e                               models.Entry
		entryType, frequency, leadUnit  string
		day                             sql.NullInt64
		endDate, completedAt, reminder  sql.NullString
		mediaJSON, tagsJSON             string
		createdAt, updatedAt            string
	)

	err := row.Scan(
		&e.ID, &e.UserID, &entryType, &e.AgeYear, &e.WeekIndex, &day,
		&e.Title, &e.Description, &mediaJSON, &tagsJSON, &e.Location,
		&e.IsRecurring, &frequency, &endDate, &e.LeadTime, &leadUnit,
		&e.IsCompleted, &completedAt, &e.ConvertToMemory, &e.ParentMemoryID,
		&reminder, &e.ReminderEnabled, &e.NotificationID, &createdAt, &updatedAt,
	)
	if err != nil {
		return models.Entry{}, err
	}

	e.Type = models.EntryType(entryType)
	e.Frequency = models.Frequency(frequency)
	e.LeadTimeUnit = models.LeadTimeUnit(leadUnit)

	if day.Valid {
		d := int(day.Int64)
		e.Day = &d
	}
	if e.RecurringEndDate, err = parseNullTime(endDate); err != nil {
		return models.Entry{}, err
	}
	if e.CompletedAt, err = parseNullTime(completedAt); err != nil {
		return models.Entry{}, err
	}
	if e.ReminderAt, err = parseNullTime(reminder); err != nil {
		return models.Entry{}, err
	}
	if e.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return models.Entry{}, fmt.Errorf("parsing created_at: %w", err)
	}
	if e.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return models.Entry{}, fmt.Errorf("parsing updated_at: %w", err)
	}

	if mediaJSON != "" {
		if err := json.Unmarshal([]byte(mediaJSON), &e.MediaRefs); err != nil {
			return models.Entry{}, fmt.Errorf("parsing media refs: %w", err)
		}
	}
	if tagsJSON != "" {
		if err := json.Unmarshal([]byte(tagsJSON), &e.Tags); err != nil {
			return models.Entry{}, fmt.Errorf("parsing tags: %w", err)
		}
	}

	return e, nil
}

func marshalLists(entry models.Entry) (string, string, error) {
	media := entry.MediaRefs
	if media == nil {
		media = []string{}
	}
	tags := entry.Tags
	if tags == nil {
		tags = []string{}
	}

	mediaJSON, err := json.Marshal(media)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal media refs: %w", err)
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return "", "", fmt.Errorf("failed to marshal tags: %w", err)
	}
	return string(mediaJSON), string(tagsJSON), nil
}

func nullableInt(n *int) interface{} {
	if n == nil {
		return nil
	}
	return *n
}

func formatTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.Format(time.RFC3339)
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s.String)
	if err != nil {
		return nil, fmt.Errorf("parsing timestamp %q: %w", s.String, err)
	}
	return &t, nil
}
