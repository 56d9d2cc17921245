package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	_ "github.com/lib/pq"

	"github.com/nholden/lifeweeks/internal/migration"
	"github.com/nholden/lifeweeks/internal/models"
	"github.com/nholden/lifeweeks/migrations"
)

type PostgresStore struct {
	connStr string
	db      *sql.DB
	subs    *subscribers
}

func NewPostgresStore(connStr string) *PostgresStore {
	return &PostgresStore{
		connStr: connStr,
		subs:    newSubscribers(),
	}
}

// HasEmbeddedCredentials reports whether a postgres connection string carries
// a password inline. Credentials belong in the OS keyring, the environment, or
// .pgpass, never in the connection string itself.
func HasEmbeddedCredentials(connStr string) bool {
	u, err := url.Parse(connStr)
	if err != nil {
		return false
	}
	if u.User == nil {
		return false
	}
	_, hasPassword := u.User.Password()
	return hasPassword
}

func (s *PostgresStore) Init() error {
	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := s.runMigrations(); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

func (s *PostgresStore) Load() error {
	if s.db != nil {
		return nil
	}

	db, err := sql.Open("postgres", s.connStr)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	s.db = db

	if err := s.db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	runner := migration.NewRunner(s.db, s.migrationsFS())
	return runner.ValidateVersion()
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *PostgresStore) GetConfigPath() string {
	return s.connStr
}

func (s *PostgresStore) migrationsFS() fs.FS {
	sub, err := fs.Sub(migrations.FS, "postgres")
	if err != nil {
		panic(err)
	}
	return sub
}

func (s *PostgresStore) runMigrations() error {
	runner := migration.NewRunner(s.db, s.migrationsFS())
	_, err := runner.ApplyMigrations(nil)
	return err
}

// Migrate applies pending schema migrations, opening the connection without
// the version check Load performs.
func (s *PostgresStore) Migrate(logFn func(string)) (int, error) {
	if s.db == nil {
		db, err := sql.Open("postgres", s.connStr)
		if err != nil {
			return 0, fmt.Errorf("failed to open database: %w", err)
		}
		if err := db.Ping(); err != nil {
			return 0, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
	}
	runner := migration.NewRunner(s.db, s.migrationsFS())
	return runner.ApplyMigrations(logFn)
}

func (s *PostgresStore) GetProfile() (models.Profile, error) {
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

func (s *PostgresStore) SaveProfile(profile models.Profile) error {
	if err := profile.Validate(); err != nil {
		return err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO profile (key, value) VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`)
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

func (s *PostgresStore) SaveEntry(entry models.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	mediaJSON, tagsJSON, err := marshalLists(entry)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO entries (`+entryColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25)
		ON CONFLICT (id) DO UPDATE SET
			user_id = EXCLUDED.user_id, entry_type = EXCLUDED.entry_type,
			age_year = EXCLUDED.age_year, week_index = EXCLUDED.week_index,
			day_in_week = EXCLUDED.day_in_week, title = EXCLUDED.title,
			description = EXCLUDED.description, media_refs = EXCLUDED.media_refs,
			tags = EXCLUDED.tags, location = EXCLUDED.location,
			is_recurring = EXCLUDED.is_recurring, frequency = EXCLUDED.frequency,
			recurring_end_date = EXCLUDED.recurring_end_date,
			lead_time = EXCLUDED.lead_time, lead_time_unit = EXCLUDED.lead_time_unit,
			is_completed = EXCLUDED.is_completed, completed_at = EXCLUDED.completed_at,
			convert_to_memory = EXCLUDED.convert_to_memory,
			parent_memory_id = EXCLUDED.parent_memory_id,
			reminder_at = EXCLUDED.reminder_at,
			reminder_enabled = EXCLUDED.reminder_enabled,
			notification_id = EXCLUDED.notification_id,
			created_at = EXCLUDED.created_at, updated_at = EXCLUDED.updated_at`,
		entry.ID, entry.UserID, string(entry.Type), entry.AgeYear, entry.WeekIndex, nullableInt(entry.Day),
		entry.Title, entry.Description, mediaJSON, tagsJSON, entry.Location,
		entry.IsRecurring, string(entry.Frequency), nullableTime(entry.RecurringEndDate), entry.LeadTime, string(entry.LeadTimeUnit),
		entry.IsCompleted, nullableTime(entry.CompletedAt), entry.ConvertToMemory, entry.ParentMemoryID,
		nullableTime(entry.ReminderAt), entry.ReminderEnabled, entry.NotificationID,
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	s.notifyChanged()
	return nil
}

func (s *PostgresStore) UpdateEntry(entry models.Entry) error {
	if _, err := s.GetEntry(entry.ID); err != nil {
		return err
	}
	return s.SaveEntry(entry)
}

func (s *PostgresStore) GetEntry(id string) (models.Entry, error) {
	row := s.db.QueryRow("SELECT "+entryColumns+" FROM entries WHERE id = $1", id)
	entry, err := scanPostgresEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Entry{}, ErrEntryNotFound
	}
	return entry, err
}

func (s *PostgresStore) LoadEntries(userID string) ([]models.Entry, error) {
	rows, err := s.db.Query(
		"SELECT "+entryColumns+" FROM entries WHERE user_id = $1 ORDER BY created_at", userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []models.Entry
	for rows.Next() {
		entry, err := scanPostgresEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

func (s *PostgresStore) DeleteEntry(id string) error {
	res, err := s.db.Exec("DELETE FROM entries WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("failed to delete entry: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrEntryNotFound
	}

	s.notifyChanged()
	return nil
}

func (s *PostgresStore) Subscribe(userID string, onChange ChangeFunc) int {
	return s.subs.add(userID, onChange)
}

func (s *PostgresStore) Unsubscribe(token int) {
	s.subs.remove(token)
}

func (s *PostgresStore) notifyChanged() {
	s.subs.broadcast(s.LoadEntries)
}

func scanPostgresEntry(row scanner) (models.Entry, error) {
	var (
		e                              models.Entry
		entryType, frequency, leadUnit string
		day                            sql.NullInt64
		endDate, completedAt, reminder sql.NullTime
		mediaJSON, tagsJSON            string
	)

	err := row.Scan(
		&e.ID, &e.UserID, &entryType, &e.AgeYear, &e.WeekIndex, &day,
		&e.Title, &e.Description, &mediaJSON, &tagsJSON, &e.Location,
		&e.IsRecurring, &frequency, &endDate, &e.LeadTime, &leadUnit,
		&e.IsCompleted, &completedAt, &e.ConvertToMemory, &e.ParentMemoryID,
		&reminder, &e.ReminderEnabled, &e.NotificationID, &e.CreatedAt, &e.UpdatedAt,
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
	if endDate.Valid {
		t := endDate.Time
		e.RecurringEndDate = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		e.CompletedAt = &t
	}
	if reminder.Valid {
		t := reminder.Time
		e.ReminderAt = &t
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

func nullableTime(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
