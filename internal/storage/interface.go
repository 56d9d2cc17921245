package storage

import (
	"errors"

	"github.com/nholden/lifeweeks/internal/models"
)

// ErrEntryNotFound is returned when no entry exists under the requested id.
var ErrEntryNotFound = errors.New("entry not found")

// ErrProfileNotFound is returned before the profile has been initialized.
var ErrProfileNotFound = errors.New("profile not found")

// ChangeFunc receives the full entry snapshot for a user after a committed
// mutation.
type ChangeFunc func([]models.Entry)

type Provider interface {
	// Lifecycle
	Init() error
	Load() error
	Close() error

	// Profile
	GetProfile() (models.Profile, error)
	SaveProfile(models.Profile) error

	// Entries
	SaveEntry(models.Entry) error
	GetEntry(id string) (models.Entry, error)
	LoadEntries(userID string) ([]models.Entry, error)
	UpdateEntry(models.Entry) error
	DeleteEntry(id string) error

	// Change notification. Subscribe returns a token for Unsubscribe;
	// callbacks fire only after a mutation has been durably accepted.
	Subscribe(userID string, onChange ChangeFunc) int
	Unsubscribe(token int)

	// Utils
	GetConfigPath() string
}
