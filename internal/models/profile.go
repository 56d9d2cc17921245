package models

import (
	"fmt"
	"time"

	"github.com/nholden/lifeweeks/internal/constants"
)

// Profile holds the per-user settings the grid is anchored on.
type Profile struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name,omitempty"`
	BirthDate   string `json:"birth_date"` // YYYY-MM-DD
	Timezone    string `json:"timezone,omitempty"`
}

func (p *Profile) Validate() error {
	if p.BirthDate == "" {
		return fmt.Errorf("birth date cannot be empty")
	}
	if _, err := time.Parse(constants.DateFormat, p.BirthDate); err != nil {
		return fmt.Errorf("invalid birth date format (expected YYYY-MM-DD): %w", err)
	}
	if p.Timezone != "" && p.Timezone != "Local" {
		if _, err := time.LoadLocation(p.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", p.Timezone, err)
		}
	}
	return nil
}

// Birth returns the birth date at midnight UTC. Validate is expected to have
// been called first; a zero time is returned for unparseable input.
func (p *Profile) Birth() time.Time {
	t, err := time.Parse(constants.DateFormat, p.BirthDate)
	if err != nil {
		return time.Time{}
	}
	return t
}
