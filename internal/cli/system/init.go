package system

import (
	"errors"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/models"
	"github.com/nholden/lifeweeks/internal/storage"
)

type InitCmd struct {
	BirthDate   string `help:"Birth date (YYYY-MM-DD) the week grid is anchored on." required:""`
	DisplayName string `help:"Display name for the profile."`
	Timezone    string `help:"IANA timezone name (e.g. Europe/Amsterdam)."`
	Force       bool   `help:"Force reset by deleting the existing database before initialization."`
}

func (c *InitCmd) Run(ctx *cli.Context) error {
	profile := models.Profile{
		UserID:      uuid.New().String(),
		DisplayName: c.DisplayName,
		BirthDate:   c.BirthDate,
		Timezone:    c.Timezone,
	}
	if err := profile.Validate(); err != nil {
		return err
	}

	if c.Force && ctx.UsingSQLite() {
		dbPath := ctx.Provider.GetConfigPath()
		if _, err := os.Stat(dbPath); err == nil {
			if err := ctx.Provider.Close(); err != nil {
				return fmt.Errorf("failed to close existing database: %w", err)
			}
			if err := os.Remove(dbPath); err != nil {
				return fmt.Errorf("failed to delete existing database: %w", err)
			}
			fmt.Printf("Deleted existing database at: %s\n", dbPath)
		} else if !os.IsNotExist(err) {
			return fmt.Errorf("failed to access existing database: %w", err)
		}
	}

	if err := ctx.Provider.Init(); err != nil {
		return err
	}

	// Keep an existing profile's user id so entries stay attached to it.
	if existing, err := ctx.Provider.GetProfile(); err == nil {
		profile.UserID = existing.UserID
	} else if !errors.Is(err, storage.ErrProfileNotFound) {
		return err
	}

	if err := ctx.Provider.SaveProfile(profile); err != nil {
		return fmt.Errorf("failed to save profile: %w", err)
	}

	fmt.Printf("Initialized lifeweeks storage at: %s\n", ctx.Provider.GetConfigPath())
	fmt.Printf("Profile anchored on birth date %s\n", profile.BirthDate)
	return nil
}
