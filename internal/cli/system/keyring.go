package system

import (
	"fmt"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/keyring"
	"github.com/nholden/lifeweeks/internal/storage"
)

type KeyringSetCmd struct {
	ConnectionString string `arg:"" help:"PostgreSQL connection string to store in the OS keyring."`
}

func (c *KeyringSetCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		return fmt.Errorf("OS keyring is not available on this system")
	}
	if !storage.HasEmbeddedCredentials(c.ConnectionString) {
		fmt.Println("Note: the connection string carries no password; storing it anyway.")
	}
	if err := keyring.SetConnectionString(c.ConnectionString); err != nil {
		return fmt.Errorf("failed to store connection string: %w", err)
	}
	fmt.Println("✓ Connection string stored in OS keyring.")
	fmt.Println("Run lifeweeks with --config postgres:// to use it.")
	return nil
}

type KeyringClearCmd struct{}

func (c *KeyringClearCmd) Run(ctx *cli.Context) error {
	if err := keyring.DeleteConnectionString(); err != nil {
		return fmt.Errorf("failed to clear connection string: %w", err)
	}
	fmt.Println("✓ Connection string removed from OS keyring.")
	return nil
}
