package system

import (
	"fmt"

	"github.com/nholden/lifeweeks/internal/cli"
	"github.com/nholden/lifeweeks/internal/storage"
)

type MigrateCmd struct{}

func (c *MigrateCmd) Run(ctx *cli.Context) error {
	var count int
	var err error

	switch s := ctx.Provider.(type) {
	case *storage.SQLiteStore:
		count, err = s.Migrate(func(msg string) { fmt.Println(msg) })
	case *storage.PostgresStore:
		count, err = s.Migrate(func(msg string) { fmt.Println(msg) })
	default:
		return fmt.Errorf("migrate is not supported for this storage backend")
	}
	if err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	defer ctx.Provider.Close()

	if count == 0 {
		fmt.Println("No migrations to apply. Database is up to date.")
	} else {
		fmt.Printf("\nSuccessfully applied %d migration(s).\n", count)
	}
	return nil
}
