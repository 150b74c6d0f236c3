package commands

import (
	"fmt"
	"os"

	"github.com/sproutplan/sproutplan-api/internal/config"
	"github.com/sproutplan/sproutplan-api/internal/database"
)

// openDB loads the environment config and opens the database. The
// returned cleanup closes the connection and is safe for defer.
func openDB() (*database.DB, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	cleanup := func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}
	return db, cleanup, nil
}
