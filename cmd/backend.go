package cmd

import (
	"fmt"

	"github.com/kozaktomas/face-registry/internal/config"
	"github.com/kozaktomas/face-registry/internal/database"
	"github.com/kozaktomas/face-registry/internal/database/memory"
	"github.com/kozaktomas/face-registry/internal/database/postgres"
	"github.com/kozaktomas/face-registry/internal/database/sqlite"
	"github.com/kozaktomas/face-registry/internal/stats"
)

// openBackend selects the storage backend from configuration. Preference
// order: PostgreSQL when DATABASE_URL is set, SQLite when SQLITE_PATH is
// set, otherwise an in-memory store that forgets everything on exit.
// The returned closer is safe to call once; counters only persist when
// the stats store is non-nil.
func openBackend(cfg *config.Config) (database.SubjectWriter, stats.Store, func() error, error) {
	switch {
	case cfg.Database.URL != "":
		fmt.Println("Using PostgreSQL backend")
		pool, err := postgres.Open(&cfg.Database)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening postgres: %w", err)
		}
		return postgres.NewSubjectRepository(pool), postgres.NewStatsRepository(pool), pool.Close, nil

	case cfg.Database.SQLitePath != "":
		fmt.Printf("Using SQLite backend (%s)\n", cfg.Database.SQLitePath)
		store, err := sqlite.Open(cfg.Database.SQLitePath)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("opening sqlite: %w", err)
		}
		return store, store, store.Close, nil

	default:
		fmt.Println("Using in-memory backend (data is lost on exit)")
		return memory.NewStore(), nil, func() error { return nil }, nil
	}
}
