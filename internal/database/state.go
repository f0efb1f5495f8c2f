package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/pau-bookit/bookit-api/internal/config"
	"github.com/pau-bookit/bookit-api/internal/repository"
)

// OpenStateRepository connects the storage backend named by the configuration and
// returns the repository holding the booking document with a function releasing it.
func OpenStateRepository(cfg config.Config) (repository.StateRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StorageDriver {
	case config.StorageMemory:
		return repository.NewMemoryStateRepository(), noop, nil
	case config.StorageSQLite, config.StoragePostgres:
		var (
			db  *gorm.DB
			err error
		)
		if cfg.StorageDriver == config.StorageSQLite {
			db, err = ConnectSQLite(cfg.SQLitePath)
		} else {
			db, err = ConnectPostgres(cfg.DatabaseURL)
		}
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(db); err != nil {
			return nil, nil, err
		}
		closer := func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}
		return repository.NewSnapshotRepository(db, repository.DefaultSnapshotID), closer, nil
	case config.StorageRedis:
		client, err := ConnectRedis(cfg.RedisURL)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewRedisStateRepository(client, cfg.RedisSnapshotKey), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
}
