package router

import (
	"context"
	"database/sql"
	"fmt"

	"farm-registry/internal/adapters/storage/memory"
	pg "farm-registry/internal/adapters/storage/postgres"
	"farm-registry/internal/adapters/storage/sqlite"
	"farm-registry/internal/domain/activity"
	"farm-registry/internal/domain/farms"
	"farm-registry/internal/domain/shares"
	"farm-registry/internal/platform/config"
)

// Storage agrupa los repos de los tres módulos sobre un mismo backend.
type Storage struct {
	Farms    farms.Repository
	Shares   shares.Repository
	Activity activity.Repository

	db *sql.DB
}

func (s Storage) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func MemoryStorage() Storage {
	st := memory.NewStore()
	return Storage{Farms: st, Shares: st.Shares(), Activity: st.Activity()}
}

// OpenStorage abre el backend configurado y aplica el schema.
func OpenStorage(ctx context.Context, cfg config.Database) (Storage, error) {
	switch cfg.Driver {
	case "", "memory":
		return MemoryStorage(), nil

	case "sqlite":
		dsn := cfg.DSN
		if dsn == "" {
			dsn = sqlite.DefaultDSN
		}
		db, err := sqlite.Open(dsn)
		if err != nil {
			return Storage{}, err
		}
		if err := sqlite.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return Storage{}, err
		}
		st := sqlite.NewStore(db)
		return Storage{Farms: st, Shares: st.Shares(), Activity: st.Activity(), db: db}, nil

	case "postgres":
		db, err := pg.Open(cfg.DSN)
		if err != nil {
			return Storage{}, err
		}
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return Storage{}, err
		}
		st := pg.NewStore(db)
		return Storage{Farms: st, Shares: st.Shares(), Activity: st.Activity(), db: db}, nil

	default:
		return Storage{}, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}
