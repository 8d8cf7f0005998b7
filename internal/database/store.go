package database

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
)

// NewArtifactRepository opens the session store selected by STORE_DRIVER.
// The returned close func releases the backing connection, if any.
func NewArtifactRepository(ctx context.Context, cfg *config.Config, log zerolog.Logger) (repository.ArtifactRepository, func() error, error) {
	noop := func() error { return nil }

	switch cfg.StoreDriver {
	case config.StoreDriverFS:
		repo, err := repository.NewFSArtifactRepository(cfg.SessionsDir, log)
		if err != nil {
			return nil, noop, err
		}
		log.Info().Str("dir", cfg.SessionsDir).Msg("Filesystem session store ready")
		return repo, noop, nil

	case config.StoreDriverRedis:
		rdb, err := NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, noop, err
		}
		return repository.NewRedisArtifactRepository(rdb, cfg.SessionRetention, log), rdb.Close, nil

	case config.StoreDriverMemory:
		log.Warn().Msg("In-memory session store: sessions are lost on restart")
		return repository.NewMemoryArtifactRepository(), noop, nil

	default:
		return nil, noop, fmt.Errorf("unknown store driver %q (want %s, %s or %s)",
			cfg.StoreDriver, config.StoreDriverFS, config.StoreDriverRedis, config.StoreDriverMemory)
	}
}
