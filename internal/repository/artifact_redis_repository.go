package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisArtifactRepository stores each session as four keys plus a member of
// the creation-time index. Keys expire after the retention period on their
// own; the index is trimmed by SweepOlderThan.
type RedisArtifactRepository struct {
	rdb *redis.Client
	ttl time.Duration
	log zerolog.Logger
	now func() time.Time
}

// NewRedisArtifactRepository creates a repository whose keys expire after
// ttl. A zero ttl keeps keys until they are swept.
func NewRedisArtifactRepository(rdb *redis.Client, ttl time.Duration, log zerolog.Logger) *RedisArtifactRepository {
	return &RedisArtifactRepository{
		rdb: rdb,
		ttl: ttl,
		log: log.With().Str("component", "redis_artifact_repository").Logger(),
		now: time.Now,
	}
}

func (r *RedisArtifactRepository) Put(ctx context.Context, id string, b *model.ArtifactBundle) error {
	preview, err := json.Marshal(b.Preview)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	metrics, err := json.Marshal(b.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	created := r.now()
	createdKey := config.StoreKey.SessionCreatedKey(id)
	ok, err := r.rdb.SetNX(ctx, createdKey, created.Unix(), r.ttl).Result()
	if err != nil {
		return fmt.Errorf("claim session: %w", err)
	}
	if !ok {
		return ErrSessionExists
	}

	_, err = r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, config.StoreKey.SessionPreviewKey(id), preview, r.ttl)
		pipe.Set(ctx, config.StoreKey.SessionMetricsKey(id), metrics, r.ttl)
		pipe.Set(ctx, config.StoreKey.SessionWorkbookKey(id), b.Workbook, r.ttl)
		pipe.ZAdd(ctx, config.StoreKey.SessionIndexKey(), redis.Z{Score: float64(created.Unix()), Member: id})
		return nil
	})
	if err != nil {
		// Release the claim so a failed write never leaves a readable stub.
		r.rdb.Del(context.WithoutCancel(ctx), createdKey)
		return fmt.Errorf("store session: %w", err)
	}
	return nil
}

func (r *RedisArtifactRepository) Get(ctx context.Context, id string) (*model.ArtifactBundle, error) {
	pipe := r.rdb.Pipeline()
	createdCmd := pipe.Get(ctx, config.StoreKey.SessionCreatedKey(id))
	previewCmd := pipe.Get(ctx, config.StoreKey.SessionPreviewKey(id))
	metricsCmd := pipe.Get(ctx, config.StoreKey.SessionMetricsKey(id))
	workbookCmd := pipe.Get(ctx, config.StoreKey.SessionWorkbookKey(id))
	if _, err := pipe.Exec(ctx); err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("load session: %w", err)
	}

	b := &model.ArtifactBundle{}
	unix, err := createdCmd.Int64()
	if err != nil {
		return nil, fmt.Errorf("decode created: %w", err)
	}
	b.CreatedAt = time.Unix(unix, 0)

	raw, _ := previewCmd.Bytes()
	if err := json.Unmarshal(raw, &b.Preview); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	raw, _ = metricsCmd.Bytes()
	if err := json.Unmarshal(raw, &b.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	b.Workbook, _ = workbookCmd.Bytes()
	return b, nil
}

func (r *RedisArtifactRepository) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	cutoff := r.now().Add(-maxAge).Unix()
	ids, err := r.rdb.ZRangeByScore(ctx, config.StoreKey.SessionIndexKey(), &redis.ZRangeBy{
		Min: "-inf",
		Max: "(" + strconv.FormatInt(cutoff, 10),
	}).Result()
	if err != nil {
		return 0, fmt.Errorf("list expired sessions: %w", err)
	}

	removed := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		_, err := r.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, config.StoreKey.SessionKeys(id)...)
			pipe.ZRem(ctx, config.StoreKey.SessionIndexKey(), id)
			return nil
		})
		if err != nil {
			r.log.Warn().Err(err).Str("session_id", id).Msg("Failed to delete expired session")
			continue
		}
		removed++
	}
	return removed, nil
}
