package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/rs/zerolog"
)

// FSArtifactRepository keeps one directory per session under a base
// directory. The directory modification time is the session creation time.
type FSArtifactRepository struct {
	dir string
	log zerolog.Logger
	now func() time.Time
	// remove deletes a session directory during sweeps.
	remove func(path string) error
}

// NewFSArtifactRepository creates the base directory if needed.
func NewFSArtifactRepository(dir string, log zerolog.Logger) (*FSArtifactRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create sessions dir: %w", err)
	}
	return &FSArtifactRepository{
		dir:    dir,
		log:    log.With().Str("component", "fs_artifact_repository").Logger(),
		now:    time.Now,
		remove: os.RemoveAll,
	}, nil
}

func (r *FSArtifactRepository) Put(_ context.Context, id string, b *model.ArtifactBundle) error {
	preview, err := json.Marshal(b.Preview)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	metrics, err := json.Marshal(b.Metrics)
	if err != nil {
		return fmt.Errorf("encode metrics: %w", err)
	}

	dir := filepath.Join(r.dir, id)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if errors.Is(err, fs.ErrExist) {
			return ErrSessionExists
		}
		return fmt.Errorf("create session dir: %w", err)
	}

	files := []struct {
		name string
		data []byte
	}{
		{previewFile, preview},
		{metricsFile, metrics},
		{workbookFile, b.Workbook},
	}
	for _, f := range files {
		if err := os.WriteFile(filepath.Join(dir, f.name), f.data, 0o644); err != nil {
			// A half-written session must not be readable.
			_ = os.RemoveAll(dir)
			return fmt.Errorf("write %s: %w", f.name, err)
		}
	}
	return nil
}

func (r *FSArtifactRepository) Get(_ context.Context, id string) (*model.ArtifactBundle, error) {
	dir := filepath.Join(r.dir, id)
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("stat session: %w", err)
	}

	read := func(name string) ([]byte, error) {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrSessionNotFound
		}
		return data, err
	}

	b := &model.ArtifactBundle{CreatedAt: info.ModTime()}
	raw, err := read(previewFile)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &b.Preview); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	if raw, err = read(metricsFile); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(raw, &b.Metrics); err != nil {
		return nil, fmt.Errorf("decode metrics: %w", err)
	}
	if b.Workbook, err = read(workbookFile); err != nil {
		return nil, err
	}
	return b, nil
}

func (r *FSArtifactRepository) SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return 0, fmt.Errorf("list sessions: %w", err)
	}

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return removed, err
		}
		if !e.IsDir() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			r.log.Warn().Err(err).Str("session_id", e.Name()).Msg("Skipping unreadable session")
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		if err := r.remove(filepath.Join(r.dir, e.Name())); err != nil {
			r.log.Warn().Err(err).Str("session_id", e.Name()).Msg("Failed to delete expired session")
			continue
		}
		removed++
	}
	return removed, nil
}
