package repository

import (
	"context"
	"errors"
	"time"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// Sentinel errors shared by every artifact repository.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExists   = errors.New("session already exists")
)

// ArtifactRepository stores the artifact bundle of each grading session.
// A session id is written at most once and read many times; old sessions
// are evicted by SweepOlderThan.
type ArtifactRepository interface {
	// Put stores the bundle under id. It returns ErrSessionExists when id
	// was already written.
	Put(ctx context.Context, id string, bundle *model.ArtifactBundle) error
	// Get returns the bundle stored under id, or ErrSessionNotFound when any
	// part of it is missing.
	Get(ctx context.Context, id string) (*model.ArtifactBundle, error)
	// SweepOlderThan deletes every session created more than maxAge ago and
	// returns how many were removed. Failures on single sessions are logged
	// and skipped.
	SweepOlderThan(ctx context.Context, maxAge time.Duration) (int, error)
}

// Artifact file names inside a session directory.
const (
	previewFile  = "preview.json"
	metricsFile  = "metrics.json"
	workbookFile = "graded.xlsx"
)
