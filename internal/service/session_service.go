package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/Spectrumgrid/grade-pilot/internal/report"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
)

// SessionService serves the stored artifacts of graded sessions.
type SessionService struct {
	repo repository.ArtifactRepository
	log  zerolog.Logger
}

func NewSessionService(repo repository.ArtifactRepository, log zerolog.Logger) *SessionService {
	return &SessionService{
		repo: repo,
		log:  log.With().Str("component", "session_service").Logger(),
	}
}

func (s *SessionService) load(ctx context.Context, id string) (*model.ArtifactBundle, error) {
	b, err := s.repo.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, repository.ErrSessionNotFound) {
			s.log.Error().Err(err).Str("session_id", id).Msg("Failed to load session")
		}
		return nil, err
	}
	return b, nil
}

func (s *SessionService) Preview(ctx context.Context, id string) ([]model.StudentPreview, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if b.Preview == nil {
		return []model.StudentPreview{}, nil
	}
	return b.Preview, nil
}

func (s *SessionService) Metrics(ctx context.Context, id string) (*model.MetricsReport, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return &b.Metrics, nil
}

// Workbook returns the graded spreadsheet bytes.
func (s *SessionService) Workbook(ctx context.Context, id string) ([]byte, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return b.Workbook, nil
}

// ExportReport renders the PDF report of a session. Sessions without
// student rows return report.ErrNothingToExport.
func (s *SessionService) ExportReport(ctx context.Context, id string) ([]byte, error) {
	b, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	pdf, err := report.Render(b.Preview, b.Metrics)
	if err != nil {
		if !errors.Is(err, report.ErrNothingToExport) {
			s.log.Error().Err(err).Str("session_id", id).Msg("Failed to render report")
		}
		return nil, err
	}
	s.log.Info().Str("session_id", id).Int("bytes", len(pdf)).Msg("Report exported")
	return pdf, nil
}
