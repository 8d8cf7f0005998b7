package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Spectrumgrid/grade-pilot/internal/config"
	"github.com/Spectrumgrid/grade-pilot/internal/grading"
	"github.com/Spectrumgrid/grade-pilot/internal/model"
	"github.com/Spectrumgrid/grade-pilot/internal/repository"
	"github.com/Spectrumgrid/grade-pilot/internal/spreadsheet"
)

// GradingService runs the upload pipeline: parse, validate, score,
// aggregate, build the graded workbook and persist the session.
type GradingService struct {
	cfg     *config.Config
	grading grading.Config
	repo    repository.ArtifactRepository
	log     zerolog.Logger
	newID   func() string
}

// NewGradingService creates a new GradingService.
func NewGradingService(cfg *config.Config, repo repository.ArtifactRepository, log zerolog.Logger) *GradingService {
	return &GradingService{
		cfg: cfg,
		grading: grading.Config{
			Alphabet: grading.Alphabet(cfg.Grading.OptionAlphabet),
			PassMark: cfg.Grading.PassMark,
		},
		repo:  repo,
		log:   log.With().Str("component", "grading_service").Logger(),
		newID: uuid.NewString,
	}
}

// Grade grades an uploaded answer sheet and stores its artifacts under a
// fresh session id. Nothing is stored when the sheet is rejected.
func (s *GradingService) Grade(ctx context.Context, up Upload, shape grading.Shape) (*model.GradeSummary, error) {
	s.log.Info().
		Str("filename", up.Filename).
		Int("questions", shape.Questions).
		Int("options", shape.Options).
		Msg("Grading answer sheet")

	sheet, err := s.load(up, shape)
	if err != nil {
		return nil, err
	}

	graded, err := grading.GradeSheet(sheet, shape, s.grading)
	if err != nil {
		s.reject(up, shape, err)
		return nil, err
	}

	previews := graded.Previews()
	workbook, err := spreadsheet.Build(sheet, previews, graded.Metrics)
	if err != nil {
		s.log.Error().Err(err).Str("filename", up.Filename).Msg("Failed to build graded workbook")
		return nil, fmt.Errorf("build workbook: %w", err)
	}

	id := s.newID()
	bundle := &model.ArtifactBundle{
		Preview:  previews,
		Metrics:  graded.Metrics,
		Workbook: workbook,
	}
	if err := s.repo.Put(ctx, id, bundle); err != nil {
		s.log.Error().Err(err).Str("session_id", id).Msg("Failed to store session artifacts")
		return nil, fmt.Errorf("store session: %w", err)
	}

	s.log.Info().
		Str("session_id", id).
		Str("filename", up.Filename).
		Int("students", graded.Metrics.TotalStudents).
		Float64("mean_score", graded.Metrics.MeanScore).
		Msg("Answer sheet graded")

	return &model.GradeSummary{
		SessionID: id,
		Filename:  up.Filename,
		Metrics:   graded.Metrics.ClassMetrics,
	}, nil
}

// Validate checks an uploaded answer sheet without grading or storing it.
func (s *GradingService) Validate(_ context.Context, up Upload, shape grading.Shape) (*model.ValidationSummary, error) {
	s.log.Info().
		Str("filename", up.Filename).
		Int("questions", shape.Questions).
		Int("options", shape.Options).
		Msg("Validating answer sheet")

	sheet, err := s.load(up, shape)
	if err != nil {
		return nil, err
	}
	if err := grading.Validate(sheet, shape, s.grading); err != nil {
		s.reject(up, shape, err)
		return nil, err
	}

	return &model.ValidationSummary{
		Filename:      up.Filename,
		QuestionCount: shape.Questions,
		OptionCount:   shape.Options,
		Students:      sheet.StudentCount(),
		Message:       "The file is valid and can be graded",
	}, nil
}

// load runs the upload checks and parses the workbook.
func (s *GradingService) load(up Upload, shape grading.Shape) (*model.Sheet, error) {
	if err := s.checkUpload(up, shape); err != nil {
		s.reject(up, shape, err)
		return nil, err
	}
	sheet, err := spreadsheet.Read(up.Body)
	if err != nil {
		s.log.Warn().Err(err).Str("filename", up.Filename).Msg("Unreadable spreadsheet")
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpreadsheet, err)
	}
	return sheet, nil
}

func (s *GradingService) reject(up Upload, shape grading.Shape, err error) {
	ev := s.log.Warn().
		Str("filename", up.Filename).
		Str("shape", shape.String())
	var ve *grading.ValidationError
	if errors.As(err, &ve) {
		ev = ev.Str("rule", string(ve.Rule))
	}
	ev.Msg(err.Error())
}
