package generator

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
)

// TemplatePersister is the storage collaborator the service needs.
type TemplatePersister interface {
	MarkActive(ctx context.Context, id string, rulesJSON json.RawMessage) error
	MarkFailed(ctx context.Context, id string, message string) error
}

// Service runs the pipeline for a pre-created template and records the
// outcome: active with the rules payload on success, failed with the
// error message otherwise.
type Service struct {
	pipeline *Pipeline
	repo     TemplatePersister
	logger   zerolog.Logger
}

// NewService wires a generation service.
func NewService(pipeline *Pipeline, repo TemplatePersister, logger zerolog.Logger) *Service {
	return &Service{
		pipeline: pipeline,
		repo:     repo,
		logger:   logger.With().Str("component", "GenerationService").Logger(),
	}
}

// Generate runs the pipeline for template id and persists the outcome.
// A cancelled run never persists an active template: the status write for
// a failure uses a detached context so the failure is still recorded.
func (s *Service) Generate(ctx context.Context, templateID string, req Request) error {
	started := time.Now()
	logger := s.logger.With().Str("template_id", templateID).Logger()

	payload, err := s.pipeline.Run(ctx, req)
	if err != nil {
		logger.Error().Err(err).Bool("retryable", IsRetryable(err)).
			Dur("elapsed", time.Since(started)).Msg("generation failed")

		writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if markErr := s.repo.MarkFailed(writeCtx, templateID, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Msg("failed to record generation failure")
		}
		return err
	}

	if err := s.repo.MarkActive(ctx, templateID, payload); err != nil {
		logger.Error().Err(err).Msg("failed to persist generated rules")
		return err
	}

	logger.Info().Dur("elapsed", time.Since(started)).Int("payload_bytes", len(payload)).
		Msg("template generated")
	return nil
}
