package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uttree-health/platform/pkg/clinical"
	"github.com/uttree-health/platform/pkg/common/kafka"
	"github.com/uttree-health/platform/pkg/common/logger"
	"gorm.io/datatypes"
)

type Service struct {
	validator *Validator
	repo      *Repository
	clinical  *clinical.Repository
	producer  *kafka.Producer
	dlq       *kafka.Producer
	statusTTL time.Duration
}

func NewService(validator *Validator, repo *Repository, clinicalRepo *clinical.Repository, producer *kafka.Producer, dlq *kafka.Producer, ttl time.Duration) *Service {
	return &Service{
		validator: validator,
		repo:      repo,
		clinical:  clinicalRepo,
		producer:  producer,
		dlq:       dlq,
		statusTTL: ttl,
	}
}

// Process validates a batch, lands its source rows, and announces the
// admission to the pipeline.
func (s *Service) Process(ctx context.Context, req BatchRequest) (*BatchResponse, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	id := uuid.New().String()
	record := &Record{
		ID:          id,
		Source:      req.Source,
		AdmissionID: req.AdmissionID,
		SubjectID:   req.SubjectID,
		Counts: datatypes.JSONMap{
			"prescriptions": len(req.Prescriptions),
			"labs":          len(req.Labs),
			"concepts":      len(req.Concepts),
		},
		Status: StatusAccepted,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("persisting ingest batch: %w", err)
	}

	if err := s.clinical.SaveBatch(ctx, req.Prescriptions, req.Labs, req.Concepts); err != nil {
		_ = s.repo.UpdateStatus(ctx, id, StatusFailed, err.Error())
		return nil, fmt.Errorf("persisting source records: %w", err)
	}

	payload := map[string]interface{}{
		"ingest_id":    id,
		"admission_id": req.AdmissionID,
		"subject_id":   req.SubjectID,
		"source":       req.Source,
		"received_at":  time.Now().UTC(),
	}

	sendErr := s.producer.PublishEvent(ctx, "admission-ready", req.Source, payload)
	if sendErr != nil {
		logger.Log.WithError(sendErr).Error("failed to publish admission-ready event")
		_ = s.repo.UpdateStatus(ctx, id, StatusFailed, sendErr.Error())
		if s.dlq != nil {
			if dlqErr := s.dlq.PublishEvent(ctx, "admission-ready", req.Source, payload); dlqErr != nil {
				logger.Log.WithError(dlqErr).Error("failed to push event to DLQ")
			}
		}
		return nil, fmt.Errorf("publishing event: %w", sendErr)
	}

	_ = s.repo.UpdateStatus(ctx, id, StatusPublished, "")

	return &BatchResponse{
		ID:          id,
		AdmissionID: req.AdmissionID,
		Status:      StatusPublished,
		Timestamp:   time.Now().UTC(),
	}, nil
}

func (s *Service) Status(ctx context.Context, id string) (*Record, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Cleanup(ctx context.Context) error {
	return s.repo.CleanupExpired(ctx, s.statusTTL)
}
