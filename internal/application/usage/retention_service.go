package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/BoweryJG/osbackend-sub001/internal/domain/telephony"
	"go.uber.org/zap"
)

// RetentionService purges raw usage records past the retention window.
// Aggregated figures live on in invoice usage summaries, so the raw
// rows are only needed for per-record lookups and disputes.
type RetentionService struct {
	recordRepo    telephony.UsageRecordRepository
	retentionDays int
	logger        *zap.Logger
}

// NewRetentionService creates a retention service. A non-positive
// retentionDays disables purging.
func NewRetentionService(recordRepo telephony.UsageRecordRepository, retentionDays int, logger *zap.Logger) *RetentionService {
	return &RetentionService{
		recordRepo:    recordRepo,
		retentionDays: retentionDays,
		logger:        logger,
	}
}

// PurgeExpired deletes usage records older than the retention window
// and returns how many were removed
func (s *RetentionService) PurgeExpired(ctx context.Context) (int64, error) {
	if s.retentionDays <= 0 {
		return 0, nil
	}

	cutoff := time.Now().AddDate(0, 0, -s.retentionDays)
	deleted, err := s.recordRepo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge expired usage records: %w", err)
	}

	if deleted > 0 {
		s.logger.Info("purged expired usage records",
			zap.Int64("deleted", deleted),
			zap.Time("cutoff", cutoff))
	}
	return deleted, nil
}
