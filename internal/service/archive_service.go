package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"chargeamps/internal/models"
)

// ErrArchiveDisabled is returned when no database is configured.
var ErrArchiveDisabled = errors.New("archive: database not configured")

// SessionSource fetches charging sessions from the API.
type SessionSource interface {
	ListSessions(ctx context.Context, chargePointID string) ([]models.ChargingSession, error)
}

// SessionRepository defines storage contract used by the service.
type SessionRepository interface {
	EnsureSchema(ctx context.Context) error
	Upsert(ctx context.Context, sessions []models.ChargingSession) (int, error)
	ListByChargePoint(ctx context.Context, chargePointID string, limit int) ([]models.ChargingSession, error)
}

// ArchiveService copies session history from the API into the local archive.
type ArchiveService struct {
	source SessionSource
	repo   SessionRepository
	logger *zap.Logger
}

// NewArchiveService builds ArchiveService. A nil repo disables archiving.
func NewArchiveService(source SessionSource, repo SessionRepository, logger *zap.Logger) *ArchiveService {
	return &ArchiveService{source: source, repo: repo, logger: logger}
}

// Archive fetches every session of the charge point and upserts it. It
// returns the number of sessions written.
func (s *ArchiveService) Archive(ctx context.Context, chargePointID string) (int, error) {
	if s.repo == nil {
		return 0, ErrArchiveDisabled
	}
	sessions, err := s.source.ListSessions(ctx, chargePointID)
	if err != nil {
		return 0, err
	}
	if err := s.repo.EnsureSchema(ctx); err != nil {
		return 0, err
	}
	n, err := s.repo.Upsert(ctx, sessions)
	if err != nil {
		return 0, err
	}
	s.logger.Info("sessions archived", zap.String("charge_point_id", chargePointID), zap.Int("count", n))
	return n, nil
}

// History returns archived sessions, newest first.
func (s *ArchiveService) History(ctx context.Context, chargePointID string, limit int) ([]models.ChargingSession, error) {
	if s.repo == nil {
		return nil, ErrArchiveDisabled
	}
	return s.repo.ListByChargePoint(ctx, chargePointID, limit)
}
