package service

import (
	"context"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/application/port"
	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
)

// Logger is the minimal logging dependency services take
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// ActivityService records and queries the audit trail
type ActivityService interface {
	// Record appends an entry. Recording failures are swallowed and reported
	// to the operational log only; the triggering action must still succeed.
	Record(ctx context.Context, e *entity.ActivityLog)

	// WeeklyLogs returns entries for the current Monday-to-Sunday week
	WeeklyLogs(ctx context.Context, now time.Time) ([]*entity.ActivityLogView, error)

	// LogsInRange returns entries within the closed interval [start, end]
	LogsInRange(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error)

	// RecentLogs returns the most recent limit entries
	RecentLogs(ctx context.Context, limit int) ([]*entity.ActivityLogView, error)
}

type activityServiceImpl struct {
	logRepo port.ActivityLogRepository
	logger  Logger
}

// NewActivityService creates a new ActivityService
func NewActivityService(logRepo port.ActivityLogRepository, logger Logger) ActivityService {
	return &activityServiceImpl{logRepo: logRepo, logger: logger}
}

func (s *activityServiceImpl) Record(ctx context.Context, e *entity.ActivityLog) {
	if err := s.logRepo.Create(ctx, e); err != nil {
		// Logging must never break the action that triggered it
		s.logger.Error("Failed to record activity",
			"error", err,
			"action", e.Action,
			"user_id", e.UserID,
		)
	}
}

func (s *activityServiceImpl) WeeklyLogs(ctx context.Context, now time.Time) ([]*entity.ActivityLogView, error) {
	start, end := weekBounds(now)
	return s.LogsInRange(ctx, start, end)
}

func (s *activityServiceImpl) LogsInRange(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error) {
	logs, err := s.logRepo.ListRange(ctx, start, end)
	if err != nil {
		s.logger.Error("Failed to fetch logs", "error", err, "start", start, "end", end)
		return nil, err
	}
	return logs, nil
}

func (s *activityServiceImpl) RecentLogs(ctx context.Context, limit int) ([]*entity.ActivityLogView, error) {
	if limit <= 0 {
		limit = 100
	}
	logs, err := s.logRepo.ListRecent(ctx, limit)
	if err != nil {
		s.logger.Error("Failed to fetch recent logs", "error", err, "limit", limit)
		return nil, err
	}
	return logs, nil
}

// weekBounds returns the Monday 00:00:00 and Sunday 23:59:59.999999999
// bounds of the week containing now.
func weekBounds(now time.Time) (time.Time, time.Time) {
	weekday := int(now.Weekday())
	if weekday == 0 {
		weekday = 7 // Sunday counts as the end of the week
	}
	year, month, day := now.AddDate(0, 0, 1-weekday).Date()
	start := time.Date(year, month, day, 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 7).Add(-time.Nanosecond)
	return start, end
}
