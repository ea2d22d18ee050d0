package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Sadiqmanga/voucher-system/internal/domain/entity"
)

func TestActivityService_RecordSwallowsFailure(t *testing.T) {
	logRepo := &mockLogRepo{
		createFunc: func(ctx context.Context, e *entity.ActivityLog) error {
			return errors.New("disk full")
		},
	}
	svc := NewActivityService(logRepo, &mockLogger{})

	// Must not panic or surface the error in any way
	svc.Record(context.Background(), &entity.ActivityLog{
		UserID: 1,
		Action: "voucher_created",
	})
}

func TestActivityService_RecentLogsDefaultLimit(t *testing.T) {
	var gotLimit int
	logRepo := &mockLogRepo{
		listRecentFunc: func(ctx context.Context, limit int) ([]*entity.ActivityLogView, error) {
			gotLimit = limit
			return []*entity.ActivityLogView{}, nil
		},
	}
	svc := NewActivityService(logRepo, &mockLogger{})

	if _, err := svc.RecentLogs(context.Background(), 0); err != nil {
		t.Fatalf("RecentLogs() error = %v", err)
	}
	if gotLimit != 100 {
		t.Errorf("default limit = %d, want 100", gotLimit)
	}

	if _, err := svc.RecentLogs(context.Background(), 25); err != nil {
		t.Fatalf("RecentLogs() error = %v", err)
	}
	if gotLimit != 25 {
		t.Errorf("limit = %d, want 25", gotLimit)
	}
}

func TestWeekBounds(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name      string
		now       time.Time
		wantStart time.Time
	}{
		{
			name:      "midweek",
			now:       time.Date(2025, 6, 11, 15, 30, 0, 0, loc), // Wednesday
			wantStart: time.Date(2025, 6, 9, 0, 0, 0, 0, loc),
		},
		{
			name:      "monday is its own week start",
			now:       time.Date(2025, 6, 9, 0, 0, 1, 0, loc),
			wantStart: time.Date(2025, 6, 9, 0, 0, 0, 0, loc),
		},
		{
			name:      "sunday belongs to the preceding monday",
			now:       time.Date(2025, 6, 15, 23, 0, 0, 0, loc),
			wantStart: time.Date(2025, 6, 9, 0, 0, 0, 0, loc),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			start, end := weekBounds(tt.now)
			if !start.Equal(tt.wantStart) {
				t.Errorf("start = %v, want %v", start, tt.wantStart)
			}
			wantEnd := tt.wantStart.AddDate(0, 0, 7).Add(-time.Nanosecond)
			if !end.Equal(wantEnd) {
				t.Errorf("end = %v, want %v", end, wantEnd)
			}
			if !tt.now.After(start) && !tt.now.Equal(start) {
				t.Errorf("now %v falls before the week start %v", tt.now, start)
			}
			if tt.now.After(end) {
				t.Errorf("now %v falls after the week end %v", tt.now, end)
			}
		})
	}
}

func TestActivityService_WeeklyLogsUsesWeekBounds(t *testing.T) {
	var gotStart, gotEnd time.Time
	logRepo := &mockLogRepo{
		listRangeFunc: func(ctx context.Context, start, end time.Time) ([]*entity.ActivityLogView, error) {
			gotStart, gotEnd = start, end
			return []*entity.ActivityLogView{}, nil
		},
	}
	svc := NewActivityService(logRepo, &mockLogger{})

	now := time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC)
	if _, err := svc.WeeklyLogs(context.Background(), now); err != nil {
		t.Fatalf("WeeklyLogs() error = %v", err)
	}

	wantStart, wantEnd := weekBounds(now)
	if !gotStart.Equal(wantStart) || !gotEnd.Equal(wantEnd) {
		t.Errorf("range = [%v, %v], want [%v, %v]", gotStart, gotEnd, wantStart, wantEnd)
	}
}
