package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestNextTickAligned(t *testing.T) {
	s := New(Options{Interval: time.Hour, AlignToStart: true}, zerolog.Nop())
	now := time.Date(2026, 2, 20, 10, 15, 0, 0, time.UTC)

	if got := s.nextTick(now); !got.Equal(time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected next tick %s", got)
	}
	onBoundary := time.Date(2026, 2, 20, 11, 0, 0, 0, time.UTC)
	if got := s.nextTick(onBoundary); !got.Equal(onBoundary.Add(time.Hour)) {
		t.Fatalf("boundary should roll to the next bucket, got %s", got)
	}
	if got := s.bucketStart(now); !got.Equal(time.Date(2026, 2, 20, 10, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected bucket start %s", got)
	}
}

func TestRunFiresAndStops(t *testing.T) {
	s := New(Options{Interval: 5 * time.Millisecond, RunImmediately: true}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ticks int32
	err := s.Run(ctx, func(ctx context.Context, bucket time.Time) error {
		if atomic.AddInt32(&ticks, 1) == 3 {
			cancel()
		}
		return errors.New("tick errors are logged, not fatal")
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if atomic.LoadInt32(&ticks) != 3 {
		t.Fatalf("expected 3 ticks, got %d", ticks)
	}
}

func TestRunSkipsFilteredDays(t *testing.T) {
	s := New(Options{
		Interval:       5 * time.Millisecond,
		RunImmediately: true,
		Days:           func(time.Time) bool { return false },
	}, zerolog.Nop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	var ticks int32
	_ = s.Run(ctx, func(context.Context, time.Time) error {
		atomic.AddInt32(&ticks, 1)
		return nil
	})
	if ticks != 0 {
		t.Fatalf("filtered days should not tick, got %d", ticks)
	}
}

func TestWeekdays(t *testing.T) {
	saturday := time.Date(2026, 2, 21, 12, 0, 0, 0, time.UTC)
	if Weekdays(saturday) || !Weekdays(saturday.AddDate(0, 0, 2)) {
		t.Fatal("weekday filter misclassified")
	}
}

func TestBusinessDaysEmptyMIC(t *testing.T) {
	filter, err := BusinessDays("")
	if err != nil || filter != nil {
		t.Fatalf("empty mic should disable filtering, got %v %v", filter != nil, err)
	}
}
