package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/ports"
)

func TestUserLockerBlocksSameUserOnly(t *testing.T) {
	locker := NewUserLocker()
	release, err := locker.LockUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("lock: %v", err)
	}

	other, err := locker.LockUser(context.Background(), "user-2")
	if err != nil {
		t.Fatalf("other user must not wait: %v", err)
	}
	other()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := locker.LockUser(ctx, "user-1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline while held, got %v", err)
	}

	release()
	release()
	again, err := locker.LockUser(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("lock after release: %v", err)
	}
	again()
}

func TestApplyCommitChecksVersion(t *testing.T) {
	store := NewStore()
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	mutation := ports.LedgerMutation{
		Progression: entities.UserProgression{UserID: "user-1", TotalPowerPoints: 10, CurrentTier: entities.TierBase, Version: 1},
		DayLog:      entities.DayLog{UserID: "user-1", Date: day, HabitPoints: 10, DailyPoints: 10},
		Snapshot:    entities.PowerSnapshot{UserID: "user-1", Date: day, TotalPowerPoints: 10, Tier: entities.TierBase},
	}
	if err := store.ApplyCommit(context.Background(), mutation); err != nil {
		t.Fatalf("first commit: %v", err)
	}
	if err := store.ApplyCommit(context.Background(), mutation); !errors.Is(err, domainerrors.ErrConcurrentUpdate) {
		t.Fatalf("stale version must be rejected, got %v", err)
	}

	mutation.ExpectedVersion = 1
	mutation.Progression.Version = 2
	mutation.Progression.TotalPowerPoints = 20
	if err := store.ApplyCommit(context.Background(), mutation); err != nil {
		t.Fatalf("second commit: %v", err)
	}
	progression, _, _ := store.GetProgression(context.Background(), "user-1")
	if progression.TotalPowerPoints != 20 || progression.Version != 2 {
		t.Fatalf("unexpected progression %+v", progression)
	}
}

func TestMarkOutboxPublishedUnknownID(t *testing.T) {
	store := NewStore()
	if err := store.MarkOutboxPublished(context.Background(), "missing", time.Now()); !errors.Is(err, domainerrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}
