package workers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"powertrack/contexts/progression/power-engine/adapters/memory"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/application/queries"
	"powertrack/contexts/progression/power-engine/application/workers"
	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type recordingPublisher struct {
	topics []string
	events []ports.EventEnvelope
	failAt int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, event ports.EventEnvelope) error {
	if p.failAt > 0 && len(p.events)+1 == p.failAt {
		return errors.New("broker unavailable")
	}
	p.topics = append(p.topics, topic)
	p.events = append(p.events, event)
	return nil
}

func newLedger(store *memory.Store) commands.LedgerUseCase {
	return commands.LedgerUseCase{
		Catalog: store,
		Ledger:  store,
		Locker:  memory.NewUserLocker(),
		Clock:   store,
		IDGen:   store,
		Policy:  services.DefaultPolicy(),
		Ladder:  services.DefaultLadder(),
		Logger:  discard,
	}
}

func seedTransformation(t *testing.T, store *memory.Store) {
	t.Helper()
	store.SetNow(time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC))
	store.SeedTask(entities.Task{TaskID: "task-big", UserID: "user-1", BasePoints: 600})
	if _, err := newLedger(store).CompleteTask(context.Background(), commands.CompleteTaskCommand{
		UserID:       "user-1",
		TaskID:       "task-big",
		CompletionID: "c-1",
	}); err != nil {
		t.Fatalf("complete task: %v", err)
	}
}

func TestOutboxRelayPublishesInOrderAndMarks(t *testing.T) {
	store := memory.NewStore()
	seedTransformation(t, store)
	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, Logger: discard}

	published, err := relay.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 published, got %d", published)
	}
	if publisher.topics[0] != commands.EventPointsAwarded || publisher.topics[1] != commands.EventTransformationUnlocked {
		t.Fatalf("unexpected topics %v", publisher.topics)
	}
	if publisher.events[1].PartitionKey != "user-1" {
		t.Fatalf("expected partition by user, got %q", publisher.events[1].PartitionKey)
	}

	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 0 {
		t.Fatalf("expected empty outbox, got %d", len(pending))
	}
	again, err := relay.RunOnce(context.Background())
	if err != nil || again != 0 {
		t.Fatalf("second run should be a no-op, got %d (%v)", again, err)
	}
}

func TestOutboxRelayStopsAtFirstFailure(t *testing.T) {
	store := memory.NewStore()
	seedTransformation(t, store)
	publisher := &recordingPublisher{failAt: 2}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store, BatchSize: 10, Logger: discard}

	published, err := relay.RunOnce(context.Background())
	if err == nil {
		t.Fatal("expected publish failure")
	}
	if published != 1 {
		t.Fatalf("expected 1 published before the failure, got %d", published)
	}
	pending, _ := store.ListPendingOutbox(context.Background(), 10)
	if len(pending) != 1 || pending[0].EventType != commands.EventTransformationUnlocked {
		t.Fatalf("failed row must stay pending, got %+v", pending)
	}

	publisher.failAt = 0
	if published, err := relay.RunOnce(context.Background()); err != nil || published != 1 {
		t.Fatalf("retry should publish the remaining row, got %d (%v)", published, err)
	}
}

func TestDayCloseoutGrantsMissedBonusAndVerifies(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2025, 3, 9, 21, 0, 0, 0, time.UTC))
	store.SeedHabit(entities.Habit{
		HabitID:    "habit-1",
		UserID:     "user-1",
		BasePoints: 40,
		Frequency:  entities.FrequencyDaily,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	store.SeedHabit(entities.Habit{
		HabitID:    "habit-2",
		UserID:     "user-1",
		BasePoints: 20,
		Frequency:  entities.FrequencyDaily,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})
	ledger := newLedger(store)
	ctx := context.Background()
	if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-1"}); err != nil {
		t.Fatalf("complete habit-1: %v", err)
	}
	// habit-2 is archived before the day ends; its completion is no longer
	// required for the consistency bonus.
	store.SeedHabit(entities.Habit{
		HabitID:    "habit-2",
		UserID:     "user-1",
		BasePoints: 20,
		Frequency:  entities.FrequencyDaily,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		Archived:   true,
	})

	store.SetNow(time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC))
	closeout := workers.DayCloseout{
		Users:  store,
		Ledger: ledger,
		Verifier: queries.VerifyLedgerUseCase{
			Ledger:          store,
			Clock:           store,
			Ladder:          services.DefaultLadder(),
			HaltOnViolation: true,
			Logger:          discard,
		},
		Clock:  store,
		Logger: discard,
	}

	summary, err := closeout.RunOnce(ctx)
	if err != nil {
		t.Fatalf("closeout: %v", err)
	}
	if summary.UsersScanned != 1 || summary.BonusesGranted != 1 || summary.Inconsistent != 0 || summary.Halted != 0 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	dayLog, _, _ := store.GetDayLog(ctx, "user-1", time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC))
	if dayLog.BonusPoints != 20 || dayLog.DailyPoints != 60 || !dayLog.ConsistencyBonusApplied {
		t.Fatalf("expected 20 point bonus on the 9th, got %+v", dayLog)
	}

	summary, err = closeout.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second closeout: %v", err)
	}
	if summary.BonusesGranted != 0 {
		t.Fatalf("bonus must not be granted twice, got %+v", summary)
	}
}

func TestDayCloseoutCountsHaltedUsers(t *testing.T) {
	store := memory.NewStore()
	store.SetNow(time.Date(2025, 3, 10, 0, 5, 0, 0, time.UTC))
	store.SeedProgression(entities.UserProgression{
		UserID:           "user-bad",
		TotalPowerPoints: 900,
		CurrentTier:      entities.TierBase,
		Version:          1,
	})
	ledger := newLedger(store)
	closeout := workers.DayCloseout{
		Users:  store,
		Ledger: ledger,
		Verifier: queries.VerifyLedgerUseCase{
			Ledger:          store,
			Clock:           store,
			Ladder:          services.DefaultLadder(),
			HaltOnViolation: true,
		},
		Clock: store,
	}

	summary, err := closeout.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("closeout: %v", err)
	}
	if summary.UsersScanned != 1 || summary.Halted != 1 {
		t.Fatalf("expected the corrupted user to be halted, got %+v", summary)
	}
	progression, _, _ := store.GetProgression(context.Background(), "user-bad")
	if !progression.Halted {
		t.Fatal("user must be halted")
	}
}
