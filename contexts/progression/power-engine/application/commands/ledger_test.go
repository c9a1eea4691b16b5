package commands_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"powertrack/contexts/progression/power-engine/adapters/memory"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

var monday = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func day(value string) time.Time {
	parsed, err := entities.ParseDay(value)
	if err != nil {
		panic(err)
	}
	return parsed
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
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newStore() *memory.Store {
	store := memory.NewStore()
	store.SetNow(monday)
	return store
}

func seedDailyHabit(store *memory.Store, habitID string, userID string, basePoints int64) {
	store.SeedHabit(entities.Habit{
		HabitID:    habitID,
		UserID:     userID,
		Name:       habitID,
		BasePoints: basePoints,
		Frequency:  entities.FrequencyDaily,
		StartDate:  day("2025-01-01"),
	})
}

func TestCompleteHabitAwardsBasePoints(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	ledger := newLedger(store)

	result, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{
		UserID:  "user-1",
		HabitID: "habit-a",
	})
	if err != nil {
		t.Fatalf("complete habit: %v", err)
	}
	if result.Result.PointsAwarded != 10 || result.Result.NewTotalPower != 10 {
		t.Fatalf("expected 10 points, got %+v", result.Result)
	}
	if result.Result.NewTransformation != nil {
		t.Fatalf("no transformation expected, got %+v", result.Result.NewTransformation)
	}
	if result.ConsistencyBonus != nil || result.Result.AllHabitsCompleted {
		t.Fatal("habit-b is still due, no bonus expected")
	}

	progression, found, _ := store.GetProgression(context.Background(), "user-1")
	if !found || progression.CurrentTier != entities.TierBase || progression.Version != 1 {
		t.Fatalf("unexpected progression %+v", progression)
	}
}

func TestCompleteTaskCrossesIntoFirstTier(t *testing.T) {
	store := newStore()
	store.SeedProgression(entities.UserProgression{
		UserID:           "user-1",
		TotalPowerPoints: 495,
		CurrentTier:      entities.TierBase,
		DailyMinimum:     100,
		Version:          1,
	})
	store.SeedTask(entities.Task{TaskID: "task-1", UserID: "user-1", Title: "Invoice", BasePoints: 10})
	ledger := newLedger(store)

	result, err := ledger.CompleteTask(context.Background(), commands.CompleteTaskCommand{
		UserID:       "user-1",
		TaskID:       "task-1",
		CompletionID: "completion-1",
	})
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	transformation := result.Result.NewTransformation
	if transformation == nil || transformation.NewTier != entities.Tier1 || transformation.NewTotalPoints != 505 {
		t.Fatalf("expected tier1 at 505, got %+v", transformation)
	}

	unlocks, err := store.ListTierUnlocks(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list unlocks: %v", err)
	}
	if len(unlocks) != 1 || unlocks[0].TierID != entities.Tier1 || unlocks[0].TotalAtUnlock != 505 {
		t.Fatalf("unexpected unlocks %+v", unlocks)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected points and transformation events, got %d", len(pending))
	}
	if pending[0].EventType != commands.EventPointsAwarded || pending[1].EventType != commands.EventTransformationUnlocked {
		t.Fatalf("unexpected event order %s, %s", pending[0].EventType, pending[1].EventType)
	}
}

func TestConsistencyBonusFiresWhenAllHabitsDone(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	ledger := newLedger(store)
	ctx := context.Background()

	first, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if err != nil {
		t.Fatalf("complete habit-a: %v", err)
	}
	if first.ConsistencyBonus != nil {
		t.Fatal("bonus must wait for habit-b")
	}

	second, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-b"})
	if err != nil {
		t.Fatalf("complete habit-b: %v", err)
	}
	if second.ConsistencyBonus == nil || second.ConsistencyBonus.PointsAwarded != 15 {
		t.Fatalf("expected 15 point bonus, got %+v", second.ConsistencyBonus)
	}

	dayLog, found, err := store.GetDayLog(ctx, "user-1", monday)
	if err != nil || !found {
		t.Fatalf("day log missing: %v", err)
	}
	if dayLog.DailyPoints != 45 || dayLog.HabitPoints != 30 || dayLog.BonusPoints != 15 {
		t.Fatalf("expected 45 = 30 + 15, got %+v", dayLog)
	}
	if !dayLog.ConsistencyBonusApplied || dayLog.HabitsDue != 2 || dayLog.HabitsCompleted != 2 {
		t.Fatalf("unexpected day log flags %+v", dayLog)
	}

	again, err := ledger.GrantConsistencyBonus(ctx, "user-1", monday)
	if err != nil {
		t.Fatalf("grant bonus again: %v", err)
	}
	if again != nil {
		t.Fatalf("bonus must apply once per day, got %+v", again)
	}
	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 45 {
		t.Fatalf("expected total 45, got %d", progression.TotalPowerPoints)
	}
}

func TestCompleteHabitTwiceReplaysFirstResult(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	ledger := newLedger(store)
	ctx := context.Background()

	first, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if err != nil {
		t.Fatalf("first completion: %v", err)
	}
	second, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a", Date: monday})
	if err != nil {
		t.Fatalf("second completion: %v", err)
	}
	if !second.Replayed {
		t.Fatal("expected replay")
	}
	if second.Result.PointsAwarded != first.Result.PointsAwarded ||
		second.Result.NewTotalPower != first.Result.NewTotalPower ||
		!second.Result.CommittedAt.Equal(first.Result.CommittedAt) {
		t.Fatalf("replay differs: %+v vs %+v", second.Result, first.Result)
	}

	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 10 || progression.Version != 1 {
		t.Fatalf("ledger must change once, got %+v", progression)
	}
}

func TestOffDayKeepsStreakAlive(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 100)
	ledger := newLedger(store)
	ctx := context.Background()

	var last commands.HabitCompletionResult
	for i := 1; i <= 6; i++ {
		store.SetNow(time.Date(2025, 3, i, 18, 0, 0, 0, time.UTC))
		if i == 5 {
			if _, err := ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{
				UserID: "user-1",
				Reason: entities.OffDayReasonSick,
			}); err != nil {
				t.Fatalf("mark off-day: %v", err)
			}
			continue
		}
		result, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
		if err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		last = result
	}

	if last.Result.CurrentStreak != 6 {
		t.Fatalf("expected streak of 6 after day 6, got %d", last.Result.CurrentStreak)
	}
	if last.Result.HabitStreak != 6 {
		t.Fatalf("expected habit streak of 6 across the off-day, got %d", last.Result.HabitStreak)
	}
	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.CurrentStreak != 6 || progression.BestStreak != 6 {
		t.Fatalf("unexpected stored streaks %+v", progression)
	}
}

func TestStreakBonusAppliesFromThirdDay(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 100)
	ledger := newLedger(store)
	ctx := context.Background()

	var awards []int64
	for i := 1; i <= 3; i++ {
		store.SetNow(time.Date(2025, 3, i, 8, 0, 0, 0, time.UTC))
		result, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
		if err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
		awards = append(awards, result.Result.PointsAwarded)
	}
	if awards[0] != 100 || awards[1] != 100 || awards[2] != 110 {
		t.Fatalf("expected 100, 100, 110 got %v", awards)
	}
}

func TestCompletionValidation(t *testing.T) {
	store := newStore()
	store.SeedHabit(entities.Habit{
		HabitID:    "weekday-habit",
		UserID:     "user-1",
		BasePoints: 10,
		Frequency:  entities.FrequencyWeekdays,
		StartDate:  day("2025-01-01"),
	})
	ledger := newLedger(store)
	ctx := context.Background()

	cases := []struct {
		name string
		cmd  commands.CompleteHabitCommand
		want error
	}{
		{"missing user", commands.CompleteHabitCommand{HabitID: "weekday-habit"}, domainerrors.ErrInvalidInput},
		{"unknown habit", commands.CompleteHabitCommand{UserID: "user-1", HabitID: "nope"}, domainerrors.ErrNotFound},
		{"foreign habit", commands.CompleteHabitCommand{UserID: "user-2", HabitID: "weekday-habit"}, domainerrors.ErrHabitNotFound},
		{"future date", commands.CompleteHabitCommand{UserID: "user-1", HabitID: "weekday-habit", Date: day("2025-03-11")}, domainerrors.ErrFutureDate},
		{"saturday", commands.CompleteHabitCommand{UserID: "user-1", HabitID: "weekday-habit", Date: day("2025-03-08")}, domainerrors.ErrNotDue},
		{"before start", commands.CompleteHabitCommand{UserID: "user-1", HabitID: "weekday-habit", Date: day("2024-12-31")}, domainerrors.ErrNotDue},
	}
	for _, tc := range cases {
		if _, err := ledger.CompleteHabit(ctx, tc.cmd); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	if _, found, _ := store.GetProgression(ctx, "user-1"); found {
		t.Fatal("rejected completions must not create a ledger")
	}
}

func TestPastDayCompletionIsAccepted(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	ledger := newLedger(store)

	result, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{
		UserID:  "user-1",
		HabitID: "habit-a",
		Date:    day("2025-03-07"),
	})
	if err != nil {
		t.Fatalf("backfill: %v", err)
	}
	if entities.DayKey(result.Result.Date) != "2025-03-07" {
		t.Fatalf("expected result for 2025-03-07, got %s", entities.DayKey(result.Result.Date))
	}
	if _, found, _ := store.GetDayLog(context.Background(), "user-1", day("2025-03-07")); !found {
		t.Fatal("expected day log for the backfilled day")
	}
}

func TestMarkOffDayIdempotency(t *testing.T) {
	store := newStore()
	ledger := newLedger(store)
	ctx := context.Background()

	first, err := ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{UserID: "user-1", Reason: "Vacation"})
	if err != nil {
		t.Fatalf("mark off-day: %v", err)
	}
	if first.Replayed || first.OffDay.Reason != entities.OffDayReasonVacation || !first.Result.DailyMinimumMet {
		t.Fatalf("unexpected first result %+v", first)
	}

	same, err := ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{UserID: "user-1", Reason: entities.OffDayReasonVacation})
	if err != nil {
		t.Fatalf("identical off-day: %v", err)
	}
	if !same.Replayed {
		t.Fatal("identical off-day should be a no-op replay")
	}

	if _, err := ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{UserID: "user-1", Reason: entities.OffDayReasonSick}); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{UserID: "user-1", Reason: "bored"}); !errors.Is(err, domainerrors.ErrInvalidInput) {
		t.Fatalf("expected invalid reason, got %v", err)
	}

	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 0 || progression.Version != 1 {
		t.Fatalf("off-days award nothing, got %+v", progression)
	}
}

func TestCompleteTaskIdempotencyKey(t *testing.T) {
	store := newStore()
	store.SeedTask(entities.Task{TaskID: "task-1", UserID: "user-1", BasePoints: 30})
	store.SeedTask(entities.Task{TaskID: "task-2", UserID: "user-1", BasePoints: 30})
	ledger := newLedger(store)
	ctx := context.Background()

	first, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{UserID: "user-1", TaskID: "task-1", CompletionID: "c-1"})
	if err != nil {
		t.Fatalf("complete task: %v", err)
	}
	replay, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{UserID: "user-1", TaskID: "task-1", CompletionID: "c-1"})
	if err != nil {
		t.Fatalf("replay task: %v", err)
	}
	if !replay.Replayed || replay.Result.NewTotalPower != first.Result.NewTotalPower {
		t.Fatalf("expected replay of %+v, got %+v", first.Result, replay.Result)
	}
	if _, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{UserID: "user-1", TaskID: "task-2", CompletionID: "c-1"}); !errors.Is(err, domainerrors.ErrConflict) {
		t.Fatalf("reused key for another task: expected conflict, got %v", err)
	}

	generated, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{UserID: "user-1", TaskID: "task-1"})
	if err != nil {
		t.Fatalf("complete task without key: %v", err)
	}
	if generated.CompletionID == "" || generated.Replayed {
		t.Fatalf("expected a fresh completion, got %+v", generated)
	}
	if generated.Result.NewTotalPower != 60 {
		t.Fatalf("expected total 60, got %d", generated.Result.NewTotalPower)
	}
}

func TestHaltedUserRejectsCommits(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	store.SeedProgression(entities.UserProgression{
		UserID:      "user-1",
		CurrentTier: entities.TierBase,
		Halted:      true,
		HaltReason:  "manual",
		Version:     3,
	})
	ledger := newLedger(store)

	_, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected halted user error, got %v", err)
	}
}

func TestTierMismatchHaltsUser(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	store.SeedProgression(entities.UserProgression{
		UserID:           "user-1",
		TotalPowerPoints: 600,
		CurrentTier:      entities.TierBase,
		Version:          1,
	})
	ledger := newLedger(store)
	ctx := context.Background()

	_, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
	progression, _, _ := store.GetProgression(ctx, "user-1")
	if !progression.Halted || progression.TotalPowerPoints != 600 {
		t.Fatalf("expected halted and untouched ledger, got %+v", progression)
	}
	if _, found, _ := store.GetHabitRecord(ctx, "habit-a", monday); found {
		t.Fatal("no habit record may be written for a rejected commit")
	}
}

func TestCorruptedDayLogHaltsUser(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	store.SeedProgression(entities.UserProgression{
		UserID:           "user-1",
		TotalPowerPoints: 50,
		CurrentTier:      entities.TierBase,
		Version:          1,
	})
	store.SeedDayLog(entities.DayLog{
		UserID:      "user-1",
		Date:        monday,
		DailyPoints: 50,
		HabitPoints: 20,
	})
	ledger := newLedger(store)

	_, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if !errors.Is(err, domainerrors.ErrInvariantViolation) {
		t.Fatalf("expected invariant violation, got %v", err)
	}
}

type failingLedger struct {
	*memory.Store
	failures int
	err      error
	mu       sync.Mutex
	calls    int
}

func (f *failingLedger) ApplyCommit(ctx context.Context, mutation ports.LedgerMutation) error {
	f.mu.Lock()
	f.calls++
	fail := f.calls <= f.failures
	f.mu.Unlock()
	if fail {
		return f.err
	}
	return f.Store.ApplyCommit(ctx, mutation)
}

func TestCommitRetriesConcurrentUpdates(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 10)
	ledger := newLedger(store)
	flaky := &failingLedger{Store: store, failures: 2, err: domainerrors.ErrConcurrentUpdate}
	ledger.Ledger = flaky

	result, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if err != nil {
		t.Fatalf("expected retry to succeed, got %v", err)
	}
	if result.Result.NewTotalPower != 10 || flaky.calls != 3 {
		t.Fatalf("expected success on third attempt, got total %d after %d calls", result.Result.NewTotalPower, flaky.calls)
	}
}

func TestCommitGivesUpAfterRetries(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	ledger := newLedger(store)
	ledger.Ledger = &failingLedger{Store: store, failures: 100, err: domainerrors.ErrConcurrentUpdate}

	_, err := ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if !errors.Is(err, domainerrors.ErrConcurrentUpdate) {
		t.Fatalf("expected concurrent update error, got %v", err)
	}
}

func TestFailedCommitLeavesNoTrace(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	ledger := newLedger(store)
	ledger.Ledger = &failingLedger{Store: store, failures: 1, err: errors.New("disk full")}
	ctx := context.Background()

	if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"}); err == nil {
		t.Fatal("expected persist failure")
	}
	if _, found, _ := store.GetProgression(ctx, "user-1"); found {
		t.Fatal("progression must not exist after a failed commit")
	}
	if _, found, _ := store.GetHabitRecord(ctx, "habit-a", monday); found {
		t.Fatal("habit record must not exist after a failed commit")
	}
	pending, _ := store.ListPendingOutbox(ctx, 10)
	if len(pending) != 0 {
		t.Fatalf("no events may be queued, got %d", len(pending))
	}
}

func TestConcurrentTaskCompletionsAreSerialised(t *testing.T) {
	store := newStore()
	store.SeedTask(entities.Task{TaskID: "task-1", UserID: "user-1", BasePoints: 7})
	ledger := newLedger(store)
	ctx := context.Background()

	const workers = 25
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{
				UserID:       "user-1",
				TaskID:       "task-1",
				CompletionID: fmt.Sprintf("c-%d", i),
			})
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("concurrent completion failed: %v", err)
		}
	}

	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 7*workers || progression.Version != workers {
		t.Fatalf("expected total %d at version %d, got %+v", 7*workers, workers, progression)
	}
	dayLog, _, _ := store.GetDayLog(ctx, "user-1", monday)
	if dayLog.DailyPoints != progression.TotalPowerPoints || dayLog.TasksCompleted != workers {
		t.Fatalf("day log out of step with total: %+v", dayLog)
	}
}

func TestConcurrentDuplicateHabitCompletionAwardsOnce(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 10)
	ledger := newLedger(store)
	ctx := context.Background()

	const workers = 10
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replayed int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
			if err != nil {
				t.Errorf("completion failed: %v", err)
				return
			}
			if result.Replayed {
				mu.Lock()
				replayed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if replayed != workers-1 {
		t.Fatalf("expected %d replays, got %d", workers-1, replayed)
	}
	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 10 {
		t.Fatalf("expected a single award, got total %d", progression.TotalPowerPoints)
	}
}

func TestCommitEventsCarryEnvelopeFields(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 10)
	ledger := newLedger(store)
	ctx := context.Background()

	if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"}); err != nil {
		t.Fatalf("complete habit: %v", err)
	}
	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected one outbox row, got %d (%v)", len(pending), err)
	}
	var envelope ports.EventEnvelope
	if err := json.Unmarshal(pending[0].Payload, &envelope); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if envelope.PartitionKey != "user-1" || envelope.SourceService != "power-engine" || envelope.SchemaVersion != 1 {
		t.Fatalf("unexpected envelope %+v", envelope)
	}
	var data map[string]any
	if err := envelope.Decode(&data); err != nil {
		t.Fatalf("decode data: %v", err)
	}
	if data["habit_id"] != "habit-a" || data["points_awarded"] != float64(10) {
		t.Fatalf("unexpected event data %v", data)
	}
}

func TestSetDailyMinimumReevaluatesTodayAndStreak(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 100)
	ledger := newLedger(store)
	ctx := context.Background()

	for i := 8; i <= 10; i++ {
		store.SetNow(time.Date(2025, 3, i, 9, 0, 0, 0, time.UTC))
		if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"}); err != nil {
			t.Fatalf("day %d: %v", i, err)
		}
	}

	// Days earned 150, 150 and 165 including the consistency bonus.
	raised, err := ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: 160})
	if err != nil {
		t.Fatalf("raise minimum: %v", err)
	}
	if raised.DailyMinimum != 160 || !raised.Result.DailyMinimumMet || raised.Result.CurrentStreak != 1 {
		t.Fatalf("only today reaches 160, got %+v", raised.Result)
	}

	raised, err = ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: 200})
	if err != nil {
		t.Fatalf("raise minimum again: %v", err)
	}
	if raised.Result.DailyMinimumMet || raised.Result.CurrentStreak != 0 || raised.Result.BestStreak != 3 {
		t.Fatalf("no day reaches 200, got %+v", raised.Result)
	}
	if raised.Result.PointsAwarded != 0 || raised.Result.NewTotalPower != 465 {
		t.Fatalf("changing the minimum must not move points, got %+v", raised.Result)
	}

	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.DailyMinimum != 200 || progression.CurrentStreak != 0 {
		t.Fatalf("unexpected stored progression %+v", progression)
	}

	lowered, err := ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: 100})
	if err != nil {
		t.Fatalf("lower minimum: %v", err)
	}
	if !lowered.Result.DailyMinimumMet || lowered.Result.CurrentStreak != 3 {
		t.Fatalf("all three days reach 100 again, got %+v", lowered.Result)
	}

	for _, minimum := range []int64{0, -5} {
		if _, err := ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: minimum}); !errors.Is(err, domainerrors.ErrInvalidInput) {
			t.Fatalf("minimum %d: expected invalid input, got %v", minimum, err)
		}
	}
}

func TestSetDailyMinimumEmitsEventOnlyOnChange(t *testing.T) {
	store := newStore()
	ledger := newLedger(store)
	ctx := context.Background()

	if _, err := ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: 80}); err != nil {
		t.Fatalf("set minimum: %v", err)
	}
	if _, err := ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{UserID: "user-1", DailyMinimum: 80}); err != nil {
		t.Fatalf("set same minimum: %v", err)
	}

	pending, err := store.ListPendingOutbox(ctx, 10)
	if err != nil {
		t.Fatalf("list outbox: %v", err)
	}
	changes := 0
	for _, message := range pending {
		if message.EventType == commands.EventDailyMinimumChanged {
			changes++
		}
	}
	if changes != 1 {
		t.Fatalf("expected one daily minimum event, got %d", changes)
	}
}

func TestMarkOffDayRejectsFutureDate(t *testing.T) {
	store := newStore()
	ledger := newLedger(store)

	_, err := ledger.MarkOffDay(context.Background(), commands.MarkOffDayCommand{
		UserID: "user-1",
		Date:   day("2025-03-11"),
		Reason: entities.OffDayReasonVacation,
	})
	if !errors.Is(err, domainerrors.ErrFutureDate) {
		t.Fatalf("expected future date, got %v", err)
	}
	if _, found, _ := store.GetOffDay(context.Background(), "user-1", day("2025-03-11")); found {
		t.Fatal("future off-day must not be stored")
	}
}

func TestConsistencyBonusSurvivesArchivedHabit(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	store.SeedTask(entities.Task{TaskID: "task-1", UserID: "user-1", Title: "Errand", BasePoints: 5})
	ledger := newLedger(store)
	ctx := context.Background()

	for _, habitID := range []string{"habit-a", "habit-b"} {
		if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: habitID}); err != nil {
			t.Fatalf("complete %s: %v", habitID, err)
		}
	}

	store.SeedHabit(entities.Habit{
		HabitID:    "habit-b",
		UserID:     "user-1",
		Name:       "habit-b",
		BasePoints: 20,
		Frequency:  entities.FrequencyDaily,
		StartDate:  day("2025-01-01"),
		Archived:   true,
	})

	again, err := ledger.GrantConsistencyBonus(ctx, "user-1", monday)
	if err != nil {
		t.Fatalf("grant bonus: %v", err)
	}
	if again != nil {
		t.Fatalf("bonus was already granted, got %+v", again)
	}
	if _, err := ledger.CompleteTask(ctx, commands.CompleteTaskCommand{UserID: "user-1", TaskID: "task-1"}); err != nil {
		t.Fatalf("complete task: %v", err)
	}

	dayLog, _, _ := store.GetDayLog(ctx, "user-1", monday)
	if dayLog.BonusPoints != 15 || !dayLog.ConsistencyBonusApplied {
		t.Fatalf("archiving must not retract the bonus, got %+v", dayLog)
	}
	if dayLog.DailyPoints != dayLog.HabitPoints+dayLog.TaskPoints+dayLog.BonusPoints {
		t.Fatalf("day log components drifted %+v", dayLog)
	}
	if dayLog.HabitsDue != 1 {
		t.Fatalf("archived habit no longer counts as due, got %d", dayLog.HabitsDue)
	}
}

func TestReplayedCompletionReturnsStoredBonus(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	ledger := newLedger(store)
	ctx := context.Background()

	if _, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"}); err != nil {
		t.Fatalf("complete habit-a: %v", err)
	}
	first, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-b"})
	if err != nil {
		t.Fatalf("complete habit-b: %v", err)
	}
	if first.ConsistencyBonus == nil {
		t.Fatal("expected a bonus on the completion that finished the day")
	}

	replay, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-b", Date: monday})
	if err != nil {
		t.Fatalf("replay habit-b: %v", err)
	}
	if !replay.Replayed || replay.ConsistencyBonus == nil {
		t.Fatalf("replay must carry the bonus, got %+v", replay)
	}
	if replay.ConsistencyBonus.PointsAwarded != first.ConsistencyBonus.PointsAwarded ||
		replay.ConsistencyBonus.NewTotalPower != first.ConsistencyBonus.NewTotalPower ||
		!replay.ConsistencyBonus.CommittedAt.Equal(first.ConsistencyBonus.CommittedAt) {
		t.Fatalf("replayed bonus differs: %+v vs %+v", replay.ConsistencyBonus, first.ConsistencyBonus)
	}

	other, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-a"})
	if err != nil {
		t.Fatalf("replay habit-a: %v", err)
	}
	if !other.Replayed || other.ConsistencyBonus != nil {
		t.Fatalf("habit-a did not finish the day, got %+v", other)
	}

	progression, _, _ := store.GetProgression(ctx, "user-1")
	if progression.TotalPowerPoints != 45 || progression.Version != 3 {
		t.Fatalf("replays must not change the ledger, got %+v", progression)
	}
}

func TestZeroBonusFactorDisablesConsistencyBonus(t *testing.T) {
	store := newStore()
	seedDailyHabit(store, "habit-a", "user-1", 10)
	seedDailyHabit(store, "habit-b", "user-1", 20)
	ledger := newLedger(store)
	ledger.Policy.ConsistencyBonusFactor = 0
	ctx := context.Background()

	var last commands.HabitCompletionResult
	for _, habitID := range []string{"habit-a", "habit-b"} {
		result, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: habitID})
		if err != nil {
			t.Fatalf("complete %s: %v", habitID, err)
		}
		last = result
	}
	if !last.Result.AllHabitsCompleted || last.ConsistencyBonus != nil {
		t.Fatalf("expected all done without a bonus, got %+v", last)
	}
	dayLog, _, _ := store.GetDayLog(ctx, "user-1", monday)
	if dayLog.DailyPoints != 30 || dayLog.BonusPoints != 0 || dayLog.ConsistencyBonusApplied {
		t.Fatalf("unexpected day log %+v", dayLog)
	}
}
