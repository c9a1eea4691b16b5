package postgresadapter

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"powertrack/contexts/progression/power-engine/adapters/memory"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()
	// One in-memory database per test keeps runs independent.
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, Migrate(db))
	return NewRepository(db, nil)
}

func day(value string) time.Time {
	parsed, err := entities.ParseDay(value)
	if err != nil {
		panic(err)
	}
	return parsed
}

func firstCommit(userID string, on time.Time) ports.LedgerMutation {
	return ports.LedgerMutation{
		Progression: entities.UserProgression{
			UserID:           userID,
			TotalPowerPoints: 15,
			CurrentTier:      entities.TierBase,
			LastActivityDate: on,
			DailyMinimum:     100,
			Version:          1,
			CreatedAt:        on,
			UpdatedAt:        on,
		},
		DayLog: entities.DayLog{
			UserID:          userID,
			Date:            on,
			HabitPoints:     15,
			DailyPoints:     15,
			HabitsDue:       2,
			HabitsCompleted: 1,
		},
		HabitRecord: &entities.HabitDayRecord{
			HabitID:       "habit-1",
			UserID:        userID,
			Date:          on,
			Completed:     true,
			PointsAwarded: 15,
			HabitStreak:   1,
			Result: entities.CommitResult{
				Kind:          entities.LedgerEventHabitCompleted,
				UserID:        userID,
				Date:          on,
				PointsAwarded: 15,
				NewTotalPower: 15,
			},
			CompletedAt: on.Add(9 * time.Hour),
		},
		Snapshot: entities.PowerSnapshot{
			UserID:           userID,
			Date:             on,
			TotalPowerPoints: 15,
			Tier:             entities.TierBase,
			RecordedAt:       on.Add(9 * time.Hour),
		},
		Events: []ports.EventEnvelope{{
			EventID:      "evt-1",
			EventType:    commands.EventPointsAwarded,
			OccurredAt:   on.Add(9 * time.Hour),
			PartitionKey: userID,
			Data:         []byte(`{"points_awarded":15}`),
		}},
	}
}

func TestApplyCommitPersistsEveryPart(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	on := day("2025-01-15")

	require.NoError(t, repo.ApplyCommit(ctx, firstCommit("user-1", on)))

	progression, found, err := repo.GetProgression(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(15), progression.TotalPowerPoints)
	require.Equal(t, int64(1), progression.Version)
	require.True(t, progression.LastActivityDate.Equal(on))

	dayLog, found, err := repo.GetDayLog(ctx, "user-1", on)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(15), dayLog.DailyPoints)
	require.Equal(t, dayLog.ComponentSum(), dayLog.DailyPoints)

	record, found, err := repo.GetHabitRecord(ctx, "habit-1", on)
	require.NoError(t, err)
	require.True(t, found)
	require.True(t, record.Completed)
	require.Equal(t, int64(15), record.Result.PointsAwarded)
	require.True(t, record.Result.Date.Equal(on))

	byDay, err := repo.ListHabitRecordsByUserDay(ctx, "user-1", on)
	require.NoError(t, err)
	require.Len(t, byDay, 1)

	snapshots, err := repo.ListSnapshots(ctx, "user-1", ports.DayRange{})
	require.NoError(t, err)
	require.Len(t, snapshots, 1)

	pending, err := repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, commands.EventPointsAwarded, pending[0].EventType)
	require.NoError(t, repo.MarkOutboxPublished(ctx, pending[0].OutboxID, on))
	pending, err = repo.ListPendingOutbox(ctx, 10)
	require.NoError(t, err)
	require.Empty(t, pending)
}

func TestApplyCommitRejectsStaleVersion(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	on := day("2025-01-15")
	require.NoError(t, repo.ApplyCommit(ctx, firstCommit("user-1", on)))

	// A second writer that also believed the user was new.
	again := firstCommit("user-1", on)
	again.HabitRecord.HabitID = "habit-2"
	again.Events = nil
	err := repo.ApplyCommit(ctx, again)
	require.ErrorIs(t, err, domainerrors.ErrConcurrentUpdate)

	stale := firstCommit("user-1", on)
	stale.ExpectedVersion = 7
	stale.Progression.Version = 8
	stale.HabitRecord.HabitID = "habit-3"
	stale.Events = nil
	err = repo.ApplyCommit(ctx, stale)
	require.ErrorIs(t, err, domainerrors.ErrConcurrentUpdate)

	_, found, err := repo.GetHabitRecord(ctx, "habit-3", on)
	require.NoError(t, err)
	require.False(t, found)
}

func TestApplyCommitRollsBackOnDuplicateHabitDay(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	on := day("2025-01-15")
	require.NoError(t, repo.ApplyCommit(ctx, firstCommit("user-1", on)))

	duplicate := firstCommit("user-1", on)
	duplicate.ExpectedVersion = 1
	duplicate.Progression.Version = 2
	duplicate.Progression.TotalPowerPoints = 30
	duplicate.DayLog.HabitPoints = 30
	duplicate.DayLog.DailyPoints = 30
	duplicate.Events = nil
	err := repo.ApplyCommit(ctx, duplicate)
	require.ErrorIs(t, err, domainerrors.ErrConcurrentUpdate)

	progression, _, err := repo.GetProgression(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(15), progression.TotalPowerPoints)
	require.Equal(t, int64(1), progression.Version)
	dayLog, _, err := repo.GetDayLog(ctx, "user-1", on)
	require.NoError(t, err)
	require.Equal(t, int64(15), dayLog.DailyPoints)
}

func TestListDayLogsHonoursWindow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	first := day("2025-01-10")
	mutation := firstCommit("user-1", first)
	require.NoError(t, repo.ApplyCommit(ctx, mutation))

	for i := 1; i <= 3; i++ {
		on := entities.AddDays(first, i)
		next := firstCommit("user-1", on)
		next.ExpectedVersion = int64(i)
		next.Progression.Version = int64(i + 1)
		next.HabitRecord = nil
		next.Events = nil
		require.NoError(t, repo.ApplyCommit(ctx, next))
	}

	logs, err := repo.ListDayLogs(ctx, "user-1", ports.DayRange{From: day("2025-01-11"), To: day("2025-01-12")})
	require.NoError(t, err)
	require.Len(t, logs, 2)
	require.True(t, logs[0].Date.Equal(day("2025-01-11")))
	require.True(t, logs[1].Date.Equal(day("2025-01-12")))

	all, err := repo.ListDayLogs(ctx, "user-1", ports.DayRange{})
	require.NoError(t, err)
	require.Len(t, all, 4)
}

func TestHaltUserBlocksFurtherCommits(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	on := day("2025-01-15")
	require.NoError(t, repo.ApplyCommit(ctx, firstCommit("user-1", on)))
	require.NoError(t, repo.HaltUser(ctx, "user-1", "tier mismatch", on))

	progression, _, err := repo.GetProgression(ctx, "user-1")
	require.NoError(t, err)
	require.True(t, progression.Halted)
	require.Equal(t, "tier mismatch", progression.HaltReason)
	require.Equal(t, int64(2), progression.Version)

	next := firstCommit("user-1", on)
	next.ExpectedVersion = 2
	next.Progression.Version = 3
	next.HabitRecord = nil
	next.Events = nil
	require.ErrorIs(t, repo.ApplyCommit(ctx, next), domainerrors.ErrConcurrentUpdate)
}

func TestCatalogRoundTripKeepsSchedule(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	end := day("2025-02-01")
	require.NoError(t, repo.UpsertHabit(ctx, entities.Habit{
		HabitID:     "habit-1",
		UserID:      "user-1",
		CategoryID:  "cat-1",
		Name:        "Gym",
		BasePoints:  20,
		Frequency:   entities.FrequencyCustom,
		CustomDays:  []time.Weekday{time.Monday, time.Wednesday},
		IsTemporary: true,
		StartDate:   day("2025-01-01"),
		EndDate:     &end,
	}))
	require.NoError(t, repo.UpsertCategory(ctx, entities.Category{
		CategoryID: "cat-1",
		UserID:     "user-1",
		Name:       "Fitness",
		Kind:       entities.CategoryKindPersonal,
	}))

	habit, err := repo.GetHabit(ctx, "habit-1")
	require.NoError(t, err)
	require.Equal(t, []time.Weekday{time.Monday, time.Wednesday}, habit.CustomDays)
	require.NotNil(t, habit.EndDate)
	require.True(t, habit.EndDate.Equal(end))

	category, err := repo.GetCategory(ctx, "cat-1")
	require.NoError(t, err)
	require.Equal(t, entities.CategoryKindPersonal, category.Kind)

	_, err = repo.GetTask(ctx, "missing")
	require.ErrorIs(t, err, domainerrors.ErrTaskNotFound)
	require.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestLedgerUseCaseOverRepository(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	clock := memory.NewStore()
	clock.SetNow(time.Date(2025, 1, 15, 18, 0, 0, 0, time.UTC))

	require.NoError(t, repo.UpsertCategory(ctx, entities.Category{
		CategoryID: "cat-work",
		UserID:     "user-1",
		Kind:       entities.CategoryKindWork,
	}))
	require.NoError(t, repo.UpsertHabit(ctx, entities.Habit{
		HabitID:    "habit-1",
		UserID:     "user-1",
		CategoryID: "cat-work",
		Name:       "Deep work",
		BasePoints: 10,
		Frequency:  entities.FrequencyDaily,
		StartDate:  day("2025-01-01"),
	}))

	ledger := commands.LedgerUseCase{
		Catalog: repo,
		Ledger:  repo,
		Locker:  memory.NewUserLocker(),
		Clock:   clock,
		IDGen:   UUIDGenerator{},
		Policy:  services.DefaultPolicy(),
		Ladder:  services.DefaultLadder(),
	}
	first, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-1"})
	require.NoError(t, err)
	require.Equal(t, int64(10), first.Result.PointsAwarded)
	require.NotNil(t, first.ConsistencyBonus)
	require.Equal(t, int64(5), first.ConsistencyBonus.PointsAwarded)

	replay, err := ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{UserID: "user-1", HabitID: "habit-1"})
	require.NoError(t, err)
	require.True(t, replay.Replayed)
	require.Equal(t, first.Result.PointsAwarded, replay.Result.PointsAwarded)
	require.Equal(t, first.Result.NewTotalPower, replay.Result.NewTotalPower)

	progression, _, err := repo.GetProgression(ctx, "user-1")
	require.NoError(t, err)
	require.Equal(t, int64(15), progression.TotalPowerPoints)
	dayLog, _, err := repo.GetDayLog(ctx, "user-1", day("2025-01-15"))
	require.NoError(t, err)
	require.Equal(t, int64(10), dayLog.HabitPoints)
	require.Equal(t, int64(5), dayLog.BonusPoints)
	require.True(t, dayLog.ConsistencyBonusApplied)
	require.NotNil(t, dayLog.ConsistencyBonus)
	require.Equal(t, "habit-1", dayLog.ConsistencyBonus.HabitID)
	require.Equal(t, first.ConsistencyBonus.NewTotalPower, dayLog.ConsistencyBonus.Result.NewTotalPower)

	require.NotNil(t, replay.ConsistencyBonus)
	require.Equal(t, first.ConsistencyBonus.PointsAwarded, replay.ConsistencyBonus.PointsAwarded)
	require.True(t, first.ConsistencyBonus.CommittedAt.Equal(replay.ConsistencyBonus.CommittedAt))
}

func TestListUserRecordsAndTaskCompletionsHonourWindow(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	first := day("2025-01-10")

	for i := 0; i < 3; i++ {
		on := entities.AddDays(first, i)
		mutation := firstCommit("user-1", on)
		mutation.ExpectedVersion = int64(i)
		mutation.Progression.Version = int64(i + 1)
		mutation.Events = nil
		mutation.TaskCompletion = &entities.TaskCompletion{
			CompletionID:  fmt.Sprintf("completion-%d", i),
			TaskID:        "task-1",
			UserID:        "user-1",
			Date:          on,
			PointsAwarded: 5,
			CompletedAt:   on.Add(10 * time.Hour),
		}
		require.NoError(t, repo.ApplyCommit(ctx, mutation))
	}

	window := ports.DayRange{From: day("2025-01-11"), To: day("2025-01-12")}
	records, err := repo.ListHabitRecordsByUser(ctx, "user-1", window)
	require.NoError(t, err)
	require.Len(t, records, 2)
	require.True(t, records[0].Date.Equal(day("2025-01-11")))
	require.True(t, records[1].Date.Equal(day("2025-01-12")))

	completions, err := repo.ListTaskCompletions(ctx, "user-1", window)
	require.NoError(t, err)
	require.Len(t, completions, 2)
	require.Equal(t, "completion-1", completions[0].CompletionID)

	other, err := repo.ListHabitRecordsByUser(ctx, "user-2", ports.DayRange{})
	require.NoError(t, err)
	require.Empty(t, other)
}
