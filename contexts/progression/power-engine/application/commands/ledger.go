package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

// LedgerUseCase is the only writer of user progression state. Every change
// (habit and task completions, off-days, consistency bonuses) goes through
// Commit, which serialises per user and persists one atomic mutation.
type LedgerUseCase struct {
	Catalog ports.Catalog
	Ledger  ports.LedgerRepository
	Locker  ports.UserLocker
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Policy  services.Policy
	Ladder  services.Ladder
	Logger  *slog.Logger
}

// CommitOutcome wraps a CommitResult with how it was produced. Replayed
// results come from an earlier commit with the same natural key. Skipped
// is set when a consistency bonus was not (or no longer) applicable.
type CommitOutcome struct {
	Result   entities.CommitResult
	Replayed bool
	Skipped  bool
}

// commitDraft is the event-specific part of a commit, filled in by the
// prepare* functions before the shared apply step.
type commitDraft struct {
	awarded        int64
	breakdown      *entities.PointBreakdown
	habitStreak    int
	habitRecord    *entities.HabitDayRecord
	taskCompletion *entities.TaskCompletion
	offDay         *entities.OffDayRecord
	dailyMinimum   *int64
	bonusGrant     bool
	eventType      string
	eventData      map[string]any
}

// commitState is the ledger snapshot a single commit attempt works on.
type commitState struct {
	now         time.Time
	today       time.Time
	day         time.Time
	progression entities.UserProgression
	expected    int64
	dayLog      entities.DayLog
}

func (uc LedgerUseCase) Commit(ctx context.Context, event entities.LedgerEvent) (CommitOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	event.UserID = strings.TrimSpace(event.UserID)
	if event.UserID == "" {
		return CommitOutcome{}, domainerrors.ErrInvalidInput
	}

	release, err := uc.Locker.LockUser(ctx, event.UserID)
	if err != nil {
		logger.Error("power ledger user lock failed",
			"event", "power_commit_lock_failed",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", event.UserID,
			"error", err.Error(),
		)
		return CommitOutcome{}, err
	}
	defer release()

	attempts := uc.policy().CommitRetries + 1
	for attempt := 1; ; attempt++ {
		outcome, err := uc.commitOnce(ctx, event)
		if err == nil {
			return outcome, nil
		}
		if !errors.Is(err, domainerrors.ErrConcurrentUpdate) || attempt >= attempts {
			return CommitOutcome{}, err
		}
		logger.Warn("power ledger commit retrying after concurrent update",
			"event", "power_commit_retry",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", event.UserID,
			"kind", string(event.Kind),
			"attempt", attempt,
		)
	}
}

func (uc LedgerUseCase) commitOnce(ctx context.Context, event entities.LedgerEvent) (CommitOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	policy := uc.policy()

	state := commitState{now: uc.now()}
	state.today = entities.DateOf(state.now)
	state.day = entities.DateOf(event.Date)
	if state.day.IsZero() {
		state.day = state.today
	}
	if state.day.After(state.today) {
		return CommitOutcome{}, domainerrors.ErrFutureDate
	}

	progression, found, err := uc.Ledger.GetProgression(ctx, event.UserID)
	if err != nil {
		return CommitOutcome{}, err
	}
	if found {
		if err := uc.checkProgression(ctx, progression, state.now); err != nil {
			return CommitOutcome{}, err
		}
		state.expected = progression.Version
	} else {
		progression = entities.UserProgression{
			UserID:       event.UserID,
			CurrentTier:  uc.ladder().TierFor(0).TierID,
			DailyMinimum: policy.DefaultDailyMinimum,
			CreatedAt:    state.now,
		}
	}
	state.progression = progression

	dayLog, found, err := uc.Ledger.GetDayLog(ctx, event.UserID, state.day)
	if err != nil {
		return CommitOutcome{}, err
	}
	if !found {
		dayLog = entities.DayLog{UserID: event.UserID, Date: state.day}
	}
	if dayLog.DailyPoints != dayLog.ComponentSum() {
		return CommitOutcome{}, uc.halt(ctx, event.UserID, fmt.Sprintf(
			"day %s daily points %d do not match components %d",
			entities.DayKey(state.day), dayLog.DailyPoints, dayLog.ComponentSum(),
		), state.now)
	}
	state.dayLog = dayLog

	var (
		draft   commitDraft
		early   *CommitOutcome
		prepErr error
	)
	switch event.Kind {
	case entities.LedgerEventHabitCompleted:
		draft, early, prepErr = uc.prepareHabit(ctx, event, &state)
	case entities.LedgerEventTaskCompleted:
		draft, early, prepErr = uc.prepareTask(ctx, event, &state)
	case entities.LedgerEventOffDayMarked:
		draft, early, prepErr = uc.prepareOffDay(ctx, event, &state)
	case entities.LedgerEventConsistencyBonusGranted:
		draft, early, prepErr = uc.prepareConsistencyBonus(ctx, event, &state)
	case entities.LedgerEventDailyMinimumChanged:
		draft, early, prepErr = uc.prepareDailyMinimum(ctx, event, &state)
	default:
		prepErr = domainerrors.ErrInvalidInput
	}
	if prepErr != nil {
		logger.Warn("power ledger commit rejected",
			"event", "power_commit_rejected",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", event.UserID,
			"kind", string(event.Kind),
			"day", entities.DayKey(state.day),
			"error", prepErr.Error(),
		)
		return CommitOutcome{}, prepErr
	}
	if early != nil {
		logger.Info("power ledger commit replayed",
			"event", "power_commit_replayed",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", event.UserID,
			"kind", string(event.Kind),
			"day", entities.DayKey(state.day),
			"skipped", early.Skipped,
		)
		return *early, nil
	}

	return uc.apply(ctx, event, state, draft)
}

// apply folds a prepared draft into the progression aggregate, derives
// streaks and tier, and persists the result as one mutation.
func (uc LedgerUseCase) apply(
	ctx context.Context,
	event entities.LedgerEvent,
	state commitState,
	draft commitDraft,
) (CommitOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	policy := uc.policy()
	ladder := uc.ladder()
	progression := state.progression
	dayLog := state.dayLog

	stats, err := uc.dayStats(ctx, event.UserID, state.day, draft.habitRecord)
	if err != nil {
		return CommitOutcome{}, err
	}
	dayLog.HabitsDue = stats.due
	dayLog.HabitsCompleted = stats.completed
	dayLog.DailyPoints = dayLog.ComponentSum()
	dayLog.UpdatedAt = state.now

	if draft.dailyMinimum != nil {
		progression.DailyMinimum = *draft.dailyMinimum
	}
	minimum := resolveDailyMinimum(progression, policy)
	index, err := uc.loadDayIndex(ctx, event.UserID, lookbackWindow(state.today, policy.StreakLookbackDays), minimum)
	if err != nil {
		return CommitOutcome{}, err
	}
	index.setPoints(state.day, dayLog.DailyPoints)
	if draft.offDay != nil {
		index.markOff(draft.offDay.Date, draft.offDay.Reason)
	}

	oldTotal := progression.TotalPowerPoints
	newTotal := oldTotal + draft.awarded
	streak := index.streak(state.today, policy.StreakLookbackDays)

	progression.TotalPowerPoints = newTotal
	progression.CurrentTier = ladder.TierFor(newTotal).TierID
	progression.CurrentStreak = streak.Days
	progression.BestStreak = services.BestStreak(progression.BestStreak, streak.Days)
	progression.LastActivityDate = laterDay(progression.LastActivityDate, state.day)
	progression.Version = state.expected + 1
	progression.UpdatedAt = state.now

	transformation := ladder.Crossed(oldTotal, newTotal)
	unlocked := ladder.UnlockedBetween(oldTotal, newTotal)
	unlocks := make([]entities.TierUnlock, 0, len(unlocked))
	for _, tier := range unlocked {
		unlocks = append(unlocks, entities.TierUnlock{
			UserID:        event.UserID,
			TierID:        tier.TierID,
			TotalAtUnlock: newTotal,
			UnlockedAt:    state.now,
		})
	}

	result := entities.CommitResult{
		Kind:               event.Kind,
		UserID:             event.UserID,
		Date:               state.day,
		PointsAwarded:      draft.awarded,
		NewTotalPower:      newTotal,
		DailyPointsToday:   dayLog.DailyPoints,
		DailyMinimumMet:    index.qualifies(state.day),
		NewTransformation:  transformation,
		Breakdown:          draft.breakdown,
		CurrentStreak:      progression.CurrentStreak,
		BestStreak:         progression.BestStreak,
		HabitStreak:        draft.habitStreak,
		AllHabitsCompleted: stats.allCompleted,
		CommittedAt:        state.now,
	}
	if draft.habitRecord != nil {
		draft.habitRecord.Result = result
	}
	if draft.taskCompletion != nil {
		draft.taskCompletion.Result = result
	}
	if draft.bonusGrant {
		dayLog.ConsistencyBonus = &entities.ConsistencyBonusGrant{HabitID: event.HabitID, Result: result}
	}

	events, err := uc.buildEvents(ctx, event, state, draft, result)
	if err != nil {
		return CommitOutcome{}, err
	}

	mutation := ports.LedgerMutation{
		Progression:     progression,
		ExpectedVersion: state.expected,
		DayLog:          dayLog,
		HabitRecord:     draft.habitRecord,
		TaskCompletion:  draft.taskCompletion,
		OffDay:          draft.offDay,
		Snapshot: entities.PowerSnapshot{
			UserID:           event.UserID,
			Date:             state.today,
			TotalPowerPoints: newTotal,
			Tier:             progression.CurrentTier,
			RecordedAt:       state.now,
		},
		TierUnlocks: unlocks,
		Events:      events,
	}
	if err := uc.Ledger.ApplyCommit(ctx, mutation); err != nil {
		if !errors.Is(err, domainerrors.ErrConcurrentUpdate) {
			logger.Error("power ledger commit persist failed",
				"event", "power_commit_persist_failed",
				"module", "progression/power-engine",
				"layer", "application",
				"user_id", event.UserID,
				"kind", string(event.Kind),
				"error", err.Error(),
			)
		}
		return CommitOutcome{}, err
	}

	logger.Info("power ledger commit applied",
		"event", "power_commit_applied",
		"module", "progression/power-engine",
		"layer", "application",
		"user_id", event.UserID,
		"kind", string(event.Kind),
		"day", entities.DayKey(state.day),
		"points_awarded", draft.awarded,
		"new_total_power", newTotal,
		"tier", string(progression.CurrentTier),
		"current_streak", progression.CurrentStreak,
	)
	if transformation != nil {
		logger.Info("power transformation unlocked",
			"event", "power_transformation_unlocked",
			"module", "progression/power-engine",
			"layer", "application",
			"user_id", event.UserID,
			"tier", string(transformation.NewTier),
			"new_total_power", newTotal,
		)
	}
	return CommitOutcome{Result: result}, nil
}

func (uc LedgerUseCase) buildEvents(
	ctx context.Context,
	event entities.LedgerEvent,
	state commitState,
	draft commitDraft,
	result entities.CommitResult,
) ([]ports.EventEnvelope, error) {
	if uc.IDGen == nil {
		return nil, nil
	}
	items := make([]ports.EventEnvelope, 0, 2)
	if draft.eventType != "" {
		data := map[string]any{
			"user_id":            event.UserID,
			"kind":               string(event.Kind),
			"date":               entities.DayKey(state.day),
			"points_awarded":     result.PointsAwarded,
			"new_total_power":    result.NewTotalPower,
			"daily_points_today": result.DailyPointsToday,
			"daily_minimum_met":  result.DailyMinimumMet,
			"current_streak":     result.CurrentStreak,
			"occurred_at":        state.now.Format(time.RFC3339),
		}
		for key, value := range draft.eventData {
			data[key] = value
		}
		envelope, err := uc.envelope(ctx, draft.eventType, event.UserID, state.now, data)
		if err != nil {
			return nil, err
		}
		items = append(items, envelope)
	}
	if result.NewTransformation != nil {
		envelope, err := uc.envelope(ctx, EventTransformationUnlocked, event.UserID, state.now, map[string]any{
			"user_id":          event.UserID,
			"new_tier":         string(result.NewTransformation.NewTier),
			"new_tier_name":    result.NewTransformation.NewTierName,
			"new_total_points": result.NewTransformation.NewTotalPoints,
			"occurred_at":      state.now.Format(time.RFC3339),
		})
		if err != nil {
			return nil, err
		}
		items = append(items, envelope)
	}
	return items, nil
}

func (uc LedgerUseCase) envelope(
	ctx context.Context,
	eventType string,
	userID string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return newPowerEnvelope(eventID, eventType, userID, occurredAt, data)
}

type dayStats struct {
	due          int
	completed    int
	allCompleted bool
}

// dayStats counts the user's due and completed habits for day, including a
// habit record that is about to be written.
func (uc LedgerUseCase) dayStats(
	ctx context.Context,
	userID string,
	day time.Time,
	pending *entities.HabitDayRecord,
) (dayStats, error) {
	habits, err := uc.Catalog.ListHabitsByUser(ctx, userID)
	if err != nil {
		return dayStats{}, err
	}
	records, err := uc.Ledger.ListHabitRecordsByUserDay(ctx, userID, day)
	if err != nil {
		return dayStats{}, err
	}
	completed := make(map[string]bool, len(records)+1)
	for _, record := range records {
		if record.Completed {
			completed[record.HabitID] = true
		}
	}
	if pending != nil && pending.Completed {
		completed[pending.HabitID] = true
	}

	due := services.DueHabits(habits, day)
	stats := dayStats{due: len(due)}
	for _, habit := range due {
		if completed[habit.HabitID] {
			stats.completed++
		}
	}
	stats.allCompleted = services.AllDueCompleted(due, completed)
	return stats, nil
}

// checkProgression halts the user when stored state contradicts the ladder.
func (uc LedgerUseCase) checkProgression(ctx context.Context, progression entities.UserProgression, now time.Time) error {
	if progression.Halted {
		return domainerrors.ErrUserHalted
	}
	if progression.TotalPowerPoints < 0 {
		return uc.halt(ctx, progression.UserID, "total power points are negative", now)
	}
	expected := uc.ladder().TierFor(progression.TotalPowerPoints).TierID
	if progression.CurrentTier != expected {
		return uc.halt(ctx, progression.UserID, fmt.Sprintf(
			"stored tier %s does not match %s for total %d",
			progression.CurrentTier, expected, progression.TotalPowerPoints,
		), now)
	}
	return nil
}

func (uc LedgerUseCase) halt(ctx context.Context, userID string, reason string, now time.Time) error {
	logger := application.ResolveLogger(uc.Logger)
	logger.Error("power ledger invariant violated, halting user",
		"event", "power_ledger_invariant_violation",
		"module", "progression/power-engine",
		"layer", "application",
		"user_id", userID,
		"reason", reason,
	)
	if err := uc.Ledger.HaltUser(ctx, userID, reason, now); err != nil {
		return errors.Join(fmt.Errorf("%w: %s", domainerrors.ErrInvariantViolation, reason), err)
	}
	return fmt.Errorf("%w: %s", domainerrors.ErrInvariantViolation, reason)
}

func (uc LedgerUseCase) categoryMultiplier(ctx context.Context, categoryID string) (float64, error) {
	policy := uc.policy()
	if strings.TrimSpace(categoryID) == "" {
		return policy.MultiplierFor(nil), nil
	}
	category, err := uc.Catalog.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrCategoryNotFound) {
			return policy.MultiplierFor(nil), nil
		}
		return 0, err
	}
	return policy.MultiplierFor(&category), nil
}

func (uc LedgerUseCase) now() time.Time {
	if uc.Clock == nil {
		return time.Now().UTC()
	}
	return uc.Clock.Now().UTC()
}

func (uc LedgerUseCase) policy() services.Policy {
	return uc.Policy.WithDefaults()
}

func (uc LedgerUseCase) ladder() services.Ladder {
	return uc.Ladder
}
