package httpadapter

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "powertrack/contexts/progression/power-engine/application"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/application/queries"
	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	httptransport "powertrack/contexts/progression/power-engine/transport/http"
)

type Handler struct {
	Ledger            commands.LedgerUseCase
	PowerState        queries.PowerStateUseCase
	TierLadder        queries.TierLadderUseCase
	PowerHistory      queries.PowerHistoryUseCase
	HabitStats        queries.HabitStatsUseCase
	WeeklySummary     queries.WeeklySummaryUseCase
	CategoryBreakdown queries.CategoryBreakdownUseCase
	HabitCalendar     queries.HabitCalendarUseCase
	VerifyLedger      queries.VerifyLedgerUseCase
	Logger            *slog.Logger
}

// CompleteHabitHandler godoc
// @Summary Complete a habit for a day
// @Description Awards points for a due habit once per calendar day. Repeating the call for the same day returns the original result with replayed=true.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param habit_id path string true "Habit id"
// @Param request body httptransport.CompleteHabitRequest false "Optional day"
// @Success 200 {object} httptransport.HabitCompletionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/habits/{habit_id}/complete [post]
func (h Handler) CompleteHabitHandler(
	ctx context.Context,
	userID string,
	habitID string,
	req httptransport.CompleteHabitRequest,
) (httptransport.HabitCompletionResponse, error) {
	day, err := parseDay(req.Date)
	if err != nil {
		return httptransport.HabitCompletionResponse{}, err
	}
	result, err := h.Ledger.CompleteHabit(ctx, commands.CompleteHabitCommand{
		UserID:  userID,
		HabitID: habitID,
		Date:    day,
	})
	if err != nil {
		h.logFailure("complete habit request failed", "http_complete_habit_failed", userID, err)
		return httptransport.HabitCompletionResponse{}, err
	}
	resp := httptransport.HabitCompletionResponse{
		Result:   mapCommitResult(result.Result),
		Replayed: result.Replayed,
	}
	if result.ConsistencyBonus != nil {
		bonus := mapCommitResult(*result.ConsistencyBonus)
		resp.ConsistencyBonus = &bonus
	}
	return resp, nil
}

// CompleteTaskHandler godoc
// @Summary Complete a task
// @Description Awards points for a one-off task completion. The completion id (body or Idempotency-Key header) makes retries safe.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param task_id path string true "Task id"
// @Param Idempotency-Key header string false "Completion id"
// @Param request body httptransport.CompleteTaskRequest false "Optional day and completion id"
// @Success 200 {object} httptransport.TaskCompletionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/tasks/{task_id}/complete [post]
func (h Handler) CompleteTaskHandler(
	ctx context.Context,
	userID string,
	taskID string,
	idempotencyKey string,
	req httptransport.CompleteTaskRequest,
) (httptransport.TaskCompletionResponse, error) {
	day, err := parseDay(req.Date)
	if err != nil {
		return httptransport.TaskCompletionResponse{}, err
	}
	completionID := strings.TrimSpace(req.CompletionID)
	if completionID == "" {
		completionID = strings.TrimSpace(idempotencyKey)
	}
	result, err := h.Ledger.CompleteTask(ctx, commands.CompleteTaskCommand{
		UserID:       userID,
		TaskID:       taskID,
		CompletionID: completionID,
		Date:         day,
	})
	if err != nil {
		h.logFailure("complete task request failed", "http_complete_task_failed", userID, err)
		return httptransport.TaskCompletionResponse{}, err
	}
	return httptransport.TaskCompletionResponse{
		CompletionID: result.CompletionID,
		Result:       mapCommitResult(result.Result),
		Replayed:     result.Replayed,
	}, nil
}

// MarkOffDayHandler godoc
// @Summary Mark an off-day
// @Description Declares a rest day that keeps the streak alive without awarding points.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param request body httptransport.MarkOffDayRequest true "Day and reason"
// @Success 200 {object} httptransport.OffDayResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Failure 422 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/off-days [post]
func (h Handler) MarkOffDayHandler(
	ctx context.Context,
	userID string,
	req httptransport.MarkOffDayRequest,
) (httptransport.OffDayResponse, error) {
	day, err := parseDay(req.Date)
	if err != nil {
		return httptransport.OffDayResponse{}, err
	}
	result, err := h.Ledger.MarkOffDay(ctx, commands.MarkOffDayCommand{
		UserID: userID,
		Date:   day,
		Reason: entities.OffDayReason(req.Reason),
	})
	if err != nil {
		h.logFailure("mark off-day request failed", "http_mark_offday_failed", userID, err)
		return httptransport.OffDayResponse{}, err
	}
	return httptransport.OffDayResponse{
		Date:     entities.DayKey(result.OffDay.Date),
		Reason:   string(result.OffDay.Reason),
		Result:   mapCommitResult(result.Result),
		Replayed: result.Replayed,
	}, nil
}

// GetPowerStateHandler godoc
// @Summary Get power state
// @Description Returns total power, tier progress, today's log and streaks.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Success 200 {object} httptransport.PowerStateResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/state [get]
func (h Handler) GetPowerStateHandler(ctx context.Context, userID string) (httptransport.PowerStateResponse, error) {
	state, err := h.PowerState.Execute(ctx, userID)
	if err != nil {
		return httptransport.PowerStateResponse{}, err
	}
	resp := httptransport.PowerStateResponse{
		UserID:                  state.UserID,
		TotalPowerPoints:        state.TotalPowerPoints,
		Tier:                    mapTier(state.Tier),
		PointsToNext:            state.PointsToNext,
		ProgressPercentage:      state.ProgressPercentage,
		DailyPointsToday:        state.DailyPointsToday,
		DailyMinimum:            state.DailyMinimum,
		DailyMinimumMet:         state.DailyMinimumMet,
		IsOffDayToday:           state.IsOffDayToday,
		ConsistencyBonusApplied: state.ConsistencyBonusApplied,
		HabitsDueToday:          state.HabitsDueToday,
		HabitsCompletedToday:    state.HabitsCompletedToday,
		CurrentStreak:           state.CurrentStreak,
		BestStreak:              state.BestStreak,
	}
	if state.NextTier != nil {
		next := mapTier(*state.NextTier)
		resp.NextTier = &next
	}
	if !state.LastActivityDate.IsZero() {
		resp.LastActivityDate = entities.DayKey(state.LastActivityDate)
	}
	return resp, nil
}

// GetTierLadderHandler godoc
// @Summary List transformation tiers
// @Description Returns the ladder with unlock status for the caller when X-User-Id is present.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string false "Acting user id"
// @Success 200 {object} httptransport.TierLadderResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/ladder [get]
func (h Handler) GetTierLadderHandler(ctx context.Context, userID string) (httptransport.TierLadderResponse, error) {
	items, err := h.TierLadder.Execute(ctx, userID)
	if err != nil {
		return httptransport.TierLadderResponse{}, err
	}
	resp := httptransport.TierLadderResponse{Items: make([]httptransport.TierLadderEntryDTO, 0, len(items))}
	for _, item := range items {
		entry := httptransport.TierLadderEntryDTO{
			TierID:         string(item.TierID),
			Name:           item.Name,
			PointsRequired: item.PointsRequired,
			Unlocked:       item.Unlocked,
		}
		if item.UnlockedAt != nil {
			entry.UnlockedAt = item.UnlockedAt.UTC().Format(time.RFC3339)
		}
		resp.Items = append(resp.Items, entry)
	}
	return resp, nil
}

// GetPowerHistoryHandler godoc
// @Summary Get power history
// @Description Returns daily power snapshots for the last N days.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param days query int false "Days to include (default 30, max 365)"
// @Success 200 {object} httptransport.PowerHistoryResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/history [get]
func (h Handler) GetPowerHistoryHandler(ctx context.Context, userID string, days int) (httptransport.PowerHistoryResponse, error) {
	items, err := h.PowerHistory.Execute(ctx, userID, days)
	if err != nil {
		return httptransport.PowerHistoryResponse{}, err
	}
	resp := httptransport.PowerHistoryResponse{Items: make([]httptransport.PowerHistoryPointDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.PowerHistoryPointDTO{
			Date:             entities.DayKey(item.Date),
			TotalPowerPoints: item.TotalPowerPoints,
			Tier:             string(item.Tier),
		})
	}
	return resp, nil
}

// GetHabitStatsHandler godoc
// @Summary Get habit statistics
// @Description Returns streaks, totals and completion rates for one habit.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param habit_id path string true "Habit id"
// @Success 200 {object} httptransport.HabitStatsResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/habits/{habit_id}/stats [get]
func (h Handler) GetHabitStatsHandler(ctx context.Context, userID string, habitID string) (httptransport.HabitStatsResponse, error) {
	stats, err := h.HabitStats.Execute(ctx, userID, habitID)
	if err != nil {
		return httptransport.HabitStatsResponse{}, err
	}
	return httptransport.HabitStatsResponse{
		HabitID:          stats.HabitID,
		CurrentStreak:    stats.CurrentStreak,
		BestStreak:       stats.BestStreak,
		TotalCompletions: stats.TotalCompletions,
		TotalPoints:      stats.TotalPoints,
		CompletionRate7:  stats.CompletionRate7,
		CompletionRate30: stats.CompletionRate30,
		CompletionRate90: stats.CompletionRate90,
	}, nil
}

// UpdateSettingsHandler godoc
// @Summary Update the daily point minimum
// @Description Sets the points a day needs to count toward the streak. Today's status and the streak are re-evaluated with the new value.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param request body httptransport.UpdateSettingsRequest true "New minimum"
// @Success 200 {object} httptransport.SettingsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 423 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/settings [put]
func (h Handler) UpdateSettingsHandler(
	ctx context.Context,
	userID string,
	req httptransport.UpdateSettingsRequest,
) (httptransport.SettingsResponse, error) {
	result, err := h.Ledger.SetDailyMinimum(ctx, commands.SetDailyMinimumCommand{
		UserID:       userID,
		DailyMinimum: req.DailyPointMinimum,
	})
	if err != nil {
		h.logFailure("update settings request failed", "http_update_settings_failed", userID, err)
		return httptransport.SettingsResponse{}, err
	}
	return httptransport.SettingsResponse{
		DailyPointMinimum: result.DailyMinimum,
		Result:            mapCommitResult(result.Result),
	}, nil
}

// GetWeeklySummaryHandler godoc
// @Summary Get the weekly summary
// @Description Returns points, completions and minimum status for the seven days ending today.
// @Tags power-engine
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Success 200 {object} httptransport.WeeklySummaryResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/analytics/weekly [get]
func (h Handler) GetWeeklySummaryHandler(ctx context.Context, userID string) (httptransport.WeeklySummaryResponse, error) {
	summary, err := h.WeeklySummary.Execute(ctx, userID)
	if err != nil {
		return httptransport.WeeklySummaryResponse{}, err
	}
	resp := httptransport.WeeklySummaryResponse{
		Days:           make([]httptransport.WeeklyDayDTO, 0, len(summary.Days)),
		TotalPoints:    summary.TotalPoints,
		AverageDaily:   summary.AverageDaily,
		DaysMinimumMet: summary.DaysMinimumMet,
		OffDays:        summary.OffDays,
	}
	for _, day := range summary.Days {
		resp.Days = append(resp.Days, httptransport.WeeklyDayDTO{
			Date:            entities.DayKey(day.Date),
			Points:          day.Points,
			HabitsCompleted: day.HabitsCompleted,
			TasksCompleted:  day.TasksCompleted,
			MinimumMet:      day.MinimumMet,
			IsOffDay:        day.IsOffDay,
		})
	}
	return resp, nil
}

// GetCategoryBreakdownHandler godoc
// @Summary Get points per category
// @Description Returns habit and task points per category over the last N days with each category's share.
// @Tags power-engine
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param days query int false "Days to include (default 30, max 365)"
// @Success 200 {object} httptransport.CategoryBreakdownResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/analytics/category-breakdown [get]
func (h Handler) GetCategoryBreakdownHandler(ctx context.Context, userID string, days int) (httptransport.CategoryBreakdownResponse, error) {
	items, err := h.CategoryBreakdown.Execute(ctx, userID, days)
	if err != nil {
		return httptransport.CategoryBreakdownResponse{}, err
	}
	resp := httptransport.CategoryBreakdownResponse{Items: make([]httptransport.CategoryShareDTO, 0, len(items))}
	for _, item := range items {
		resp.Items = append(resp.Items, httptransport.CategoryShareDTO{
			CategoryID:       item.CategoryID,
			Name:             item.Name,
			Kind:             string(item.Kind),
			HabitPoints:      item.HabitPoints,
			TaskPoints:       item.TaskPoints,
			TotalPoints:      item.TotalPoints,
			HabitCompletions: item.HabitCompletions,
			TaskCompletions:  item.TaskCompletions,
			Percentage:       item.Percentage,
		})
	}
	return resp, nil
}

// GetHabitCalendarHandler godoc
// @Summary Get a habit's monthly calendar
// @Description Returns the scheduled days of one habit in a month up to today.
// @Tags power-engine
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param habit_id path string true "Habit id"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} httptransport.HabitCalendarResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/habits/{habit_id}/calendar [get]
func (h Handler) GetHabitCalendarHandler(
	ctx context.Context,
	userID string,
	habitID string,
	year int,
	month int,
) (httptransport.HabitCalendarResponse, error) {
	calendar, err := h.HabitCalendar.Habit(ctx, userID, habitID, year, month)
	if err != nil {
		return httptransport.HabitCalendarResponse{}, err
	}
	resp := httptransport.HabitCalendarResponse{
		HabitID:        calendar.HabitID,
		HabitName:      calendar.HabitName,
		Year:           calendar.Year,
		Month:          int(calendar.Month),
		Days:           make([]httptransport.HabitCalendarDayDTO, 0, len(calendar.Days)),
		CompletionRate: calendar.CompletionRate,
	}
	for _, day := range calendar.Days {
		resp.Days = append(resp.Days, httptransport.HabitCalendarDayDTO{
			Date:          entities.DayKey(day.Date),
			Completed:     day.Completed,
			PointsAwarded: day.PointsAwarded,
			IsOffDay:      day.IsOffDay,
		})
	}
	return resp, nil
}

// GetMonthCalendarHandler godoc
// @Summary Get the all-habits monthly calendar
// @Description Returns due and completed habit counts per day of a month up to today.
// @Tags power-engine
// @Produce json
// @Param X-User-Id header string true "Acting user id"
// @Param year query int true "Year"
// @Param month query int true "Month (1-12)"
// @Success 200 {object} httptransport.MonthCalendarResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 401 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/habits/calendar [get]
func (h Handler) GetMonthCalendarHandler(
	ctx context.Context,
	userID string,
	year int,
	month int,
) (httptransport.MonthCalendarResponse, error) {
	calendar, err := h.HabitCalendar.Month(ctx, userID, year, month)
	if err != nil {
		return httptransport.MonthCalendarResponse{}, err
	}
	resp := httptransport.MonthCalendarResponse{
		Year:  calendar.Year,
		Month: int(calendar.Month),
		Days:  make([]httptransport.CalendarDayDTO, 0, len(calendar.Days)),
	}
	for _, day := range calendar.Days {
		resp.Days = append(resp.Days, httptransport.CalendarDayDTO{
			Date:            entities.DayKey(day.Date),
			HabitsDue:       day.HabitsDue,
			HabitsCompleted: day.HabitsCompleted,
			CompletionRate:  day.CompletionRate,
			HabitPoints:     day.HabitPoints,
		})
	}
	return resp, nil
}

// VerifyLedgerHandler godoc
// @Summary Verify a user ledger
// @Description Recomputes ledger invariants for a user and halts writes when they are violated.
// @Tags power-engine
// @Accept json
// @Produce json
// @Param user_id path string true "User id"
// @Success 200 {object} httptransport.LedgerReportResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/power/admin/users/{user_id}/verify [post]
func (h Handler) VerifyLedgerHandler(ctx context.Context, userID string) (httptransport.LedgerReportResponse, error) {
	report, err := h.VerifyLedger.Execute(ctx, userID)
	if err != nil {
		return httptransport.LedgerReportResponse{}, err
	}
	issues := append([]string{}, report.Issues...)
	return httptransport.LedgerReportResponse{
		UserID:           report.UserID,
		TotalPowerPoints: report.TotalPowerPoints,
		SumOfDailyPoints: report.SumOfDailyPoints,
		DaysChecked:      report.DaysChecked,
		Consistent:       report.Consistent(),
		Issues:           issues,
		Halted:           report.Halted,
	}, nil
}

func (h Handler) logFailure(message string, event string, userID string, err error) {
	application.ResolveLogger(h.Logger).Warn(message,
		"event", event,
		"module", "progression/power-engine",
		"layer", "transport",
		"user_id", userID,
		"error", err.Error(),
	)
}

func mapCommitResult(item entities.CommitResult) httptransport.CommitResultDTO {
	dto := httptransport.CommitResultDTO{
		Kind:               string(item.Kind),
		Date:               entities.DayKey(item.Date),
		PointsAwarded:      item.PointsAwarded,
		NewTotalPower:      item.NewTotalPower,
		DailyPointsToday:   item.DailyPointsToday,
		DailyMinimumMet:    item.DailyMinimumMet,
		CurrentStreak:      item.CurrentStreak,
		BestStreak:         item.BestStreak,
		HabitStreak:        item.HabitStreak,
		AllHabitsCompleted: item.AllHabitsCompleted,
		CommittedAt:        item.CommittedAt.UTC().Format(time.RFC3339),
	}
	if item.NewTransformation != nil {
		dto.NewTransformation = &httptransport.TransformationDTO{
			NewTier:        string(item.NewTransformation.NewTier),
			NewTierName:    item.NewTransformation.NewTierName,
			NewTotalPoints: item.NewTransformation.NewTotalPoints,
		}
	}
	if item.Breakdown != nil {
		dto.Breakdown = &httptransport.PointBreakdownDTO{
			BasePoints:         item.Breakdown.BasePoints,
			CategoryMultiplier: item.Breakdown.CategoryMultiplier,
			EffectivePoints:    item.Breakdown.EffectivePoints,
			StreakDays:         item.Breakdown.StreakDays,
			StreakBonusPct:     item.Breakdown.StreakBonusPct,
			StreakBonusPoints:  item.Breakdown.StreakBonusPoints,
			ConsistencyPending: item.Breakdown.ConsistencyPending,
			Awarded:            item.Breakdown.Awarded,
		}
	}
	return dto
}

func mapTier(item entities.TierThreshold) httptransport.TierDTO {
	return httptransport.TierDTO{
		TierID:         string(item.TierID),
		Name:           item.Name,
		PointsRequired: item.PointsRequired,
	}
}

func parseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, nil
	}
	day, err := entities.ParseDay(raw)
	if err != nil {
		return time.Time{}, domainerrors.ErrInvalidInput
	}
	return day, nil
}
