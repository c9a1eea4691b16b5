package queries

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

// CategoryShare is the habit and task points one category earned in the
// window. Points of items without a known category land in the entry with
// an empty CategoryID.
type CategoryShare struct {
	CategoryID       string
	Name             string
	Kind             entities.CategoryKind
	HabitPoints      int64
	TaskPoints       int64
	TotalPoints      int64
	HabitCompletions int
	TaskCompletions  int
	Percentage       float64
}

type CategoryBreakdownUseCase struct {
	Catalog ports.Catalog
	Ledger  ports.LedgerReader
	Clock   ports.Clock
	Policy  services.Policy
}

// Execute covers the last `days` days including today with the same
// default and cap as the power history. Consistency bonuses belong to no
// category and are left out. Entries are ordered by points, largest first.
func (uc CategoryBreakdownUseCase) Execute(ctx context.Context, userID string, days int) ([]CategoryShare, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return nil, domainerrors.ErrInvalidInput
	}
	if _, found, err := uc.Ledger.GetProgression(ctx, userID); err != nil {
		return nil, err
	} else if !found {
		return nil, domainerrors.ErrUserNotFound
	}

	policy := uc.Policy.WithDefaults()
	if days <= 0 {
		days = policy.HistoryDefaultDays
	}
	if days > policy.HistoryMaxDays {
		days = policy.HistoryMaxDays
	}
	today := entities.DateOf(resolveNow(uc.Clock))
	window := ports.DayRange{From: entities.AddDays(today, -(days - 1)), To: today}

	records, err := uc.Ledger.ListHabitRecordsByUser(ctx, userID, window)
	if err != nil {
		return nil, err
	}
	completions, err := uc.Ledger.ListTaskCompletions(ctx, userID, window)
	if err != nil {
		return nil, err
	}

	resolver := categoryResolver{
		catalog:    uc.Catalog,
		habits:     make(map[string]string),
		tasks:      make(map[string]string),
		categories: make(map[string]*entities.Category),
	}
	shares := make(map[string]*CategoryShare)
	shareFor := func(categoryID string) (*CategoryShare, error) {
		if share, ok := shares[categoryID]; ok {
			return share, nil
		}
		share := &CategoryShare{CategoryID: categoryID}
		category, err := resolver.category(ctx, categoryID)
		if err != nil {
			return nil, err
		}
		if category != nil {
			share.Name = category.Name
			share.Kind = category.Kind
		}
		shares[categoryID] = share
		return share, nil
	}

	for _, record := range records {
		if !record.Completed {
			continue
		}
		categoryID, err := resolver.habitCategory(ctx, record.HabitID)
		if err != nil {
			return nil, err
		}
		share, err := shareFor(categoryID)
		if err != nil {
			return nil, err
		}
		share.HabitPoints += record.PointsAwarded
		share.HabitCompletions++
	}
	for _, completion := range completions {
		categoryID, err := resolver.taskCategory(ctx, completion.TaskID)
		if err != nil {
			return nil, err
		}
		share, err := shareFor(categoryID)
		if err != nil {
			return nil, err
		}
		share.TaskPoints += completion.PointsAwarded
		share.TaskCompletions++
	}

	var grandTotal int64
	items := make([]CategoryShare, 0, len(shares))
	for _, share := range shares {
		share.TotalPoints = share.HabitPoints + share.TaskPoints
		grandTotal += share.TotalPoints
		items = append(items, *share)
	}
	for i := range items {
		if grandTotal > 0 {
			items[i].Percentage = math.Round(float64(items[i].TotalPoints)/float64(grandTotal)*1000) / 10
		}
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalPoints == items[j].TotalPoints {
			return items[i].CategoryID < items[j].CategoryID
		}
		return items[i].TotalPoints > items[j].TotalPoints
	})
	return items, nil
}

// categoryResolver caches catalog lookups for one breakdown. Habits, tasks
// and categories that no longer exist resolve to the empty category.
type categoryResolver struct {
	catalog    ports.Catalog
	habits     map[string]string
	tasks      map[string]string
	categories map[string]*entities.Category
}

func (r categoryResolver) habitCategory(ctx context.Context, habitID string) (string, error) {
	if categoryID, ok := r.habits[habitID]; ok {
		return categoryID, nil
	}
	habit, err := r.catalog.GetHabit(ctx, habitID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return "", err
	}
	categoryID := strings.TrimSpace(habit.CategoryID)
	r.habits[habitID] = categoryID
	return categoryID, nil
}

func (r categoryResolver) taskCategory(ctx context.Context, taskID string) (string, error) {
	if categoryID, ok := r.tasks[taskID]; ok {
		return categoryID, nil
	}
	task, err := r.catalog.GetTask(ctx, taskID)
	if err != nil && !errors.Is(err, domainerrors.ErrNotFound) {
		return "", err
	}
	categoryID := strings.TrimSpace(task.CategoryID)
	r.tasks[taskID] = categoryID
	return categoryID, nil
}

func (r categoryResolver) category(ctx context.Context, categoryID string) (*entities.Category, error) {
	if categoryID == "" {
		return nil, nil
	}
	if category, ok := r.categories[categoryID]; ok {
		return category, nil
	}
	category, err := r.catalog.GetCategory(ctx, categoryID)
	if err != nil {
		if errors.Is(err, domainerrors.ErrNotFound) {
			r.categories[categoryID] = nil
			return nil, nil
		}
		return nil, err
	}
	r.categories[categoryID] = &category
	return &category, nil
}
