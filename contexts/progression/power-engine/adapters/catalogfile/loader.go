package catalogfile

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	domainerrors "powertrack/contexts/progression/power-engine/domain/errors"

	"gopkg.in/yaml.v3"
)

// File is a YAML catalog export: the categories, habits and tasks the
// ledger scores against. Dates use the ledger day layout.
type File struct {
	Categories []CategorySpec `yaml:"categories"`
	Habits     []HabitSpec    `yaml:"habits"`
	Tasks      []TaskSpec     `yaml:"tasks"`
}

type CategorySpec struct {
	ID         string  `yaml:"id"`
	UserID     string  `yaml:"user_id"`
	Name       string  `yaml:"name"`
	Kind       string  `yaml:"kind"`
	Multiplier float64 `yaml:"multiplier"`
}

type HabitSpec struct {
	ID          string   `yaml:"id"`
	UserID      string   `yaml:"user_id"`
	CategoryID  string   `yaml:"category_id"`
	Name        string   `yaml:"name"`
	BasePoints  int64    `yaml:"base_points"`
	Frequency   string   `yaml:"frequency"`
	CustomDays  []string `yaml:"custom_days"`
	IsTemporary bool     `yaml:"is_temporary"`
	StartDate   string   `yaml:"start_date"`
	EndDate     string   `yaml:"end_date"`
	Archived    bool     `yaml:"archived"`
}

type TaskSpec struct {
	ID         string `yaml:"id"`
	UserID     string `yaml:"user_id"`
	CategoryID string `yaml:"category_id"`
	Title      string `yaml:"title"`
	BasePoints int64  `yaml:"base_points"`
}

type Catalog struct {
	Categories []entities.Category
	Habits     []entities.Habit
	Tasks      []entities.Task
}

// Writer is implemented by catalog stores that accept imports.
type Writer interface {
	UpsertCategory(ctx context.Context, category entities.Category) error
	UpsertHabit(ctx context.Context, habit entities.Habit) error
	UpsertTask(ctx context.Context, task entities.Task) error
}

func Load(path string) (Catalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	return Parse(b, time.Now().UTC())
}

// Parse validates every entry. A habit without start_date starts on the
// day of the import.
func Parse(b []byte, now time.Time) (Catalog, error) {
	var file File
	if err := yaml.Unmarshal(b, &file); err != nil {
		return Catalog{}, fmt.Errorf("%w: %v", domainerrors.ErrInvalidInput, err)
	}

	var out Catalog
	for _, spec := range file.Categories {
		category, err := spec.toEntity()
		if err != nil {
			return Catalog{}, err
		}
		out.Categories = append(out.Categories, category)
	}
	for _, spec := range file.Habits {
		habit, err := spec.toEntity(now)
		if err != nil {
			return Catalog{}, err
		}
		out.Habits = append(out.Habits, habit)
	}
	for _, spec := range file.Tasks {
		task, err := spec.toEntity(now)
		if err != nil {
			return Catalog{}, err
		}
		out.Tasks = append(out.Tasks, task)
	}
	return out, nil
}

// Import writes categories first so habits and tasks resolve their
// multipliers as soon as they exist.
func Import(ctx context.Context, writer Writer, catalog Catalog) error {
	for _, category := range catalog.Categories {
		if err := writer.UpsertCategory(ctx, category); err != nil {
			return fmt.Errorf("category %s: %w", category.CategoryID, err)
		}
	}
	for _, habit := range catalog.Habits {
		if err := writer.UpsertHabit(ctx, habit); err != nil {
			return fmt.Errorf("habit %s: %w", habit.HabitID, err)
		}
	}
	for _, task := range catalog.Tasks {
		if err := writer.UpsertTask(ctx, task); err != nil {
			return fmt.Errorf("task %s: %w", task.TaskID, err)
		}
	}
	return nil
}

func (s CategorySpec) toEntity() (entities.Category, error) {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.UserID) == "" {
		return entities.Category{}, invalid("category", s.ID, "id and user_id are required")
	}
	kind := entities.CategoryKind(strings.ToLower(strings.TrimSpace(s.Kind)))
	switch kind {
	case entities.CategoryKindSideBusiness, entities.CategoryKindWork,
		entities.CategoryKindPersonal, entities.CategoryKindRecreational:
	default:
		return entities.Category{}, invalid("category", s.ID, "unknown kind "+s.Kind)
	}
	if s.Multiplier < 0 {
		return entities.Category{}, invalid("category", s.ID, "multiplier must not be negative")
	}
	return entities.Category{
		CategoryID: strings.TrimSpace(s.ID),
		UserID:     strings.TrimSpace(s.UserID),
		Name:       s.Name,
		Kind:       kind,
		Multiplier: s.Multiplier,
	}, nil
}

func (s HabitSpec) toEntity(now time.Time) (entities.Habit, error) {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.UserID) == "" {
		return entities.Habit{}, invalid("habit", s.ID, "id and user_id are required")
	}
	if s.BasePoints < 0 {
		return entities.Habit{}, invalid("habit", s.ID, "base_points must not be negative")
	}

	habit := entities.Habit{
		HabitID:     strings.TrimSpace(s.ID),
		UserID:      strings.TrimSpace(s.UserID),
		CategoryID:  strings.TrimSpace(s.CategoryID),
		Name:        s.Name,
		BasePoints:  s.BasePoints,
		Frequency:   entities.Frequency(strings.ToLower(strings.TrimSpace(s.Frequency))),
		IsTemporary: s.IsTemporary,
		StartDate:   entities.DateOf(now),
		Archived:    s.Archived,
		CreatedAt:   now,
	}
	switch habit.Frequency {
	case "":
		habit.Frequency = entities.FrequencyDaily
	case entities.FrequencyDaily, entities.FrequencyWeekdays:
	case entities.FrequencyCustom:
		if len(s.CustomDays) == 0 {
			return entities.Habit{}, invalid("habit", s.ID, "custom frequency needs custom_days")
		}
		for _, name := range s.CustomDays {
			day, ok := entities.ParseWeekday(name)
			if !ok {
				return entities.Habit{}, invalid("habit", s.ID, "unknown weekday "+name)
			}
			habit.CustomDays = append(habit.CustomDays, day)
		}
	default:
		return entities.Habit{}, invalid("habit", s.ID, "unknown frequency "+s.Frequency)
	}

	if s.StartDate != "" {
		start, err := entities.ParseDay(s.StartDate)
		if err != nil {
			return entities.Habit{}, invalid("habit", s.ID, "bad start_date")
		}
		habit.StartDate = start
	}
	if s.EndDate != "" {
		end, err := entities.ParseDay(s.EndDate)
		if err != nil || end.Before(habit.StartDate) {
			return entities.Habit{}, invalid("habit", s.ID, "bad end_date")
		}
		habit.EndDate = &end
	}
	return habit, nil
}

func (s TaskSpec) toEntity(now time.Time) (entities.Task, error) {
	if strings.TrimSpace(s.ID) == "" || strings.TrimSpace(s.UserID) == "" {
		return entities.Task{}, invalid("task", s.ID, "id and user_id are required")
	}
	if s.BasePoints < 0 {
		return entities.Task{}, invalid("task", s.ID, "base_points must not be negative")
	}
	return entities.Task{
		TaskID:     strings.TrimSpace(s.ID),
		UserID:     strings.TrimSpace(s.UserID),
		CategoryID: strings.TrimSpace(s.CategoryID),
		Title:      s.Title,
		BasePoints: s.BasePoints,
		CreatedAt:  now,
	}, nil
}

func invalid(kind string, id string, reason string) error {
	return fmt.Errorf("%w: %s %q: %s", domainerrors.ErrInvalidInput, kind, id, reason)
}
