package ports

import (
	"context"
	"time"

	"powertrack/contexts/progression/power-engine/domain/entities"
	contractsv1 "powertrack/contracts/gen/events/v1"
)

// Catalog exposes the habits, tasks and categories maintained by adjacent
// services. The engine only reads from it.
type Catalog interface {
	GetHabit(ctx context.Context, habitID string) (entities.Habit, error)
	ListHabitsByUser(ctx context.Context, userID string) ([]entities.Habit, error)
	GetTask(ctx context.Context, taskID string) (entities.Task, error)
	GetCategory(ctx context.Context, categoryID string) (entities.Category, error)
}

// DayRange is an inclusive range of calendar days. A zero bound is open.
type DayRange struct {
	From time.Time
	To   time.Time
}

// LedgerReader reads ledger state. Missing rows are reported with found=false
// rather than an error, and List* results are ordered by day ascending.
type LedgerReader interface {
	GetProgression(ctx context.Context, userID string) (entities.UserProgression, bool, error)
	ListUserIDs(ctx context.Context) ([]string, error)
	GetDayLog(ctx context.Context, userID string, day time.Time) (entities.DayLog, bool, error)
	ListDayLogs(ctx context.Context, userID string, window DayRange) ([]entities.DayLog, error)
	GetOffDay(ctx context.Context, userID string, day time.Time) (entities.OffDayRecord, bool, error)
	ListOffDays(ctx context.Context, userID string, window DayRange) ([]entities.OffDayRecord, error)
	GetHabitRecord(ctx context.Context, habitID string, day time.Time) (entities.HabitDayRecord, bool, error)
	ListHabitRecords(ctx context.Context, habitID string, window DayRange) ([]entities.HabitDayRecord, error)
	ListHabitRecordsByUserDay(ctx context.Context, userID string, day time.Time) ([]entities.HabitDayRecord, error)
	ListHabitRecordsByUser(ctx context.Context, userID string, window DayRange) ([]entities.HabitDayRecord, error)
	GetTaskCompletion(ctx context.Context, completionID string) (entities.TaskCompletion, bool, error)
	ListTaskCompletionsByUserDay(ctx context.Context, userID string, day time.Time) ([]entities.TaskCompletion, error)
	ListTaskCompletions(ctx context.Context, userID string, window DayRange) ([]entities.TaskCompletion, error)
	ListSnapshots(ctx context.Context, userID string, window DayRange) ([]entities.PowerSnapshot, error)
	ListTierUnlocks(ctx context.Context, userID string) ([]entities.TierUnlock, error)
}

// LedgerMutation is everything one commit changes. ApplyCommit persists it
// as a single unit or not at all.
type LedgerMutation struct {
	Progression     entities.UserProgression
	ExpectedVersion int64
	DayLog          entities.DayLog
	HabitRecord     *entities.HabitDayRecord
	TaskCompletion  *entities.TaskCompletion
	OffDay          *entities.OffDayRecord
	Snapshot        entities.PowerSnapshot
	TierUnlocks     []entities.TierUnlock
	Events          []EventEnvelope
}

type LedgerWriter interface {
	// ApplyCommit returns ErrConcurrentUpdate when the stored version differs
	// from ExpectedVersion or a natural key was written concurrently.
	ApplyCommit(ctx context.Context, mutation LedgerMutation) error
	HaltUser(ctx context.Context, userID string, reason string, at time.Time) error
}

type LedgerRepository interface {
	LedgerReader
	LedgerWriter
}

// UserLocker serialises commits for one user. The returned release func
// must be called exactly once.
type UserLocker interface {
	LockUser(ctx context.Context, userID string) (func(), error)
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

type EventEnvelope = contractsv1.Envelope

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type EventSubscriber interface {
	Subscribe(
		ctx context.Context,
		topic string,
		consumerGroup string,
		handler func(context.Context, EventEnvelope) error,
	) error
}
