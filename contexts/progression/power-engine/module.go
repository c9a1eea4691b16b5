// Package powerengine turns habit and task completions into an append-only
// power ledger: points, streaks, daily logs and the transformation ladder.
package powerengine

import (
	"log/slog"

	httpadapter "powertrack/contexts/progression/power-engine/adapters/http"
	"powertrack/contexts/progression/power-engine/adapters/memory"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/application/queries"
	"powertrack/contexts/progression/power-engine/application/workers"
	"powertrack/contexts/progression/power-engine/domain/services"
	"powertrack/contexts/progression/power-engine/ports"
)

type Module struct {
	Handler  httpadapter.Handler
	Relay    workers.OutboxRelay
	Closeout workers.DayCloseout
	Store    *memory.Store
}

type Dependencies struct {
	Catalog         ports.Catalog
	Ledger          ports.LedgerRepository
	Outbox          ports.OutboxRepository
	Publisher       ports.EventPublisher
	Locker          ports.UserLocker
	Clock           ports.Clock
	IDGenerator     ports.IDGenerator
	Policy          services.Policy
	Ladder          services.Ladder
	HaltOnViolation bool
	OutboxBatchSize int
	Logger          *slog.Logger
}

func NewModule(deps Dependencies) Module {
	ledger := commands.LedgerUseCase{
		Catalog: deps.Catalog,
		Ledger:  deps.Ledger,
		Locker:  deps.Locker,
		Clock:   deps.Clock,
		IDGen:   deps.IDGenerator,
		Policy:  deps.Policy,
		Ladder:  deps.Ladder,
		Logger:  deps.Logger,
	}
	verify := queries.VerifyLedgerUseCase{
		Ledger:          deps.Ledger,
		Clock:           deps.Clock,
		Ladder:          deps.Ladder,
		HaltOnViolation: deps.HaltOnViolation,
		Logger:          deps.Logger,
	}

	return Module{
		Handler: httpadapter.Handler{
			Ledger: ledger,
			PowerState: queries.PowerStateUseCase{
				Ledger: deps.Ledger,
				Clock:  deps.Clock,
				Policy: deps.Policy,
				Ladder: deps.Ladder,
				Logger: deps.Logger,
			},
			TierLadder: queries.TierLadderUseCase{
				Ledger: deps.Ledger,
				Ladder: deps.Ladder,
			},
			PowerHistory: queries.PowerHistoryUseCase{
				Ledger: deps.Ledger,
				Clock:  deps.Clock,
				Policy: deps.Policy,
			},
			HabitStats: queries.HabitStatsUseCase{
				Catalog: deps.Catalog,
				Ledger:  deps.Ledger,
				Clock:   deps.Clock,
				Policy:  deps.Policy,
			},
			WeeklySummary: queries.WeeklySummaryUseCase{
				Ledger: deps.Ledger,
				Clock:  deps.Clock,
				Policy: deps.Policy,
			},
			CategoryBreakdown: queries.CategoryBreakdownUseCase{
				Catalog: deps.Catalog,
				Ledger:  deps.Ledger,
				Clock:   deps.Clock,
				Policy:  deps.Policy,
			},
			HabitCalendar: queries.HabitCalendarUseCase{
				Catalog: deps.Catalog,
				Ledger:  deps.Ledger,
				Clock:   deps.Clock,
			},
			VerifyLedger: verify,
			Logger:       deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
		Closeout: workers.DayCloseout{
			Users:    deps.Ledger,
			Ledger:   ledger,
			Verifier: verify,
			Clock:    deps.Clock,
			Logger:   deps.Logger,
		},
	}
}

// NewInMemoryModule wires every port to one in-process store. Catalog rows
// are added with the Store's Seed methods.
func NewInMemoryModule(publisher ports.EventPublisher, logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Catalog:         store,
		Ledger:          store,
		Outbox:          store,
		Publisher:       publisher,
		Locker:          memory.NewUserLocker(),
		Clock:           store,
		IDGenerator:     store,
		Policy:          services.DefaultPolicy(),
		Ladder:          services.DefaultLadder(),
		HaltOnViolation: true,
		Logger:          logger,
	})
	module.Store = store
	return module
}
