package root

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	powerengine "powertrack/contexts/progression/power-engine"
	"powertrack/contexts/progression/power-engine/application/commands"
	"powertrack/contexts/progression/power-engine/domain/entities"
	"powertrack/internal/app/bootstrap"

	"github.com/spf13/cobra"
)

func useMemoryApp(t *testing.T) powerengine.Module {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	module := powerengine.NewInMemoryModule(nil, logger)
	module.Store.SetNow(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC))
	module.Store.SeedHabit(entities.Habit{
		HabitID:    "habit-1",
		UserID:     "user-1",
		Name:       "Write",
		BasePoints: 120,
		Frequency:  entities.FrequencyDaily,
		StartDate:  time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
	})

	previous := openApp
	openApp = func() (*bootstrap.Resources, func(), error) {
		return &bootstrap.Resources{Module: module, Logger: logger}, func() {}, nil
	}
	t.Cleanup(func() { openApp = previous })
	return module
}

func run(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestLadderListsEveryTier(t *testing.T) {
	useMemoryApp(t)
	out, err := run(t, newLadderCmd())
	if err != nil {
		t.Fatalf("ladder: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 7 {
		t.Fatalf("expected 7 tiers, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[0], "[x] base") || !strings.HasPrefix(lines[1], "[ ] tier1") {
		t.Fatalf("unexpected ladder output:\n%s", out)
	}
}

func TestStatusAfterCompletion(t *testing.T) {
	module := useMemoryApp(t)
	if _, err := module.Handler.Ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{
		UserID:  "user-1",
		HabitID: "habit-1",
	}); err != nil {
		t.Fatalf("complete habit: %v", err)
	}

	out, err := run(t, newStatusCmd(), "--user", "user-1")
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	// 120 for the habit plus the 60 consistency bonus.
	if !strings.Contains(out, "Total power:   180") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
	if !strings.Contains(out, "Habits today:  1 / 1") {
		t.Fatalf("unexpected status output:\n%s", out)
	}
}

func TestStatusRequiresUser(t *testing.T) {
	useMemoryApp(t)
	if _, err := run(t, newStatusCmd()); err == nil {
		t.Fatal("expected missing --user to fail")
	}
}

func TestVerifyReportsConsistentLedger(t *testing.T) {
	module := useMemoryApp(t)
	if _, err := module.Handler.Ledger.CompleteHabit(context.Background(), commands.CompleteHabitCommand{
		UserID:  "user-1",
		HabitID: "habit-1",
	}); err != nil {
		t.Fatalf("complete habit: %v", err)
	}

	out, err := run(t, newVerifyCmd(), "--user", "user-1")
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ledger is consistent") {
		t.Fatalf("unexpected verify output:\n%s", out)
	}
}

func TestVerifyFailsOnCorruptedLedger(t *testing.T) {
	module := useMemoryApp(t)
	module.Store.SeedProgression(entities.UserProgression{
		UserID:           "user-1",
		TotalPowerPoints: 40,
		CurrentTier:      entities.TierBase,
		Version:          1,
	})

	out, err := run(t, newVerifyCmd(), "--user", "user-1")
	if err == nil {
		t.Fatalf("expected inconsistent ledger error, got output:\n%s", out)
	}
	if !strings.Contains(out, "user is halted") {
		t.Fatalf("expected user to be halted:\n%s", out)
	}
}

func TestCloseoutSummarises(t *testing.T) {
	useMemoryApp(t)
	out, err := run(t, newCloseoutCmd())
	if err != nil {
		t.Fatalf("closeout: %v", err)
	}
	if !strings.Contains(out, "users 0, bonuses granted 0") {
		t.Fatalf("unexpected closeout output:\n%s", out)
	}
}

func writeCatalog(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	content := `
categories:
  - id: cat-work
    user_id: user-1
    name: Work
    kind: work
habits:
  - id: habit-2
    user_id: user-1
    category_id: cat-work
    name: Review
    base_points: 30
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	return path
}

func TestCatalogImportRefusesMemoryLedger(t *testing.T) {
	module := useMemoryApp(t)
	out, err := run(t, newCatalogCmd(), "import", writeCatalog(t))
	if err == nil || !strings.Contains(err.Error(), "CATALOG_FILE") {
		t.Fatalf("expected memory import to be refused, got %v:\n%s", err, out)
	}
	if _, err := module.Store.GetHabit(context.Background(), "habit-2"); err == nil {
		t.Fatal("refused import must not write habits")
	}
}

func TestCatalogImportValidateOnly(t *testing.T) {
	module := useMemoryApp(t)
	out, err := run(t, newCatalogCmd(), "import", "--validate-only", writeCatalog(t))
	if err != nil {
		t.Fatalf("validate: %v", err)
	}
	if !strings.Contains(out, "valid: 1 categories, 1 habits, 0 tasks") {
		t.Fatalf("unexpected validate output:\n%s", out)
	}
	if _, err := module.Store.GetHabit(context.Background(), "habit-2"); err == nil {
		t.Fatal("validate-only must not write habits")
	}
}

func TestCatalogImportRejectsInvalidFile(t *testing.T) {
	useMemoryApp(t)
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte("habits:\n  - id: habit-9\n    base_points: 5\n"), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := run(t, newCatalogCmd(), "import", "--validate-only", path); err == nil {
		t.Fatal("a habit without a user must be rejected")
	}
}
