package services_test

import (
	"testing"

	"powertrack/contexts/progression/power-engine/domain/services"
)

func TestCalculate(t *testing.T) {
	cases := []struct {
		name       string
		base       int64
		multiplier float64
		bonusPct   float64
		wantEff    int64
		wantBonus  int64
		wantTotal  int64
	}{
		{name: "plain", base: 10, multiplier: 1.0, wantEff: 10, wantTotal: 10},
		{name: "side business", base: 40, multiplier: 1.5, wantEff: 60, wantTotal: 60},
		{name: "three day streak", base: 10, multiplier: 1.0, bonusPct: 0.10, wantEff: 10, wantBonus: 1, wantTotal: 11},
		{name: "half rounds up", base: 15, multiplier: 0.7, wantEff: 11, wantTotal: 11},
		{name: "bonus on rounded base", base: 25, multiplier: 0.5, bonusPct: 0.25, wantEff: 13, wantBonus: 3, wantTotal: 16},
		{name: "thirty day streak", base: 20, multiplier: 1.0, bonusPct: 0.50, wantEff: 20, wantBonus: 10, wantTotal: 30},
		{name: "zero base", base: 0, multiplier: 1.5, bonusPct: 0.5, wantTotal: 0},
		{name: "negative base clamps", base: -10, multiplier: 1.0, wantTotal: 0},
	}
	for _, tc := range cases {
		awarded, breakdown := services.Calculate(tc.base, tc.multiplier, tc.bonusPct, false)
		if awarded != tc.wantTotal || breakdown.Awarded != tc.wantTotal {
			t.Fatalf("%s: expected %d awarded, got %d (%+v)", tc.name, tc.wantTotal, awarded, breakdown)
		}
		if breakdown.EffectivePoints != tc.wantEff || breakdown.StreakBonusPoints != tc.wantBonus {
			t.Fatalf("%s: unexpected breakdown %+v", tc.name, breakdown)
		}
	}
}

func TestCalculateRecordsPendingConsistencyOnly(t *testing.T) {
	pending, breakdown := services.Calculate(10, 1.0, 0, true)
	settled, _ := services.Calculate(10, 1.0, 0, false)
	if pending != settled {
		t.Fatalf("pending flag must not change the award: %d vs %d", pending, settled)
	}
	if !breakdown.ConsistencyPending {
		t.Fatal("expected pending flag in breakdown")
	}
}

func TestStreakBonusTable(t *testing.T) {
	table := services.DefaultStreakBonusTable()
	cases := map[int]float64{
		0:   0,
		2:   0,
		3:   0.10,
		6:   0.10,
		7:   0.25,
		29:  0.25,
		30:  0.50,
		400: 0.50,
	}
	for days, want := range cases {
		if got := table.PctFor(days); got != want {
			t.Fatalf("%d days: expected %v, got %v", days, want, got)
		}
	}
}

func TestConsistencyBonus(t *testing.T) {
	if got := services.ConsistencyBonus(30, 0.5); got != 15 {
		t.Fatalf("expected 15, got %d", got)
	}
	if got := services.ConsistencyBonus(15, 0.5); got != 8 {
		t.Fatalf("expected 8 (7.5 rounded up), got %d", got)
	}
	if got := services.ConsistencyBonus(0, 0.5); got != 0 {
		t.Fatalf("expected 0 for no habit points, got %d", got)
	}
	if got := services.ConsistencyBonus(40, 0); got != 0 {
		t.Fatalf("expected 0 for zero factor, got %d", got)
	}
}
