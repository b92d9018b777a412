package pricing

import (
	"errors"
	"testing"
)

func scenario() Scenario {
	return Scenario{
		Machine:     Machine{AcquisitionCost: 2000, LifespanHours: 3000, PowerWatts: 300, MaintenanceCostPerHour: 2},
		Spool:       Spool{Price: 120, WeightGrams: 1000},
		Settings:    Settings{ElectricityCostPerKWh: 0.85},
		PrintHours:  2,
		WeightGrams: 50,
		FailureRate: 10,
	}
}

func TestCompare_IdenticalScenariosTie(t *testing.T) {
	a := scenario()

	cmp, err := Compare(a, a)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Winner != WinnerTie {
		t.Fatalf("winner = %q, want Tie", cmp.Winner)
	}
	if cmp.Diff >= TieEpsilon {
		t.Fatalf("diff = %v, want < %v", cmp.Diff, TieEpsilon)
	}
	nearlyEqual(t, "totalA", cmp.TotalA, 4.0/3.0+0.51+4.0+6.6)
}

func TestCompare_PicksCheaperSide(t *testing.T) {
	a := scenario()
	b := scenario()
	b.Spool.Price = 60

	cmp, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Winner != WinnerB {
		t.Fatalf("winner = %q, want B", cmp.Winner)
	}
	nearlyEqual(t, "diff", cmp.Diff, 3.3)
	nearlyEqual(t, "diffPercent", cmp.DiffPercent, 3.3/cmp.TotalA*100)

	reversed, err := Compare(b, a)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if reversed.Winner != WinnerA {
		t.Fatalf("reversed winner = %q, want A", reversed.Winner)
	}
}

func TestCompare_SmallDifferenceIsTie(t *testing.T) {
	a := scenario()
	b := scenario()
	b.WeightGrams = 50.3 // 0.3g * 0.132/g = 0.0396

	cmp, err := Compare(a, b)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.Winner != WinnerTie {
		t.Fatalf("winner = %q, want Tie (diff %v)", cmp.Winner, cmp.Diff)
	}
}

func TestCompare_IgnoresZeroTotalsAndRejectsInvalidProfiles(t *testing.T) {
	a := scenario()
	a.PrintHours, a.WeightGrams = 0, 0

	cmp, err := Compare(a, a)
	if err != nil {
		t.Fatalf("Compare: %v", err)
	}
	if cmp.DiffPercent != 0 {
		t.Fatalf("diffPercent = %v, want 0", cmp.DiffPercent)
	}

	b := scenario()
	b.Machine.LifespanHours = 0
	if _, err := Compare(a, b); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}
