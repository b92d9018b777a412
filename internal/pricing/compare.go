package pricing

import "math"

// TieEpsilon is the largest absolute difference, in currency units, reported as a tie.
const TieEpsilon = 0.05

// Winner identifies the cheaper side of a comparison.
type Winner string

const (
	WinnerA   Winner = "A"
	WinnerB   Winner = "B"
	WinnerTie Winner = "Tie"
)

// Scenario is one side of a comparison: a machine, a spool and the run parameters.
// Labor, markup and additional items do not take part in comparisons.
type Scenario struct {
	Machine      Machine
	Spool        Spool
	Settings     Settings
	PrintHours   float64
	PrintMinutes float64
	WeightGrams  float64
	FailureRate  float64
}

// Comparison is the outcome of Compare.
type Comparison struct {
	A           Breakdown `json:"a"`
	B           Breakdown `json:"b"`
	TotalA      float64   `json:"total_a"`
	TotalB      float64   `json:"total_b"`
	Diff        float64   `json:"diff"`
	DiffPercent float64   `json:"diff_percent"`
	Winner      Winner    `json:"winner"`
}

// Compare costs both scenarios with the machine and material terms of Calculate.
// DiffPercent is relative to the more expensive side.
func Compare(a, b Scenario) (Comparison, error) {
	ba, err := a.cost()
	if err != nil {
		return Comparison{}, err
	}
	bb, err := b.cost()
	if err != nil {
		return Comparison{}, err
	}

	totalA := ba.MachineTotalCost + ba.MaterialCost
	totalB := bb.MachineTotalCost + bb.MaterialCost
	diff := math.Abs(totalA - totalB)

	pct := 0.0
	if top := math.Max(totalA, totalB); top > 0 {
		pct = diff / top * 100.0
	}

	winner := WinnerTie
	switch {
	case diff < TieEpsilon:
	case totalA < totalB:
		winner = WinnerA
	default:
		winner = WinnerB
	}

	return Comparison{
		A:           ba,
		B:           bb,
		TotalA:      totalA,
		TotalB:      totalB,
		Diff:        diff,
		DiffPercent: pct,
		Winner:      winner,
	}, nil
}

func (s Scenario) cost() (Breakdown, error) {
	if err := s.Machine.validate(); err != nil {
		return Breakdown{}, err
	}
	if err := s.Spool.validate(); err != nil {
		return Breakdown{}, err
	}
	hours := s.PrintHours + s.PrintMinutes/60.0
	return machineAndMaterial(s.Machine, s.Spool, s.Settings, hours, s.WeightGrams, s.FailureRate), nil
}
