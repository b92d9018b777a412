package jobs

import (
	"context"

	"github.com/Simplici0/printfleet/internal/pricing"
)

// Side is one half of a comparison, referring to stored equipment and material.
type Side struct {
	EquipmentID  string
	MaterialID   string
	PrintHours   float64
	PrintMinutes float64
	WeightGrams  float64
	FailureRate  float64
}

// Compare costs two sides with the account's settings.
func (s *Service) Compare(ctx context.Context, a, b Side) (pricing.Comparison, error) {
	sa, err := s.scenario(ctx, a)
	if err != nil {
		return pricing.Comparison{}, err
	}
	sb, err := s.scenario(ctx, b)
	if err != nil {
		return pricing.Comparison{}, err
	}
	return pricing.Compare(sa, sb)
}

func (s *Service) scenario(ctx context.Context, side Side) (pricing.Scenario, error) {
	if side.EquipmentID == "" || side.MaterialID == "" {
		return pricing.Scenario{}, ErrSelectionRequired
	}
	refs, err := s.resolve(ctx, side.EquipmentID, side.MaterialID, "")
	if err != nil {
		return pricing.Scenario{}, err
	}
	return pricing.Scenario{
		Machine:      refs.equipment.Machine(),
		Spool:        refs.material.Spool(),
		Settings:     refs.settings.Pricing(),
		PrintHours:   side.PrintHours,
		PrintMinutes: side.PrintMinutes,
		WeightGrams:  side.WeightGrams,
		FailureRate:  side.FailureRate,
	}, nil
}
