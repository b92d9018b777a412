package pricing

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidInput is returned when an equipment or material profile would make the
// calculation divide by zero or produce a non-finite value.
var ErrInvalidInput = errors.New("invalid pricing input")

// Machine represents the equipment-level inputs used to estimate machine costs.
type Machine struct {
	AcquisitionCost        float64
	LifespanHours          float64
	PowerWatts             float64
	MaintenanceCostPerHour float64
}

// Spool represents the material-level inputs used to estimate material costs.
type Spool struct {
	Price       float64
	WeightGrams float64
}

// Settings represents account-wide pricing parameters.
type Settings struct {
	ElectricityCostPerKWh float64
}

// Item is an extra line item billed with a job (packaging, inserts, paint...).
type Item struct {
	Name     string  `json:"name"`
	Price    float64 `json:"price"`
	Quantity float64 `json:"quantity"`
}

// Job represents the job-level inputs of a single production run.
type Job struct {
	PrintHours      float64
	PrintMinutes    float64
	WeightGrams     float64
	FailureRate     float64
	LaborHours      float64
	LaborMinutes    float64
	LaborRate       float64
	Markup          float64
	AdditionalItems []Item
}

// Breakdown contains all intermediate and line-item values of the pricing calculation.
type Breakdown struct {
	TotalPrintHours  float64 `json:"total_print_hours"`
	DepreciationCost float64 `json:"depreciation_cost"`
	EnergyCost       float64 `json:"energy_cost"`
	CostPerGram      float64 `json:"cost_per_gram"`
	MaterialCost     float64 `json:"material_cost"`
	MaintenanceCost  float64 `json:"maintenance_cost"`
	MachineTotalCost float64 `json:"machine_total_cost"`
	LaborCost        float64 `json:"labor_cost"`
	AdditionalCost   float64 `json:"additional_cost"`
}

// Totals contains roll-up values from the pricing calculation.
type Totals struct {
	TotalProductionCost float64 `json:"total_production_cost"`
	FinalPrice          float64 `json:"final_price"`
	Profit              float64 `json:"profit"`
}

// Result groups the full pricing output, including detailed breakdown and totals.
type Result struct {
	Breakdown Breakdown `json:"breakdown"`
	Totals    Totals    `json:"totals"`
}

// Calculate computes pricing values for a job printed on machine with spool.
// A nil machine or spool yields a zero Result.
func Calculate(machine *Machine, spool *Spool, settings Settings, job Job) (Result, error) {
	if machine == nil || spool == nil {
		return Result{}, nil
	}
	if err := machine.validate(); err != nil {
		return Result{}, err
	}
	if err := spool.validate(); err != nil {
		return Result{}, err
	}

	hours := job.PrintHours + job.PrintMinutes/60.0
	b := machineAndMaterial(*machine, *spool, settings, hours, job.WeightGrams, job.FailureRate)

	laborHours := job.LaborHours + job.LaborMinutes/60.0
	b.LaborCost = laborHours * job.LaborRate
	b.AdditionalCost = additionalCost(job.AdditionalItems)

	total := b.MachineTotalCost + b.MaterialCost + b.LaborCost + b.AdditionalCost
	finalPrice := total * (1.0 + job.Markup/100.0)

	return Result{
		Breakdown: b,
		Totals: Totals{
			TotalProductionCost: total,
			FinalPrice:          finalPrice,
			Profit:              finalPrice - total,
		},
	}, nil
}

// machineAndMaterial covers the machine and material terms shared by Calculate and Compare.
func machineAndMaterial(m Machine, s Spool, settings Settings, hours, grams, failureRate float64) Breakdown {
	depreciation := (m.AcquisitionCost / m.LifespanHours) * hours
	energy := (m.PowerWatts / 1000.0) * settings.ElectricityCostPerKWh * hours
	costPerGram := s.Price / s.WeightGrams
	material := grams * costPerGram * (1.0 + failureRate/100.0)
	maintenance := m.MaintenanceCostPerHour * hours

	return Breakdown{
		TotalPrintHours:  hours,
		DepreciationCost: depreciation,
		EnergyCost:       energy,
		CostPerGram:      costPerGram,
		MaterialCost:     material,
		MaintenanceCost:  maintenance,
		MachineTotalCost: depreciation + maintenance + energy,
	}
}

func additionalCost(items []Item) float64 {
	sum := 0.0
	for _, it := range items {
		if it.Price <= 0 || it.Quantity <= 0 || !finite(it.Price) || !finite(it.Quantity) {
			continue
		}
		sum += it.Price * it.Quantity
	}
	return sum
}

func (m Machine) validate() error {
	if !finite(m.AcquisitionCost) || !finite(m.PowerWatts) || !finite(m.MaintenanceCostPerHour) {
		return fmt.Errorf("%w: equipment has a non-finite value", ErrInvalidInput)
	}
	if !finite(m.LifespanHours) || m.LifespanHours <= 0 {
		return fmt.Errorf("%w: equipment lifespan must be greater than 0", ErrInvalidInput)
	}
	return nil
}

func (s Spool) validate() error {
	if !finite(s.Price) {
		return fmt.Errorf("%w: spool price is not finite", ErrInvalidInput)
	}
	if !finite(s.WeightGrams) || s.WeightGrams <= 0 {
		return fmt.Errorf("%w: spool weight must be greater than 0", ErrInvalidInput)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
