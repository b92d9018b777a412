// Package entity holds the records tracked per account: printers, spools, settings,
// saved jobs and the folders grouping them.
package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/Simplici0/printfleet/internal/pricing"
)

// MaterialKind is the family of a consumable.
type MaterialKind string

const (
	KindPLA   MaterialKind = "PLA"
	KindABS   MaterialKind = "ABS"
	KindPETG  MaterialKind = "PETG"
	KindTPU   MaterialKind = "TPU"
	KindResin MaterialKind = "Resin"
	KindOther MaterialKind = "Other"
)

// MaterialKinds lists every accepted MaterialKind.
var MaterialKinds = []MaterialKind{KindPLA, KindABS, KindPETG, KindTPU, KindResin, KindOther}

const (
	DefaultElectricityCost = 0.85
	DefaultCurrencySymbol  = "R$"
)

// Equipment is a tracked printer.
type Equipment struct {
	ID                     string  `json:"id" validate:"required"`
	Name                   string  `json:"name" validate:"required"`
	AcquisitionCost        float64 `json:"acquisition_cost" validate:"gt=0"`
	LifespanHours          float64 `json:"lifespan_hours" validate:"gt=0"`
	PowerWatts             float64 `json:"power_watts" validate:"gt=0"`
	MaintenanceCostPerHour float64 `json:"maintenance_cost_per_hour" validate:"gte=0"`
}

// Machine returns the pricing view of e.
func (e Equipment) Machine() pricing.Machine {
	return pricing.Machine{
		AcquisitionCost:        e.AcquisitionCost,
		LifespanHours:          e.LifespanHours,
		PowerWatts:             e.PowerWatts,
		MaintenanceCostPerHour: e.MaintenanceCostPerHour,
	}
}

// Material is a tracked spool of filament or bottle of resin.
type Material struct {
	ID           string       `json:"id" validate:"required"`
	Kind         MaterialKind `json:"kind" validate:"required,oneof=PLA ABS PETG TPU Resin Other"`
	Name         string       `json:"name" validate:"required"`
	SpoolPrice   float64      `json:"spool_price" validate:"gt=0"`
	SpoolWeight  float64      `json:"spool_weight" validate:"gt=0"`
	CurrentStock float64      `json:"current_stock" validate:"gte=0"`
}

// Spool returns the pricing view of m.
func (m Material) Spool() pricing.Spool {
	return pricing.Spool{Price: m.SpoolPrice, WeightGrams: m.SpoolWeight}
}

// WithSpoolWeight returns m with a new spool weight. A positive weight also resets the
// current stock to that weight, as a freshly loaded spool.
func (m Material) WithSpoolWeight(grams float64) Material {
	m.SpoolWeight = grams
	if grams > 0 {
		m.CurrentStock = grams
	}
	return m
}

// Settings are the account-wide pricing parameters.
type Settings struct {
	ElectricityCostPerKWh float64 `json:"electricity_cost" validate:"gte=0"`
	CurrencySymbol        string  `json:"currency_symbol" validate:"required,max=8"`
}

// DefaultSettings is what an account starts with before saving its own.
func DefaultSettings() Settings {
	return Settings{ElectricityCostPerKWh: DefaultElectricityCost, CurrencySymbol: DefaultCurrencySymbol}
}

// Pricing returns the pricing view of s.
func (s Settings) Pricing() pricing.Settings {
	return pricing.Settings{ElectricityCostPerKWh: s.ElectricityCostPerKWh}
}

// Folder groups saved jobs for reporting.
type Folder struct {
	ID        string    `json:"id" validate:"required"`
	Name      string    `json:"name" validate:"required"`
	CreatedAt time.Time `json:"created_at"`
}

// Project is a saved job: the parameters of one production run together with the cost
// breakdown frozen at save time.
type Project struct {
	ID              string         `json:"id" validate:"required"`
	FolderID        string         `json:"folder_id,omitempty"`
	Name            string         `json:"name" validate:"required"`
	CreatedAt       time.Time      `json:"created_at"`
	EquipmentID     string         `json:"equipment_id" validate:"required"`
	MaterialID      string         `json:"material_id" validate:"required"`
	PrintHours      float64        `json:"print_hours" validate:"gte=0"`
	PrintMinutes    float64        `json:"print_minutes" validate:"gte=0"`
	WeightGrams     float64        `json:"weight" validate:"gte=0"`
	FailureRate     float64        `json:"failure_rate" validate:"gte=0"`
	LaborHours      float64        `json:"labor_hours" validate:"gte=0"`
	LaborMinutes    float64        `json:"labor_minutes" validate:"gte=0"`
	LaborRate       float64        `json:"labor_rate" validate:"gte=0"`
	AdditionalItems []pricing.Item `json:"additional_items"`
	Markup          float64        `json:"markup" validate:"gte=0"`
	Results         pricing.Result `json:"results"`
}

// Job returns the pricing parameters of p.
func (p Project) Job() pricing.Job {
	return pricing.Job{
		PrintHours:      p.PrintHours,
		PrintMinutes:    p.PrintMinutes,
		WeightGrams:     p.WeightGrams,
		FailureRate:     p.FailureRate,
		LaborHours:      p.LaborHours,
		LaborMinutes:    p.LaborMinutes,
		LaborRate:       p.LaborRate,
		Markup:          p.Markup,
		AdditionalItems: p.AdditionalItems,
	}
}

// NewID returns a random identifier for a new record.
func NewID() string {
	return uuid.NewString()
}
