// Package inventory flags materials that are running out.
package inventory

import (
	"sort"

	"github.com/Simplici0/printfleet/internal/entity"
)

// DefaultLowStockPercent is the share of a full spool under which a material is low.
const DefaultLowStockPercent = 20

// Alert reports a material whose stock fell below the threshold.
type Alert struct {
	MaterialID   string  `json:"material_id"`
	Name         string  `json:"name"`
	CurrentStock float64 `json:"current_stock"`
	SpoolWeight  float64 `json:"spool_weight"`
	Percent      float64 `json:"percent"`
}

// LowStock returns an alert for every material holding less than percent% of its spool
// weight, emptiest first. Materials without a spool weight are ignored.
func LowStock(materials []entity.Material, percent float64) []Alert {
	var alerts []Alert
	for _, m := range materials {
		if m.SpoolWeight <= 0 {
			continue
		}
		left := m.CurrentStock / m.SpoolWeight * 100
		if left < percent {
			alerts = append(alerts, Alert{
				MaterialID:   m.ID,
				Name:         m.Name,
				CurrentStock: m.CurrentStock,
				SpoolWeight:  m.SpoolWeight,
				Percent:      left,
			})
		}
	}
	sort.SliceStable(alerts, func(i, j int) bool { return alerts[i].Percent < alerts[j].Percent })
	return alerts
}
