// Package report aggregates saved jobs per folder and exports them as a spreadsheet.
package report

import (
	"sort"

	"github.com/Simplici0/printfleet/internal/entity"
)

// UnfiledName labels jobs whose folder is unset or was deleted.
const UnfiledName = "Unfiled"

// Summary totals the jobs of one folder.
type Summary struct {
	FolderID       string  `json:"folder_id"`
	FolderName     string  `json:"folder_name"`
	Jobs           int     `json:"jobs"`
	Grams          float64 `json:"grams"`
	ProductionCost float64 `json:"production_cost"`
	Price          float64 `json:"price"`
	Profit         float64 `json:"profit"`
}

func (s *Summary) add(p entity.Project) {
	s.Jobs++
	s.Grams += p.WeightGrams
	s.ProductionCost += p.Results.Totals.TotalProductionCost
	s.Price += p.Results.Totals.FinalPrice
	s.Profit += p.Results.Totals.Profit
}

// Summaries groups projects by folder. Every folder is listed, empty ones included, in
// name order. Unfiled jobs come last under an empty folder id.
func Summaries(folders []entity.Folder, projects []entity.Project) []Summary {
	byID := make(map[string]*Summary, len(folders))
	out := make([]*Summary, 0, len(folders)+1)
	for _, f := range folders {
		s := &Summary{FolderID: f.ID, FolderName: f.Name}
		byID[f.ID] = s
		out = append(out, s)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].FolderName < out[j].FolderName })

	var unfiled *Summary
	for _, p := range projects {
		if s, ok := byID[p.FolderID]; ok {
			s.add(p)
			continue
		}
		if unfiled == nil {
			unfiled = &Summary{FolderName: UnfiledName}
		}
		unfiled.add(p)
	}
	if unfiled != nil {
		out = append(out, unfiled)
	}

	summaries := make([]Summary, len(out))
	for i, s := range out {
		summaries[i] = *s
	}
	return summaries
}
