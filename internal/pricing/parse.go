package pricing

import (
	"strconv"
	"strings"
)

// Number is the outcome of parsing a raw form value. Invalid numbers carry a zero Value.
type Number struct {
	Value float64
	Valid bool
}

// ParseNumber parses user input permissively: surrounding spaces are ignored and a comma
// is accepted as decimal separator. Empty, malformed and non-finite input is invalid.
func ParseNumber(raw string) Number {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Number{}
	}
	s = strings.ReplaceAll(s, ",", ".")

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !finite(v) {
		return Number{}
	}
	return Number{Value: v, Valid: true}
}

// RawItem is an additional line item as typed by the user.
type RawItem struct {
	Name     string `json:"name"`
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

// RawJob holds job parameters as raw text, exactly as received from a form.
type RawJob struct {
	PrintHours      string    `json:"print_hours"`
	PrintMinutes    string    `json:"print_minutes"`
	WeightGrams     string    `json:"weight"`
	FailureRate     string    `json:"failure_rate"`
	LaborHours      string    `json:"labor_hours"`
	LaborMinutes    string    `json:"labor_minutes"`
	LaborRate       string    `json:"labor_rate"`
	Markup          string    `json:"markup"`
	AdditionalItems []RawItem `json:"additional_items"`
}

// ParseJob converts raw job text into a Job. Fields that fail to parse count as zero and
// their names are returned in invalid. Blank fields are treated as zero without being
// reported.
func ParseJob(raw RawJob) (job Job, invalid []string) {
	field := func(name, value string) float64 {
		n := ParseNumber(value)
		if !n.Valid && strings.TrimSpace(value) != "" {
			invalid = append(invalid, name)
		}
		return n.Value
	}

	job = Job{
		PrintHours:   field("print_hours", raw.PrintHours),
		PrintMinutes: field("print_minutes", raw.PrintMinutes),
		WeightGrams:  field("weight", raw.WeightGrams),
		FailureRate:  field("failure_rate", raw.FailureRate),
		LaborHours:   field("labor_hours", raw.LaborHours),
		LaborMinutes: field("labor_minutes", raw.LaborMinutes),
		LaborRate:    field("labor_rate", raw.LaborRate),
		Markup:       field("markup", raw.Markup),
	}

	for i, it := range raw.AdditionalItems {
		prefix := "additional_items[" + strconv.Itoa(i) + "]"
		job.AdditionalItems = append(job.AdditionalItems, Item{
			Name:     strings.TrimSpace(it.Name),
			Price:    field(prefix+".price", it.Price),
			Quantity: field(prefix+".quantity", it.Quantity),
		})
	}

	return job, invalid
}
