package pricing

import (
	"reflect"
	"testing"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		raw   string
		want  float64
		valid bool
	}{
		{"12", 12, true},
		{" 12.5 ", 12.5, true},
		{"0,85", 0.85, true},
		{"-3", -3, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
		{"1e400", 0, false},
	}

	for _, tc := range cases {
		got := ParseNumber(tc.raw)
		if got.Value != tc.want || got.Valid != tc.valid {
			t.Fatalf("ParseNumber(%q) = %+v, want {Value:%v Valid:%v}", tc.raw, got, tc.want, tc.valid)
		}
	}
}

func TestParseJob_ReportsInvalidFieldsAndDefaultsToZero(t *testing.T) {
	raw := RawJob{
		PrintHours:   "2",
		PrintMinutes: "30",
		WeightGrams:  "12,5",
		FailureRate:  "ten",
		Markup:       "",
		AdditionalItems: []RawItem{
			{Name: " box ", Price: "3,5", Quantity: "2"},
			{Name: "tape", Price: "x", Quantity: "1"},
		},
	}

	job, invalid := ParseJob(raw)

	if job.PrintHours != 2 || job.PrintMinutes != 30 || job.WeightGrams != 12.5 {
		t.Fatalf("unexpected parsed durations/weight: %+v", job)
	}
	if job.FailureRate != 0 || job.Markup != 0 {
		t.Fatalf("expected invalid and blank fields to be zero: %+v", job)
	}
	if job.AdditionalItems[0].Name != "box" || job.AdditionalItems[0].Price != 3.5 {
		t.Fatalf("unexpected first item: %+v", job.AdditionalItems[0])
	}

	want := []string{"failure_rate", "additional_items[1].price"}
	if !reflect.DeepEqual(invalid, want) {
		t.Fatalf("invalid = %v, want %v", invalid, want)
	}
}
