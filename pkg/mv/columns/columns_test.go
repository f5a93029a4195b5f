package columns

import (
	"errors"
	"reflect"
	"testing"

	"github.com/komsit37/marginview/pkg/mv/types"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		in   []string
		want []string
	}{
		{nil, []string{"date", "value"}},
		{[]string{" ", ""}, []string{"date", "value"}},
		{[]string{"value", "DATE", "value"}, []string{"value", "date"}},
	}
	for _, tt := range tests {
		if got := Compute(tt.in); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("Compute(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	// the default must not alias the set
	got := Compute(nil)
	got[0] = "x"
	if Sets["basic"][0] != "date" {
		t.Error("Compute(nil) aliased Sets[basic]")
	}
}

func TestExpandSets(t *testing.T) {
	got, err := ExpandSets([]string{"basic", "full"})
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"date", "value", "label", "chg", "dev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExpandSets = %q, want %q", got, want)
	}

	_, err = ExpandSets([]string{"basic", "fundamentals"})
	var ue *UnknownSetError
	if !errors.As(err, &ue) {
		t.Fatalf("error = %v, want UnknownSetError", err)
	}
	if ue.Name != "fundamentals" || !reflect.DeepEqual(ue.Available, []string{"basic", "full"}) {
		t.Errorf("UnknownSetError = %+v", ue)
	}
}

func TestResolvers(t *testing.T) {
	display := []types.DataPoint{
		{Date: "2024-01-05", Value: 2.0, Label: "ratio"},
		{Date: "2024-01-08", Value: 2.25, Label: "ratio"},
	}
	rows := Rows(display, 40, types.Stats{Avg: 2.1})
	tests := []struct {
		col  string
		row  int
		want string
	}{
		{"idx", 1, "41"},
		{"date", 0, "2024-01-05"},
		{"value", 1, "2.25"},
		{"label", 0, "ratio"},
		{"chg", 0, ""},
		{"chg", 1, "+0.25"},
		{"dev", 0, "-0.10"},
		{"dev", 1, "+0.15"},
		{"nope", 0, ""},
	}
	for _, tt := range tests {
		if got := RenderValue(tt.col, rows[tt.row]); got != tt.want {
			t.Errorf("RenderValue(%q, row %d) = %q, want %q", tt.col, tt.row, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	if err := Validate([]string{"date", "dev"}); err != nil {
		t.Errorf("Validate() = %v", err)
	}
	if err := Validate([]string{"date", "pe"}); err == nil {
		t.Error("Validate() accepted unknown column")
	}
	if !Numeric("value") || Numeric("date") {
		t.Error("Numeric() misclassified columns")
	}
	if Header("chg") != "CHG" {
		t.Errorf("Header = %q", Header("chg"))
	}
}
