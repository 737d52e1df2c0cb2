package main

import (
	"testing"

	"github.com/philipparndt/takeoff/internal/measurement"
	"github.com/philipparndt/takeoff/pkg/measure"
)

func TestTotals(t *testing.T) {
	if got := totals(nil, defaultConditions); got != "(no measurements)" {
		t.Errorf("empty: got %q", got)
	}

	ms := []measurement.Measurement{
		{ConditionID: "walls", Quantity: 10, Unit: measure.UnitLinearFeet},
		{ConditionID: "flooring", Quantity: 50, Unit: measure.UnitSquareFeet},
		{ConditionID: "walls", Quantity: 2.5, Unit: measure.UnitLinearFeet},
		{ConditionID: "other", Quantity: 3, Unit: measure.UnitEach},
	}
	want := "Walls            12.50 LF\n" +
		"Flooring         50.00 SF\n" +
		"other                3 EA"
	if got := totals(ms, defaultConditions); got != want {
		t.Errorf("expected\n%s\ngot\n%s", want, got)
	}
}
