// v2
// internal/sim/sim_test.go
package sim

import (
	"context"
	"errors"
	"reflect"
	"sort"
	"testing"
	"time"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/logging"
)

func observations() map[string]campus.RoomObservation {
	return map[string]campus.RoomObservation{
		"room_1": {BuildingID: "b1", Occupancy: 5, OccupancyLevel: campus.OccupancyLow, TemperatureComfort: campus.TooCold, EquipmentRunning: []string{"projector"}},
		"room_2": {BuildingID: "b1", Occupancy: 20, OccupancyLevel: campus.OccupancyHigh, TemperatureComfort: campus.Comfortable},
		"room_3": {BuildingID: "b2", Occupancy: 12, OccupancyLevel: campus.OccupancyMedium, TemperatureComfort: campus.Comfortable},
		"room_4": {BuildingID: "b2", Occupancy: 12, OccupancyLevel: campus.OccupancyLow, TemperatureComfort: campus.TooHot},
	}
}

func TestConstrainNoBudgetReturnsAll(t *testing.T) {
	obs := observations()
	got := Constrain(obs, Budget{Depth: campus.DepthMedium})
	if len(got) != len(obs) {
		t.Fatalf("unbounded budget must keep all rooms, got %d", len(got))
	}
}

func TestConstrainMaxBuildings(t *testing.T) {
	got := Constrain(observations(), Budget{MaxBuildings: 1})

	// rooms walked in sorted id order; room_1 claims b1 first
	for id, o := range got {
		if o.BuildingID != "b1" {
			t.Fatalf("room %s from %s leaked past the building limit", id, o.BuildingID)
		}
	}
	if len(got) != 2 {
		t.Fatalf("expected the 2 rooms of b1, got %d", len(got))
	}
}

func TestConstrainMaxRoomsKeepsHighestOccupancy(t *testing.T) {
	got := Constrain(observations(), Budget{MaxRooms: 2})

	if len(got) != 2 {
		t.Fatalf("room count = %d, want 2", len(got))
	}
	if _, ok := got["room_2"]; !ok {
		t.Fatalf("highest-occupancy room missing: %v", keys(got))
	}
	// rooms 3 and 4 tie at 12; sorted-id order breaks the tie
	if _, ok := got["room_3"]; !ok {
		t.Fatalf("tie should keep room_3, got %v", keys(got))
	}
}

func TestConstrainIsMonotonic(t *testing.T) {
	obs := observations()
	for k := 1; k <= len(obs); k++ {
		got := Constrain(obs, Budget{MaxRooms: k})
		if len(got) > k {
			t.Fatalf("maxRooms=%d returned %d rooms", k, len(got))
		}
	}
}

func TestApplyScenarioCloseBuilding(t *testing.T) {
	obs := observations()
	modified := ApplyScenario(obs, Scenario{Name: "close", Type: TypeCloseBuilding, BuildingID: "b1"})

	for id, o := range modified {
		if o.BuildingID == "b1" {
			if o.Occupancy != 0 || len(o.EquipmentRunning) != 0 {
				t.Fatalf("room %s in closed building not cleared: %+v", id, o)
			}
		} else if o.Occupancy == 0 {
			t.Fatalf("room %s outside the building was modified", id)
		}
	}
	// the input must be untouched
	if obs["room_1"].Occupancy != 5 || len(obs["room_1"].EquipmentRunning) != 1 {
		t.Fatalf("scenario application mutated the input: %+v", obs["room_1"])
	}
}

func TestApplyScenarioReduceHVAC(t *testing.T) {
	modified := ApplyScenario(observations(), Scenario{Name: "hvac", Type: TypeReduceHVAC})

	if modified["room_1"].TemperatureComfort != campus.Comfortable {
		t.Fatalf("low-occupancy room not forced comfortable: %+v", modified["room_1"])
	}
	if modified["room_4"].TemperatureComfort != campus.Comfortable {
		t.Fatalf("low-occupancy room not forced comfortable: %+v", modified["room_4"])
	}
	// non-low rooms keep their comfort state
	if modified["room_3"].TemperatureComfort != campus.Comfortable {
		t.Fatalf("medium-occupancy room changed: %+v", modified["room_3"])
	}
}

func TestApplyScenarioUnknownTypeIsNoop(t *testing.T) {
	obs := observations()
	modified := ApplyScenario(obs, Scenario{Name: "shift", Type: TypeShiftSchedule})
	if !reflect.DeepEqual(modified, obs) {
		t.Fatalf("unknown scenario type must not modify data")
	}
}

func TestCompareVerdictThreshold(t *testing.T) {
	baseline := campus.CampusSummary{TotalEnergyKW: 100, TotalWaterLPH: 50}

	cases := []struct {
		simulatedEnergy float64
		wantPct         float64
	}{
		{85, 15.0},
		{95, 5.0},
	}
	for _, c := range cases {
		cmp := Compare(baseline, campus.CampusSummary{TotalEnergyKW: c.simulatedEnergy, TotalWaterLPH: 50})
		if cmp.EnergySavingsPct != c.wantPct {
			t.Fatalf("savings pct = %v, want %v", cmp.EnergySavingsPct, c.wantPct)
		}
	}

	cmp := Compare(baseline, campus.CampusSummary{TotalEnergyKW: 85, TotalWaterLPH: 50})
	if cmp.CostSavingsHourly != 1.8 {
		t.Fatalf("cost savings = %v, want 1.8", cmp.CostSavingsHourly)
	}
}

func TestCompareEmptyBaseline(t *testing.T) {
	cmp := Compare(campus.CampusSummary{}, campus.CampusSummary{})
	if cmp.EnergySavingsPct != 0 || cmp.WaterSavingsPct != 0 {
		t.Fatalf("empty baseline must not fault or produce NaN: %+v", cmp)
	}
}

// stubRunner reports energy proportional to total occupancy so scenarios
// that empty rooms show savings.
type stubRunner struct {
	calls int
	err   error
}

func (s *stubRunner) AnalyzeScoped(_ context.Context, obs map[string]campus.RoomObservation, _ campus.Depth, _ time.Time) (campus.CampusResult, error) {
	s.calls++
	if s.err != nil {
		return campus.CampusResult{}, s.err
	}
	var energy float64
	for _, o := range obs {
		energy += float64(o.Occupancy)
	}
	return campus.CampusResult{Summary: campus.CampusSummary{TotalEnergyKW: energy}}, nil
}

func TestWhatIfCloseBuilding(t *testing.T) {
	runner := &stubRunner{}
	e := NewEngine(runner, logging.Discard())

	sc := Scenario{Name: "close b1", Type: TypeCloseBuilding, BuildingID: "b1"}
	res, err := e.WhatIf(context.Background(), sc, observations(), Budget{Depth: campus.DepthLow}, time.Now())
	if err != nil {
		t.Fatalf("what-if failed: %v", err)
	}
	if runner.calls != 2 {
		t.Fatalf("runner calls = %d, want baseline and simulated", runner.calls)
	}

	// baseline 49 "kW", simulated 24: 51.0% savings
	if res.Comparison.EnergySavingsKW != 25 {
		t.Fatalf("energy savings = %v, want 25", res.Comparison.EnergySavingsKW)
	}
	if res.Recommendation != "Implement" {
		t.Fatalf("recommendation = %q, want Implement above 10%%", res.Recommendation)
	}
	if res.ExecutionInfo.RoomsAnalyzed != 4 || res.ExecutionInfo.BuildingsAnalyzed != 2 {
		t.Fatalf("execution info = %+v", res.ExecutionInfo)
	}
}

func TestWhatIfReviewVerdict(t *testing.T) {
	e := NewEngine(&stubRunner{}, logging.Discard())

	// shift_schedule is a no-op, so savings are zero
	res, err := e.WhatIf(context.Background(), Scenario{Name: "noop", Type: TypeShiftSchedule}, observations(), Budget{Depth: campus.DepthLow}, time.Now())
	if err != nil {
		t.Fatalf("what-if failed: %v", err)
	}
	if res.Recommendation != "Review" {
		t.Fatalf("recommendation = %q, want Review at zero savings", res.Recommendation)
	}
}

func TestWhatIfRejectsInvalidScenario(t *testing.T) {
	e := NewEngine(&stubRunner{}, logging.Discard())

	_, err := e.WhatIf(context.Background(), Scenario{Type: TypeCloseBuilding}, observations(), Budget{}, time.Now())
	if !errors.Is(err, ErrInvalidScenario) {
		t.Fatalf("expected ErrInvalidScenario, got %v", err)
	}
}

func TestCompareScenariosRanking(t *testing.T) {
	e := NewEngine(&stubRunner{}, logging.Discard())

	scenarios := []Scenario{
		{Name: "noop", Type: TypeShiftSchedule},
		{Name: "close b1", Type: TypeCloseBuilding, BuildingID: "b1"},
	}
	report, err := e.CompareScenarios(context.Background(), scenarios, observations(), campus.DepthLow, time.Now())
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}
	if report.ScenariosCompared != 2 {
		t.Fatalf("scenarios compared = %d", report.ScenariosCompared)
	}
	if report.Results[0].Scenario != "close b1" {
		t.Fatalf("ranking = %v, want close b1 first", report.Results)
	}
	if report.Recommended == nil || report.Recommended.Scenario != "close b1" {
		t.Fatalf("recommended = %+v", report.Recommended)
	}
}

func TestBudgetFromParameters(t *testing.T) {
	b := BudgetFromParameters(map[string]any{
		"num_rooms":     float64(3),
		"num_buildings": 1,
		"budget_level":  "high",
	}, campus.DepthMedium)

	if b.MaxRooms != 3 || b.MaxBuildings != 1 || b.Depth != campus.DepthHigh {
		t.Fatalf("budget = %+v", b)
	}

	if b := BudgetFromParameters(nil, campus.DepthMedium); b.Depth != campus.DepthMedium {
		t.Fatalf("nil params must keep the fallback depth, got %+v", b)
	}
}

func keys(m map[string]campus.RoomObservation) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
