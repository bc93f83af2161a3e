// v2
// internal/aggregate/aggregate_test.go
package aggregate

import (
	"context"
	"errors"
	"testing"
	"time"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/logging"
)

type stubOracle struct {
	reply string
	err   error
	calls int
}

func (s *stubOracle) Invoke(_ context.Context, _ string, _ []campus.Turn) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func daytime() time.Time {
	return time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
}

func twoRooms() []campus.RoomResult {
	return []campus.RoomResult{
		{
			RoomID: "room_a", Capacity: 30, CurrentOccupancy: 5,
			EstimatedEnergyKW: 2.5, EstimatedCO2PPM: 933,
			SavingsPotential: 15,
			Recommendations:  []string{"ACTION: dim lights"},
		},
		{
			RoomID: "room_b", Capacity: 20, CurrentOccupancy: 18,
			EstimatedEnergyKW: 10.8, EstimatedCO2PPM: 2580,
			SavingsPotential: 15,
			Anomalies:        []string{"Temperature discomfort: too_hot"},
		},
	}
}

func TestBuildingAggregation(t *testing.T) {
	a := New(&stubOracle{}, logging.Discard())

	b := a.Building(context.Background(), "b1", "Science Building", twoRooms(), campus.DepthLow, daytime())

	if b.TotalEnergyKW != 13.3 {
		t.Fatalf("total energy = %v, want 13.3", b.TotalEnergyKW)
	}
	if b.OccupancyRate != 46.0 {
		t.Fatalf("occupancy rate = %v, want 46.0", b.OccupancyRate)
	}
	if b.TotalRooms != 2 {
		t.Fatalf("total rooms = %d", b.TotalRooms)
	}
	if len(b.Anomalies) != 1 || b.Anomalies[0] != "room_b: Temperature discomfort: too_hot" {
		t.Fatalf("anomalies = %v, want room-prefixed entry", b.Anomalies)
	}
	if len(b.RoomRecommendations) != 1 || b.RoomRecommendations[0] != "room_a: ACTION: dim lights" {
		t.Fatalf("room recommendations = %v", b.RoomRecommendations)
	}
	if b.BuildingRecommendations != nil {
		t.Fatalf("low depth must not produce building recommendations, got %v", b.BuildingRecommendations)
	}
}

func TestBuildingSavingsCapAndConversion(t *testing.T) {
	a := New(&stubOracle{}, logging.Discard())

	rooms := []campus.RoomResult{
		{RoomID: "r1", Capacity: 100, CurrentOccupancy: 5, EstimatedEnergyKW: 40, SavingsPotential: 40},
		{RoomID: "r2", Capacity: 100, CurrentOccupancy: 5, EstimatedEnergyKW: 60, SavingsPotential: 40},
	}
	night := time.Date(2025, 1, 15, 23, 0, 0, 0, time.UTC)

	b := a.Building(context.Background(), "b1", "", rooms, campus.DepthLow, night)

	// mean room savings 40, +10 low occupancy, +15 night => capped at 50
	if b.Savings.TotalPotentialSavings != 50 {
		t.Fatalf("total potential savings = %v, want capped 50", b.Savings.TotalPotentialSavings)
	}
	// the capped percentage is what converts to absolute savings
	if b.Savings.EstimatedKWHSaved != 50.0 {
		t.Fatalf("kwh saved = %v, want 50.0", b.Savings.EstimatedKWHSaved)
	}
	if b.BuildingName != "b1" {
		t.Fatalf("empty name must fall back to id, got %q", b.BuildingName)
	}
}

func TestBuildingRecommendationFailureDegrades(t *testing.T) {
	a := New(&stubOracle{err: errors.New("oracle down")}, logging.Discard())

	b := a.Building(context.Background(), "b1", "B1", twoRooms(), campus.DepthMedium, daytime())
	if b.BuildingRecommendations != nil {
		t.Fatalf("oracle failure must degrade to no recommendations, got %v", b.BuildingRecommendations)
	}
	if b.TotalEnergyKW != 13.3 {
		t.Fatalf("aggregation numbers must survive oracle failure, energy = %v", b.TotalEnergyKW)
	}
}

func buildingNamed(id string, energy float64) campus.BuildingResult {
	return campus.BuildingResult{
		BuildingID: id, BuildingName: id,
		TotalRooms: 1, TotalEnergyKW: energy,
		TotalOccupancy: 10, TotalCapacity: 20,
		Savings: campus.BuildingSavings{EstimatedKWHSaved: energy / 10},
	}
}

func TestCampusAggregation(t *testing.T) {
	a := New(&stubOracle{}, logging.Discard())

	buildings := []campus.BuildingResult{
		buildingNamed("b1", 10),
		buildingNamed("b2", 30),
		buildingNamed("b3", 20),
		buildingNamed("b4", 5),
	}

	result := a.Campus(context.Background(), "Test Campus", buildings, campus.DepthLow, daytime())

	if result.Summary.TotalEnergyKW != 65 {
		t.Fatalf("total energy = %v, want 65", result.Summary.TotalEnergyKW)
	}
	if result.Summary.TotalBuildings != 4 || result.Summary.TotalRooms != 4 {
		t.Fatalf("summary counts = %+v", result.Summary)
	}

	if len(result.CriticalBuildings) != 3 {
		t.Fatalf("critical buildings = %d, want top 3", len(result.CriticalBuildings))
	}
	want := []string{"b2", "b3", "b1"}
	for i, cb := range result.CriticalBuildings {
		if cb.BuildingID != want[i] {
			t.Fatalf("critical ranking = %v, want %v", result.CriticalBuildings, want)
		}
	}

	// 6.5 kWh saved at 0.12/kWh and 0.5 kg/kWh
	if result.SavingsPotential.EstimatedCostSavingsHourly != 0.78 {
		t.Fatalf("cost savings = %v, want 0.78", result.SavingsPotential.EstimatedCostSavingsHourly)
	}
	if result.SavingsPotential.CO2ReductionKG != 3.25 {
		t.Fatalf("co2 reduction = %v, want 3.25", result.SavingsPotential.CO2ReductionKG)
	}

	if result.Buildings["b2"].TotalEnergyKW != 30 {
		t.Fatalf("building map not populated: %+v", result.Buildings["b2"])
	}
	if result.CampusRecommendations != nil {
		t.Fatalf("low depth must not produce campus recommendations")
	}
}

func TestCriticalBuildingTiesKeepIDOrder(t *testing.T) {
	a := New(&stubOracle{}, logging.Discard())

	buildings := []campus.BuildingResult{
		buildingNamed("b_z", 10),
		buildingNamed("b_a", 10),
	}
	result := a.Campus(context.Background(), "Campus", buildings, campus.DepthLow, daytime())
	if result.CriticalBuildings[0].BuildingID != "b_a" {
		t.Fatalf("tie must rank by id, got %v", result.CriticalBuildings)
	}
}

func TestCampusRecommendationsAtMediumDepth(t *testing.T) {
	oracle := &stubOracle{reply: "CAMPUS POLICY: close building b4 overnight (impact: 5 kW)\nirrelevant line"}
	a := New(oracle, logging.Discard())

	result := a.Campus(context.Background(), "Campus", []campus.BuildingResult{buildingNamed("b1", 10)}, campus.DepthMedium, daytime())
	if len(result.CampusRecommendations) != 1 {
		t.Fatalf("campus recommendations = %v", result.CampusRecommendations)
	}
	if oracle.calls != 1 {
		t.Fatalf("oracle calls = %d, want 1", oracle.calls)
	}
}
