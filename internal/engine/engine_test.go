// v2
// internal/engine/engine_test.go
package engine

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"ecocampus/analyzer/internal/aggregate"
	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/config"
	"ecocampus/analyzer/internal/logging"
	"ecocampus/analyzer/internal/pipeline"
)

type stubOracle struct {
	err error
}

func (s *stubOracle) Invoke(_ context.Context, _ string, _ []campus.Turn) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "nothing remarkable", nil
}

const testLayout = `{
  "campus_info": {"name": "Test Campus"},
  "buildings": {
    "b1": {"name": "Science"},
    "b2": {"name": "Library"}
  },
  "rooms": {
    "room_a": {"type": "classroom", "building_id": "b1", "floor": 1, "capacity": 30},
    "room_b": {"type": "lab", "building_id": "b1", "floor": 2, "capacity": 20},
    "room_c": {"type": "library", "building_id": "b2", "floor": 1, "capacity": 60}
  }
}`

func newTestEngine(t *testing.T, oracleErr error) *Engine {
	t.Helper()
	path := filepath.Join(t.TempDir(), "campus.json")
	if err := os.WriteFile(path, []byte(testLayout), 0o644); err != nil {
		t.Fatal(err)
	}
	layout, err := config.LoadLayout(path)
	if err != nil {
		t.Fatalf("layout load failed: %v", err)
	}

	log := logging.Discard()
	inv := &stubOracle{err: oracleErr}
	return New(layout, pipeline.New(inv, log), aggregate.New(inv, log), nil, nil, log)
}

func twoRoomObservations() map[string]campus.RoomObservation {
	return map[string]campus.RoomObservation{
		"room_a": {Occupancy: 5, OccupancyLevel: campus.OccupancyLow, TemperatureComfort: campus.Comfortable},
		"room_b": {Occupancy: 18, OccupancyLevel: campus.OccupancyHigh, TemperatureComfort: campus.TooHot, EquipmentRunning: []string{"hood", "computers"}},
	}
}

func TestRunAnalysisEndToEnd(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)

	result, err := e.RunAnalysis(context.Background(), twoRoomObservations(), campus.DepthLow, now)
	if err != nil {
		t.Fatalf("analysis failed: %v", err)
	}

	if result.CampusName != "Test Campus" {
		t.Fatalf("campus name = %q", result.CampusName)
	}
	if result.Summary.TotalEnergyKW != 13.3 {
		t.Fatalf("total energy = %v, want 13.3", result.Summary.TotalEnergyKW)
	}
	if result.Summary.TotalBuildings != 1 || result.Summary.TotalRooms != 2 {
		t.Fatalf("summary = %+v", result.Summary)
	}

	b1 := result.Buildings["b1"]
	if b1.BuildingName != "Science" || b1.OccupancyRate != 46.0 {
		t.Fatalf("building result = %+v", b1)
	}

	stats := e.Stats()
	if stats.Analyses != 1 || stats.RoomPipelines != 2 || stats.PipelineFallbacks != 0 {
		t.Fatalf("stats = %+v", stats)
	}
	if stats.PoolRooms != 2 || stats.PoolBuildings != 1 {
		t.Fatalf("pool sizes = %+v", stats)
	}
}

func TestRunAnalysisEvictsAndSkips(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now()

	if _, err := e.RunAnalysis(context.Background(), twoRoomObservations(), campus.DepthLow, now); err != nil {
		t.Fatal(err)
	}

	obs := map[string]campus.RoomObservation{
		"room_c": {Occupancy: 10},
		"ghost":  {Occupancy: 99},
	}
	result, err := e.RunAnalysis(context.Background(), obs, campus.DepthLow, now)
	if err != nil {
		t.Fatal(err)
	}

	if result.Summary.TotalRooms != 1 {
		t.Fatalf("rooms = %d, want room_c only", result.Summary.TotalRooms)
	}
	if _, ok := result.Buildings["b1"]; ok {
		t.Fatal("b1 should be gone after its rooms left the working set")
	}

	stats := e.Stats()
	if stats.PoolRooms != 1 || stats.RoomsSkipped != 1 {
		t.Fatalf("stats = %+v", stats)
	}
}

func TestPipelineFailureFallsBackToSeed(t *testing.T) {
	e := newTestEngine(t, errors.New("oracle down"))
	now := time.Now()

	// medium depth forces oracle calls, which all fail
	result, err := e.RunAnalysis(context.Background(), twoRoomObservations(), campus.DepthMedium, now)
	if err != nil {
		t.Fatalf("a failing room must not fail the batch: %v", err)
	}

	if result.Summary.TotalRooms != 2 {
		t.Fatalf("both rooms must appear via fallback, got %d", result.Summary.TotalRooms)
	}
	// seeded state has no estimates yet
	if result.Summary.TotalEnergyKW != 0 {
		t.Fatalf("fallback rooms should carry zero estimates, got %v", result.Summary.TotalEnergyKW)
	}
	if stats := e.Stats(); stats.PipelineFallbacks != 2 {
		t.Fatalf("fallbacks = %d, want 2", stats.PipelineFallbacks)
	}
}

func TestAnalyzeScopedLeavesSharedPoolAlone(t *testing.T) {
	e := newTestEngine(t, nil)
	now := time.Now()

	if _, err := e.RunAnalysis(context.Background(), twoRoomObservations(), campus.DepthLow, now); err != nil {
		t.Fatal(err)
	}

	scopedObs := map[string]campus.RoomObservation{"room_c": {Occupancy: 3}}
	result, err := e.AnalyzeScoped(context.Background(), scopedObs, campus.DepthLow, now)
	if err != nil {
		t.Fatal(err)
	}
	if result.Summary.TotalRooms != 1 {
		t.Fatalf("scoped run rooms = %d", result.Summary.TotalRooms)
	}

	if stats := e.Stats(); stats.PoolRooms != 2 {
		t.Fatalf("scoped run touched the shared pool: %+v", stats)
	}
}
