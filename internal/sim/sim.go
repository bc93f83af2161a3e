// v2
// internal/sim/sim.go

// Package sim implements the what-if simulation engine: it narrows the
// working set under a budget, applies a scenario to the observations, runs
// the orchestrator twice and diffs the two campus summaries.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"sync"
	"time"

	"ecocampus/analyzer/internal/campus"
)

// Scenario types understood by ApplyScenario. Anything else is a no-op,
// analyzed against unmodified data.
const (
	TypeCloseBuilding = "close_building"
	TypeReduceHVAC    = "reduce_hvac"
	TypeShiftSchedule = "shift_schedule"
)

// ErrInvalidScenario marks a scenario payload missing required fields.
var ErrInvalidScenario = errors.New("invalid scenario")

// Scenario describes one what-if intervention. Extra parameter keys are
// carried through untouched.
type Scenario struct {
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	BuildingID string         `json:"building_id,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Validate checks the required fields.
func (s Scenario) Validate() error {
	if s.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidScenario)
	}
	if s.Type == "" {
		return fmt.Errorf("%w: type is required", ErrInvalidScenario)
	}
	return nil
}

// Budget bounds how much of the campus one simulation run may analyze.
// Zero limits mean unbounded.
type Budget struct {
	MaxRooms     int
	MaxBuildings int
	Depth        campus.Depth
}

// BudgetFromParameters reads num_rooms, num_buildings and budget_level out
// of a scenario parameter map. JSON numbers arrive as float64; integers are
// accepted too for callers constructing maps in code.
func BudgetFromParameters(params map[string]any, fallback campus.Depth) Budget {
	b := Budget{Depth: fallback}
	if params == nil {
		return b
	}
	b.MaxRooms = intParam(params, "num_rooms")
	b.MaxBuildings = intParam(params, "num_buildings")
	if level, ok := params["budget_level"].(string); ok && level != "" {
		b.Depth = campus.ParseDepth(level)
	}
	return b
}

func intParam(params map[string]any, key string) int {
	switch v := params[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

// Constrain narrows the observation set to the budget. Buildings are
// limited first: the first N distinct building ids, walking rooms in sorted
// room-id order so the choice is deterministic. Then, if more rooms remain
// than allowed, the highest-occupancy rooms win; ties keep sorted-id order.
func Constrain(obs map[string]campus.RoomObservation, b Budget) map[string]campus.RoomObservation {
	if b.MaxRooms <= 0 && b.MaxBuildings <= 0 {
		return obs
	}

	ids := sortedIDs(obs)

	if b.MaxBuildings > 0 {
		allowed := make(map[string]struct{}, b.MaxBuildings)
		for _, id := range ids {
			bid := obs[id].BuildingID
			if _, ok := allowed[bid]; ok {
				continue
			}
			if len(allowed) == b.MaxBuildings {
				continue
			}
			allowed[bid] = struct{}{}
		}
		kept := ids[:0]
		for _, id := range ids {
			if _, ok := allowed[obs[id].BuildingID]; ok {
				kept = append(kept, id)
			}
		}
		ids = kept
	}

	if b.MaxRooms > 0 && len(ids) > b.MaxRooms {
		sort.SliceStable(ids, func(i, j int) bool {
			return obs[ids[i]].Occupancy > obs[ids[j]].Occupancy
		})
		ids = ids[:b.MaxRooms]
	}

	limited := make(map[string]campus.RoomObservation, len(ids))
	for _, id := range ids {
		limited[id] = obs[id]
	}
	return limited
}

// ApplyScenario returns a modified copy of the observations; the input map
// and its slices are never touched, so baseline and simulated runs can share
// the original data.
func ApplyScenario(obs map[string]campus.RoomObservation, sc Scenario) map[string]campus.RoomObservation {
	modified := make(map[string]campus.RoomObservation, len(obs))
	for id, o := range obs {
		switch sc.Type {
		case TypeCloseBuilding:
			if o.BuildingID == sc.BuildingID {
				o.Occupancy = 0
				o.EquipmentRunning = nil
			}
		case TypeReduceHVAC:
			if o.OccupancyLevel == campus.OccupancyLow {
				o.TemperatureComfort = campus.Comfortable
			}
		}
		modified[id] = o
	}
	return modified
}

// Comparison is the baseline-vs-simulated savings block.
type Comparison struct {
	EnergySavingsKW   float64 `json:"energy_savings_kw"`
	EnergySavingsPct  float64 `json:"energy_savings_pct"`
	WaterSavingsLPH   float64 `json:"water_savings_lph"`
	WaterSavingsPct   float64 `json:"water_savings_pct"`
	CostSavingsHourly float64 `json:"cost_savings_hourly"`
}

// Compare diffs two campus summaries. Percentages divide by the baseline
// with a floor of 1 so an empty baseline never faults.
func Compare(baseline, simulated campus.CampusSummary) Comparison {
	energySavings := baseline.TotalEnergyKW - simulated.TotalEnergyKW
	waterSavings := baseline.TotalWaterLPH - simulated.TotalWaterLPH

	return Comparison{
		EnergySavingsKW:   campus.Round2(energySavings),
		EnergySavingsPct:  campus.Round1(energySavings / math.Max(baseline.TotalEnergyKW, 1) * 100),
		WaterSavingsLPH:   campus.Round2(waterSavings),
		WaterSavingsPct:   campus.Round1(waterSavings / math.Max(baseline.TotalWaterLPH, 1) * 100),
		CostSavingsHourly: campus.Round2(energySavings * campus.CostPerKWh),
	}
}

// ExecutionInfo reports the effective scope of one simulation run.
type ExecutionInfo struct {
	RoomsAnalyzed     int          `json:"rooms_analyzed"`
	BuildingsAnalyzed int          `json:"buildings_analyzed"`
	BudgetLevel       campus.Depth `json:"budget_level"`
}

// Result is the full outcome of one what-if run.
type Result struct {
	Scenario       Scenario             `json:"scenario"`
	Baseline       campus.CampusSummary `json:"baseline"`
	Simulated      campus.CampusSummary `json:"simulated"`
	Comparison     Comparison           `json:"comparison"`
	Recommendation string               `json:"recommendation"`
	ExecutionInfo  ExecutionInfo        `json:"execution_info"`
}

// Runner runs one full analysis cycle over a private scope, leaving any
// long-lived orchestrator state untouched.
type Runner interface {
	AnalyzeScoped(ctx context.Context, obs map[string]campus.RoomObservation, depth campus.Depth, now time.Time) (campus.CampusResult, error)
}

// Engine drives what-if simulations over a Runner.
type Engine struct {
	runner Runner
	log    *slog.Logger
}

func NewEngine(runner Runner, log *slog.Logger) *Engine {
	return &Engine{runner: runner, log: log.With("component", "sim")}
}

// WhatIf runs one scenario: constrain, apply, analyze baseline and simulated
// concurrently, compare. The two runs use private scopes so they cannot see
// each other or the live pool.
func (e *Engine) WhatIf(ctx context.Context, sc Scenario, obs map[string]campus.RoomObservation, budget Budget, now time.Time) (Result, error) {
	if err := sc.Validate(); err != nil {
		return Result{}, err
	}

	limited := Constrain(obs, budget)
	modified := ApplyScenario(limited, sc)

	e.log.Info("simulation starting",
		"scenario", sc.Name, "type", sc.Type,
		"rooms", len(limited), "budgetLevel", budget.Depth)

	var (
		wg                  sync.WaitGroup
		baseline, simulated campus.CampusResult
		baseErr, simErr     error
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		baseline, baseErr = e.runner.AnalyzeScoped(ctx, limited, budget.Depth, now)
	}()
	go func() {
		defer wg.Done()
		simulated, simErr = e.runner.AnalyzeScoped(ctx, modified, budget.Depth, now)
	}()
	wg.Wait()

	if baseErr != nil {
		return Result{}, fmt.Errorf("baseline analysis: %w", baseErr)
	}
	if simErr != nil {
		return Result{}, fmt.Errorf("simulated analysis: %w", simErr)
	}

	comparison := Compare(baseline.Summary, simulated.Summary)

	recommendation := "Review"
	if comparison.EnergySavingsPct > 10 {
		recommendation = "Implement"
	}

	buildings := make(map[string]struct{})
	for _, o := range limited {
		buildings[o.BuildingID] = struct{}{}
	}

	return Result{
		Scenario:       sc,
		Baseline:       baseline.Summary,
		Simulated:      simulated.Summary,
		Comparison:     comparison,
		Recommendation: recommendation,
		ExecutionInfo: ExecutionInfo{
			RoomsAnalyzed:     len(limited),
			BuildingsAnalyzed: len(buildings),
			BudgetLevel:       budget.Depth,
		},
	}, nil
}

// RankedResult pairs a scenario name with its savings for ranking.
type RankedResult struct {
	Scenario string     `json:"scenario"`
	Savings  Comparison `json:"savings"`
}

// ComparisonReport ranks several scenarios against each other.
type ComparisonReport struct {
	ScenariosCompared int            `json:"scenarios_compared"`
	Results           []RankedResult `json:"results"`
	Recommended       *RankedResult  `json:"recommended"`
}

// CompareScenarios runs each scenario under the default budget and ranks
// them by energy savings percentage, best first. A scenario that fails to
// validate fails the whole comparison; a failed run is skipped with a log.
func (e *Engine) CompareScenarios(ctx context.Context, scenarios []Scenario, obs map[string]campus.RoomObservation, depth campus.Depth, now time.Time) (ComparisonReport, error) {
	results := make([]RankedResult, 0, len(scenarios))
	for _, sc := range scenarios {
		if err := sc.Validate(); err != nil {
			return ComparisonReport{}, err
		}
		res, err := e.WhatIf(ctx, sc, obs, Budget{Depth: depth}, now)
		if err != nil {
			e.log.Warn("scenario run failed during comparison", "scenario", sc.Name, "error", err)
			continue
		}
		results = append(results, RankedResult{Scenario: sc.Name, Savings: res.Comparison})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Savings.EnergySavingsPct > results[j].Savings.EnergySavingsPct
	})

	report := ComparisonReport{
		ScenariosCompared: len(scenarios),
		Results:           results,
	}
	if len(results) > 0 {
		report.Recommended = &results[0]
	}
	return report, nil
}

func sortedIDs(obs map[string]campus.RoomObservation) []string {
	ids := make([]string, 0, len(obs))
	for id := range obs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
