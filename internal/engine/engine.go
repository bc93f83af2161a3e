// v3
// internal/engine/engine.go

// Package engine orchestrates a full analysis cycle: reconcile the agent
// pool against the requested working set, fan the room pipelines out, roll
// results up to buildings and campus, and publish the outcome.
package engine

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ecocampus/analyzer/internal/aggregate"
	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/config"
	"ecocampus/analyzer/internal/ledger"
	"ecocampus/analyzer/internal/metrics"
	"ecocampus/analyzer/internal/pipeline"
	"ecocampus/analyzer/internal/pool"
)

// Engine owns the long-lived agent pool and drives analysis cycles over it.
// The pool is single-writer: Reconcile runs under the mutex before any
// fan-out reads the reconciled snapshot.
type Engine struct {
	log    *slog.Logger
	layout *config.LayoutStore
	pipe   *pipeline.Pipeline
	agg    *aggregate.Aggregator
	pub    *ledger.Publisher
	met    *metrics.Metrics

	mu   sync.Mutex
	pool *pool.Pool

	startedAt time.Time

	analyses    atomic.Int64
	pipelines   atomic.Int64
	fallbacks   atomic.Int64
	skipped     atomic.Int64
	simulations atomic.Int64
}

func New(layout *config.LayoutStore, pipe *pipeline.Pipeline, agg *aggregate.Aggregator, pub *ledger.Publisher, met *metrics.Metrics, log *slog.Logger) *Engine {
	return &Engine{
		log:       log.With("component", "engine"),
		layout:    layout,
		pipe:      pipe,
		agg:       agg,
		pub:       pub,
		met:       met,
		pool:      pool.New(),
		startedAt: time.Now(),
	}
}

// RunAnalysis executes one analysis cycle against the shared pool: entities
// are created for new room ids and evicted for absent ones, then every
// tracked room runs its pipeline concurrently. The completed result is
// published to the ledger when one is configured.
func (e *Engine) RunAnalysis(ctx context.Context, obs map[string]campus.RoomObservation, depth campus.Depth, now time.Time) (campus.CampusResult, error) {
	if err := ctx.Err(); err != nil {
		return campus.CampusResult{}, err
	}
	start := time.Now()
	ids := sortedKeys(obs)

	e.mu.Lock()
	next, skipped := pool.Reconcile(e.pool, ids, e.layout, e.log)
	e.pool = next
	e.mu.Unlock()

	e.met.SetPoolSize(len(next.Rooms), len(next.Buildings))
	e.met.RoomsSkipped(len(skipped))
	e.skipped.Add(int64(len(skipped)))

	e.log.Info("analysis starting",
		"rooms", len(next.Rooms), "buildings", len(next.Buildings),
		"skipped", len(skipped), "budgetLevel", depth)

	result := e.analyze(ctx, next, obs, depth, now)

	e.analyses.Add(1)
	e.met.AnalysisRun(time.Since(start))
	e.log.Info("analysis complete",
		"totalEnergyKw", result.Summary.TotalEnergyKW,
		"totalRooms", result.Summary.TotalRooms,
		"elapsed", time.Since(start))

	e.pub.PublishAnalysis(ctx, result)
	return result, nil
}

// AnalyzeScoped runs one full cycle over a private pool built just for this
// call. Simulations use it so baseline and counterfactual runs never touch
// the shared pool or each other.
func (e *Engine) AnalyzeScoped(ctx context.Context, obs map[string]campus.RoomObservation, depth campus.Depth, now time.Time) (campus.CampusResult, error) {
	if err := ctx.Err(); err != nil {
		return campus.CampusResult{}, err
	}
	scoped, skipped := pool.Reconcile(nil, sortedKeys(obs), e.layout, e.log)
	e.met.RoomsSkipped(len(skipped))
	e.skipped.Add(int64(len(skipped)))
	return e.analyze(ctx, scoped, obs, depth, now), nil
}

// NoteSimulation records one completed simulation run.
func (e *Engine) NoteSimulation() {
	e.simulations.Add(1)
	e.met.SimulationRun()
}

// analyze fans the room pipelines out over the pool snapshot and aggregates
// the results. A failed room falls back to its pre-run seeded state so one
// bad room never sinks the batch.
func (e *Engine) analyze(ctx context.Context, p *pool.Pool, obs map[string]campus.RoomObservation, depth campus.Depth, now time.Time) campus.CampusResult {
	env := pipeline.Env{Depth: depth, Now: now}
	roomIDs := p.RoomIDs()
	results := make([]campus.RoomResult, len(roomIDs))

	var wg sync.WaitGroup
	for i, id := range roomIDs {
		wg.Add(1)
		go func(i int, ent *pool.RoomEntity) {
			defer wg.Done()
			seed := seedState(ent, obs[ent.ID], now)
			e.pipelines.Add(1)

			out, err := e.pipe.Run(ctx, env, seed)
			if err != nil {
				e.log.Warn("room pipeline failed; keeping pre-run state", "roomId", ent.ID, "error", err)
				e.met.PipelineOutcome("fallback")
				e.fallbacks.Add(1)
				out = seed
			} else {
				e.met.PipelineOutcome("ok")
			}
			results[i] = out
		}(i, p.Rooms[id])
	}
	wg.Wait()

	byBuilding := make(map[string][]campus.RoomResult)
	for _, r := range results {
		byBuilding[r.BuildingID] = append(byBuilding[r.BuildingID], r)
	}

	buildingIDs := p.BuildingIDs()
	buildingResults := make([]campus.BuildingResult, len(buildingIDs))
	for i, bid := range buildingIDs {
		wg.Add(1)
		go func(i int, ent *pool.BuildingEntity) {
			defer wg.Done()
			buildingResults[i] = e.agg.Building(ctx, ent.ID, ent.Config.Name, byBuilding[ent.ID], depth, now)
		}(i, p.Buildings[bid])
	}
	wg.Wait()

	buildings := buildingResults[:0]
	for _, b := range buildingResults {
		if b.TotalRooms > 0 {
			buildings = append(buildings, b)
		}
	}

	return e.agg.Campus(ctx, e.layout.CampusName(), buildings, depth, now)
}

// seedState builds the initial room state from the entity's static
// configuration and the supplied observation. Absent classifications default
// to the quiet end of their scales.
func seedState(ent *pool.RoomEntity, o campus.RoomObservation, now time.Time) campus.RoomResult {
	level := o.OccupancyLevel
	if level == "" {
		level = campus.OccupancyLow
	}
	comfort := o.TemperatureComfort
	if comfort == "" {
		comfort = campus.Comfortable
	}
	return campus.RoomResult{
		RoomID:             ent.ID,
		RoomType:           ent.Config.Type,
		BuildingID:         ent.Config.BuildingID,
		Floor:              ent.Config.Floor,
		Capacity:           ent.Config.Capacity,
		CurrentOccupancy:   o.Occupancy,
		OccupancyLevel:     level,
		TemperatureComfort: comfort,
		EquipmentRunning:   o.EquipmentRunning,
		WaterRunning:       o.WaterRunning,
		OccupancyHistory:   o.OccupancyHistory,
		EnergyHistory:      o.EnergyHistory,
		WaterHistory:       o.WaterHistory,
		EstimatedCO2PPM:    campus.AmbientCO2PPM,
		ThermalLoad:        campus.LoadNeutral,
		LastUpdated:        now,
	}
}

// Stats is the snapshot served by /status.
type Stats struct {
	StartedAt         time.Time `json:"started_at"`
	Analyses          int64     `json:"analyses_total"`
	RoomPipelines     int64     `json:"room_pipelines_total"`
	PipelineFallbacks int64     `json:"pipeline_fallbacks_total"`
	RoomsSkipped      int64     `json:"rooms_skipped_total"`
	Simulations       int64     `json:"simulations_total"`
	PoolRooms         int       `json:"pool_rooms"`
	PoolBuildings     int       `json:"pool_buildings"`
}

// Stats returns the current counters.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	rooms, buildings := len(e.pool.Rooms), len(e.pool.Buildings)
	e.mu.Unlock()

	return Stats{
		StartedAt:         e.startedAt,
		Analyses:          e.analyses.Load(),
		RoomPipelines:     e.pipelines.Load(),
		PipelineFallbacks: e.fallbacks.Load(),
		RoomsSkipped:      e.skipped.Load(),
		Simulations:       e.simulations.Load(),
		PoolRooms:         rooms,
		PoolBuildings:     buildings,
	}
}

func sortedKeys(obs map[string]campus.RoomObservation) []string {
	ids := make([]string, 0, len(obs))
	for id := range obs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
