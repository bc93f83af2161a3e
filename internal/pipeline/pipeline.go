// v2
// internal/pipeline/pipeline.go

// Package pipeline runs the per-room inference state machine:
// Observe -> InferResources -> PredictDemand -> Recommend -> Done.
// Stages never mutate prior state; each returns an updated copy. If any
// stage fails the caller gets the pre-run state back untouched.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/oracle"
)

// Env carries per-run parameters into the stages.
type Env struct {
	Depth campus.Depth
	Now   time.Time
}

// Pipeline executes the four analysis stages for one room.
type Pipeline struct {
	oracle    oracle.Invoker
	anomalies oracle.Extractor
	recs      oracle.Extractor
	log       *slog.Logger
}

// New builds a pipeline with the default keyword extraction strategies.
func New(inv oracle.Invoker, log *slog.Logger) *Pipeline {
	return NewWithExtractors(inv, oracle.DefaultAnomalyExtractor(), oracle.DefaultRecommendationExtractor(), log)
}

// NewWithExtractors builds a pipeline with caller-supplied extraction
// strategies, for structured-output Oracle variants.
func NewWithExtractors(inv oracle.Invoker, anomalies, recs oracle.Extractor, log *slog.Logger) *Pipeline {
	return &Pipeline{
		oracle:    inv,
		anomalies: anomalies,
		recs:      recs,
		log:       log.With("component", "pipeline"),
	}
}

type stageFn func(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error)

// Run drives the state machine in strict order. On any stage error the
// pre-run state is returned unchanged alongside the error so a failing room
// never blocks its batch.
func (p *Pipeline) Run(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error) {
	stages := []struct {
		name string
		fn   stageFn
	}{
		{"observe", p.observe},
		{"infer_resources", p.inferResources},
		{"predict_demand", p.predictDemand},
		{"recommend", p.recommend},
	}

	cur := state
	for _, st := range stages {
		next, err := st.fn(ctx, env, cur)
		if err != nil {
			return state, fmt.Errorf("stage %s: %w", st.name, err)
		}
		cur = next
	}
	return cur, nil
}

// observe classifies current conditions against the room-type profile.
// Low depth applies two deterministic heuristics; otherwise the Oracle is
// consulted and anomaly lines are extracted from its reply.
func (p *Pipeline) observe(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error) {
	next := state
	next.LastUpdated = env.Now

	if env.Depth == campus.DepthLow {
		var anomalies []string
		if state.TemperatureComfort != campus.Comfortable {
			anomalies = append(anomalies, fmt.Sprintf("Temperature discomfort: %s", state.TemperatureComfort))
		}
		if float64(state.CurrentOccupancy) < float64(state.Capacity)*0.2 && len(state.EquipmentRunning) > 2 {
			anomalies = append(anomalies, fmt.Sprintf("Low occupancy (%d) but multiple equipment running", state.CurrentOccupancy))
		}
		next.Anomalies = anomalies
		return next, nil
	}

	reply, conv, err := p.invoke(ctx, state.Conversation, observePrompt(state))
	if err != nil {
		return state, err
	}
	next.Conversation = conv
	next.Anomalies = p.anomalies.Extract(reply)
	return next, nil
}

// inferResources computes the canonical deterministic estimates. At high
// depth the Oracle is additionally asked for qualitative refinement, but the
// numbers used downstream stay deterministic.
func (p *Pipeline) inferResources(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error) {
	profile := ProfileFor(state.RoomType)

	next := state
	next.EstimatedEnergyKW = profile.BaseEnergyKW +
		0.5*float64(len(state.EquipmentRunning)) +
		0.1*float64(state.CurrentOccupancy)
	if state.WaterRunning {
		next.EstimatedWaterLPH = profile.WaterRateLPH
	} else {
		next.EstimatedWaterLPH = 0
	}
	crowding := state.OccupancyRatio() * 200
	next.EstimatedCO2PPM = int(float64(campus.AmbientCO2PPM) + float64(state.CurrentOccupancy)*100 + crowding)

	switch state.TemperatureComfort {
	case campus.TooCold:
		next.ThermalLoad = campus.LoadHeating
	case campus.TooHot:
		next.ThermalLoad = campus.LoadCooling
	default:
		next.ThermalLoad = campus.LoadNeutral
	}

	if env.Depth == campus.DepthHigh {
		_, conv, err := p.invoke(ctx, next.Conversation, inferencePrompt(next))
		if err != nil {
			return state, err
		}
		next.Conversation = conv
	}
	return next, nil
}

// predictDemand projects occupancy and energy one hour ahead. During working
// hours [9,17) occupancy trends up 10% capped at capacity; off-peak it
// trends down 20% floored at zero.
func (p *Pipeline) predictDemand(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error) {
	profile := ProfileFor(state.RoomType)
	hour := env.Now.Hour()

	next := state
	if hour >= 9 && hour < 17 {
		predicted := int(float64(state.CurrentOccupancy) * 1.1)
		if predicted > state.Capacity {
			predicted = state.Capacity
		}
		next.PredictedOccupancy1H = predicted
	} else {
		predicted := int(float64(state.CurrentOccupancy) * 0.8)
		if predicted < 0 {
			predicted = 0
		}
		next.PredictedOccupancy1H = predicted
	}
	next.PredictedEnergy1H = float64(next.PredictedOccupancy1H) / math.Max(float64(state.Capacity), 1) * profile.MaxEnergyKW
	next.PredictedPeakTime = profile.PeakWindow

	if env.Depth == campus.DepthHigh {
		_, conv, err := p.invoke(ctx, next.Conversation, predictionPrompt(next, hour))
		if err != nil {
			return state, err
		}
		next.Conversation = conv
	}
	return next, nil
}

// recommend produces optimization actions. Low depth applies the fixed rule
// set in priority order; otherwise the Oracle is consulted and action lines
// extracted. Savings potential is deterministic in both modes.
func (p *Pipeline) recommend(ctx context.Context, env Env, state campus.RoomResult) (campus.RoomResult, error) {
	next := state

	if env.Depth == campus.DepthLow {
		var recs []string
		if state.TemperatureComfort != campus.Comfortable {
			recs = append(recs, "ACTION: Adjust HVAC to reach comfortable temperature (est. 10% savings)")
		}
		if state.OccupancyRatio() < 0.3 && state.EstimatedEnergyKW > 2.0 {
			recs = append(recs, "ACTION: Reduce lighting and equipment in low-occupancy room (est. 15% savings)")
		}
		if state.WaterRunning && state.RoomType != campus.RoomBathroom && state.RoomType != campus.RoomCafeteria {
			recs = append(recs, "ACTION: Check for water leaks or unnecessary usage (est. 20% savings)")
		}
		if len(recs) == 0 {
			recs = append(recs, "No immediate actions needed - room operating efficiently")
		}
		next.Recommendations = recs
		next.SavingsPotential = savingsPotential(state)
		return next, nil
	}

	reply, conv, err := p.invoke(ctx, state.Conversation, recommendationPrompt(state))
	if err != nil {
		return state, err
	}
	next.Conversation = conv
	next.Recommendations = p.recs.Extract(reply)
	next.SavingsPotential = savingsPotential(state)
	return next, nil
}

// savingsPotential scores recoverable usage from anomalies and
// inefficiencies, capped at the room-level maximum.
func savingsPotential(state campus.RoomResult) float64 {
	savings := float64(len(state.Anomalies)) * 5.0
	if state.TemperatureComfort != campus.Comfortable {
		savings += 10.0
	}
	if state.OccupancyRatio() < 0.3 && state.EstimatedEnergyKW > 2.0 {
		savings += 15.0
	}
	return math.Min(savings, campus.MaxRoomSavingsPct)
}

// invoke sends a prompt with the accumulated conversation and returns the
// reply plus the extended conversation (copy; the input slice is untouched).
func (p *Pipeline) invoke(ctx context.Context, prior []campus.Turn, prompt string) (string, []campus.Turn, error) {
	reply, err := p.oracle.Invoke(ctx, prompt, prior)
	if err != nil {
		return "", nil, err
	}
	conv := make([]campus.Turn, 0, len(prior)+2)
	conv = append(conv, prior...)
	conv = append(conv,
		campus.Turn{Role: "user", Content: prompt},
		campus.Turn{Role: "assistant", Content: reply},
	)
	return reply, conv, nil
}
