// v1
// internal/pipeline/prompts.go
package pipeline

import (
	"fmt"
	"strings"

	"ecocampus/analyzer/internal/campus"
)

func observePrompt(state campus.RoomResult) string {
	equipment := "None"
	if len(state.EquipmentRunning) > 0 {
		equipment = strings.Join(state.EquipmentRunning, ", ")
	}
	water := "Off"
	if state.WaterRunning {
		water = "Running"
	}
	return fmt.Sprintf(`You are analyzing room %s (%s).

Current Observations:
- Occupancy: %d/%d (%s)
- Temperature: %s
- Equipment: %s
- Water: %s

Room Type Profile: %s

Task: Analyze if current conditions are normal or anomalous for this room type and time.`,
		state.RoomID, state.RoomType,
		state.CurrentOccupancy, state.Capacity, state.OccupancyLevel,
		state.TemperatureComfort,
		equipment, water,
		ProfileFor(state.RoomType).Description,
	)
}

func inferencePrompt(state campus.RoomResult) string {
	equipment := "None"
	if len(state.EquipmentRunning) > 0 {
		equipment = strings.Join(state.EquipmentRunning, ", ")
	}
	return fmt.Sprintf(`Based on the room analysis, refine these resource estimates:

Room: %s with %d people (capacity: %d)
Equipment: %s
Temperature: %s

Initial Estimates:
- Energy: %.2f kW
- Water: %.2f L/h
- CO2: %d ppm
- Thermal Load: %s

Consider:
1. Are these estimates realistic for this room type?
2. Are there hidden energy loads (HVAC working harder due to discomfort)?
3. Any unusual patterns?

Provide refined estimates with brief reasoning.`,
		state.RoomType, state.CurrentOccupancy, state.Capacity,
		equipment, state.TemperatureComfort,
		state.EstimatedEnergyKW, state.EstimatedWaterLPH, state.EstimatedCO2PPM, state.ThermalLoad,
	)
}

func predictionPrompt(state campus.RoomResult, hour int) string {
	return fmt.Sprintf(`Predict resource demand for the next 1 hour.

Current State (at %d:00):
- Occupancy: %d (%s)
- Energy: %.2f kW
- Room Type: %s

Historical Pattern (last 24h):
%s

Predict:
1. Occupancy in 1 hour
2. Energy demand in 1 hour
3. Peak usage time today

Consider: day of week, time of day, room type typical schedule.
Provide numeric predictions.`,
		hour,
		state.CurrentOccupancy, state.OccupancyLevel,
		state.EstimatedEnergyKW, state.RoomType,
		formatHistory(state.OccupancyHistory),
	)
}

func recommendationPrompt(state campus.RoomResult) string {
	anomalies := "None"
	if len(state.Anomalies) > 0 {
		anomalies = strings.Join(state.Anomalies, ", ")
	}
	return fmt.Sprintf(`You are an energy optimization expert. Generate actionable recommendations.

Room Analysis Summary:
- Room: %s (%s)
- Current Energy: %.2f kW
- Predicted 1h: %.2f kW
- Comfort: %s
- Occupancy: %d/%d
- Anomalies: %s

Generate 3-5 specific recommendations:
1. Immediate actions (next 1 hour)
2. Energy/water savings opportunities
3. Comfort improvements
4. Predictive adjustments

Format each as: "ACTION: specific recommendation (estimated X%% savings)"`,
		state.RoomID, state.RoomType,
		state.EstimatedEnergyKW, state.PredictedEnergy1H,
		state.TemperatureComfort,
		state.CurrentOccupancy, state.Capacity,
		anomalies,
	)
}

// formatHistory renders the tail of a history window for a prompt.
func formatHistory(history []campus.HistorySample) string {
	if len(history) == 0 {
		return "No historical data available"
	}
	start := 0
	if len(history) > 5 {
		start = len(history) - 5
	}
	var b strings.Builder
	for i, h := range history[start:] {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "  %s: %.0f people", h.Time, h.Value)
	}
	return b.String()
}
