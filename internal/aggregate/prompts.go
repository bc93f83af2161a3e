// v1
// internal/aggregate/prompts.go
package aggregate

import (
	"fmt"
	"strings"
	"time"

	"ecocampus/analyzer/internal/campus"
)

func buildingPrompt(b campus.BuildingResult) string {
	return fmt.Sprintf(`You are optimizing %s with %d rooms.

Current Building Metrics:
- Total Energy: %.2f kW
- Total Water: %.2f L/h
- Occupancy: %d/%d (%.1f%%)
- Average CO2: %d ppm

Building-Level Anomalies:
%s

Room-Level Recommendations:
%s

Generate 5 building-wide recommendations considering:
1. Can we coordinate HVAC across floors?
2. Should we close sections of the building?
3. Are there load-balancing opportunities?
4. Can we shift usage patterns?
5. Emergency responses needed?

Format: "BUILDING ACTION: [specific action] (estimated impact)"`,
		b.BuildingName, b.TotalRooms,
		b.TotalEnergyKW, b.TotalWaterLPH,
		b.TotalOccupancy, b.TotalCapacity, b.OccupancyRate,
		b.AvgCO2PPM,
		formatList(head(b.Anomalies, 5)),
		formatList(head(b.RoomRecommendations, 5)),
	)
}

func campusPrompt(result campus.CampusResult, buildings []campus.BuildingResult, now time.Time) string {
	var summary strings.Builder
	for i, b := range buildings {
		if i > 0 {
			summary.WriteByte('\n')
		}
		fmt.Fprintf(&summary, "  - %s: %g kW, %g%% occupied", b.BuildingName, b.TotalEnergyKW, b.OccupancyRate)
	}
	return fmt.Sprintf(`You are the Campus Sustainability Director analyzing the entire campus.

Campus Overview:
- Total Energy: %.2f kW
- Total Water: %.2f L/h
- Campus Occupancy: %.1f%%
- Time: %s

Building Status:
%s

Generate 5-7 strategic campus-wide recommendations:
1. Cross-building optimizations
2. Policy changes needed
3. Infrastructure priorities
4. Behavioral change campaigns
5. Emergency responses
6. Long-term sustainability initiatives

Consider: Can we close entire buildings? Shift classes? Implement smart scheduling?

Format: "CAMPUS POLICY: [action] (impact: [metric])"`,
		result.Summary.TotalEnergyKW, result.Summary.TotalWaterLPH,
		result.Summary.OccupancyRate,
		now.Format("Monday 15:04"),
		summary.String(),
	)
}

func formatList(items []string) string {
	if len(items) == 0 {
		return "  None"
	}
	var b strings.Builder
	for i, item := range items {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString("  - ")
		b.WriteString(item)
	}
	return b.String()
}

func head(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n]
}
