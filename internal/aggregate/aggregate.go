// v2
// internal/aggregate/aggregate.go

// Package aggregate rolls room results up to building summaries and building
// summaries up to the campus result.
package aggregate

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/oracle"
)

// Aggregator computes the two aggregation levels. Oracle consultation for
// recommendation text is skipped entirely at low depth so deterministic runs
// stay deterministic; any Oracle failure degrades to an empty recommendation
// list and never fails the aggregation.
type Aggregator struct {
	oracle       oracle.Invoker
	buildingRecs oracle.Extractor
	campusRecs   oracle.Extractor
	log          *slog.Logger
}

// New builds an aggregator with the default extraction strategies.
func New(inv oracle.Invoker, log *slog.Logger) *Aggregator {
	return &Aggregator{
		oracle:       inv,
		buildingRecs: oracle.MarkerOrPercent{Marker: "BUILDING ACTION:", Limit: 5},
		campusRecs:   oracle.CampusPolicyLines{Limit: 7},
		log:          log.With("component", "aggregate"),
	}
}

// Building aggregates one building's room results. Callers only invoke it
// for buildings with at least one contributing room.
func (a *Aggregator) Building(ctx context.Context, buildingID, buildingName string, rooms []campus.RoomResult, depth campus.Depth, now time.Time) campus.BuildingResult {
	var totalEnergy, totalWater float64
	var totalOccupancy, totalCapacity int
	var co2Sum float64

	var anomalies, roomRecs []string
	for _, r := range rooms {
		totalEnergy += r.EstimatedEnergyKW
		totalWater += r.EstimatedWaterLPH
		totalOccupancy += r.CurrentOccupancy
		totalCapacity += r.Capacity
		co2Sum += float64(r.EstimatedCO2PPM)
		for _, an := range r.Anomalies {
			anomalies = append(anomalies, fmt.Sprintf("%s: %s", r.RoomID, an))
		}
		for _, rec := range r.Recommendations {
			roomRecs = append(roomRecs, fmt.Sprintf("%s: %s", r.RoomID, rec))
		}
	}

	occupancyRate := float64(totalOccupancy) / math.Max(float64(totalCapacity), 1) * 100

	if buildingName == "" {
		buildingName = buildingID
	}

	b := campus.BuildingResult{
		BuildingID:          buildingID,
		BuildingName:        buildingName,
		TotalRooms:          len(rooms),
		TotalEnergyKW:       campus.Round2(totalEnergy),
		TotalWaterLPH:       campus.Round2(totalWater),
		TotalOccupancy:      totalOccupancy,
		TotalCapacity:       totalCapacity,
		OccupancyRate:       campus.Round1(occupancyRate),
		AvgCO2PPM:           int(co2Sum / math.Max(float64(len(rooms)), 1)),
		RoomResults:         rooms,
		Anomalies:           anomalies,
		RoomRecommendations: roomRecs,
		Timestamp:           now,
	}

	b.BuildingRecommendations = a.buildingRecommendations(ctx, b, depth)
	b.Savings = buildingSavings(b, rooms, now)
	return b
}

func (a *Aggregator) buildingRecommendations(ctx context.Context, b campus.BuildingResult, depth campus.Depth) []string {
	if depth == campus.DepthLow {
		return nil
	}
	reply, err := a.oracle.Invoke(ctx, buildingPrompt(b), nil)
	if err != nil {
		a.log.Warn("building recommendation oracle call failed", "buildingId", b.BuildingID, "error", err)
		return nil
	}
	return a.buildingRecs.Extract(reply)
}

// buildingSavings computes the building-level savings breakdown: mean room
// savings plus a coordination bonus for low occupancy and night hours. The
// displayed total is capped at the building maximum and that capped value is
// what gets converted into absolute kWh and L/h.
func buildingSavings(b campus.BuildingResult, rooms []campus.RoomResult, now time.Time) campus.BuildingSavings {
	var sum float64
	for _, r := range rooms {
		sum += r.SavingsPotential
	}
	roomLevel := sum / math.Max(float64(len(rooms)), 1)

	var coordination float64
	if b.OccupancyRate < 30 {
		coordination += 10.0
	}
	if hour := now.Hour(); hour > 20 || hour < 6 {
		coordination += 15.0
	}

	total := math.Min(roomLevel+coordination, campus.MaxBuildingSavingsPct)

	return campus.BuildingSavings{
		RoomLevelSavings:       campus.Round1(roomLevel),
		BuildingLevelSavings:   campus.Round1(coordination),
		TotalPotentialSavings:  campus.Round1(total),
		EstimatedKWHSaved:      campus.Round2(b.TotalEnergyKW * total / 100),
		EstimatedWaterSavedLPH: campus.Round2(b.TotalWaterLPH * total / 100),
	}
}

// Campus aggregates building results into the top-level campus state.
func (a *Aggregator) Campus(ctx context.Context, campusName string, buildings []campus.BuildingResult, depth campus.Depth, now time.Time) campus.CampusResult {
	var totalEnergy, totalWater float64
	var totalOccupancy, totalCapacity, totalRooms int
	var kwhSaved, waterSaved float64

	byID := make(map[string]campus.BuildingResult, len(buildings))
	for _, b := range buildings {
		totalEnergy += b.TotalEnergyKW
		totalWater += b.TotalWaterLPH
		totalOccupancy += b.TotalOccupancy
		totalCapacity += b.TotalCapacity
		totalRooms += b.TotalRooms
		kwhSaved += b.Savings.EstimatedKWHSaved
		waterSaved += b.Savings.EstimatedWaterSavedLPH
		byID[b.BuildingID] = b
	}

	occupancyRate := float64(totalOccupancy) / math.Max(float64(totalCapacity), 1) * 100

	result := campus.CampusResult{
		CampusName: campusName,
		Timestamp:  now,
		Summary: campus.CampusSummary{
			TotalBuildings: len(buildings),
			TotalRooms:     totalRooms,
			TotalEnergyKW:  campus.Round2(totalEnergy),
			TotalWaterLPH:  campus.Round2(totalWater),
			TotalOccupancy: totalOccupancy,
			TotalCapacity:  totalCapacity,
			OccupancyRate:  campus.Round1(occupancyRate),
		},
		SavingsPotential: campus.CampusSavings{
			TotalKWHSaved:              campus.Round2(kwhSaved),
			TotalWaterSavedLPH:         campus.Round2(waterSaved),
			EstimatedCostSavingsHourly: campus.Round2(kwhSaved * campus.CostPerKWh),
			CO2ReductionKG:             campus.Round2(kwhSaved * campus.CO2KgPerKWh),
		},
		CriticalBuildings: criticalBuildings(buildings),
		Buildings:         byID,
	}

	result.CampusRecommendations = a.campusRecommendations(ctx, result, buildings, depth, now)
	return result
}

// criticalBuildings ranks buildings by energy draw descending and keeps the
// top three. Ties preserve building id order.
func criticalBuildings(buildings []campus.BuildingResult) []campus.CriticalBuilding {
	ranked := make([]campus.BuildingResult, len(buildings))
	copy(ranked, buildings)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].BuildingID < ranked[j].BuildingID })
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].TotalEnergyKW > ranked[j].TotalEnergyKW })

	n := len(ranked)
	if n > 3 {
		n = 3
	}
	out := make([]campus.CriticalBuilding, 0, n)
	for _, b := range ranked[:n] {
		out = append(out, campus.CriticalBuilding{
			BuildingID:    b.BuildingID,
			BuildingName:  b.BuildingName,
			EnergyKW:      b.TotalEnergyKW,
			OccupancyRate: b.OccupancyRate,
		})
	}
	return out
}

func (a *Aggregator) campusRecommendations(ctx context.Context, result campus.CampusResult, buildings []campus.BuildingResult, depth campus.Depth, now time.Time) []string {
	if depth == campus.DepthLow {
		return nil
	}
	reply, err := a.oracle.Invoke(ctx, campusPrompt(result, buildings, now), nil)
	if err != nil {
		a.log.Warn("campus recommendation oracle call failed", "error", err)
		return nil
	}
	return a.campusRecs.Extract(reply)
}
