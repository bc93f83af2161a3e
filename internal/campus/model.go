// v1
// internal/campus/model.go
package campus

import (
	"math"
	"time"
)

// RoomType enumerates the room categories known to the behavioral profiles.
type RoomType string

const (
	RoomClassroom RoomType = "classroom"
	RoomLab       RoomType = "lab"
	RoomLibrary   RoomType = "library"
	RoomDorm      RoomType = "dorm"
	RoomBathroom  RoomType = "bathroom"
	RoomCafeteria RoomType = "cafeteria"
)

// OccupancyLevel is the coarse occupancy classification supplied by sensors.
type OccupancyLevel string

const (
	OccupancyLow    OccupancyLevel = "low"
	OccupancyMedium OccupancyLevel = "medium"
	OccupancyHigh   OccupancyLevel = "high"
)

// Comfort is the perceived thermal comfort state of a room.
type Comfort string

const (
	TooCold     Comfort = "too_cold"
	Comfortable Comfort = "comfortable"
	TooHot      Comfort = "too_hot"
)

// ThermalLoad is the HVAC direction inferred from comfort.
type ThermalLoad string

const (
	LoadHeating ThermalLoad = "heating"
	LoadCooling ThermalLoad = "cooling"
	LoadNeutral ThermalLoad = "neutral"
)

// Depth selects how much Oracle reasoning an analysis run may spend.
// Low is fully deterministic; medium consults the Oracle for anomaly and
// recommendation text; high additionally requests qualitative refinement of
// the numeric stages.
type Depth string

const (
	DepthLow    Depth = "low"
	DepthMedium Depth = "medium"
	DepthHigh   Depth = "high"
)

// ParseDepth normalizes a budget_level string, defaulting to medium.
func ParseDepth(s string) Depth {
	switch Depth(s) {
	case DepthLow, DepthMedium, DepthHigh:
		return Depth(s)
	default:
		return DepthMedium
	}
}

// AmbientCO2PPM is the outdoor CO2 baseline; estimates never go below it.
const AmbientCO2PPM = 400

// Fixed conversion constants used by campus-level savings estimates.
const (
	CostPerKWh  = 0.12 // currency per kWh
	CO2KgPerKWh = 0.5  // kg CO2 per kWh
)

// Savings caps per hierarchy level, in percent.
const (
	MaxRoomSavingsPct     = 40.0
	MaxBuildingSavingsPct = 50.0
)

// HistorySample is one entry of a bounded most-recent-N history window.
type HistorySample struct {
	Time  string  `json:"time"`
	Value float64 `json:"value"`
}

// Turn is one exchange with the Reasoning Oracle, accumulated per room so
// later stages reason over the earlier conversation.
type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// RoomObservation is the externally supplied sensor snapshot for one room.
// It is immutable for the duration of an analysis cycle.
type RoomObservation struct {
	RoomID             string          `json:"room_id,omitempty"`
	RoomType           RoomType        `json:"type,omitempty"`
	BuildingID         string          `json:"building_id"`
	Floor              int             `json:"floor,omitempty"`
	Capacity           int             `json:"capacity,omitempty"`
	Occupancy          int             `json:"occupancy"`
	OccupancyLevel     OccupancyLevel  `json:"occupancy_level"`
	TemperatureComfort Comfort         `json:"temperature_comfort"`
	EquipmentRunning   []string        `json:"equipment_running"`
	WaterRunning       bool            `json:"water_running"`
	OccupancyHistory   []HistorySample `json:"occupancy_history,omitempty"`
	EnergyHistory      []HistorySample `json:"energy_history,omitempty"`
	WaterHistory       []HistorySample `json:"water_history,omitempty"`
}

// RoomResult is the full per-room state produced by one pipeline run.
// Stages build it incrementally; each stage returns an updated copy and the
// previous value is never mutated in place.
type RoomResult struct {
	RoomID     string   `json:"room_id"`
	RoomType   RoomType `json:"room_type"`
	BuildingID string   `json:"building_id"`
	Floor      int      `json:"floor"`
	Capacity   int      `json:"capacity"`

	CurrentOccupancy   int             `json:"current_occupancy"`
	OccupancyLevel     OccupancyLevel  `json:"occupancy_level"`
	TemperatureComfort Comfort         `json:"temperature_comfort"`
	EquipmentRunning   []string        `json:"equipment_running"`
	WaterRunning       bool            `json:"water_running"`
	OccupancyHistory   []HistorySample `json:"occupancy_history,omitempty"`
	EnergyHistory      []HistorySample `json:"energy_history,omitempty"`
	WaterHistory       []HistorySample `json:"water_history,omitempty"`

	EstimatedEnergyKW float64     `json:"estimated_energy_kw"`
	EstimatedWaterLPH float64     `json:"estimated_water_lph"`
	EstimatedCO2PPM   int         `json:"estimated_co2_ppm"`
	ThermalLoad       ThermalLoad `json:"thermal_load"`

	PredictedOccupancy1H int     `json:"predicted_occupancy_1h"`
	PredictedEnergy1H    float64 `json:"predicted_energy_1h"`
	PredictedPeakTime    string  `json:"predicted_peak_time"`

	Anomalies        []string `json:"anomalies"`
	Recommendations  []string `json:"recommendations"`
	SavingsPotential float64  `json:"savings_potential"`

	Conversation []Turn    `json:"messages,omitempty"`
	LastUpdated  time.Time `json:"last_updated"`
}

// OccupancyRatio returns occupancy over capacity with a divide-by-zero floor.
func (r RoomResult) OccupancyRatio() float64 {
	return float64(r.CurrentOccupancy) / math.Max(float64(r.Capacity), 1)
}

// BuildingSavings is the building-level savings breakdown.
type BuildingSavings struct {
	RoomLevelSavings       float64 `json:"room_level_savings"`
	BuildingLevelSavings   float64 `json:"building_level_savings"`
	TotalPotentialSavings  float64 `json:"total_potential_savings"`
	EstimatedKWHSaved      float64 `json:"estimated_kwh_saved"`
	EstimatedWaterSavedLPH float64 `json:"estimated_water_saved_lph"`
}

// BuildingResult aggregates the rooms of one building.
type BuildingResult struct {
	BuildingID              string          `json:"building_id"`
	BuildingName            string          `json:"building_name"`
	TotalRooms              int             `json:"total_rooms"`
	TotalEnergyKW           float64         `json:"total_energy_kw"`
	TotalWaterLPH           float64         `json:"total_water_lph"`
	TotalOccupancy          int             `json:"total_occupancy"`
	TotalCapacity           int             `json:"total_capacity"`
	OccupancyRate           float64         `json:"occupancy_rate"`
	AvgCO2PPM               int             `json:"avg_co2_ppm"`
	RoomResults             []RoomResult    `json:"room_states"`
	Anomalies               []string        `json:"anomalies"`
	RoomRecommendations     []string        `json:"room_recommendations"`
	BuildingRecommendations []string        `json:"building_recommendations"`
	Savings                 BuildingSavings `json:"savings_analysis"`
	Timestamp               time.Time       `json:"timestamp"`
}

// CampusSummary is the top-level metric block of a campus run.
type CampusSummary struct {
	TotalBuildings int     `json:"total_buildings"`
	TotalRooms     int     `json:"total_rooms"`
	TotalEnergyKW  float64 `json:"total_energy_kw"`
	TotalWaterLPH  float64 `json:"total_water_lph"`
	TotalOccupancy int     `json:"total_occupancy"`
	TotalCapacity  int     `json:"total_capacity"`
	OccupancyRate  float64 `json:"occupancy_rate"`
}

// CampusSavings converts aggregate savings into cost and CO2 estimates.
type CampusSavings struct {
	TotalKWHSaved              float64 `json:"total_kwh_saved"`
	TotalWaterSavedLPH         float64 `json:"total_water_saved_lph"`
	EstimatedCostSavingsHourly float64 `json:"estimated_cost_savings_hourly"`
	CO2ReductionKG             float64 `json:"co2_reduction_kg"`
}

// CriticalBuilding is one of the top energy draws on campus.
type CriticalBuilding struct {
	BuildingID    string  `json:"building_id"`
	BuildingName  string  `json:"building_name"`
	EnergyKW      float64 `json:"energy_kw"`
	OccupancyRate float64 `json:"occupancy_rate"`
}

// CampusResult is the complete output of one analysis cycle.
type CampusResult struct {
	CampusName            string                    `json:"campus_name"`
	Timestamp             time.Time                 `json:"timestamp"`
	Summary               CampusSummary             `json:"summary"`
	SavingsPotential      CampusSavings             `json:"savings_potential"`
	CriticalBuildings     []CriticalBuilding        `json:"critical_buildings"`
	Buildings             map[string]BuildingResult `json:"building_states"`
	CampusRecommendations []string                  `json:"campus_recommendations"`
}

// Round1 rounds to one decimal place, as displayed rates are.
func Round1(v float64) float64 { return math.Round(v*10) / 10 }

// Round2 rounds to two decimal places, as reported metrics are.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
