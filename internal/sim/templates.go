// v1
// internal/sim/templates.go
package sim

// Template is a pre-built scenario offered to API clients.
type Template struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Type            string `json:"type"`
	Description     string `json:"description"`
	EstimatedImpact string `json:"estimated_impact"`
}

// Templates returns the built-in scenario catalog.
func Templates() []Template {
	return []Template{
		{
			ID:              "close_building_night",
			Name:            "Close Building After 8 PM",
			Type:            TypeCloseBuilding,
			Description:     "Simulate closing a building after 8 PM to save energy",
			EstimatedImpact: "15-25% building energy savings",
		},
		{
			ID:              "reduce_hvac_low_occupancy",
			Name:            "Reduce HVAC in Low Occupancy",
			Type:            TypeReduceHVAC,
			Description:     "Reduce HVAC in rooms with <30% occupancy",
			EstimatedImpact: "10-15% campus energy savings",
		},
		{
			ID:              "consolidate_classes",
			Name:            "Consolidate Evening Classes",
			Type:            TypeShiftSchedule,
			Description:     "Move all evening classes to 2 buildings",
			EstimatedImpact: "20-30% evening energy savings",
		},
	}
}
