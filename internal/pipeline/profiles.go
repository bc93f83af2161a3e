// v1
// internal/pipeline/profiles.go
package pipeline

import "ecocampus/analyzer/internal/campus"

// Profile captures the expected behavior of a room type: baseline and peak
// loads, water draw while running, and the typical peak-usage window.
type Profile struct {
	Description  string
	BaseEnergyKW float64
	MaxEnergyKW  float64
	WaterRateLPH float64
	PeakWindow   string
}

var profiles = map[campus.RoomType]Profile{
	campus.RoomClassroom: {
		Description:  "Scheduled usage, 9AM-5PM peaks, equipment varies by class",
		BaseEnergyKW: 2.0,
		MaxEnergyKW:  5.0,
		WaterRateLPH: 10.0,
		PeakWindow:   "10:00-11:00",
	},
	campus.RoomLab: {
		Description:  "High baseline energy, specialized equipment, irregular hours",
		BaseEnergyKW: 8.0,
		MaxEnergyKW:  15.0,
		WaterRateLPH: 50.0,
		PeakWindow:   "14:00-16:00",
	},
	campus.RoomLibrary: {
		Description:  "Steady occupancy, long sessions, quiet hours after 10PM",
		BaseEnergyKW: 3.0,
		MaxEnergyKW:  6.0,
		WaterRateLPH: 0,
		PeakWindow:   "19:00-21:00",
	},
	campus.RoomDorm: {
		Description:  "Residential 24/7, evening/night peaks, personal electronics",
		BaseEnergyKW: 1.5,
		MaxEnergyKW:  3.0,
		WaterRateLPH: 0,
		PeakWindow:   "21:00-23:00",
	},
	campus.RoomBathroom: {
		Description:  "Short visits, water-centric, hygiene equipment",
		BaseEnergyKW: 1.0,
		MaxEnergyKW:  2.0,
		WaterRateLPH: 120.0,
		PeakWindow:   "08:00-09:00",
	},
	campus.RoomCafeteria: {
		Description:  "Meal-time peaks (7-9AM, 12-2PM, 6-8PM), high water/energy",
		BaseEnergyKW: 15.0,
		MaxEnergyKW:  30.0,
		WaterRateLPH: 200.0,
		PeakWindow:   "12:00-13:00",
	},
}

var defaultProfile = Profile{
	Description:  "General purpose space",
	BaseEnergyKW: 2.0,
	MaxEnergyKW:  5.0,
	WaterRateLPH: 0,
	PeakWindow:   "12:00-13:00",
}

// ProfileFor returns the behavioral profile for a room type, falling back to
// a general-purpose profile for unknown types.
func ProfileFor(t campus.RoomType) Profile {
	if p, ok := profiles[t]; ok {
		return p
	}
	return defaultProfile
}
