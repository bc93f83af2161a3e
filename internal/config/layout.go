// v1
// internal/config/layout.go
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"ecocampus/analyzer/internal/campus"
)

// RoomConfig is the static configuration of a room in the campus layout.
type RoomConfig struct {
	Type       campus.RoomType `json:"type"`
	BuildingID string          `json:"building_id"`
	Floor      int             `json:"floor"`
	Capacity   int             `json:"capacity"`
}

// BuildingConfig is the static configuration of a building.
type BuildingConfig struct {
	Name string `json:"name"`
}

// Layout is the campus configuration document.
type Layout struct {
	CampusInfo struct {
		Name string `json:"name"`
	} `json:"campus_info"`
	Rooms     map[string]RoomConfig     `json:"rooms"`
	Buildings map[string]BuildingConfig `json:"buildings"`
}

// LayoutStore serves room/building configuration lookups and supports
// reloading the layout file without restarting the service. Safe for
// concurrent use; unknown ids return absent, never an error.
type LayoutStore struct {
	path string

	mu     sync.RWMutex
	layout *Layout
}

// LoadLayout reads and validates the campus layout file.
func LoadLayout(path string) (*LayoutStore, error) {
	s := &LayoutStore{path: path}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Reload re-reads the layout file, replacing the served configuration
// atomically on success and keeping the previous one on failure.
func (s *LayoutStore) Reload() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("cannot read campus layout %s: %w", s.path, err)
	}
	var l Layout
	if err := json.Unmarshal(b, &l); err != nil {
		return fmt.Errorf("cannot parse campus layout %s: %w", s.path, err)
	}
	if len(l.Rooms) == 0 {
		return fmt.Errorf("campus layout %s defines no rooms", s.path)
	}
	s.mu.Lock()
	s.layout = &l
	s.mu.Unlock()
	return nil
}

// RoomConfig looks up the static configuration for a room id.
func (s *LayoutStore) RoomConfig(roomID string) (RoomConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rc, ok := s.layout.Rooms[roomID]
	return rc, ok
}

// BuildingConfig looks up the static configuration for a building id.
func (s *LayoutStore) BuildingConfig(buildingID string) (BuildingConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	bc, ok := s.layout.Buildings[buildingID]
	return bc, ok
}

// CampusName returns the configured campus display name.
func (s *LayoutStore) CampusName() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.layout.CampusInfo.Name == "" {
		return "Campus"
	}
	return s.layout.CampusInfo.Name
}
