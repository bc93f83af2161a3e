// v0
// internal/campus/store.go
package campus

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// ObservationStore keeps the latest observation per room so simulation runs
// can analyze current data without the caller resubmitting it. Analysis runs
// replace the snapshot wholesale. Safe for concurrent use.
type ObservationStore struct {
	mu  sync.RWMutex
	obs map[string]RoomObservation
}

func NewObservationStore() *ObservationStore {
	return &ObservationStore{obs: make(map[string]RoomObservation)}
}

// SetAll replaces the stored snapshot with the supplied observations.
func (s *ObservationStore) SetAll(obs map[string]RoomObservation) {
	cloned := make(map[string]RoomObservation, len(obs))
	for id, o := range obs {
		o.RoomID = id
		cloned[id] = o
	}
	s.mu.Lock()
	s.obs = cloned
	s.mu.Unlock()
}

// Snapshot returns a copy of the stored observations.
func (s *ObservationStore) Snapshot() map[string]RoomObservation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]RoomObservation, len(s.obs))
	for id, o := range s.obs {
		out[id] = o
	}
	return out
}

// Len reports the number of rooms currently held.
func (s *ObservationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.obs)
}

// SeedFromFile loads an initial snapshot from a JSON file shaped like the
// /analysis/run request body ({"rooms": {...}}). Missing file is not an
// error; the store simply starts empty.
func (s *ObservationStore) SeedFromFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read observations file %s: %w", path, err)
	}
	var doc struct {
		Rooms map[string]RoomObservation `json:"rooms"`
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return fmt.Errorf("cannot parse observations file %s: %w", path, err)
	}
	if len(doc.Rooms) > 0 {
		s.SetAll(doc.Rooms)
	}
	return nil
}
