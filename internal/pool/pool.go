// v1
// internal/pool/pool.go

// Package pool owns the lifecycle of per-entity analysis agents. Entities are
// created lazily when their id first appears in a requested working set and
// evicted when it no longer does. Nothing survives a process restart.
package pool

import (
	"log/slog"
	"sort"

	"ecocampus/analyzer/internal/config"
)

// ConfigProvider supplies static configuration for rooms and buildings.
// Unknown ids return absent, not an error.
type ConfigProvider interface {
	RoomConfig(roomID string) (config.RoomConfig, bool)
	BuildingConfig(buildingID string) (config.BuildingConfig, bool)
}

// RoomEntity is a live room agent handle bound to its static configuration.
type RoomEntity struct {
	ID     string
	Config config.RoomConfig
}

// BuildingEntity is a live building agent handle with its registered rooms.
type BuildingEntity struct {
	ID     string
	Config config.BuildingConfig
	Rooms  map[string]*RoomEntity
}

// Pool is the set of live entities for one orchestration scope. The pool
// exclusively owns entity handles; pipelines and aggregation only hold
// transient references during a single run. Reconciliation is single-writer:
// callers serialize Reconcile against the fan-out that reads the pool.
type Pool struct {
	Rooms     map[string]*RoomEntity
	Buildings map[string]*BuildingEntity
}

// New returns an empty pool.
func New() *Pool {
	return &Pool{
		Rooms:     make(map[string]*RoomEntity),
		Buildings: make(map[string]*BuildingEntity),
	}
}

// Reconcile brings a pool into agreement with the requested working set and
// returns the new pool; the old pool is not mutated. Kept entities are
// carried over so re-running with the same ids is a no-op. Room ids with no
// layout configuration are skipped and reported in the second return value.
func Reconcile(old *Pool, roomIDs []string, provider ConfigProvider, log *slog.Logger) (*Pool, []string) {
	if old == nil {
		old = New()
	}

	next := New()
	var skipped []string
	buildingsNeeded := make(map[string]struct{})

	for _, id := range roomIDs {
		if kept, ok := old.Rooms[id]; ok {
			next.Rooms[id] = kept
			buildingsNeeded[kept.Config.BuildingID] = struct{}{}
			continue
		}
		rc, ok := provider.RoomConfig(id)
		if !ok {
			skipped = append(skipped, id)
			log.Warn("room id has no layout configuration; skipping", "roomId", id)
			continue
		}
		next.Rooms[id] = &RoomEntity{ID: id, Config: rc}
		buildingsNeeded[rc.BuildingID] = struct{}{}
	}

	for bid := range buildingsNeeded {
		if kept, ok := old.Buildings[bid]; ok {
			next.Buildings[bid] = &BuildingEntity{ID: bid, Config: kept.Config, Rooms: make(map[string]*RoomEntity)}
			continue
		}
		bc, _ := provider.BuildingConfig(bid) // absent config keeps a zero value; the id still names the entity
		next.Buildings[bid] = &BuildingEntity{ID: bid, Config: bc, Rooms: make(map[string]*RoomEntity)}
	}

	// Re-link every room to its building. Registration is idempotent.
	for _, room := range next.Rooms {
		if b, ok := next.Buildings[room.Config.BuildingID]; ok {
			b.Rooms[room.ID] = room
		}
	}

	return next, skipped
}

// RoomIDs returns the tracked room ids in sorted order.
func (p *Pool) RoomIDs() []string {
	ids := make([]string, 0, len(p.Rooms))
	for id := range p.Rooms {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// BuildingIDs returns the tracked building ids in sorted order.
func (p *Pool) BuildingIDs() []string {
	ids := make([]string, 0, len(p.Buildings))
	for id := range p.Buildings {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
