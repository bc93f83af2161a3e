// v2
// internal/httpapi/handlers.go
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"ecocampus/analyzer/internal/campus"
	"ecocampus/analyzer/internal/config"
	"ecocampus/analyzer/internal/engine"
	"ecocampus/analyzer/internal/ledger"
	"ecocampus/analyzer/internal/sim"
)

// Handlers carries the service dependencies for the HTTP surface.
type Handlers struct {
	Log    *slog.Logger
	Cfg    *config.AppConfig
	Layout *config.LayoutStore
	Store  *campus.ObservationStore
	Engine *engine.Engine
	Sim    *sim.Engine
	Pub    *ledger.Publisher
}

func (h *Handlers) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (h *Handlers) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Engine.Stats())
}

// reloadConfig re-reads the properties file and the campus layout. A failed
// layout reload keeps the previous layout in effect.
func (h *Handlers) reloadConfig(w http.ResponseWriter, r *http.Request) {
	if err := h.Cfg.ReloadProperties(); err != nil {
		writeError(w, http.StatusInternalServerError, "properties reload failed: "+err.Error())
		return
	}
	if err := h.Layout.Reload(); err != nil {
		writeError(w, http.StatusInternalServerError, "layout reload failed: "+err.Error())
		return
	}
	h.Log.Info("configuration reloaded")
	writeJSON(w, http.StatusOK, map[string]any{"status": "reloaded"})
}

type analysisRequest struct {
	Rooms      map[string]campus.RoomObservation `json:"rooms"`
	Parameters struct {
		BudgetLevel string `json:"budget_level"`
	} `json:"parameters"`
}

// runAnalysis runs one analysis cycle. Supplied observations replace the
// stored snapshot; with none supplied the stored snapshot is analyzed as-is.
func (h *Handlers) runAnalysis(w http.ResponseWriter, r *http.Request) {
	var req analysisRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	obs := req.Rooms
	if len(obs) > 0 {
		h.Store.SetAll(obs)
	} else {
		obs = h.Store.Snapshot()
	}

	depth := h.depthOrDefault(req.Parameters.BudgetLevel)
	result, err := h.Engine.RunAnalysis(r.Context(), obs, depth, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "analysis failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// runSimulation executes one what-if scenario against the stored snapshot.
func (h *Handlers) runSimulation(w http.ResponseWriter, r *http.Request) {
	var sc sim.Scenario
	if err := decodeBody(r, &sc); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid scenario payload: "+err.Error())
		return
	}
	if err := sc.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	budget := sim.BudgetFromParameters(sc.Parameters, h.Cfg.DefaultDepth)
	result, err := h.Sim.WhatIf(r.Context(), sc, h.Store.Snapshot(), budget, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "simulation failed: "+err.Error())
		return
	}
	h.Engine.NoteSimulation()
	h.Pub.PublishSimulation(r.Context(), result)
	writeJSON(w, http.StatusOK, result)
}

func (h *Handlers) templates(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sim.Templates())
}

// compareScenarios ranks several scenarios by their energy savings. Both a
// bare JSON array and a {"scenarios": [...]} wrapper are accepted.
func (h *Handlers) compareScenarios(w http.ResponseWriter, r *http.Request) {
	var wrapper struct {
		Scenarios []sim.Scenario `json:"scenarios"`
	}
	var raw json.RawMessage
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid comparison payload: "+err.Error())
		return
	}
	if err := json.Unmarshal(raw, &wrapper.Scenarios); err != nil {
		if err := json.Unmarshal(raw, &wrapper); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid comparison payload: "+err.Error())
			return
		}
	}

	report, err := h.Sim.CompareScenarios(r.Context(), wrapper.Scenarios, h.Store.Snapshot(), h.Cfg.DefaultDepth, time.Now())
	if err != nil {
		if errors.Is(err, sim.ErrInvalidScenario) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "comparison failed: "+err.Error())
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handlers) depthOrDefault(level string) campus.Depth {
	if level == "" {
		return h.Cfg.DefaultDepth
	}
	return campus.ParseDepth(level)
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	return dec.Decode(v)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{"error": msg})
}
