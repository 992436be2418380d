package api

import (
	"encoding/json"
	"net/http"

	"github.com/the-insecure-proxy/insecure-proxy/internal/statistics"
)

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func (s *APIServer) handleVersion(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{
		"version": s.version,
	})
}

func (s *APIServer) handleConfig(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.cfg)
}

func (s *APIServer) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"hosts":  s.recorder.RewriteRecordList.Snapshot(),
		"active": s.recorder.ActiveRequestList.Len(),
	})
}

func (s *APIServer) handleActive(w http.ResponseWriter, r *http.Request) {
	active := s.recorder.ActiveRequestList.Snapshot()
	if active == nil {
		active = []statistics.ActiveRequest{}
	}
	writeJSON(w, active)
}
