package server

import (
	"encoding/json"
	"net/http"
)

// envelope is the uniform response shape: {"ok": true, "data": ...} on
// success, {"ok": false, "error": ...} on failure.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) ok(w http.ResponseWriter, data any) {
	s.respond(w, http.StatusOK, envelope{OK: true, Data: data})
}

func (s *Server) fail(w http.ResponseWriter, status int, message string) {
	s.respond(w, status, envelope{OK: false, Error: message})
}

func (s *Server) respond(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.WithError(err).Error("Failed to write response")
	}
}
