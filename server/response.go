package server

import (
	"encoding/json"
	"net/http"

	"streamchat/config"
	"streamchat/model"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && config.DebugLog != nil {
		config.DebugLog.Printf("[Server] failed to write response: %v", err)
	}
}

// writeError writes {"error": message}.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, model.ErrorResponse{Error: message})
}
