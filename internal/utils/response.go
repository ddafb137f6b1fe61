package utils

import (
	"encoding/json"
	"net/http"
)

// SendJSONResponse writes data as JSON with the given status.
func SendJSONResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// SendError writes the {"error": message} body every API failure uses.
func SendError(w http.ResponseWriter, status int, message string) {
	SendJSONResponse(w, status, map[string]string{"error": message})
}
