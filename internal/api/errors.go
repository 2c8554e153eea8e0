package api

import (
	"encoding/json"
	"net/http"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONError writes the uniform error envelope.
func writeJSONError(w http.ResponseWriter, code int, errCode, detail string) {
	writeJSON(w, code, map[string]string{"error": errCode, "detail": detail})
}
