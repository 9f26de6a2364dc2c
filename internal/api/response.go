//
//
package api

import (
	"encoding/json"
	"net/http"
)

// Response is the envelope for every endpoint except GET /.
type Response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteSuccess writes a 200 success envelope.
func WriteSuccess(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{Success: true, Data: data})
}

// WriteError writes a failure envelope with the given status.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, Response{Success: false, Error: message})
}

// WriteErr maps err through ToAPIError and writes the result.
func WriteErr(w http.ResponseWriter, err error) {
	status, message := ToAPIError(err)
	WriteError(w, status, message)
}

// writeJSON writes v as the JSON body.
func writeJSON(w http.ResponseWriter, statusCode int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_, _ = w.Write(body)
}
