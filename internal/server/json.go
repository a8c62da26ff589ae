package server

import (
	"encoding/json"
	"net/http"

	"github.com/streettag/api/internal/streettag"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeEngineError maps an engine refusal onto an HTTP status:
// validation → 400, rule denials → 422, lifecycle/consistency
// conflicts → 409. Plain errors are treated as internal.
func writeEngineError(w http.ResponseWriter, err error) {
	code := streettag.CodeOf(err)
	if code == "" {
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	status := http.StatusConflict
	switch code {
	case streettag.CodeInvalidSettings, streettag.CodeInvalidInput:
		status = http.StatusBadRequest
	case streettag.CodeTimeProtected, streettag.CodeTaggerInSafeZone,
		streettag.CodeTargetInSafeZone, streettag.CodeOutOfRange,
		streettag.CodeSpeedLimit:
		status = http.StatusUnprocessableEntity
	}

	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"code":  string(code),
	})
}
