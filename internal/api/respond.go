package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/metcalfc/lector/internal/lookup"
	"github.com/metcalfc/lector/internal/reader"
	"github.com/metcalfc/lector/internal/state"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// fail maps store and importer errors to status codes.
func (s *Server) fail(w http.ResponseWriter, err error) {
	code := http.StatusInternalServerError
	switch {
	case errors.Is(err, state.ErrNotFound):
		code = http.StatusNotFound
	case errors.Is(err, state.ErrCycle):
		code = http.StatusConflict
	case errors.Is(err, state.ErrBackupVersion):
		code = http.StatusBadRequest
	case errors.Is(err, reader.ErrEmpty):
		code = http.StatusUnprocessableEntity
	case errors.Is(err, lookup.ErrNotConfigured):
		code = http.StatusServiceUnavailable
	}
	if code == http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	jsonError(w, err.Error(), code)
}

// decode reads a JSON request body into v, reporting a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		jsonError(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = filepath.Base(name)
	name = strings.ReplaceAll(name, "..", "_")
	if name == "" || name == "." || name == "/" {
		name = "unnamed"
	}
	return name
}
