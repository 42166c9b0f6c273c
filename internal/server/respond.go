package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/relgrid-labs/relgrid/pkg/grid"
)

// writeJSON writes data as a JSON response with the given status code.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("failed to encode JSON response", "error", err)
	}
}

// writeError writes an {"error": message} response.
func (s *Server) writeError(w http.ResponseWriter, statusCode int, err error) {
	s.writeJSON(w, statusCode, map[string]string{"error": err.Error()})
}

// decodeJSON reads the request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

// errStatus maps grid engine errors onto HTTP status codes. Unknown
// errors are treated as internal.
func errStatus(err error) int {
	switch {
	case errors.Is(err, grid.ErrUnknownColumn),
		errors.Is(err, grid.ErrInvalidJSON):
		return http.StatusBadRequest
	case errors.Is(err, grid.ErrReadOnly):
		return http.StatusForbidden
	case errors.Is(err, grid.ErrNoRelation):
		return http.StatusNotFound
	case errors.Is(err, grid.ErrNotLoaded),
		errors.Is(err, grid.ErrNoPrimaryKey),
		errors.Is(err, grid.ErrNoEdit),
		errors.Is(err, grid.ErrCommitting),
		errors.Is(err, grid.ErrConfirmRequired),
		errors.Is(err, grid.ErrStaleFetch):
		return http.StatusConflict
	case strings.Contains(err.Error(), "out of range"):
		return http.StatusBadRequest
	case strings.Contains(err.Error(), "matched no row"):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// lookupStatus distinguishes missing objects from genuine failures for
// metadata reads, where the adapters report absence as a plain error.
func lookupStatus(err error) int {
	if strings.Contains(err.Error(), "not found") {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// fetchStatus classifies page load failures: engine errors keep their
// mapping, everything else falls back to the metadata lookup rules so a
// missing table reads as 404.
func fetchStatus(err error) int {
	if st := errStatus(err); st != http.StatusInternalServerError {
		return st
	}
	return lookupStatus(err)
}
