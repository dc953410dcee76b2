package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-home/internal/reading"
)

// handleSensorReadings returns the most recent readings for one sensor,
// newest first. An unknown sensor yields an empty list.
func (s *Server) handleSensorReadings(w http.ResponseWriter, r *http.Request) {
	if s.readings == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "reading store is not configured")
		return
	}

	sensorID := chi.URLParam(r, "sensor_id")
	if sensorID == "" || len(sensorID) > maxQueryParamLen {
		writeBadRequest(w, "invalid sensor ID")
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultReadingsLimit, reading.MaxRecentLimit)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	readings, err := s.readings.Recent(r.Context(), sensorID, limit)
	if err != nil {
		s.logger.Error("reading recent readings failed", "sensor_id", sensorID, "error", err)
		writeInternalError(w, "failed to read readings")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sensor_id": sensorID,
		"readings":  readings,
		"count":     len(readings),
	})
}
