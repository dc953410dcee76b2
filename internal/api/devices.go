package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/gray-logic-home/internal/device"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 200

	defaultReadingsLimit = 20

	// maxQueryParamLen limits path and query parameter length.
	maxQueryParamLen = 100
)

// handleListDevices returns every device, optionally filtered by ?category=.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices := s.registry.List()

	if raw := r.URL.Query().Get("category"); raw != "" {
		category, ok := parseCategory(raw)
		if !ok {
			writeBadRequest(w, "unknown category")
			return
		}
		filtered := make([]device.Device, 0, len(devices))
		for _, d := range devices {
			if d.Category == category {
				filtered = append(filtered, d)
			}
		}
		devices = filtered
	}

	writeJSON(w, http.StatusOK, map[string]any{"devices": devices, "count": len(devices)})
}

// handleGetDevice returns a single device's current state.
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	category, id, ok := deviceKey(w, r)
	if !ok {
		return
	}

	dev, err := s.registry.Get(category, id)
	if err != nil {
		if errors.Is(err, device.ErrDeviceNotFound) {
			writeNotFound(w, "device not found")
			return
		}
		writeInternalError(w, "failed to get device")
		return
	}

	writeJSON(w, http.StatusOK, dev)
}

// handleGetDeviceHistory returns recorded states for a device, newest first.
func (s *Server) handleGetDeviceHistory(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "state history is not configured")
		return
	}

	category, id, ok := deviceKey(w, r)
	if !ok {
		return
	}

	limit, err := parseLimit(r.URL.Query().Get("limit"), defaultHistoryLimit, maxHistoryLimit)
	if err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	entries, err := s.history.History(r.Context(), category, id, limit)
	if err != nil {
		s.logger.Error("reading device history failed", "category", category, "device_id", id, "error", err)
		writeInternalError(w, "failed to read device history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"category":  category,
		"device_id": id,
		"entries":   entries,
		"count":     len(entries),
	})
}

// deviceKey resolves the {category}/{id} path parameters, writing a 400 on failure.
func deviceKey(w http.ResponseWriter, r *http.Request) (device.Category, string, bool) {
	category, ok := parseCategory(chi.URLParam(r, "category"))
	if !ok {
		writeBadRequest(w, "unknown category")
		return "", "", false
	}
	id := chi.URLParam(r, "id")
	if id == "" || len(id) > maxQueryParamLen {
		writeBadRequest(w, "invalid device ID")
		return "", "", false
	}
	return category, id, true
}

// parseCategory accepts either the category name ("light") or its topic
// segment ("lights").
func parseCategory(raw string) (device.Category, bool) {
	if c := device.Category(raw); c.Valid() {
		return c, true
	}
	return device.CategoryFromTopicSegment(raw)
}

// parseLimit parses a positive limit no larger than maxLimit.
// An empty value yields def.
func parseLimit(raw string, def, maxLimit int) (int, error) {
	if raw == "" {
		return def, nil
	}

	limit, err := strconv.Atoi(raw)
	if err != nil || limit <= 0 {
		return 0, fmt.Errorf("invalid limit")
	}
	if limit > maxLimit {
		return 0, fmt.Errorf("limit exceeds maximum of %d", maxLimit)
	}

	return limit, nil
}
