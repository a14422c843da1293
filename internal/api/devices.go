package api

import (
	"errors"
	"net/http"

	"github.com/nerrad567/gray-logic-audio/internal/control"
	"github.com/nerrad567/gray-logic-audio/internal/device"
)

// handleListDevices reads every speaker live and returns them with the
// rounded group volume.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	list, err := s.ctrl.ListDevices(r.Context())
	if err != nil {
		s.logger.Warn("listing devices failed", "error", err)
		writeTransportError(w, "failed to read speaker volumes", nil)
		return
	}
	if list.Devices == nil {
		list.Devices = []device.Device{}
	}
	writeJSON(w, http.StatusOK, list)
}

// handleGetDevice returns a single device by UUID.
//
// Query parameters:
//   - uuid: required device UUID (RINCON_...)
func (s *Server) handleGetDevice(w http.ResponseWriter, r *http.Request) {
	uuid := r.URL.Query().Get("uuid")
	if uuid == "" {
		writeBadRequest(w, "uuid query parameter is required")
		return
	}

	dev, err := s.ctrl.DeviceByUUID(r.Context(), uuid)
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case err != nil:
		s.logger.Warn("reading device failed", "uuid", uuid, "error", err)
		writeTransportError(w, "failed to read speaker volume", nil)
	default:
		writeJSON(w, http.StatusOK, dev)
	}
}

// handleListGroups returns the registered speakers partitioned by group.
// Volumes are the last known values; no speaker is contacted.
func (s *Server) handleListGroups(w http.ResponseWriter, _ *http.Request) {
	groups := s.ctrl.Groups()
	if groups == nil {
		groups = []device.Group{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"groups": groups, "count": len(groups)})
}

// handleRediscover runs discovery again and replaces the registry on success.
func (s *Server) handleRediscover(w http.ResponseWriter, r *http.Request) {
	topo, err := s.ctrl.Rediscover(r.Context())
	switch {
	case errors.Is(err, control.ErrNoDiscoverer):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "rediscovery not configured")
	case err != nil:
		s.logger.Warn("rediscovery failed", "error", err)
		writeTransportError(w, "discovery failed, keeping current speakers", nil)
	default:
		writeJSON(w, http.StatusOK, topo)
	}
}
