package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"agrihub/internal/engine/proxy"
	"agrihub/internal/engine/webhooks"
	apiErrors "agrihub/internal/pkg/errors"
)

var (
	robotCommands = []string{"start", "stop", "pause", "resume", "return_home", "emergency_stop"}
	missionTypes  = []string{"spray", "harvest", "seed", "survey", "transport"}
)

// RobotHandler proxies the ROS2 bridge for agricultural robots.
type RobotHandler struct {
	client     *proxy.Client
	dispatcher *webhooks.Dispatcher
	fallback   bool
}

func NewRobotHandler(client *proxy.Client, dispatcher *webhooks.Dispatcher, fallback bool) *RobotHandler {
	return &RobotHandler{client: client, dispatcher: dispatcher, fallback: fallback}
}

func (h *RobotHandler) ListRobots(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r)
	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/robots",
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockRobots())
}

func (h *RobotHandler) GetRobot(w http.ResponseWriter, r *http.Request) {
	robotID := paramsFrom(r).ByName("robot_id")
	tenantID := tenantFrom(r)

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/robots/" + robotID,
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockRobot(robotID))
}

func (h *RobotHandler) SendCommand(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RobotID    string                 `json:"robotId"`
		Command    string                 `json:"command"`
		Parameters map[string]interface{} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	valid := false
	for _, c := range robotCommands {
		if c == req.Command {
			valid = true
			break
		}
	}
	if !valid {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput,
			"Invalid command. Must be one of: "+strings.Join(robotCommands, ", "), nil)
		return
	}

	tenantID := tenantFrom(r)
	params := req.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method: http.MethodPost,
		Path:   "/api/commands",
		Body: map[string]interface{}{
			"robot_id":   req.RobotID,
			"command":    req.Command,
			"parameters": params,
			"issued_by":  claimsFrom(r).Email,
		},
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})

	if err == nil && req.Command == "start" {
		go h.dispatcher.Dispatch(context.Background(), "robot.mission.start", tenantID, map[string]interface{}{
			"robotId": req.RobotID,
			"command": req.Command,
		})
	}

	writeUpstream(w, raw, err, h.fallback, mockCommandAccepted(req.RobotID, req.Command))
}

func (h *RobotHandler) ListMissions(w http.ResponseWriter, r *http.Request) {
	tenantID := tenantFrom(r)

	query := url.Values{}
	robotID := r.URL.Query().Get("robot_id")
	status := r.URL.Query().Get("status")
	if robotID != "" {
		query.Set("robot_id", robotID)
	}
	if status != "" {
		query.Set("status", status)
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method:   http.MethodGet,
		Path:     "/api/missions",
		Query:    query,
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	if err == nil {
		writeRaw(w, http.StatusOK, raw)
		return
	}

	missions := mockMissions()
	if robotID != "" {
		var filtered []map[string]interface{}
		for _, m := range missions {
			if m["robotId"] == robotID {
				filtered = append(filtered, m)
			}
		}
		missions = filtered
	}
	if status != "" {
		var filtered []map[string]interface{}
		for _, m := range missions {
			if m["status"] == status {
				filtered = append(filtered, m)
			}
		}
		missions = filtered
	}
	if missions == nil {
		missions = []map[string]interface{}{}
	}

	writeUpstream(w, nil, err, h.fallback, map[string]interface{}{"missions": missions})
}

func (h *RobotHandler) CreateMission(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name       string                 `json:"name"`
		RobotID    string                 `json:"robotId"`
		Type       string                 `json:"type"`
		ParcelIDs  []string               `json:"parcelIds"`
		Parameters map[string]interface{} `json:"parameters"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput, "Invalid request body", nil)
		return
	}

	valid := false
	for _, t := range missionTypes {
		if t == req.Type {
			valid = true
			break
		}
	}
	if !valid {
		apiErrors.WriteError(w, http.StatusBadRequest, apiErrors.ErrCodeInvalidInput,
			"Invalid mission type. Must be one of: "+strings.Join(missionTypes, ", "), nil)
		return
	}

	tenantID := tenantFrom(r)
	params := req.Parameters
	if params == nil {
		params = map[string]interface{}{}
	}

	raw, err := h.client.Do(r.Context(), proxy.Request{
		Method: http.MethodPost,
		Path:   "/api/missions",
		Body: map[string]interface{}{
			"name":       req.Name,
			"robot_id":   req.RobotID,
			"type":       req.Type,
			"parcel_ids": req.ParcelIDs,
			"parameters": params,
			"created_by": claimsFrom(r).Email,
		},
		TenantID: tenantID,
		Headers:  map[string]string{fiwareServiceHeader: tenantID},
	})
	writeUpstream(w, raw, err, h.fallback, mockMissionCreated(req.Name, req.RobotID, req.Type, req.ParcelIDs))
}

// TelemetryStreamInfo returns where to connect for live robot telemetry.
// The WebSocket itself is served by the ROS2 bridge, not this gateway.
func (h *RobotHandler) TelemetryStreamInfo(w http.ResponseWriter, r *http.Request) {
	robotID := paramsFrom(r).ByName("robot_id")

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"robotId":        robotID,
		"websocketUrl":   "wss://" + r.Host + "/api/hub/ros2/robots/" + robotID + "/telemetry/ws",
		"protocol":       "json",
		"updateInterval": "100ms",
		"fields":         []string{"position", "heading", "speed", "batteryLevel", "sensors"},
	})
}
