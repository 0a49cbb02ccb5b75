package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"citipulse/services"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Handler serves the simulation over HTTP
type Handler struct {
	sim      *services.Simulation
	hub      *Hub
	runCtx   context.Context
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

// NewHandler builds the HTTP handlers. runCtx scopes simulations started over HTTP
// so they outlive the request that started them.
func NewHandler(runCtx context.Context, sim *services.Simulation, hub *Hub, allowedOrigins []string, logger *zap.Logger) *Handler {
	return &Handler{
		sim:    sim,
		hub:    hub,
		runCtx: runCtx,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowedOrigins),
		},
		logger: logger,
	}
}

func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, o := range allowed {
			if o == "*" || o == origin {
				return true
			}
		}
		return false
	}
}

func sensorIDVar(r *http.Request) (int, error) {
	raw := mux.Vars(r)["id"]
	id, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("sensor id %q is not a number", raw)
	}
	return id, nil
}

func decodeBody(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, map[string]interface{}{
		"status":        "ok",
		"is_simulating": h.sim.IsRunning(),
	})
}

func (h *Handler) GetSensors(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Store().Sensors())
}

func (h *Handler) GetSensor(w http.ResponseWriter, r *http.Request) {
	id, err := sensorIDVar(r)
	if err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeInvalidFormat, err.Error(), nil, http.StatusBadRequest))
		return
	}
	sensor, ok := h.sim.Store().Sensor(id)
	if !ok {
		RespondWithError(w, NewAPIError(ErrorCodeResourceNotFound, fmt.Sprintf("sensor %d not found", id), nil, http.StatusNotFound))
		return
	}
	RespondWithJSON(w, http.StatusOK, sensor)
}

func (h *Handler) GetZones(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Store().Zones())
}

func (h *Handler) GetAlerts(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Store().Alerts())
}

func (h *Handler) GetCampus(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Campus())
}

func (h *Handler) GetRecommendations(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Campus().Recommendations)
}

func (h *Handler) GetObjects(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Store().MovingObjects())
}

func (h *Handler) GetWeather(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.Store().Weather())
}

func (h *Handler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.AnalyticsData())
}

func (h *Handler) GetView(w http.ResponseWriter, r *http.Request) {
	RespondWithJSON(w, http.StatusOK, h.sim.View())
}

func (h *Handler) GetForecast(w http.ResponseWriter, r *http.Request) {
	id, err := sensorIDVar(r)
	if err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeInvalidFormat, err.Error(), nil, http.StatusBadRequest))
		return
	}
	RespondWithJSON(w, http.StatusOK, h.sim.Forecast(id))
}

// ExportCSV renders into memory first so a failure can still produce an error response
func (h *Handler) ExportCSV(w http.ResponseWriter, r *http.Request) {
	var buf bytes.Buffer
	rows, err := h.sim.ExportCSV(&buf)
	if err != nil {
		h.logger.Error("CSV export failed", zap.Error(err))
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, "failed to export readings", nil, http.StatusInternalServerError))
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="citipulse_sensor_data.csv"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("Failed to write CSV export", zap.Error(err))
		return
	}
	h.logger.Info("Readings exported", zap.Int("row_count", rows))
}

func (h *Handler) StartSimulation(w http.ResponseWriter, r *http.Request) {
	started := h.sim.Start(h.runCtx)
	RespondWithJSON(w, http.StatusOK, map[string]bool{
		"started":       started,
		"is_simulating": h.sim.IsRunning(),
	})
}

func (h *Handler) StopSimulation(w http.ResponseWriter, r *http.Request) {
	h.sim.Stop()
	RespondWithJSON(w, http.StatusOK, map[string]bool{"is_simulating": h.sim.IsRunning()})
}

type analyticsSensorRequest struct {
	SensorID *int `json:"sensor_id"`
}

func (h *Handler) SetAnalyticsSensor(w http.ResponseWriter, r *http.Request) {
	var req analyticsSensorRequest
	if err := decodeBody(r, &req); err != nil || req.SensorID == nil {
		RespondWithError(w, NewAPIError(ErrorCodeBadRequest, "body must be {\"sensor_id\": <int>}", nil, http.StatusBadRequest))
		return
	}
	h.sim.SetAnalyticsSensor(*req.SensorID)
	RespondWithJSON(w, http.StatusOK, h.sim.View())
}

type analyticsRangeRequest struct {
	Range string `json:"range"`
}

func (h *Handler) SetAnalyticsRange(w http.ResponseWriter, r *http.Request) {
	var req analyticsRangeRequest
	if err := decodeBody(r, &req); err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeBadRequest, "body must be {\"range\": <string>}", nil, http.StatusBadRequest))
		return
	}
	if err := h.sim.SetAnalyticsRange(req.Range); err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeValidationFailed, err.Error(),
			[]services.TimeRange{services.RangeLastHour, services.RangeLast6h, services.RangeLast24h, services.RangeAll},
			http.StatusBadRequest))
		return
	}
	RespondWithJSON(w, http.StatusOK, h.sim.View())
}

type mapModeRequest struct {
	Mode string `json:"mode"`
}

func (h *Handler) SetMapMode(w http.ResponseWriter, r *http.Request) {
	var req mapModeRequest
	if err := decodeBody(r, &req); err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeBadRequest, "body must be {\"mode\": <string>}", nil, http.StatusBadRequest))
		return
	}
	if err := h.sim.SetMapMode(req.Mode); err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeValidationFailed, err.Error(),
			[]services.MapMode{services.MapModeStreets, services.MapModeSatellite, services.MapMode3D, services.MapModeEnvironmental},
			http.StatusBadRequest))
		return
	}
	RespondWithJSON(w, http.StatusOK, h.sim.View())
}

func (h *Handler) ToggleDemo(w http.ResponseWriter, r *http.Request) {
	on := h.sim.ToggleDemoMode()
	RespondWithJSON(w, http.StatusOK, map[string]bool{"demo_mode": on})
}

func (h *Handler) TriggerDemoAlert(w http.ResponseWriter, r *http.Request) {
	alerts, err := h.sim.TriggerDemoAlert()
	if errors.Is(err, services.ErrUnknownSensor) {
		RespondWithError(w, NewAPIError(ErrorCodeBadRequest, "simulation has not been started", nil, http.StatusConflict))
		return
	}
	if err != nil {
		RespondWithError(w, NewAPIError(ErrorCodeInternalServerError, err.Error(), nil, http.StatusInternalServerError))
		return
	}
	RespondWithJSON(w, http.StatusOK, alerts)
}

// ServeWS upgrades the connection and attaches it to the hub
func (h *Handler) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}

	client := newClient(h.hub, conn)
	select {
	case h.hub.register <- client:
	case <-h.hub.done:
		conn.Close()
		return
	}

	go client.writePump()
	go client.readPump()
}
