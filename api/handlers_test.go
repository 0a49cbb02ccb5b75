package api

import (
	"context"
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"citipulse/models"
	"citipulse/services"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testEnv struct {
	sim    *services.Simulation
	hub    *Hub
	router http.Handler
	cancel context.CancelFunc
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	opts := services.DefaultSimulationOptions()
	opts.Rand = rand.New(rand.NewSource(42))
	opts.SensorTickInterval = time.Hour
	opts.ObjectTickInterval = time.Hour
	sim := services.NewSimulation(opts, nil, nil, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub(sim.Campus, zap.NewNop())
	go hub.Run(ctx)

	h := NewHandler(ctx, sim, hub, []string{"*"}, zap.NewNop())
	env := &testEnv{sim: sim, hub: hub, router: NewRouter(h), cancel: cancel}
	t.Cleanup(func() {
		sim.Stop()
		sim.Wait()
		cancel()
	})
	return env
}

func (e *testEnv) do(method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeAPIError(t *testing.T, rec *httptest.ResponseRecorder) APIError {
	t.Helper()
	var apiErr APIError
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &apiErr))
	return apiErr
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok","is_simulating":false}`, rec.Body.String())
}

func TestSensorEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.sim.Initialize()
	env.sim.SensorTick()

	rec := env.do(http.MethodGet, "/api/sensors", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sensors []models.Sensor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sensors))
	assert.Len(t, sensors, len(services.SensorRegistry))

	rec = env.do(http.MethodGet, "/api/sensors/12", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var sensor models.Sensor
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sensor))
	assert.Equal(t, "Industrial Zone", sensor.Name)
	assert.Len(t, sensor.Readings, 1)

	rec = env.do(http.MethodGet, "/api/sensors/abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorCodeInvalidFormat, decodeAPIError(t, rec).Code)

	rec = env.do(http.MethodGet, "/api/sensors/99", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, ErrorCodeResourceNotFound, decodeAPIError(t, rec).Code)
}

func TestExportCSVEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.sim.Initialize()
	env.sim.SensorTick()

	rec := env.do(http.MethodGet, "/api/export.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "citipulse_sensor_data.csv")

	lines := strings.Split(strings.TrimRight(rec.Body.String(), "\n"), "\n")
	assert.Len(t, lines, len(services.SensorRegistry)+1)
}

func TestAnalyticsCommands(t *testing.T) {
	env := newTestEnv(t)
	env.sim.Initialize()
	env.sim.SensorTick()

	rec := env.do(http.MethodPut, "/api/analytics/range", `{"range":"fortnight"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	apiErr := decodeAPIError(t, rec)
	assert.Equal(t, ErrorCodeValidationFailed, apiErr.Code)
	assert.Equal(t, []interface{}{"1h", "6h", "24h", "all"}, apiErr.Details)

	rec = env.do(http.MethodPut, "/api/analytics/range", `{"range":"24h"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var view services.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.Equal(t, services.RangeLast24h, view.AnalyticsRange)

	rec = env.do(http.MethodPut, "/api/analytics/sensor", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/analytics/sensor", `{"sensor_id":99}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, "/api/analytics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sensor_id":99,"range":"24h","readings":[],"confidence":0,
		"forecast":{"sensor_id":99,"predicted_aqi":0,"predicted_temp":0,"confidence":0,"confidence_color":"bg-red-100 text-red-800"}}`,
		rec.Body.String())

	rec = env.do(http.MethodPut, "/api/analytics/sensor", `{"sensor_id":3}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var data services.Analytics
	rec = env.do(http.MethodGet, "/api/analytics", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &data))
	assert.Len(t, data.Readings, 1)
}

func TestSetMapModeEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPut, "/api/map/mode", `{"mode":"environmental"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, services.MapModeEnvironmental, env.sim.View().MapMode)

	rec = env.do(http.MethodPut, "/api/map/mode", `{"mode":"infrared"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(http.MethodPut, "/api/map/mode", `{"mode":"3d","zoom":4}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, ErrorCodeBadRequest, decodeAPIError(t, rec).Code)
}

func TestDemoAlertEndpoint(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/demo/alert", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	env.sim.Initialize()
	rec = env.do(http.MethodPost, "/api/demo/alert", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var alerts []models.Alert
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &alerts))
	require.Len(t, alerts, 3)
	for _, a := range alerts {
		assert.Equal(t, models.SeverityCritical, a.Level)
		assert.Equal(t, 1, a.SensorID)
	}

	rec = env.do(http.MethodGet, "/api/campus", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var campus models.CampusSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &campus))
	assert.Equal(t, 3, campus.CriticalAlerts)
}

func TestForecastEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.sim.Initialize()
	env.sim.SensorTick()

	rec := env.do(http.MethodGet, "/api/forecast/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var fc models.Forecast
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fc))
	assert.Equal(t, 1, fc.SensorID)
	assert.Zero(t, fc.Confidence)
	assert.Equal(t, "bg-red-100 text-red-800", fc.ConfidenceColor)

	rec = env.do(http.MethodGet, "/api/forecast/42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"sensor_id":42,"predicted_aqi":0,"predicted_temp":0,"confidence":0,"confidence_color":"bg-red-100 text-red-800"}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/forecast/x", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSimulationLifecycleEndpoints(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodPost, "/api/simulation/start", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"started":true,"is_simulating":true}`, rec.Body.String())

	rec = env.do(http.MethodPost, "/api/simulation/start", "")
	assert.JSONEq(t, `{"started":false,"is_simulating":true}`, rec.Body.String())

	rec = env.do(http.MethodGet, "/api/view", "")
	var view services.ViewState
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
	assert.True(t, view.Running)

	rec = env.do(http.MethodPost, "/api/simulation/stop", "")
	assert.JSONEq(t, `{"is_simulating":false}`, rec.Body.String())
}

func TestMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(http.MethodDelete, "/api/sensors", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestWebSocketReceivesTicks(t *testing.T) {
	env := newTestEnv(t)
	env.sim.Initialize()

	server := httptest.NewServer(env.router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	defer conn.Close()

	require.Eventually(t, func() bool { return env.hub.ClientCount() == 1 }, time.Second, 5*time.Millisecond)

	report := env.sim.SensorTick()
	require.NoError(t, env.hub.Publish(context.Background(), report))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type    string      `json:"type"`
		Payload TickPayload `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &msg))
	assert.Equal(t, "tick", msg.Type)
	assert.Equal(t, len(services.SensorRegistry), msg.Payload.Campus.TotalSensors)
	assert.NotNil(t, msg.Payload.Alerts)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:3000"})

	req := httptest.NewRequest(http.MethodGet, "/ws", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://localhost:3000")
	assert.True(t, check(req))

	req.Header.Set("Origin", "http://evil.example")
	assert.False(t, check(req))
}
