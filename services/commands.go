package services

import (
	"time"

	"citipulse/models"

	"go.uber.org/zap"
)

// demoReading breaks the critical bound of every parameter except humidity
var demoReading = models.SensorReading{
	Temperature: 38.5,
	Humidity:    45,
	AQI:         155,
	CO2:         1300,
}

// SetAnalyticsSensor selects the sensor shown by the analytics view. Unknown ids are
// accepted and simply yield empty analytics.
func (s *Simulation) SetAnalyticsSensor(id int) {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.analyticsSensorID = id
}

// SetAnalyticsRange selects the analytics lookback window
func (s *Simulation) SetAnalyticsRange(name string) error {
	r, err := ParseTimeRange(name)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.analyticsRange = r
	return nil
}

// SetMapMode switches the map display mode and recolors every sensor for it
func (s *Simulation) SetMapMode(name string) error {
	mode, err := ParseMapMode(name)
	if err != nil {
		return err
	}
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.mapMode = mode
	for _, sensor := range s.store.sensors {
		sensor.Color = SensorColor(sensor, mode)
	}
	return nil
}

// ToggleDemoMode flips demo mode and returns the new value. Switching it on
// fires the demo alert once.
func (s *Simulation) ToggleDemoMode() bool {
	s.store.mu.Lock()
	s.store.demoMode = !s.store.demoMode
	on := s.store.demoMode
	s.store.mu.Unlock()

	s.logger.Info("Demo mode toggled", zap.Bool("demo_mode", on))
	if on {
		if _, err := s.TriggerDemoAlert(); err != nil {
			s.logger.Warn("Demo alert not injected", zap.Error(err))
		}
	}
	return on
}

// TriggerDemoAlert injects a fixed critical reading into the demo sensor through the
// normal update path and returns the alerts it raised
func (s *Simulation) TriggerDemoAlert() ([]models.Alert, error) {
	now := s.clock().UTC()
	reading := demoReading
	reading.Timestamp = now

	s.store.mu.Lock()
	sensor, ok := s.store.sensors[demoSensorID]
	if !ok {
		s.store.mu.Unlock()
		return nil, ErrUnknownSensor
	}
	alerts := s.applyReadingLocked(sensor, reading, now)
	for _, id := range s.store.zoneOrder {
		RollupZone(s.store.zones[id], s.store.sensors)
	}
	s.store.lastUpdated = now
	s.store.mu.Unlock()

	s.logger.Info("Demo alert triggered",
		zap.Int("sensor_id", demoSensorID),
		zap.Int("alert_count", len(alerts)))

	if s.dispatcher != nil {
		s.dispatcher.Submit(models.TickReport{
			Timestamp: now,
			Readings:  map[int]models.SensorReading{demoSensorID: reading},
			Alerts:    alerts,
		})
	}
	return alerts, nil
}

// Campus summarizes the whole campus as of now
func (s *Simulation) Campus() models.CampusSummary {
	return SummarizeCampus(s.store.Snapshot(), s.clock().UTC())
}

// Forecast reports the stored prediction for one sensor together with its confidence.
// An unknown sensor yields an empty forecast with zero confidence.
func (s *Simulation) Forecast(id int) models.Forecast {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return forecastFor(id, s.store.sensors[id])
}

func forecastFor(id int, sensor *models.Sensor) models.Forecast {
	fc := models.Forecast{SensorID: id}
	if sensor != nil {
		fc.PredictedAQI = sensor.PredictedAQI
		fc.PredictedTemp = sensor.PredictedTemp
		fc.Confidence = PredictionConfidence(len(sensor.Readings))
	}
	fc.ConfidenceColor = ConfidenceColor(fc.Confidence)
	return fc
}

// Analytics is the filtered history of the selected analytics sensor with its forecast
type Analytics struct {
	SensorID   int                    `json:"sensor_id"`
	Range      TimeRange              `json:"range"`
	Readings   []models.SensorReading `json:"readings"`
	Forecast   models.Forecast        `json:"forecast"`
	Confidence int                    `json:"confidence"`
}

// AnalyticsData returns the selected sensor's readings within the selected range.
// An unknown sensor gives an empty series and a zero-confidence forecast.
func (s *Simulation) AnalyticsData() Analytics {
	now := s.clock().UTC()

	s.store.mu.RLock()
	defer s.store.mu.RUnlock()

	id := s.store.analyticsSensorID
	sensor, ok := s.store.sensors[id]
	fc := forecastFor(id, sensor)
	out := Analytics{
		SensorID:   id,
		Range:      s.store.analyticsRange,
		Readings:   []models.SensorReading{},
		Forecast:   fc,
		Confidence: fc.Confidence,
	}
	if !ok {
		return out
	}

	window := s.store.analyticsRange.Window()
	for _, r := range sensor.Readings {
		if window > 0 && now.Sub(r.Timestamp) > window {
			continue
		}
		out.Readings = append(out.Readings, r)
	}
	return out
}

// ViewState is the presentation settings currently in effect
type ViewState struct {
	Running           bool      `json:"is_simulating"`
	AnalyticsSensorID int       `json:"analytics_sensor_id"`
	AnalyticsRange    TimeRange `json:"analytics_range"`
	MapMode           MapMode   `json:"map_mode"`
	DemoMode          bool      `json:"demo_mode"`
	LastUpdated       time.Time `json:"last_updated"`
}

func (s *Simulation) View() ViewState {
	s.store.mu.RLock()
	defer s.store.mu.RUnlock()
	return ViewState{
		Running:           s.IsRunning(),
		AnalyticsSensorID: s.store.analyticsSensorID,
		AnalyticsRange:    s.store.analyticsRange,
		MapMode:           s.store.mapMode,
		DemoMode:          s.store.demoMode,
		LastUpdated:       s.store.lastUpdated,
	}
}
