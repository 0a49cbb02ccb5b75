package services

import (
	"time"

	"citipulse/models"

	"github.com/google/uuid"
)

// AlertEvaluator checks readings against the threshold table
type AlertEvaluator struct {
	thresholds models.Thresholds
	newID      func() string
}

func NewAlertEvaluator(thresholds models.Thresholds) *AlertEvaluator {
	return &AlertEvaluator{
		thresholds: thresholds,
		newID:      uuid.NewString,
	}
}

// Evaluate returns the alerts a reading raises. Temperature, AQI and CO2 are
// checked independently; humidity yields at most one alert.
func (e *AlertEvaluator) Evaluate(sensorID int, sensorName string, r models.SensorReading, now time.Time) []models.Alert {
	var alerts []models.Alert

	add := func(param models.Parameter, value, threshold float64, level models.Severity) {
		alerts = append(alerts, models.Alert{
			ID:         e.newID(),
			SensorID:   sensorID,
			SensorName: sensorName,
			Parameter:  param,
			Value:      value,
			Threshold:  threshold,
			Level:      level,
			Timestamp:  now.UTC(),
		})
	}

	checkUpper := func(param models.Parameter, value float64, band models.Band) {
		if value > band.Critical {
			add(param, value, band.Critical, models.SeverityCritical)
		} else if value > band.Warning {
			add(param, value, band.Warning, models.SeverityWarning)
		}
	}

	checkUpper(models.ParamTemperature, r.Temperature, e.thresholds.Temperature)
	checkUpper(models.ParamAQI, float64(r.AQI), e.thresholds.AQI)
	checkUpper(models.ParamCO2, float64(r.CO2), e.thresholds.CO2)

	h := e.thresholds.Humidity
	switch {
	case r.Humidity > h.CriticalHigh:
		add(models.ParamHumidity, r.Humidity, h.CriticalHigh, models.SeverityCritical)
	case r.Humidity > h.WarningHigh:
		add(models.ParamHumidity, r.Humidity, h.WarningHigh, models.SeverityWarning)
	case r.Humidity < h.CriticalLow:
		add(models.ParamHumidity, r.Humidity, h.CriticalLow, models.SeverityCritical)
	case r.Humidity < h.WarningLow:
		add(models.ParamHumidity, r.Humidity, h.WarningLow, models.SeverityWarning)
	}

	return alerts
}

// Raise evaluates the reading and records every resulting alert in both the
// global feed and the sensor's own feed. The caller must hold the store's write lock.
func (e *AlertEvaluator) Raise(st *Store, sensor *models.Sensor, r models.SensorReading, now time.Time) []models.Alert {
	alerts := e.Evaluate(sensor.ID, sensor.Name, r, now)
	for _, a := range alerts {
		st.pushAlertLocked(sensor, a)
	}
	return alerts
}

// pushFront inserts a at the head of feed, dropping the oldest entries beyond capacity
func pushFront(feed []models.Alert, a models.Alert, capacity int) []models.Alert {
	feed = append(feed, models.Alert{})
	copy(feed[1:], feed)
	feed[0] = a
	if len(feed) > capacity {
		feed = feed[:capacity]
	}
	return feed
}
