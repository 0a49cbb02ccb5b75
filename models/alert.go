package models

import "time"

// Severity is the alert level
type Severity string

const (
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// Parameter names a measured quantity
type Parameter string

const (
	ParamTemperature Parameter = "TEMPERATURE"
	ParamHumidity    Parameter = "HUMIDITY"
	ParamAQI         Parameter = "AQI"
	ParamCO2         Parameter = "CO2"
)

// Alert is raised when a reading crosses a threshold
type Alert struct {
	ID         string    `json:"id"`
	SensorID   int       `json:"sensor_id"`
	SensorName string    `json:"sensor_name"`
	Parameter  Parameter `json:"parameter"`
	Value      float64   `json:"value"`
	Threshold  float64   `json:"threshold"`
	Level      Severity  `json:"level"`
	Timestamp  time.Time `json:"timestamp"`
}

// IsCritical reports whether the alert has critical severity
func (a Alert) IsCritical() bool {
	return a.Level == SeverityCritical
}

// GetSeverityEmoji returns the marker used in chat notifications
func (a Alert) GetSeverityEmoji() string {
	switch a.Level {
	case SeverityCritical:
		return "🔴"
	case SeverityWarning:
		return "🟡"
	default:
		return "⚪"
	}
}

// GetParameterEmoji returns appropriate emoji for the alert parameter
func (a Alert) GetParameterEmoji() string {
	switch a.Parameter {
	case ParamTemperature:
		return "🔥"
	case ParamHumidity:
		return "💧"
	case ParamAQI:
		return "💨"
	case ParamCO2:
		return "🏭"
	default:
		return "⚠️"
	}
}
