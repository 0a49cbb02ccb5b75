package models

import (
	"time"
)

// Category groups sensors by where they are deployed
type Category string

const (
	CategoryCampus Category = "Campus"
	CategoryNearby Category = "Nearby"
)

// Coordinates is a WGS84 position
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// SensorReading is a single synthetic measurement. Values are never mutated after creation.
type SensorReading struct {
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	AQI         int       `json:"aqi"`
	CO2         int       `json:"co2"`
}

// Sensor represents a monitored location together with its rolling state
type Sensor struct {
	ID            int             `json:"id"`
	Name          string          `json:"name"`
	Category      Category        `json:"type"`
	Location      Coordinates     `json:"location"`
	Readings      []SensorReading `json:"readings"`
	Alerts        []Alert         `json:"alerts"`
	PredictedAQI  float64         `json:"predicted_aqi"`
	PredictedTemp float64         `json:"predicted_temp"`
	Color         string          `json:"color"`
	IsGlowing     bool            `json:"is_glowing"`
}

// Latest returns the most recent reading, if any
func (s *Sensor) Latest() (SensorReading, bool) {
	if len(s.Readings) == 0 {
		return SensorReading{}, false
	}
	return s.Readings[len(s.Readings)-1], true
}

// Clone returns a deep copy that shares no slices with the receiver
func (s *Sensor) Clone() Sensor {
	c := *s
	c.Readings = append([]SensorReading(nil), s.Readings...)
	c.Alerts = append([]Alert(nil), s.Alerts...)
	return c
}

// SensorSpec is a static registry entry
type SensorSpec struct {
	ID       int
	Name     string
	Category Category
	Location Coordinates
}
