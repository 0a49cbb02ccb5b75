package models

import (
	"fmt"
	"time"
)

// ArchivedReading is one reading as stored in the remote archive
type ArchivedReading struct {
	SensorID    int       `json:"sensor_id"`
	Timestamp   time.Time `json:"timestamp"`
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	AQI         int       `json:"aqi"`
	CO2         int       `json:"co2"`
}

// NewArchivedReading tags a reading with its sensor id
func NewArchivedReading(sensorID int, r SensorReading) ArchivedReading {
	return ArchivedReading{
		SensorID:    sensorID,
		Timestamp:   r.Timestamp,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		AQI:         r.AQI,
		CO2:         r.CO2,
	}
}

// Key is unique per sensor and timestamp
func (a ArchivedReading) Key() string {
	return fmt.Sprintf("s%02d_%d", a.SensorID, a.Timestamp.UnixNano())
}
