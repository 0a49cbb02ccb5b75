package models

import "time"

// Weather holds the last values returned by the external provider
type Weather struct {
	Temperature float64   `json:"temperature"`
	Humidity    float64   `json:"humidity"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Recommendation is one green-initiative suggestion
type Recommendation struct {
	Icon        string `json:"icon"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       string `json:"color"`
}

// CampusSummary bundles every campus-wide derived indicator
type CampusSummary struct {
	TotalSensors       int              `json:"total_sensors"`
	CriticalAlerts     int              `json:"critical_alerts"`
	AvgTemperature     float64          `json:"avg_temperature"`
	AvgHumidity        float64          `json:"avg_humidity"`
	AvgAQI             int              `json:"avg_aqi"`
	AvgCO2             int              `json:"avg_co2"`
	GreenIndex         int              `json:"green_index"`
	GreenIndexColor    string           `json:"green_index_color"`
	HealthStatus       string           `json:"health_status"`
	HealthTextColor    string           `json:"health_text_color"`
	HealthGradient     string           `json:"health_gradient"`
	Insight            string           `json:"insight"`
	Recommendations    []Recommendation `json:"recommendations"`
	LastUpdated        time.Time        `json:"last_updated"`
	LastUpdatedDisplay string           `json:"last_updated_display"`
	Weather            Weather          `json:"weather"`
}

// Forecast is the projected state of a sensor
type Forecast struct {
	SensorID        int     `json:"sensor_id"`
	PredictedAQI    float64 `json:"predicted_aqi"`
	PredictedTemp   float64 `json:"predicted_temp"`
	Confidence      int     `json:"confidence"`
	ConfidenceColor string  `json:"confidence_color"`
}

// TickReport describes what one committed sensor tick produced
type TickReport struct {
	Timestamp time.Time             `json:"timestamp"`
	Readings  map[int]SensorReading `json:"readings"`
	Alerts    []Alert               `json:"alerts"`
}
