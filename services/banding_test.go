package services

import (
	"testing"

	"citipulse/models"

	"github.com/stretchr/testify/assert"
)

func TestTierBoundariesSharedByEveryPalette(t *testing.T) {
	cases := []struct {
		aqi    int
		zone   string
		sensor string
		health string
	}{
		{50, "#4ade80", "#22C55E", "Excellent"},
		{51, "#facc15", "#EAB308", "Good"},
		{100, "#facc15", "#EAB308", "Good"},
		{101, "#fb923c", "#F97316", "Moderate"},
		{150, "#fb923c", "#F97316", "Moderate"},
		{151, "#f87171", "#EF4444", "Unhealthy"},
	}

	for _, tc := range cases {
		tier := TierFor(float64(tc.aqi))
		sensor := &models.Sensor{Readings: []models.SensorReading{{AQI: tc.aqi}}}

		assert.Equal(t, tc.zone, tier.ZoneColor(), tc.aqi)
		assert.Equal(t, tc.sensor, SensorColor(sensor, MapModeStreets), tc.aqi)
		assert.Equal(t, tc.health, tier.HealthStatus(), tc.aqi)
	}
}

func TestSensorColorWithoutReadings(t *testing.T) {
	assert.Equal(t, noDataColor, SensorColor(&models.Sensor{}, MapModeEnvironmental))
}
