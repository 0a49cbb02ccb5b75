package services

import (
	"testing"
	"time"

	"citipulse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sensorWith(id int, category models.Category, readings ...models.SensorReading) models.Sensor {
	return models.Sensor{ID: id, Name: "s", Category: category, Readings: readings}
}

func reading(temp, humidity float64, aqi, co2 int) models.SensorReading {
	return models.SensorReading{Timestamp: noonUTC, Temperature: temp, Humidity: humidity, AQI: aqi, CO2: co2}
}

func TestGreenIndex(t *testing.T) {
	assert.Equal(t, 100, GreenIndex(0, 23, 400))
	assert.Equal(t, 50, GreenIndex(100, 23, 400))
	assert.Equal(t, 0, GreenIndex(300, 50, 3000))

	// temperature outside 18..28 is penalised by distance from 23
	assert.Equal(t, 90, GreenIndex(0, 31, 400))
}

func TestComputeCampusAveragesEmpty(t *testing.T) {
	assert.Equal(t, CampusAverages{}, ComputeCampusAverages(nil))

	nearbyOnly := []models.Sensor{sensorWith(9, models.CategoryNearby, reading(40, 90, 200, 2000))}
	assert.Equal(t, CampusAverages{}, ComputeCampusAverages(nearbyOnly))
}

func TestComputeCampusAveragesUsesLatestCampusReadings(t *testing.T) {
	sensors := []models.Sensor{
		sensorWith(1, models.CategoryCampus, reading(99, 99, 999, 9999), reading(30, 50, 70, 500)),
		sensorWith(2, models.CategoryCampus, reading(31, 55, 75, 601)),
		sensorWith(3, models.CategoryCampus),
		sensorWith(9, models.CategoryNearby, reading(45, 10, 300, 3000)),
	}

	avg := ComputeCampusAverages(sensors)
	assert.Equal(t, 30.5, avg.Temperature)
	assert.Equal(t, 52.5, avg.Humidity)
	assert.Equal(t, 72, avg.AQI)
	assert.Equal(t, 550, avg.CO2)
}

func TestRollupZoneBands(t *testing.T) {
	cases := []struct {
		aqi   int
		color string
	}{
		{50, "#4ade80"},
		{51, "#facc15"},
		{100, "#facc15"},
		{101, "#fb923c"},
		{150, "#fb923c"},
		{151, "#f87171"},
	}

	for _, tc := range cases {
		sensors := map[int]*models.Sensor{1: {ID: 1, Readings: []models.SensorReading{reading(30.123, 50, tc.aqi, 500)}}}
		zone := &models.Zone{ID: "z", SensorIDs: []int{1}}

		require.True(t, RollupZone(zone, sensors))
		assert.Equal(t, tc.aqi, zone.AvgAQI)
		assert.Equal(t, 30.12, zone.AvgTemp)
		assert.Equal(t, tc.color, zone.Color, "aqi %d", tc.aqi)
	}
}

func TestRollupZoneFloorsAverageAQI(t *testing.T) {
	sensors := map[int]*models.Sensor{
		1: {ID: 1, Readings: []models.SensorReading{reading(30, 50, 50, 500)}},
		2: {ID: 2, Readings: []models.SensorReading{reading(31, 50, 51, 500)}},
	}
	zone := &models.Zone{ID: "z", SensorIDs: []int{1, 2, 77}}

	require.True(t, RollupZone(zone, sensors))
	assert.Equal(t, 50, zone.AvgAQI)
	assert.Equal(t, 30.5, zone.AvgTemp)
	assert.Equal(t, "#4ade80", zone.Color)
}

func TestRollupZoneWithoutDataLeavesZoneUntouched(t *testing.T) {
	sensors := map[int]*models.Sensor{1: {ID: 1}}
	zone := &models.Zone{ID: "z", SensorIDs: []int{1}, AvgAQI: 42, Color: defaultZoneColor}

	assert.False(t, RollupZone(zone, sensors))
	assert.Equal(t, 42, zone.AvgAQI)
	assert.Equal(t, defaultZoneColor, zone.Color)
}

func TestTrendInsightPreconditions(t *testing.T) {
	assert.Equal(t, "Awaiting data for insights...", TrendInsight(nil, 0, noonUTC))

	twoReadings := []models.Sensor{sensorWith(1, models.CategoryCampus, reading(30, 50, 70, 500), reading(30, 50, 70, 500))}
	assert.Equal(t, "Insufficient data for trend analysis.", TrendInsight(twoReadings, 70, noonUTC))
}

func TestTrendInsightWithoutYesterdayReadings(t *testing.T) {
	recent := []models.Sensor{sensorWith(1, models.CategoryCampus,
		reading(30, 50, 70, 500), reading(30, 50, 71, 500), reading(30, 50, 72, 500))}

	assert.Equal(t, "Campus AQI is currently 80. Keep monitoring for trends.", TrendInsight(recent, 80, noonUTC))
}

func TestTrendInsightComparesWithYesterday(t *testing.T) {
	yesterday := reading(30, 50, 100, 500)
	yesterday.Timestamp = noonUTC.Add(-24*time.Hour + 30*time.Minute)
	sensors := []models.Sensor{sensorWith(1, models.CategoryCampus,
		yesterday, reading(30, 50, 90, 500), reading(30, 50, 95, 500))}

	assert.Equal(t, "AQI has risen by 10% to 110 compared to yesterday.", TrendInsight(sensors, 110, noonUTC))
	assert.Equal(t, "AQI is stable at 102, similar to yesterday.", TrendInsight(sensors, 102, noonUTC))
	assert.Equal(t, "AQI has improved by 20% to 80 since yesterday!", TrendInsight(sensors, 80, noonUTC))
}

func TestRecommendations(t *testing.T) {
	calm := []models.Sensor{sensorWith(1, models.CategoryCampus, reading(28, 50, 60, 500))}
	assert.Equal(t, []models.Recommendation{recAllGreen}, Recommendations(calm, 60))
	assert.Equal(t, []models.Recommendation{recTreePlanting}, Recommendations(calm, 91))

	var busy []models.Sensor
	for id := 1; id <= 4; id++ {
		busy = append(busy, sensorWith(id, models.CategoryCampus, reading(33, 50, 60, 850)))
	}
	assert.Equal(t, []models.Recommendation{recTreePlanting, recBicycleZones, recSolar}, Recommendations(busy, 95))
}

func TestRecommendationsIgnoreNearbySensors(t *testing.T) {
	var sensors []models.Sensor
	for id := 9; id <= 12; id++ {
		sensors = append(sensors, sensorWith(id, models.CategoryNearby, reading(40, 50, 60, 1500)))
	}
	assert.Equal(t, []models.Recommendation{recAllGreen}, Recommendations(sensors, 60))
}

func TestLastUpdatedDisplay(t *testing.T) {
	assert.Equal(t, "Never", LastUpdatedDisplay(time.Time{}, noonUTC))
	assert.Equal(t, "Just now", LastUpdatedDisplay(noonUTC.Add(-time.Second), noonUTC))
	assert.Equal(t, "30 seconds ago", LastUpdatedDisplay(noonUTC.Add(-30*time.Second), noonUTC))
	assert.Equal(t, "11:58:00", LastUpdatedDisplay(noonUTC.Add(-2*time.Minute), noonUTC))
}

func TestSummarizeCampus(t *testing.T) {
	snap := Snapshot{
		Sensors: []models.Sensor{
			sensorWith(1, models.CategoryCampus, reading(23, 50, 40, 400)),
			sensorWith(9, models.CategoryNearby, reading(40, 50, 300, 2000)),
		},
		Alerts: []models.Alert{
			{Level: models.SeverityCritical},
			{Level: models.SeverityWarning},
			{Level: models.SeverityCritical},
		},
		LastUpdated: noonUTC.Add(-10 * time.Second),
	}

	summary := SummarizeCampus(snap, noonUTC)
	assert.Equal(t, 2, summary.TotalSensors)
	assert.Equal(t, 2, summary.CriticalAlerts)
	assert.Equal(t, 40, summary.AvgAQI)
	assert.Equal(t, 80, summary.GreenIndex)
	assert.Equal(t, "#10B981", summary.GreenIndexColor)
	assert.Equal(t, "Excellent", summary.HealthStatus)
	assert.Equal(t, "10 seconds ago", summary.LastUpdatedDisplay)
	assert.Equal(t, "Insufficient data for trend analysis.", summary.Insight)
}
