package services

import (
	"fmt"
	"math"
	"time"

	"citipulse/models"
)

// RollupZone recomputes a zone's averages and color from its members' latest
// readings. It returns false, leaving the zone as it was, when no member has data.
func RollupZone(zone *models.Zone, sensors map[int]*models.Sensor) bool {
	var aqiSum, tempSum float64
	n := 0
	for _, id := range zone.SensorIDs {
		sensor, ok := sensors[id]
		if !ok {
			continue
		}
		latest, ok := sensor.Latest()
		if !ok {
			continue
		}
		aqiSum += float64(latest.AQI)
		tempSum += latest.Temperature
		n++
	}
	if n == 0 {
		return false
	}

	avgAQI := aqiSum / float64(n)
	zone.AvgAQI = int(math.Floor(avgAQI))
	zone.AvgTemp = round(tempSum/float64(n), 2)
	zone.Color = TierFor(float64(zone.AvgAQI)).ZoneColor()
	return true
}

// CampusAverages are the campus-wide means of each parameter
type CampusAverages struct {
	Temperature float64
	Humidity    float64
	AQI         int
	CO2         int
}

// campusLatest returns the latest reading of every Campus sensor that has one
func campusLatest(sensors []models.Sensor) []models.SensorReading {
	var out []models.SensorReading
	for i := range sensors {
		if sensors[i].Category != models.CategoryCampus {
			continue
		}
		if latest, ok := sensors[i].Latest(); ok {
			out = append(out, latest)
		}
	}
	return out
}

// ComputeCampusAverages averages the latest Campus readings, rounding to one decimal.
// With no Campus readings every value is zero.
func ComputeCampusAverages(sensors []models.Sensor) CampusAverages {
	latest := campusLatest(sensors)
	if len(latest) == 0 {
		return CampusAverages{}
	}

	var temp, hum, aqi, co2 float64
	for _, r := range latest {
		temp += r.Temperature
		hum += r.Humidity
		aqi += float64(r.AQI)
		co2 += float64(r.CO2)
	}
	n := float64(len(latest))
	return CampusAverages{
		Temperature: round(temp/n, 1),
		Humidity:    round(hum/n, 1),
		AQI:         int(round(aqi/n, 1)),
		CO2:         int(round(co2/n, 1)),
	}
}

// GreenIndex is the 0-100 composite of AQI (50%), temperature (25%) and CO2 (25%) sub-scores
func GreenIndex(avgAQI int, avgTemp float64, avgCO2 int) int {
	aqiScore := math.Max(0, 100-float64(avgAQI))

	tempScore := 100.0
	if avgTemp < 18 || avgTemp > 28 {
		tempScore = math.Max(0, 100-math.Abs(avgTemp-23)*5)
	}

	co2Score := math.Max(0, 100-(float64(avgCO2)-400)/10)

	cgi := int(aqiScore*0.5 + tempScore*0.25 + co2Score*0.25)
	return max(0, min(100, cgi))
}

// TrendInsight compares the current campus AQI with readings from about 24 hours ago
func TrendInsight(sensors []models.Sensor, currentAQI int, now time.Time) string {
	anyData := false
	for i := range sensors {
		if len(sensors[i].Readings) > 0 {
			anyData = true
			break
		}
	}
	if !anyData {
		return "Awaiting data for insights..."
	}

	var eligible []*models.Sensor
	for i := range sensors {
		if sensors[i].Category == models.CategoryCampus && len(sensors[i].Readings) > 2 {
			eligible = append(eligible, &sensors[i])
		}
	}
	if len(eligible) == 0 {
		return "Insufficient data for trend analysis."
	}

	dayAgo := now.Add(-24 * time.Hour)
	var sum float64
	count := 0
	for _, sensor := range eligible {
		for _, r := range sensor.Readings {
			d := r.Timestamp.Sub(dayAgo)
			if d < 0 {
				d = -d
			}
			if d < time.Hour {
				sum += float64(r.AQI)
				count++
				break
			}
		}
	}

	yesterday := 0.0
	if count > 0 {
		yesterday = sum / float64(count)
	}
	if yesterday == 0 {
		return fmt.Sprintf("Campus AQI is currently %d. Keep monitoring for trends.", currentAQI)
	}

	change := (float64(currentAQI) - yesterday) / yesterday * 100
	switch {
	case math.Abs(change) < 5:
		return fmt.Sprintf("AQI is stable at %d, similar to yesterday.", currentAQI)
	case change > 0:
		return fmt.Sprintf("AQI has risen by %.0f%% to %d compared to yesterday.", math.Abs(change), currentAQI)
	default:
		return fmt.Sprintf("AQI has improved by %.0f%% to %d since yesterday!", math.Abs(change), currentAQI)
	}
}

var (
	recTreePlanting = models.Recommendation{
		Icon:        "tree-pine",
		Title:       "Tree Plantation Drive",
		Description: "Campus AQI is elevated. Planting more trees can help filter pollutants and improve air quality.",
		Color:       "text-green-600",
	}
	recBicycleZones = models.Recommendation{
		Icon:        "bike",
		Title:       "Promote Bicycle Zones",
		Description: "High CO2 levels detected near multiple zones, likely due to vehicle traffic. Promoting bicycle usage can reduce emissions.",
		Color:       "text-sky-600",
	}
	recSolar = models.Recommendation{
		Icon:        "solar-panel",
		Title:       "Explore Solar Initiatives",
		Description: "Consistently high temperatures suggest an opportunity to harness solar energy. Consider installing solar panels on rooftops.",
		Color:       "text-orange-500",
	}
	recAllGreen = models.Recommendation{
		Icon:        "party-popper",
		Title:       "All Green!",
		Description: "Environmental parameters are within optimal ranges. Keep up the great work in maintaining a sustainable campus!",
		Color:       "text-emerald-500",
	}
)

// Recommendations evaluates the green-initiative rules in order and returns every match
func Recommendations(sensors []models.Sensor, avgAQI int) []models.Recommendation {
	var recs []models.Recommendation

	if avgAQI > 90 {
		recs = append(recs, recTreePlanting)
	}

	highCO2, highTemp := 0, 0
	for _, r := range campusLatest(sensors) {
		if r.CO2 > 800 {
			highCO2++
		}
		if r.Temperature > 32 {
			highTemp++
		}
	}
	if highCO2 > 2 {
		recs = append(recs, recBicycleZones)
	}
	if highTemp > 3 {
		recs = append(recs, recSolar)
	}

	if len(recs) == 0 {
		recs = append(recs, recAllGreen)
	}
	return recs
}

// LastUpdatedDisplay renders how long ago the last sensor tick committed
func LastUpdatedDisplay(last, now time.Time) string {
	if last.IsZero() {
		return "Never"
	}
	diff := now.Sub(last)
	switch {
	case diff < 2*time.Second:
		return "Just now"
	case diff < time.Minute:
		return fmt.Sprintf("%d seconds ago", int(diff.Seconds()))
	default:
		return last.UTC().Format("15:04:05")
	}
}

// CountCritical returns the number of critical alerts in a feed
func CountCritical(alerts []models.Alert) int {
	n := 0
	for _, a := range alerts {
		if a.IsCritical() {
			n++
		}
	}
	return n
}

// SummarizeCampus derives every campus indicator from a snapshot. Nothing is cached.
func SummarizeCampus(snap Snapshot, now time.Time) models.CampusSummary {
	avg := ComputeCampusAverages(snap.Sensors)
	tier := TierFor(float64(avg.AQI))
	cgi := GreenIndex(avg.AQI, avg.Temperature, avg.CO2)

	return models.CampusSummary{
		TotalSensors:       len(snap.Sensors),
		CriticalAlerts:     CountCritical(snap.Alerts),
		AvgTemperature:     avg.Temperature,
		AvgHumidity:        avg.Humidity,
		AvgAQI:             avg.AQI,
		AvgCO2:             avg.CO2,
		GreenIndex:         cgi,
		GreenIndexColor:    GreenIndexColor(cgi),
		HealthStatus:       tier.HealthStatus(),
		HealthTextColor:    tier.HealthTextColor(),
		HealthGradient:     tier.HealthGradient(),
		Insight:            TrendInsight(snap.Sensors, avg.AQI, now),
		Recommendations:    Recommendations(snap.Sensors, avg.AQI),
		LastUpdated:        snap.LastUpdated,
		LastUpdatedDisplay: LastUpdatedDisplay(snap.LastUpdated, now),
		Weather:            snap.Weather,
	}
}
