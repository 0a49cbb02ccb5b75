package services

import "citipulse/models"

// AQITier is one of the four air-quality bands shared by every color and label lookup
type AQITier int

const (
	TierGood AQITier = iota
	TierModerate
	TierUnhealthySensitive
	TierUnhealthy
	tierCount
)

// TierFor buckets an AQI value; upper bounds are inclusive (50, 100, 150).
// Zone fills, sensor markers and the campus health tier all share it.
func TierFor(aqi float64) AQITier {
	switch {
	case aqi <= 50:
		return TierGood
	case aqi <= 100:
		return TierModerate
	case aqi <= 150:
		return TierUnhealthySensitive
	default:
		return TierUnhealthy
	}
}

// Every table below is indexed by AQITier; the array length keeps them in step with the tiers.
var (
	tierNames         = [tierCount]string{"good", "moderate", "unhealthy-sensitive", "unhealthy"}
	zoneColors        = [tierCount]string{"#4ade80", "#facc15", "#fb923c", "#f87171"}
	sensorColors      = [tierCount]string{"#22C55E", "#EAB308", "#F97316", "#EF4444"}
	environmentColors = [tierCount]string{"#00FF00", "#FFFF00", "#FFA500", "#FF0000"}
	healthStatuses    = [tierCount]string{"Excellent", "Good", "Moderate", "Unhealthy"}
	healthTextColors  = [tierCount]string{"text-green-600", "text-yellow-600", "text-orange-600", "text-red-600"}
	healthGradients   = [tierCount]string{"from-green-400 to-green-600", "from-yellow-400 to-yellow-600", "from-orange-400 to-orange-600", "from-red-400 to-red-600"}
)

const (
	noDataColor      = "#A1A1AA"
	defaultZoneColor = "#4ade80"
)

func (t AQITier) String() string { return tierNames[t] }

// ZoneColor is the fill used for zone polygons
func (t AQITier) ZoneColor() string { return zoneColors[t] }

// HealthStatus is the campus status word for the tier
func (t AQITier) HealthStatus() string { return healthStatuses[t] }

func (t AQITier) HealthTextColor() string { return healthTextColors[t] }

func (t AQITier) HealthGradient() string { return healthGradients[t] }

// SensorColor picks the marker color for a sensor, using the environmental palette in that map mode
func SensorColor(sensor *models.Sensor, mode MapMode) string {
	latest, ok := sensor.Latest()
	if !ok {
		return noDataColor
	}
	tier := TierFor(float64(latest.AQI))
	if mode == MapModeEnvironmental {
		return environmentColors[tier]
	}
	return sensorColors[tier]
}

// GreenIndexColor maps the green index onto its gauge color
func GreenIndexColor(cgi int) string {
	switch {
	case cgi > 75:
		return "#10B981"
	case cgi > 50:
		return "#FBBF24"
	default:
		return "#F97316"
	}
}
