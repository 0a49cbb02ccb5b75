package services

import (
	"math"
	"math/rand"
	"time"

	"citipulse/models"
)

const (
	baseTemperature = 28.0
	baseHumidity    = 55.0
	baseAQI         = 70.0
	baseCO2         = 500.0
)

// ReadingGenerator produces synthetic readings. It is not safe for concurrent
// use; the simulation only calls it from inside the sensor tick.
type ReadingGenerator struct {
	rng *rand.Rand
}

// NewReadingGenerator creates a generator backed by rng. Pass a seeded source for
// reproducible output.
func NewReadingGenerator(rng *rand.Rand) *ReadingGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &ReadingGenerator{rng: rng}
}

// IsDaytime reports whether the UTC hour falls in [6,18)
func IsDaytime(now time.Time) bool {
	h := now.UTC().Hour()
	return h >= 6 && h < 18
}

// Generate returns one reading for the named location at now
func (g *ReadingGenerator) Generate(now time.Time, locationName string) models.SensorReading {
	var tempBias, aqiBias float64
	if IsDaytime(now) {
		tempBias = g.uniform(2, 5)
		aqiBias = 10
	} else {
		tempBias = g.uniform(-3, -1)
		aqiBias = -8
	}

	factor := FactorFor(locationName)

	temp := baseTemperature + tempBias + factor.Temperature + g.uniform(-0.5, 0.5)
	humidity := baseHumidity + g.uniform(-5, 5)
	aqi := baseAQI + aqiBias + factor.AQI + g.uniform(-5, 5)
	co2 := baseCO2 + factor.CO2 + g.uniform(-20, 20)

	return models.SensorReading{
		Timestamp:   now.UTC(),
		Temperature: round(temp, 2),
		Humidity:    round(math.Max(0, math.Min(100, humidity)), 2),
		AQI:         int(math.Max(0, aqi)),
		CO2:         int(math.Max(0, co2)),
	}
}

func (g *ReadingGenerator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

// round rounds half away from zero to the given number of decimals
func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
