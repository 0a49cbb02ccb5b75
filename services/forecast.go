package services

import (
	"errors"
	"fmt"
	"math"

	"citipulse/models"
)

const (
	// ForecastLookahead is how many history positions past the end the trend is projected.
	// It is a fixed tick count, not a time span.
	ForecastLookahead = 144

	// MinForecastHistory is the history length that must be exceeded before a forecast runs
	MinForecastHistory = 10
)

var (
	ErrInsufficientHistory = errors.New("insufficient history for forecast")
	ErrDegenerateFit       = errors.New("degenerate linear fit")
)

// LinearFit is an ordinary least-squares line y = Intercept + Slope*x
type LinearFit struct {
	Slope     float64
	Intercept float64
}

// At evaluates the line at x
func (f LinearFit) At(x float64) float64 {
	return f.Intercept + f.Slope*x
}

// FitIndexed fits ys against their 0-based positions. A constant series yields a zero slope.
func FitIndexed(ys []float64) (LinearFit, error) {
	n := float64(len(ys))
	if len(ys) == 0 {
		return LinearFit{}, ErrInsufficientHistory
	}

	var sumY float64
	for _, y := range ys {
		if math.IsNaN(y) || math.IsInf(y, 0) {
			return LinearFit{}, fmt.Errorf("%w: non-finite sample", ErrDegenerateFit)
		}
		sumY += y
	}
	meanX := (n - 1) / 2
	meanY := sumY / n

	var sxx, sxy float64
	for i, y := range ys {
		dx := float64(i) - meanX
		sxx += dx * dx
		sxy += dx * (y - meanY)
	}

	if sxx == 0 {
		// single sample: flat line through it
		return LinearFit{Intercept: meanY}, nil
	}

	slope := sxy / sxx
	fit := LinearFit{Slope: slope, Intercept: meanY - slope*meanX}
	if math.IsNaN(fit.Slope) || math.IsInf(fit.Slope, 0) || math.IsNaN(fit.Intercept) {
		return LinearFit{}, ErrDegenerateFit
	}
	return fit, nil
}

// ForecastResult holds the projected values for one sensor
type ForecastResult struct {
	Temperature float64
	AQI         float64
}

// EstimateForecast projects temperature and AQI ForecastLookahead positions past the
// end of history. History must be longer than MinForecastHistory.
func EstimateForecast(history []models.SensorReading) (ForecastResult, error) {
	if len(history) <= MinForecastHistory {
		return ForecastResult{}, ErrInsufficientHistory
	}

	temps := make([]float64, len(history))
	aqis := make([]float64, len(history))
	for i, r := range history {
		temps[i] = r.Temperature
		aqis[i] = float64(r.AQI)
	}

	tempFit, err := FitIndexed(temps)
	if err != nil {
		return ForecastResult{}, fmt.Errorf("temperature trend: %w", err)
	}
	aqiFit, err := FitIndexed(aqis)
	if err != nil {
		return ForecastResult{}, fmt.Errorf("aqi trend: %w", err)
	}

	x := float64(len(history) + ForecastLookahead)
	return ForecastResult{
		Temperature: round(tempFit.At(x), 2),
		AQI:         round(aqiFit.At(x), 2),
	}, nil
}

// PredictionConfidence is the mock confidence score shown next to a forecast
func PredictionConfidence(historyLen int) int {
	if historyLen < MinForecastHistory {
		return 0
	}
	return min(95, 50+historyLen)
}

// ConfidenceColor maps a confidence score onto a badge style
func ConfidenceColor(confidence int) string {
	switch {
	case confidence > 80:
		return "bg-green-100 text-green-800"
	case confidence > 60:
		return "bg-yellow-100 text-yellow-800"
	default:
		return "bg-red-100 text-red-800"
	}
}
