package models

// Band is a one-sided upper warning/critical pair
type Band struct {
	Warning  float64 `json:"warning"`
	Critical float64 `json:"critical"`
}

// HumidityBands holds the two-sided humidity limits
type HumidityBands struct {
	WarningLow   float64 `json:"warning_low"`
	WarningHigh  float64 `json:"warning_high"`
	CriticalLow  float64 `json:"critical_low"`
	CriticalHigh float64 `json:"critical_high"`
}

// Thresholds is the per-parameter alert table
type Thresholds struct {
	Temperature Band          `json:"temperature"`
	Humidity    HumidityBands `json:"humidity"`
	AQI         Band          `json:"aqi"`
	CO2         Band          `json:"co2"`
}

// DefaultThresholds returns the stock alert table
func DefaultThresholds() Thresholds {
	return Thresholds{
		Temperature: Band{Warning: 33, Critical: 37},
		Humidity: HumidityBands{
			WarningLow:   25,
			WarningHigh:  75,
			CriticalLow:  15,
			CriticalHigh: 85,
		},
		AQI: Band{Warning: 100, Critical: 150},
		CO2: Band{Warning: 900, Critical: 1200},
	}
}
