package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"citipulse/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WeatherProvider supplies ambient outdoor conditions
type WeatherProvider interface {
	Current(ctx context.Context) (models.Weather, error)
}

// OpenMeteoProvider fetches current conditions from an Open-Meteo compatible endpoint
type OpenMeteoProvider struct {
	client    *resty.Client
	url       string
	latitude  float64
	longitude float64
	logger    *zap.Logger
}

type openMeteoResponse struct {
	Current struct {
		Time               string  `json:"time"`
		Temperature2m      float64 `json:"temperature_2m"`
		RelativeHumidity2m float64 `json:"relative_humidity_2m"`
	} `json:"current"`
}

func NewOpenMeteoProvider(url string, latitude, longitude float64, timeout time.Duration, logger *zap.Logger) *OpenMeteoProvider {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", "CitiPulse-Simulator/1.0")

	return &OpenMeteoProvider{
		client:    client,
		url:       url,
		latitude:  latitude,
		longitude: longitude,
		logger:    logger,
	}
}

// Current performs a single request; the caller decides how to treat failures
func (p *OpenMeteoProvider) Current(ctx context.Context) (models.Weather, error) {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":      fmt.Sprintf("%f", p.latitude),
			"longitude":     fmt.Sprintf("%f", p.longitude),
			"current":       "temperature_2m,relative_humidity_2m",
			"forecast_days": "1",
		}).
		Get(p.url)
	if err != nil {
		return models.Weather{}, fmt.Errorf("weather request failed: %w", err)
	}
	if resp.IsError() {
		p.logger.Debug("Weather API returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("url", p.url))
		return models.Weather{}, fmt.Errorf("weather API error: %s", resp.Status())
	}

	var body openMeteoResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return models.Weather{}, fmt.Errorf("failed to decode weather response: %w", err)
	}

	return models.Weather{
		Temperature: body.Current.Temperature2m,
		Humidity:    body.Current.RelativeHumidity2m,
		FetchedAt:   time.Now().UTC(),
	}, nil
}
