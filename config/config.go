package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"citipulse/models"

	"github.com/joho/godotenv"
)

type Config struct {
	// Simulation cadence
	SensorTickInterval     time.Duration
	WeatherRefreshInterval time.Duration
	ObjectTickInterval     time.Duration

	// Buffer capacities
	HistoryCapacity     int
	SensorAlertCapacity int
	GlobalAlertCapacity int
	GlowWindow          time.Duration

	Thresholds models.Thresholds

	// External weather provider
	WeatherAPIURL    string
	WeatherLatitude  float64
	WeatherLongitude float64
	WeatherTimeout   time.Duration

	// HTTP surface
	HTTPAddr           string
	CORSAllowedOrigins []string

	// Optional sinks, disabled when left empty
	MQTTBroker      string
	MQTTClientID    string
	MQTTUsername    string
	MQTTPassword    string
	MQTTTopicPrefix string

	RabbitMQURL      string
	RabbitMQExchange string

	TelegramBotToken string
	TelegramChatID   string

	AlertWebhookURL string

	FirebaseDbUrl              string
	FirebaseServiceAccountJSON string
	FirebaseBatchSize          int
	FirebaseBatchTimeout       time.Duration

	LogLevel string
}

func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	defaults := models.DefaultThresholds()

	config := &Config{
		SensorTickInterval:     getEnvDuration("SENSOR_TICK_INTERVAL", 10*time.Second),
		WeatherRefreshInterval: getEnvDuration("WEATHER_REFRESH_INTERVAL", 300*time.Second),
		ObjectTickInterval:     getEnvDuration("OBJECT_TICK_INTERVAL", time.Second),

		HistoryCapacity:     getEnvInt("HISTORY_CAPACITY", 100),
		SensorAlertCapacity: getEnvInt("SENSOR_ALERT_CAPACITY", 10),
		GlobalAlertCapacity: getEnvInt("GLOBAL_ALERT_CAPACITY", 50),
		GlowWindow:          getEnvDuration("GLOW_WINDOW", 60*time.Second),

		Thresholds: models.Thresholds{
			Temperature: models.Band{
				Warning:  getEnvFloat("TEMP_WARNING", defaults.Temperature.Warning),
				Critical: getEnvFloat("TEMP_CRITICAL", defaults.Temperature.Critical),
			},
			Humidity: models.HumidityBands{
				WarningLow:   getEnvFloat("HUMIDITY_WARNING_LOW", defaults.Humidity.WarningLow),
				WarningHigh:  getEnvFloat("HUMIDITY_WARNING_HIGH", defaults.Humidity.WarningHigh),
				CriticalLow:  getEnvFloat("HUMIDITY_CRITICAL_LOW", defaults.Humidity.CriticalLow),
				CriticalHigh: getEnvFloat("HUMIDITY_CRITICAL_HIGH", defaults.Humidity.CriticalHigh),
			},
			AQI: models.Band{
				Warning:  getEnvFloat("AQI_WARNING", defaults.AQI.Warning),
				Critical: getEnvFloat("AQI_CRITICAL", defaults.AQI.Critical),
			},
			CO2: models.Band{
				Warning:  getEnvFloat("CO2_WARNING", defaults.CO2.Warning),
				Critical: getEnvFloat("CO2_CRITICAL", defaults.CO2.Critical),
			},
		},

		WeatherAPIURL:    getEnv("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"),
		WeatherLatitude:  getEnvFloat("WEATHER_LATITUDE", 20.041264),
		WeatherLongitude: getEnvFloat("WEATHER_LONGITUDE", 73.85038),
		WeatherTimeout:   getEnvDuration("WEATHER_TIMEOUT", 10*time.Second),

		HTTPAddr:           getEnv("HTTP_ADDR", ":8080"),
		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:5173"}),

		MQTTBroker:      getEnv("MQTT_BROKER", ""),
		MQTTClientID:    getEnv("MQTT_CLIENT_ID", "citipulse"),
		MQTTUsername:    getEnv("MQTT_USERNAME", ""),
		MQTTPassword:    getEnv("MQTT_PASSWORD", ""),
		MQTTTopicPrefix: getEnv("MQTT_TOPIC_PREFIX", "citipulse"),

		RabbitMQURL:      getEnv("RABBITMQ_URL", ""),
		RabbitMQExchange: getEnv("RABBITMQ_EXCHANGE", "citipulse.alerts"),

		TelegramBotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID:   getEnv("TELEGRAM_CHAT_ID", ""),

		AlertWebhookURL: getEnv("ALERT_WEBHOOK_URL", ""),

		FirebaseDbUrl:              getEnv("FIREBASE_DB_URL", ""),
		FirebaseServiceAccountJSON: getEnv("FIREBASE_SERVICE_ACCOUNT_JSON", ""),
		FirebaseBatchSize:          getEnvInt("FIREBASE_BATCH_SIZE", 50),
		FirebaseBatchTimeout:       getEnvDuration("FIREBASE_BATCH_TIMEOUT", 30*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return config, nil
}

// Validate rejects settings the simulation cannot run with
func (c *Config) Validate() error {
	var errs []error

	if c.SensorTickInterval <= 0 || c.WeatherRefreshInterval <= 0 || c.ObjectTickInterval <= 0 {
		errs = append(errs, errors.New("tick intervals must be positive"))
	}
	if c.HistoryCapacity <= 0 || c.SensorAlertCapacity <= 0 || c.GlobalAlertCapacity <= 0 {
		errs = append(errs, errors.New("buffer capacities must be positive"))
	}
	if c.GlowWindow <= 0 {
		errs = append(errs, errors.New("glow window must be positive"))
	}

	t := c.Thresholds
	for name, b := range map[string]models.Band{"temperature": t.Temperature, "aqi": t.AQI, "co2": t.CO2} {
		if b.Warning > b.Critical {
			errs = append(errs, fmt.Errorf("%s warning threshold %.2f exceeds critical %.2f", name, b.Warning, b.Critical))
		}
	}
	h := t.Humidity
	if !(h.CriticalLow <= h.WarningLow && h.WarningLow < h.WarningHigh && h.WarningHigh <= h.CriticalHigh) {
		errs = append(errs, errors.New("humidity bands must satisfy critical_low <= warning_low < warning_high <= critical_high"))
	}

	if c.FirebaseDbUrl != "" && c.FirebaseBatchSize <= 0 {
		errs = append(errs, errors.New("firebase batch size must be positive"))
	}

	return errors.Join(errs...)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(strings.TrimSpace(value)); err == nil {
			return i
		}
	}
	return defaultValue
}

// getEnvDuration accepts Go duration strings ("10s") or bare seconds ("10")
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	if secs, err := strconv.ParseFloat(value, 64); err == nil {
		return time.Duration(secs * float64(time.Second))
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
