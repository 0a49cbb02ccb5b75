package main

import (
	"context"
	"encoding/csv"
	"flag"
	"os"
	"strconv"
	"time"

	"citipulse/config"
	"citipulse/services"

	"go.uber.org/zap"
)

var (
	sensorID = flag.Int("sensor", 0, "Sensor id to dump (0 = all sensors)")
	limit    = flag.Int("limit", 100, "Maximum number of archived readings")
	timeout  = flag.Duration("timeout", 30*time.Second, "Request timeout")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}
	if cfg.FirebaseDbUrl == "" || cfg.FirebaseServiceAccountJSON == "" {
		logger.Fatal("FIREBASE_DB_URL and FIREBASE_SERVICE_ACCOUNT_JSON must be set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	firebaseService, err := services.NewFirebaseService(ctx, cfg.FirebaseDbUrl, cfg.FirebaseServiceAccountJSON, logger)
	if err != nil {
		logger.Fatal("Failed to initialize Firebase service", zap.Error(err))
	}
	defer firebaseService.Close()

	readings, err := firebaseService.ReadArchive(ctx, *sensorID, *limit)
	if err != nil {
		logger.Fatal("Failed to read archive", zap.Error(err))
	}

	w := csv.NewWriter(os.Stdout)
	_ = w.Write([]string{"timestamp", "sensor_id", "temperature", "humidity", "aqi", "co2"})
	for _, r := range readings {
		_ = w.Write([]string{
			r.Timestamp.UTC().Format(time.RFC3339Nano),
			strconv.Itoa(r.SensorID),
			strconv.FormatFloat(r.Temperature, 'f', -1, 64),
			strconv.FormatFloat(r.Humidity, 'f', -1, 64),
			strconv.Itoa(r.AQI),
			strconv.Itoa(r.CO2),
		})
	}
	w.Flush()
	if err := w.Error(); err != nil {
		logger.Fatal("Failed to write output", zap.Error(err))
	}

	logger.Info("Archive dumped", zap.Int("sensor_id", *sensorID), zap.Int("count", len(readings)))
}
