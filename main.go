package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"citipulse/api"
	"citipulse/config"
	"citipulse/log"
	"citipulse/models"
	"citipulse/services"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

func main() {
	logger := log.GetInstance()
	defer logger.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// sinks read the campus summary through sim, which is assigned below
	var sim *services.Simulation
	campus := func() models.CampusSummary { return sim.Campus() }

	hub := api.NewHub(campus, logger)
	sinks := []services.Sink{hub}

	var mqttClient mqtt.Client
	if cfg.MQTTBroker != "" {
		mqttClient, err = services.NewMQTTClient(cfg.MQTTBroker, cfg.MQTTClientID, cfg.MQTTUsername, cfg.MQTTPassword, logger)
		if err != nil {
			logger.Fatal("Failed to initialize MQTT publisher", zap.Error(err))
		}
		sinks = append(sinks, services.NewMQTTPublisher(mqttClient, cfg.MQTTTopicPrefix, logger))
		logger.Info("MQTT publisher enabled", zap.String("topic_prefix", cfg.MQTTTopicPrefix))
	}

	var rabbitService *services.RabbitMQService
	if cfg.RabbitMQURL != "" {
		rabbitService, err = services.NewRabbitMQService(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
		if err != nil {
			logger.Fatal("Failed to initialize RabbitMQ publisher", zap.Error(err))
		}
		sinks = append(sinks, rabbitService)
	}

	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		telegramService, err := services.NewTelegramService(cfg.TelegramBotToken, cfg.TelegramChatID, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Telegram service", zap.Error(err))
		}
		if err := telegramService.SendStartupMessage(); err != nil {
			logger.Warn("Failed to send startup message", zap.Error(err))
		}
		sinks = append(sinks, telegramService)
	}

	if cfg.AlertWebhookURL != "" {
		sinks = append(sinks, services.NewWebhookNotifier(cfg.AlertWebhookURL, 10*time.Second, logger))
		logger.Info("Alert webhook enabled", zap.String("url", cfg.AlertWebhookURL))
	}

	var batchWriter *services.BatchWriterService
	if cfg.FirebaseDbUrl != "" && cfg.FirebaseServiceAccountJSON != "" {
		firebaseService, err := services.NewFirebaseService(ctx, cfg.FirebaseDbUrl, cfg.FirebaseServiceAccountJSON, logger)
		if err != nil {
			logger.Fatal("Failed to initialize Firebase service", zap.Error(err))
		}
		defer firebaseService.Close()

		batchWriter = services.NewBatchWriterService(firebaseService, cfg.FirebaseBatchSize, cfg.FirebaseBatchTimeout, logger)
		sinks = append(sinks, batchWriter, services.NewSummarySink(campus, firebaseService))
	}

	dispatcher := services.NewDispatcher(logger, 32, sinks...)

	var weather services.WeatherProvider
	if cfg.WeatherAPIURL != "" {
		weather = services.NewOpenMeteoProvider(cfg.WeatherAPIURL, cfg.WeatherLatitude, cfg.WeatherLongitude, cfg.WeatherTimeout, logger)
	}

	opts := services.DefaultSimulationOptions()
	opts.SensorTickInterval = cfg.SensorTickInterval
	opts.WeatherRefreshInterval = cfg.WeatherRefreshInterval
	opts.ObjectTickInterval = cfg.ObjectTickInterval
	opts.WeatherTimeout = cfg.WeatherTimeout
	opts.GlowWindow = cfg.GlowWindow
	opts.Thresholds = cfg.Thresholds
	opts.Store = services.StoreOptions{
		HistoryCapacity:     cfg.HistoryCapacity,
		SensorAlertCapacity: cfg.SensorAlertCapacity,
		GlobalAlertCapacity: cfg.GlobalAlertCapacity,
	}
	sim = services.NewSimulation(opts, weather, dispatcher, logger)

	go hub.Run(ctx)
	go dispatcher.Start(ctx)
	if batchWriter != nil {
		go batchWriter.Start(ctx)
	}

	handler := api.NewHandler(ctx, sim, hub, cfg.CORSAllowedOrigins, logger)
	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           api.WithCORS(api.NewRouter(handler), cfg.CORSAllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	sim.Start(ctx)

	logger.Info("CitiPulse simulator started",
		zap.Duration("sensor_interval", cfg.SensorTickInterval),
		zap.Duration("weather_interval", cfg.WeatherRefreshInterval),
		zap.Duration("object_interval", cfg.ObjectTickInterval),
		zap.Int("sink_count", len(sinks)),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan
	logger.Info("Shutdown signal received, stopping services")

	sim.Stop()
	sim.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}

	cancel()
	<-dispatcher.Done()

	if batchWriter != nil && !batchWriter.WaitForShutdown(15*time.Second) {
		logger.Warn("Batch writer shutdown timeout")
	}
	if rabbitService != nil {
		if err := rabbitService.Close(); err != nil {
			logger.Error("Error closing RabbitMQ", zap.Error(err))
		}
	}
	if mqttClient != nil {
		mqttClient.Disconnect(250)
	}

	logger.Info("CitiPulse simulator stopped")
}
