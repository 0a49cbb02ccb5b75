package services

import (
	"context"
	"fmt"
	"time"

	"citipulse/models"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// WebhookNotifier posts critical alerts to an external HTTP endpoint
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// WebhookPayload is the body sent for each tick that raised critical alerts
type WebhookPayload struct {
	Timestamp time.Time      `json:"timestamp"`
	Severity  string         `json:"severity"`
	AlertType string         `json:"alert_type"`
	Alerts    []models.Alert `json:"alerts"`
}

func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("User-Agent", "CitiPulse-Simulator/1.0")

	return &WebhookNotifier{
		client: client,
		url:    url,
		logger: logger,
	}
}

func (w *WebhookNotifier) Name() string { return "webhook" }

// Publish sends the critical subset of the report's alerts, if any
func (w *WebhookNotifier) Publish(ctx context.Context, report models.TickReport) error {
	var critical []models.Alert
	for _, a := range report.Alerts {
		if a.IsCritical() {
			critical = append(critical, a)
		}
	}
	if len(critical) == 0 {
		return nil
	}

	payload := WebhookPayload{
		Timestamp: report.Timestamp,
		Severity:  string(models.SeverityCritical),
		AlertType: "environment_threshold",
		Alerts:    critical,
	}

	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(payload).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("failed to send webhook alert: %w", err)
	}
	if resp.IsError() {
		w.logger.Error("Alert webhook returned error",
			zap.Int("status_code", resp.StatusCode()),
			zap.String("status", resp.Status()))
		return fmt.Errorf("alert webhook error: %s", resp.Status())
	}

	w.logger.Info("Webhook alert sent",
		zap.Int("alert_count", len(critical)),
		zap.Int("status_code", resp.StatusCode()))
	return nil
}
