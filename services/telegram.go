package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"citipulse/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// telegramThrottle is the minimum gap between two messages about the same sensor
const telegramThrottle = 15 * time.Second

// botSender is the part of tgbotapi.BotAPI the notifier needs
type botSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramService struct {
	bot            botSender
	chatID         int64
	lastAlertTimes map[int]time.Time // last message time per sensor
	mu             sync.Mutex
	clock          func() time.Time
	logger         *zap.Logger
}

func NewTelegramService(token, chatID string, logger *zap.Logger) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}

	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing chat ID: %w", err)
	}

	logger.Info("Telegram bot authorized", zap.String("username", bot.Self.UserName))

	if err := testConnection(bot, logger); err != nil {
		logger.Error("Telegram connection test failed", zap.Error(err))
		return nil, fmt.Errorf("telegram connection test failed: %w", err)
	}

	return newTelegramService(bot, id, time.Now, logger), nil
}

func newTelegramService(bot botSender, chatID int64, clock func() time.Time, logger *zap.Logger) *TelegramService {
	return &TelegramService{
		bot:            bot,
		chatID:         chatID,
		lastAlertTimes: make(map[int]time.Time),
		clock:          clock,
		logger:         logger,
	}
}

// testConnection calls getMe with linear backoff
func testConnection(bot *tgbotapi.BotAPI, logger *zap.Logger) error {
	maxRetries := 3

	for attempt := 1; attempt <= maxRetries; attempt++ {
		logger.Info("Testing Telegram connection", zap.Int("attempt", attempt), zap.Int("max_retries", maxRetries))

		_, err := bot.GetMe()
		if err == nil {
			logger.Info("Telegram connection successful")
			return nil
		}

		logger.Warn("Telegram connection failed",
			zap.Int("attempt", attempt),
			zap.Int("max_retries", maxRetries),
			zap.Error(err))

		if attempt < maxRetries {
			time.Sleep(time.Duration(attempt) * time.Second)
		}
	}

	return fmt.Errorf("failed to connect to Telegram after %d attempts", maxRetries)
}

func (ts *TelegramService) Name() string { return "telegram" }

// Publish sends one message per sensor that raised critical alerts in the report,
// skipping sensors messaged within the throttle window
func (ts *TelegramService) Publish(ctx context.Context, report models.TickReport) error {
	bySensor := make(map[int][]models.Alert)
	var order []int
	for _, a := range report.Alerts {
		if !a.IsCritical() {
			continue
		}
		if _, seen := bySensor[a.SensorID]; !seen {
			order = append(order, a.SensorID)
		}
		bySensor[a.SensorID] = append(bySensor[a.SensorID], a)
	}

	var errs []string
	for _, sensorID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ts.SendCriticalAlert(sensorID, bySensor[sensorID], report.Readings[sensorID]); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("telegram delivery failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// SendCriticalAlert formats and sends the alerts of one sensor unless throttled
func (ts *TelegramService) SendCriticalAlert(sensorID int, alerts []models.Alert, reading models.SensorReading) error {
	if len(alerts) == 0 {
		return nil
	}

	now := ts.clock()
	if ts.shouldThrottle(sensorID, now) {
		ts.logger.Debug("Throttling alert", zap.Int("sensor_id", sensorID))
		return nil
	}

	msg := tgbotapi.NewMessage(ts.chatID, formatAlertMessage(alerts, reading))
	msg.ParseMode = "HTML"
	msg.DisableWebPagePreview = true

	if _, err := ts.bot.Send(msg); err != nil {
		return fmt.Errorf("error sending telegram message: %w", err)
	}

	ts.mu.Lock()
	ts.lastAlertTimes[sensorID] = now
	ts.mu.Unlock()

	ts.logger.Info("Sent critical alert",
		zap.Int("sensor_id", sensorID),
		zap.String("sensor_name", alerts[0].SensorName),
		zap.Int("alert_count", len(alerts)))
	return nil
}

func (ts *TelegramService) shouldThrottle(sensorID int, now time.Time) bool {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	last, ok := ts.lastAlertTimes[sensorID]
	if !ok {
		return false
	}
	return now.Sub(last) < telegramThrottle
}

func formatAlertMessage(alerts []models.Alert, reading models.SensorReading) string {
	var sb strings.Builder

	sb.WriteString("🚨 <b>CITIPULSE CRITICAL ALERT</b> 🚨\n\n")
	sb.WriteString(fmt.Sprintf("📍 <b>Sensor:</b> %s (#%d)\n", alerts[0].SensorName, alerts[0].SensorID))
	sb.WriteString(fmt.Sprintf("🕐 <b>Time:</b> %s\n\n", alerts[0].Timestamp.Format("2006-01-02 15:04:05")))

	if !reading.Timestamp.IsZero() {
		sb.WriteString("📊 <b>Current Readings:</b>\n")
		sb.WriteString(fmt.Sprintf("🌡️ Temperature: %.1f°C\n", reading.Temperature))
		sb.WriteString(fmt.Sprintf("💧 Humidity: %.1f%%\n", reading.Humidity))
		sb.WriteString(fmt.Sprintf("💨 AQI: %d\n", reading.AQI))
		sb.WriteString(fmt.Sprintf("🏭 CO2: %d ppm\n\n", reading.CO2))
	}

	sb.WriteString("⚠️ <b>Threshold Breaches:</b>\n")
	for _, a := range alerts {
		sb.WriteString(fmt.Sprintf("%s %s <b>%s</b> %s (limit %s)\n",
			a.GetSeverityEmoji(),
			a.GetParameterEmoji(),
			a.Parameter,
			strconv.FormatFloat(a.Value, 'f', -1, 64),
			strconv.FormatFloat(a.Threshold, 'f', -1, 64)))
	}

	sb.WriteString("\n🔴 <b>Status:</b> ATTENTION REQUIRED")
	return sb.String()
}

// SendStartupMessage announces that the simulator is up
func (ts *TelegramService) SendStartupMessage() error {
	message := "🟢 <b>CitiPulse Simulator Started</b>\n\n" +
		"📡 Sensor network online\n" +
		"🤖 Critical alert notifications active"

	msg := tgbotapi.NewMessage(ts.chatID, message)
	msg.ParseMode = "HTML"
	_, err := ts.bot.Send(msg)
	return err
}
