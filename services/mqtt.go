package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"citipulse/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

// mqttPublishTimeout bounds the wait for a single broker acknowledgement
const mqttPublishTimeout = 5 * time.Second

// tokenPublisher is the publishing half of mqtt.Client
type tokenPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTPublisher mirrors readings and alerts onto MQTT topics under a common prefix
type MQTTPublisher struct {
	client tokenPublisher
	prefix string
	logger *zap.Logger
}

// ReadingMessage is the payload published on <prefix>/readings/<sensor_id>
type ReadingMessage struct {
	SensorID int `json:"sensor_id"`
	models.SensorReading
}

// NewMQTTClient connects to the broker with auto-reconnect enabled
func NewMQTTClient(broker, clientID, username, password string, logger *zap.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", broker))
	opts.SetClientID(clientID)
	opts.SetUsername(username)
	opts.SetPassword(password)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", broker))
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Error("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	return client, nil
}

func NewMQTTPublisher(client tokenPublisher, prefix string, logger *zap.Logger) *MQTTPublisher {
	return &MQTTPublisher{
		client: client,
		prefix: prefix,
		logger: logger,
	}
}

func (p *MQTTPublisher) Name() string { return "mqtt" }

func (p *MQTTPublisher) ReadingTopic(sensorID int) string {
	return fmt.Sprintf("%s/readings/%d", p.prefix, sensorID)
}

func (p *MQTTPublisher) AlertTopic() string {
	return p.prefix + "/alerts"
}

// Publish sends every reading in sensor id order, then every alert
func (p *MQTTPublisher) Publish(ctx context.Context, report models.TickReport) error {
	ids := make([]int, 0, len(report.Readings))
	for id := range report.Readings {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		msg := ReadingMessage{SensorID: id, SensorReading: report.Readings[id]}
		if err := p.send(ctx, p.ReadingTopic(id), msg); err != nil {
			return err
		}
	}
	for _, a := range report.Alerts {
		if err := p.send(ctx, p.AlertTopic(), a); err != nil {
			return err
		}
	}

	p.logger.Debug("Published tick to MQTT",
		zap.Int("reading_count", len(ids)),
		zap.Int("alert_count", len(report.Alerts)))
	return nil
}

func (p *MQTTPublisher) send(ctx context.Context, topic string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal payload for %s: %w", topic, err)
	}

	token := p.client.Publish(topic, 1, false, payload)
	if !token.WaitTimeout(mqttPublishTimeout) {
		return fmt.Errorf("timed out publishing to %s", topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}
