package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"citipulse/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleReport() models.TickReport {
	return models.TickReport{
		Timestamp: noonUTC,
		Readings: map[int]models.SensorReading{
			2: {Timestamp: noonUTC, Temperature: 30, Humidity: 50, AQI: 80, CO2: 600},
			1: {Timestamp: noonUTC, Temperature: 38.5, Humidity: 45, AQI: 155, CO2: 1300},
		},
		Alerts: []models.Alert{
			{ID: "a1", SensorID: 1, SensorName: "Main Gate", Parameter: models.ParamTemperature, Value: 38.5, Threshold: 37, Level: models.SeverityCritical, Timestamp: noonUTC},
			{ID: "a2", SensorID: 2, SensorName: "Canteen", Parameter: models.ParamCO2, Value: 950, Threshold: 900, Level: models.SeverityWarning, Timestamp: noonUTC},
			{ID: "a3", SensorID: 1, SensorName: "Main Gate", Parameter: models.ParamAQI, Value: 155, Threshold: 150, Level: models.SeverityCritical, Timestamp: noonUTC},
		},
	}
}

type fakeToken struct {
	err error
}

func (t *fakeToken) Wait() bool                     { return true }
func (t *fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t *fakeToken) Error() error                   { return t.err }
func (t *fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type fakeMQTT struct {
	err      error
	topics   []string
	payloads [][]byte
}

func (f *fakeMQTT) Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token {
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload.([]byte))
	return &fakeToken{err: f.err}
}

func TestMQTTPublisherTopicsAndOrder(t *testing.T) {
	client := &fakeMQTT{}
	p := NewMQTTPublisher(client, "citipulse", zap.NewNop())

	require.NoError(t, p.Publish(context.Background(), sampleReport()))

	assert.Equal(t, []string{
		"citipulse/readings/1",
		"citipulse/readings/2",
		"citipulse/alerts",
		"citipulse/alerts",
		"citipulse/alerts",
	}, client.topics)

	var msg ReadingMessage
	require.NoError(t, json.Unmarshal(client.payloads[0], &msg))
	assert.Equal(t, 1, msg.SensorID)
	assert.Equal(t, 155, msg.AQI)
}

func TestMQTTPublisherStopsOnBrokerError(t *testing.T) {
	client := &fakeMQTT{err: errors.New("not connected")}
	p := NewMQTTPublisher(client, "citipulse", zap.NewNop())

	err := p.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "citipulse/readings/1")
	assert.Len(t, client.topics, 1)
}

type fakeChannel struct {
	keys []string
	msgs []amqp.Publishing
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.msgs = append(f.msgs, msg)
	return nil
}

func TestRabbitMQRoutesAlertsByLevel(t *testing.T) {
	ch := &fakeChannel{}
	r := newRabbitMQPublisher(ch, "citipulse.alerts", zap.NewNop())

	require.NoError(t, r.Publish(context.Background(), sampleReport()))

	assert.Equal(t, []string{"critical", "warning", "critical"}, ch.keys)
	assert.Equal(t, "a1", ch.msgs[0].MessageId)
	assert.Equal(t, amqp.Persistent, ch.msgs[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.msgs[0].ContentType)

	var alert models.Alert
	require.NoError(t, json.Unmarshal(ch.msgs[1].Body, &alert))
	assert.Equal(t, models.ParamCO2, alert.Parameter)
}

type fakeBot struct {
	texts []string
}

func (f *fakeBot) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.texts = append(f.texts, msg.Text)
	}
	return tgbotapi.Message{}, nil
}

func TestTelegramGroupsAndThrottlesPerSensor(t *testing.T) {
	bot := &fakeBot{}
	clock := newFakeClock(noonUTC)
	ts := newTelegramService(bot, 42, clock.Now, zap.NewNop())

	report := sampleReport()
	require.NoError(t, ts.Publish(context.Background(), report))

	// only sensor 1 raised critical alerts; both land in one message
	require.Len(t, bot.texts, 1)
	assert.Contains(t, bot.texts[0], "CITIPULSE CRITICAL ALERT")
	assert.Contains(t, bot.texts[0], "Main Gate")
	assert.Contains(t, bot.texts[0], "TEMPERATURE")
	assert.Contains(t, bot.texts[0], "AQI")
	assert.NotContains(t, bot.texts[0], "Canteen")

	clock.Advance(10 * time.Second)
	require.NoError(t, ts.Publish(context.Background(), report))
	assert.Len(t, bot.texts, 1)

	clock.Advance(6 * time.Second)
	require.NoError(t, ts.Publish(context.Background(), report))
	assert.Len(t, bot.texts, 2)
}

func TestTelegramIgnoresWarnings(t *testing.T) {
	bot := &fakeBot{}
	ts := newTelegramService(bot, 42, newFakeClock(noonUTC).Now, zap.NewNop())

	report := sampleReport()
	report.Alerts = report.Alerts[1:2]
	require.NoError(t, ts.Publish(context.Background(), report))
	assert.Empty(t, bot.texts)
}

type fakeBatchStore struct {
	mu      sync.Mutex
	batches [][]models.ArchivedReading
}

func (f *fakeBatchStore) WriteBatch(ctx context.Context, batch []models.ArchivedReading) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.batches = append(f.batches, batch)
	return nil
}

func (f *fakeBatchStore) sizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]int, 0, len(f.batches))
	for _, b := range f.batches {
		out = append(out, len(b))
	}
	return out
}

func TestBatchWriterFlushesFullBatchesAndRemainderOnShutdown(t *testing.T) {
	store := &fakeBatchStore{}
	bw := NewBatchWriterService(store, 3, time.Hour, zap.NewNop())

	readings := make(map[int]models.SensorReading)
	for id := 1; id <= 5; id++ {
		readings[id] = models.SensorReading{Timestamp: noonUTC, AQI: id * 10}
	}
	require.NoError(t, bw.Publish(context.Background(), models.TickReport{Readings: readings}))

	ctx, cancel := context.WithCancel(context.Background())
	go bw.Start(ctx)

	require.Eventually(t, func() bool { return len(store.sizes()) == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	require.True(t, bw.WaitForShutdown(time.Second))

	assert.Equal(t, []int{3, 2}, store.sizes())
	assert.Equal(t, 1, store.batches[0][0].SensorID)
	assert.Equal(t, 5, store.batches[1][1].SensorID)
	assert.Zero(t, bw.GetBufferSize())
}

func TestWebhookSendsCriticalAlertsOnly(t *testing.T) {
	var (
		mu      sync.Mutex
		payload WebhookPayload
		hits    int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		hits++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer server.Close()

	hook := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	require.NoError(t, hook.Publish(context.Background(), sampleReport()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, hits)
	assert.Equal(t, "critical", payload.Severity)
	assert.Equal(t, "environment_threshold", payload.AlertType)
	require.Len(t, payload.Alerts, 2)
	assert.Equal(t, "a1", payload.Alerts[0].ID)
	assert.Equal(t, "a3", payload.Alerts[1].ID)
}

func TestWebhookSkipsTicksWithoutCriticalAlerts(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
	}))
	defer server.Close()

	hook := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	report := sampleReport()
	report.Alerts = report.Alerts[1:2]

	require.NoError(t, hook.Publish(context.Background(), report))
	assert.Zero(t, hits)
}

func TestWebhookReportsServerErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	hook := NewWebhookNotifier(server.URL, time.Second, zap.NewNop())
	err := hook.Publish(context.Background(), sampleReport())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func TestOpenMeteoProviderParsesCurrentConditions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "20.041974", q.Get("latitude"))
		assert.Equal(t, "73.849924", q.Get("longitude"))
		assert.Equal(t, "temperature_2m,relative_humidity_2m", q.Get("current"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"current":{"time":"2025-03-14T12:00","temperature_2m":31.4,"relative_humidity_2m":48}}`)
	}))
	defer server.Close()

	p := NewOpenMeteoProvider(server.URL, 20.041974, 73.849924, time.Second, zap.NewNop())
	w, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 31.4, w.Temperature)
	assert.Equal(t, 48.0, w.Humidity)
	assert.False(t, w.FetchedAt.IsZero())
}

func TestOpenMeteoProviderErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.URL.RawQuery, "latitude=0.000000") {
			_, _ = io.WriteString(w, `not json`)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	_, err := NewOpenMeteoProvider(server.URL, 1, 1, time.Second, zap.NewNop()).Current(context.Background())
	assert.Error(t, err)

	_, err = NewOpenMeteoProvider(server.URL, 0, 0, time.Second, zap.NewNop()).Current(context.Background())
	assert.Error(t, err)
}

type fakeSummaryWriter struct {
	written []models.CampusSummary
}

func (f *fakeSummaryWriter) WriteSummary(ctx context.Context, summary models.CampusSummary) error {
	f.written = append(f.written, summary)
	return nil
}

func TestSummarySinkWritesFreshSummary(t *testing.T) {
	clock := newFakeClock(noonUTC)
	sim := newTestSimulation(t, clock)
	sim.Initialize()
	sim.SensorTick()

	writer := &fakeSummaryWriter{}
	sink := NewSummarySink(sim.Campus, writer)

	require.NoError(t, sink.Publish(context.Background(), models.TickReport{}))
	require.Len(t, writer.written, 1)
	assert.Equal(t, sim.Campus(), writer.written[0])
}
