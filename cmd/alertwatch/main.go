package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"citipulse/models"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"
)

var (
	mqttBroker  = flag.String("broker", "localhost:1883", "MQTT broker address (host:port)")
	mqttUser    = flag.String("user", "", "MQTT username")
	mqttPass    = flag.String("pass", "", "MQTT password")
	topicPrefix = flag.String("prefix", "citipulse", "Topic prefix used by the simulator")
	onlyCrit    = flag.Bool("critical", false, "Print critical alerts only")
	withReads   = flag.Bool("readings", false, "Also print every reading")
)

func main() {
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", *mqttBroker))
	opts.SetClientID(fmt.Sprintf("citipulse-alertwatch-%d", os.Getpid()))
	opts.SetUsername(*mqttUser)
	opts.SetPassword(*mqttPass)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetAutoReconnect(true)

	alertCount, criticalCount := 0, 0

	alertHandler := func(_ mqtt.Client, msg mqtt.Message) {
		var alert models.Alert
		if err := json.Unmarshal(msg.Payload(), &alert); err != nil {
			logger.Warn("Malformed alert payload", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		alertCount++
		if alert.IsCritical() {
			criticalCount++
		} else if *onlyCrit {
			return
		}
		fmt.Printf("%s %s %s #%d %-11s %s %s (limit %s)\n",
			alert.Timestamp.Format("15:04:05"),
			alert.GetSeverityEmoji(),
			alert.GetParameterEmoji(),
			alert.SensorID,
			alert.Parameter,
			alert.SensorName,
			strconv.FormatFloat(alert.Value, 'f', -1, 64),
			strconv.FormatFloat(alert.Threshold, 'f', -1, 64))
	}

	readingHandler := func(_ mqtt.Client, msg mqtt.Message) {
		var reading struct {
			SensorID int `json:"sensor_id"`
			models.SensorReading
		}
		if err := json.Unmarshal(msg.Payload(), &reading); err != nil {
			logger.Warn("Malformed reading payload", zap.String("topic", msg.Topic()), zap.Error(err))
			return
		}
		fmt.Printf("%s    #%d temp=%.2f hum=%.2f aqi=%d co2=%d\n",
			reading.Timestamp.Format("15:04:05"), reading.SensorID,
			reading.Temperature, reading.Humidity, reading.AQI, reading.CO2)
	}

	// subscriptions are renewed on every (re)connect
	opts.OnConnect = func(client mqtt.Client) {
		logger.Info("Connected to MQTT broker", zap.String("broker", *mqttBroker))

		alertTopic := *topicPrefix + "/alerts"
		if token := client.Subscribe(alertTopic, 1, alertHandler); token.Wait() && token.Error() != nil {
			logger.Error("Failed to subscribe", zap.String("topic", alertTopic), zap.Error(token.Error()))
		}
		if *withReads {
			readingTopic := *topicPrefix + "/readings/+"
			if token := client.Subscribe(readingTopic, 0, readingHandler); token.Wait() && token.Error() != nil {
				logger.Error("Failed to subscribe", zap.String("topic", readingTopic), zap.Error(token.Error()))
			}
		}
	}
	opts.OnConnectionLost = func(client mqtt.Client, err error) {
		logger.Error("MQTT connection lost", zap.Error(err))
	}

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		logger.Fatal("Failed to connect to MQTT broker", zap.Error(token.Error()))
	}

	logger.Info("Watching alerts, press Ctrl+C to stop", zap.String("prefix", *topicPrefix))

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	client.Disconnect(250)
	logger.Info("Alert watcher stopped",
		zap.Int("alerts_seen", alertCount),
		zap.Int("critical_seen", criticalCount))
}
