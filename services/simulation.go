package services

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"citipulse/models"

	"go.uber.org/zap"
)

// demoSensorID is the sensor that receives the synthetic demo alert
const demoSensorID = 1

// SimulationOptions configures the scheduler and its collaborators
type SimulationOptions struct {
	SensorTickInterval     time.Duration
	WeatherRefreshInterval time.Duration
	ObjectTickInterval     time.Duration
	WeatherTimeout         time.Duration
	GlowWindow             time.Duration
	Thresholds             models.Thresholds
	Store                  StoreOptions

	// Rand drives reading noise and agent path choice. Nil seeds from the clock.
	Rand *rand.Rand
	// Clock returns the current time. Nil uses time.Now.
	Clock func() time.Time
}

// DefaultSimulationOptions mirrors the stock configuration
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		SensorTickInterval:     10 * time.Second,
		WeatherRefreshInterval: 300 * time.Second,
		ObjectTickInterval:     time.Second,
		WeatherTimeout:         10 * time.Second,
		GlowWindow:             60 * time.Second,
		Thresholds:             models.DefaultThresholds(),
		Store:                  DefaultStoreOptions(),
	}
}

// Simulation drives the three periodic tasks against a single Store and exposes
// the commands and queries used by the presentation layer
type Simulation struct {
	opts       SimulationOptions
	store      *Store
	generator  *ReadingGenerator
	evaluator  *AlertEvaluator
	weather    WeatherProvider
	dispatcher *Dispatcher
	logger     *zap.Logger
	clock      func() time.Time
	rng        *rand.Rand

	lifecycle sync.Mutex
	running   atomic.Bool
	stopCh    chan struct{}
	wg        sync.WaitGroup
}

// NewSimulation wires a simulation. weather and dispatcher may be nil.
func NewSimulation(opts SimulationOptions, weather WeatherProvider, dispatcher *Dispatcher, logger *zap.Logger) *Simulation {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Simulation{
		opts:       opts,
		store:      NewStore(opts.Store),
		generator:  NewReadingGenerator(rng),
		evaluator:  NewAlertEvaluator(opts.Thresholds),
		weather:    weather,
		dispatcher: dispatcher,
		logger:     logger,
		clock:      clock,
		rng:        rng,
	}
}

// Store exposes the underlying state store for read-only consumers
func (s *Simulation) Store() *Store {
	return s.store
}

// Initialize creates sensors, zones and agents if they do not exist yet
func (s *Simulation) Initialize() {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.initLocked(newAgentFactory(s.rng))
}

// Start launches the sensor, weather and animation tasks. Calling it while the
// simulation is running does nothing and returns false.
func (s *Simulation) Start(ctx context.Context) bool {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if s.running.Load() {
		return false
	}
	// tasks from a previous run exit as soon as they see the closed stop channel
	s.wg.Wait()

	s.Initialize()
	s.stopCh = make(chan struct{})
	s.running.Store(true)

	s.logger.Info("Simulation started",
		zap.Duration("sensor_interval", s.opts.SensorTickInterval),
		zap.Duration("weather_interval", s.opts.WeatherRefreshInterval),
		zap.Duration("object_interval", s.opts.ObjectTickInterval))

	s.wg.Add(2)
	go s.runTask(ctx, "sensor-tick", s.opts.SensorTickInterval, s.stopCh, func(context.Context) { s.SensorTick() })
	go s.runTask(ctx, "object-tick", s.opts.ObjectTickInterval, s.stopCh, func(context.Context) { s.ObjectTick() })
	if s.weather != nil {
		s.wg.Add(1)
		go s.runTask(ctx, "weather-refresh", s.opts.WeatherRefreshInterval, s.stopCh, func(c context.Context) { _ = s.RefreshWeather(c) })
	}
	return true
}

// Stop clears the running flag. Each task finishes its current iteration and exits.
func (s *Simulation) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	if !s.running.Swap(false) {
		return
	}
	close(s.stopCh)
	s.logger.Info("Simulation stop requested")
}

// Wait blocks until every task has exited
func (s *Simulation) Wait() {
	s.wg.Wait()
}

func (s *Simulation) IsRunning() bool {
	return s.running.Load()
}

// runTask repeats body every interval while the simulation is running. The flag
// is checked once per iteration; a body in progress always completes. Cancelling
// ctx clears the flag.
func (s *Simulation) runTask(ctx context.Context, name string, interval time.Duration, stop <-chan struct{}, body func(context.Context)) {
	defer s.wg.Done()

	logger := s.logger.With(zap.String("task", name))
	logger.Info("Task started", zap.Duration("interval", interval))
	defer logger.Info("Task stopped")

	timer := time.NewTimer(interval)
	defer timer.Stop()

	for s.running.Load() {
		body(ctx)

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(interval)

		select {
		case <-ctx.Done():
			// the run is over for every task; a new Start waits on wg before setting the flag again
			if s.running.CompareAndSwap(true, false) {
				logger.Info("Run context cancelled, simulation stopped")
			}
			return
		case <-stop:
		case <-timer.C:
		}
	}
}

// SensorTick runs one full sensor update inside a single write section: a reading
// per sensor, alert evaluation, history append, glow, forecast and color, then the
// zone rollup once every sensor is done.
func (s *Simulation) SensorTick() models.TickReport {
	now := s.clock().UTC()
	report := models.TickReport{
		Timestamp: now,
		Readings:  make(map[int]models.SensorReading),
	}

	s.store.mu.Lock()
	for _, id := range s.store.sensorOrder {
		sensor := s.store.sensors[id]
		reading, alerts, err := s.updateSensorLocked(sensor, now)
		if err != nil {
			s.logger.Error("Sensor update failed, keeping previous state",
				zap.Int("sensor_id", sensor.ID),
				zap.String("sensor_name", sensor.Name),
				zap.Error(err))
			continue
		}
		report.Readings[id] = reading
		report.Alerts = append(report.Alerts, alerts...)
	}
	for _, id := range s.store.zoneOrder {
		RollupZone(s.store.zones[id], s.store.sensors)
	}
	s.store.lastUpdated = now
	s.store.mu.Unlock()

	if len(report.Alerts) > 0 {
		s.logger.Info("Alerts raised",
			zap.Int("alert_count", len(report.Alerts)),
			zap.Int("critical_count", CountCritical(report.Alerts)))
	}
	if s.dispatcher != nil {
		s.dispatcher.Submit(report)
	}
	return report
}

func (s *Simulation) updateSensorLocked(sensor *models.Sensor, now time.Time) (reading models.SensorReading, alerts []models.Alert, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sensor %d update panicked: %v", sensor.ID, r)
		}
	}()

	reading = s.generator.Generate(now, sensor.Name)
	alerts = s.applyReadingLocked(sensor, reading, now)
	return reading, alerts, nil
}

// applyReadingLocked evaluates alerts for r, appends it and refreshes every
// derived field of the sensor so none of them lags the new reading
func (s *Simulation) applyReadingLocked(sensor *models.Sensor, r models.SensorReading, now time.Time) []models.Alert {
	alerts := s.evaluator.Raise(s.store, sensor, r, now)
	s.store.appendReadingLocked(sensor, r)

	sensor.IsGlowing = s.isGlowing(sensor, now)

	if len(sensor.Readings) > MinForecastHistory {
		fc, err := EstimateForecast(sensor.Readings)
		if err != nil {
			s.logger.Warn("Forecast skipped",
				zap.Int("sensor_id", sensor.ID),
				zap.Error(err))
		} else {
			sensor.PredictedTemp = fc.Temperature
			sensor.PredictedAQI = fc.AQI
		}
	}

	sensor.Color = SensorColor(sensor, s.store.mapMode)
	return alerts
}

// isGlowing is true when the newest alert is critical and younger than the glow window
func (s *Simulation) isGlowing(sensor *models.Sensor, now time.Time) bool {
	if len(sensor.Alerts) == 0 {
		return false
	}
	latest := sensor.Alerts[0]
	return latest.IsCritical() && now.Sub(latest.Timestamp) < s.opts.GlowWindow
}

// ObjectTick advances every animated agent by one step
func (s *Simulation) ObjectTick() {
	s.store.mu.Lock()
	defer s.store.mu.Unlock()
	s.store.advanceObjectsLocked(s.rng)
}

// RefreshWeather fetches ambient conditions outside the state lock and stores them
// on success. On failure the previous values are kept.
func (s *Simulation) RefreshWeather(ctx context.Context) error {
	if s.weather == nil {
		return nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, s.opts.WeatherTimeout)
	defer cancel()

	w, err := s.weather.Current(fetchCtx)
	if err != nil {
		s.logger.Warn("Weather refresh failed, keeping previous values", zap.Error(err))
		return err
	}
	if w.FetchedAt.IsZero() {
		w.FetchedAt = s.clock().UTC()
	}
	s.store.SetWeather(w)

	s.logger.Debug("Weather refreshed",
		zap.Float64("temperature", w.Temperature),
		zap.Float64("humidity", w.Humidity))
	return nil
}
