package services

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"citipulse/models"
)

var (
	ErrUnknownSensor    = errors.New("unknown sensor")
	ErrInvalidTimeRange = errors.New("invalid analytics time range")
	ErrInvalidMapMode   = errors.New("invalid map mode")
)

// TimeRange filters the analytics view
type TimeRange string

const (
	RangeLastHour TimeRange = "1h"
	RangeLast6h   TimeRange = "6h"
	RangeLast24h  TimeRange = "24h"
	RangeAll      TimeRange = "all"
)

const (
	defaultRange             = RangeLastHour
	defaultAnalyticsSensorID = 1
)

// ParseTimeRange validates a range name
func ParseTimeRange(s string) (TimeRange, error) {
	switch r := TimeRange(strings.ToLower(strings.TrimSpace(s))); r {
	case RangeLastHour, RangeLast6h, RangeLast24h, RangeAll:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeRange, s)
	}
}

// Window returns the lookback span, zero meaning unbounded
func (r TimeRange) Window() time.Duration {
	switch r {
	case RangeLastHour:
		return time.Hour
	case RangeLast6h:
		return 6 * time.Hour
	case RangeLast24h:
		return 24 * time.Hour
	default:
		return 0
	}
}

// MapMode is the display mode of the map view
type MapMode string

const (
	MapModeStreets       MapMode = "streets"
	MapModeSatellite     MapMode = "satellite"
	MapMode3D            MapMode = "3d"
	MapModeEnvironmental MapMode = "environmental"
)

// ParseMapMode validates a map mode name
func ParseMapMode(s string) (MapMode, error) {
	switch m := MapMode(strings.ToLower(strings.TrimSpace(s))); m {
	case MapModeStreets, MapModeSatellite, MapMode3D, MapModeEnvironmental:
		return m, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidMapMode, s)
	}
}

// StoreOptions sets the buffer capacities
type StoreOptions struct {
	HistoryCapacity     int
	SensorAlertCapacity int
	GlobalAlertCapacity int
}

// DefaultStoreOptions returns the standard capacities (100 / 10 / 50)
func DefaultStoreOptions() StoreOptions {
	return StoreOptions{HistoryCapacity: 100, SensorAlertCapacity: 10, GlobalAlertCapacity: 50}
}

// agentState tracks one animated object along its path
type agentState struct {
	pathIdx    int
	segmentIdx int
	progress   float64
	kind       models.ObjectKind
}

// Store owns all mutable simulation state. Writers hold mu for a whole tick;
// readers take copies under the read lock so they never see a half-applied tick.
type Store struct {
	mu   sync.RWMutex
	opts StoreOptions

	sensorOrder []int
	sensors     map[int]*models.Sensor
	zoneOrder   []string
	zones       map[string]*models.Zone
	alerts      []models.Alert

	agents  []agentState
	objects []models.MovingObject

	weather     models.Weather
	lastUpdated time.Time

	analyticsSensorID int
	analyticsRange    TimeRange
	mapMode           MapMode
	demoMode          bool
}

func NewStore(opts StoreOptions) *Store {
	return &Store{
		opts:              opts,
		sensors:           make(map[int]*models.Sensor),
		zones:             make(map[string]*models.Zone),
		analyticsSensorID: defaultAnalyticsSensorID,
		analyticsRange:    defaultRange,
		mapMode:           MapModeStreets,
	}
}

// initLocked populates sensors, zones and agents once. Existing state is left untouched.
func (s *Store) initLocked(newAgent func(i int) agentState) {
	if len(s.sensors) == 0 {
		for _, entry := range SensorRegistry {
			s.sensors[entry.ID] = &models.Sensor{
				ID:       entry.ID,
				Name:     entry.Name,
				Category: entry.Category,
				Location: entry.Location,
				Readings: make([]models.SensorReading, 0, s.opts.HistoryCapacity),
				Color:    noDataColor,
			}
			s.sensorOrder = append(s.sensorOrder, entry.ID)
		}
	}
	if len(s.zones) == 0 {
		for _, z := range ZoneCatalog {
			zone := z.Clone()
			zone.Color = defaultZoneColor
			s.zones[zone.ID] = &zone
			s.zoneOrder = append(s.zoneOrder, zone.ID)
		}
	}
	if len(s.agents) == 0 && newAgent != nil {
		for i := 0; i < agentCount; i++ {
			s.agents = append(s.agents, newAgent(i))
		}
	}
}

// appendReadingLocked adds r to the sensor history, evicting the oldest entry beyond capacity
func (s *Store) appendReadingLocked(sensor *models.Sensor, r models.SensorReading) {
	sensor.Readings = append(sensor.Readings, r)
	if over := len(sensor.Readings) - s.opts.HistoryCapacity; over > 0 {
		copy(sensor.Readings, sensor.Readings[over:])
		sensor.Readings = sensor.Readings[:s.opts.HistoryCapacity]
	}
}

func (s *Store) pushAlertLocked(sensor *models.Sensor, a models.Alert) {
	s.alerts = pushFront(s.alerts, a, s.opts.GlobalAlertCapacity)
	sensor.Alerts = pushFront(sensor.Alerts, a, s.opts.SensorAlertCapacity)
}

// Snapshot is a consistent, deep-copied view of the store
type Snapshot struct {
	Sensors           []models.Sensor
	Zones             []models.Zone
	Alerts            []models.Alert
	Objects           []models.MovingObject
	Weather           models.Weather
	LastUpdated       time.Time
	AnalyticsSensorID int
	AnalyticsRange    TimeRange
	MapMode           MapMode
	DemoMode          bool
}

// Snapshot copies the full state under the read lock
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Sensors:           make([]models.Sensor, 0, len(s.sensorOrder)),
		Zones:             make([]models.Zone, 0, len(s.zoneOrder)),
		Alerts:            append([]models.Alert(nil), s.alerts...),
		Objects:           append([]models.MovingObject(nil), s.objects...),
		Weather:           s.weather,
		LastUpdated:       s.lastUpdated,
		AnalyticsSensorID: s.analyticsSensorID,
		AnalyticsRange:    s.analyticsRange,
		MapMode:           s.mapMode,
		DemoMode:          s.demoMode,
	}
	for _, id := range s.sensorOrder {
		snap.Sensors = append(snap.Sensors, s.sensors[id].Clone())
	}
	for _, id := range s.zoneOrder {
		snap.Zones = append(snap.Zones, s.zones[id].Clone())
	}
	return snap
}

// Sensors returns copies of every sensor in registry order
func (s *Store) Sensors() []models.Sensor {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Sensor, 0, len(s.sensorOrder))
	for _, id := range s.sensorOrder {
		out = append(out, s.sensors[id].Clone())
	}
	return out
}

// Sensor returns a copy of one sensor
func (s *Store) Sensor(id int) (models.Sensor, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sensor, ok := s.sensors[id]
	if !ok {
		return models.Sensor{}, false
	}
	return sensor.Clone(), true
}

func (s *Store) Zones() []models.Zone {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Zone, 0, len(s.zoneOrder))
	for _, id := range s.zoneOrder {
		out = append(out, s.zones[id].Clone())
	}
	return out
}

// Alerts returns the global feed, newest first
func (s *Store) Alerts() []models.Alert {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Alert(nil), s.alerts...)
}

func (s *Store) MovingObjects() []models.MovingObject {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.MovingObject(nil), s.objects...)
}

func (s *Store) Weather() models.Weather {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.weather
}

// SetWeather replaces the ambient weather values
func (s *Store) SetWeather(w models.Weather) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.weather = w
}

// HistoryLen returns the total number of readings held across all sensors
func (s *Store) HistoryLen() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := 0
	for _, sensor := range s.sensors {
		total += len(sensor.Readings)
	}
	return total
}
