package models

// Zone is a named campus sub-area rolled up from its member sensors
type Zone struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Polygon   []Coordinates `json:"polygon"`
	SensorIDs []int         `json:"sensors"`
	AvgAQI    int           `json:"avg_aqi"`
	AvgTemp   float64       `json:"avg_temp"`
	Color     string        `json:"color"`
}

// Clone returns a deep copy
func (z *Zone) Clone() Zone {
	c := *z
	c.Polygon = append([]Coordinates(nil), z.Polygon...)
	c.SensorIDs = append([]int(nil), z.SensorIDs...)
	return c
}

// ObjectKind distinguishes animated agents
type ObjectKind string

const (
	ObjectPerson  ObjectKind = "person"
	ObjectVehicle ObjectKind = "vehicle"
)

// MovingObject is the rendered position of an animated agent
type MovingObject struct {
	ID    int        `json:"id"`
	Lat   float64    `json:"lat"`
	Lng   float64    `json:"lng"`
	Type  ObjectKind `json:"type"`
	Color string     `json:"color"`
}
