package services

import "citipulse/models"

// SensorRegistry is the fixed set of monitored locations
var SensorRegistry = []models.SensorSpec{
	{ID: 1, Name: "Main Gate", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.041974, Lng: 73.849924}},
	{ID: 2, Name: "Canteen", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.040594, Lng: 73.850536}},
	{ID: 3, Name: "Meena Bhujbal School", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.040648, Lng: 73.851721}},
	{ID: 4, Name: "Engg. Building", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.040695, Lng: 73.84982}},
	{ID: 5, Name: "Mech. Building", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.039654, Lng: 73.849021}},
	{ID: 6, Name: "Ground", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.042238, Lng: 73.851231}},
	{ID: 7, Name: "Police Training Ground", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.042085, Lng: 73.848787}},
	{ID: 8, Name: "Institute of Pharmacy", Category: models.CategoryCampus, Location: models.Coordinates{Lat: 20.040741, Lng: 73.847402}},
	{ID: 9, Name: "Nearby Road", Category: models.CategoryNearby, Location: models.Coordinates{Lat: 20.040191, Lng: 73.853408}},
	{ID: 10, Name: "Highway Entrance", Category: models.CategoryNearby, Location: models.Coordinates{Lat: 19.997, Lng: 73.774}},
	{ID: 11, Name: "Residential Area", Category: models.CategoryNearby, Location: models.Coordinates{Lat: 20.0005, Lng: 73.771}},
	{ID: 12, Name: "Industrial Zone", Category: models.CategoryNearby, Location: models.Coordinates{Lat: 20.001, Lng: 73.7745}},
}

// ZoneCatalog lists the campus zones and their member sensors
var ZoneCatalog = []models.Zone{
	{
		ID: "main_gate", Name: "Main Gate", SensorIDs: []int{1},
		Polygon: []models.Coordinates{{Lat: 20.0422, Lng: 73.8497}, {Lat: 20.0422, Lng: 73.8502}, {Lat: 20.0417, Lng: 73.8502}, {Lat: 20.0417, Lng: 73.8497}},
	},
	{
		ID: "canteen", Name: "Canteen", SensorIDs: []int{2},
		Polygon: []models.Coordinates{{Lat: 20.0408, Lng: 73.8503}, {Lat: 20.0408, Lng: 73.8508}, {Lat: 20.0403, Lng: 73.8508}, {Lat: 20.0403, Lng: 73.8503}},
	},
	{
		ID: "engg_building", Name: "Engg. Building", SensorIDs: []int{4},
		Polygon: []models.Coordinates{{Lat: 20.0409, Lng: 73.8496}, {Lat: 20.0409, Lng: 73.8501}, {Lat: 20.0404, Lng: 73.8501}, {Lat: 20.0404, Lng: 73.8496}},
	},
	{
		ID: "ground", Name: "Ground", SensorIDs: []int{6},
		Polygon: []models.Coordinates{{Lat: 20.0425, Lng: 73.8509}, {Lat: 20.0425, Lng: 73.8516}, {Lat: 20.0418, Lng: 73.8516}, {Lat: 20.0418, Lng: 73.8509}},
	},
}

// AgentPaths are the looping waypoint routes used by the moving-object animation
var AgentPaths = [][]models.Coordinates{
	{{Lat: 20.0419, Lng: 73.8499}, {Lat: 20.0406, Lng: 73.8498}, {Lat: 20.0405, Lng: 73.8505}},
	{{Lat: 20.0422, Lng: 73.8512}, {Lat: 20.0406, Lng: 73.8517}, {Lat: 20.0401, Lng: 73.8534}},
	{{Lat: 20.0396, Lng: 73.849}, {Lat: 20.0407, Lng: 73.8474}},
}

// LocationFactor is the additive bias applied to a named location
type LocationFactor struct {
	Temperature float64
	AQI         float64
	CO2         float64
}

var locationFactors = map[string]LocationFactor{
	"Main Gate":        {AQI: 5, CO2: 50},
	"Canteen":          {Temperature: 1, CO2: 100},
	"Engg. Building":   {CO2: 70},
	"Mech. Building":   {AQI: 8, CO2: 60},
	"Ground":           {Temperature: 1.5, AQI: -5},
	"Highway Entrance": {AQI: 15, CO2: 150},
	"Industrial Zone":  {AQI: 25, CO2: 200},
	"Residential Area": {AQI: -5, CO2: -20},
	"Nearby Road":      {AQI: 10, CO2: 120},
}

// FactorFor returns the bias for a location, zero when unknown
func FactorFor(name string) LocationFactor {
	return locationFactors[name]
}
