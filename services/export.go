package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"
)

var exportHeader = []string{"timestamp", "sensor_id", "sensor_name", "temperature", "humidity", "aqi", "co2"}

// ExportCSV writes every reading currently held, one row per sensor reading, in
// registry order then history order. It returns the number of data rows written.
func (s *Simulation) ExportCSV(w io.Writer) (int, error) {
	sensors := s.store.Sensors()

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}

	rows := 0
	for i := range sensors {
		sensor := &sensors[i]
		id := strconv.Itoa(sensor.ID)
		for _, r := range sensor.Readings {
			record := []string{
				r.Timestamp.UTC().Format(time.RFC3339Nano),
				id,
				sensor.Name,
				strconv.FormatFloat(r.Temperature, 'f', -1, 64),
				strconv.FormatFloat(r.Humidity, 'f', -1, 64),
				strconv.Itoa(r.AQI),
				strconv.Itoa(r.CO2),
			}
			if err := cw.Write(record); err != nil {
				return rows, fmt.Errorf("failed to write csv row for sensor %d: %w", sensor.ID, err)
			}
			rows++
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("failed to flush csv export: %w", err)
	}
	return rows, nil
}
