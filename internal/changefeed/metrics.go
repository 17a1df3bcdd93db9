package changefeed

import (
	"time"

	"github.com/nerrad567/settingsd/internal/settings"
)

// Measurement is the InfluxDB measurement written by Metrics.
const Measurement = "setting_change"

// Field keys written by Metrics.
const (
	FieldBool    = "value_bool"
	FieldInt     = "value_int"
	FieldString  = "value_string"
	FieldNumeric = "numeric"
)

// PointWriter is the subset of *influxdb.Client used by Metrics.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any, timestamp time.Time)
}

// Metrics records every change as an InfluxDB point tagged with the device,
// setting name, type and source.
//
// Each field key keeps one InfluxDB type across all settings, so bool, int
// and string settings can share the measurement:
//
//	value_bool    bool settings
//	value_int     int and uint8 settings (integer)
//	value_string  string settings
//	numeric       float view of bool (0/1), int and uint8 values
type Metrics struct {
	writer   PointWriter
	deviceID string
}

// NewMetrics creates a Metrics observer for deviceID.
func NewMetrics(writer PointWriter, deviceID string) *Metrics {
	return &Metrics{writer: writer, deviceID: deviceID}
}

// SettingChanged implements settings.Observer.
func (m *Metrics) SettingChanged(c settings.Change) {
	fields := Fields(c.New)
	if len(fields) == 0 {
		return
	}
	m.writer.WritePoint(Measurement, map[string]string{
		"device_id": m.deviceID,
		"name":      c.Name,
		"type":      string(c.Type),
		"source":    string(c.Source),
	}, fields, c.At)
}

// Fields returns the InfluxDB fields for v, or nil for the zero Value.
func Fields(v settings.Value) map[string]any {
	switch v.Kind() {
	case settings.TypeBool:
		b, _ := v.AsBool()
		numeric := 0.0
		if b {
			numeric = 1
		}
		return map[string]any{FieldBool: b, FieldNumeric: numeric}
	case settings.TypeInt, settings.TypeUInt8:
		i, _ := v.AsInt()
		return map[string]any{FieldInt: int64(i), FieldNumeric: float64(i)}
	case settings.TypeString:
		s, _ := v.AsString()
		return map[string]any{FieldString: s}
	}
	return nil
}
