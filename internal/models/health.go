// ABOUTME: HealthRecord model and HealthType enum for vital signs.
// ABOUTME: Each type carries a unit, label, normal range, and display format.
package models

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// HealthType identifies a kind of vital sign.
type HealthType string

const (
	HealthBloodPressure HealthType = "BLOOD_PRESSURE"
	HealthBloodGlucose  HealthType = "BLOOD_GLUCOSE"
	HealthWeight        HealthType = "WEIGHT"
	HealthHeartRate     HealthType = "HEART_RATE"
	HealthTemperature   HealthType = "TEMPERATURE"
	HealthSpO2          HealthType = "SPO2"
)

// HealthTypeInfo describes display and range data for a HealthType.
type HealthTypeInfo struct {
	Label        string
	Unit         string
	NormalMin    float64
	NormalMax    float64
	NormalSecMin *float64
	NormalSecMax *float64
}

func f64(v float64) *float64 { return &v }

// HealthTypes maps each type to its metadata.
var HealthTypes = map[HealthType]HealthTypeInfo{
	HealthBloodPressure: {Label: "Blood pressure", Unit: "mmHg", NormalMin: 90, NormalMax: 120, NormalSecMin: f64(60), NormalSecMax: f64(80)},
	HealthBloodGlucose:  {Label: "Blood glucose", Unit: "mmol/L", NormalMin: 3.9, NormalMax: 6.1},
	HealthWeight:        {Label: "Weight", Unit: "kg", NormalMin: 0, NormalMax: math.MaxFloat64},
	HealthHeartRate:     {Label: "Heart rate", Unit: "bpm", NormalMin: 60, NormalMax: 100},
	HealthTemperature:   {Label: "Temperature", Unit: "°C", NormalMin: 36.1, NormalMax: 37.3},
	HealthSpO2:          {Label: "Blood oxygen", Unit: "%", NormalMin: 95, NormalMax: 100},
}

// AllHealthTypes lists types in display order.
var AllHealthTypes = []HealthType{
	HealthBloodPressure, HealthBloodGlucose, HealthWeight,
	HealthHeartRate, HealthTemperature, HealthSpO2,
}

// IsValidHealthType checks if a string names a HealthType.
func IsValidHealthType(s string) bool {
	_, ok := HealthTypes[HealthType(s)]
	return ok
}

// HealthTypeFromName returns the named type, falling back to blood pressure.
func HealthTypeFromName(s string) HealthType {
	if IsValidHealthType(s) {
		return HealthType(s)
	}
	return HealthBloodPressure
}

// Info returns the type's metadata.
func (t HealthType) Info() HealthTypeInfo {
	return HealthTypes[t]
}

// IsNormal reports whether the primary value lies in the normal range.
func (t HealthType) IsNormal(value float64) bool {
	info := t.Info()
	return value >= info.NormalMin && value <= info.NormalMax
}

// FormatValue renders a value with its unit.
func (t HealthType) FormatValue(value float64, secondary *float64) string {
	unit := t.Info().Unit
	switch t {
	case HealthBloodPressure:
		if secondary != nil {
			return fmt.Sprintf("%d/%d %s", int(value), int(*secondary), unit)
		}
		return fmt.Sprintf("%d %s", int(value), unit)
	case HealthTemperature, HealthBloodGlucose, HealthWeight:
		return fmt.Sprintf("%.1f %s", value, unit)
	default:
		return fmt.Sprintf("%d %s", int(value), unit)
	}
}

// HealthRecord is a single vital-sign measurement.
type HealthRecord struct {
	ID             uuid.UUID  `json:"id"`
	Type           HealthType `json:"type"`
	Value          float64    `json:"value"`
	SecondaryValue *float64   `json:"secondary_value,omitempty"`
	RecordedAt     time.Time  `json:"recorded_at"`
	Notes          string     `json:"notes,omitempty"`
}

// NewHealthRecord creates a record timestamped now.
func NewHealthRecord(t HealthType, value float64) *HealthRecord {
	return &HealthRecord{
		ID:         uuid.New(),
		Type:       t,
		Value:      value,
		RecordedAt: time.Now(),
	}
}

// WithSecondary sets the secondary value (diastolic pressure).
func (r *HealthRecord) WithSecondary(v float64) *HealthRecord {
	r.SecondaryValue = &v
	return r
}

// WithRecordedAt sets a custom timestamp.
func (r *HealthRecord) WithRecordedAt(t time.Time) *HealthRecord {
	r.RecordedAt = t
	return r
}

// WithNotes sets notes on the record.
func (r *HealthRecord) WithNotes(notes string) *HealthRecord {
	r.Notes = notes
	return r
}

// Display renders the value using the type's format.
func (r *HealthRecord) Display() string {
	return r.Type.FormatValue(r.Value, r.SecondaryValue)
}
