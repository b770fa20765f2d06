// ABOUTME: Compact per-medication entry inside an exported plan.
// ABOUTME: Short JSON aliases; fields equal to their default are omitted.
package planexport

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harperreed/medlog/internal/models"
)

const (
	dateLayout = "2006-01-02"

	defaultDoseQuantity = 1.0
	defaultFrequency    = "daily"
	defaultForm         = "tablet"
	defaultInterval     = 1
	defaultDays         = "1,2,3,4,5,6,7"
)

// requiredKeys must be present and non-null in every encoded entry.
var requiredKeys = []string{"n", "d", "u", "tp", "rt", "rh", "rm"}

// Entry is one medication in a plan.
type Entry struct {
	Name               string
	Dose               float64
	DoseUnit           string
	TimePeriod         string
	ReminderTimes      string
	ReminderHour       int
	ReminderMinute     int
	DoseQuantity       float64
	FrequencyType      string
	Category           string
	Form               string
	IsPRN              bool
	IsHighPriority     bool
	FrequencyInterval  int
	FrequencyDays      string
	StartDate          string
	EndDate            *string
	Stock              *float64
	RefillThreshold    *float64
	RefillReminderDays int
	Notes              string
	MaxDailyDose       *float64
	IntervalHours      int
}

type wireEntry struct {
	N     string   `json:"n"`
	D     float64  `json:"d"`
	U     string   `json:"u"`
	TP    string   `json:"tp"`
	RT    string   `json:"rt"`
	RH    int      `json:"rh"`
	RM    int      `json:"rm"`
	DQ    *float64 `json:"dq,omitempty"`
	FT    string   `json:"ft,omitempty"`
	Cat   string   `json:"cat,omitempty"`
	Form  string   `json:"form,omitempty"`
	PRN   bool     `json:"prn,omitempty"`
	HP    bool     `json:"hp,omitempty"`
	FI    *int     `json:"fi,omitempty"`
	FD    *string  `json:"fd,omitempty"`
	SD    string   `json:"sd,omitempty"`
	ED    *string  `json:"ed,omitempty"`
	Stk   *float64 `json:"stk,omitempty"`
	RT2   *float64 `json:"rt2,omitempty"`
	RRD   int      `json:"rrd,omitempty"`
	Notes string   `json:"notes,omitempty"`
	MDX   *float64 `json:"mdx,omitempty"`
	IH    int      `json:"ih,omitempty"`
}

// MarshalJSON writes the short-alias form, dropping default values.
func (e Entry) MarshalJSON() ([]byte, error) {
	w := wireEntry{
		N: e.Name, D: e.Dose, U: e.DoseUnit, TP: e.TimePeriod,
		RT: e.ReminderTimes, RH: e.ReminderHour, RM: e.ReminderMinute,
		Cat: e.Category, PRN: e.IsPRN, HP: e.IsHighPriority,
		SD: e.StartDate, ED: e.EndDate, Stk: e.Stock, RT2: e.RefillThreshold,
		RRD: e.RefillReminderDays, Notes: e.Notes, MDX: e.MaxDailyDose, IH: e.IntervalHours,
	}
	if e.DoseQuantity != defaultDoseQuantity {
		dq := e.DoseQuantity
		w.DQ = &dq
	}
	if e.FrequencyType != defaultFrequency {
		w.FT = e.FrequencyType
	}
	if e.Form != defaultForm {
		w.Form = e.Form
	}
	if e.FrequencyInterval != defaultInterval {
		fi := e.FrequencyInterval
		w.FI = &fi
	}
	if e.FrequencyDays != defaultDays {
		fd := e.FrequencyDays
		w.FD = &fd
	}
	return json.Marshal(w)
}

// UnmarshalJSON reads the short-alias form, restoring defaults for absent
// optional fields. Missing required fields or a blank name are errors.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var present map[string]json.RawMessage
	if err := json.Unmarshal(data, &present); err != nil {
		return err
	}
	for _, k := range requiredKeys {
		if v, ok := present[k]; !ok || string(v) == "null" {
			return fmt.Errorf("plan entry: missing field %q", k)
		}
	}

	var w wireEntry
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if strings.TrimSpace(w.N) == "" {
		return fmt.Errorf("plan entry: blank name")
	}
	*e = Entry{
		Name: w.N, Dose: w.D, DoseUnit: w.U, TimePeriod: w.TP,
		ReminderTimes: w.RT, ReminderHour: w.RH, ReminderMinute: w.RM,
		DoseQuantity: defaultDoseQuantity, FrequencyType: defaultFrequency,
		Category: w.Cat, Form: defaultForm, IsPRN: w.PRN, IsHighPriority: w.HP,
		FrequencyInterval: defaultInterval, FrequencyDays: defaultDays,
		StartDate: w.SD, EndDate: w.ED, Stock: w.Stk, RefillThreshold: w.RT2,
		RefillReminderDays: w.RRD, Notes: w.Notes, MaxDailyDose: w.MDX, IntervalHours: w.IH,
	}
	if w.DQ != nil {
		e.DoseQuantity = *w.DQ
	}
	if w.FT != "" {
		e.FrequencyType = w.FT
	}
	if w.Form != "" {
		e.Form = w.Form
	}
	if w.FI != nil {
		e.FrequencyInterval = *w.FI
	}
	if w.FD != nil {
		e.FrequencyDays = *w.FD
	}
	return nil
}

// EntryFromMedication flattens a medication into an entry.
func EntryFromMedication(m *models.Medication) Entry {
	hour, minute := m.ReminderHourMinute()
	e := Entry{
		Name:               m.Name,
		Dose:               m.DoseQuantity,
		DoseUnit:           m.DoseUnit,
		TimePeriod:         string(m.TimePeriod),
		ReminderTimes:      models.JoinTimes(m.ReminderTimes),
		ReminderHour:       hour,
		ReminderMinute:     minute,
		DoseQuantity:       m.DoseQuantity,
		FrequencyType:      string(m.FrequencyType),
		Category:           m.Category,
		Form:               m.Form,
		IsPRN:              m.IsPRN,
		IsHighPriority:     m.IsHighPriority,
		FrequencyInterval:  m.FrequencyInterval,
		FrequencyDays:      models.JoinDays(m.FrequencyDays),
		Stock:              m.Stock,
		RefillThreshold:    m.RefillThreshold,
		RefillReminderDays: m.RefillReminderDays,
		Notes:              m.Notes,
		MaxDailyDose:       m.MaxDailyDose,
		IntervalHours:      m.IntervalHours,
	}
	if !m.StartDate.IsZero() {
		e.StartDate = m.StartDate.Format(dateLayout)
	}
	if m.EndDate != nil {
		ed := m.EndDate.Format(dateLayout)
		e.EndDate = &ed
	}
	return e
}

// ToMedication builds a new medication with a fresh ID. An unparseable
// start date becomes today; an unparseable end date is dropped.
func (e Entry) ToMedication() *models.Medication {
	now := time.Now()
	m := &models.Medication{
		ID:                 uuid.New(),
		Name:               e.Name,
		Dose:               e.Dose,
		DoseQuantity:       e.DoseQuantity,
		DoseUnit:           e.DoseUnit,
		Form:               e.Form,
		Category:           e.Category,
		TimePeriod:         models.ParseTimePeriod(e.TimePeriod),
		ReminderTimes:      models.SplitTimes(e.ReminderTimes),
		FrequencyType:      models.FrequencyType(e.FrequencyType),
		FrequencyInterval:  e.FrequencyInterval,
		FrequencyDays:      models.SplitDays(e.FrequencyDays),
		Stock:              e.Stock,
		RefillThreshold:    e.RefillThreshold,
		RefillReminderDays: e.RefillReminderDays,
		IsPRN:              e.IsPRN,
		IsHighPriority:     e.IsHighPriority,
		Notes:              e.Notes,
		MaxDailyDose:       e.MaxDailyDose,
		IntervalHours:      e.IntervalHours,
		CreatedAt:          now,
	}
	if !models.IsValidFrequencyType(e.FrequencyType) {
		m.FrequencyType = models.FrequencyDaily
	}
	if m.FrequencyInterval < 1 {
		m.FrequencyInterval = 1
	}
	if len(m.FrequencyDays) == 0 {
		m.FrequencyDays = append([]int(nil), models.AllWeekdays...)
	}
	if len(m.ReminderTimes) == 0 {
		m.ReminderTimes = []string{clock(e.ReminderHour, e.ReminderMinute)}
	}

	if start, err := time.ParseInLocation(dateLayout, strings.TrimSpace(e.StartDate), time.Local); err == nil {
		m.StartDate = start
	} else {
		m.StartDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.Local)
	}
	if e.EndDate != nil {
		if end, err := time.ParseInLocation(dateLayout, strings.TrimSpace(*e.EndDate), time.Local); err == nil {
			m.EndDate = &end
		}
	}
	return m
}

func clock(h, m int) string {
	if h < 0 || h > 23 || m < 0 || m > 59 {
		h, m = 8, 0
	}
	return time.Date(2000, 1, 1, h, m, 0, 0, time.UTC).Format("15:04")
}
