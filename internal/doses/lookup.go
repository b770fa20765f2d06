// ABOUTME: Read-side helpers shared by the CLI and MCP server.
// ABOUTME: Medication lookup by ID or name, upcoming reminders, adherence and interactions.
package doses

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/harperreed/medlog/internal/adherence"
	"github.com/harperreed/medlog/internal/interaction"
	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/storage"
)

// DefaultWindow is the adherence window in days.
const DefaultWindow = 30

// FindMedication resolves an ID, ID prefix, or case-insensitive name.
// Active medications win over archived ones with the same name.
func (s *Service) FindMedication(ref string) (*models.Medication, error) {
	m, err := s.repo.GetMedication(ref)
	if err == nil {
		return m, nil
	}
	if !errors.Is(err, storage.ErrNotFound) {
		return nil, err
	}

	meds, lerr := s.repo.ListMedications(storage.MedicationFilter{IncludeArchived: true})
	if lerr != nil {
		return nil, lerr
	}
	want := normalizeName(ref)
	var archived *models.Medication
	for _, m := range meds {
		if normalizeName(m.Name) != want {
			continue
		}
		if !m.IsArchived {
			return m, nil
		}
		if archived == nil {
			archived = m
		}
	}
	if archived != nil {
		return archived, nil
	}
	return nil, fmt.Errorf("%w: %s", storage.ErrNotFound, ref)
}

// Upcoming is a pending alarm joined with its medication.
type Upcoming struct {
	Alarm      *models.Alarm      `json:"alarm"`
	Medication *models.Medication `json:"medication"`
}

// UpcomingReminders lists pending main and early alarms, soonest first.
// Follow-ups are included only when followUps is set.
func (s *Service) UpcomingReminders(limit int, followUps bool) ([]Upcoming, error) {
	alarms, err := s.repo.ListAlarms(nil)
	if err != nil {
		return nil, err
	}

	meds := make(map[uuid.UUID]*models.Medication)
	var out []Upcoming
	for _, a := range alarms {
		if a.Kind == models.AlarmFollowUp && !followUps {
			continue
		}
		m, ok := meds[a.MedicationID]
		if !ok {
			m, err = s.repo.GetMedication(a.MedicationID.String())
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			if err != nil {
				return nil, err
			}
			meds[a.MedicationID] = m
		}
		out = append(out, Upcoming{Alarm: a, Medication: m})
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Alarm.TriggerAt.Before(out[j].Alarm.TriggerAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Names maps every medication ID, archived included, to its name.
func (s *Service) Names() (map[uuid.UUID]string, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{IncludeArchived: true})
	if err != nil {
		return nil, err
	}
	names := make(map[uuid.UUID]string, len(meds))
	for _, m := range meds {
		names[m.ID] = m.Name
	}
	return names, nil
}

// Adherence builds the streak and adherence report over window days.
func (s *Service) Adherence(window int) (adherence.Report, error) {
	if window <= 0 {
		window = DefaultWindow
	}
	logs, err := s.repo.ListLogs(storage.LogFilter{})
	if err != nil {
		return adherence.Report{}, err
	}
	names, err := s.Names()
	if err != nil {
		return adherence.Report{}, err
	}
	now := s.sched.Now()
	return adherence.BuildReport(logs, names, now, now.Location(), window), nil
}

// Interactions checks every active medication against the rule table.
func (s *Service) Interactions() ([]interaction.Interaction, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}
	return interaction.Check(meds), nil
}

// InteractionsWith checks a candidate against the active medications,
// returning only pairs that involve the candidate.
func (s *Service) InteractionsWith(candidate *models.Medication) ([]interaction.Interaction, error) {
	meds, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}
	var others []*models.Medication
	for _, m := range meds {
		if m.ID != candidate.ID {
			others = append(others, m)
		}
	}

	var out []interaction.Interaction
	for _, in := range interaction.Check(append(others, candidate)) {
		if in.DrugA == candidate.Name || in.DrugB == candidate.Name {
			out = append(out, in)
		}
	}
	return out, nil
}
