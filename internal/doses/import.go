// ABOUTME: Applies a decoded medication plan in merge or replace mode.
// ABOUTME: Imported medications get fresh IDs and reminders.
package doses

import (
	"strings"

	"go.uber.org/zap"

	"github.com/harperreed/medlog/internal/planexport"
	"github.com/harperreed/medlog/internal/storage"
)

// ImportResult counts what an import changed.
type ImportResult struct {
	Added   []string `json:"added"`
	Skipped []string `json:"skipped,omitempty"`
	Removed int      `json:"removed"`
}

// ImportPlan adds the plan's medications. Replace mode first cancels
// reminders for and deletes every active medication. Merge mode skips
// entries whose trimmed, case-folded name matches a medication that was
// active before the import; repeats inside the plan are all added.
func (s *Service) ImportPlan(plan *planexport.Plan, mode planexport.ImportMode) (*ImportResult, error) {
	active, err := s.repo.ListMedications(storage.MedicationFilter{})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{}
	existing := make(map[string]bool)

	if mode == planexport.ImportReplace {
		for _, m := range active {
			if err := s.CancelReminders(m.ID); err != nil {
				return result, err
			}
			if err := s.repo.DeleteMedication(m.ID.String()); err != nil {
				return result, err
			}
			result.Removed++
		}
	} else {
		for _, m := range active {
			existing[normalizeName(m.Name)] = true
		}
	}

	for _, m := range plan.Medications() {
		key := normalizeName(m.Name)
		if mode == planexport.ImportMerge && existing[key] {
			result.Skipped = append(result.Skipped, m.Name)
			continue
		}
		if err := s.AddMedication(m); err != nil {
			return result, err
		}
		result.Added = append(result.Added, m.Name)
	}

	s.logger.Info("plan imported",
		zap.String("mode", string(mode)),
		zap.Int("added", len(result.Added)),
		zap.Int("skipped", len(result.Skipped)),
		zap.Int("removed", result.Removed),
	)
	return result, nil
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
