// ABOUTME: Pushes and pulls the encoded medication plan through Charm KV.
// ABOUTME: The plan travels in the same anshin:v1 form used for QR sharing.
package charm

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/medlog/internal/models"
	"github.com/harperreed/medlog/internal/planexport"
)

// ErrNoPlan means no device has pushed a plan yet.
var ErrNoPlan = errors.New("no plan has been pushed")

// ErrInvalidPlan means the stored value could not be decoded.
var ErrInvalidPlan = errors.New("stored plan is not a valid medlog plan")

// PlanInfo describes the plan currently held in the KV store.
type PlanInfo struct {
	Encoded  string
	PushedAt time.Time
	Device   string
	Count    int
}

// PushPlan encodes the active medications and stores them as the shared plan.
func (c *Client) PushPlan(meds []*models.Medication, now time.Time) (*PlanInfo, error) {
	encoded, err := planexport.Encode(meds)
	if err != nil {
		return nil, fmt.Errorf("encode plan: %w", err)
	}

	device, _ := os.Hostname()
	info := &PlanInfo{Encoded: encoded, PushedAt: now.UTC(), Device: device}
	if plan, ok := planexport.Decode(encoded); ok {
		info.Count = len(plan.Meds)
	}

	err = c.setAll(map[string][]byte{
		PlanKey:     []byte(encoded),
		PushedAtKey: []byte(info.PushedAt.Format(time.RFC3339)),
		DeviceKey:   []byte(device),
	})
	if err != nil {
		return nil, fmt.Errorf("push plan: %w", err)
	}
	return info, nil
}

// PullPlan fetches and decodes the shared plan.
func (c *Client) PullPlan() (*planexport.Plan, *PlanInfo, error) {
	info, err := c.PlanInfo()
	if err != nil {
		return nil, nil, err
	}
	plan, ok := planexport.Decode(info.Encoded)
	if !ok {
		return nil, info, ErrInvalidPlan
	}
	return plan, info, nil
}

// PlanInfo reads the stored plan and its metadata without importing it.
func (c *Client) PlanInfo() (*PlanInfo, error) {
	data, err := c.get(PlanKey)
	if errors.Is(err, errMissingKey) {
		return nil, ErrNoPlan
	}
	if err != nil {
		return nil, fmt.Errorf("get plan: %w", err)
	}

	info := &PlanInfo{Encoded: string(data)}
	if raw, err := c.get(PushedAtKey); err == nil {
		info.PushedAt, _ = time.Parse(time.RFC3339, string(raw))
	}
	if raw, err := c.get(DeviceKey); err == nil {
		info.Device = string(raw)
	}
	if plan, ok := planexport.Decode(info.Encoded); ok {
		info.Count = len(plan.Meds)
	}
	return info, nil
}

// ClearPlan removes the shared plan.
func (c *Client) ClearPlan() error {
	if err := c.deleteAll(PlanKey, PushedAtKey, DeviceKey); err != nil {
		return fmt.Errorf("clear plan: %w", err)
	}
	return nil
}
