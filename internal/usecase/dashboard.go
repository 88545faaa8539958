package usecase

import (
	"sync"

	"GoldPulse/internal/domain/models"
)

// Dashboard is the single shared display state. Views are applied last-writer-wins
// by sequence id, so a slow cycle finishing late cannot overwrite a newer one.
type Dashboard struct {
	mu      sync.RWMutex
	current *models.DisplayView
}

func NewDashboard() *Dashboard {
	return &Dashboard{}
}

// Current returns the applied view, or false before the first cycle.
func (d *Dashboard) Current() (*models.DisplayView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.current, d.current != nil
}

// Apply stores v if its sequence is newer than the current one.
func (d *Dashboard) Apply(v *models.DisplayView) bool {
	if v == nil {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.current != nil && v.Sequence <= d.current.Sequence {
		return false
	}
	d.current = v
	return true
}

// Sequence returns the sequence id of the applied view, 0 if none.
func (d *Dashboard) Sequence() uint64 {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.current == nil {
		return 0
	}
	return d.current.Sequence
}
