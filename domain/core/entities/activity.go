package entities

import "time"

// ActivityCounterState tracks organic growth for one project. Counters
// accumulate across calls and reset to zero when their threshold fires;
// LastTriggerTime enforces the cooldown between threshold triggers.
type ActivityCounterState struct {
	EntityCount     int        `json:"entity_count"`
	MemoryCount     int        `json:"memory_count"`
	LastTriggerTime *time.Time `json:"last_trigger_time,omitempty"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// InCooldown reports whether a threshold trigger fired within the given
// window before now.
func (s *ActivityCounterState) InCooldown(now time.Time, cooldown time.Duration) bool {
	if s.LastTriggerTime == nil {
		return false
	}
	return now.Sub(*s.LastTriggerTime) < cooldown
}
