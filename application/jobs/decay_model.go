package jobs

import (
	"math"
	"time"

	"github.com/rawcontext/engram-sub005/domain/core/entities"
)

// DecayModel computes a memory's relevance score from its type, age,
// and access history. Scores live in [0,1].
type DecayModel struct {
	// HalfLifeDays controls how quickly the exponential age term falls.
	HalfLifeDays float64
	// MaxBoost caps the rehearsal multiplier; the boost never exceeds it.
	MaxBoost float64
}

// Score recomputes the relevance of a memory at the given instant:
// type weight, discounted exponentially by age, amplified by rehearsal.
func (m DecayModel) Score(memory *entities.Memory, now time.Time) float64 {
	age := memory.AgeDays(now)
	if age < 0 {
		age = 0
	}
	score := memory.Type.Weight() *
		math.Exp(-age/m.HalfLifeDays) *
		m.rehearsalBoost(memory, now)
	return clamp01(score)
}

// rehearsalBoost rewards frequent and recent access with diminishing
// returns. A memory never touched gets a neutral multiplier of 1.
func (m DecayModel) rehearsalBoost(memory *entities.Memory, now time.Time) float64 {
	if memory.AccessCount <= 0 || memory.LastAccessed == nil {
		return 1
	}

	// Frequency saturates: the 1st access matters far more than the 20th.
	frequency := float64(memory.AccessCount) / float64(memory.AccessCount+3)

	daysSinceAccess := now.Sub(*memory.LastAccessed).Hours() / 24
	if daysSinceAccess < 0 {
		daysSinceAccess = 0
	}
	recency := math.Exp(-daysSinceAccess / 7)

	boost := 1 + (m.MaxBoost-1)*frequency*recency
	if boost > m.MaxBoost {
		boost = m.MaxBoost
	}
	return boost
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
