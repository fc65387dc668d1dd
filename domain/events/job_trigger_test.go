package events

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewJobTrigger_StampsExecution(t *testing.T) {
	trigger := NewJobTrigger(JobMemoryDecay, TriggeredByCron)

	assert.Equal(t, JobMemoryDecay, trigger.Job)
	assert.Equal(t, TriggeredByCron, trigger.TriggeredBy)
	assert.True(t, strings.HasPrefix(trigger.ExecutionID, JobMemoryDecay+"-"))
	assert.Positive(t, trigger.Timestamp)
}
