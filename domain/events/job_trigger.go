package events

import (
	"fmt"
	"time"
)

// Job names double as message-bus subjects: each trigger is published
// with its job name as the detail type and consumed by the matching
// handler.
const (
	JobCommunityDetection = "community_detection"
	JobMemoryDecay        = "memory_decay"
	JobConflictScan       = "conflict_scan"
)

// Trigger sources.
const (
	TriggeredByCron      = "cron"
	TriggeredByManual    = "manual"
	TriggeredByThreshold = "threshold"
)

// JobTrigger is the message that starts a background job run. It is
// published on the event bus keyed by job name; Timestamp is epoch
// milliseconds.
type JobTrigger struct {
	Job         string `json:"job" validate:"required"`
	ExecutionID string `json:"executionId" validate:"required"`
	Timestamp   int64  `json:"timestamp" validate:"required"`
	TriggeredBy string `json:"triggeredBy" validate:"required,oneof=cron manual threshold"`
	OrgID       string `json:"orgId,omitempty"`
	Project     string `json:"project,omitempty"`
	Reason      string `json:"reason,omitempty"`
}

// NewJobTrigger builds a trigger for the given job and source, stamping
// the execution id from the job name and current time.
func NewJobTrigger(job, triggeredBy string) JobTrigger {
	now := time.Now()
	return JobTrigger{
		Job:         job,
		ExecutionID: fmt.Sprintf("%s-%d", job, now.UnixMilli()),
		Timestamp:   now.UnixMilli(),
		TriggeredBy: triggeredBy,
	}
}
