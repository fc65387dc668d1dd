package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/rawcontext/engram-sub005/application/jobs"
	"github.com/rawcontext/engram-sub005/application/ports"
	"github.com/rawcontext/engram-sub005/application/services"
	"github.com/rawcontext/engram-sub005/domain/events"
	"github.com/rawcontext/engram-sub005/pkg/common"
)

// AdminHandler exposes operational access: activity counter stats and
// resets, schedule introspection, and manual job triggers.
type AdminHandler struct {
	tracker   *services.ActivityTracker
	scheduler *jobs.Scheduler
	publisher ports.TriggerPublisher
	orgID     string
	logger    *zap.Logger
}

// NewAdminHandler creates an admin handler.
func NewAdminHandler(
	tracker *services.ActivityTracker,
	scheduler *jobs.Scheduler,
	publisher ports.TriggerPublisher,
	orgID string,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		tracker:   tracker,
		scheduler: scheduler,
		publisher: publisher,
		orgID:     orgID,
		logger:    logger,
	}
}

// GetActivityStats returns the counter state for a project.
func (h *AdminHandler) GetActivityStats(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	stats, err := h.tracker.GetStats(r.Context(), project)
	if err != nil {
		h.logger.Error("Failed to read activity stats", zap.Error(err), zap.String("project", project))
		common.RespondError(w, http.StatusInternalServerError, "ACTIVITY_READ_FAILED", "failed to read activity state")
		return
	}
	common.RespondJSON(w, http.StatusOK, stats)
}

// ResetActivityCounters zeroes a project's counters.
func (h *AdminHandler) ResetActivityCounters(w http.ResponseWriter, r *http.Request) {
	project := chi.URLParam(r, "project")

	if err := h.tracker.ResetCounters(r.Context(), project); err != nil {
		h.logger.Error("Failed to reset activity counters", zap.Error(err), zap.String("project", project))
		common.RespondError(w, http.StatusInternalServerError, "ACTIVITY_RESET_FAILED", "failed to reset activity state")
		return
	}
	common.RespondJSON(w, http.StatusOK, map[string]string{"project": project, "status": "reset"})
}

// GetSchedule returns the schedule table with each job's next fire time.
func (h *AdminHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	next := h.scheduler.NextRuns()

	type scheduleView struct {
		Job         string `json:"job"`
		Schedule    string `json:"schedule"`
		Description string `json:"description"`
		NextRun     string `json:"next_run"`
	}
	views := make([]scheduleView, 0, len(h.scheduler.Schedules()))
	for _, s := range h.scheduler.Schedules() {
		views = append(views, scheduleView{
			Job:         s.Name,
			Schedule:    s.Spec,
			Description: s.Description,
			NextRun:     next[s.Name].Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	common.RespondJSON(w, http.StatusOK, views)
}

// TriggerJob publishes a manual Job Trigger for the named job.
func (h *AdminHandler) TriggerJob(w http.ResponseWriter, r *http.Request) {
	job := chi.URLParam(r, "job")
	switch job {
	case events.JobCommunityDetection, events.JobMemoryDecay, events.JobConflictScan:
	default:
		common.RespondError(w, http.StatusNotFound, "UNKNOWN_JOB", "no such job: "+job)
		return
	}

	trigger := events.NewJobTrigger(job, events.TriggeredByManual)
	trigger.OrgID = h.orgID
	trigger.Project = r.URL.Query().Get("project")

	// In worker mode the publisher dispatches the job in-process, which
	// can take minutes; don't hold the request open for it.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Hour)
		defer cancel()
		if err := h.publisher.Publish(ctx, trigger); err != nil {
			h.logger.Error("Manual job trigger failed",
				zap.Error(err),
				zap.String("job", job),
				zap.String("executionID", trigger.ExecutionID),
			)
		}
	}()

	common.RespondJSON(w, http.StatusAccepted, map[string]string{
		"job":         job,
		"executionId": trigger.ExecutionID,
	})
}
