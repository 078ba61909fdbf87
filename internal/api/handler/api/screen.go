// internal/api/handler/api/screen.go
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/newthinker/swingdesk/internal/analysis"
	"github.com/newthinker/swingdesk/internal/api/job"
	"github.com/newthinker/swingdesk/internal/api/response"
	"github.com/newthinker/swingdesk/internal/core"
	"github.com/newthinker/swingdesk/internal/metrics"
)

const (
	screenJobType = "screen"
	screenTimeout = 5 * time.Minute
)

// ScreenApp defines the interface needed from app.App.
type ScreenApp interface {
	Screen(ctx context.Context) []analysis.Snapshot
}

// ScreenHandler runs the top-N screener as an async job.
type ScreenHandler struct {
	jobStore *job.Store
	app      ScreenApp
	metrics  *metrics.Registry
	timeout  time.Duration
}

// NewScreenHandler creates a new screen handler.
func NewScreenHandler(jobStore *job.Store, app ScreenApp) *ScreenHandler {
	return &ScreenHandler{
		jobStore: jobStore,
		app:      app,
		timeout:  screenTimeout,
	}
}

// SetMetrics enables the active-jobs gauge.
func (h *ScreenHandler) SetMetrics(m *metrics.Registry) {
	h.metrics = m
}

// Create handles POST /api/v1/screen and answers 202 with the job ID.
func (h *ScreenHandler) Create(w http.ResponseWriter, r *http.Request) {
	j := h.jobStore.Create(screenJobType)

	// Copy values before starting goroutine to avoid race
	jobID := j.ID
	status := j.Status

	go h.run(jobID)

	response.JSON(w, http.StatusAccepted, map[string]any{
		"job_id": jobID,
		"status": status,
	})
}

func (h *ScreenHandler) run(jobID string) {
	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusRunning
	})
	h.reportActive()
	defer h.reportActive()

	ctx, cancel := context.WithTimeout(context.Background(), h.timeout)
	defer cancel()
	snaps := h.app.Screen(ctx)

	if err := ctx.Err(); err != nil {
		h.jobStore.Update(jobID, func(j *job.Job) {
			j.Status = job.StatusFailed
			j.Error = core.WrapError(core.ErrCollectorTimeout, err)
		})
		return
	}

	h.jobStore.Update(jobID, func(j *job.Job) {
		j.Status = job.StatusComplete
		j.Progress = 100
		j.Result = snaps
	})
}

func (h *ScreenHandler) reportActive() {
	if h.metrics != nil {
		h.metrics.SetJobsActive(screenJobType, h.jobStore.Active(screenJobType))
	}
}

// Status handles GET /api/v1/jobs/{id}
func (h *ScreenHandler) Status(w http.ResponseWriter, r *http.Request) {
	j, err := h.jobStore.Get(r.PathValue("id"))
	if err != nil {
		response.Fail(w, err)
		return
	}

	resp := map[string]any{
		"job_id":   j.ID,
		"type":     j.Type,
		"status":   j.Status,
		"progress": j.Progress,
	}

	if j.Status == job.StatusComplete {
		resp["result"] = j.Result
	}
	if j.Status == job.StatusFailed && j.Error != nil {
		resp["error"] = map[string]string{
			"code":    j.Error.Code,
			"message": j.Error.Message,
		}
	}

	response.JSON(w, http.StatusOK, resp)
}
