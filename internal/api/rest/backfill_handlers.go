package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/fortuna/borealis/internal/backfill"
	"github.com/fortuna/borealis/internal/season"
	"github.com/fortuna/borealis/internal/window"
)

// BackfillHandler proxies API calls to the backfill service.
type BackfillHandler struct {
	service *backfill.Service
}

// NewBackfillHandler wires the REST layer to the backfill service.
func NewBackfillHandler(service *backfill.Service) *BackfillHandler {
	return &BackfillHandler{service: service}
}

type apiBackfillRequest struct {
	SeasonID   string `json:"season_id"`
	SeasonType string `json:"season_type"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Date       string `json:"date"`
	DryRun     bool   `json:"dry_run"`
}

// HandleBackfillRequest handles POST /api/v1/backfill
func (h *BackfillHandler) HandleBackfillRequest(w http.ResponseWriter, r *http.Request) {
	var req apiBackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	backfillReq := backfill.Request{
		SeasonID:   req.SeasonID,
		SeasonType: req.SeasonType,
		DryRun:     req.DryRun,
	}

	var err error
	if backfillReq.StartDate, err = parseBodyDate(req.StartDate); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid start_date format (YYYY-MM-DD)", err)
		return
	}
	if backfillReq.EndDate, err = parseBodyDate(req.EndDate); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid end_date format (YYYY-MM-DD)", err)
		return
	}
	if backfillReq.Date, err = parseBodyDate(req.Date); err != nil {
		respondError(w, http.StatusBadRequest, "Invalid date format (YYYY-MM-DD)", err)
		return
	}

	job, err := h.service.Enqueue(r.Context(), backfillReq)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Failed to enqueue backfill job", err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]interface{}{
		"job": jobPayload(job),
	})
}

// HandleBackfillStatus handles GET /api/v1/backfill/status
func (h *BackfillHandler) HandleBackfillStatus(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GetStatus(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to fetch status", err)
		return
	}

	payload := buildStatusPayload(summary)
	respondJSON(w, http.StatusOK, payload)
}

// HandleBackfillJobs handles GET /api/v1/backfill/jobs
func (h *BackfillHandler) HandleBackfillJobs(w http.ResponseWriter, r *http.Request) {
	limit := intParam(r, "limit", 10, 1, 100)

	jobs, err := h.service.ListJobs(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "Failed to list jobs", err)
		return
	}

	payload := make([]map[string]interface{}, 0, len(jobs))
	for _, job := range jobs {
		payload = append(payload, jobPayload(job))
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  payload,
		"count": len(payload),
	})
}

func parseBodyDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(window.DateLayout, value)
	if err != nil {
		return nil, err
	}
	day := season.Day(t)
	return &day, nil
}

func buildStatusPayload(summary *backfill.StatusSummary) map[string]interface{} {
	response := map[string]interface{}{
		"status":  "idle",
		"message": "No active jobs",
		"history": []map[string]interface{}{},
	}

	if summary.ActiveJob != nil {
		response["status"] = summary.ActiveJob.Status
		if summary.ActiveJob.StatusMessage.Valid {
			response["message"] = summary.ActiveJob.StatusMessage.String
		}
		response["active_job"] = jobPayload(summary.ActiveJob)
	}

	history := make([]map[string]interface{}, 0, len(summary.History))
	for _, job := range summary.History {
		history = append(history, jobPayload(job))
	}

	response["history"] = history
	return response
}

func jobPayload(job *backfill.Job) map[string]interface{} {
	if job == nil {
		return nil
	}

	payload := map[string]interface{}{
		"job_id":           job.JobID,
		"job_type":         job.JobType,
		"dry_run":          job.DryRun,
		"status":           job.Status,
		"progress_current": job.ProgressCurrent,
		"progress_total":   job.ProgressTotal,
		"retry_count":      job.RetryCount,
		"created_at":       job.CreatedAt,
		"updated_at":       job.UpdatedAt,
	}

	if job.StatusMessage.Valid {
		payload["status_message"] = job.StatusMessage.String
	}
	if job.SeasonID.Valid {
		payload["season_id"] = job.SeasonID.String
	}
	if job.SeasonType.Valid {
		payload["season_type"] = job.SeasonType.String
	}
	if job.StartDate.Valid {
		payload["start_date"] = job.StartDate.Time.Format(window.DateLayout)
	}
	if job.EndDate.Valid {
		payload["end_date"] = job.EndDate.Time.Format(window.DateLayout)
	}
	if job.StartedAt.Valid {
		payload["started_at"] = job.StartedAt.Time
	}
	if job.CompletedAt.Valid {
		payload["completed_at"] = job.CompletedAt.Time
	}
	if job.LastError.Valid {
		payload["last_error"] = job.LastError.String
	}

	return payload
}
