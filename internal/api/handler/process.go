// Package handler contains the HTTP handlers for the audit API.
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mnardelli/audimed/internal/api/response"
	"github.com/mnardelli/audimed/pkg/models"
)

// AuditTrigger defines the interface the process handler depends on.
type AuditTrigger interface {
	Trigger(ctx context.Context, folderID string) (*models.Job, error)
}

// NewProcessHandler returns an http.HandlerFunc for POST /procesar.
// It queues the job and returns 202 immediately; the pipeline runs in the
// background and is observed through GET /estado/{jobID}.
func NewProcessHandler(svc AuditTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			FolderID string `json:"folder_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.FolderID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "folder_id is required", nil)
			return
		}

		job, err := svc.Trigger(r.Context(), req.FolderID)
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "JOB_CREATE_FAILED", "Could not create job", nil)
			return
		}

		response.Accepted(w, map[string]string{
			"job_id": job.ID,
			"status": job.Status,
		})
	}
}
