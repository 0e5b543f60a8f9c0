package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mnardelli/audimed/internal/api/response"
	"github.com/mnardelli/audimed/internal/store"
	"github.com/mnardelli/audimed/pkg/models"
)

// JobGetter defines the interface the status handler depends on.
type JobGetter interface {
	GetJob(ctx context.Context, jobID string) (*models.Job, error)
}

// NewStatusHandler returns an http.HandlerFunc for GET /estado/{jobID}.
func NewStatusHandler(svc JobGetter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobID := chi.URLParam(r, "jobID")
		if jobID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "job id is required", nil)
			return
		}

		job, err := svc.GetJob(r.Context(), jobID)
		if errors.Is(err, store.ErrNotFound) {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "No job with that id", nil)
			return
		}
		if err != nil {
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not load job", nil)
			return
		}

		response.JSON(w, job)
	}
}
