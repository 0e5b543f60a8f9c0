package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued     = "en_cola"
	JobStatusProcessing = "procesando"
	JobStatusFinished   = "finalizado"
	JobStatusError      = "error"
)

// Job tracks one end-to-end audit of a Drive folder. The API returns a job_id on
// POST /procesar; the client polls GET /estado/{job_id} until status is
// finalizado or error. The record is mutated only by the single background
// goroutine that owns the job.
type Job struct {
	ID                    string           `json:"job_id"`
	FolderID              string           `json:"folder_id"`
	Status                string           `json:"status"`
	StatusDetail          string           `json:"status_detalle,omitempty"`
	DocumentosEncontrados int              `json:"documentos_encontrados,omitempty"`
	Archivos              []string         `json:"archivos,omitempty"`
	OutputFolderID        string           `json:"output_folder_id,omitempty"`
	OutputFolderName      string           `json:"output_folder_name,omitempty"`
	DocumentosProcesados  int              `json:"documentos_procesados,omitempty"`
	Documentos            []DocumentResult `json:"documentos,omitempty"`
	Outputs               *JobOutputs      `json:"outputs,omitempty"`
	Resumen               string           `json:"resumen,omitempty"`
	ErrorMessage          string           `json:"error,omitempty"`
	CreatedAt             time.Time        `json:"created_at"`
	StartedAt             *time.Time       `json:"started_at,omitempty"`
	FinishedAt            *time.Time       `json:"finished_at,omitempty"`
}

// OutputRef points at one uploaded artifact on Drive.
type OutputRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// JobOutputs holds the three artifacts a finished job uploads.
type JobOutputs struct {
	JSON OutputRef `json:"json"`
	HTML OutputRef `json:"html"`
	PDF  OutputRef `json:"pdf"`
}

// NewJob creates a queued job for the given source folder.
func NewJob(folderID string) *Job {
	return &Job{
		ID:        uuid.NewString(),
		FolderID:  folderID,
		Status:    JobStatusQueued,
		CreatedAt: time.Now().UTC(),
	}
}
