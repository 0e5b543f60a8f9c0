package store

import (
	"context"
	"errors"

	"github.com/mnardelli/audimed/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the job persistence interface. All job state goes through here.
//
// UpdateJob applies the patch under the store's concurrency control so that
// per-document progress updates from the worker never clobber each other.
type Store interface {
	Ping(ctx context.Context) error
	CreateJob(ctx context.Context, job *models.Job) error
	GetJob(ctx context.Context, id string) (*models.Job, error)
	UpdateJob(ctx context.Context, id string, patch func(*models.Job)) error
}
