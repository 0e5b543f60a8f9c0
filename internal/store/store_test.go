package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mnardelli/audimed/internal/store"
	"github.com/mnardelli/audimed/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

// setupTestDB spins up a Postgres container, runs migrations, and returns a pool + cleanup.
func setupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("audimed_test"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, pgContainer.Terminate(ctx))
	})

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	err = store.RunMigrations(connStr, migrationsDir())
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(func() { pool.Close() })

	return pool
}

// --- Memory store tests (no container needed) ---

func TestMemory_CreateAndGet(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("folder-abc")
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, "folder-abc", got.FolderID)
}

func TestMemory_GetNotFound(t *testing.T) {
	s := store.NewMemoryStore()

	_, err := s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_DuplicateID(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("folder-abc")
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.CreateJob(ctx, job)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestMemory_UpdateJob(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("folder-abc")
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.UpdateJob(ctx, job.ID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.StatusDetail = "listando archivos"
	})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.Equal(t, "listando archivos", got.StatusDetail)
}

func TestMemory_UpdateNotFound(t *testing.T) {
	s := store.NewMemoryStore()

	err := s.UpdateJob(context.Background(), "missing", func(j *models.Job) {})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_GetReturnsCopy(t *testing.T) {
	s := store.NewMemoryStore()
	ctx := context.Background()

	job := models.NewJob("folder-abc")
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	got.Status = models.JobStatusError

	again, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, again.Status)
}

// --- Postgres store tests ---

func TestPostgres_CreateAndGet(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := models.NewJob("folder-pg")
	job.Archivos = []string{"historia.pdf", "receta.pdf"}
	require.NoError(t, s.CreateJob(ctx, job))

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, "folder-pg", got.FolderID)
	assert.Equal(t, []string{"historia.pdf", "receta.pdf"}, got.Archivos)
}

func TestPostgres_GetNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	_, err := s.GetJob(context.Background(), "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgres_DuplicateID(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := models.NewJob("folder-dup")
	require.NoError(t, s.CreateJob(ctx, job))

	err := s.CreateJob(ctx, job)
	assert.ErrorIs(t, err, store.ErrDuplicateKey)
}

func TestPostgres_UpdateJob(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := models.NewJob("folder-upd")
	require.NoError(t, s.CreateJob(ctx, job))

	now := time.Now().UTC().Truncate(time.Microsecond)
	err := s.UpdateJob(ctx, job.ID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.StartedAt = &now
		j.DocumentosEncontrados = 2
	})
	require.NoError(t, err)

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusProcessing, got.Status)
	assert.Equal(t, 2, got.DocumentosEncontrados)
	require.NotNil(t, got.StartedAt)
	assert.Equal(t, now, got.StartedAt.UTC().Truncate(time.Microsecond))
}

func TestPostgres_UpdateJobPreservesConcurrentPatches(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)
	ctx := context.Background()

	job := models.NewJob("folder-conc")
	require.NoError(t, s.CreateJob(ctx, job))

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func() {
			done <- s.UpdateJob(ctx, job.ID, func(j *models.Job) {
				j.DocumentosProcesados++
			})
		}()
	}
	for i := 0; i < 10; i++ {
		require.NoError(t, <-done)
	}

	got, err := s.GetJob(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.DocumentosProcesados)
}

func TestPostgres_UpdateNotFound(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.UpdateJob(context.Background(), "missing", func(j *models.Job) {})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostgres_Ping(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}
	pool := setupTestDB(t)
	s := store.NewPostgresStore(pool)

	err := s.Ping(context.Background())
	assert.NoError(t, err)
}
