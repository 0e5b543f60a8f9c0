package audit_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mnardelli/audimed/internal/ai/mock"
	"github.com/mnardelli/audimed/internal/audit"
	"github.com/mnardelli/audimed/internal/config"
	"github.com/mnardelli/audimed/internal/drive"
	"github.com/mnardelli/audimed/internal/store"
	"github.com/mnardelli/audimed/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fakes ---

type fakeDrive struct {
	mu       sync.Mutex
	files    []drive.File
	listErr  error
	uploads  []string
	folderID string
}

func (f *fakeDrive) ListPDFs(ctx context.Context, folderID string) ([]drive.File, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.files, nil
}

func (f *fakeDrive) Download(ctx context.Context, fileID string) ([]byte, error) {
	return []byte("%PDF-1.4 contenido de " + fileID), nil
}

func (f *fakeDrive) CreateFolder(ctx context.Context, parentID, name string) (drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.folderID = "out-" + name
	return drive.File{ID: f.folderID, Name: name}, nil
}

func (f *fakeDrive) Upload(ctx context.Context, folderID, name, mimeType string, content []byte) (drive.File, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, name)
	return drive.File{ID: "id-" + name, Name: name, WebViewLink: "https://drive.example/" + name}, nil
}

type fakeText struct {
	text string
}

func (f fakeText) ExtractText(data []byte) (string, int, error) {
	return f.text, 1, nil
}

type fakeRasterizer struct {
	pages int
}

func (f fakeRasterizer) Render(ctx context.Context, pdfPath, outDir string) ([]string, error) {
	var out []string
	for i := 1; i <= f.pages; i++ {
		out = append(out, fmt.Sprintf("%s/pagina_%05d.jpg", outDir, i))
	}
	return out, nil
}

type countingPacer struct {
	mu    sync.Mutex
	waits int
}

func (p *countingPacer) Wait(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.waits++
	return nil
}

func extractionConfig() config.ExtractionConfig {
	return config.ExtractionConfig{
		MinTextChars: 150,
		LetterRun:    3,
		RasterDPI:    200,
		JPEGQuality:  85,
	}
}

func waitForTerminal(t *testing.T, st store.Store, jobID string) *models.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := st.GetJob(context.Background(), jobID)
		require.NoError(t, err)
		if job.Status == models.JobStatusFinished || job.Status == models.JobStatusError {
			return job
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal status")
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// --- tests ---

func TestTrigger_RequiresFolderID(t *testing.T) {
	svc := audit.NewService(&fakeDrive{}, mock.NewMockExtractor(), store.NewMemoryStore(), nil,
		&countingPacer{}, fakeText{}, fakeRasterizer{}, extractionConfig(), discardLogger())

	_, err := svc.Trigger(context.Background(), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "folder_id")
}

func TestTrigger_ReturnsQueuedJob(t *testing.T) {
	st := store.NewMemoryStore()
	svc := audit.NewService(&fakeDrive{}, mock.NewMockExtractor(), st, nil,
		&countingPacer{}, fakeText{text: strings.Repeat("historia clínica ", 20)}, fakeRasterizer{},
		extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "folder-1", job.FolderID)

	waitForTerminal(t, st, job.ID)
}

func TestRun_DigitalTextDocument(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{files: []drive.File{{ID: "f1", Name: "historia.pdf"}}}

	var mu sync.Mutex
	textCalls := 0
	imageCalls := 0
	extractor := mock.NewMockExtractor()
	extractor.ExtractFromTextFunc = func(_ context.Context, docName, text string) (models.DocumentData, error) {
		mu.Lock()
		textCalls++
		mu.Unlock()
		return models.DocumentData{TipoDocumento: "historia clínica"}, nil
	}
	extractor.ExtractFromImageFunc = func(_ context.Context, _ string) (models.DocumentData, error) {
		mu.Lock()
		imageCalls++
		mu.Unlock()
		return models.DocumentData{}, nil
	}

	longText := strings.Repeat("evolución del paciente con diagnóstico confirmado ", 20)
	svc := audit.NewService(fd, extractor, st, nil, &countingPacer{},
		fakeText{text: longText}, fakeRasterizer{pages: 3}, extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	require.Equal(t, models.JobStatusFinished, final.Status)

	assert.Equal(t, 1, textCalls)
	assert.Equal(t, 0, imageCalls)

	require.Len(t, final.Documentos, 1)
	doc := final.Documentos[0]
	assert.Equal(t, "historia.pdf", doc.Archivo)
	assert.Equal(t, models.ProcessingDigitalText, doc.TipoProcesamiento)
	assert.Equal(t, len(longText), doc.TextoExtraidoChars)
	require.NotNil(t, doc.Resultado)
	assert.Equal(t, "historia clínica", doc.Resultado.TipoDocumento)
	assert.Empty(t, doc.ResultadoPaginas)
}

func TestRun_ScannedDocumentGoesThroughVision(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{files: []drive.File{{ID: "f1", Name: "estudio.pdf"}}}
	pacer := &countingPacer{}

	var mu sync.Mutex
	var imagePaths []string
	extractor := mock.NewMockExtractor()
	extractor.ExtractFromImageFunc = func(_ context.Context, imagePath string) (models.DocumentData, error) {
		mu.Lock()
		imagePaths = append(imagePaths, imagePath)
		mu.Unlock()
		return models.DocumentData{TipoDocumento: "estudio"}, nil
	}

	svc := audit.NewService(fd, extractor, st, nil, pacer,
		fakeText{text: ""}, fakeRasterizer{pages: 3}, extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	require.Equal(t, models.JobStatusFinished, final.Status)

	require.Len(t, final.Documentos, 1)
	doc := final.Documentos[0]
	assert.Equal(t, models.ProcessingVisionOCR, doc.TipoProcesamiento)
	assert.Equal(t, 3, doc.Paginas)
	require.Len(t, doc.ResultadoPaginas, 3)

	// Pages must be processed in order and each call paced.
	for i, page := range doc.ResultadoPaginas {
		assert.Equal(t, i+1, page.Pagina)
		assert.Contains(t, page.Imagen, fmt.Sprintf("%05d", i+1))
	}
	require.Len(t, imagePaths, 3)
	assert.True(t, imagePaths[0] < imagePaths[1] && imagePaths[1] < imagePaths[2])
	assert.Equal(t, 3, pacer.waits)
}

func TestRun_FinishedJobHasOutputsAndSummary(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{files: []drive.File{{ID: "f1", Name: "receta.pdf"}}}

	svc := audit.NewService(fd, mock.NewMockExtractor(), st, nil, &countingPacer{},
		fakeText{text: strings.Repeat("receta médica del paciente ", 20)}, fakeRasterizer{},
		extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	require.Equal(t, models.JobStatusFinished, final.Status)

	require.NotNil(t, final.Outputs)
	assert.Equal(t, "resultado_legajo.json", final.Outputs.JSON.Name)
	assert.Equal(t, "informe.html", final.Outputs.HTML.Name)
	assert.Equal(t, "informe.pdf", final.Outputs.PDF.Name)
	assert.NotEmpty(t, final.Resumen)
	assert.NotNil(t, final.FinishedAt)
	assert.True(t, strings.HasPrefix(final.OutputFolderName, "AUDITORIA_"))
	assert.Equal(t, 1, final.DocumentosProcesados)

	assert.Equal(t, []string{"resultado_legajo.json", "informe.html", "informe.pdf"}, fd.uploads)
}

func TestRun_ListErrorFailsJobWithoutOutputs(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{listErr: errors.New("drive unavailable")}

	svc := audit.NewService(fd, mock.NewMockExtractor(), st, nil, &countingPacer{},
		fakeText{}, fakeRasterizer{}, extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	assert.Equal(t, models.JobStatusError, final.Status)
	assert.Contains(t, final.ErrorMessage, "drive unavailable")
	assert.Nil(t, final.Outputs)
	assert.NotNil(t, final.FinishedAt)
}

func TestRun_ExtractorErrorFailsJob(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{files: []drive.File{{ID: "f1", Name: "doc.pdf"}}}

	svc := audit.NewService(fd, mock.NewFailingExtractor(errors.New("quota exceeded")), st, nil,
		&countingPacer{}, fakeText{text: strings.Repeat("texto del documento médico ", 20)},
		fakeRasterizer{}, extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	assert.Equal(t, models.JobStatusError, final.Status)
	assert.Contains(t, final.ErrorMessage, "quota exceeded")
	assert.Nil(t, final.Outputs)
}

func TestRun_EmptyFolderStillFinishes(t *testing.T) {
	st := store.NewMemoryStore()
	fd := &fakeDrive{}

	svc := audit.NewService(fd, mock.NewMockExtractor(), st, nil, &countingPacer{},
		fakeText{}, fakeRasterizer{}, extractionConfig(), discardLogger())

	job, err := svc.Trigger(context.Background(), "folder-1")
	require.NoError(t, err)

	final := waitForTerminal(t, st, job.ID)
	require.Equal(t, models.JobStatusFinished, final.Status)
	assert.Equal(t, 0, final.DocumentosEncontrados)
	assert.Equal(t, 0, final.DocumentosProcesados)
	require.NotNil(t, final.Outputs)
}
