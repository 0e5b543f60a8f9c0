// Package audit orchestrates the end-to-end folder audit: pull PDFs from
// Drive, structure every document with the AI provider, consolidate the case
// file, generate the formal report, and upload the artifacts back to Drive.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/mnardelli/audimed/internal/ai"
	"github.com/mnardelli/audimed/internal/cache"
	"github.com/mnardelli/audimed/internal/config"
	"github.com/mnardelli/audimed/internal/drive"
	"github.com/mnardelli/audimed/internal/pdf"
	"github.com/mnardelli/audimed/internal/report"
	"github.com/mnardelli/audimed/internal/store"
	"github.com/mnardelli/audimed/pkg/models"
)

const jobStatusTTL = 30 * time.Minute

// Service orchestrates audit jobs. The cache is optional; when nil, job
// status is served from the store alone.
type Service struct {
	drive      drive.Client
	extractor  models.Extractor
	store      store.Store
	cache      cache.Cache
	pacer      ai.Pacer
	text       pdf.TextExtractor
	rasterizer pdf.Rasterizer
	cfg        config.ExtractionConfig
	logger     *slog.Logger
	now        func() time.Time
}

func NewService(
	driveClient drive.Client,
	extractor models.Extractor,
	st store.Store,
	ca cache.Cache,
	pacer ai.Pacer,
	text pdf.TextExtractor,
	rasterizer pdf.Rasterizer,
	cfg config.ExtractionConfig,
	logger *slog.Logger,
) *Service {
	return &Service{
		drive:      driveClient,
		extractor:  extractor,
		store:      st,
		cache:      ca,
		pacer:      pacer,
		text:       text,
		rasterizer: rasterizer,
		cfg:        cfg,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Trigger creates a queued job for folderID and dispatches the pipeline in a
// background goroutine. Returns the job immediately.
func (s *Service) Trigger(ctx context.Context, folderID string) (*models.Job, error) {
	if folderID == "" {
		return nil, fmt.Errorf("folder_id is required")
	}

	job := models.NewJob(folderID)
	if err := s.store.CreateJob(ctx, job); err != nil {
		return nil, fmt.Errorf("creating job: %w", err)
	}

	s.setCachedStatus(ctx, job.ID, models.JobStatusQueued)

	go s.run(job.ID, folderID)

	return job, nil
}

// GetJob returns the current job state.
func (s *Service) GetJob(ctx context.Context, jobID string) (*models.Job, error) {
	return s.store.GetJob(ctx, jobID)
}

// run executes the whole pipeline for one job. It recovers from panics and
// always leaves the job in a terminal state.
func (s *Service) run(jobID, folderID string) {
	ctx := context.Background()

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("panic in audit job", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, fmt.Sprintf("panic: %v", r))
		}
	}()

	started := s.now()
	_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.StartedAt = &started
	})
	s.setCachedStatus(ctx, jobID, models.JobStatusProcessing)

	if err := s.process(ctx, jobID, folderID); err != nil {
		s.logger.Error("audit job failed", "job_id", jobID, "folder_id", folderID, "error", err)
		s.fail(ctx, jobID, err.Error())
		return
	}

	s.logger.Info("audit job finished", "job_id", jobID, "folder_id", folderID)
}

func (s *Service) process(ctx context.Context, jobID, folderID string) error {
	files, err := s.drive.ListPDFs(ctx, folderID)
	if err != nil {
		return fmt.Errorf("listing folder: %w", err)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Name
	}
	_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.DocumentosEncontrados = len(files)
		j.Archivos = names
	})

	outName := "AUDITORIA_" + s.now().Format("20060102_150405")
	outFolder, err := s.drive.CreateFolder(ctx, folderID, outName)
	if err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}
	_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.OutputFolderID = outFolder.ID
		j.OutputFolderName = outName
	})

	workDir, err := os.MkdirTemp("", "audimed-*")
	if err != nil {
		return fmt.Errorf("creating workspace: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(workDir); err != nil {
			s.logger.Warn("failed to remove workspace", "dir", workDir, "error", err)
		}
	}()

	var results []models.DocumentResult
	for i, f := range files {
		s.setDetail(ctx, jobID, fmt.Sprintf("Descargando %d/%d: %s", i+1, len(files), f.Name))

		data, err := s.drive.Download(ctx, f.ID)
		if err != nil {
			return fmt.Errorf("downloading %s: %w", f.Name, err)
		}
		localPath := filepath.Join(workDir, f.Name)
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", f.Name, err)
		}

		s.setDetail(ctx, jobID, fmt.Sprintf("Procesando %d/%d: %s", i+1, len(files), f.Name))

		result, err := s.processPDF(ctx, localPath, f.Name, data, workDir)
		if err != nil {
			return fmt.Errorf("processing %s: %w", f.Name, err)
		}
		results = append(results, result)

		_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
			j.DocumentosProcesados = len(results)
			j.Documentos = append([]models.DocumentResult(nil), results...)
		})
	}

	caseFile := models.CaseFile{Documentos: results}

	s.setDetail(ctx, jobID, "Generando informe final (GPT)")
	finalReport, err := s.extractor.GenerateReport(ctx, caseFile)
	if err != nil {
		return fmt.Errorf("generating report: %w", err)
	}

	generated := s.now()
	jsonBytes, err := report.RenderJSON(models.AuditResult{
		JobID:                jobID,
		FolderID:             folderID,
		Generado:             generated,
		DocumentosProcesados: len(results),
		Documentos:           results,
		Informe:              finalReport,
	})
	if err != nil {
		return err
	}

	htmlBytes, err := report.RenderHTML(jobID, folderID, finalReport, caseFile, generated)
	if err != nil {
		return err
	}

	pdfBytes, err := report.RenderPDF(jobID, folderID, finalReport, generated)
	if err != nil {
		return err
	}

	s.setDetail(ctx, jobID, "Subiendo resultados a Drive")

	upJSON, err := s.drive.Upload(ctx, outFolder.ID, "resultado_legajo.json", "application/json", jsonBytes)
	if err != nil {
		return fmt.Errorf("uploading json: %w", err)
	}
	upHTML, err := s.drive.Upload(ctx, outFolder.ID, "informe.html", "text/html", htmlBytes)
	if err != nil {
		return fmt.Errorf("uploading html: %w", err)
	}
	upPDF, err := s.drive.Upload(ctx, outFolder.ID, "informe.pdf", "application/pdf", pdfBytes)
	if err != nil {
		return fmt.Errorf("uploading pdf: %w", err)
	}

	finished := s.now()
	err = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusFinished
		j.StatusDetail = ""
		j.FinishedAt = &finished
		j.DocumentosProcesados = len(results)
		j.Outputs = &models.JobOutputs{
			JSON: models.OutputRef{ID: upJSON.ID, Name: upJSON.Name, URL: upJSON.WebViewLink},
			HTML: models.OutputRef{ID: upHTML.ID, Name: upHTML.Name, URL: upHTML.WebViewLink},
			PDF:  models.OutputRef{ID: upPDF.ID, Name: upPDF.Name, URL: upPDF.WebViewLink},
		}
		j.Resumen = finalReport.ResumenClinico
	})
	if err != nil {
		return fmt.Errorf("finalizing job: %w", err)
	}
	s.setCachedStatus(ctx, jobID, models.JobStatusFinished)
	return nil
}

// processPDF extracts one document. Digital PDFs get a single text call;
// scanned PDFs are rasterized and each page goes through the vision path, in
// page order, paced between calls.
func (s *Service) processPDF(ctx context.Context, pdfPath, pdfName string, data []byte, workDir string) (models.DocumentResult, error) {
	text, _, err := s.text.ExtractText(data)
	if err != nil {
		s.logger.Warn("text extraction failed, falling back to vision", "file", pdfName, "error", err)
		text = ""
	}

	if pdf.HasMeaningfulText(text, s.cfg.MinTextChars, s.cfg.LetterRun) {
		data, err := s.extractor.ExtractFromText(ctx, pdfName, text)
		if err != nil {
			return models.DocumentResult{}, err
		}
		return models.DocumentResult{
			Archivo:            pdfName,
			TipoProcesamiento:  models.ProcessingDigitalText,
			TextoExtraidoChars: len(text),
			Resultado:          &data,
		}, nil
	}

	imgDir := filepath.Join(workDir, "img")
	images, err := s.rasterizer.Render(ctx, pdfPath, imgDir)
	if err != nil {
		return models.DocumentResult{}, err
	}

	var pages []models.PageResult
	for idx, imgPath := range images {
		if err := s.pacer.Wait(ctx); err != nil {
			return models.DocumentResult{}, err
		}
		data, err := s.extractor.ExtractFromImage(ctx, imgPath)
		if err != nil {
			return models.DocumentResult{}, err
		}
		pages = append(pages, models.PageResult{
			Pagina:    idx + 1,
			Imagen:    filepath.Base(imgPath),
			Resultado: data,
		})
	}

	return models.DocumentResult{
		Archivo:           pdfName,
		TipoProcesamiento: models.ProcessingVisionOCR,
		Paginas:           len(images),
		ResultadoPaginas:  pages,
	}, nil
}

func (s *Service) fail(ctx context.Context, jobID, msg string) {
	finished := s.now()
	_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.Status = models.JobStatusError
		j.ErrorMessage = msg
		j.FinishedAt = &finished
	})
	s.setCachedStatus(ctx, jobID, models.JobStatusError)
}

func (s *Service) setDetail(ctx context.Context, jobID, detail string) {
	_ = s.store.UpdateJob(ctx, jobID, func(j *models.Job) {
		j.StatusDetail = detail
	})
}

func (s *Service) setCachedStatus(ctx context.Context, jobID, status string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.SetJobStatus(ctx, jobID, status, jobStatusTTL)
}
