package mock

import (
	"context"

	"github.com/mnardelli/audimed/pkg/models"
)

// MockExtractor satisfies models.Extractor for testing.
type MockExtractor struct {
	Name_                string
	ExtractFromTextFunc  func(ctx context.Context, docName, text string) (models.DocumentData, error)
	ExtractFromImageFunc func(ctx context.Context, imagePath string) (models.DocumentData, error)
	GenerateReportFunc   func(ctx context.Context, caseFile models.CaseFile) (models.AuditReport, error)
}

func (m *MockExtractor) Name() string { return m.Name_ }

func (m *MockExtractor) ExtractFromText(ctx context.Context, docName, text string) (models.DocumentData, error) {
	if m.ExtractFromTextFunc != nil {
		return m.ExtractFromTextFunc(ctx, docName, text)
	}
	return models.DocumentData{}, nil
}

func (m *MockExtractor) ExtractFromImage(ctx context.Context, imagePath string) (models.DocumentData, error) {
	if m.ExtractFromImageFunc != nil {
		return m.ExtractFromImageFunc(ctx, imagePath)
	}
	return models.DocumentData{}, nil
}

func (m *MockExtractor) GenerateReport(ctx context.Context, caseFile models.CaseFile) (models.AuditReport, error) {
	if m.GenerateReportFunc != nil {
		return m.GenerateReportFunc(ctx, caseFile)
	}
	return models.AuditReport{}, nil
}

// NewMockExtractor returns a MockExtractor with sensible default responses.
func NewMockExtractor() *MockExtractor {
	return &MockExtractor{
		Name_: "mock",
		ExtractFromTextFunc: func(_ context.Context, docName, _ string) (models.DocumentData, error) {
			return models.DocumentData{
				TipoDocumento: "documento simulado",
				Observaciones: "extracción simulada de " + docName,
			}, nil
		},
		ExtractFromImageFunc: func(_ context.Context, imagePath string) (models.DocumentData, error) {
			return models.DocumentData{
				TipoDocumento: "página simulada",
				Observaciones: "extracción simulada de " + imagePath,
			}, nil
		},
		GenerateReportFunc: func(_ context.Context, caseFile models.CaseFile) (models.AuditReport, error) {
			return models.AuditReport{
				ResumenClinico:        "Resumen simulado del legajo",
				DiagnosticoPresuntivo: "Sin diagnóstico (simulado)",
				Justificacion:         []string{"informe generado por el proveedor simulado"},
				Recomendaciones:       []string{"revisar manualmente el legajo"},
			}, nil
		},
	}
}

// NewFailingExtractor returns a MockExtractor that always returns the given error.
func NewFailingExtractor(err error) *MockExtractor {
	return &MockExtractor{
		Name_: "mock-failing",
		ExtractFromTextFunc: func(_ context.Context, _, _ string) (models.DocumentData, error) {
			return models.DocumentData{}, err
		},
		ExtractFromImageFunc: func(_ context.Context, _ string) (models.DocumentData, error) {
			return models.DocumentData{}, err
		},
		GenerateReportFunc: func(_ context.Context, _ models.CaseFile) (models.AuditReport, error) {
			return models.AuditReport{}, err
		},
	}
}

// Compile-time check that MockExtractor implements Extractor.
var _ models.Extractor = (*MockExtractor)(nil)
