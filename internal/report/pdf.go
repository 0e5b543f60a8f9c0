package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/mnardelli/audimed/pkg/models"
)

// RenderPDF produces the printable report: A4, 2cm margins, same sections as
// the HTML version. Text is translated to cp1252 so accented Spanish renders
// with the core Helvetica font.
func RenderPDF(jobID, folderID string, report models.AuditReport, now time.Time) ([]byte, error) {
	doc := fpdf.New("P", "cm", "A4", "")
	doc.SetMargins(2, 2, 2)
	doc.SetAutoPageBreak(true, 2)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	heading := func(text string, size float64) {
		doc.SetFont("Helvetica", "B", size)
		doc.CellFormat(0, 0.8, tr(text), "", 1, "L", false, 0, "")
	}
	paragraph := func(text string) {
		doc.SetFont("Helvetica", "", 10)
		doc.MultiCell(0, 0.45, tr(text), "", "L", false)
		doc.Ln(0.25)
	}
	list := func(items []string) {
		if len(items) == 0 {
			paragraph("- (sin datos)")
			return
		}
		for _, it := range items {
			paragraph("- " + it)
		}
	}

	heading("Informe de Auditoría Médica Automatizada (IA)", 16)
	doc.SetFont("Helvetica", "", 9)
	doc.CellFormat(0, 0.8,
		tr(fmt.Sprintf("Job: %s   Folder: %s   Fecha: %s", jobID, folderID, now.Format("2006-01-02 15:04:05"))),
		"", 1, "L", false, 0, "")

	heading("Resumen clínico", 12)
	paragraph(report.ResumenClinico)

	heading("Diagnóstico presuntivo", 12)
	paragraph(report.DiagnosticoPresuntivo)

	heading("Justificación", 12)
	list(report.Justificacion)

	heading("Evaluación de cobertura", 12)
	list(report.EvaluacionCobertura)

	heading("Recomendaciones", 12)
	list(report.Recomendaciones)

	heading("Red flags / inconsistencias", 12)
	list(report.RedFlags)

	heading("Pendientes", 12)
	list(report.Pendientes)

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf report: %w", err)
	}
	return buf.Bytes(), nil
}
