package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html/template"
	"time"

	"github.com/mnardelli/audimed/pkg/models"
)

var htmlTmpl = template.Must(template.New("informe").Parse(`<!doctype html>
<html lang="es">
<head>
  <meta charset="utf-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>Informe Auditoría Médica IA</title>
  <style>
    body { font-family: Arial, sans-serif; margin: 24px; color: #111; }
    .header { border-bottom: 2px solid #ddd; padding-bottom: 12px; margin-bottom: 18px; }
    .meta { color: #444; font-size: 12px; }
    h1 { font-size: 22px; margin: 0; }
    h2 { font-size: 16px; margin-top: 18px; border-left: 4px solid #999; padding-left: 8px; }
    p { line-height: 1.45; }
    ul { margin-top: 6px; }
    .box { background: #f7f7f7; padding: 12px; border-radius: 8px; }
    .small { font-size: 12px; color: #555; }
    code { background: #eee; padding: 2px 6px; border-radius: 6px; }
    .footer { margin-top: 24px; border-top: 1px solid #eee; padding-top: 10px; }
    details { margin-top: 12px; }
    pre { white-space: pre-wrap; word-wrap: break-word; background: #fafafa; padding: 10px; border: 1px solid #eee; border-radius: 8px; }
  </style>
</head>
<body>
  <div class="header">
    <h1>Informe de Auditoría Médica Automatizada (IA)</h1>
    <div class="meta">
      Job: <code>{{.JobID}}</code> — Folder: <code>{{.FolderID}}</code> — Generado: {{.Generated}}
    </div>
  </div>

  <h2>Resumen clínico</h2>
  <div class="box"><p>{{.Report.ResumenClinico}}</p></div>

  <h2>Diagnóstico presuntivo</h2>
  <p>{{.Report.DiagnosticoPresuntivo}}</p>

  <h2>Justificación</h2>
  <ul>
    {{template "items" .Report.Justificacion}}
  </ul>

  <h2>Evaluación de cobertura</h2>
  <ul>
    {{template "items" .Report.EvaluacionCobertura}}
  </ul>

  <h2>Recomendaciones</h2>
  <ul>
    {{template "items" .Report.Recomendaciones}}
  </ul>

  <h2>Red flags / inconsistencias</h2>
  <ul>
    {{template "items" .Report.RedFlags}}
  </ul>

  <h2>Pendientes de información</h2>
  <ul>
    {{template "items" .Report.Pendientes}}
  </ul>

  <details>
    <summary class="small">Ver JSON consolidado (debug)</summary>
    <pre>{{.ConsolidatedJSON}}</pre>
  </details>

  <div class="footer small">
    Documento generado automáticamente. Validar clínicamente antes de decisiones prestacionales.
  </div>
</body>
</html>
{{define "items"}}{{if .}}{{range .}}<li>{{.}}</li>
    {{end}}{{else}}<li>(sin datos)</li>{{end}}{{end}}`))

type htmlData struct {
	JobID            string
	FolderID         string
	Generated        string
	Report           models.AuditReport
	ConsolidatedJSON string
}

// RenderHTML produces the human-readable report. The consolidated case file is
// embedded verbatim in a collapsed debug block.
func RenderHTML(jobID, folderID string, report models.AuditReport, caseFile models.CaseFile, now time.Time) ([]byte, error) {
	consolidated, err := json.MarshalIndent(caseFile, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal case file: %w", err)
	}

	var buf bytes.Buffer
	err = htmlTmpl.Execute(&buf, htmlData{
		JobID:            jobID,
		FolderID:         folderID,
		Generated:        now.Format("2006-01-02 15:04:05"),
		Report:           report,
		ConsolidatedJSON: string(consolidated),
	})
	if err != nil {
		return nil, fmt.Errorf("render html report: %w", err)
	}
	return buf.Bytes(), nil
}
