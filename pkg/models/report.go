package models

import "time"

// AuditReport is the structured final report the model produces from a
// consolidated case file.
type AuditReport struct {
	ResumenClinico        string   `json:"resumen_clinico"`
	DiagnosticoPresuntivo string   `json:"diagnostico_presuntivo"`
	Justificacion         []string `json:"justificacion"`
	EvaluacionCobertura   []string `json:"evaluacion_cobertura"`
	Recomendaciones       []string `json:"recomendaciones"`
	RedFlags              []string `json:"red_flags"`
	Pendientes            []string `json:"pendientes"`
}

// AuditResult is the full JSON artifact uploaded next to the HTML/PDF reports.
type AuditResult struct {
	JobID                string           `json:"job_id"`
	FolderID             string           `json:"folder_id"`
	Generado             time.Time        `json:"generado"`
	DocumentosProcesados int              `json:"documentos_procesados"`
	Documentos           []DocumentResult `json:"documentos"`
	Informe              AuditReport      `json:"informe_struct"`
}
