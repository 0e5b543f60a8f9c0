package models

// Processing modes recorded per document.
const (
	ProcessingDigitalText = "texto_digital"
	ProcessingVisionOCR   = "vision_ocr"
)

// DocumentData is the fixed schema every extraction call must return. Field
// names match the JSON contract the extraction prompt demands; anything the
// model cannot find stays empty — the prompt forbids inventing values.
type DocumentData struct {
	TipoDocumento  string          `json:"tipo_documento"`
	FechaDocumento string          `json:"fecha_documento"`
	Paciente       Paciente        `json:"paciente"`
	Prestador      Prestador       `json:"prestador"`
	Diagnostico    string          `json:"diagnostico_texto"`
	Medicacion     []Medicamento   `json:"medicacion"`
	Estudios       []Estudio       `json:"estudios"`
	Procedimientos []Procedimiento `json:"procedimientos"`
	Cobertura      Cobertura       `json:"cobertura"`
	Observaciones  string          `json:"observaciones"`
	ItemsClave     []string        `json:"items_clave"`
}

type Paciente struct {
	Nombre string `json:"nombre"`
	DNI    string `json:"dni"`
	CUIL   string `json:"cuil"`
}

type Prestador struct {
	Nombre      string `json:"nombre"`
	Matricula   string `json:"matricula"`
	Institucion string `json:"institucion"`
}

type Medicamento struct {
	Nombre     string `json:"nombre"`
	Dosis      string `json:"dosis"`
	Frecuencia string `json:"frecuencia"`
	Duracion   string `json:"duracion"`
}

type Estudio struct {
	Nombre    string `json:"nombre"`
	Hallazgos string `json:"hallazgos"`
}

type Procedimiento struct {
	Nombre  string `json:"nombre"`
	Detalle string `json:"detalle"`
}

type Cobertura struct {
	ObraSocial   string `json:"obra_social"`
	Plan         string `json:"plan"`
	Autorizacion string `json:"autorizacion"`
	Vigencia     string `json:"vigencia"`
}

// PageResult is one page of an image-processed document, in page order.
type PageResult struct {
	Pagina    int          `json:"pagina"`
	Imagen    string       `json:"imagen"`
	Resultado DocumentData `json:"resultado_json"`
}

// DocumentResult is the outcome of processing one PDF. Digital-text documents
// carry a single Resultado; scanned documents carry one entry per page.
type DocumentResult struct {
	Archivo            string        `json:"archivo"`
	TipoProcesamiento  string        `json:"tipo_procesamiento"`
	TextoExtraidoChars int           `json:"texto_extraido_chars,omitempty"`
	Resultado          *DocumentData `json:"resultado_json,omitempty"`
	Paginas            int           `json:"paginas,omitempty"`
	ResultadoPaginas   []PageResult  `json:"resultado_paginas,omitempty"`
}

// CaseFile (legajo) is the ordered set of extraction results for one job.
type CaseFile struct {
	Documentos []DocumentResult `json:"documentos"`
}
