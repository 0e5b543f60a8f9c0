// Package openai implements the extraction interface on the OpenAI chat
// completions API. All calls run in JSON mode at temperature 0: extraction is
// transcription work, not creative work.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"math"
	"os"

	goopenai "github.com/sashabaranov/go-openai"
	"github.com/mnardelli/audimed/internal/config"
	"github.com/mnardelli/audimed/pkg/models"
)

const systemExtractText = "Sos un auditor médico y administrativo. " +
	"Extraés información de texto de documentos de legajo de pacientes. " +
	"Tu salida DEBE ser JSON válido."

const systemExtractVision = "Sos un auditor médico y administrativo. " +
	"Extraés información de documentos de legajo de pacientes (turnos, recetas, informes, autorizaciones, etc.). " +
	"Tu salida DEBE ser JSON válido y completo."

const systemReport = "Sos un auditor médico experto. " +
	"Generás un informe formal, claro y defendible, basado SOLO en el legajo aportado."

const documentSchema = `{
  "tipo_documento": "",
  "fecha_documento": "",
  "paciente": {"nombre": "", "dni": "", "cuil": ""},
  "prestador": {"nombre": "", "matricula": "", "institucion": ""},
  "diagnostico_texto": "",
  "medicacion": [{"nombre": "", "dosis": "", "frecuencia": "", "duracion": ""}],
  "estudios": [{"nombre": "", "hallazgos": ""}],
  "procedimientos": [{"nombre": "", "detalle": ""}],
  "cobertura": {"obra_social": "", "plan": "", "autorizacion": "", "vigencia": ""},
  "observaciones": "",
  "items_clave": [""]
}`

const reportSchema = `{
  "resumen_clinico": "",
  "diagnostico_presuntivo": "",
  "justificacion": ["..."],
  "evaluacion_cobertura": ["..."],
  "recomendaciones": ["..."],
  "red_flags": ["..."],
  "pendientes": ["..."]
}`

// Provider implements models.Extractor using OpenAI.
type Provider struct {
	client *goopenai.Client
	cfg    config.AIConfig
}

func NewProvider(cfg config.AIConfig) *Provider {
	return &Provider{client: goopenai.NewClient(cfg.APIKey), cfg: cfg}
}

func (p *Provider) Name() string { return "openai" }

func (p *Provider) ExtractFromText(ctx context.Context, docName, text string) (models.DocumentData, error) {
	prompt := fmt.Sprintf(
		"Documento: %s\n\n"+
			"A partir del texto a continuación, extraé información y devolvé JSON con la misma estructura:\n"+
			"%s\n\n"+
			"Texto:\n"+
			"----------------\n"+
			"%s\n"+
			"----------------\n\n"+
			"No inventes datos.",
		docName, documentSchema, text)

	content, err := p.complete(ctx, p.cfg.TextModel, []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemExtractText},
		{Role: goopenai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return models.DocumentData{}, err
	}
	return parseDocument(content)
}

func (p *Provider) ExtractFromImage(ctx context.Context, imagePath string) (models.DocumentData, error) {
	dataURL, err := imageFileToDataURL(imagePath)
	if err != nil {
		return models.DocumentData{}, err
	}

	prompt := fmt.Sprintf(
		"Extraé y estructurá la información del documento.\n\n"+
			"Devolvé un JSON con esta forma (completá lo que encuentres):\n"+
			"%s\n\n"+
			"Si algo no aparece, dejalo vacío. No inventes.",
		documentSchema)

	content, err := p.complete(ctx, p.cfg.VisionModel, []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemExtractVision},
		{
			Role: goopenai.ChatMessageRoleUser,
			MultiContent: []goopenai.ChatMessagePart{
				{Type: goopenai.ChatMessagePartTypeText, Text: prompt},
				{
					Type:     goopenai.ChatMessagePartTypeImageURL,
					ImageURL: &goopenai.ChatMessageImageURL{URL: dataURL},
				},
			},
		},
	})
	if err != nil {
		return models.DocumentData{}, err
	}
	return parseDocument(content)
}

func (p *Provider) GenerateReport(ctx context.Context, caseFile models.CaseFile) (models.AuditReport, error) {
	consolidated, err := json.Marshal(caseFile)
	if err != nil {
		return models.AuditReport{}, fmt.Errorf("marshal case file: %w", err)
	}

	prompt := fmt.Sprintf(
		"Con la información consolidada del legajo (JSON), generá un informe formal con:\n"+
			"1) Resumen clínico\n"+
			"2) Diagnóstico presuntivo / problema principal (si se infiere)\n"+
			"3) Justificación (evidencia en el legajo)\n"+
			"4) Evaluación de cobertura (si hay datos)\n"+
			"5) Recomendación y próximos pasos\n"+
			"6) Red flags / inconsistencias\n"+
			"7) Pendientes de información (qué falta pedir)\n\n"+
			"Devolvé SOLO JSON con esta estructura:\n"+
			"%s\n\n"+
			"JSON del legajo:\n"+
			"%s",
		reportSchema, consolidated)

	content, err := p.complete(ctx, p.cfg.TextModel, []goopenai.ChatCompletionMessage{
		{Role: goopenai.ChatMessageRoleSystem, Content: systemReport},
		{Role: goopenai.ChatMessageRoleUser, Content: prompt},
	})
	if err != nil {
		return models.AuditReport{}, err
	}

	var report models.AuditReport
	if err := json.Unmarshal([]byte(content), &report); err != nil {
		return models.AuditReport{}, fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	return report, nil
}

func (p *Provider) complete(ctx context.Context, model string, messages []goopenai.ChatCompletionMessage) (string, error) {
	if p.cfg.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.RequestTimeout)
		defer cancel()
	}

	resp, err := p.client.CreateChatCompletion(ctx, newChatRequest(model, p.cfg.MaxTokens, messages))
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", models.ErrInvalidResponse)
	}
	return resp.Choices[0].Message.Content, nil
}

// newChatRequest builds a deterministic JSON-mode request. The temperature is
// the smallest positive float rather than 0: the client serializes the field
// with omitempty, so a literal 0 never reaches the API and it falls back to
// its default of 1.
func newChatRequest(model string, maxTokens int, messages []goopenai.ChatCompletionMessage) goopenai.ChatCompletionRequest {
	return goopenai.ChatCompletionRequest{
		Model:       model,
		Temperature: math.SmallestNonzeroFloat32,
		MaxTokens:   maxTokens,
		ResponseFormat: &goopenai.ChatCompletionResponseFormat{
			Type: goopenai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: messages,
	}
}

func parseDocument(content string) (models.DocumentData, error) {
	var data models.DocumentData
	if err := json.Unmarshal([]byte(content), &data); err != nil {
		return models.DocumentData{}, fmt.Errorf("%w: %v", models.ErrInvalidResponse, err)
	}
	return data, nil
}

func imageFileToDataURL(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image %s: %w", path, err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(raw), nil
}

var _ models.Extractor = (*Provider)(nil)
