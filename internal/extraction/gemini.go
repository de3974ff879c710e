package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

// Gemini implements the Extractor interface using Google Gemini
type Gemini struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// geminiCardSchema mirrors the chat-completions function schema as a genai
// declaration.
func geminiCardSchema() *genai.Schema {
	recordSchema := &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"vaccine":  {Type: genai.TypeString, Description: "Nome da vacina"},
			"date":     {Type: genai.TypeString, Description: "Data de aplicação (DD/MM/AAAA)"},
			"batch":    {Type: genai.TypeString, Description: "Número do lote"},
			"location": {Type: genai.TypeString, Description: "Local de aplicação"},
			"dose":     {Type: genai.TypeString, Description: "Dose (1ª, 2ª, 3ª, Reforço)"},
			"notes":    {Type: genai.TypeString, Description: "Observações adicionais"},
		},
		Required: []string{"vaccine", "date", "batch", "location", "dose", "notes"},
	}

	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"patient": {
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name":       {Type: genai.TypeString, Description: "Nome completo do paciente"},
					"birthDate":  {Type: genai.TypeString, Description: "Data de nascimento (DD/MM/AAAA)"},
					"cpf":        {Type: genai.TypeString, Description: "CPF se visível"},
					"motherName": {Type: genai.TypeString, Description: "Nome da mãe se visível"},
				},
				Required: []string{"name", "birthDate", "cpf", "motherName"},
			},
			"records": {
				Type:  genai.TypeArray,
				Items: recordSchema,
			},
		},
		Required: []string{"patient", "records"},
	}
}

// NewGemini creates a new Gemini Extractor instance
func NewGemini(apiKey string, modelName string) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if modelName == "" {
		modelName = "gemini-2.5-pro"
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	model := client.GenerativeModel(modelName)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemPrompt)},
	}
	model.Tools = []*genai.Tool{
		{
			FunctionDeclarations: []*genai.FunctionDeclaration{
				{
					Name:        extractFunctionName,
					Description: "Extrai dados estruturados de uma caderneta de vacinação",
					Parameters:  geminiCardSchema(),
				},
			},
		},
	}
	// Forces a tool call; free-text answers are treated as extraction failure.
	model.ToolConfig = &genai.ToolConfig{
		FunctionCallingConfig: &genai.FunctionCallingConfig{
			Mode:                 genai.FunctionCallingAny,
			AllowedFunctionNames: []string{extractFunctionName},
		},
	}

	return &Gemini{
		client: client,
		model:  model,
	}, nil
}

// ExtractCard analyzes a vaccination card image and extracts its data
func (g *Gemini) ExtractCard(ctx context.Context, imageData []byte, mimeType string) (*CardData, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	finalImageData, err := prepareImageData(imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadImage, err)
	}

	// After prepareImageData everything is PNG; genai.ImageData expects the
	// bare format suffix, not a full MIME type.
	parts := []genai.Part{
		genai.ImageData("png", finalImageData),
		genai.Text(userPrompt),
	}

	resp, err := g.model.GenerateContent(ctx, parts...)
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusTooManyRequests {
				return nil, ErrRateLimited
			}
			slog.Error("gemini API error", "status", apiErr.Code, "body", apiErr.Body)
			return nil, fmt.Errorf("%w: status %d", ErrUpstream, apiErr.Code)
		}
		return nil, fmt.Errorf("%w: %s", ErrUpstream, err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("%w: no candidates", ErrNoStructuredOutput)
	}

	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok && call.Name == extractFunctionName {
			return cardFromPayload(call.Args)
		}
	}

	return nil, fmt.Errorf("%w: no function call", ErrNoStructuredOutput)
}

// Close closes the Gemini client
func (g *Gemini) Close() error {
	return g.client.Close()
}
