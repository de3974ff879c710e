package extraction

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

// extractFunctionSchema is the JSON schema forced on the chat completion.
// Every field is required; the model fills unknown values with "".
const extractFunctionSchema = `{
  "type": "object",
  "properties": {
    "patient": {
      "type": "object",
      "properties": {
        "name": {"type": "string", "description": "Nome completo do paciente"},
        "birthDate": {"type": "string", "description": "Data de nascimento (DD/MM/AAAA)"},
        "cpf": {"type": "string", "description": "CPF se visível"},
        "motherName": {"type": "string", "description": "Nome da mãe se visível"}
      },
      "required": ["name", "birthDate", "cpf", "motherName"]
    },
    "records": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "vaccine": {"type": "string", "description": "Nome da vacina"},
          "date": {"type": "string", "description": "Data de aplicação (DD/MM/AAAA)"},
          "batch": {"type": "string", "description": "Número do lote"},
          "location": {"type": "string", "description": "Local de aplicação"},
          "dose": {"type": "string", "description": "Dose (1ª, 2ª, 3ª, Reforço)"},
          "notes": {"type": "string", "description": "Observações adicionais"}
        },
        "required": ["vaccine", "date", "batch", "location", "dose", "notes"]
      }
    }
  },
  "required": ["patient", "records"]
}`

// OpenAI implements the Extractor interface using the OpenAI chat
// completions API with a forced function call.
type OpenAI struct {
	baseURL string
	model   string
	apiKey  string
	client  *http.Client
}

// NewOpenAI creates a new OpenAI Extractor instance
func NewOpenAI(apiKey, baseURL, modelName string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	if modelName == "" {
		modelName = "gpt-4-turbo"
	}

	return &OpenAI{
		baseURL: baseURL,
		model:   modelName,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout: 120 * time.Second, // vision calls on large photos are slow
		},
	}, nil
}

type chatRequest struct {
	Model        string            `json:"model"`
	Messages     []chatMessage     `json:"messages"`
	Functions    []chatFunction    `json:"functions"`
	FunctionCall map[string]string `json:"function_call"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatFunction struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Parameters  json.RawMessage `json:"parameters"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			FunctionCall *struct {
				Name      string `json:"name"`
				Arguments string `json:"arguments"`
			} `json:"function_call"`
		} `json:"message"`
	} `json:"choices"`
}

// ExtractCard analyzes a vaccination card image and extracts its data
func (o *OpenAI) ExtractCard(ctx context.Context, imageData []byte, mimeType string) (*CardData, error) {
	ctx, cancel := context.WithTimeout(ctx, 120*time.Second)
	defer cancel()

	finalImageData, err := prepareImageData(imageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrBadImage, err)
	}

	dataURL := "data:image/png;base64," + base64.StdEncoding.EncodeToString(finalImageData)

	reqBody := chatRequest{
		Model: o.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{
				Role: "user",
				Content: []contentPart{
					{Type: "text", Text: userPrompt},
					{Type: "image_url", ImageURL: &imageURL{URL: dataURL}},
				},
			},
		},
		Functions: []chatFunction{
			{
				Name:        extractFunctionName,
				Description: "Extrai dados estruturados de uma caderneta de vacinação",
				Parameters:  json.RawMessage(extractFunctionSchema),
			},
		},
		FunctionCall: map[string]string{"name": extractFunctionName},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/chat/completions", o.baseURL)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling openai API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return nil, ErrRateLimited
	}
	if resp.StatusCode != http.StatusOK {
		// The raw body stays in the server log and is never propagated.
		body, _ := io.ReadAll(resp.Body)
		slog.Error("openai API error", "status", resp.StatusCode, "body", string(body))
		return nil, fmt.Errorf("%w: status %d", ErrUpstream, resp.StatusCode)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %s", ErrUpstream, err)
	}

	if len(chatResp.Choices) == 0 {
		return nil, fmt.Errorf("%w: empty choices", ErrNoStructuredOutput)
	}
	functionCall := chatResp.Choices[0].Message.FunctionCall
	if functionCall == nil || functionCall.Arguments == "" {
		return nil, fmt.Errorf("%w: no function call", ErrNoStructuredOutput)
	}

	return parseCardJSON(functionCall.Arguments)
}

// Close closes the OpenAI client (no-op for HTTP client)
func (o *OpenAI) Close() error {
	return nil
}
