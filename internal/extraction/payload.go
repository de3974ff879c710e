package extraction

import (
	"encoding/json"
	"fmt"
	"strings"
)

// extractFunctionName is the structured-output function every provider forces.
const extractFunctionName = "extract_vaccination_data"

// systemPrompt is the shared instruction used by all LLM providers for
// reading Brazilian vaccination cards.
const systemPrompt = `Você é um especialista em análise de cadernetas de vacinação brasileiras. Sua tarefa é extrair todas as informações de vacinação visíveis na imagem.

IMPORTANTE: As cadernetas antigas podem ter formatos variados. Procure por:
- Nomes de vacinas (BCG, DPT, Tríplice, Sabin, Hepatite B, etc.)
- Datas de aplicação (formato DD/MM/AA ou DD/MM/AAAA)
- Números de lote
- Locais de aplicação (siglas de estados, nomes de postos de saúde)
- Rubricas ou assinaturas de profissionais
- Informações do paciente (nome, data de nascimento)

Analise cuidadosamente a letra manuscrita e os carimbos.`

// userPrompt accompanies the card image in the user turn.
const userPrompt = `Analise esta caderneta de vacinação e extraia todas as informações visíveis. Retorne um JSON com a estrutura exata abaixo. Se não conseguir identificar algum campo, deixe como string vazia.`

// parseCardJSON parses a model function-call arguments string into CardData.
// Some models wrap the payload in markdown fences or prose even when asked
// not to, so the JSON object is located before unmarshaling.
func parseCardJSON(text string) (*CardData, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("%w: no JSON object found", ErrNoStructuredOutput)
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("%w: invalid JSON object", ErrNoStructuredOutput)
	}
	text = text[startIdx : endIdx+1]

	var raw map[string]any
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("%w: unmarshaling arguments: %s", ErrNoStructuredOutput, err)
	}

	return cardFromPayload(raw)
}

// cardFromPayload validates an untrusted model payload. The declared schema
// is not assumed to be honored: patient must be an object and records an
// array before any field is read, and every field is coerced to a string
// with missing values becoming "".
func cardFromPayload(raw map[string]any) (*CardData, error) {
	patientRaw, ok := raw["patient"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing patient object", ErrNoStructuredOutput)
	}
	recordsRaw, ok := raw["records"].([]any)
	if !ok {
		return nil, fmt.Errorf("%w: missing records array", ErrNoStructuredOutput)
	}

	data := &CardData{
		Patient: PatientData{
			Name:       stringField(patientRaw, "name"),
			BirthDate:  stringField(patientRaw, "birthDate"),
			CPF:        stringField(patientRaw, "cpf"),
			MotherName: stringField(patientRaw, "motherName"),
		},
		Records: make([]RecordData, 0, len(recordsRaw)),
	}

	for _, entry := range recordsRaw {
		fields, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		data.Records = append(data.Records, RecordData{
			Vaccine:  stringField(fields, "vaccine"),
			Date:     stringField(fields, "date"),
			Batch:    stringField(fields, "batch"),
			Location: stringField(fields, "location"),
			Dose:     stringField(fields, "dose"),
			Notes:    stringField(fields, "notes"),
		})
	}

	return data, nil
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return strings.TrimSpace(s)
}
