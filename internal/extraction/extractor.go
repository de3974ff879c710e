package extraction

import (
	"context"
	"errors"
)

// PatientData holds the patient block of a model response.
type PatientData struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birthDate"`
	CPF        string `json:"cpf"`
	MotherName string `json:"motherName"`
}

// RecordData is a single vaccination entry as returned by the model.
// Identifiers are assigned later; the model never supplies them.
type RecordData struct {
	Vaccine  string `json:"vaccine"`
	Date     string `json:"date"`
	Batch    string `json:"batch"`
	Location string `json:"location"`
	Dose     string `json:"dose"`
	Notes    string `json:"notes"`
}

// CardData contains everything extracted from one vaccination card image.
type CardData struct {
	Patient PatientData  `json:"patient"`
	Records []RecordData `json:"records"`
}

var (
	// ErrRateLimited indicates the upstream model rejected the call with a
	// rate-limiting response.
	ErrRateLimited = errors.New("upstream rate limit exceeded")

	// ErrNoStructuredOutput indicates the model answered but did not honor
	// the structured function-call contract.
	ErrNoStructuredOutput = errors.New("no structured payload in model response")

	// ErrUpstream indicates any other non-success response from the model.
	ErrUpstream = errors.New("upstream model error")

	// ErrBadImage indicates the submitted image payload could not be decoded.
	ErrBadImage = errors.New("decoding image payload")
)

// Extractor defines the interface for vaccination card extraction providers.
type Extractor interface {
	// ExtractCard analyzes a card image and extracts patient and record data
	ExtractCard(ctx context.Context, imageData []byte, mimeType string) (*CardData, error)
	// Close closes the provider and releases resources
	Close() error
}
