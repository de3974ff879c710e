package card

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/LeviLucena/VacinaDigital/internal/extraction"
)

// IDGenerator generates unique IDs for records and sessions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type uuidGenerator struct{}

func (uuidGenerator) Generate() string {
	return uuid.NewString()
}

type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now().UTC()
}

// Service is the extraction gateway: it decodes the submitted image, calls
// the vision model provider and normalizes the result into a card. It is
// stateless and keeps nothing between calls.
type Service struct {
	extractor extraction.Extractor
	idGen     IDGenerator
	clock     TimeSource
}

// NewService creates a new Service with default ID generator and clock.
// A nil extractor is allowed; extraction then fails with ErrNotConfigured,
// so the gateway can run before a credential is provisioned.
func NewService(extractor extraction.Extractor) *Service {
	return NewServiceWithDeps(extractor, uuidGenerator{}, systemClock{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(extractor extraction.Extractor, idGen IDGenerator, clock TimeSource) *Service {
	return &Service{
		extractor: extractor,
		idGen:     idGen,
		clock:     clock,
	}
}

// ExtractCard runs one extraction: image payload in, populated card out.
// Every record gets a freshly generated ID and ExtractedAt is stamped with
// the current time. No retry happens at this layer.
func (s *Service) ExtractCard(ctx context.Context, imagePayload string) (*VaccinationCard, error) {
	if strings.TrimSpace(imagePayload) == "" {
		return nil, ErrNoImage
	}
	if s.extractor == nil {
		slog.Error("extraction requested but no provider is configured")
		return nil, ErrNotConfigured
	}

	imageData, mimeType, err := extraction.DecodeImage(imagePayload)
	if err != nil {
		slog.Error("decoding image payload", "error", err)
		return nil, ErrBadImage.Wrap(err)
	}

	data, err := s.extractor.ExtractCard(ctx, imageData, mimeType)
	if err != nil {
		return nil, classifyExtractionError(err)
	}

	records := make([]VaccinationRecord, 0, len(data.Records))
	for _, r := range data.Records {
		records = append(records, VaccinationRecord{
			ID:       s.idGen.Generate(),
			Vaccine:  r.Vaccine,
			Date:     r.Date,
			Batch:    r.Batch,
			Location: r.Location,
			Dose:     r.Dose,
			Notes:    r.Notes,
		})
	}

	return &VaccinationCard{
		Patient: PatientInfo{
			Name:       data.Patient.Name,
			BirthDate:  data.Patient.BirthDate,
			CPF:        data.Patient.CPF,
			MotherName: data.Patient.MotherName,
		},
		Records:     records,
		ExtractedAt: s.clock.Now(),
	}, nil
}

// classifyExtractionError maps provider failures to the gateway taxonomy.
// Raw upstream detail is logged here and never reaches the client payload.
func classifyExtractionError(err error) *Error {
	switch {
	case errors.Is(err, extraction.ErrRateLimited):
		slog.Warn("upstream rate limited")
		return ErrRateLimited.Wrap(err)
	case errors.Is(err, extraction.ErrNoStructuredOutput):
		slog.Error("model returned no structured payload", "error", err)
		return ErrExtraction.Wrap(err)
	case errors.Is(err, extraction.ErrBadImage):
		slog.Error("image payload rejected by provider", "error", err)
		return ErrBadImage.Wrap(err)
	case errors.Is(err, extraction.ErrUpstream):
		slog.Error("upstream model error", "error", err)
		return ErrUpstream.Wrap(err)
	default:
		slog.Error("unexpected extraction failure", "error", err)
		return ErrInternal.Wrap(err)
	}
}
