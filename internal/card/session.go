package card

import (
	"context"
	"sync"
)

// ExtractionClient performs an extraction on behalf of a session. The
// in-process gateway service and the HTTP client both satisfy it.
type ExtractionClient interface {
	Extract(ctx context.Context, imagePayload string) (*VaccinationCard, error)
}

// ServiceClient adapts the gateway Service as an in-process
// ExtractionClient for single-binary deployments.
type ServiceClient struct {
	service *Service
}

// NewServiceClient wraps a gateway service.
func NewServiceClient(service *Service) *ServiceClient {
	return &ServiceClient{service: service}
}

// Extract runs the extraction directly against the gateway service.
func (c *ServiceClient) Extract(ctx context.Context, imagePayload string) (*VaccinationCard, error) {
	return c.service.ExtractCard(ctx, imagePayload)
}

// State is a read-only snapshot of a session.
type State struct {
	Card         VaccinationCard    `json:"card"`
	IsProcessing bool               `json:"isProcessing"`
	HasProcessed bool               `json:"hasProcessed"`
	Editing      *VaccinationRecord `json:"editing,omitempty"`
}

// Session owns one vaccination card and the Upload→Edit→Preview workflow
// around it. All mutations go through its operations; callers only ever see
// snapshots. The extraction call is the single asynchronous suspension
// point: each call takes a generation token, and only the result matching
// the latest generation is applied, so a reset or a newer extraction
// invalidates results still in flight.
type Session struct {
	mu     sync.Mutex
	client ExtractionClient
	editor *Editor

	card         VaccinationCard
	isProcessing bool
	hasProcessed bool
	generation   uint64
}

// NewSession creates a session holding the empty card.
func NewSession(client ExtractionClient) *Session {
	return NewSessionWithIDs(client, uuidGenerator{})
}

// NewSessionWithIDs creates a session with a custom record ID generator for
// testing.
func NewSessionWithIDs(client ExtractionClient, idGen IDGenerator) *Session {
	return &Session{
		client: client,
		editor: NewEditorWithIDs(idGen),
		card:   EmptyCard(),
	}
}

// State returns a snapshot of the session.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{
		Card:         s.card.Clone(),
		IsProcessing: s.isProcessing,
		HasProcessed: s.hasProcessed,
	}
	if working, ok := s.editor.Working(); ok {
		st.Editing = &working
	}
	return st
}

// Extract sends the image through the extraction client and, on success,
// replaces the card wholesale, keeping the submitted payload as the card
// image. Any failure leaves the card untouched and hasProcessed unset. A
// stale completion (reset or newer extraction happened meanwhile) is
// discarded entirely.
func (s *Session) Extract(ctx context.Context, imagePayload string) (State, error) {
	s.mu.Lock()
	s.generation++
	gen := s.generation
	s.isProcessing = true
	s.mu.Unlock()

	result, err := s.client.Extract(ctx, imagePayload)

	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.generation {
		// A reset or newer extraction superseded this call; its result no
		// longer applies, whatever it was.
		return s.stateLocked(), err
	}

	s.isProcessing = false
	if err != nil {
		return s.stateLocked(), err
	}

	fresh := result.Clone()
	fresh.ImageURL = imagePayload
	s.card = fresh
	s.hasProcessed = true
	s.editor.Cancel()
	return s.stateLocked(), nil
}

// UpdatePatient structurally replaces the patient block, records unchanged.
func (s *Session) UpdatePatient(patient PatientInfo) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.card.Patient = patient
	return s.stateLocked()
}

// UpdateRecords structurally replaces the record sequence with the
// caller-supplied one, order preserved, patient unchanged. The caller is
// trusted to keep IDs unique.
func (s *Session) UpdateRecords(records []VaccinationRecord) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRecordsLocked(records)
	return s.stateLocked()
}

func (s *Session) setRecordsLocked(records []VaccinationRecord) {
	committed := make([]VaccinationRecord, len(records))
	copy(committed, records)
	s.card.Records = committed
}

// Reset restores the empty card, clears the processed flag and the held
// image, and invalidates any extraction still in flight. Unsaved edits are
// discarded without confirmation.
func (s *Session) Reset() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generation++
	s.card = EmptyCard()
	s.isProcessing = false
	s.hasProcessed = false
	s.editor.Cancel()
	return s.stateLocked()
}

// AddRecord appends a blank record and opens it for editing.
func (s *Session) AddRecord() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRecordsLocked(s.editor.Add(s.card.Records))
	return s.stateLocked()
}

// StartEdit opens the record with the given ID for editing. Returns false
// when the record does not exist.
func (s *Session) StartEdit(id string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ok := s.editor.StartEdit(s.card.Records, id)
	return s.stateLocked(), ok
}

// SaveRecord applies the given field values to the working copy and commits
// it over the record being edited. Returns false when no edit is in
// progress or a different row is being edited.
func (s *Session) SaveRecord(id string, fields map[string]string) (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	working, ok := s.editor.Working()
	if !ok || working.ID != id {
		return s.stateLocked(), false
	}
	for field, value := range fields {
		s.editor.UpdateField(field, value)
	}
	s.setRecordsLocked(s.editor.Save(s.card.Records))
	return s.stateLocked(), true
}

// CancelEdit discards the working copy, committed records unchanged.
func (s *Session) CancelEdit() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editor.Cancel()
	return s.stateLocked()
}

// DeleteRecord removes the record with the given ID immediately, no edit
// mode required.
func (s *Session) DeleteRecord(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setRecordsLocked(s.editor.Delete(s.card.Records, id))
	return s.stateLocked()
}
