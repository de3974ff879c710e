package card

import "time"

// PatientInfo holds the patient identification block of a card. All fields
// are free text and blank-tolerant; formatting is a presentation concern.
type PatientInfo struct {
	Name       string `json:"name"`
	BirthDate  string `json:"birthDate"`
	CPF        string `json:"cpf"`
	MotherName string `json:"motherName"`
}

// VaccinationRecord is one row of a vaccination card. The ID is generated
// once at creation, never reused after deletion, and never supplied by the
// extraction model.
type VaccinationRecord struct {
	ID       string `json:"id"`
	Vaccine  string `json:"vaccine"`
	Date     string `json:"date"`
	Batch    string `json:"batch"`
	Location string `json:"location"`
	Dose     string `json:"dose"`
	Notes    string `json:"notes"`
}

// VaccinationCard is the unit of session state: patient info plus the
// ordered record sequence. Record order is insertion order; ExtractedAt is
// stamped once per successful extraction and never mutated by edits.
type VaccinationCard struct {
	Patient     PatientInfo         `json:"patient"`
	Records     []VaccinationRecord `json:"records"`
	ExtractedAt time.Time           `json:"extractedAt"`
	ImageURL    string              `json:"imageUrl,omitempty"`
}

// EmptyCard returns the default card: all-blank patient, no records.
func EmptyCard() VaccinationCard {
	return VaccinationCard{
		Records: []VaccinationRecord{},
	}
}

// Clone returns a copy whose record slice is independent of the original.
func (c VaccinationCard) Clone() VaccinationCard {
	records := make([]VaccinationRecord, len(c.Records))
	copy(records, c.Records)
	c.Records = records
	return c
}
