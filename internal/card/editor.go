package card

// EditState identifies the edit mode of the record list.
type EditState int

const (
	Viewing EditState = iota
	Editing
)

// Editor is the per-row edit state machine for the record list. There is a
// single working-copy slot: starting an edit on one row silently abandons
// any edit already in progress, and the committed sequence is untouched
// until Save. Edit operations never fail; inputs are trusted free text.
type Editor struct {
	state   EditState
	working VaccinationRecord
	idGen   IDGenerator
}

// NewEditor creates an Editor with the default UUID generator.
func NewEditor() *Editor {
	return NewEditorWithIDs(uuidGenerator{})
}

// NewEditorWithIDs creates an Editor with a custom ID generator for testing.
func NewEditorWithIDs(idGen IDGenerator) *Editor {
	return &Editor{idGen: idGen}
}

// State returns the current edit mode.
func (e *Editor) State() EditState {
	return e.state
}

// Working returns the working copy when a row is being edited.
func (e *Editor) Working() (VaccinationRecord, bool) {
	if e.state != Editing {
		return VaccinationRecord{}, false
	}
	return e.working, true
}

// StartEdit captures a working copy of the record with the given ID and
// moves that row into editing. Returns false when no such record exists.
func (e *Editor) StartEdit(records []VaccinationRecord, id string) bool {
	for _, r := range records {
		if r.ID == id {
			e.state = Editing
			e.working = r
			return true
		}
	}
	return false
}

// UpdateField mutates only the working copy. Unknown field names are
// ignored.
func (e *Editor) UpdateField(field, value string) {
	if e.state != Editing {
		return
	}
	switch field {
	case "vaccine":
		e.working.Vaccine = value
	case "date":
		e.working.Date = value
	case "batch":
		e.working.Batch = value
	case "location":
		e.working.Location = value
	case "dose":
		e.working.Dose = value
	case "notes":
		e.working.Notes = value
	}
}

// Save commits the working copy over the record with the same ID, position
// preserved, and returns the updated sequence. Without an edit in progress
// the sequence is returned unchanged.
func (e *Editor) Save(records []VaccinationRecord) []VaccinationRecord {
	if e.state != Editing {
		return records
	}
	out := make([]VaccinationRecord, len(records))
	copy(out, records)
	for i := range out {
		if out[i].ID == e.working.ID {
			out[i] = e.working
			break
		}
	}
	e.clear()
	return out
}

// Cancel discards the working copy and returns to viewing.
func (e *Editor) Cancel() {
	e.clear()
}

// Delete removes the record with the given ID, keeping relative order of
// the rest. Deleting the row currently being edited also clears the edit
// state so no working copy dangles on a removed row.
func (e *Editor) Delete(records []VaccinationRecord, id string) []VaccinationRecord {
	out := make([]VaccinationRecord, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	if e.state == Editing && e.working.ID == id {
		e.clear()
	}
	return out
}

// Add appends a blank record with a fresh ID and immediately starts editing
// it.
func (e *Editor) Add(records []VaccinationRecord) []VaccinationRecord {
	rec := VaccinationRecord{ID: e.idGen.Generate()}
	out := make([]VaccinationRecord, 0, len(records)+1)
	out = append(out, records...)
	out = append(out, rec)
	e.state = Editing
	e.working = rec
	return out
}

func (e *Editor) clear() {
	e.state = Viewing
	e.working = VaccinationRecord{}
}
