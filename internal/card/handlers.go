package card

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// writeJSON writes a JSON response with CORS headers set
func writeJSON(w http.ResponseWriter, status int, v any) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError maps any failure to its taxonomy entry and emits only the
// user-facing message; the cause has already been logged server-side.
func writeError(w http.ResponseWriter, err error) {
	var gwErr *Error
	if !errors.As(err, &gwErr) {
		slog.Error("unclassified handler error", "error", err)
		gwErr = ErrInternal
	}
	writeJSON(w, gwErr.Status, map[string]string{"error": gwErr.Message})
}

// handleHealth reports liveness
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleExtract is the stateless extraction gateway endpoint
func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageBase64 string `json:"imageBase64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding extract request", "error", err)
		writeError(w, ErrInternal.Wrap(err))
		return
	}

	result, err := s.service.ExtractCard(r.Context(), req.ImageBase64)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// session resolves the session referenced by the request path.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (*Session, bool) {
	id := r.PathValue("id")
	session, ok := s.sessions.Get(id)
	if !ok {
		writeError(w, ErrSessionNotFound)
		return nil, false
	}
	return session, true
}

// handleCreateSession opens a fresh session holding the empty card
func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	id, session := s.sessions.Create()
	writeJSON(w, http.StatusCreated, map[string]any{
		"id":    id,
		"state": session.State(),
	})
}

// handleGetSession returns a session state snapshot
func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

// handleDeleteSession discards a session
func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	if _, ok := s.session(w, r); !ok {
		return
	}
	s.sessions.Delete(r.PathValue("id"))
	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}

// handleSessionExtract runs an extraction through the session controller
func (s *Server) handleSessionExtract(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var req struct {
		ImageBase64 string `json:"imageBase64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		slog.Error("Error decoding extract request", "error", err)
		writeError(w, ErrInternal.Wrap(err))
		return
	}

	state, err := session.Extract(r.Context(), req.ImageBase64)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleUpdatePatient structurally replaces the patient block
func (s *Server) handleUpdatePatient(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var patient PatientInfo
	if err := json.NewDecoder(r.Body).Decode(&patient); err != nil {
		slog.Error("Error decoding patient", "error", err)
		writeError(w, ErrInternal.Wrap(err))
		return
	}
	writeJSON(w, http.StatusOK, session.UpdatePatient(patient))
}

// handleUpdateRecords commits a caller-supplied record sequence
func (s *Server) handleUpdateRecords(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var records []VaccinationRecord
	if err := json.NewDecoder(r.Body).Decode(&records); err != nil {
		slog.Error("Error decoding records", "error", err)
		writeError(w, ErrInternal.Wrap(err))
		return
	}
	writeJSON(w, http.StatusOK, session.UpdateRecords(records))
}

// handleReset restores the empty card and clears the processed flag
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.Reset())
}

// handleAddRecord appends a blank record and opens it for editing
func (s *Server) handleAddRecord(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusCreated, session.AddRecord())
}

// handleStartEdit opens a record for editing
func (s *Server) handleStartEdit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	state, found := session.StartEdit(r.PathValue("rid"))
	if !found {
		writeError(w, ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleSaveRecord applies field values to the working copy and commits it
func (s *Server) handleSaveRecord(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	var fields map[string]string
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		slog.Error("Error decoding record fields", "error", err)
		writeError(w, ErrInternal.Wrap(err))
		return
	}

	state, saved := session.SaveRecord(r.PathValue("rid"), fields)
	if !saved {
		writeError(w, ErrRecordNotFound)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleCancelEdit discards the working copy
func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.CancelEdit())
}

// handleDeleteRecord removes a record from the committed sequence
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, session.DeleteRecord(r.PathValue("rid")))
}

// handleDocument renders the printable document for the session's card
func (s *Server) handleDocument(w http.ResponseWriter, r *http.Request) {
	session, ok := s.session(w, r)
	if !ok {
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := RenderDocument(w, session.State().Card); err != nil {
		slog.Error("Error rendering document", "error", err)
	}
}
