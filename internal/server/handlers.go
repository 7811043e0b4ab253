package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Tiliavir/rapportini/internal/csvcodec"
	"github.com/Tiliavir/rapportini/internal/logging"
	"github.com/Tiliavir/rapportini/internal/model"
	"github.com/Tiliavir/rapportini/internal/storage"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, response{Success: true, Message: "ok"})
}

// handleList returns every record in storage order. The front end sorts.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.LoadAll()
	if err != nil {
		writeErr(w, r, err, "Could not read records")
		return
	}
	writeJSON(w, http.StatusOK, response{Success: true, Data: records})
}

// decodeRecord reads and validates a record from the request body.
func decodeRecord(w http.ResponseWriter, r *http.Request) (model.Record, bool) {
	var rec model.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Invalid JSON body: " + err.Error()})
		return rec, false
	}
	if err := rec.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: err.Error()})
		return rec, false
	}
	return rec, true
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	stored, err := s.store.Insert(rec)
	if err != nil && warningFor(err) == "" {
		writeErr(w, r, err, "Could not save record")
		return
	}
	logging.FromContext(r.Context()).Info("record created", "id", stored.ID)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Record saved", Warning: warningFor(err), Data: stored})
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	stored, err := s.store.Update(id, rec)
	if err != nil && warningFor(err) == "" {
		writeErr(w, r, err, "Could not update record")
		return
	}
	logging.FromContext(r.Context()).Info("record updated", "id", id)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Record updated", Warning: warningFor(err), Data: stored})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	err := s.store.Remove(id)
	if err != nil && warningFor(err) == "" {
		writeErr(w, r, err, "Could not delete record")
		return
	}
	logging.FromContext(r.Context()).Info("record deleted", "id", id)
	writeJSON(w, http.StatusOK, response{Success: true, Message: "Record deleted", Warning: warningFor(err)})
}

// handleExport serves the CSV projection as a download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	data, err := s.store.ExportCSV()
	if err != nil {
		writeErr(w, r, err, "CSV file not found")
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", storage.ExportFile))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// handleImport appends the records of a raw CSV body to the store.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxImportBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Could not read CSV body: " + err.Error()})
		return
	}
	text, err := csvcodec.Normalize(raw)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, response{Message: "Could not decode CSV body: " + err.Error()})
		return
	}

	records, count, err := csvcodec.Decode(text)
	if err != nil {
		writeErr(w, r, err, "CSV is empty")
		return
	}

	n, err := s.store.Import(records)
	if err != nil && warningFor(err) == "" {
		writeErr(w, r, err, "Could not save imported records")
		return
	}
	logging.FromContext(r.Context()).Info("csv imported", "records", count)
	writeJSON(w, http.StatusOK, response{Success: true, Message: fmt.Sprintf("Imported %d records", n), Warning: warningFor(err)})
}
