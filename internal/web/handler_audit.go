package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/safetyaudit/internal/domain"
)

func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.Checklist(), s.logger)
}

func (s *Server) handleListAudits(w http.ResponseWriter, r *http.Request) {
	audits, err := s.service.ListAudits(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if audits == nil {
		audits = []*domain.AuditRecord{}
	}
	writeJSON(w, http.StatusOK, audits, s.logger)
}

func (s *Server) handleCreateAudit(w http.ResponseWriter, r *http.Request) {
	var a domain.AuditRecord
	if err := decodeJSON(r, &a); err != nil {
		s.writeError(w, r, err)
		return
	}
	created, err := s.service.CreateAudit(r.Context(), a)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created, s.logger)
}

func (s *Server) handleGetAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	a, err := s.service.GetAudit(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, a, s.logger)
}

func (s *Server) handleDeleteAudits(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.DeleteAllAudits(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n}, s.logger)
}

func (s *Server) handleSummarizeAudit(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	text, err := s.service.SummarizeAudit(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	if _, err := w.Write([]byte(text)); err != nil {
		s.logger.Error("write summary failed", "audit_id", id, "error", err)
	}
}

func (s *Server) handleListSnapshots(w http.ResponseWriter, r *http.Request) {
	snaps, err := s.service.ListSnapshots(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if snaps == nil {
		snaps = []*domain.Snapshot{}
	}
	writeJSON(w, http.StatusOK, snaps, s.logger)
}

func (s *Server) handleRecordSnapshot(w http.ResponseWriter, r *http.Request) {
	var body domain.Snapshot
	if err := decodeJSON(r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}
	snap, err := s.service.RecordSnapshot(r.Context(), body.Name, body.Value)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap, s.logger)
}

func (s *Server) handleArchiveCycle(w http.ResponseWriter, r *http.Request) {
	snap, err := s.service.ArchiveCycle(r.Context(), time.Now())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap, s.logger)
}
