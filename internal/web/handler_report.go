package web

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vbonduro/safetyaudit/internal/domain"
	"github.com/vbonduro/safetyaudit/internal/report"
	"github.com/vbonduro/safetyaudit/internal/service"
)

// reportBody is the optional JSON body of a report request. Audits default
// to the stored ones and Summary is computed when absent.
type reportBody struct {
	Audits  []domain.AuditRecord `json:"audits"`
	Summary *domain.Summary      `json:"stats"`
	Charts  domain.ChartSet      `json:"charts"`
	Date    string               `json:"date"`
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request) {
	format, err := domain.ParseFormat(chi.URLParam(r, "format"))
	if err != nil {
		s.writeError(w, r, errors.Join(report.ErrUnknownFormat, err))
		return
	}

	var body reportBody
	if err := decodeJSON(r, &body); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, r, err)
		return
	}

	var date time.Time
	if body.Date != "" {
		if date, err = time.Parse("2006-01-02", body.Date); err != nil {
			s.writeError(w, r, fmt.Errorf("%w: date must be YYYY-MM-DD", service.ErrInvalid))
			return
		}
	}

	doc, err := s.service.GenerateReport(r.Context(), service.ReportRequest{
		Format:  format,
		Audits:  body.Audits,
		Summary: body.Summary,
		Charts:  body.Charts,
		Date:    date,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	h := w.Header()
	h.Set("Content-Type", doc.ContentType)
	h.Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", doc.Name))
	h.Set("Content-Length", strconv.Itoa(len(doc.Data)))
	h.Set("X-Report-ID", doc.ID)
	h.Set("X-Omitted-Images", strconv.Itoa(doc.Omitted))
	if _, err := w.Write(doc.Data); err != nil {
		s.logger.Error("write report failed", "report_id", doc.ID, "error", err)
	}
}
