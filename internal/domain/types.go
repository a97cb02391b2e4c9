package domain

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Answer is a checklist response. The zero value means the question was
// left unanswered.
type Answer string

const (
	AnswerUnset         Answer = ""
	AnswerYes           Answer = "Sí"
	AnswerNo            Answer = "No"
	AnswerNotApplicable Answer = "N/A"
)

// ParseAnswer accepts the stored labels plus a few common spellings.
func ParseAnswer(s string) (Answer, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AnswerUnset, nil
	case "sí", "si", "yes", "y":
		return AnswerYes, nil
	case "no", "n":
		return AnswerNo, nil
	case "n/a", "na", "notapplicable", "not_applicable":
		return AnswerNotApplicable, nil
	}
	return AnswerUnset, fmt.Errorf("unknown answer %q", s)
}

func (a *Answer) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*a = AnswerUnset
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseAnswer(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ImageRef points at a raster: either inline pixel data or a URL/storage key.
// It is encoded in JSON as a single string; inline data becomes a data: URI.
type ImageRef struct {
	URL  string
	Data []byte
}

func (r ImageRef) IsZero() bool {
	return r.URL == "" && len(r.Data) == 0
}

// Key identifies the reference for de-duplication and logging.
func (r ImageRef) Key() string {
	if len(r.Data) > 0 {
		return fmt.Sprintf("inline:%d", len(r.Data))
	}
	if strings.HasPrefix(r.URL, "data:") && len(r.URL) > 48 {
		return r.URL[:48]
	}
	return r.URL
}

func (r ImageRef) MarshalJSON() ([]byte, error) {
	if len(r.Data) > 0 {
		return json.Marshal("data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(r.Data))
	}
	return json.Marshal(r.URL)
}

func (r *ImageRef) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	r.URL = s
	r.Data = nil
	return nil
}

type AnswerEntry struct {
	Answer      Answer    `json:"answer"`
	Observation string    `json:"observation,omitempty"`
	Photo       *ImageRef `json:"photo,omitempty"`
}

// AuditRecord is one completed checklist submission. Answers are keyed by
// zero-based question index.
type AuditRecord struct {
	ID        int64               `json:"id,omitempty"`
	Auditor   string              `json:"auditor"`
	Area      string              `json:"area"`
	Date      string              `json:"date"`
	Answers   map[int]AnswerEntry `json:"answers"`
	CreatedAt time.Time           `json:"created_at,omitzero"`
}

// Snapshot is one point of the compliance history chart.
type Snapshot struct {
	ID        int64     `json:"id,omitempty"`
	Name      string    `json:"name"`
	Value     float64   `json:"value"`
	CreatedAt time.Time `json:"created_at,omitzero"`
}

// Summary holds the headline statistics printed on every report.
type Summary struct {
	AverageCompliance    float64 `json:"average_compliance"`
	LowestComplianceArea string  `json:"lowest_compliance_area"`
}

// Image is a decoded raster ready for embedding.
type Image struct {
	Data   []byte
	Format string // "png", "jpeg" or "gif"
	Width  int
	Height int
}

// ChartImage is a named raster produced by the charting component.
type ChartImage struct {
	Name string
	*Image
}

// ChartSet carries references to the pre-rendered charts. Questions is
// indexed by question position; nil entries mean no chart.
type ChartSet struct {
	Area      *ImageRef   `json:"area,omitempty"`
	History   *ImageRef   `json:"history,omitempty"`
	Questions []*ImageRef `json:"questions,omitempty"`
}

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatDOCX Format = "docx"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPDF, FormatXLSX, FormatDOCX:
		return f, nil
	}
	return "", fmt.Errorf("unsupported report format %q", s)
}

func (f Format) Extension() string {
	return string(f)
}

func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	default:
		return "application/octet-stream"
	}
}
