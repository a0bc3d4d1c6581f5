package domain

import "time"

type DocumentStatus string

const (
	StatusReceived         DocumentStatus = "received"
	StatusProcessing       DocumentStatus = "processing"
	StatusAwaitingDecision DocumentStatus = "awaiting_decision"
	StatusRouted           DocumentStatus = "routed"
	StatusFailed           DocumentStatus = "failed"
)

// TextOrigin records which extraction tier produced the document text.
type TextOrigin string

const (
	OriginNative  TextOrigin = "native"
	OriginOptical TextOrigin = "optical"
)

type Document struct {
	ID             string         `json:"id"`
	OriginalName   string         `json:"original_name"`
	SourcePath     string         `json:"source_path"`
	ArchivedPath   string         `json:"archived_path,omitempty"`
	SizeBytes      int64          `json:"size_bytes"`
	Pages          int            `json:"pages"`
	TextOrigin     TextOrigin     `json:"text_origin,omitempty"`
	DetectedLang   string         `json:"detected_lang,omitempty"`
	LangConfidence float64        `json:"lang_confidence,omitempty"`
	Status         DocumentStatus `json:"status"`
	ErrorKind      string         `json:"error_kind,omitempty"`
	Error          string         `json:"error,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// Extraction is the result of the tiered text extraction pass.
// Origin is optical only when the OCR fallback actually ran.
type Extraction struct {
	Text      string     `json:"text"`
	Origin    TextOrigin `json:"origin"`
	Pages     int        `json:"pages"`
	SizeBytes int64      `json:"size_bytes"`
}

// HasTextLayer reports whether the document carried a usable native
// text layer before any OCR rewrite.
func (e Extraction) HasTextLayer() bool {
	return e.Origin == OriginNative && e.Text != ""
}
