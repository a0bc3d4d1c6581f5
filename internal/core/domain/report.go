package domain

import (
	"strings"
	"unicode/utf8"
)

// PreviewLimit bounds the text previews carried by reports and
// escalation requests.
const PreviewLimit = 1000

// Report is the canonical per-run result shape handed to external
// consumers once a document has been routed.
type Report struct {
	Status         string         `json:"status"`
	File           ReportFile     `json:"file"`
	Routing        ReportRouting  `json:"routing"`
	Summaries      Summaries      `json:"summaries"`
	ContentPreview ContentPreview `json:"content_preview"`
}

type ReportFile struct {
	OriginalName string `json:"original_name"`
	Pages        int    `json:"pages"`
	SizeBytes    int64  `json:"size_bytes"`
	DetectedLang string `json:"detected_lang"`
	UsedOCR      bool   `json:"used_ocr"`
}

type ReportRouting struct {
	Matched        bool    `json:"matched"`
	SelectedPath   string  `json:"selected_path"`
	Confidence     float64 `json:"confidence"`
	NeedsNewFolder bool    `json:"needs_new_folder"`
	Reason         string  `json:"reason"`
}

type Summaries struct {
	RU string `json:"ru"`
	DE string `json:"de"`
}

type ContentPreview struct {
	RUShort string `json:"ru_short"`
	DEShort string `json:"de_short"`
}

// ShortPreview truncates s to at most n bytes, cutting at the last word
// boundary and marking the cut with an ellipsis. The cut never splits a
// multi-byte rune.
func ShortPreview(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	cut := s[:n]
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		cut = cut[:idx]
	} else {
		for len(cut) > 0 {
			r, size := utf8.DecodeLastRuneInString(cut)
			if r != utf8.RuneError || size > 1 {
				break
			}
			cut = cut[:len(cut)-1]
		}
	}
	return cut + "…"
}
