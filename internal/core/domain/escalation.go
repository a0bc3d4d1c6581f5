package domain

import "errors"

// EscalationRequest suspends a run until a human operator decides the
// destination. DocumentKey (the source path) acts as the unique in-flight
// token: at most one outstanding request per key.
type EscalationRequest struct {
	RequestID     string   `json:"request_id"`
	DocumentID    string   `json:"document_id"`
	DocumentKey   string   `json:"document_key"`
	Candidates    []string `json:"candidate_leaves"`
	SuggestedPath string   `json:"suggested_path,omitempty"`
	PreviewText   string   `json:"preview_text,omitempty"`
}

// EscalationOutcome is the operator's answer: either an existing leaf was
// selected, or a new leaf was approved for creation.
type EscalationOutcome struct {
	RequestID     string `json:"request_id"`
	SelectedPath  string `json:"selected_path,omitempty"`
	SuggestedPath string `json:"suggested_path,omitempty"`
	Create        bool   `json:"create"`
}

func (o EscalationOutcome) Validate() error {
	if o.RequestID == "" {
		return WrapError(ErrInvalidInput, "validate outcome", errors.New("request_id is required"))
	}
	if o.Create {
		if o.SuggestedPath == "" || o.SelectedPath != "" {
			return WrapError(ErrInvalidInput, "validate outcome", errors.New("create outcome requires suggested_path only"))
		}
		return nil
	}
	if o.SelectedPath == "" || o.SuggestedPath != "" {
		return WrapError(ErrInvalidInput, "validate outcome", errors.New("select outcome requires selected_path only"))
	}
	return nil
}
