package domain

import (
	"errors"
	"fmt"
)

// RoutingDecision is the advisor's answer about where a document belongs.
// Exactly one of SelectedPath (when Matched) or SuggestedPath (when
// NeedsNewFolder) is set; both empty means the decision is unresolved and
// must go through escalation.
type RoutingDecision struct {
	Matched        bool    `json:"matched"`
	SelectedPath   string  `json:"selected_path,omitempty"`
	Confidence     float64 `json:"confidence"`
	Reason         string  `json:"reason"`
	NeedsNewFolder bool    `json:"needs_new_folder"`
	SuggestedPath  string  `json:"suggested_path,omitempty"`
}

// Validate enforces the structural invariant of a routing decision.
// A decision violating it must be rejected, never coerced.
func (d RoutingDecision) Validate() error {
	if d.Confidence < 0 || d.Confidence > 1 {
		return WrapError(ErrContractViolation, "validate decision", fmt.Errorf("confidence %v out of [0,1]", d.Confidence))
	}
	if d.Matched && d.NeedsNewFolder {
		return WrapError(ErrContractViolation, "validate decision", errors.New("matched and needs_new_folder are mutually exclusive"))
	}
	if d.Matched && d.SelectedPath == "" {
		return WrapError(ErrContractViolation, "validate decision", errors.New("matched without selected path"))
	}
	if !d.Matched && d.SelectedPath != "" {
		return WrapError(ErrContractViolation, "validate decision", errors.New("selected path without matched"))
	}
	if d.NeedsNewFolder && d.SuggestedPath == "" {
		return WrapError(ErrContractViolation, "validate decision", errors.New("needs_new_folder without suggested path"))
	}
	if !d.NeedsNewFolder && d.SuggestedPath != "" {
		return WrapError(ErrContractViolation, "validate decision", errors.New("suggested path without needs_new_folder"))
	}
	return nil
}

// Resolved reports whether the decision names a destination at all.
func (d RoutingDecision) Resolved() bool {
	return d.Matched || d.NeedsNewFolder
}

// DestinationLeaf returns the leaf the decision points at.
func (d RoutingDecision) DestinationLeaf() string {
	if d.Matched {
		return d.SelectedPath
	}
	return d.SuggestedPath
}

// MoveOperation is a validated-then-executed-exactly-once file relocation.
type MoveOperation struct {
	SourcePath string `json:"source_path"`
	DestDir    string `json:"dest_dir"`
	DestName   string `json:"dest_name"`
}

// FolderNode is one directory in the archive tree view.
type FolderNode struct {
	Name     string       `json:"name"`
	PathRel  string       `json:"path_rel"`
	Children []FolderNode `json:"children"`
}
