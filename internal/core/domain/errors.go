package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrExtraction marks an unreadable or corrupt source document.
	ErrExtraction = errors.New("extraction failed")
	// ErrOCR marks a failed optical fallback.
	ErrOCR = errors.New("ocr failed")
	// ErrContractViolation marks a malformed or incoherent decision from
	// the reasoning collaborator. Never auto-corrected.
	ErrContractViolation = errors.New("contract violation")
	// ErrDuplicateEscalation marks a second pending request for a
	// document key that already has one outstanding.
	ErrDuplicateEscalation = errors.New("duplicate escalation")
	// ErrPathSafety marks an attempted move or mkdir that would escape
	// the archive root or risk data loss.
	ErrPathSafety = errors.New("path safety violation")

	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrTemporary    = errors.New("temporary failure")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// ErrorKind names the first matching taxonomy kind for persistence and
// operator-facing reporting.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrExtraction):
		return "extraction_error"
	case IsKind(err, ErrOCR):
		return "ocr_error"
	case IsKind(err, ErrContractViolation):
		return "contract_violation"
	case IsKind(err, ErrDuplicateEscalation):
		return "duplicate_escalation"
	case IsKind(err, ErrPathSafety):
		return "path_safety_error"
	case IsKind(err, ErrNotFound):
		return "not_found"
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrTemporary):
		return "temporary"
	default:
		return "internal"
	}
}
