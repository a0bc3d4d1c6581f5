package usecase

import (
	"context"
	"fmt"

	"github.com/ykudinov/docrouter/internal/core/domain"
	"github.com/ykudinov/docrouter/internal/core/ports"
)

// RoutingEngine delegates the folder judgment to the external reasoning
// collaborator and validates the answer against the decision invariants.
// It never repairs a malformed response; re-prompting is the caller's
// call.
type RoutingEngine struct {
	advisor          ports.RoutingAdvisor
	autoApplyEnabled bool
	threshold        float64
}

func NewRoutingEngine(advisor ports.RoutingAdvisor, autoApplyEnabled bool, threshold float64) *RoutingEngine {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.75
	}
	return &RoutingEngine{
		advisor:          advisor,
		autoApplyEnabled: autoApplyEnabled,
		threshold:        threshold,
	}
}

// Decide returns the validated decision and whether it is authoritative
// enough to apply without a human.
func (e *RoutingEngine) Decide(ctx context.Context, text string, candidates []string) (domain.RoutingDecision, bool, error) {
	decision, err := e.advisor.Advise(ctx, text, candidates)
	if err != nil {
		return domain.RoutingDecision{}, false, fmt.Errorf("advise routing: %w", err)
	}

	if err := decision.Validate(); err != nil {
		return domain.RoutingDecision{}, false, err
	}
	if decision.Matched && !containsPath(candidates, decision.SelectedPath) {
		// an invented path echoed back as real is never a valid match
		return domain.RoutingDecision{}, false, domain.WrapError(domain.ErrContractViolation, "validate decision",
			fmt.Errorf("selected path %q is not a known candidate", decision.SelectedPath))
	}

	autoApply := e.autoApplyEnabled && decision.Matched && decision.Confidence >= e.threshold
	return decision, autoApply, nil
}

func containsPath(candidates []string, path string) bool {
	for _, candidate := range candidates {
		if candidate == path {
			return true
		}
	}
	return false
}
