package domain

// WizardState is the checkout wizard's tagged state. Modeling the wizard as a
// single enumerated state keeps illegal flag combinations (payment form and
// registration form both visible, say) unrepresentable.
type WizardState string

const (
	// StateBrowsing: stage 1, choosing styles, fonts, and a license.
	StateBrowsing WizardState = "browsing"
	// StateRegistering: stage 2, the registration form is shown to an
	// unauthenticated buyer.
	StateRegistering WizardState = "registering"
	// StateSelectingUsage: stage 2, declaring usage type and accepting the EULA.
	StateSelectingUsage WizardState = "selecting_usage"
	// StatePaying: stage 3, the payment form is active.
	StatePaying WizardState = "paying"
	// StateCompleted: terminal, payment confirmed.
	StateCompleted WizardState = "completed"
)

// allowedTransitions is the wizard transition table. The key is the current
// state; values are the states reachable from it.
var allowedTransitions = map[WizardState][]WizardState{
	StateBrowsing:       {StateRegistering, StateSelectingUsage, StatePaying},
	StateRegistering:    {StateSelectingUsage, StateBrowsing},
	StateSelectingUsage: {StatePaying, StateBrowsing},
	StatePaying:         {StateCompleted, StateSelectingUsage, StateBrowsing},
	StateCompleted:      {},
}

// CanTransition reports whether the wizard may move from one state to another.
// Self-transitions are allowed (idempotent re-entry).
func CanTransition(from, to WizardState) bool {
	if from == to {
		return from != StateCompleted
	}
	for _, s := range allowedTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StageOf maps a wizard state to its display stage (1, 2, or 3).
func StageOf(state WizardState) int {
	switch state {
	case StatePaying, StateCompleted:
		return 3
	case StateRegistering, StateSelectingUsage:
		return 2
	default:
		return 1
	}
}

// IsTerminal reports whether the wizard has finished.
func (s WizardState) IsTerminal() bool {
	return s == StateCompleted
}
