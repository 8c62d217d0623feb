package domain

type GateState string

const (
	GateUnloaded             GateState = "unloaded"
	GateLoadedUnverified     GateState = "loaded_unverified"
	GateVerifying            GateState = "verifying"
	GateVerificationComplete GateState = "verification_complete"
	GateExecuting            GateState = "executing"
	GateVerified             GateState = "verified"
	GateError                GateState = "error"
)

var gateTransitions = map[GateState][]GateState{
	GateUnloaded:             {GateLoadedUnverified, GateVerified, GateError},
	GateLoadedUnverified:     {GateVerifying, GateVerified, GateError},
	GateVerifying:            {GateVerificationComplete, GateError},
	GateVerificationComplete: {GateExecuting, GateError},
	GateExecuting:            {GateVerified, GateError},
	GateVerified:             {GateLoadedUnverified, GateError},
	GateError:                {GateVerifying, GateLoadedUnverified, GateVerified},
}

// CanTransition follows the verification flow. A refresh may also move a verified
// actor back to loaded_unverified when the proof disappears remotely.
func (s GateState) CanTransition(to GateState) bool {
	for _, next := range gateTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s GateState) Busy() bool {
	return s == GateVerifying || s == GateVerificationComplete || s == GateExecuting
}

func (s GateState) Describe() string {
	switch s {
	case GateUnloaded:
		return "Profile not loaded"
	case GateLoadedUnverified:
		return "Ready to start verification"
	case GateVerifying:
		return "Verifying license..."
	case GateVerificationComplete:
		return "Verification completed"
	case GateExecuting:
		return "Submitting proof..."
	case GateVerified:
		return "License verified"
	case GateError:
		return "Error occurred"
	default:
		return "Unknown status"
	}
}
