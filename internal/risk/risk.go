// Package risk classifies shell commands into risk tiers before execution.
// Classification is a pure function over the command string: it never touches
// the filesystem or spawns processes, so it is safe to run on the request path.
package risk

// Tier represents the risk classification of a command.
type Tier int

const (
	// TierLow commands run immediately without human review.
	TierLow Tier = iota
	// TierMedium commands require human confirmation before execution.
	TierMedium
	// TierHigh commands require human confirmation before execution.
	TierHigh
	// TierBlocked commands are refused outright and never executed.
	TierBlocked
)

// String returns the string representation of a Tier.
func (t Tier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	case TierBlocked:
		return "blocked"
	default:
		return "unknown"
	}
}

// RequiresConfirmation returns true if commands at this tier must be
// approved by a human before execution.
func (t Tier) RequiresConfirmation() bool {
	return t == TierMedium || t == TierHigh
}

// Assessment is the outcome of classifying one command.
type Assessment struct {
	Tier   Tier
	Reason string // human-readable explanation, empty for TierLow
}

// Classifier maps a command string to an Assessment.
type Classifier interface {
	// Classify returns exactly one Assessment for any command string.
	Classify(cmd string) Assessment
}
