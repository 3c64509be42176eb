package entities

// Status is the overall verdict of an evaluation
type Status string

const (
	StatusSafe     Status = "Safe"
	StatusPolluted Status = "Polluted"
)

// Violation is a breached CPCB threshold paired with its corrective suggestion
type Violation struct {
	Label      string
	Suggestion string
}

// EvaluationResult is what the form renders after an evaluation
type EvaluationResult struct {
	Status      Status
	Summary     string   // Safe message, or comma-joined violation labels
	Suggestions []string // In rule-check order, never deduplicated
}

// IsSafe reports whether the sample was judged safe
func (r EvaluationResult) IsSafe() bool {
	return r.Status == StatusSafe
}
