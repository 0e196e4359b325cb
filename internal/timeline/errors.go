package timeline

import (
	"fmt"

	"github.com/jonathan/cv-synth/internal/types"
)

// InfeasibleError is returned when no valid timeline can be built from the inputs.
// Issues holds the error-severity findings that aborted the calculation.
type InfeasibleError struct {
	Issues []types.TimelineIssue
}

func (e *InfeasibleError) Error() string {
	if len(e.Issues) == 0 {
		return "infeasible timeline"
	}
	return fmt.Sprintf("infeasible timeline: %s", e.Issues[0].Message)
}

// UnfixableError is returned by ValidateAndFix when error-severity issues survive auto-fix
type UnfixableError struct {
	Issues []types.TimelineIssue
}

func (e *UnfixableError) Error() string {
	n := types.CountSeverity(e.Issues, types.SeverityError)
	if n == 0 {
		return "unfixable timeline"
	}
	for _, issue := range e.Issues {
		if issue.Severity == types.SeverityError {
			return fmt.Sprintf("unfixable timeline: %d error(s), first: %s", n, issue.Message)
		}
	}
	return "unfixable timeline"
}
