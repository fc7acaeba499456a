package governance

import (
	"fmt"
	"strings"
)

// ViolationError is returned by Enforce when one or more rules failed.
type ViolationError struct {
	Context    Context
	Violations []Violation
}

func (e *ViolationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "governance check failed for %s: %d violation(s)", e.Context, len(e.Violations))
	for _, v := range e.Violations {
		fmt.Fprintf(&b, "\n- %s (%s)", v.Message, v.Rule)
	}
	return b.String()
}
