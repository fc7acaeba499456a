package governance

import (
	"fmt"
	"os"
	"path/filepath"
)

// Condition is the predicate a rule evaluates. A false return is a rule
// violation; an error means the condition could not be evaluated at all,
// which the engine treats as a violation only under strict governance.
type Condition interface {
	Evaluate(data Data) (bool, error)
}

// ConditionFunc adapts a function to the Condition interface.
type ConditionFunc func(data Data) (bool, error)

// Evaluate calls f.
func (f ConditionFunc) Evaluate(data Data) (bool, error) {
	return f(data)
}

// DeclarativeCondition is the predicate synthesized from a rule declared in
// configuration. All three lists must hold for the condition to pass; empty
// lists hold trivially.
type DeclarativeCondition struct {
	// RequiredFiles are paths, relative to the project directory, that must
	// exist.
	RequiredFiles []string

	// RequiredContext are field names that must be present and non-empty in
	// the operation snapshot.
	RequiredContext []string

	// BlockedBy are agent IDs the operation's subject agent must not be
	// among.
	BlockedBy []string
}

// Evaluate checks the declarative predicates against the snapshot.
func (c DeclarativeCondition) Evaluate(data Data) (bool, error) {
	if len(c.RequiredFiles) > 0 {
		if data.ProjectPath == "" {
			return false, fmt.Errorf("required_files check needs a project path")
		}
		for _, rel := range c.RequiredFiles {
			if _, err := os.Stat(filepath.Join(data.ProjectPath, rel)); err != nil {
				return false, nil
			}
		}
	}

	for _, key := range c.RequiredContext {
		if _, ok := data.Lookup(key); !ok {
			return false, nil
		}
	}

	if len(c.BlockedBy) > 0 {
		subject := data.AgentID
		if subject == "" {
			subject = data.ToAgent
		}
		for _, blocked := range c.BlockedBy {
			if subject != "" && subject == blocked {
				return false, nil
			}
		}
	}

	return true, nil
}
