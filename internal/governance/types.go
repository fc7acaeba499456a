package governance

// Level is a rule strictness tier. Levels are ordered: a rule is active when
// its level is at or below the engine's configured strictness.
type Level string

const (
	LevelLenient  Level = "lenient"
	LevelModerate Level = "moderate"
	LevelStrict   Level = "strict"
)

// Levels lists the tiers in ascending strictness.
var Levels = []Level{LevelLenient, LevelModerate, LevelStrict}

// Index returns the position of the level in the strictness ordering, or -1
// for an unrecognized level.
func (l Level) Index() int {
	for i, known := range Levels {
		if l == known {
			return i
		}
	}
	return -1
}

// Context identifies the lifecycle moment a rule applies to.
type Context string

const (
	ContextProjectInit     Context = "init"
	ContextAgentHandoff    Context = "handoff"
	ContextDecisionLog     Context = "decision"
	ContextSessionEnd      Context = "end"
	ContextAgentActivation Context = "activation"
)

// Contexts lists the recognized lifecycle contexts.
var Contexts = []Context{
	ContextProjectInit,
	ContextAgentHandoff,
	ContextDecisionLog,
	ContextSessionEnd,
	ContextAgentActivation,
}

// Valid reports whether the context is one of the recognized lifecycle
// contexts.
func (c Context) Valid() bool {
	for _, known := range Contexts {
		if c == known {
			return true
		}
	}
	return false
}

// Rule is a named predicate evaluated at a lifecycle context.
type Rule struct {
	Name          string
	Description   string
	Context       Context
	Level         Level
	Condition     Condition
	ErrorMessage  string
	FixSuggestion string
	Enabled       bool
}

// Violation records a failed rule.
type Violation struct {
	Rule        string `json:"rule"`
	Description string `json:"description,omitempty"`
	Message     string `json:"message"`
	Suggestion  string `json:"suggestion,omitempty"`
	Level       Level  `json:"level"`
}

// Result is the outcome of evaluating all active rules for one context.
type Result struct {
	Passed     bool        `json:"passed"`
	Evaluated  int         `json:"evaluated"`
	Violations []Violation `json:"violations,omitempty"`
}

// Data is the operation snapshot rules evaluate against. Zero values mean
// the field is not part of the operation; conditions treat absent fields
// according to their own semantics.
type Data struct {
	ProjectPath  string
	ProjectID    string
	Workflow     string
	CurrentStage string

	AgentID    string
	AgentStage string

	FromAgent string
	ToAgent   string
	Artifacts []string

	Rationale string

	// Metadata carries operation fields with no dedicated slot above.
	Metadata map[string]any
}

// Lookup resolves a field name against the snapshot, checking the canonical
// fields first and falling back to Metadata. Declarative required_context
// predicates resolve their keys through this.
func (d Data) Lookup(key string) (any, bool) {
	switch key {
	case "project_path":
		return presentString(d.ProjectPath)
	case "project_id":
		return presentString(d.ProjectID)
	case "workflow":
		return presentString(d.Workflow)
	case "current_stage":
		return presentString(d.CurrentStage)
	case "agent_id":
		return presentString(d.AgentID)
	case "agent_stage":
		return presentString(d.AgentStage)
	case "from_agent":
		return presentString(d.FromAgent)
	case "to_agent":
		return presentString(d.ToAgent)
	case "rationale":
		return presentString(d.Rationale)
	case "artifacts":
		if len(d.Artifacts) == 0 {
			return nil, false
		}
		return d.Artifacts, true
	}
	v, ok := d.Metadata[key]
	return v, ok
}

func presentString(s string) (any, bool) {
	if s == "" {
		return nil, false
	}
	return s, true
}
