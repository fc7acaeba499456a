package governance

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/fyrsmithlabs/flowgate/internal/config"
	"github.com/fyrsmithlabs/flowgate/internal/logging"
)

// Engine holds the rule registry and evaluates rules for lifecycle contexts.
type Engine struct {
	strictness Level
	rules      map[string]*Rule
	order      []string
	log        *logging.Logger
}

// NewEngine builds an engine from the governance configuration section. The
// built-in rules register first; configured rules then override built-ins of
// the same name or register as new declarative rules. Unknown strictness,
// level, or context values in the configuration are construction errors.
func NewEngine(cfg config.Governance, log *logging.Logger) (*Engine, error) {
	if log == nil {
		log = logging.NewNop()
	}

	strictness := Level(cfg.Strictness.Level)
	if strictness == "" {
		strictness = LevelModerate
	}
	if strictness.Index() < 0 {
		return nil, fmt.Errorf("unknown strictness level %q (valid: %v)", cfg.Strictness.Level, Levels)
	}

	e := &Engine{
		strictness: strictness,
		rules:      make(map[string]*Rule),
		log:        log,
	}

	for _, rule := range DefaultRules() {
		if err := e.RegisterRule(rule); err != nil {
			return nil, err
		}
	}

	// Deterministic registration order for configured rules.
	names := make([]string, 0, len(cfg.Rules))
	for name := range cfg.Rules {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		rule, err := e.ruleFromConfig(name, cfg.Rules[name])
		if err != nil {
			return nil, err
		}
		if err := e.RegisterRule(rule); err != nil {
			return nil, err
		}
	}

	return e, nil
}

// ruleFromConfig resolves a configured rule declaration. A declaration
// matching a built-in rule overrides its descriptive fields and keeps the
// built-in condition unless declarative predicates are given; any other name
// defines a new rule whose condition is fully declarative.
func (e *Engine) ruleFromConfig(name string, decl config.Rule) (Rule, error) {
	base, isOverride := e.rules[name]

	rule := Rule{Name: name, Enabled: true}
	if isOverride {
		rule = *base
	}

	if decl.Description != "" {
		rule.Description = decl.Description
	}
	if decl.Context != "" {
		rule.Context = Context(decl.Context)
	}
	if decl.Level != "" {
		rule.Level = Level(decl.Level)
	}
	if decl.ErrorMessage != "" {
		rule.ErrorMessage = decl.ErrorMessage
	}
	if decl.FixSuggestion != "" {
		rule.FixSuggestion = decl.FixSuggestion
	}
	if decl.Enabled != nil {
		rule.Enabled = *decl.Enabled
	}

	declarative := len(decl.RequiredFiles) > 0 || len(decl.RequiredContext) > 0 || len(decl.BlockedBy) > 0
	if declarative {
		rule.Condition = DeclarativeCondition{
			RequiredFiles:   decl.RequiredFiles,
			RequiredContext: decl.RequiredContext,
			BlockedBy:       decl.BlockedBy,
		}
	}

	if !isOverride {
		if rule.Context == "" {
			return Rule{}, fmt.Errorf("rule %q: context is required", name)
		}
		if rule.Level == "" {
			rule.Level = LevelModerate
		}
		if !declarative {
			return Rule{}, fmt.Errorf("rule %q: no condition declared (required_files, required_context, or blocked_by)", name)
		}
		if rule.ErrorMessage == "" {
			rule.ErrorMessage = fmt.Sprintf("Rule %s failed", name)
		}
	}

	return rule, nil
}

// RegisterRule adds a rule to the registry, replacing any rule of the same
// name while keeping its original position in the evaluation order.
func (e *Engine) RegisterRule(rule Rule) error {
	if rule.Name == "" {
		return fmt.Errorf("rule name is required")
	}
	if !rule.Context.Valid() {
		return fmt.Errorf("rule %q: unknown context %q (valid: %v)", rule.Name, rule.Context, Contexts)
	}
	if rule.Level.Index() < 0 {
		return fmt.Errorf("rule %q: unknown level %q (valid: %v)", rule.Name, rule.Level, Levels)
	}
	if rule.Condition == nil {
		return fmt.Errorf("rule %q: condition is required", rule.Name)
	}

	if _, exists := e.rules[rule.Name]; !exists {
		e.order = append(e.order, rule.Name)
	}
	r := rule
	e.rules[rule.Name] = &r
	return nil
}

// Strictness returns the engine's configured strictness level.
func (e *Engine) Strictness() Level {
	return e.strictness
}

// Rules returns the registered rules in evaluation order.
func (e *Engine) Rules() []Rule {
	out := make([]Rule, 0, len(e.order))
	for _, name := range e.order {
		out = append(out, *e.rules[name])
	}
	return out
}

// ActiveRules returns the rules that evaluate for the given lifecycle
// context at the engine's configured strictness.
func (e *Engine) ActiveRules(gctx Context) []Rule {
	var out []Rule
	for _, name := range e.order {
		r := e.rules[name]
		if r.Context == gctx && active(r, e.strictness) {
			out = append(out, *r)
		}
	}
	return out
}

// active reports whether the rule runs at the given strictness. A rule
// whose level has drifted outside the known tiers always runs.
func active(r *Rule, strictness Level) bool {
	if !r.Enabled {
		return false
	}
	idx := r.Level.Index()
	if idx < 0 {
		return true
	}
	return idx <= strictness.Index()
}

// Validate evaluates every active rule for the lifecycle context at the
// engine's configured strictness.
func (e *Engine) Validate(ctx context.Context, gctx Context, data Data) Result {
	return e.ValidateAt(ctx, gctx, data, e.strictness)
}

// ValidateAt evaluates every active rule for the lifecycle context at the
// given strictness and returns the collected violations. An unrecognized
// strictness falls back to the configured level. A condition that errors
// becomes a violation only under strict governance; otherwise the rule is
// logged and skipped.
func (e *Engine) ValidateAt(ctx context.Context, gctx Context, data Data, strictness Level) Result {
	if strictness.Index() < 0 {
		strictness = e.strictness
	}

	result := Result{Passed: true}

	for _, name := range e.order {
		rule := e.rules[name]
		if rule.Context != gctx || !active(rule, strictness) {
			continue
		}
		result.Evaluated++

		ok, err := rule.Condition.Evaluate(data)
		if err != nil {
			if strictness == LevelStrict {
				result.Passed = false
				result.Violations = append(result.Violations, Violation{
					Rule:        rule.Name,
					Description: rule.Description,
					Message:     fmt.Sprintf("Rule evaluation failed: %v", err),
					Suggestion:  rule.FixSuggestion,
					Level:       rule.Level,
				})
			} else {
				e.log.Warn(ctx, "rule evaluation failed, skipping",
					zap.String("rule", rule.Name),
					zap.String("context", string(gctx)),
					zap.Error(err))
			}
			continue
		}

		if !ok {
			result.Passed = false
			result.Violations = append(result.Violations, Violation{
				Rule:        rule.Name,
				Description: rule.Description,
				Message:     rule.ErrorMessage,
				Suggestion:  rule.FixSuggestion,
				Level:       rule.Level,
			})
		}
	}

	e.log.Debug(ctx, "governance validation complete",
		zap.String("context", string(gctx)),
		zap.String("strictness", string(strictness)),
		zap.Int("evaluated", result.Evaluated),
		zap.Int("violations", len(result.Violations)))

	return result
}

// Enforce evaluates like Validate and additionally returns a ViolationError
// when any rule failed.
func (e *Engine) Enforce(ctx context.Context, gctx Context, data Data) (Result, error) {
	return e.EnforceAt(ctx, gctx, data, e.strictness)
}

// EnforceAt evaluates like ValidateAt and additionally returns a
// ViolationError when any rule failed.
func (e *Engine) EnforceAt(ctx context.Context, gctx Context, data Data, strictness Level) (Result, error) {
	result := e.ValidateAt(ctx, gctx, data, strictness)
	if !result.Passed {
		return result, &ViolationError{Context: gctx, Violations: result.Violations}
	}
	return result, nil
}
