// Package governance implements the rule registry and evaluation engine.
//
// Rules are predicates attached to a lifecycle context (project init, agent
// handoff, decision logging, session end, agent activation) and a strictness
// level. The engine evaluates every active rule for a context against a
// snapshot of operation data and reports violations; whether a violation
// blocks the operation is the caller's choice between Validate and Enforce.
//
// A rule is active when its level sits at or below the engine's configured
// strictness: a lenient engine runs only lenient rules, a strict engine runs
// everything.
package governance
