// Package ledger appends and reads the per-project evidence logs.
//
// Each project keeps two append-only markdown logs under agent_log/:
// exchange_log.md records handoffs and agent invocations, context_log.md
// records decisions, blockers, and stage transitions. Entries carry
// sequential IDs (HO-001, BLK-002, ...) derived from the existing log text.
// This package only formats and appends; evidence interpretation (substring
// scanning) belongs to the gate checker.
package ledger
