// Package workflow loads and queries workflow manifests.
//
// A manifest is the static, versioned definition of a pipeline: its ordered
// stages, agent roster, pipeline order, and gating flags. Manifests live
// under a workflows root as <root>/<name>/workflow.yaml, with workflow.json
// accepted as a fallback. The manifest is read-only input to the rest of
// flowgate; nothing here mutates it.
package workflow
