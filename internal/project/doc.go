// Package project persists per-project workflow state.
//
// A project is a directory under the projects root. Its metadata record
// (workflow name, current stage, stage history) lives in
// .agentic/project_config.json and is read leniently as YAML so both JSON
// and YAML files written by earlier tooling load the same way. Unknown
// metadata fields survive a load/save round trip untouched.
package project
