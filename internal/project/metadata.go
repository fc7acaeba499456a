package project

import (
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Metadata field keys.
const (
	keyWorkflow       = "workflow"
	keyCurrentStage   = "current_stage"
	keyStageHistory   = "stage_history"
	keyStageUpdatedAt = "stage_updated_at"
)

// StageEntry is one stage_history record. Entries are append-only, newest
// last.
type StageEntry struct {
	Stage     string `json:"stage"`
	Timestamp string `json:"timestamp"`
}

// Metadata is a project's persisted state record. It wraps the raw field
// mapping so fields this tool does not understand are preserved when the
// record is rewritten.
type Metadata struct {
	fields map[string]any
}

// NewMetadata creates an empty metadata record.
func NewMetadata() *Metadata {
	return &Metadata{fields: map[string]any{}}
}

// ParseMetadata decodes a metadata record. YAML is a superset of JSON, so a
// single decoder accepts records written by either format.
func ParseMetadata(data []byte) (*Metadata, error) {
	fields := map[string]any{}
	if err := yaml.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("parse project metadata: %w", err)
	}
	if fields == nil {
		fields = map[string]any{}
	}
	return &Metadata{fields: fields}, nil
}

// Encode serializes the record as indented JSON.
func (m *Metadata) Encode() ([]byte, error) {
	data, err := json.MarshalIndent(m.fields, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode project metadata: %w", err)
	}
	return append(data, '\n'), nil
}

// Workflow returns the configured workflow name, or "" when unset.
func (m *Metadata) Workflow() string {
	return m.getString(keyWorkflow)
}

// SetWorkflow records the workflow name.
func (m *Metadata) SetWorkflow(name string) {
	m.fields[keyWorkflow] = name
}

// CurrentStage returns the project's current stage, or "" when unset.
func (m *Metadata) CurrentStage() string {
	return m.getString(keyCurrentStage)
}

// SetCurrentStage updates current_stage, stamps stage_updated_at, and
// appends a stage_history entry.
func (m *Metadata) SetCurrentStage(stage string, at time.Time) {
	ts := at.Format(time.RFC3339)
	m.fields[keyCurrentStage] = stage
	m.fields[keyStageUpdatedAt] = ts

	history, _ := m.fields[keyStageHistory].([]any)
	history = append(history, map[string]any{
		"stage":     stage,
		"timestamp": ts,
	})
	m.fields[keyStageHistory] = history
}

// StageHistory returns the decoded stage_history entries in stored order.
// Malformed entries are skipped rather than failing the whole read.
func (m *Metadata) StageHistory() []StageEntry {
	raw, _ := m.fields[keyStageHistory].([]any)
	entries := make([]StageEntry, 0, len(raw))
	for _, item := range raw {
		rec, ok := asStringMap(item)
		if !ok {
			continue
		}
		entry := StageEntry{}
		if s, ok := rec["stage"].(string); ok {
			entry.Stage = s
		}
		if ts, ok := rec["timestamp"].(string); ok {
			entry.Timestamp = ts
		}
		if entry.Stage != "" {
			entries = append(entries, entry)
		}
	}
	return entries
}

// Get returns an arbitrary metadata field.
func (m *Metadata) Get(key string) (any, bool) {
	v, ok := m.fields[key]
	return v, ok
}

// Set stores an arbitrary metadata field.
func (m *Metadata) Set(key string, value any) {
	m.fields[key] = value
}

// Fields returns the raw field mapping. Callers must treat it as read-only.
func (m *Metadata) Fields() map[string]any {
	return m.fields
}

func (m *Metadata) getString(key string) string {
	if s, ok := m.fields[key].(string); ok {
		return s
	}
	return ""
}

// asStringMap normalizes YAML and JSON map decodings to map[string]any.
func asStringMap(v any) (map[string]any, bool) {
	switch rec := v.(type) {
	case map[string]any:
		return rec, true
	case map[any]any:
		out := make(map[string]any, len(rec))
		for k, val := range rec {
			ks, ok := k.(string)
			if !ok {
				return nil, false
			}
			out[ks] = val
		}
		return out, true
	default:
		return nil, false
	}
}
