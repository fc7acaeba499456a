package workflow

// DefaultName is the workflow assumed for projects whose metadata does not
// name one.
const DefaultName = "planning"

// Manifest is a complete workflow definition.
type Manifest struct {
	Name     string         `yaml:"name" json:"name"`
	Stages   []Stage        `yaml:"stages" json:"stages"`
	Pipeline Pipeline       `yaml:"pipeline" json:"pipeline"`
	Agents   []Agent        `yaml:"agents" json:"agents"`
	OnDemand []Agent        `yaml:"on_demand" json:"on_demand"`
	Gating   Gating         `yaml:"gating" json:"gating"`
	Config   ManifestConfig `yaml:"config" json:"config"`
}

// Stage is a named phase in a project's lifecycle. Stages are totally
// ordered by their position in the manifest.
type Stage struct {
	ID          string   `yaml:"id" json:"id"`
	Name        string   `yaml:"name" json:"name"`
	Description string   `yaml:"description" json:"description"`
	Agents      []string `yaml:"agents" json:"agents"`
}

// Pipeline holds the canonical agent progression through the workflow.
type Pipeline struct {
	Order []string `yaml:"order" json:"order"`
}

// Agent describes a pipeline member.
type Agent struct {
	ID           string   `yaml:"id" json:"id"`
	Role         string   `yaml:"role" json:"role"`
	Type         string   `yaml:"type" json:"type"`
	Stage        string   `yaml:"stage" json:"stage"`
	ConsumesCore []string `yaml:"consumes_core" json:"consumes_core"`
	Produces     []string `yaml:"produces" json:"produces"`
}

// Gating holds the workflow's activation-gate flags. Flags default to false
// when a manifest omits the gating section, matching the manifest contract:
// workflows opt in to gating explicitly.
type Gating struct {
	Enabled       bool `yaml:"enabled" json:"enabled"`
	PreActivation bool `yaml:"pre_activation" json:"pre_activation"`
	StrictOrder   bool `yaml:"strict_order" json:"strict_order"`
	AllowSkip     bool `yaml:"allow_skip" json:"allow_skip"`
}

// ManifestConfig carries workflow-scoped settings.
type ManifestConfig struct {
	Enforcement Enforcement `yaml:"enforcement" json:"enforcement"`
}

// Enforcement controls how strictly the workflow is policed. Mode "strict"
// enables stage ordering even when gating.strict_order is unset.
type Enforcement struct {
	Mode string `yaml:"mode" json:"mode"`
}

// StageIDs returns the ordered stage identifiers.
func (m *Manifest) StageIDs() []string {
	ids := make([]string, 0, len(m.Stages))
	for _, s := range m.Stages {
		if s.ID != "" {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// StageIndex returns the position of a stage in the manifest order, or -1
// if the stage is not declared.
func (m *Manifest) StageIndex(id string) int {
	for i, s := range m.Stages {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// StageByID returns the stage with the given ID.
func (m *Manifest) StageByID(id string) (Stage, bool) {
	for _, s := range m.Stages {
		if s.ID == id {
			return s, true
		}
	}
	return Stage{}, false
}

// AgentByID returns the agent with the given ID, searching the pipeline
// roster first and the on-demand roster second.
func (m *Manifest) AgentByID(id string) (Agent, bool) {
	for _, a := range m.Agents {
		if a.ID == id {
			return a, true
		}
	}
	for _, a := range m.OnDemand {
		if a.ID == id {
			return a, true
		}
	}
	return Agent{}, false
}

// FirstAgent returns the first agent ID in pipeline order, or "" when the
// pipeline is empty.
func (m *Manifest) FirstAgent() string {
	if len(m.Pipeline.Order) == 0 {
		return ""
	}
	return m.Pipeline.Order[0]
}

// EnforcesOrdering reports whether stage transitions must follow manifest
// order: either the gating flag asks for it or the enforcement mode is strict.
func (m *Manifest) EnforcesOrdering() bool {
	return m.Gating.StrictOrder || m.Config.Enforcement.Mode == "strict"
}
