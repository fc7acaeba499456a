package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testManifest() *Manifest {
	return &Manifest{
		Name: "planning",
		Stages: []Stage{
			{ID: "INTAKE", Name: "Intake"},
			{ID: "DESIGN", Name: "Design"},
			{ID: "BUILD", Name: "Build"},
		},
		Pipeline: Pipeline{Order: []string{"A-00", "A-01", "A-02"}},
		Agents: []Agent{
			{ID: "A-00", Stage: "INTAKE"},
			{ID: "A-01", Stage: "DESIGN", ConsumesCore: []string{"intake_brief"}},
			{ID: "A-02", Stage: "BUILD"},
		},
		OnDemand: []Agent{
			{ID: "OD-01", Role: "reviewer"},
		},
	}
}

func TestManifest_StageIDs(t *testing.T) {
	m := testManifest()
	assert.Equal(t, []string{"INTAKE", "DESIGN", "BUILD"}, m.StageIDs())
}

func TestManifest_StageIDs_SkipsEmpty(t *testing.T) {
	m := &Manifest{Stages: []Stage{{ID: "A"}, {Name: "unnamed"}, {ID: "B"}}}
	assert.Equal(t, []string{"A", "B"}, m.StageIDs())
}

func TestManifest_StageIndex(t *testing.T) {
	m := testManifest()
	assert.Equal(t, 0, m.StageIndex("INTAKE"))
	assert.Equal(t, 2, m.StageIndex("BUILD"))
	assert.Equal(t, -1, m.StageIndex("SHIP"))
}

func TestManifest_AgentByID(t *testing.T) {
	m := testManifest()

	a, ok := m.AgentByID("A-01")
	require.True(t, ok)
	assert.Equal(t, "DESIGN", a.Stage)
	assert.Equal(t, []string{"intake_brief"}, a.ConsumesCore)

	// On-demand roster is searched too.
	od, ok := m.AgentByID("OD-01")
	require.True(t, ok)
	assert.Equal(t, "reviewer", od.Role)

	_, ok = m.AgentByID("A-99")
	assert.False(t, ok)
}

func TestManifest_FirstAgent(t *testing.T) {
	m := testManifest()
	assert.Equal(t, "A-00", m.FirstAgent())
	assert.Equal(t, "", (&Manifest{}).FirstAgent())
}

func TestManifest_EnforcesOrdering(t *testing.T) {
	tests := []struct {
		name        string
		strictOrder bool
		mode        string
		want        bool
	}{
		{name: "neither", want: false},
		{name: "strict_order flag", strictOrder: true, want: true},
		{name: "strict enforcement mode", mode: "strict", want: true},
		{name: "both", strictOrder: true, mode: "strict", want: true},
		{name: "lenient mode alone", mode: "lenient", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &Manifest{
				Gating: Gating{StrictOrder: tt.strictOrder},
				Config: ManifestConfig{Enforcement: Enforcement{Mode: tt.mode}},
			}
			assert.Equal(t, tt.want, m.EnforcesOrdering())
		})
	}
}
