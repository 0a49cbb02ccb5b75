package services

import (
	"math/rand"
	"testing"

	"citipulse/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAgentFactoryAssignsKinds(t *testing.T) {
	newAgent := newAgentFactory(rand.New(rand.NewSource(7)))

	for i := 0; i < agentCount; i++ {
		agent := newAgent(i)
		if i%3 == 0 {
			assert.Equal(t, models.ObjectVehicle, agent.kind, i)
		} else {
			assert.Equal(t, models.ObjectPerson, agent.kind, i)
		}
		assert.GreaterOrEqual(t, agent.progress, 0.0)
		assert.Less(t, agent.progress, 1.0)
		assert.Less(t, agent.pathIdx, len(AgentPaths))
	}
}

func TestAgentPositionInterpolates(t *testing.T) {
	agent := agentState{pathIdx: 2, segmentIdx: 0, progress: 0.5}
	path := AgentPaths[2]

	pos := agent.position()
	assert.InDelta(t, (path[0].Lat+path[1].Lat)/2, pos.Lat, 1e-9)
	assert.InDelta(t, (path[0].Lng+path[1].Lng)/2, pos.Lng, 1e-9)

	// the last segment heads back to the first waypoint
	agent.segmentIdx = 1
	agent.progress = 1
	pos = agent.position()
	assert.InDelta(t, path[0].Lat, pos.Lat, 1e-9)
	assert.InDelta(t, path[0].Lng, pos.Lng, 1e-9)
}

func TestAgentAdvanceWrapsSegments(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	agent := agentState{pathIdx: 0, segmentIdx: 0, progress: 0.96}

	agent.advance(rng)
	assert.Equal(t, 1, agent.segmentIdx)
	assert.Zero(t, agent.progress)
	assert.Equal(t, 0, agent.pathIdx)

	agent.advance(rng)
	assert.InDelta(t, agentProgressStep, agent.progress, 1e-9)
	assert.Equal(t, 1, agent.segmentIdx)
}

func TestAgentAdvancePicksNewPathAfterLastSegment(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	last := len(AgentPaths[1]) - 1
	agent := agentState{pathIdx: 1, segmentIdx: last, progress: 0.99}

	agent.advance(rng)
	assert.Zero(t, agent.segmentIdx)
	assert.Zero(t, agent.progress)
	require.GreaterOrEqual(t, agent.pathIdx, 0)
	assert.Less(t, agent.pathIdx, len(AgentPaths))
}

func TestAdvanceObjectsRendersBeforeStepping(t *testing.T) {
	st := NewStore(DefaultStoreOptions())
	st.agents = []agentState{{pathIdx: 0, progress: 0, kind: models.ObjectPerson}}

	st.advanceObjectsLocked(rand.New(rand.NewSource(1)))

	require.Len(t, st.objects, 1)
	assert.Equal(t, AgentPaths[0][0].Lat, st.objects[0].Lat)
	assert.Equal(t, AgentPaths[0][0].Lng, st.objects[0].Lng)
	assert.Equal(t, "#3b82f6", st.objects[0].Color)
	assert.InDelta(t, agentProgressStep, st.agents[0].progress, 1e-9)
}
