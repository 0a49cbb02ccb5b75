package services

import (
	"math/rand"

	"citipulse/models"
)

const (
	agentCount        = 15
	agentProgressStep = 0.05
)

var objectColors = map[models.ObjectKind]string{
	models.ObjectPerson:  "#3b82f6",
	models.ObjectVehicle: "#4f46e5",
}

// newAgentFactory returns a constructor placing agent i on a random path at a random progress
func newAgentFactory(rng *rand.Rand) func(i int) agentState {
	return func(i int) agentState {
		kind := models.ObjectPerson
		if i%3 == 0 {
			kind = models.ObjectVehicle
		}
		return agentState{
			pathIdx:  rng.Intn(len(AgentPaths)),
			progress: rng.Float64(),
			kind:     kind,
		}
	}
}

// position interpolates the agent's location along its current segment
func (a *agentState) position() models.Coordinates {
	path := AgentPaths[a.pathIdx]
	start := path[a.segmentIdx]
	end := path[(a.segmentIdx+1)%len(path)]
	return models.Coordinates{
		Lat: start.Lat + (end.Lat-start.Lat)*a.progress,
		Lng: start.Lng + (end.Lng-start.Lng)*a.progress,
	}
}

// advance moves the agent one step, wrapping to the next segment and, after the
// last segment, onto a freshly chosen path
func (a *agentState) advance(rng *rand.Rand) {
	a.progress += agentProgressStep
	if a.progress < 1.0 {
		return
	}
	a.progress = 0
	a.segmentIdx = (a.segmentIdx + 1) % len(AgentPaths[a.pathIdx])
	if a.segmentIdx == 0 {
		a.pathIdx = rng.Intn(len(AgentPaths))
	}
}

// advanceObjectsLocked renders current positions then steps every agent
func (s *Store) advanceObjectsLocked(rng *rand.Rand) {
	objects := make([]models.MovingObject, 0, len(s.agents))
	for i := range s.agents {
		agent := &s.agents[i]
		pos := agent.position()
		objects = append(objects, models.MovingObject{
			ID:    i,
			Lat:   pos.Lat,
			Lng:   pos.Lng,
			Type:  agent.kind,
			Color: objectColors[agent.kind],
		})
		agent.advance(rng)
	}
	s.objects = objects
}
