package core

import (
	"strings"

	"skyops/pkg/domain"
)

// Resolver maps free-form references to entity IDs. A reference matches by
// exact ID first; failing that, by case-insensitive name. Zero matches and
// multiple matches both surface as a ResolutionError so callers can report
// candidates to the operator.
type Resolver struct{}

// NewResolver returns a Resolver.
func NewResolver() *Resolver {
	return &Resolver{}
}

// ResolvePilot resolves ref against the pilots visible in view.
func (r *Resolver) ResolvePilot(view domain.RuleView, ref string) (Pilot, error) {
	if p, ok := view.FindPilot(ref); ok {
		return p, nil
	}
	var matches []Pilot
	for _, p := range view.ListPilots() {
		if strings.EqualFold(p.Name, ref) {
			matches = append(matches, p)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	err := &ResolutionError{Entity: EntityPilot, Ref: ref}
	for _, m := range matches {
		err.Candidates = append(err.Candidates, m.ID)
	}
	return Pilot{}, err
}

// ResolveDrone resolves ref against the drones visible in view. Drones carry
// a model rather than a name, so the name match runs against the model field.
func (r *Resolver) ResolveDrone(view domain.RuleView, ref string) (Drone, error) {
	if d, ok := view.FindDrone(ref); ok {
		return d, nil
	}
	var matches []Drone
	for _, d := range view.ListDrones() {
		if strings.EqualFold(d.Model, ref) {
			matches = append(matches, d)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	err := &ResolutionError{Entity: EntityDrone, Ref: ref}
	for _, m := range matches {
		err.Candidates = append(err.Candidates, m.ID)
	}
	return Drone{}, err
}

// ResolveMission resolves ref against the missions visible in view.
func (r *Resolver) ResolveMission(view domain.RuleView, ref string) (Mission, error) {
	if m, ok := view.FindMission(ref); ok {
		return m, nil
	}
	var matches []Mission
	for _, m := range view.ListMissions() {
		if strings.EqualFold(m.Name, ref) {
			matches = append(matches, m)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	err := &ResolutionError{Entity: EntityMission, Ref: ref}
	for _, m := range matches {
		err.Candidates = append(err.Candidates, m.ID)
	}
	return Mission{}, err
}
