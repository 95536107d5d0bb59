package core

import (
	"fmt"

	"skyops/pkg/domain"
)

// pilotCommittedRule blocks a binding when the pilot already holds a
// different mission. A pilot assigned to the target mission itself is not a
// conflict; re-binding is a no-op, not a violation.
type pilotCommittedRule struct{}

func (pilotCommittedRule) Name() string { return "pilot_committed" }

func (pilotCommittedRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasPilot() {
		return nil
	}
	p := bc.Pilot
	if p.Status != domain.PilotAssigned || p.MissionID == nil {
		return nil
	}
	if *p.MissionID == bc.Mission.ID {
		return nil
	}
	return []Issue{{
		Rule:     "pilot_committed",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("pilot %s (%s) is already assigned to mission %s", p.Name, p.ID, *p.MissionID),
		Entity:   EntityPilot,
		EntityID: p.ID,
	}}
}

// droneCommittedRule blocks a binding when the drone already holds a
// different mission.
type droneCommittedRule struct{}

func (droneCommittedRule) Name() string { return "drone_committed" }

func (droneCommittedRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasDrone() {
		return nil
	}
	d := bc.Drone
	if d.Status != domain.DroneAssigned || d.MissionID == nil {
		return nil
	}
	if *d.MissionID == bc.Mission.ID {
		return nil
	}
	return []Issue{{
		Rule:     "drone_committed",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("drone %s is already assigned to mission %s", d.ID, *d.MissionID),
		Entity:   EntityDrone,
		EntityID: d.ID,
	}}
}
