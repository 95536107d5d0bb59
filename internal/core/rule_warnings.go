package core

import "fmt"

// locationMismatchRule warns when the pilot or drone is based somewhere other
// than the mission location. Never blocking; urgent mode does not suppress it.
type locationMismatchRule struct{}

func (locationMismatchRule) Name() string { return "location_mismatch" }

func (locationMismatchRule) Evaluate(bc BindingContext) []Issue {
	var issues []Issue
	if bc.HasPilot() && bc.Pilot.Location != "" && bc.Mission.Location != "" && bc.Pilot.Location != bc.Mission.Location {
		issues = append(issues, Issue{
			Rule:     "location_mismatch",
			Severity: SeverityWarn,
			Message:  fmt.Sprintf("pilot %s is based in %s, mission is in %s", bc.Pilot.Name, bc.Pilot.Location, bc.Mission.Location),
			Entity:   EntityPilot,
			EntityID: bc.Pilot.ID,
		})
	}
	if bc.HasDrone() && bc.Drone.Location != "" && bc.Mission.Location != "" && bc.Drone.Location != bc.Mission.Location {
		issues = append(issues, Issue{
			Rule:     "location_mismatch",
			Severity: SeverityWarn,
			Message:  fmt.Sprintf("drone %s is based in %s, mission is in %s", bc.Drone.ID, bc.Drone.Location, bc.Mission.Location),
			Entity:   EntityDrone,
			EntityID: bc.Drone.ID,
		})
	}
	return issues
}

// pilotAvailabilityRule warns when the pilot's earliest-available date lands
// after the mission start.
type pilotAvailabilityRule struct{}

func (pilotAvailabilityRule) Name() string { return "pilot_availability" }

func (pilotAvailabilityRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasPilot() || bc.Pilot.AvailableFrom.IsZero() {
		return nil
	}
	if !bc.Pilot.AvailableFrom.After(bc.Mission.StartDate) {
		return nil
	}
	return []Issue{{
		Rule:     "pilot_availability",
		Severity: SeverityWarn,
		Message: fmt.Sprintf("pilot %s is only available from %s, mission starts %s",
			bc.Pilot.Name, bc.Pilot.AvailableFrom.Format(dateLayout), bc.Mission.StartDate.Format(dateLayout)),
		Entity:   EntityPilot,
		EntityID: bc.Pilot.ID,
	}}
}
