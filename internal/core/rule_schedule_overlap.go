package core

import "fmt"

// scheduleOverlapRule blocks a binding when another mission holding the pilot
// or drone overlaps the target mission's date window. The check is structural:
// it inspects mission reference fields directly, so a resource whose status
// flag is stale still conflicts. The target mission itself never conflicts.
type scheduleOverlapRule struct{}

func (scheduleOverlapRule) Name() string { return "schedule_overlap" }

func (scheduleOverlapRule) Evaluate(bc BindingContext) []Issue {
	var issues []Issue
	for _, other := range bc.View.ListMissions() {
		if other.ID == bc.Mission.ID || !bc.Mission.Overlaps(other) {
			continue
		}
		if bc.HasPilot() && other.PilotID != nil && *other.PilotID == bc.Pilot.ID {
			issues = append(issues, Issue{
				Rule:     "schedule_overlap",
				Severity: SeverityBlock,
				Message: fmt.Sprintf("pilot %s is booked on mission %s from %s to %s, overlapping the target window",
					bc.Pilot.Name, other.ID, other.StartDate.Format(dateLayout), other.EndDate.Format(dateLayout)),
				Entity:   EntityPilot,
				EntityID: bc.Pilot.ID,
			})
		}
		if bc.HasDrone() && other.DroneID != nil && *other.DroneID == bc.Drone.ID {
			issues = append(issues, Issue{
				Rule:     "schedule_overlap",
				Severity: SeverityBlock,
				Message: fmt.Sprintf("drone %s is booked on mission %s from %s to %s, overlapping the target window",
					bc.Drone.ID, other.ID, other.StartDate.Format(dateLayout), other.EndDate.Format(dateLayout)),
				Entity:   EntityDrone,
				EntityID: bc.Drone.ID,
			})
		}
	}
	return issues
}
