package core

import (
	"context"
	"fmt"

	"skyops/pkg/domain"
)

// NewDefaultRulesEngine builds a transactional rules engine with the built-in
// invariant set. The engine gates every store commit, so a bug that would
// leave the roster inconsistent fails the transaction instead of persisting.
func NewDefaultRulesEngine() *domain.RulesEngine {
	engine := domain.NewRulesEngine()
	engine.Register(assignmentIntegrityRule{})
	engine.Register(missionScheduleRule{})
	return engine
}

// assignmentIntegrityRule enforces the status/reference invariants: a pilot or
// drone is Assigned exactly when it references a mission, a drone in
// Maintenance references none, and every reference is mirrored by the mission
// it points at.
type assignmentIntegrityRule struct{}

func (assignmentIntegrityRule) Name() string { return "assignment_integrity" }

func (assignmentIntegrityRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (Result, error) {
	res := Result{}
	for _, pilot := range view.ListPilots() {
		assigned := pilot.Status == PilotAssigned
		if assigned != (pilot.MissionID != nil) {
			res.Issues = append(res.Issues, Issue{
				Rule:     "assignment_integrity",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("pilot %s status %q disagrees with its mission reference", pilot.ID, pilot.Status),
				Entity:   EntityPilot,
				EntityID: pilot.ID,
			})
			continue
		}
		if pilot.MissionID != nil {
			mission, ok := view.FindMission(*pilot.MissionID)
			if !ok || mission.PilotID == nil || *mission.PilotID != pilot.ID {
				res.Issues = append(res.Issues, Issue{
					Rule:     "assignment_integrity",
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("pilot %s references mission %s which does not reference it back", pilot.ID, *pilot.MissionID),
					Entity:   EntityPilot,
					EntityID: pilot.ID,
				})
			}
		}
	}
	for _, drone := range view.ListDrones() {
		if drone.Status == DroneMaintenance && drone.MissionID != nil {
			res.Issues = append(res.Issues, Issue{
				Rule:     "assignment_integrity",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("drone %s is in maintenance but references mission %s", drone.ID, *drone.MissionID),
				Entity:   EntityDrone,
				EntityID: drone.ID,
			})
			continue
		}
		assigned := drone.Status == DroneAssigned
		if assigned != (drone.MissionID != nil) {
			res.Issues = append(res.Issues, Issue{
				Rule:     "assignment_integrity",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("drone %s status %q disagrees with its mission reference", drone.ID, drone.Status),
				Entity:   EntityDrone,
				EntityID: drone.ID,
			})
			continue
		}
		if drone.MissionID != nil {
			mission, ok := view.FindMission(*drone.MissionID)
			if !ok || mission.DroneID == nil || *mission.DroneID != drone.ID {
				res.Issues = append(res.Issues, Issue{
					Rule:     "assignment_integrity",
					Severity: SeverityBlock,
					Message:  fmt.Sprintf("drone %s references mission %s which does not reference it back", drone.ID, *drone.MissionID),
					Entity:   EntityDrone,
					EntityID: drone.ID,
				})
			}
		}
	}
	return res, nil
}

// missionScheduleRule rejects missions whose end date precedes their start.
type missionScheduleRule struct{}

func (missionScheduleRule) Name() string { return "mission_schedule" }

func (missionScheduleRule) Evaluate(_ context.Context, view domain.RuleView, _ []domain.Change) (Result, error) {
	res := Result{}
	for _, mission := range view.ListMissions() {
		if mission.EndDate.Before(mission.StartDate) {
			res.Issues = append(res.Issues, Issue{
				Rule:     "mission_schedule",
				Severity: SeverityBlock,
				Message:  fmt.Sprintf("mission %s ends %s before it starts %s", mission.ID, mission.EndDate.Format(dateLayout), mission.StartDate.Format(dateLayout)),
				Entity:   EntityMission,
				EntityID: mission.ID,
			})
		}
	}
	return res, nil
}
