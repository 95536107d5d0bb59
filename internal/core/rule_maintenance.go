package core

import (
	"fmt"

	"skyops/pkg/domain"
)

const dateLayout = "2006-01-02"

// droneMaintenanceRule blocks any binding of a drone that is currently in
// maintenance.
type droneMaintenanceRule struct{}

func (droneMaintenanceRule) Name() string { return "drone_maintenance" }

func (droneMaintenanceRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasDrone() || bc.Drone.Status != domain.DroneMaintenance {
		return nil
	}
	return []Issue{{
		Rule:     "drone_maintenance",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("drone %s is currently in maintenance", bc.Drone.ID),
		Entity:   EntityDrone,
		EntityID: bc.Drone.ID,
	}}
}

// droneMaintenanceWindowRule blocks a binding when the drone's next
// maintenance date falls inside the mission window, inclusive on both ends.
type droneMaintenanceWindowRule struct{}

func (droneMaintenanceWindowRule) Name() string { return "drone_maintenance_window" }

func (droneMaintenanceWindowRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasDrone() || bc.Drone.MaintenanceDue.IsZero() {
		return nil
	}
	if !bc.Mission.Contains(bc.Drone.MaintenanceDue) {
		return nil
	}
	return []Issue{{
		Rule:     "drone_maintenance_window",
		Severity: SeverityBlock,
		Message: fmt.Sprintf("drone %s has maintenance due on %s, inside mission window %s to %s",
			bc.Drone.ID,
			bc.Drone.MaintenanceDue.Format(dateLayout),
			bc.Mission.StartDate.Format(dateLayout),
			bc.Mission.EndDate.Format(dateLayout)),
		Entity:   EntityDrone,
		EntityID: bc.Drone.ID,
	}}
}
