// Package domain defines the core persistent entities, value types, and
// rule evaluation primitives used by skyops.
package domain

import (
	"fmt"
	"time"
)

// EntityType identifies the type of record stored in the core domain.
type EntityType string

// Supported entity type identifiers used in Change records and persistence buckets.
const (
	// EntityPilot identifies a pilot roster record.
	EntityPilot EntityType = "pilot"
	// EntityDrone identifies a drone fleet record.
	EntityDrone EntityType = "drone"
	// EntityMission identifies a mission record.
	EntityMission EntityType = "mission"
)

// PilotStatus represents the canonical pilot roster states.
type PilotStatus string

// Canonical pilot statuses used for assignment validation.
const (
	// PilotAvailable indicates the pilot can accept a new mission.
	PilotAvailable PilotStatus = "available"
	// PilotAssigned indicates the pilot is committed to a mission.
	PilotAssigned PilotStatus = "assigned"
	// PilotOnLeave indicates the pilot is off roster.
	PilotOnLeave PilotStatus = "on_leave"
)

// DroneStatus represents the canonical drone fleet states.
type DroneStatus string

// Canonical drone statuses used for assignment validation.
const (
	DroneAvailable   DroneStatus = "available"
	DroneAssigned    DroneStatus = "assigned"
	DroneMaintenance DroneStatus = "maintenance"
)

// MissionPriority orders missions by operational urgency.
type MissionPriority string

// Canonical mission priorities, ordered Urgent > High > Standard.
const (
	PriorityStandard MissionPriority = "standard"
	PriorityHigh     MissionPriority = "high"
	PriorityUrgent   MissionPriority = "urgent"
)

// Rank returns the ordering weight of a priority (higher is more urgent).
func (p MissionPriority) Rank() int {
	switch p {
	case PriorityUrgent:
		return 2
	case PriorityHigh:
		return 1
	default:
		return 0
	}
}

// Severity captures rule outcomes.
type Severity string

// Rule evaluation severities determine commit behavior and reporting.
const (
	// SeverityBlock prevents the binding or transaction from committing.
	SeverityBlock Severity = "block"
	// SeverityWarn surfaces a concern but allows commit.
	SeverityWarn Severity = "warn"
)

// Base contains common fields for all domain records.
type Base struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Pilot represents an operator on the shared roster.
type Pilot struct {
	Base
	Name           string      `json:"name"`
	Skills         []string    `json:"skills"`
	Certifications []string    `json:"certifications"`
	Location       string      `json:"location"`
	Status         PilotStatus `json:"status"`
	MissionID      *string     `json:"mission_id"`
	AvailableFrom  time.Time   `json:"available_from"`
}

// Drone represents an airframe in the shared fleet.
type Drone struct {
	Base
	Model          string      `json:"model"`
	Status         DroneStatus `json:"status"`
	MissionID      *string     `json:"mission_id"`
	Location       string      `json:"location"`
	MaintenanceDue time.Time   `json:"maintenance_due"`
}

// Mission represents a client engagement requiring one pilot and one drone.
type Mission struct {
	Base
	Name           string          `json:"name"`
	Priority       MissionPriority `json:"priority"`
	RequiredSkills []string        `json:"required_skills"`
	RequiredCerts  []string        `json:"required_certs"`
	Location       string          `json:"location"`
	StartDate      time.Time       `json:"start_date"`
	EndDate        time.Time       `json:"end_date"`
	PilotID        *string         `json:"pilot_id"`
	DroneID        *string         `json:"drone_id"`
}

// Overlaps reports whether two mission date windows intersect. Windows are
// closed on both ends.
func (m Mission) Overlaps(other Mission) bool {
	return !m.StartDate.After(other.EndDate) && !other.StartDate.After(m.EndDate)
}

// Contains reports whether t falls inside the mission window, inclusive.
func (m Mission) Contains(t time.Time) bool {
	return !t.Before(m.StartDate) && !t.After(m.EndDate)
}

// Change describes a mutation applied to an entity during a transaction.
type Change struct {
	Entity EntityType
	Action Action
	Before any
	After  any
}

// Action indicates the type of modification performed.
type Action string

// Change actions enumerate supported mutations captured in the audit trail.
const (
	// ActionCreate indicates an entity was created.
	ActionCreate Action = "create"
	// ActionUpdate indicates an entity was updated.
	ActionUpdate Action = "update"
)

// Issue reports a single rule finding against a binding or transaction.
type Issue struct {
	Rule     string     `json:"rule"`
	Severity Severity   `json:"severity"`
	Message  string     `json:"message"`
	Entity   EntityType `json:"entity,omitempty"`
	EntityID string     `json:"entity_id,omitempty"`
}

// Result aggregates issues from rule evaluation.
type Result struct {
	Issues []Issue
}

// Merge appends issues from another result.
func (r *Result) Merge(other Result) {
	if len(other.Issues) == 0 {
		return
	}
	r.Issues = append(r.Issues, other.Issues...)
}

// HasBlocking returns true if the result contains blocking issues.
func (r Result) HasBlocking() bool {
	for _, issue := range r.Issues {
		if issue.Severity == SeverityBlock {
			return true
		}
	}
	return false
}

// Blocking returns the issues that must prevent commit, in evaluation order.
func (r Result) Blocking() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityBlock {
			out = append(out, issue)
		}
	}
	return out
}

// Warnings returns the advisory issues, in evaluation order.
func (r Result) Warnings() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityWarn {
			out = append(out, issue)
		}
	}
	return out
}

// RuleViolationError is returned when blocking issues are present.
type RuleViolationError struct {
	Result Result
}

func (e RuleViolationError) Error() string {
	return fmt.Sprintf("transaction blocked by rules (%d blocking issues)", len(e.Result.Blocking()))
}
