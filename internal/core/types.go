package core

import "skyops/pkg/domain"

type (
	EntityType         = domain.EntityType
	PilotStatus        = domain.PilotStatus
	DroneStatus        = domain.DroneStatus
	MissionPriority    = domain.MissionPriority
	Severity           = domain.Severity
	Base               = domain.Base
	Pilot              = domain.Pilot
	Drone              = domain.Drone
	Mission            = domain.Mission
	Change             = domain.Change
	Action             = domain.Action
	Issue              = domain.Issue
	Result             = domain.Result
	RuleViolationError = domain.RuleViolationError
)

const (
	EntityPilot   = domain.EntityPilot
	EntityDrone   = domain.EntityDrone
	EntityMission = domain.EntityMission
)

const (
	PilotAvailable = domain.PilotAvailable
	PilotAssigned  = domain.PilotAssigned
	PilotOnLeave   = domain.PilotOnLeave
)

const (
	DroneAvailable   = domain.DroneAvailable
	DroneAssigned    = domain.DroneAssigned
	DroneMaintenance = domain.DroneMaintenance
)

const (
	PriorityStandard = domain.PriorityStandard
	PriorityHigh     = domain.PriorityHigh
	PriorityUrgent   = domain.PriorityUrgent
)

const (
	SeverityBlock = domain.SeverityBlock
	SeverityWarn  = domain.SeverityWarn
)

const (
	ActionCreate = domain.ActionCreate
	ActionUpdate = domain.ActionUpdate
)
