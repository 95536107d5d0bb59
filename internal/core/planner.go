package core

import "fmt"

// StepKind identifies one phase of an execution plan.
type StepKind string

// Plan step kinds, in the order the coordinator dispatches them.
const (
	StepLoad     StepKind = "load"
	StepResolve  StepKind = "resolve"
	StepValidate StepKind = "validate"
	StepExecute  StepKind = "execute"
	StepPersist  StepKind = "persist"
)

// Step is one unit of work in a plan. Resolve steps carry the entity type and
// the operator-supplied reference; inferred marks references the planner
// derived rather than received.
type Step struct {
	Kind     StepKind
	Entity   EntityType
	Ref      string
	Inferred bool
}

func (s Step) String() string {
	switch s.Kind {
	case StepResolve:
		if s.Inferred {
			return fmt.Sprintf("resolve %s %q (inferred)", s.Entity, s.Ref)
		}
		return fmt.Sprintf("resolve %s %q", s.Entity, s.Ref)
	default:
		return string(s.Kind)
	}
}

// Request is a planned operator intent. The two concrete requests cover
// assigning resources to a mission and moving one resource between missions.
type Request interface {
	requestKind() string
}

// AssignRequest binds a pilot and/or a drone to a mission. Empty refs leave
// that resource out of the binding.
type AssignRequest struct {
	PilotRef   string
	DroneRef   string
	MissionRef string
	Urgent     bool
}

func (AssignRequest) requestKind() string { return "assign" }

// ReassignRequest detaches one resource from its current mission and attaches
// it to the target mission as a single logical unit.
type ReassignRequest struct {
	ResourceRef      string
	Kind             ResourceKind
	TargetMissionRef string
	Urgent           bool
}

func (ReassignRequest) requestKind() string { return "reassign" }

// Planner turns a request into an ordered step list. The plan is static:
// every request loads state, resolves its references, validates the binding,
// computes the changeset, and persists.
type Planner struct{}

// NewPlanner returns a Planner.
func NewPlanner() *Planner {
	return &Planner{}
}

// Plan produces the ordered steps for req.
func (p *Planner) Plan(req Request) []Step {
	steps := []Step{{Kind: StepLoad}}
	switch r := req.(type) {
	case AssignRequest:
		if r.PilotRef != "" {
			steps = append(steps, Step{Kind: StepResolve, Entity: EntityPilot, Ref: r.PilotRef})
		}
		if r.DroneRef != "" {
			steps = append(steps, Step{Kind: StepResolve, Entity: EntityDrone, Ref: r.DroneRef})
		}
		steps = append(steps, Step{Kind: StepResolve, Entity: EntityMission, Ref: r.MissionRef})
	case ReassignRequest:
		entity := EntityPilot
		if r.Kind == ResourceDrone {
			entity = EntityDrone
		}
		steps = append(steps,
			Step{Kind: StepResolve, Entity: entity, Ref: r.ResourceRef},
			Step{Kind: StepResolve, Entity: EntityMission, Ref: r.TargetMissionRef},
			Step{Kind: StepResolve, Entity: EntityMission, Ref: "current assignment", Inferred: true},
		)
	}
	steps = append(steps,
		Step{Kind: StepValidate},
		Step{Kind: StepExecute},
		Step{Kind: StepPersist},
	)
	return steps
}
