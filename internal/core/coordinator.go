package core

import (
	"context"
	"errors"
	"fmt"

	"skyops/pkg/domain"
)

// ExecutionResult is the outcome of one planned request. Blocking and
// Warnings carry the validation report; Suggestions is populated only when
// validation blocked the request. SideEffectNote surfaces consequences that
// were committed anyway, such as a source mission left without its resource.
type ExecutionResult struct {
	Success         bool         `json:"success"`
	Urgent          bool         `json:"urgent,omitempty"`
	StepsTaken      []string     `json:"steps_taken"`
	Blocking        []Issue      `json:"blocking,omitempty"`
	Warnings        []Issue      `json:"warnings,omitempty"`
	Suggestions     []Suggestion `json:"suggestions,omitempty"`
	UpdatedPilots   []string     `json:"updated_pilots,omitempty"`
	UpdatedDrones   []string     `json:"updated_drones,omitempty"`
	UpdatedMissions []string     `json:"updated_missions,omitempty"`
	SideEffectNote  string       `json:"side_effect_note,omitempty"`
}

// Coordinator executes planned requests against the store. It owns the
// orchestration sequence; all domain judgment lives in the validator,
// suggestion engine and the store's invariant rules.
type Coordinator struct {
	store     domain.PersistentStore
	planner   *Planner
	resolver  *Resolver
	validator *BindingValidator
	suggester *SuggestionEngine
}

// NewCoordinator wires a coordinator over the given store. A nil validator
// falls back to the default rule table.
func NewCoordinator(store domain.PersistentStore, validator *BindingValidator) *Coordinator {
	if validator == nil {
		validator = NewDefaultBindingValidator()
	}
	return &Coordinator{
		store:     store,
		planner:   NewPlanner(),
		resolver:  NewResolver(),
		validator: validator,
		suggester: NewSuggestionEngine(validator),
	}
}

// stateSnapshot is the working state a plan executes against, materialized
// once during the load step. Validation and suggestions read this snapshot;
// the persist step re-reads authoritative state inside the transaction.
type stateSnapshot struct {
	pilots   []Pilot
	drones   []Drone
	missions []Mission
}

func (s *stateSnapshot) ListPilots() []Pilot     { return s.pilots }
func (s *stateSnapshot) ListDrones() []Drone     { return s.drones }
func (s *stateSnapshot) ListMissions() []Mission { return s.missions }

func (s *stateSnapshot) FindPilot(id string) (Pilot, bool) {
	for _, p := range s.pilots {
		if p.ID == id {
			return p, true
		}
	}
	return Pilot{}, false
}

func (s *stateSnapshot) FindDrone(id string) (Drone, bool) {
	for _, d := range s.drones {
		if d.ID == id {
			return d, true
		}
	}
	return Drone{}, false
}

func (s *stateSnapshot) FindMission(id string) (Mission, bool) {
	for _, m := range s.missions {
		if m.ID == id {
			return m, true
		}
	}
	return Mission{}, false
}

// detachPreview overlays a snapshot so that one resource appears already
// released from its source mission. Reassignment validates against this view:
// detach-then-attach is a single logical unit, so the committed-elsewhere and
// schedule-overlap rules must not count the booking being vacated.
type detachPreview struct {
	domain.RuleView
	pilotID   string
	droneID   string
	missionID string
}

func (v *detachPreview) detachPilot(p Pilot) Pilot {
	if p.ID == v.pilotID {
		p.Status = PilotAvailable
		p.MissionID = nil
	}
	return p
}

func (v *detachPreview) detachDrone(d Drone) Drone {
	if d.ID == v.droneID {
		d.Status = DroneAvailable
		d.MissionID = nil
	}
	return d
}

func (v *detachPreview) detachMission(m Mission) Mission {
	if m.ID != v.missionID {
		return m
	}
	if v.pilotID != "" && m.PilotID != nil && *m.PilotID == v.pilotID {
		m.PilotID = nil
	}
	if v.droneID != "" && m.DroneID != nil && *m.DroneID == v.droneID {
		m.DroneID = nil
	}
	return m
}

func (v *detachPreview) ListPilots() []Pilot {
	src := v.RuleView.ListPilots()
	out := make([]Pilot, len(src))
	for i, p := range src {
		out[i] = v.detachPilot(p)
	}
	return out
}

func (v *detachPreview) ListDrones() []Drone {
	src := v.RuleView.ListDrones()
	out := make([]Drone, len(src))
	for i, d := range src {
		out[i] = v.detachDrone(d)
	}
	return out
}

func (v *detachPreview) ListMissions() []Mission {
	src := v.RuleView.ListMissions()
	out := make([]Mission, len(src))
	for i, m := range src {
		out[i] = v.detachMission(m)
	}
	return out
}

func (v *detachPreview) FindPilot(id string) (Pilot, bool) {
	p, ok := v.RuleView.FindPilot(id)
	if !ok {
		return Pilot{}, false
	}
	return v.detachPilot(p), true
}

func (v *detachPreview) FindDrone(id string) (Drone, bool) {
	d, ok := v.RuleView.FindDrone(id)
	if !ok {
		return Drone{}, false
	}
	return v.detachDrone(d), true
}

func (v *detachPreview) FindMission(id string) (Mission, bool) {
	m, ok := v.RuleView.FindMission(id)
	if !ok {
		return Mission{}, false
	}
	return v.detachMission(m), true
}

// changeSet is the mutation the execute step computed and the persist step
// applies. Detach fields are zero for plain assignments.
type changeSet struct {
	pilotID         string
	droneID         string
	missionID       string
	detachMissionID string
	sideEffectNote  string
}

// Execute plans req, runs every step, and returns the outcome. Validation
// failures return the populated result alongside a *ValidationBlockedError;
// reference failures return a *ResolutionError before any state is touched.
func (c *Coordinator) Execute(ctx context.Context, req Request) (*ExecutionResult, error) {
	plan := c.planner.Plan(req)
	result := &ExecutionResult{}

	var (
		snap    stateSnapshot
		binding Binding
		view    domain.RuleView
		cs      changeSet
	)

	for _, step := range plan {
		result.StepsTaken = append(result.StepsTaken, step.String())
		switch step.Kind {
		case StepLoad:
			if err := c.load(ctx, &snap); err != nil {
				return nil, err
			}
		case StepResolve:
			// Resolution of every reference for the request happens in one
			// pass so that a bad ref halts the plan before validation.
			var err error
			binding, cs, view, err = c.resolve(req, &snap)
			if err != nil {
				return nil, err
			}
			result.Urgent = binding.Urgent
		case StepValidate:
			report, err := c.validator.Validate(binding, view)
			if err != nil {
				return nil, err
			}
			result.Warnings = report.Warnings()
			if report.HasBlocking() {
				result.Blocking = report.Blocking()
				result.Suggestions = c.suggestForBlocked(view, binding, result.Blocking)
				return result, &ValidationBlockedError{Report: report, Suggestions: result.Suggestions}
			}
		case StepExecute:
			// The changeset was fixed during resolution; nothing to compute
			// beyond the side-effect note already captured.
		case StepPersist:
			if err := c.persist(ctx, result, cs); err != nil {
				return nil, err
			}
		}
	}

	result.Success = true
	return result, nil
}

func (c *Coordinator) load(ctx context.Context, snap *stateSnapshot) error {
	err := c.store.View(ctx, func(v domain.TransactionView) error {
		snap.pilots = v.ListPilots()
		snap.drones = v.ListDrones()
		snap.missions = v.ListMissions()
		return nil
	})
	if err != nil {
		return &PersistenceError{Op: "load", Err: err}
	}
	return nil
}

// resolve turns the request's references into a binding, the changeset to
// apply, and the view validation should run against. Reassignment of an
// assigned resource validates against a detach preview of the source mission;
// reassignment of an unassigned resource degrades to plain assignment.
func (c *Coordinator) resolve(req Request, snap *stateSnapshot) (Binding, changeSet, domain.RuleView, error) {
	switch r := req.(type) {
	case AssignRequest:
		binding := Binding{Urgent: r.Urgent}
		mission, err := c.resolver.ResolveMission(snap, r.MissionRef)
		if err != nil {
			return Binding{}, changeSet{}, nil, err
		}
		binding.MissionID = mission.ID
		if r.PilotRef != "" {
			pilot, err := c.resolver.ResolvePilot(snap, r.PilotRef)
			if err != nil {
				return Binding{}, changeSet{}, nil, err
			}
			binding.PilotID = pilot.ID
		}
		if r.DroneRef != "" {
			drone, err := c.resolver.ResolveDrone(snap, r.DroneRef)
			if err != nil {
				return Binding{}, changeSet{}, nil, err
			}
			binding.DroneID = drone.ID
		}
		cs := changeSet{pilotID: binding.PilotID, droneID: binding.DroneID, missionID: binding.MissionID}
		return binding, cs, snap, nil

	case ReassignRequest:
		target, err := c.resolver.ResolveMission(snap, r.TargetMissionRef)
		if err != nil {
			return Binding{}, changeSet{}, nil, err
		}
		binding := Binding{MissionID: target.ID, Urgent: r.Urgent}
		cs := changeSet{missionID: target.ID}
		preview := &detachPreview{RuleView: snap}

		switch r.Kind {
		case ResourceDrone:
			drone, err := c.resolver.ResolveDrone(snap, r.ResourceRef)
			if err != nil {
				return Binding{}, changeSet{}, nil, err
			}
			binding.DroneID = drone.ID
			cs.droneID = drone.ID
			if drone.MissionID != nil && *drone.MissionID != target.ID {
				cs.detachMissionID = *drone.MissionID
				preview.droneID = drone.ID
				preview.missionID = *drone.MissionID
				// Fall back to the raw ID when the snapshot has no record of
				// the source mission; the note is always attached.
				source := *drone.MissionID
				if src, ok := snap.FindMission(source); ok {
					source = src.Name
				}
				cs.sideEffectNote = fmt.Sprintf("mission %q left without an assigned drone", source)
			}
		default:
			pilot, err := c.resolver.ResolvePilot(snap, r.ResourceRef)
			if err != nil {
				return Binding{}, changeSet{}, nil, err
			}
			binding.PilotID = pilot.ID
			cs.pilotID = pilot.ID
			if pilot.MissionID != nil && *pilot.MissionID != target.ID {
				cs.detachMissionID = *pilot.MissionID
				preview.pilotID = pilot.ID
				preview.missionID = *pilot.MissionID
				source := *pilot.MissionID
				if src, ok := snap.FindMission(source); ok {
					source = src.Name
				}
				cs.sideEffectNote = fmt.Sprintf("mission %q left without an assigned pilot", source)
			}
		}

		if cs.detachMissionID == "" {
			return binding, cs, snap, nil
		}
		return binding, cs, preview, nil
	}
	return Binding{}, changeSet{}, nil, fmt.Errorf("unsupported request type %T", req)
}

func (c *Coordinator) suggestForBlocked(view domain.RuleView, binding Binding, blocking []Issue) []Suggestion {
	mission, ok := view.FindMission(binding.MissionID)
	if !ok {
		return nil
	}
	var out []Suggestion
	seen := map[EntityType]bool{}
	for _, issue := range blocking {
		if seen[issue.Entity] {
			continue
		}
		seen[issue.Entity] = true
		switch issue.Entity {
		case EntityPilot:
			out = append(out, c.suggester.Suggest(view, mission, ResourcePilot, binding.PilotID)...)
		case EntityDrone:
			out = append(out, c.suggester.Suggest(view, mission, ResourceDrone, binding.DroneID)...)
		}
	}
	return out
}

// persist applies the changeset inside a single store transaction so that
// detach and attach commit together or not at all.
func (c *Coordinator) persist(ctx context.Context, result *ExecutionResult, cs changeSet) error {
	report, err := c.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
		if cs.detachMissionID != "" {
			if _, err := tx.UpdateMission(cs.detachMissionID, func(m *Mission) error {
				if cs.pilotID != "" && m.PilotID != nil && *m.PilotID == cs.pilotID {
					m.PilotID = nil
				}
				if cs.droneID != "" && m.DroneID != nil && *m.DroneID == cs.droneID {
					m.DroneID = nil
				}
				return nil
			}); err != nil {
				return err
			}
		}
		if cs.pilotID != "" {
			if _, err := tx.UpdatePilot(cs.pilotID, func(p *Pilot) error {
				p.Status = PilotAssigned
				missionID := cs.missionID
				p.MissionID = &missionID
				return nil
			}); err != nil {
				return err
			}
		}
		if cs.droneID != "" {
			if _, err := tx.UpdateDrone(cs.droneID, func(d *Drone) error {
				d.Status = DroneAssigned
				missionID := cs.missionID
				d.MissionID = &missionID
				return nil
			}); err != nil {
				return err
			}
		}
		_, err := tx.UpdateMission(cs.missionID, func(m *Mission) error {
			if cs.pilotID != "" {
				pilotID := cs.pilotID
				m.PilotID = &pilotID
			}
			if cs.droneID != "" {
				droneID := cs.droneID
				m.DroneID = &droneID
			}
			return nil
		})
		return err
	})
	if err != nil {
		// Invariant violations are deterministic domain conflicts, not store
		// failures; retrying the same request cannot succeed, so they must not
		// surface as the retryable persistence kind.
		var violation domain.RuleViolationError
		if errors.As(err, &violation) {
			return violation
		}
		return &PersistenceError{Op: "commit", Err: err}
	}
	result.Warnings = append(result.Warnings, report.Warnings()...)
	if cs.pilotID != "" {
		result.UpdatedPilots = append(result.UpdatedPilots, cs.pilotID)
	}
	if cs.droneID != "" {
		result.UpdatedDrones = append(result.UpdatedDrones, cs.droneID)
	}
	result.UpdatedMissions = append(result.UpdatedMissions, cs.missionID)
	if cs.detachMissionID != "" {
		result.UpdatedMissions = append(result.UpdatedMissions, cs.detachMissionID)
	}
	result.SideEffectNote = cs.sideEffectNote
	return nil
}
