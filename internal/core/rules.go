package core

import "skyops/pkg/domain"

// Binding is a proposed (pilot, drone, mission) tuple to be validated and
// possibly committed. PilotID or DroneID may be empty when only one resource
// kind is being bound (reassignment of a single resource); rules that concern
// an absent resource do not fire. Urgent affects presentation only, never
// which rules apply.
type Binding struct {
	PilotID   string
	DroneID   string
	MissionID string
	Urgent    bool
}

// BindingContext carries the records a binding rule evaluates against. Pilot
// and Drone hold their zero value when the corresponding binding field is
// empty.
type BindingContext struct {
	Binding Binding
	Pilot   Pilot
	Drone   Drone
	Mission Mission
	View    domain.RuleView
}

// HasPilot reports whether the binding names a pilot.
func (bc BindingContext) HasPilot() bool { return bc.Binding.PilotID != "" }

// HasDrone reports whether the binding names a drone.
func (bc BindingContext) HasDrone() bool { return bc.Binding.DroneID != "" }

// BindingRule evaluates one validation policy against a proposed binding.
// Rules are pure functions of the context; they never consult wall-clock time.
type BindingRule interface {
	Name() string
	Evaluate(bc BindingContext) []Issue
}

// BindingValidator holds the fixed, ordered rule table. All rules always run
// and their issues are reported in registration order, so the result set is
// deterministic and stable for an unchanged snapshot and binding.
type BindingValidator struct {
	rules []BindingRule
}

// NewBindingValidator constructs an empty validator.
func NewBindingValidator() *BindingValidator {
	return &BindingValidator{}
}

// NewDefaultBindingValidator builds a validator with the built-in policy set:
// seven blocking rules followed by the two warning rules.
func NewDefaultBindingValidator() *BindingValidator {
	v := NewBindingValidator()
	v.Register(pilotCommittedRule{})
	v.Register(droneCommittedRule{})
	v.Register(pilotSkillsRule{})
	v.Register(pilotCertificationsRule{})
	v.Register(droneMaintenanceRule{})
	v.Register(droneMaintenanceWindowRule{})
	v.Register(scheduleOverlapRule{})
	v.Register(locationMismatchRule{})
	v.Register(pilotAvailabilityRule{})
	return v
}

// Register appends a rule to the table.
func (v *BindingValidator) Register(rule BindingRule) {
	v.rules = append(v.rules, rule)
}

// Validate resolves the binding's records against the snapshot view and runs
// every rule in order. Unknown identifiers surface as ErrNotFound before any
// rule runs.
func (v *BindingValidator) Validate(binding Binding, view domain.RuleView) (Result, error) {
	bc := BindingContext{Binding: binding, View: view}

	mission, ok := view.FindMission(binding.MissionID)
	if !ok {
		return Result{}, ErrNotFound{Entity: EntityMission, ID: binding.MissionID}
	}
	bc.Mission = mission

	if binding.PilotID != "" {
		pilot, ok := view.FindPilot(binding.PilotID)
		if !ok {
			return Result{}, ErrNotFound{Entity: EntityPilot, ID: binding.PilotID}
		}
		bc.Pilot = pilot
	}
	if binding.DroneID != "" {
		drone, ok := view.FindDrone(binding.DroneID)
		if !ok {
			return Result{}, ErrNotFound{Entity: EntityDrone, ID: binding.DroneID}
		}
		bc.Drone = drone
	}

	var res Result
	for _, rule := range v.rules {
		res.Merge(Result{Issues: rule.Evaluate(bc)})
	}
	return res, nil
}

// missingItems returns the required entries absent from have, preserving the
// required order.
func missingItems(required, have []string) []string {
	set := make(map[string]struct{}, len(have))
	for _, item := range have {
		set[item] = struct{}{}
	}
	var missing []string
	for _, item := range required {
		if _, ok := set[item]; !ok {
			missing = append(missing, item)
		}
	}
	return missing
}
