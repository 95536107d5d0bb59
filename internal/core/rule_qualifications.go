package core

import (
	"fmt"
	"strings"
)

// pilotSkillsRule blocks a binding when the pilot's skill set does not cover
// the mission's required skills.
type pilotSkillsRule struct{}

func (pilotSkillsRule) Name() string { return "pilot_skills" }

func (pilotSkillsRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasPilot() {
		return nil
	}
	missing := missingItems(bc.Mission.RequiredSkills, bc.Pilot.Skills)
	if len(missing) == 0 {
		return nil
	}
	return []Issue{{
		Rule:     "pilot_skills",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("pilot %s lacks required skills: %s", bc.Pilot.Name, strings.Join(missing, ", ")),
		Entity:   EntityPilot,
		EntityID: bc.Pilot.ID,
	}}
}

// pilotCertificationsRule blocks a binding when the pilot's certifications do
// not cover the mission's required certifications.
type pilotCertificationsRule struct{}

func (pilotCertificationsRule) Name() string { return "pilot_certifications" }

func (pilotCertificationsRule) Evaluate(bc BindingContext) []Issue {
	if !bc.HasPilot() {
		return nil
	}
	missing := missingItems(bc.Mission.RequiredCerts, bc.Pilot.Certifications)
	if len(missing) == 0 {
		return nil
	}
	return []Issue{{
		Rule:     "pilot_certifications",
		Severity: SeverityBlock,
		Message:  fmt.Sprintf("pilot %s lacks required certifications: %s", bc.Pilot.Name, strings.Join(missing, ", ")),
		Entity:   EntityPilot,
		EntityID: bc.Pilot.ID,
	}}
}
