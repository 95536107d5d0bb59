package core

import (
	"sort"

	"skyops/pkg/domain"
)

// ResourceKind distinguishes the two reassignable resource types.
type ResourceKind string

// Resource kinds accepted by suggestion and reassignment requests.
const (
	ResourcePilot ResourceKind = "pilot"
	ResourceDrone ResourceKind = "drone"
)

// maxSuggestions caps the advisory list attached to a blocked binding.
const maxSuggestions = 3

// ScoreComponent names one contribution to a suggestion score. Rationale
// stays structured so presentation layers can format it.
type ScoreComponent struct {
	Component string `json:"component"`
	Points    int    `json:"points"`
}

// Suggestion ranks one alternative resource for a mission.
type Suggestion struct {
	CandidateID string           `json:"candidate_id"`
	Score       int              `json:"score"`
	Rationale   []ScoreComponent `json:"rationale"`
}

// SuggestionEngine scores alternative resources for a mission when a binding
// is blocked. Candidates that would themselves trigger a blocking rule
// against the same mission are excluded, so every suggestion is committable.
type SuggestionEngine struct {
	validator *BindingValidator
}

// NewSuggestionEngine constructs an engine that filters candidates through
// the provided validator.
func NewSuggestionEngine(validator *BindingValidator) *SuggestionEngine {
	if validator == nil {
		validator = NewDefaultBindingValidator()
	}
	return &SuggestionEngine{validator: validator}
}

// Suggest returns at most three alternatives of the requested kind for the
// mission, sorted by score descending with ties broken by ascending candidate
// ID. The excluded ID (the resource whose binding failed) never appears.
func (e *SuggestionEngine) Suggest(view domain.RuleView, mission Mission, kind ResourceKind, excludeID string) []Suggestion {
	var suggestions []Suggestion
	switch kind {
	case ResourcePilot:
		suggestions = e.suggestPilots(view, mission, excludeID)
	case ResourceDrone:
		suggestions = e.suggestDrones(view, mission, excludeID)
	}
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Score != suggestions[j].Score {
			return suggestions[i].Score > suggestions[j].Score
		}
		return suggestions[i].CandidateID < suggestions[j].CandidateID
	})
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

func (e *SuggestionEngine) suggestPilots(view domain.RuleView, mission Mission, excludeID string) []Suggestion {
	var out []Suggestion
	for _, pilot := range view.ListPilots() {
		if pilot.ID == excludeID || pilot.Status != PilotAvailable {
			continue
		}
		if e.blocked(view, Binding{PilotID: pilot.ID, MissionID: mission.ID}) {
			continue
		}
		s := Suggestion{CandidateID: pilot.ID}
		if len(missingItems(mission.RequiredSkills, pilot.Skills)) == 0 {
			s.add("required_skills", 40)
		}
		if len(missingItems(mission.RequiredCerts, pilot.Certifications)) == 0 {
			s.add("required_certifications", 30)
		}
		if pilot.Location == mission.Location {
			s.add("location_match", 20)
		}
		if !pilot.AvailableFrom.After(mission.StartDate) {
			s.add("available_by_start", 10)
		}
		out = append(out, s)
	}
	return out
}

func (e *SuggestionEngine) suggestDrones(view domain.RuleView, mission Mission, excludeID string) []Suggestion {
	var out []Suggestion
	for _, drone := range view.ListDrones() {
		if drone.ID == excludeID || drone.Status == DroneMaintenance {
			continue
		}
		if drone.Status == DroneAssigned && drone.MissionID != nil && *drone.MissionID != mission.ID {
			continue
		}
		if e.blocked(view, Binding{DroneID: drone.ID, MissionID: mission.ID}) {
			continue
		}
		s := Suggestion{CandidateID: drone.ID}
		if drone.Status == DroneAvailable {
			s.add("available", 50)
		}
		if drone.Location == mission.Location {
			s.add("location_match", 30)
		}
		if !mission.Contains(drone.MaintenanceDue) {
			s.add("maintenance_clear", 20)
		}
		out = append(out, s)
	}
	return out
}

func (e *SuggestionEngine) blocked(view domain.RuleView, trial Binding) bool {
	res, err := e.validator.Validate(trial, view)
	if err != nil {
		return true
	}
	return res.HasBlocking()
}

func (s *Suggestion) add(component string, points int) {
	s.Score += points
	s.Rationale = append(s.Rationale, ScoreComponent{Component: component, Points: points})
}
