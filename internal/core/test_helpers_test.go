package core

import (
	"context"
	"testing"
	"time"

	"skyops/internal/infra/persistence/memory"
	"skyops/pkg/domain"
)

func day(t *testing.T, value string) time.Time {
	t.Helper()
	parsed, err := time.Parse(dateLayout, value)
	if err != nil {
		t.Fatalf("parse day %q: %v", value, err)
	}
	return parsed
}

func strPtr(s string) *string { return &s }

// fixtureSnapshot builds the standing roster most validation tests run
// against: one free qualified pilot, one committed pilot, one free drone, one
// committed drone, one drone in maintenance, and three missions in Denver and
// Austin.
func fixtureSnapshot(t *testing.T) *stateSnapshot {
	t.Helper()
	return &stateSnapshot{
		pilots: []Pilot{
			{
				Base:           domain.Base{ID: "pilot-ava"},
				Name:           "Ava Reyes",
				Skills:         []string{"survey", "thermal"},
				Certifications: []string{"night-ops"},
				Location:       "denver",
				Status:         PilotAvailable,
			},
			{
				Base:      domain.Base{ID: "pilot-ben"},
				Name:      "Ben Okafor",
				Skills:    []string{"survey"},
				Location:  "austin",
				Status:    PilotAssigned,
				MissionID: strPtr("mission-alpha"),
			},
			{
				Base:          domain.Base{ID: "pilot-cam"},
				Name:          "Cam Silva",
				Skills:        []string{"survey"},
				Location:      "denver",
				Status:        PilotAvailable,
				AvailableFrom: day(t, "2026-06-04"),
			},
		},
		drones: []Drone{
			{
				Base:           domain.Base{ID: "drone-d1"},
				Model:          "Raptor X2",
				Status:         DroneAvailable,
				Location:       "denver",
				MaintenanceDue: day(t, "2026-09-01"),
			},
			{
				Base:      domain.Base{ID: "drone-d2"},
				Model:     "Raptor X2",
				Status:    DroneAssigned,
				MissionID: strPtr("mission-alpha"),
				Location:  "austin",
			},
			{
				Base:     domain.Base{ID: "drone-d3"},
				Model:    "Heron S",
				Status:   DroneMaintenance,
				Location: "denver",
			},
		},
		missions: []Mission{
			{
				Base:           domain.Base{ID: "mission-alpha"},
				Name:           "Alpha Survey",
				Priority:       PriorityStandard,
				RequiredSkills: []string{"survey"},
				Location:       "austin",
				StartDate:      day(t, "2026-06-01"),
				EndDate:        day(t, "2026-06-05"),
				PilotID:        strPtr("pilot-ben"),
				DroneID:        strPtr("drone-d2"),
			},
			{
				Base:           domain.Base{ID: "mission-bravo"},
				Name:           "Bravo Mapping",
				Priority:       PriorityHigh,
				RequiredSkills: []string{"survey"},
				Location:       "denver",
				StartDate:      day(t, "2026-06-03"),
				EndDate:        day(t, "2026-06-08"),
			},
			{
				Base:           domain.Base{ID: "mission-charlie"},
				Name:           "Charlie Night Ops",
				Priority:       PriorityUrgent,
				RequiredSkills: []string{"survey", "thermal"},
				RequiredCerts:  []string{"night-ops"},
				Location:       "austin",
				StartDate:      day(t, "2026-07-01"),
				EndDate:        day(t, "2026-07-03"),
			},
		},
	}
}

// seedStore loads the fixture roster into a fresh in-memory store guarded by
// the default invariant rules.
func seedStore(t *testing.T) *memory.Store {
	t.Helper()
	store := memory.NewStore(NewDefaultRulesEngine())
	snap := fixtureSnapshot(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		for _, p := range snap.pilots {
			if _, err := tx.CreatePilot(p); err != nil {
				return err
			}
		}
		for _, d := range snap.drones {
			if _, err := tx.CreateDrone(d); err != nil {
				return err
			}
		}
		for _, m := range snap.missions {
			if _, err := tx.CreateMission(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return store
}
