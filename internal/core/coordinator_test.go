package core

import (
	"context"
	"errors"
	"reflect"
	"testing"
)

func TestExecuteAssignSuccess(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	result, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "Ava Reyes",
		DroneRef:   "drone-d1",
		MissionRef: "Bravo Mapping",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if len(result.Blocking) != 0 {
		t.Fatalf("unexpected blocking issues: %v", result.Blocking)
	}

	pilot, _ := store.GetPilot("pilot-ava")
	if pilot.Status != PilotAssigned || pilot.MissionID == nil || *pilot.MissionID != "mission-bravo" {
		t.Fatalf("pilot not attached: %+v", pilot)
	}
	drone, _ := store.GetDrone("drone-d1")
	if drone.Status != DroneAssigned || drone.MissionID == nil || *drone.MissionID != "mission-bravo" {
		t.Fatalf("drone not attached: %+v", drone)
	}
	mission, _ := store.GetMission("mission-bravo")
	if mission.PilotID == nil || *mission.PilotID != "pilot-ava" || mission.DroneID == nil || *mission.DroneID != "drone-d1" {
		t.Fatalf("mission references not set: %+v", mission)
	}

	if !reflect.DeepEqual(result.UpdatedPilots, []string{"pilot-ava"}) ||
		!reflect.DeepEqual(result.UpdatedDrones, []string{"drone-d1"}) ||
		!reflect.DeepEqual(result.UpdatedMissions, []string{"mission-bravo"}) {
		t.Fatalf("unexpected updated sets: %+v", result)
	}
}

func TestExecuteAssignBlockedLeavesStateUntouched(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	result, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "Ben Okafor",
		MissionRef: "Bravo Mapping",
	})
	var blocked *ValidationBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ValidationBlockedError, got %v", err)
	}
	if result == nil || result.Success {
		t.Fatalf("expected failed result, got %+v", result)
	}
	if len(result.Blocking) == 0 {
		t.Fatal("expected blocking issues")
	}
	found := false
	for _, s := range result.Suggestions {
		if s.CandidateID == "pilot-ava" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected pilot-ava among suggestions, got %v", result.Suggestions)
	}

	// Nothing may change on a blocked binding.
	pilot, _ := store.GetPilot("pilot-ben")
	if pilot.MissionID == nil || *pilot.MissionID != "mission-alpha" {
		t.Fatalf("pilot-ben moved on a blocked request: %+v", pilot)
	}
	mission, _ := store.GetMission("mission-bravo")
	if mission.PilotID != nil {
		t.Fatalf("mission-bravo mutated on a blocked request: %+v", mission)
	}
}

func TestExecuteReassignMovesPilotAtomically(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	// mission-alpha and mission-bravo overlap; the detach from alpha and the
	// attach to bravo are one logical unit, so the vacated booking must not
	// count against the new one.
	result, err := coord.Execute(context.Background(), ReassignRequest{
		ResourceRef:      "Ben Okafor",
		Kind:             ResourcePilot,
		TargetMissionRef: "Bravo Mapping",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}

	source, _ := store.GetMission("mission-alpha")
	if source.PilotID != nil {
		t.Fatalf("source mission still references the pilot: %+v", source)
	}
	target, _ := store.GetMission("mission-bravo")
	if target.PilotID == nil || *target.PilotID != "pilot-ben" {
		t.Fatalf("target mission not updated: %+v", target)
	}
	pilot, _ := store.GetPilot("pilot-ben")
	if pilot.MissionID == nil || *pilot.MissionID != "mission-bravo" {
		t.Fatalf("pilot not moved: %+v", pilot)
	}

	if want := `mission "Alpha Survey" left without an assigned pilot`; result.SideEffectNote != want {
		t.Fatalf("side effect note = %q, want %q", result.SideEffectNote, want)
	}
	wantMissions := []string{"mission-bravo", "mission-alpha"}
	if !reflect.DeepEqual(result.UpdatedMissions, wantMissions) {
		t.Fatalf("updated missions = %v, want %v", result.UpdatedMissions, wantMissions)
	}
}

func TestExecuteReassignUnassignedDegradesToAssignment(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	result, err := coord.Execute(context.Background(), ReassignRequest{
		ResourceRef:      "pilot-ava",
		Kind:             ResourcePilot,
		TargetMissionRef: "mission-bravo",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.SideEffectNote != "" {
		t.Fatalf("degraded reassignment must not carry a side effect note: %q", result.SideEffectNote)
	}
	if !reflect.DeepEqual(result.UpdatedMissions, []string{"mission-bravo"}) {
		t.Fatalf("only the target mission may change: %v", result.UpdatedMissions)
	}
}

func TestExecuteReassignBlockedDroneSuggestsAlternatives(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	result, err := coord.Execute(context.Background(), ReassignRequest{
		ResourceRef:      "Heron S",
		Kind:             ResourceDrone,
		TargetMissionRef: "Bravo Mapping",
	})
	var blocked *ValidationBlockedError
	if !errors.As(err, &blocked) {
		t.Fatalf("expected ValidationBlockedError, got %v", err)
	}
	if result.Blocking[0].Rule != "drone_maintenance" {
		t.Fatalf("expected drone_maintenance, got %v", result.Blocking)
	}
	if len(result.Suggestions) == 0 || result.Suggestions[0].CandidateID != "drone-d1" {
		t.Fatalf("expected drone-d1 suggested, got %v", result.Suggestions)
	}
	drone, _ := store.GetDrone("drone-d3")
	if drone.Status != DroneMaintenance || drone.MissionID != nil {
		t.Fatalf("blocked reassignment mutated the drone: %+v", drone)
	}
}

func TestExecuteUnknownReferenceHaltsBeforeMutation(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	_, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "nobody",
		MissionRef: "Bravo Mapping",
	})
	var resErr *ResolutionError
	if !errors.As(err, &resErr) {
		t.Fatalf("expected ResolutionError, got %v", err)
	}
	mission, _ := store.GetMission("mission-bravo")
	if mission.PilotID != nil || mission.DroneID != nil {
		t.Fatalf("mission mutated after failed resolution: %+v", mission)
	}
}

func TestExecuteRecordsStepsAndUrgentFlag(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	result, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "pilot-ava",
		MissionRef: "mission-charlie",
		Urgent:     true,
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Urgent {
		t.Fatal("urgent flag lost")
	}
	if len(result.StepsTaken) != 6 {
		t.Fatalf("expected 6 steps (load, 2 resolves, validate, execute, persist), got %v", result.StepsTaken)
	}
	// Location differs (denver pilot, austin mission): warn but commit.
	if len(result.Warnings) == 0 {
		t.Fatalf("expected location warning, got %+v", result)
	}
}

func TestExecuteWarningsDoNotBlock(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	// pilot-cam triggers the availability warning against mission-bravo.
	result, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "Cam Silva",
		MissionRef: "Bravo Mapping",
	})
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("warnings must not prevent commit: %+v", result)
	}
	foundAvailability := false
	for _, w := range result.Warnings {
		if w.Rule == "pilot_availability" {
			foundAvailability = true
		}
	}
	if !foundAvailability {
		t.Fatalf("expected pilot_availability warning, got %v", result.Warnings)
	}
}
