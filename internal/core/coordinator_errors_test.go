package core

import (
	"context"
	"errors"
	"testing"

	"skyops/internal/infra/persistence/memory"
	"skyops/pkg/domain"
)

// faultStore wraps the in-memory store and injects failures at the two points
// the coordinator touches storage.
type faultStore struct {
	*memory.Store
	viewErr   error
	commitErr error
}

func (s *faultStore) View(ctx context.Context, fn func(domain.TransactionView) error) error {
	if s.viewErr != nil {
		return s.viewErr
	}
	return s.Store.View(ctx, fn)
}

func (s *faultStore) RunInTransaction(ctx context.Context, fn func(domain.Transaction) error) (domain.Result, error) {
	if s.commitErr != nil {
		return domain.Result{}, s.commitErr
	}
	return s.Store.RunInTransaction(ctx, fn)
}

func TestExecuteLoadFailureIsPersistenceError(t *testing.T) {
	cause := errors.New("store offline")
	store := &faultStore{Store: seedStore(t), viewErr: cause}
	coord := NewCoordinator(store, nil)

	_, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "pilot-ava",
		DroneRef:   "drone-d1",
		MissionRef: "mission-bravo",
	})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if perr.Op != "load" {
		t.Fatalf("expected load op, got %q", perr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestExecuteCommitFailureIsPersistenceError(t *testing.T) {
	cause := errors.New("disk full")
	store := &faultStore{Store: seedStore(t), commitErr: cause}
	coord := NewCoordinator(store, nil)

	_, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "pilot-ava",
		DroneRef:   "drone-d1",
		MissionRef: "mission-bravo",
	})
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("expected *PersistenceError, got %v", err)
	}
	if perr.Op != "commit" {
		t.Fatalf("expected commit op, got %q", perr.Op)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
	// The failed commit must not leak into the store.
	pilot, _ := store.GetPilot("pilot-ava")
	if pilot.Status != PilotAvailable {
		t.Fatalf("state mutated despite commit failure: %+v", pilot)
	}
}

func TestExecuteCommitConflictSurfacesRuleViolation(t *testing.T) {
	store := seedStore(t)
	coord := NewCoordinator(store, nil)

	// mission-alpha already holds pilot-ben. Binding pilot-cam there passes
	// the binding rules, but the commit breaks the mirrored-reference
	// invariant: a deterministic conflict, not a retryable store failure.
	_, err := coord.Execute(context.Background(), AssignRequest{
		PilotRef:   "pilot-cam",
		MissionRef: "mission-alpha",
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	var perr *PersistenceError
	if errors.As(err, &perr) {
		t.Fatalf("domain conflict must not surface as *PersistenceError: %v", err)
	}
	if !violation.Result.HasBlocking() {
		t.Fatalf("expected blocking issues on the violation: %+v", violation.Result)
	}
	mission, _ := store.GetMission("mission-alpha")
	if mission.PilotID == nil || *mission.PilotID != "pilot-ben" {
		t.Fatalf("conflicting commit leaked: %+v", mission)
	}
}

func TestResolveReassignNotesMissingSourceMission(t *testing.T) {
	snap := fixtureSnapshot(t)
	for i := range snap.pilots {
		if snap.pilots[i].ID == "pilot-ava" {
			snap.pilots[i].Status = PilotAssigned
			snap.pilots[i].MissionID = strPtr("mission-vanished")
		}
	}
	coord := NewCoordinator(nil, nil)

	_, cs, _, err := coord.resolve(ReassignRequest{
		ResourceRef:      "pilot-ava",
		Kind:             ResourcePilot,
		TargetMissionRef: "mission-bravo",
	}, snap)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cs.detachMissionID != "mission-vanished" {
		t.Fatalf("detach target = %q", cs.detachMissionID)
	}
	want := `mission "mission-vanished" left without an assigned pilot`
	if cs.sideEffectNote != want {
		t.Fatalf("side effect note = %q, want %q", cs.sideEffectNote, want)
	}
}
