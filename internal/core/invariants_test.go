package core

import (
	"context"
	"errors"
	"testing"

	"skyops/internal/infra/persistence/memory"
	"skyops/pkg/domain"
)

func TestInvariantBlocksStatusWithoutReference(t *testing.T) {
	store := seedStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdatePilot("pilot-ava", func(p *Pilot) error {
			p.Status = PilotAssigned
			return nil
		})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if rules := issueRules(Result{Issues: violation.Result.Blocking()}); len(rules) != 1 || rules[0] != "assignment_integrity" {
		t.Fatalf("unexpected blocking issues: %v", rules)
	}
	// The aborted transaction must not leak.
	pilot, _ := store.GetPilot("pilot-ava")
	if pilot.Status != PilotAvailable {
		t.Fatalf("commit leaked despite violation: %+v", pilot)
	}
}

func TestInvariantBlocksUnmirroredReference(t *testing.T) {
	store := seedStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdatePilot("pilot-ava", func(p *Pilot) error {
			p.Status = PilotAssigned
			p.MissionID = strPtr("mission-bravo")
			return nil
		})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}

func TestInvariantBlocksMaintenanceWithMission(t *testing.T) {
	store := seedStore(t)
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateDrone("drone-d2", func(d *Drone) error {
			d.Status = DroneMaintenance
			return nil
		})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	issues := violation.Result.Blocking()
	if len(issues) != 1 || issues[0].EntityID != "drone-d2" {
		t.Fatalf("unexpected issues: %+v", issues)
	}
}

func TestInvariantBlocksInvertedMissionWindow(t *testing.T) {
	store := memory.NewStore(NewDefaultRulesEngine())
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.CreateMission(Mission{
			Base:      domain.Base{ID: "mission-x"},
			Name:      "Inverted",
			StartDate: day(t, "2026-06-10"),
			EndDate:   day(t, "2026-06-01"),
		})
		return err
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
	if rules := issueRules(Result{Issues: violation.Result.Blocking()}); rules[0] != "mission_schedule" {
		t.Fatalf("unexpected rules: %v", rules)
	}
	if _, ok := store.GetMission("mission-x"); ok {
		t.Fatal("rejected mission was persisted")
	}
}

func TestInvariantAllowsConsistentSnapshot(t *testing.T) {
	// The fixture is internally consistent, so a no-op transaction commits.
	store := seedStore(t)
	res, err := store.RunInTransaction(context.Background(), func(domain.Transaction) error { return nil })
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if res.HasBlocking() {
		t.Fatalf("unexpected blocking issues: %+v", res.Issues)
	}
}
