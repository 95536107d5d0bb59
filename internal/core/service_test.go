package core

import (
	"context"
	"errors"
	"testing"
	"time"

	"skyops/pkg/domain"
)

type stubClock struct{ t time.Time }

func (s stubClock) Now() time.Time { return s.t }

type captureLogger struct{ calls []string }

func (c *captureLogger) Debug(msg string, _ ...any) { c.calls = append(c.calls, "d:"+msg) }
func (c *captureLogger) Info(msg string, _ ...any)  { c.calls = append(c.calls, "i:"+msg) }
func (c *captureLogger) Warn(msg string, _ ...any)  { c.calls = append(c.calls, "w:"+msg) }
func (c *captureLogger) Error(msg string, _ ...any) { c.calls = append(c.calls, "e:"+msg) }

func newFixtureService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	return NewService(seedStore(t), opts...)
}

func TestServiceAddPilotDefaults(t *testing.T) {
	svc := NewInMemoryService(nil)
	created, _, err := svc.AddPilot(context.Background(), domain.Pilot{Name: "Dana Wu", Skills: []string{"survey"}})
	if err != nil {
		t.Fatalf("add pilot: %v", err)
	}
	if created.ID == "" {
		t.Fatal("expected generated ID")
	}
	if created.Status != PilotAvailable {
		t.Fatalf("expected available status, got %s", created.Status)
	}
	if created.CreatedAt.IsZero() || created.UpdatedAt.IsZero() {
		t.Fatalf("timestamps not set: %+v", created)
	}
}

func TestServiceAddMissionDefaultsPriority(t *testing.T) {
	svc := NewInMemoryService(nil)
	created, _, err := svc.AddMission(context.Background(), domain.Mission{
		Name:      "Ridge Scan",
		StartDate: day(t, "2026-06-01"),
		EndDate:   day(t, "2026-06-02"),
	})
	if err != nil {
		t.Fatalf("add mission: %v", err)
	}
	if created.Priority != PriorityStandard {
		t.Fatalf("expected standard priority, got %s", created.Priority)
	}
}

func TestServiceAddMissionRejectsInvertedWindow(t *testing.T) {
	svc := NewInMemoryService(nil)
	_, _, err := svc.AddMission(context.Background(), domain.Mission{
		Name:      "Backwards",
		StartDate: day(t, "2026-06-05"),
		EndDate:   day(t, "2026-06-01"),
	})
	var violation domain.RuleViolationError
	if !errors.As(err, &violation) {
		t.Fatalf("expected RuleViolationError, got %v", err)
	}
}

func TestServicePlanAndExecute(t *testing.T) {
	svc := newFixtureService(t)
	result, err := svc.PlanAndExecute(context.Background(), AssignRequest{
		PilotRef:   "pilot-ava",
		DroneRef:   "drone-d1",
		MissionRef: "mission-bravo",
	})
	if err != nil {
		t.Fatalf("plan and execute: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected success: %+v", result)
	}
	pilot, ok := svc.GetPilot("pilot-ava")
	if !ok || pilot.Status != PilotAssigned {
		t.Fatalf("pilot not committed: %+v", pilot)
	}
}

func TestServiceMissionFeasibility(t *testing.T) {
	svc := newFixtureService(t)
	report, err := svc.MissionFeasibility(context.Background(), "Bravo Mapping")
	if err != nil {
		t.Fatalf("feasibility: %v", err)
	}
	if !report.Feasible {
		t.Fatalf("expected feasible mission, got %+v", report)
	}
	// pilot-ava and pilot-cam are available with the survey skill; only
	// drone-d1 is available with maintenance outside the window.
	if len(report.QualifiedPilots) != 2 {
		t.Fatalf("qualified pilots = %v", report.QualifiedPilots)
	}
	if len(report.AvailableDrones) != 1 || report.AvailableDrones[0] != "drone-d1" {
		t.Fatalf("available drones = %v", report.AvailableDrones)
	}
}

func TestServiceMissionFeasibilityInfeasible(t *testing.T) {
	svc := newFixtureService(t)
	// Pull the only free drone into maintenance; charlie then has pilots but
	// no drones.
	store := svc.Store()
	_, err := store.RunInTransaction(context.Background(), func(tx domain.Transaction) error {
		_, err := tx.UpdateDrone("drone-d1", func(d *Drone) error {
			d.Status = DroneMaintenance
			return nil
		})
		return err
	})
	if err != nil {
		t.Fatalf("update drone: %v", err)
	}
	report, err := svc.MissionFeasibility(context.Background(), "mission-charlie")
	if err != nil {
		t.Fatalf("feasibility: %v", err)
	}
	if report.Feasible {
		t.Fatalf("expected infeasible mission, got %+v", report)
	}
}

func TestServiceSummary(t *testing.T) {
	svc := newFixtureService(t)
	summary, err := svc.Summary(context.Background())
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.PilotsByStatus[PilotAvailable] != 2 || summary.PilotsByStatus[PilotAssigned] != 1 {
		t.Fatalf("pilot counts wrong: %+v", summary.PilotsByStatus)
	}
	if summary.DronesByStatus[DroneMaintenance] != 1 {
		t.Fatalf("drone counts wrong: %+v", summary.DronesByStatus)
	}
	if summary.MissionsTotal != 3 || summary.MissionsStaffed != 1 || summary.MissionsUnstaffed != 2 {
		t.Fatalf("mission staffing wrong: %+v", summary)
	}
}

func TestServiceSuggestAlternatives(t *testing.T) {
	svc := newFixtureService(t)
	suggestions, err := svc.SuggestAlternatives(context.Background(), "mission-bravo", ResourcePilot, "pilot-ben")
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) == 0 || suggestions[0].CandidateID != "pilot-ava" {
		t.Fatalf("expected pilot-ava ranked first, got %v", suggestions)
	}
}

func TestServiceOptionsClockAndLogger(t *testing.T) {
	fixed := time.Unix(123, 0).UTC()
	log := &captureLogger{}
	svc := newFixtureService(t, WithClock(stubClock{t: fixed}), WithLogger(log))
	if svc.clock.Now() != fixed {
		t.Fatal("clock override not applied")
	}
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if len(log.calls) == 0 {
		t.Fatal("expected logger to record calls")
	}
}

func TestServiceMetricsObserved(t *testing.T) {
	recorder := NewExpvarMetricsRecorder("")
	svc := newFixtureService(t, WithMetrics(recorder))
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	if _, err := svc.MissionFeasibility(context.Background(), "missing"); err == nil {
		t.Fatal("expected error for unknown mission")
	}
	snap := recorder.Snapshot()
	if snap.Results["fleet_summary"]["success"] != 1 {
		t.Fatalf("expected one successful fleet_summary, got %+v", snap.Results)
	}
	if snap.Results["mission_feasibility"]["error"] != 1 {
		t.Fatalf("expected one failed mission_feasibility, got %+v", snap.Results)
	}
}

func TestServiceTracerSpans(t *testing.T) {
	tracer := NewJSONTracer(nil)
	svc := newFixtureService(t, WithTracer(tracer))
	if _, err := svc.Summary(context.Background()); err != nil {
		t.Fatalf("summary: %v", err)
	}
	entries := tracer.Entries()
	if len(entries) != 1 || entries[0].Operation != "fleet_summary" || entries[0].Status != "success" {
		t.Fatalf("unexpected trace entries: %+v", entries)
	}
}
