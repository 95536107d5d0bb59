package integration

import (
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"skyops/internal/adapters/reports"
	"skyops/internal/blob"
	"skyops/internal/core"
	"skyops/internal/infra/persistence/sqlite"
	"skyops/pkg/domain"
)

// TestIntegrationSmoke exercises a minimal end-to-end cycle: seed a roster in
// a sqlite-backed store, run an assignment through the service, and archive
// the execution report to a filesystem blob store. It intentionally keeps
// scope tiny so it can act as a fast CI health check.
func TestIntegrationSmoke(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	store, err := sqlite.NewStore(filepath.Join(dir, "ops.db"), core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer func() { _ = store.Close() }()

	svc := core.NewService(store)
	start := time.Date(2026, 9, 10, 0, 0, 0, 0, time.UTC)

	pilot, _, err := svc.AddPilot(ctx, domain.Pilot{
		Name:     "Ava Reyes",
		Skills:   []string{"survey"},
		Location: "denver",
	})
	if err != nil {
		t.Fatalf("add pilot: %v", err)
	}
	drone, _, err := svc.AddDrone(ctx, domain.Drone{
		Model:    "Raptor X2",
		Location: "denver",
	})
	if err != nil {
		t.Fatalf("add drone: %v", err)
	}
	mission, _, err := svc.AddMission(ctx, domain.Mission{
		Name:           "Ridge Survey",
		Location:       "denver",
		RequiredSkills: []string{"survey"},
		StartDate:      start,
		EndDate:        start.AddDate(0, 0, 2),
	})
	if err != nil {
		t.Fatalf("add mission: %v", err)
	}

	result, err := svc.PlanAndExecute(ctx, core.AssignRequest{
		PilotRef:   pilot.ID,
		DroneRef:   drone.ID,
		MissionRef: mission.Name,
	})
	if err != nil {
		t.Fatalf("assign: %v", err)
	}
	if !result.Success {
		t.Fatalf("expected committed assignment: %+v", result)
	}

	// The assignment must survive a reopen of the database file.
	if err := store.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}
	reopened, err := sqlite.NewStore(filepath.Join(dir, "ops.db"), core.NewDefaultRulesEngine())
	if err != nil {
		t.Fatalf("reopen store: %v", err)
	}
	defer func() { _ = reopened.Close() }()
	got, ok := reopened.GetMission(mission.ID)
	if !ok || got.PilotID == nil || *got.PilotID != pilot.ID {
		t.Fatalf("assignment not persisted: %+v ok=%v", got, ok)
	}

	// Archive the report through the filesystem blob driver.
	blobStore, err := blob.NewFilesystem(filepath.Join(dir, "blobs"))
	if err != nil {
		t.Fatalf("open blob store: %v", err)
	}
	worker := reports.NewWorker(blobStore, &reports.MemoryAuditLog{})
	worker.Start()
	defer func() { _ = worker.Stop(context.Background()) }()

	record, err := worker.Enqueue(ctx, reports.ReportInput{
		RequestKind: "assign",
		Result:      result,
		RequestedBy: "smoke-test",
	})
	if err != nil {
		t.Fatalf("enqueue report: %v", err)
	}
	deadline := time.After(5 * time.Second)
	for {
		final, ok := worker.Get(record.ID)
		if !ok {
			t.Fatalf("report %s disappeared", record.ID)
		}
		if final.Status == reports.ReportStatusFailed {
			t.Fatalf("archive failed: %s", final.Error)
		}
		if final.Status == reports.ReportStatusSucceeded {
			info, rc, err := blobStore.Get(ctx, final.Key)
			if err != nil {
				t.Fatalf("read artifact: %v", err)
			}
			payload, _ := io.ReadAll(rc)
			_ = rc.Close()
			if info.ContentType != "application/json" || !strings.Contains(string(payload), mission.ID) {
				t.Fatalf("unexpected artifact: %+v %s", info, payload)
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("report %s never completed", record.ID)
		case <-time.After(10 * time.Millisecond):
		}
	}
}
