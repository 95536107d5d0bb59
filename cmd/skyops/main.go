// Command skyops is the operations CLI for the drone fleet: it assigns and
// reassigns pilots and drones, checks mission feasibility, and reports fleet
// status. Storage and report archiving are configured via environment
// variables (see internal/core/storage.go and internal/blob).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"skyops/internal/adapters/reports"
	"skyops/internal/blob"
	"skyops/internal/core"
	"skyops/pkg/domain"
)

const dateLayout = "2006-01-02"

var exitFunc = os.Exit

func main() {
	if len(os.Args) < 2 {
		usage()
		exitFunc(2)
		return
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	store, err := core.OpenPersistentStore(core.NewDefaultRulesEngine())
	if err != nil {
		fatal(fmt.Errorf("open store: %w", err))
		return
	}
	svc := core.NewService(store,
		core.WithLogger(core.NewSlogLogger(logger)),
		core.WithMetrics(core.NewExpvarMetricsRecorder("")),
	)

	ctx := context.Background()
	switch os.Args[1] {
	case "assign":
		err = runAssign(ctx, svc, os.Args[2:])
	case "reassign":
		err = runReassign(ctx, svc, os.Args[2:])
	case "feasibility":
		err = runFeasibility(ctx, svc, os.Args[2:])
	case "summary":
		err = runSummary(ctx, svc)
	case "suggest":
		err = runSuggest(ctx, svc, os.Args[2:])
	case "add-pilot":
		err = runAddPilot(ctx, svc, os.Args[2:])
	case "add-drone":
		err = runAddDrone(ctx, svc, os.Args[2:])
	case "add-mission":
		err = runAddMission(ctx, svc, os.Args[2:])
	case "list":
		err = runList(svc, os.Args[2:])
	default:
		usage()
		exitFunc(2)
		return
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: skyops <command> [flags]

commands:
  assign       bind a pilot and/or drone to a mission
  reassign     move a pilot or drone to another mission
  feasibility  report staffing options for a mission
  summary      fleet status counts
  suggest      rank alternative resources for a mission
  add-pilot    create a pilot record
  add-drone    create a drone record
  add-mission  create a mission record
  list         list pilots, drones or missions`)
}

func fatal(err error) {
	var blocked *core.ValidationBlockedError
	if errors.As(err, &blocked) {
		// Blocked bindings are an expected outcome; the result was already
		// printed with its suggestions.
		exitFunc(1)
		return
	}
	fmt.Fprintf(os.Stderr, "skyops: %v\n", err)
	exitFunc(1)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runAssign(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("assign", flag.ExitOnError)
	pilot := fs.String("pilot", "", "pilot ID or name")
	drone := fs.String("drone", "", "drone ID or model")
	mission := fs.String("mission", "", "mission ID or name (required)")
	urgent := fs.Bool("urgent", false, "urgent mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mission == "" {
		return fmt.Errorf("assign: -mission is required")
	}
	result, err := svc.PlanAndExecute(ctx, core.AssignRequest{
		PilotRef:   *pilot,
		DroneRef:   *drone,
		MissionRef: *mission,
		Urgent:     *urgent,
	})
	return finishExecution(ctx, "assign", result, err)
}

func runReassign(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("reassign", flag.ExitOnError)
	resource := fs.String("resource", "", "pilot/drone ID or name (required)")
	kind := fs.String("kind", "pilot", "resource kind: pilot|drone")
	mission := fs.String("mission", "", "target mission ID or name (required)")
	urgent := fs.Bool("urgent", false, "urgent mode")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *resource == "" || *mission == "" {
		return fmt.Errorf("reassign: -resource and -mission are required")
	}
	rk := core.ResourceKind(*kind)
	if rk != core.ResourcePilot && rk != core.ResourceDrone {
		return fmt.Errorf("reassign: unknown kind %q", *kind)
	}
	result, err := svc.PlanAndExecute(ctx, core.ReassignRequest{
		ResourceRef:      *resource,
		Kind:             rk,
		TargetMissionRef: *mission,
		Urgent:           *urgent,
	})
	return finishExecution(ctx, "reassign", result, err)
}

// finishExecution prints the result, optionally archives it, and propagates
// the execution error.
func finishExecution(ctx context.Context, kind string, result *core.ExecutionResult, execErr error) error {
	if result != nil {
		if err := printJSON(result); err != nil {
			return err
		}
		if err := archiveReport(ctx, kind, result); err != nil {
			slog.Warn("report archive failed", "error", err)
		}
	}
	return execErr
}

// archiveReport stores the execution result through the configured blob
// driver when SKYOPS_REPORT_ARCHIVE=true.
func archiveReport(ctx context.Context, kind string, result *core.ExecutionResult) error {
	if !strings.EqualFold(os.Getenv("SKYOPS_REPORT_ARCHIVE"), "true") {
		return nil
	}
	store, err := blob.Open(ctx)
	if err != nil {
		return err
	}
	worker := reports.NewWorker(store, nil)
	worker.Start()
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = worker.Stop(stopCtx)
	}()
	record, err := worker.Enqueue(ctx, reports.ReportInput{
		RequestKind: kind,
		Result:      result,
		RequestedBy: os.Getenv("USER"),
	})
	if err != nil {
		return err
	}
	// Poll briefly so the archive lands before the process exits.
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if current, ok := worker.Get(record.ID); ok {
			if current.Status == reports.ReportStatusSucceeded {
				return nil
			}
			if current.Status == reports.ReportStatusFailed {
				return fmt.Errorf("archive failed: %s", current.Error)
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	return fmt.Errorf("archive timed out")
}

func runFeasibility(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("feasibility", flag.ExitOnError)
	mission := fs.String("mission", "", "mission ID or name (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mission == "" {
		return fmt.Errorf("feasibility: -mission is required")
	}
	report, err := svc.MissionFeasibility(ctx, *mission)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runSummary(ctx context.Context, svc *core.Service) error {
	summary, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	return printJSON(summary)
}

func runSuggest(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("suggest", flag.ExitOnError)
	mission := fs.String("mission", "", "mission ID or name (required)")
	kind := fs.String("kind", "pilot", "resource kind: pilot|drone")
	exclude := fs.String("exclude", "", "resource ID to leave out")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *mission == "" {
		return fmt.Errorf("suggest: -mission is required")
	}
	suggestions, err := svc.SuggestAlternatives(ctx, *mission, core.ResourceKind(*kind), *exclude)
	if err != nil {
		return err
	}
	return printJSON(suggestions)
}

func runAddPilot(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("add-pilot", flag.ExitOnError)
	name := fs.String("name", "", "pilot name (required)")
	skills := fs.String("skills", "", "comma-separated skills")
	certs := fs.String("certs", "", "comma-separated certifications")
	location := fs.String("location", "", "home location")
	availableFrom := fs.String("available-from", "", "YYYY-MM-DD date the pilot is free from")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" {
		return fmt.Errorf("add-pilot: -name is required")
	}
	pilot := domain.Pilot{
		Name:           *name,
		Skills:         splitList(*skills),
		Certifications: splitList(*certs),
		Location:       *location,
	}
	if *availableFrom != "" {
		t, err := time.Parse(dateLayout, *availableFrom)
		if err != nil {
			return fmt.Errorf("add-pilot: invalid -available-from: %w", err)
		}
		pilot.AvailableFrom = t
	}
	created, _, err := svc.AddPilot(ctx, pilot)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func runAddDrone(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("add-drone", flag.ExitOnError)
	model := fs.String("model", "", "drone model (required)")
	location := fs.String("location", "", "home location")
	maintenanceDue := fs.String("maintenance-due", "", "YYYY-MM-DD next maintenance date")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *model == "" {
		return fmt.Errorf("add-drone: -model is required")
	}
	drone := domain.Drone{
		Model:    *model,
		Location: *location,
	}
	if *maintenanceDue != "" {
		t, err := time.Parse(dateLayout, *maintenanceDue)
		if err != nil {
			return fmt.Errorf("add-drone: invalid -maintenance-due: %w", err)
		}
		drone.MaintenanceDue = t
	}
	created, _, err := svc.AddDrone(ctx, drone)
	if err != nil {
		return err
	}
	return printJSON(created)
}

func runAddMission(ctx context.Context, svc *core.Service, args []string) error {
	fs := flag.NewFlagSet("add-mission", flag.ExitOnError)
	name := fs.String("name", "", "mission name (required)")
	priority := fs.String("priority", "standard", "priority: standard|high|urgent")
	skills := fs.String("required-skills", "", "comma-separated required skills")
	certs := fs.String("required-certs", "", "comma-separated required certifications")
	location := fs.String("location", "", "mission location")
	start := fs.String("start", "", "YYYY-MM-DD start date (required)")
	end := fs.String("end", "", "YYYY-MM-DD end date (required)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *start == "" || *end == "" {
		return fmt.Errorf("add-mission: -name, -start and -end are required")
	}
	startDate, err := time.Parse(dateLayout, *start)
	if err != nil {
		return fmt.Errorf("add-mission: invalid -start: %w", err)
	}
	endDate, err := time.Parse(dateLayout, *end)
	if err != nil {
		return fmt.Errorf("add-mission: invalid -end: %w", err)
	}
	created, _, err := svc.AddMission(ctx, domain.Mission{
		Name:           *name,
		Priority:       domain.MissionPriority(*priority),
		RequiredSkills: splitList(*skills),
		RequiredCerts:  splitList(*certs),
		Location:       *location,
		StartDate:      startDate,
		EndDate:        endDate,
	})
	if err != nil {
		return err
	}
	return printJSON(created)
}

func runList(svc *core.Service, args []string) error {
	kind := "missions"
	if len(args) > 0 {
		kind = args[0]
	}
	switch kind {
	case "pilots":
		return printJSON(svc.ListPilots())
	case "drones":
		return printJSON(svc.ListDrones())
	case "missions":
		return printJSON(svc.ListMissions())
	default:
		return fmt.Errorf("list: unknown kind %q (pilots|drones|missions)", kind)
	}
}

func splitList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
