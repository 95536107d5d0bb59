package core

import (
	"context"
	"time"

	"skyops/internal/infra/persistence/memory"
	"skyops/pkg/domain"
)

// Service exposes the operator-facing operations: planned assignment and
// reassignment, roster management, feasibility checks and fleet analytics.
// Every mutating operation runs through the store's transactional scope.
type Service struct {
	store       domain.PersistentStore
	coordinator *Coordinator
	validator   *BindingValidator
	suggester   *SuggestionEngine
	resolver    *Resolver
	clock       Clock
	logger      Logger
	metrics     MetricsRecorder
	tracer      Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the wall clock.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger overrides the service logger.
func WithLogger(l Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithTracer attaches a tracer.
func WithTracer(t Tracer) Option {
	return func(s *Service) {
		s.tracer = t
	}
}

// WithValidator overrides the binding rule table.
func WithValidator(v *BindingValidator) Option {
	return func(s *Service) {
		if v != nil {
			s.validator = v
		}
	}
}

// NewService constructs a service backed by the supplied store.
func NewService(store domain.PersistentStore, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: NewDefaultBindingValidator(),
		resolver:  NewResolver(),
		clock:     systemClock{},
		logger:    NewSlogLogger(nil),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.coordinator = NewCoordinator(store, s.validator)
	s.suggester = NewSuggestionEngine(s.validator)
	return s
}

// NewInMemoryService creates a service over a fresh in-memory store with the
// given invariant rules engine. A nil engine installs the default rules.
func NewInMemoryService(engine *domain.RulesEngine, opts ...Option) *Service {
	if engine == nil {
		engine = NewDefaultRulesEngine()
	}
	return NewService(memory.NewStore(engine), opts...)
}

// Store returns the underlying storage implementation.
func (s *Service) Store() domain.PersistentStore {
	return s.store
}

// run wraps an operation with tracing, timing and logging.
func (s *Service) run(ctx context.Context, operation string, fn func(context.Context) error) error {
	var span TraceSpan
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operation)
	}
	start := s.clock.Now()
	err := fn(ctx)
	elapsed := s.clock.Now().Sub(start)
	if span != nil {
		span.End(err)
	}
	if s.metrics != nil {
		s.metrics.Observe(ctx, operation, err == nil, elapsed)
	}
	if err != nil {
		s.logger.Warn("operation failed", "operation", operation, "error", err)
	} else {
		s.logger.Debug("operation completed", "operation", operation, "duration_ms", float64(elapsed)/float64(time.Millisecond))
	}
	return err
}

// PlanAndExecute plans req and drives it to completion. It is the sole entry
// point for assignment and reassignment; see Coordinator.Execute for the
// result and error contract.
func (s *Service) PlanAndExecute(ctx context.Context, req Request) (*ExecutionResult, error) {
	var result *ExecutionResult
	err := s.run(ctx, "plan_and_execute", func(ctx context.Context) error {
		var err error
		result, err = s.coordinator.Execute(ctx, req)
		return err
	})
	return result, err
}

// AddPilot persists a new pilot record.
func (s *Service) AddPilot(ctx context.Context, pilot Pilot) (Pilot, Result, error) {
	var created Pilot
	var res Result
	err := s.run(ctx, "add_pilot", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreatePilot(pilot)
			return err
		})
		return err
	})
	return created, res, err
}

// AddDrone persists a new drone record.
func (s *Service) AddDrone(ctx context.Context, drone Drone) (Drone, Result, error) {
	var created Drone
	var res Result
	err := s.run(ctx, "add_drone", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateDrone(drone)
			return err
		})
		return err
	})
	return created, res, err
}

// AddMission persists a new mission record.
func (s *Service) AddMission(ctx context.Context, mission Mission) (Mission, Result, error) {
	var created Mission
	var res Result
	err := s.run(ctx, "add_mission", func(ctx context.Context) error {
		var err error
		res, err = s.store.RunInTransaction(ctx, func(tx domain.Transaction) error {
			var err error
			created, err = tx.CreateMission(mission)
			return err
		})
		return err
	})
	return created, res, err
}

// FeasibilityReport lists the resources that could staff a mission today.
type FeasibilityReport struct {
	MissionID       string   `json:"mission_id"`
	MissionName     string   `json:"mission_name"`
	Feasible        bool     `json:"feasible"`
	QualifiedPilots []string `json:"qualified_pilots"`
	AvailableDrones []string `json:"available_drones"`
}

// MissionFeasibility reports which available pilots meet the mission's skill
// and certification requirements and which available drones have no
// maintenance due inside the mission window.
func (s *Service) MissionFeasibility(ctx context.Context, missionRef string) (FeasibilityReport, error) {
	var report FeasibilityReport
	err := s.run(ctx, "mission_feasibility", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			mission, err := s.resolver.ResolveMission(v, missionRef)
			if err != nil {
				return err
			}
			report.MissionID = mission.ID
			report.MissionName = mission.Name
			for _, p := range v.ListPilots() {
				if p.Status != PilotAvailable {
					continue
				}
				if len(missingItems(mission.RequiredSkills, p.Skills)) > 0 {
					continue
				}
				if len(missingItems(mission.RequiredCerts, p.Certifications)) > 0 {
					continue
				}
				report.QualifiedPilots = append(report.QualifiedPilots, p.ID)
			}
			for _, d := range v.ListDrones() {
				if d.Status != DroneAvailable {
					continue
				}
				if mission.Contains(d.MaintenanceDue) {
					continue
				}
				report.AvailableDrones = append(report.AvailableDrones, d.ID)
			}
			report.Feasible = len(report.QualifiedPilots) > 0 && len(report.AvailableDrones) > 0
			return nil
		})
	})
	return report, err
}

// FleetSummary aggregates the current roster.
type FleetSummary struct {
	PilotsByStatus    map[PilotStatus]int `json:"pilots_by_status"`
	DronesByStatus    map[DroneStatus]int `json:"drones_by_status"`
	MissionsTotal     int                 `json:"missions_total"`
	MissionsStaffed   int                 `json:"missions_staffed"`
	MissionsPartial   int                 `json:"missions_partial"`
	MissionsUnstaffed int                 `json:"missions_unstaffed"`
}

// Summary returns counts by status plus mission staffing coverage. A mission
// counts as staffed when both a pilot and a drone are attached, partial when
// exactly one is.
func (s *Service) Summary(ctx context.Context) (FleetSummary, error) {
	summary := FleetSummary{
		PilotsByStatus: make(map[PilotStatus]int),
		DronesByStatus: make(map[DroneStatus]int),
	}
	err := s.run(ctx, "fleet_summary", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			for _, p := range v.ListPilots() {
				summary.PilotsByStatus[p.Status]++
			}
			for _, d := range v.ListDrones() {
				summary.DronesByStatus[d.Status]++
			}
			for _, m := range v.ListMissions() {
				summary.MissionsTotal++
				switch {
				case m.PilotID != nil && m.DroneID != nil:
					summary.MissionsStaffed++
				case m.PilotID != nil || m.DroneID != nil:
					summary.MissionsPartial++
				default:
					summary.MissionsUnstaffed++
				}
			}
			return nil
		})
	})
	return summary, err
}

// SuggestAlternatives ranks replacement candidates of the given kind for a
// mission without executing anything.
func (s *Service) SuggestAlternatives(ctx context.Context, missionRef string, kind ResourceKind, excludeID string) ([]Suggestion, error) {
	var suggestions []Suggestion
	err := s.run(ctx, "suggest_alternatives", func(ctx context.Context) error {
		return s.store.View(ctx, func(v domain.TransactionView) error {
			mission, err := s.resolver.ResolveMission(v, missionRef)
			if err != nil {
				return err
			}
			suggestions = s.suggester.Suggest(v, mission, kind, excludeID)
			return nil
		})
	})
	return suggestions, err
}

// ListPilots returns all pilots in stable order.
func (s *Service) ListPilots() []Pilot { return s.store.ListPilots() }

// ListDrones returns all drones in stable order.
func (s *Service) ListDrones() []Drone { return s.store.ListDrones() }

// ListMissions returns all missions in stable order.
func (s *Service) ListMissions() []Mission { return s.store.ListMissions() }

// GetPilot fetches one pilot by ID.
func (s *Service) GetPilot(id string) (Pilot, bool) { return s.store.GetPilot(id) }

// GetDrone fetches one drone by ID.
func (s *Service) GetDrone(id string) (Drone, bool) { return s.store.GetDrone(id) }

// GetMission fetches one mission by ID.
func (s *Service) GetMission(id string) (Mission, bool) { return s.store.GetMission(id) }
