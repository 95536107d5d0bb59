// Package memory provides an in-memory implementation of the core persistence
// store used for tests and ephemeral environments.
package memory

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"

	"skyops/pkg/domain"
)

// Compile-time contract assertion ensuring memory.Store adheres to the domain persistence interface.
var _ domain.PersistentStore = (*Store)(nil)

type (
	// Pilot aliases domain.Pilot for in-memory persistence operations.
	Pilot = domain.Pilot
	// Drone aliases domain.Drone.
	Drone = domain.Drone
	// Mission aliases domain.Mission.
	Mission = domain.Mission
	// Change aliases domain.Change captured in transactions.
	Change = domain.Change
	// Result aliases domain.Result summarizing rule evaluation.
	Result = domain.Result
	// RulesEngine aliases domain.RulesEngine used to evaluate rules.
	RulesEngine = domain.RulesEngine
	// Transaction aliases domain.Transaction representing a mutable unit of work.
	Transaction = domain.Transaction
	// TransactionView aliases domain.TransactionView providing read-only state.
	TransactionView = domain.TransactionView
)

type memoryState struct {
	pilots   map[string]Pilot
	drones   map[string]Drone
	missions map[string]Mission
}

// Snapshot captures a point-in-time clone of the store state.
type Snapshot struct {
	Pilots   map[string]Pilot   `json:"pilots"`
	Drones   map[string]Drone   `json:"drones"`
	Missions map[string]Mission `json:"missions"`
}

func newMemoryState() memoryState {
	return memoryState{
		pilots:   make(map[string]Pilot),
		drones:   make(map[string]Drone),
		missions: make(map[string]Mission),
	}
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Pilots:   make(map[string]Pilot, len(state.pilots)),
		Drones:   make(map[string]Drone, len(state.drones)),
		Missions: make(map[string]Mission, len(state.missions)),
	}
	for k, v := range state.pilots {
		s.Pilots[k] = clonePilot(v)
	}
	for k, v := range state.drones {
		s.Drones[k] = cloneDrone(v)
	}
	for k, v := range state.missions {
		s.Missions[k] = cloneMission(v)
	}
	return s
}

func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := newMemoryState()
	for k, v := range s.Pilots {
		state.pilots[k] = clonePilot(v)
	}
	for k, v := range s.Drones {
		state.drones[k] = cloneDrone(v)
	}
	for k, v := range s.Missions {
		state.missions[k] = cloneMission(v)
	}
	return state
}

func (s memoryState) clone() memoryState {
	cloned := newMemoryState()
	for k, v := range s.pilots {
		cloned.pilots[k] = clonePilot(v)
	}
	for k, v := range s.drones {
		cloned.drones[k] = cloneDrone(v)
	}
	for k, v := range s.missions {
		cloned.missions[k] = cloneMission(v)
	}
	return cloned
}

func cloneStringPtr(p *string) *string {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func clonePilot(p Pilot) Pilot {
	cp := p
	cp.Skills = append([]string(nil), p.Skills...)
	cp.Certifications = append([]string(nil), p.Certifications...)
	cp.MissionID = cloneStringPtr(p.MissionID)
	return cp
}

func cloneDrone(d Drone) Drone {
	cp := d
	cp.MissionID = cloneStringPtr(d.MissionID)
	return cp
}

func cloneMission(m Mission) Mission {
	cp := m
	cp.RequiredSkills = append([]string(nil), m.RequiredSkills...)
	cp.RequiredCerts = append([]string(nil), m.RequiredCerts...)
	cp.PilotID = cloneStringPtr(m.PilotID)
	cp.DroneID = cloneStringPtr(m.DroneID)
	return cp
}

// Store provides an in-memory transactional store for the core domain.
type Store struct {
	mu     sync.RWMutex
	state  memoryState
	engine *RulesEngine
	nowFn  func() time.Time
}

// NewStore constructs an in-memory store backed by the provided rules engine.
func NewStore(engine *RulesEngine) *Store {
	if engine == nil {
		engine = domain.NewRulesEngine()
	}
	return &Store{
		state:  newMemoryState(),
		engine: engine,
		nowFn:  func() time.Time { return time.Now().UTC() },
	}
}

func (s *Store) newID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b[:])
}

// ExportState clones the current store state for external persistence.
func (s *Store) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return snapshotFromMemoryState(s.state)
}

// ImportState replaces the store state with the provided snapshot.
func (s *Store) ImportState(snapshot Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = memoryStateFromSnapshot(snapshot)
}

// RulesEngine exposes the currently configured engine.
func (s *Store) RulesEngine() *RulesEngine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine
}

// SetNowFunc overrides the time provider. Intended for tests.
func (s *Store) SetNowFunc(fn func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nowFn = fn
}

// transaction represents a mutation set applied to the store state.
type transaction struct {
	store   *Store
	state   memoryState
	changes []Change
	now     time.Time
}

// transactionView exposes a read-only snapshot of the transactional state.
type transactionView struct {
	state *memoryState
}

func newTransactionView(state *memoryState) TransactionView {
	return transactionView{state: state}
}

// ListPilots returns all pilots within the snapshot, ordered by ID.
func (v transactionView) ListPilots() []Pilot {
	out := make([]Pilot, 0, len(v.state.pilots))
	for _, p := range v.state.pilots {
		out = append(out, clonePilot(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListDrones returns all drones within the snapshot, ordered by ID.
func (v transactionView) ListDrones() []Drone {
	out := make([]Drone, 0, len(v.state.drones))
	for _, d := range v.state.drones {
		out = append(out, cloneDrone(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListMissions returns all missions within the snapshot, ordered by ID.
func (v transactionView) ListMissions() []Mission {
	out := make([]Mission, 0, len(v.state.missions))
	for _, m := range v.state.missions {
		out = append(out, cloneMission(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// FindPilot retrieves a pilot by ID from the snapshot.
func (v transactionView) FindPilot(id string) (Pilot, bool) {
	p, ok := v.state.pilots[id]
	if !ok {
		return Pilot{}, false
	}
	return clonePilot(p), true
}

// FindDrone retrieves a drone by ID from the snapshot.
func (v transactionView) FindDrone(id string) (Drone, bool) {
	d, ok := v.state.drones[id]
	if !ok {
		return Drone{}, false
	}
	return cloneDrone(d), true
}

// FindMission retrieves a mission by ID from the snapshot.
func (v transactionView) FindMission(id string) (Mission, bool) {
	m, ok := v.state.missions[id]
	if !ok {
		return Mission{}, false
	}
	return cloneMission(m), true
}

// RunInTransaction executes fn within a transactional copy of the store state.
// Registered rules evaluate against the post-mutation state; blocking issues
// abort the commit with a RuleViolationError.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx Transaction) error) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &transaction{
		store: s,
		state: s.state.clone(),
		now:   s.nowFn(),
	}

	if err := fn(tx); err != nil {
		return Result{}, err
	}

	var result Result
	if s.engine != nil {
		view := newTransactionView(&tx.state)
		res, err := s.engine.Evaluate(ctx, view, tx.changes)
		if err != nil {
			return Result{}, err
		}
		result = res
		if res.HasBlocking() {
			return res, domain.RuleViolationError{Result: res}
		}
	}

	s.state = tx.state
	return result, nil
}

// View executes fn against a read-only snapshot of the store state.
func (s *Store) View(_ context.Context, fn func(TransactionView) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := s.state.clone()
	view := newTransactionView(&snapshot)
	return fn(view)
}

func (tx *transaction) recordChange(change Change) {
	tx.changes = append(tx.changes, change)
}

// Snapshot returns a read-only view over the transactional state.
func (tx *transaction) Snapshot() TransactionView {
	return newTransactionView(&tx.state)
}

// FindPilot retrieves a pilot by ID from the transaction state.
func (tx *transaction) FindPilot(id string) (Pilot, bool) {
	p, ok := tx.state.pilots[id]
	if !ok {
		return Pilot{}, false
	}
	return clonePilot(p), true
}

// FindDrone retrieves a drone by ID from the transaction state.
func (tx *transaction) FindDrone(id string) (Drone, bool) {
	d, ok := tx.state.drones[id]
	if !ok {
		return Drone{}, false
	}
	return cloneDrone(d), true
}

// FindMission retrieves a mission by ID from the transaction state.
func (tx *transaction) FindMission(id string) (Mission, bool) {
	m, ok := tx.state.missions[id]
	if !ok {
		return Mission{}, false
	}
	return cloneMission(m), true
}

// CreatePilot stores a new pilot record.
func (tx *transaction) CreatePilot(p Pilot) (Pilot, error) {
	if p.ID == "" {
		p.ID = tx.store.newID()
	}
	if _, exists := tx.state.pilots[p.ID]; exists {
		return Pilot{}, fmt.Errorf("pilot %q already exists", p.ID)
	}
	if p.Status == "" {
		p.Status = domain.PilotAvailable
	}
	p.CreatedAt = tx.now
	p.UpdatedAt = tx.now
	tx.state.pilots[p.ID] = clonePilot(p)
	tx.recordChange(Change{Entity: domain.EntityPilot, Action: domain.ActionCreate, After: clonePilot(p)})
	return clonePilot(p), nil
}

// UpdatePilot mutates a pilot using the provided mutator function.
func (tx *transaction) UpdatePilot(id string, mutator func(*Pilot) error) (Pilot, error) {
	current, ok := tx.state.pilots[id]
	if !ok {
		return Pilot{}, fmt.Errorf("pilot %q not found", id)
	}
	before := clonePilot(current)
	if err := mutator(&current); err != nil {
		return Pilot{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.pilots[id] = clonePilot(current)
	tx.recordChange(Change{Entity: domain.EntityPilot, Action: domain.ActionUpdate, Before: before, After: clonePilot(current)})
	return clonePilot(current), nil
}

// CreateDrone stores a new drone record.
func (tx *transaction) CreateDrone(d Drone) (Drone, error) {
	if d.ID == "" {
		d.ID = tx.store.newID()
	}
	if _, exists := tx.state.drones[d.ID]; exists {
		return Drone{}, fmt.Errorf("drone %q already exists", d.ID)
	}
	if d.Status == "" {
		d.Status = domain.DroneAvailable
	}
	d.CreatedAt = tx.now
	d.UpdatedAt = tx.now
	tx.state.drones[d.ID] = cloneDrone(d)
	tx.recordChange(Change{Entity: domain.EntityDrone, Action: domain.ActionCreate, After: cloneDrone(d)})
	return cloneDrone(d), nil
}

// UpdateDrone mutates a drone using the provided mutator function.
func (tx *transaction) UpdateDrone(id string, mutator func(*Drone) error) (Drone, error) {
	current, ok := tx.state.drones[id]
	if !ok {
		return Drone{}, fmt.Errorf("drone %q not found", id)
	}
	before := cloneDrone(current)
	if err := mutator(&current); err != nil {
		return Drone{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.drones[id] = cloneDrone(current)
	tx.recordChange(Change{Entity: domain.EntityDrone, Action: domain.ActionUpdate, Before: before, After: cloneDrone(current)})
	return cloneDrone(current), nil
}

// CreateMission stores a new mission record.
func (tx *transaction) CreateMission(m Mission) (Mission, error) {
	if m.ID == "" {
		m.ID = tx.store.newID()
	}
	if _, exists := tx.state.missions[m.ID]; exists {
		return Mission{}, fmt.Errorf("mission %q already exists", m.ID)
	}
	if m.Priority == "" {
		m.Priority = domain.PriorityStandard
	}
	m.CreatedAt = tx.now
	m.UpdatedAt = tx.now
	tx.state.missions[m.ID] = cloneMission(m)
	tx.recordChange(Change{Entity: domain.EntityMission, Action: domain.ActionCreate, After: cloneMission(m)})
	return cloneMission(m), nil
}

// UpdateMission mutates a mission using the provided mutator function.
func (tx *transaction) UpdateMission(id string, mutator func(*Mission) error) (Mission, error) {
	current, ok := tx.state.missions[id]
	if !ok {
		return Mission{}, fmt.Errorf("mission %q not found", id)
	}
	before := cloneMission(current)
	if err := mutator(&current); err != nil {
		return Mission{}, err
	}
	current.ID = id
	current.UpdatedAt = tx.now
	tx.state.missions[id] = cloneMission(current)
	tx.recordChange(Change{Entity: domain.EntityMission, Action: domain.ActionUpdate, Before: before, After: cloneMission(current)})
	return cloneMission(current), nil
}

// GetPilot retrieves a pilot by ID.
func (s *Store) GetPilot(id string) (Pilot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.state.pilots[id]
	if !ok {
		return Pilot{}, false
	}
	return clonePilot(p), true
}

// ListPilots returns all pilots, ordered by ID.
func (s *Store) ListPilots() []Pilot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Pilot, 0, len(s.state.pilots))
	for _, p := range s.state.pilots {
		out = append(out, clonePilot(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetDrone retrieves a drone by ID.
func (s *Store) GetDrone(id string) (Drone, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.state.drones[id]
	if !ok {
		return Drone{}, false
	}
	return cloneDrone(d), true
}

// ListDrones returns all drones, ordered by ID.
func (s *Store) ListDrones() []Drone {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Drone, 0, len(s.state.drones))
	for _, d := range s.state.drones {
		out = append(out, cloneDrone(d))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// GetMission retrieves a mission by ID.
func (s *Store) GetMission(id string) (Mission, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, ok := s.state.missions[id]
	if !ok {
		return Mission{}, false
	}
	return cloneMission(m), true
}

// ListMissions returns all missions, ordered by ID.
func (s *Store) ListMissions() []Mission {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mission, 0, len(s.state.missions))
	for _, m := range s.state.missions {
		out = append(out, cloneMission(m))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
