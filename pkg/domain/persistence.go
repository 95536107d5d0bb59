package domain

import "context"

// Transaction exposes the domain operations that a persistence implementation
// must support within an atomic scope. The core never deletes records, so the
// contract carries create and update operations only.
type Transaction interface {
	Snapshot() TransactionView
	CreatePilot(Pilot) (Pilot, error)
	UpdatePilot(id string, mutator func(*Pilot) error) (Pilot, error)
	CreateDrone(Drone) (Drone, error)
	UpdateDrone(id string, mutator func(*Drone) error) (Drone, error)
	CreateMission(Mission) (Mission, error)
	UpdateMission(id string, mutator func(*Mission) error) (Mission, error)
	FindPilot(id string) (Pilot, bool)
	FindDrone(id string) (Drone, bool)
	FindMission(id string) (Mission, bool)
}

// TransactionView provides read-only access to snapshot data for rules and
// binding validation.
type TransactionView interface {
	ListPilots() []Pilot
	ListDrones() []Drone
	ListMissions() []Mission
	FindPilot(id string) (Pilot, bool)
	FindDrone(id string) (Drone, bool)
	FindMission(id string) (Mission, bool)
}

// PersistentStore is a minimal abstraction over durable backends. It mirrors
// the subset of store capabilities used directly by higher layers.
type PersistentStore interface {
	RunInTransaction(ctx context.Context, fn func(Transaction) error) (Result, error)
	View(ctx context.Context, fn func(TransactionView) error) error
	GetPilot(id string) (Pilot, bool)
	ListPilots() []Pilot
	GetDrone(id string) (Drone, bool)
	ListDrones() []Drone
	GetMission(id string) (Mission, bool)
	ListMissions() []Mission
}
