package store

import "context"

// Store defines the interface for experiment storage operations
type Store interface {
	CreateExperiment(ctx context.Context, name, controlLabel, variantLabel, hypothesis string) (*Experiment, error)
	GetExperiment(ctx context.Context, name string) (*Experiment, error)
	ListExperiments(ctx context.Context) ([]*Experiment, error)
	SetCounts(ctx context.Context, name string, counts Counts) (*Experiment, error)
	AddCounts(ctx context.Context, name string, delta Counts) (*Experiment, error)
	DeclareWinner(ctx context.Context, name, winner string) error
	DeleteExperiment(ctx context.Context, name string) error

	Close() error
}
