package cache

import (
	"context"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Noop is the cache used when no Redis instance is configured: every
// lookup misses and writes are discarded.
type Noop struct{}

func NewNoop() Noop {
	return Noop{}
}

func (Noop) Get(context.Context, string) (*models.CompiledWorkflow, bool, error) {
	return nil, false, nil
}

func (Noop) Set(context.Context, string, *models.CompiledWorkflow) error {
	return nil
}

func (Noop) Close() error {
	return nil
}
