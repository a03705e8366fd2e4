// Package cache stores compiled artifacts keyed by the content of the
// workflow definition, so resubmitting an unchanged definition skips the
// compile pipeline entirely.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/omniroute/workflow-compiler/pkg/models"
)

// Store is the artifact cache. A miss is not an error; implementations
// report infrastructure problems only.
type Store interface {
	Get(ctx context.Context, key string) (*models.CompiledWorkflow, bool, error)
	Set(ctx context.Context, key string, compiled *models.CompiledWorkflow) error
	Close() error
}

// Key derives the cache key from the canonical JSON encoding of the
// definition. Identical definitions always hash to the same key; map keys
// are sorted by the encoder, so config ordering does not matter.
func Key(def *models.WorkflowDefinition) (string, error) {
	raw, err := json.Marshal(def)
	if err != nil {
		return "", fmt.Errorf("failed to encode definition for cache key: %w", err)
	}

	sum := sha256.Sum256(raw)

	return "compiled:" + hex.EncodeToString(sum[:]), nil
}
