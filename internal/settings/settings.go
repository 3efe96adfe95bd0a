// Package settings is the key-value store behind runtime configuration that
// HR admins can change, such as the scoring weights.
package settings

import (
	"context"
	"time"
)

const KeyScoringWeights = "scoring_weights"

type Setting struct {
	Key       string
	Value     []byte
	UpdatedBy *int64
	UpdatedAt time.Time
}

type Repository interface {
	// Get returns nil without error when the key is absent.
	Get(ctx context.Context, key string) (*Setting, error)
	Put(ctx context.Context, setting *Setting) error
}
