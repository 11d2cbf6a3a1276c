// Package metadata is the local key/value table that backs the credential
// store and the round-up cutoff. Values are opaque bytes.
package metadata

import (
	"context"
)

// Repository reads and writes named slots. Get returns (nil, nil) for a
// missing key; Delete of a missing key is not an error.
type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, keys ...string) error
}
