// Package metadata persists small key/value records for the client, such as
// the serialized Session. Get returns (nil, nil) for a missing key in every
// implementation.
package metadata

import (
	"context"
)

// ModifyFunc gets the stored value, nil when the key is missing, and
// returns the value to store. A nil result deletes the key; an error
// leaves the record untouched.
type ModifyFunc func(old []byte) ([]byte, error)

type Repository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// Modify is an atomic read-modify-write of key. fn may run more than
	// once when another writer got in between.
	Modify(ctx context.Context, key string, fn ModifyFunc) error
}
