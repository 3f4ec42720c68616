package vault

import "context"

// Store is the persistent key-value collaborator backing the vault. A missing
// key is not an error: Get returns ("", nil).
//
// All methods must honor context cancellation.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}
