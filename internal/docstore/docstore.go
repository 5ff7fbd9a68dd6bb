// Package docstore persists named JSON documents. Each in-memory store
// owns one or two documents (items, budget, users, audit, lockout) and
// saves the whole document on every committed mutation.
package docstore

import "context"

// Store reads and writes whole JSON documents by name.
//
// Load reports found=false when the document does not exist yet; callers
// then start from their empty initial state.
type Store interface {
	Save(ctx context.Context, doc string, v any) error
	Load(ctx context.Context, doc string, v any) (found bool, err error)
	Close() error
}
