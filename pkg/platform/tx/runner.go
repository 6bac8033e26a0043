package tx

import (
	"context"
	"database/sql"
	"sync"
)

type sqlTxKey struct{}

// WithTx returns ctx carrying tx. Stores reading ctx through From join the
// transaction instead of using the pool. A nil tx leaves ctx unchanged.
func WithTx(ctx context.Context, tx *sql.Tx) context.Context {
	if tx == nil {
		return ctx
	}
	return context.WithValue(ctx, sqlTxKey{}, tx)
}

// From returns the transaction opened by a Postgres runner, if any.
func From(ctx context.Context) (*sql.Tx, bool) {
	t, ok := ctx.Value(sqlTxKey{}).(*sql.Tx)
	return t, ok && t != nil
}

// Runner executes fn as one unit of work. If fn returns an error every write
// made through ctx inside fn is discarded.
type Runner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Snapshotter is implemented by in-memory stores that can roll back to a
// previous state. Snapshot captures the current state and returns a function
// that restores it.
type Snapshotter interface {
	Snapshot() (restore func())
}

// MemoryRunner gives in-memory stores all-or-nothing semantics. Units of work
// are serialized; on failure every registered store is restored to the state
// it had when the unit began.
type MemoryRunner struct {
	mu     sync.Mutex
	stores []Snapshotter
}

func NewMemoryRunner(stores ...Snapshotter) *MemoryRunner {
	return &MemoryRunner{stores: stores}
}

func (r *MemoryRunner) RunInTx(ctx context.Context, fn func(ctx context.Context) error) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	restores := make([]func(), 0, len(r.stores))
	for _, s := range r.stores {
		restores = append(restores, s.Snapshot())
	}
	defer func() {
		if p := recover(); p != nil {
			rollback(restores)
			panic(p)
		}
		if err != nil {
			rollback(restores)
		}
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

func rollback(restores []func()) {
	for i := len(restores) - 1; i >= 0; i-- {
		restores[i]()
	}
}
