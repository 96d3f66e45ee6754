package service

import (
	"context"
	"sync"
	"time"

	dErrors "warranty/pkg/domain-errors"
)

const defaultTxTimeout = 5 * time.Second

// inMemoryStoreTx serializes transactional sections with a single lock.
// It provides isolation between sections but no rollback: writes made
// before a failing step stay applied.
type inMemoryStoreTx struct {
	mu      sync.Mutex
	timeout time.Duration
}

// NewInMemoryStoreTx returns the transaction runner used with in-memory
// stores. Share one instance across components.
func NewInMemoryStoreTx() StoreTx {
	return &inMemoryStoreTx{timeout: defaultTxTimeout}
}

func (t *inMemoryStoreTx) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}
	return fn(ctx)
}
