package resolver

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"talawa-graphql/internal/dbexec"
)

type txState int

const (
	txOpen txState = iota
	txFailed
	txCommitted
	txRolledBack
)

// MutationContext holds the transaction shared by every mutation field of one
// GraphQL request. Each field writes under its own savepoint, so a failed
// field rolls back only its own writes. The transaction as a whole is doomed
// only when a savepoint cannot be settled or the handler panics.
type MutationContext struct {
	tx    dbexec.TxExecutor
	mu    sync.Mutex
	state txState
	seq   int
}

func NewMutationContext(tx dbexec.TxExecutor) *MutationContext {
	return &MutationContext{tx: tx}
}

func (mc *MutationContext) Tx() dbexec.TxExecutor {
	return mc.tx
}

// MarkError dooms the whole transaction. It has no effect once finalized.
func (mc *MutationContext) MarkError() {
	mc.mu.Lock()
	if mc.state == txOpen {
		mc.state = txFailed
	}
	mc.mu.Unlock()
}

// Failed reports whether the transaction was doomed or rolled back.
func (mc *MutationContext) Failed() bool {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return mc.state == txFailed || mc.state == txRolledBack
}

// Finalize commits or rolls back exactly once; later calls return nil.
func (mc *MutationContext) Finalize() error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	switch mc.state {
	case txOpen:
		mc.state = txCommitted
		return mc.tx.Commit()
	case txFailed:
		mc.state = txRolledBack
		return mc.tx.Rollback()
	default:
		return nil
	}
}

var errMutationTxClosed = errors.New("mutation transaction is no longer open")

// fieldSavepoint scopes the writes of one mutation field.
type fieldSavepoint struct {
	mc   *MutationContext
	name string
}

// openSavepoint starts the savepoint for the next field. graphql-go resolves
// mutation fields serially, so savepoints never interleave.
func (mc *MutationContext) openSavepoint(ctx context.Context) (*fieldSavepoint, error) {
	mc.mu.Lock()
	if mc.state != txOpen {
		mc.mu.Unlock()
		return nil, errMutationTxClosed
	}
	mc.seq++
	sp := &fieldSavepoint{mc: mc, name: fmt.Sprintf("field_%d", mc.seq)}
	mc.mu.Unlock()

	if _, err := mc.tx.ExecContext(ctx, "SAVEPOINT "+sp.name); err != nil {
		return nil, fmt.Errorf("open savepoint %s: %w", sp.name, err)
	}
	return sp, nil
}

// settle releases the savepoint when the field succeeded and rolls back to it
// otherwise, then returns the field's outcome. A savepoint that cannot be
// settled dooms the whole transaction. A nil savepoint returns fieldErr.
func (sp *fieldSavepoint) settle(ctx context.Context, fieldErr error) error {
	if sp == nil {
		return fieldErr
	}
	ctx = context.WithoutCancel(ctx)

	if fieldErr != nil {
		if _, err := sp.mc.tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+sp.name); err != nil {
			sp.mc.MarkError()
		}
		return fieldErr
	}
	if _, err := sp.mc.tx.ExecContext(ctx, "RELEASE SAVEPOINT "+sp.name); err != nil {
		sp.mc.MarkError()
		return fmt.Errorf("release savepoint %s: %w", sp.name, err)
	}
	return nil
}

// beginFieldWrite opens a savepoint when ctx carries a mutation transaction.
// Outside one it returns a nil savepoint.
func beginFieldWrite(ctx context.Context) (*fieldSavepoint, error) {
	mc := MutationContextFromContext(ctx)
	if mc == nil || mc.tx == nil {
		return nil, nil
	}
	return mc.openSavepoint(ctx)
}

type mutationContextKey struct{}

func WithMutationContext(ctx context.Context, mc *MutationContext) context.Context {
	return context.WithValue(ctx, mutationContextKey{}, mc)
}

func MutationContextFromContext(ctx context.Context) *MutationContext {
	if ctx == nil {
		return nil
	}
	mc, _ := ctx.Value(mutationContextKey{}).(*MutationContext)
	return mc
}

// writerForContext returns the request's mutation transaction when there is
// one, otherwise the pool.
func (r *Resolver) writerForContext(ctx context.Context) dbexec.Querier {
	if mc := MutationContextFromContext(ctx); mc != nil && mc.tx != nil {
		return mc.tx
	}
	return r.executor
}
