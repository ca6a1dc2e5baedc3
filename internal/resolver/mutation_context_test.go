package resolver

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"talawa-graphql/internal/dbexec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingTx struct {
	commits, rollbacks int
	commitErr          error

	execs   []string
	execErr map[string]error
}

func (t *recordingTx) QueryContext(context.Context, string, ...any) (dbexec.Rows, error) {
	return nil, errors.New("not used")
}

func (t *recordingTx) ExecContext(_ context.Context, query string, _ ...any) (sql.Result, error) {
	t.execs = append(t.execs, query)
	if err := t.execErr[query]; err != nil {
		return nil, err
	}
	return driver.RowsAffected(0), nil
}

func (t *recordingTx) Commit() error {
	t.commits++
	return t.commitErr
}

func (t *recordingTx) Rollback() error {
	t.rollbacks++
	return nil
}

func TestMutationContext_CommitsOnce(t *testing.T) {
	tx := &recordingTx{}
	mc := NewMutationContext(tx)

	assert.NoError(t, mc.Finalize())
	assert.NoError(t, mc.Finalize())
	mc.MarkError()

	assert.Equal(t, 1, tx.commits)
	assert.Equal(t, 0, tx.rollbacks)
	assert.False(t, mc.Failed())
}

func TestMutationContext_RollsBackAfterError(t *testing.T) {
	tx := &recordingTx{}
	mc := NewMutationContext(tx)

	mc.MarkError()
	mc.MarkError()
	assert.True(t, mc.Failed())
	assert.NoError(t, mc.Finalize())
	assert.NoError(t, mc.Finalize())

	assert.Equal(t, 0, tx.commits)
	assert.Equal(t, 1, tx.rollbacks)
	assert.True(t, mc.Failed())
}

func TestMutationContext_SurfacesCommitError(t *testing.T) {
	tx := &recordingTx{commitErr: sql.ErrTxDone}
	mc := NewMutationContext(tx)

	assert.ErrorIs(t, mc.Finalize(), sql.ErrTxDone)
	assert.False(t, mc.Failed())
}

func TestWriterForContext(t *testing.T) {
	r := &Resolver{}
	tx := &recordingTx{}

	assert.Nil(t, r.writerForContext(context.Background()))
	assert.Same(t, tx, r.writerForContext(WithMutationContext(context.Background(), NewMutationContext(tx))))
}

func TestFieldSavepoint_SettlesEachField(t *testing.T) {
	tx := &recordingTx{}
	mc := NewMutationContext(tx)
	ctx := WithMutationContext(context.Background(), mc)
	rejected := errors.New("rejected")

	first, err := beginFieldWrite(ctx)
	require.NoError(t, err)
	assert.NoError(t, first.settle(ctx, nil))

	second, err := beginFieldWrite(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, second.settle(ctx, rejected), rejected)

	assert.Equal(t, []string{
		"SAVEPOINT field_1",
		"RELEASE SAVEPOINT field_1",
		"SAVEPOINT field_2",
		"ROLLBACK TO SAVEPOINT field_2",
	}, tx.execs)
	assert.False(t, mc.Failed())
	require.NoError(t, mc.Finalize())
	assert.Equal(t, 1, tx.commits)
}

func TestFieldSavepoint_WithoutTransaction(t *testing.T) {
	sp, err := beginFieldWrite(context.Background())
	require.NoError(t, err)
	assert.Nil(t, sp)

	rejected := errors.New("rejected")
	assert.ErrorIs(t, sp.settle(context.Background(), rejected), rejected)
	assert.NoError(t, sp.settle(context.Background(), nil))
}

func TestFieldSavepoint_FailedRollbackDoomsTransaction(t *testing.T) {
	tx := &recordingTx{execErr: map[string]error{"ROLLBACK TO SAVEPOINT field_1": sql.ErrConnDone}}
	mc := NewMutationContext(tx)
	ctx := WithMutationContext(context.Background(), mc)
	rejected := errors.New("rejected")

	sp, err := beginFieldWrite(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, sp.settle(ctx, rejected), rejected)
	assert.True(t, mc.Failed())

	_, err = beginFieldWrite(ctx)
	assert.ErrorIs(t, err, errMutationTxClosed)

	require.NoError(t, mc.Finalize())
	assert.Equal(t, 1, tx.rollbacks)
}

func TestFieldSavepoint_FailedReleaseIsReported(t *testing.T) {
	tx := &recordingTx{execErr: map[string]error{"RELEASE SAVEPOINT field_1": sql.ErrConnDone}}
	mc := NewMutationContext(tx)
	ctx := WithMutationContext(context.Background(), mc)

	sp, err := beginFieldWrite(ctx)
	require.NoError(t, err)
	assert.ErrorIs(t, sp.settle(ctx, nil), sql.ErrConnDone)
	assert.True(t, mc.Failed())
}
