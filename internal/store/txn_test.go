package store

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// commitRecorder collects published commits.
type commitRecorder struct {
	mu      sync.Mutex
	commits []Commit
}

func (r *commitRecorder) listen(_ context.Context, c Commit) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commits = append(r.commits, c)
}

func (r *commitRecorder) all() []Commit {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Commit, len(r.commits))
	copy(out, r.commits)
	return out
}

func setupTable(t *testing.T) (*DB, *commitRecorder) {
	t.Helper()
	d := createTestDB(t)
	mustExec(t, d, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")
	rec := &commitRecorder{}
	remove := d.OnCommit(rec.listen)
	t.Cleanup(remove)
	return d, rec
}

func insert(ctx context.Context, d *DB, v string) error {
	_, err := d.Mutate(ctx, Change{Table: "t", Type: Create}, "INSERT INTO t (v) VALUES (?)", v)
	return err
}

func TestTxn_Commit(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()

	err := d.Txn(ctx, Immediate, func(ctx context.Context) error {
		assert.True(t, d.InTxn(ctx))
		if err := insert(ctx, d, "a"); err != nil {
			return err
		}
		return insert(ctx, d, "b")
	})
	require.NoError(t, err)

	assert.Equal(t, 2, countRows(t, d, "t"))
	commits := rec.all()
	require.Len(t, commits, 1, "one publication per transaction")
	assert.Equal(t, []Change{{Table: "t", Type: Create}}, commits[0].Changes)
}

func TestTxn_RollbackOnError(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.Txn(ctx, Deferred, func(ctx context.Context) error {
		if err := insert(ctx, d, "a"); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countRows(t, d, "t"))
	assert.Empty(t, rec.all(), "rollback publishes nothing")
}

func TestTxn_RollbackOnPanic(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()

	err := d.Txn(ctx, Exclusive, func(ctx context.Context) error {
		if err := insert(ctx, d, "a"); err != nil {
			return err
		}
		panic("boom")
	})
	require.Error(t, err)
	assert.Equal(t, 0, countRows(t, d, "t"))
	assert.Empty(t, rec.all())

	// The connection is usable and no transaction is left open.
	require.NoError(t, d.Txn(ctx, Deferred, func(ctx context.Context) error {
		return insert(ctx, d, "b")
	}))
	assert.Equal(t, 1, countRows(t, d, "t"))
}

func TestTxn_NestedFlattens(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()
	boom := errors.New("boom")

	err := d.Txn(ctx, Deferred, func(ctx context.Context) error {
		if err := insert(ctx, d, "outer"); err != nil {
			return err
		}
		// Runs in the same transaction: no second BEGIN.
		if err := d.Txn(ctx, Immediate, func(ctx context.Context) error {
			return insert(ctx, d, "inner")
		}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, countRows(t, d, "t"), "inner write rolled back with outer")
	assert.Empty(t, rec.all())
}

func TestTxn_StatementError(t *testing.T) {
	d, _ := setupTable(t)

	err := d.Txn(context.Background(), Deferred, func(ctx context.Context) error {
		_, err := d.ExecContext(ctx, "INSERT INTO missing VALUES (1)")
		return err
	})
	require.Error(t, err)
	assert.Equal(t, CodeError, Code(err))
}

func TestMutate_PublishesOutsideTxn(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()

	require.NoError(t, insert(ctx, d, "a"))
	require.NoError(t, insert(ctx, d, "b"))
	_, err := d.Mutate(ctx, Change{Table: "t", Type: Delete}, "DELETE FROM t WHERE v = ?", "a")
	require.NoError(t, err)

	commits := rec.all()
	require.Len(t, commits, 3)
	for i, c := range commits {
		assert.Equal(t, int64(i+1), c.Seq)
	}
	assert.Equal(t, Delete, commits[2].Changes[0].Type)
	assert.Equal(t, int64(3), d.Seq())
}

func TestMutate_FailedWritePublishesNothing(t *testing.T) {
	d, rec := setupTable(t)

	_, err := d.Mutate(context.Background(), Change{Table: "t", Type: Create}, "INSERT INTO t (id, v) VALUES (1, 'a'), (1, 'b')")
	require.Error(t, err)
	assert.True(t, IsConstraint(err))
	assert.Empty(t, rec.all())
}

func TestOnCommit_ListenerSeesCommittedState(t *testing.T) {
	d := createTestDB(t)
	mustExec(t, d, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")

	var seen []int
	remove := d.OnCommit(func(ctx context.Context, c Commit) {
		// Inline read on the worker.
		var n int
		err := d.Query(ctx, "SELECT COUNT(*) FROM t", nil, func(rows *sql.Rows) error {
			return rows.Scan(&n)
		})
		assert.NoError(t, err)
		seen = append(seen, n)
	})
	defer remove()

	ctx := context.Background()
	require.NoError(t, d.Txn(ctx, Deferred, func(ctx context.Context) error {
		if err := insert(ctx, d, "a"); err != nil {
			return err
		}
		return insert(ctx, d, "b")
	}))
	require.NoError(t, insert(ctx, d, "c"))

	assert.Equal(t, []int{2, 3}, seen)
}

func TestOnCommit_Remove(t *testing.T) {
	d, rec := setupTable(t)
	ctx := context.Background()

	var other int
	remove := d.OnCommit(func(context.Context, Commit) { other++ })
	require.NoError(t, insert(ctx, d, "a"))
	remove()
	require.NoError(t, insert(ctx, d, "b"))

	assert.Equal(t, 1, other)
	assert.Len(t, rec.all(), 2)
}

func TestCommit_Affects(t *testing.T) {
	c := Commit{Changes: []Change{
		{Table: "a", Type: Create},
		{Table: "b", Type: Delete},
		{Table: "a", Type: Update},
	}}

	typ, ok := c.Affects("a")
	assert.True(t, ok)
	assert.Equal(t, Create|Update, typ)

	_, ok = c.Affects("c")
	assert.False(t, ok)
	assert.Equal(t, []string{"a", "b"}, c.Tables())
}

func TestCoalesce(t *testing.T) {
	got := coalesce([]Change{
		{Table: "b", Type: Create},
		{Table: "a", Type: Update},
		{Table: "b", Type: Delete},
	})
	assert.Equal(t, []Change{
		{Table: "b", Type: Create | Delete},
		{Table: "a", Type: Update},
	}, got)
}

func TestChangeType_String(t *testing.T) {
	assert.Equal(t, "create|delete", (Create | Delete).String())
	assert.Equal(t, "create|update|delete", All.String())
	assert.Equal(t, "none", ChangeType(0).String())
}

func TestTxKind_String(t *testing.T) {
	assert.Equal(t, "DEFERRED", Deferred.String())
	assert.Equal(t, "IMMEDIATE", Immediate.String())
	assert.Equal(t, "EXCLUSIVE", Exclusive.String())
}

func TestWithSequence_ContinuesNumbering(t *testing.T) {
	seq := NewSequenceAt(41)
	d := createTestDB(t, WithSequence(seq))
	mustExec(t, d, "CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)")

	var got []int64
	d.OnCommit(func(_ context.Context, c Commit) { got = append(got, c.Seq) })

	ctx := context.Background()
	_, err := d.Mutate(ctx, Change{Table: "t", Type: Create}, "INSERT INTO t (v) VALUES ('a')")
	require.NoError(t, err)

	assert.Equal(t, []int64{42}, got)
	assert.Equal(t, int64(42), seq.Current())
	assert.Equal(t, int64(42), d.Seq())
}
