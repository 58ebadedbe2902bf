package migrate

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/roach88/strata/internal/schema"
	"github.com/roach88/strata/internal/value"
)

func changeSet(id string) schema.ChangeSet {
	return schema.NewChangeSet(id, schema.NewTable("t_"+id, schema.NewColumn("id", value.Integer)))
}

func logOf(ids ...string) []LogEntry {
	out := make([]LogEntry, len(ids))
	for i, id := range ids {
		out[i] = LogEntry{ID: id, Order: int64(i)}
	}
	return out
}

func kinds(steps []Step) []StepKind {
	out := make([]StepKind, len(steps))
	for i, s := range steps {
		out[i] = s.Kind
	}
	return out
}

func orders(steps []Step) []int64 {
	out := make([]int64, len(steps))
	for i, s := range steps {
		out[i] = s.Order
	}
	return out
}

func TestReconcile_EmptyLogAppliesAll(t *testing.T) {
	steps, err := reconcile([]schema.ChangeSet{changeSet("a"), changeSet("b")}, nil)
	require.NoError(t, err)
	assert.Equal(t, []StepKind{StepApply, StepApply}, kinds(steps))
	assert.Equal(t, []int64{0, 1}, orders(steps))
}

func TestReconcile_PrefixSkipsLogged(t *testing.T) {
	steps, err := reconcile([]schema.ChangeSet{changeSet("a"), changeSet("b"), changeSet("c")}, logOf("a"))
	require.NoError(t, err)
	assert.Equal(t, []StepKind{StepSkip, StepApply, StepApply}, kinds(steps))
	assert.Equal(t, []int64{0, 1, 2}, orders(steps))
}

func TestReconcile_NextOrderFollowsLoggedOrder(t *testing.T) {
	log := []LogEntry{{ID: "a", Order: 4}, {ID: "b", Order: 9}}
	steps, err := reconcile([]schema.ChangeSet{changeSet("a"), changeSet("b"), changeSet("c")}, log)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 9, 10}, orders(steps))
}

func TestReconcile_AlwaysRunConsumesNothing(t *testing.T) {
	sets := []schema.ChangeSet{changeSet("seed").AlwaysRun(), changeSet("a"), changeSet("b")}
	steps, err := reconcile(sets, logOf("a"))
	require.NoError(t, err)
	assert.Equal(t, []StepKind{StepAlwaysRun, StepSkip, StepApply}, kinds(steps))
	assert.Equal(t, []int64{-1, 0, 1}, orders(steps))
}

func TestReconcile_OrderMismatch(t *testing.T) {
	_, err := reconcile([]schema.ChangeSet{changeSet("a"), changeSet("b")}, logOf("a", "x"))
	require.Error(t, err)
	assert.True(t, IsOrderMismatch(err))

	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "b", me.Details["expected"])
	assert.Equal(t, "x", me.Details["found"])
	assert.Equal(t, "1", me.Details["order"])
}

func TestReconcile_ExtraLogEntries(t *testing.T) {
	_, err := reconcile([]schema.ChangeSet{changeSet("a")}, logOf("a", "b", "c"))
	require.Error(t, err)
	assert.True(t, IsExtraLogEntries(err))

	var me *Error
	require.ErrorAs(t, err, &me)
	assert.Equal(t, "2", me.Details["count"])
	assert.Equal(t, "b", me.Details["first"])
}

func TestReconcile_ChecksumPerStep(t *testing.T) {
	a := changeSet("a")
	steps, err := reconcile([]schema.ChangeSet{a}, nil)
	require.NoError(t, err)
	assert.Equal(t, Checksum(a), steps[0].Checksum)
	assert.Equal(t, "a", steps[0].ChangeSet().ID())
}

func ids(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("cs%d", i)
	}
	return out
}

// Any logged prefix of the declared ids reconciles to skips for the prefix
// and applies, in order, for the rest.
func TestReconcile_PrefixProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 12).Draw(t, "n")
		k := rapid.IntRange(0, n).Draw(t, "k")

		declared := ids(n)
		sets := make([]schema.ChangeSet, n)
		for i, id := range declared {
			sets[i] = changeSet(id)
		}

		steps, err := reconcile(sets, logOf(declared[:k]...))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i, s := range steps {
			want := StepApply
			if i < k {
				want = StepSkip
			}
			if s.Kind != want || s.Order != int64(i) || s.ID != declared[i] {
				t.Fatalf("step %d = %+v, want kind %s order %d", i, s, want, i)
			}
		}
	})
}

// A log that is not a prefix of the declared ids always fails, and never
// with a duplicate id error.
func TestReconcile_NonPrefixProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		declared := ids(n)
		sets := make([]schema.ChangeSet, n)
		for i, id := range declared {
			sets[i] = changeSet(id)
		}

		logged := rapid.SliceOfN(rapid.SampledFrom(append(ids(n+2), "zz")), 1, n+3).Draw(t, "log")
		prefix := len(logged) <= n
		for i := 0; prefix && i < len(logged); i++ {
			prefix = logged[i] == declared[i]
		}

		_, err := reconcile(sets, logOf(logged...))
		switch {
		case prefix && err != nil:
			t.Fatalf("prefix log %v rejected: %v", logged, err)
		case !prefix && !(IsOrderMismatch(err) || IsExtraLogEntries(err)):
			t.Fatalf("non-prefix log %v accepted or misclassified: %v", logged, err)
		}
	})
}
