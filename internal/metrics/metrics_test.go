package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.JobStarted(time.Millisecond, 1)
		c.Statement("exec")
		c.Commit()
		c.Rollback()
		c.ChangeSet(ChangeSetApplied)
		c.SubscriptionAdded()
		c.SubscriptionRemoved()
		c.Delivered()
	})
}

func TestCollector_Counts(t *testing.T) {
	c := NewCollector()

	c.Statement("exec")
	c.Statement("exec")
	c.Statement("query")
	c.Commit()
	c.ChangeSet(ChangeSetApplied)
	c.ChangeSet(ChangeSetSkipped)
	c.ChangeSet(ChangeSetSkipped)
	c.SubscriptionAdded()
	c.SubscriptionAdded()
	c.SubscriptionRemoved()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.statements.WithLabelValues("exec")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.statements.WithLabelValues("query")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.commits))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.changeSets.WithLabelValues(ChangeSetSkipped)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.subscriptions))
}

func TestCollector_Registers(t *testing.T) {
	reg := prometheus.NewPedanticRegistry()
	c := NewCollector()
	require.NoError(t, reg.Register(c))

	c.Rollback()
	expected := `
# HELP strata_store_rollbacks_total The number of rolled back transactions.
# TYPE strata_store_rollbacks_total counter
strata_store_rollbacks_total 1
`
	err := testutil.GatherAndCompare(reg, strings.NewReader(expected), "strata_store_rollbacks_total")
	require.NoError(t, err)
}
