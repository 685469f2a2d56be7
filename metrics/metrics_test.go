package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestChainMetrics(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.ObserveTx("OK")
	m.ObserveTx("OK")
	m.ObserveTx("StaleNonce")
	m.ObserveEndBlock(2, 3, 1500, 10, 7, 0)
	m.ObserveCommit(9, 5*time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.txs.WithLabelValues("OK")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.txs.WithLabelValues("StaleNonce")))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.active))
	assert.Equal(t, float64(10), testutil.ToFloat64(m.burned))
	assert.Equal(t, float64(9), testutil.ToFloat64(m.height))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.blocks))
}

func TestNilMetricsAreNoops(t *testing.T) {
	var m *ChainMetrics
	assert.NotPanics(t, func() {
		m.ObserveTx("OK")
		m.ObserveEndBlock(1, 1, 1, 1, 1, 1)
		m.ObserveCommit(1, time.Second)
	})
}
