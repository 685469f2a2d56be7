// Package metrics exposes the chain's Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stakeledger"

// ChainMetrics records block processing activity. A nil
// *ChainMetrics is valid and records nothing.
type ChainMetrics struct {
	blocks      prometheus.Counter
	height      prometheus.Gauge
	txs         *prometheus.CounterVec
	active      prometheus.Gauge
	bonded      prometheus.Gauge
	burned      prometheus.Counter
	rewards     prometheus.Counter
	matured     prometheus.Counter
	commitTime  prometheus.Histogram
	validatorUp prometheus.Counter
}

// New creates chain metrics registered with reg.
func New(reg prometheus.Registerer) *ChainMetrics {
	m := &ChainMetrics{
		blocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "blocks_committed_total",
			Help:      "Blocks committed to the store.",
		}),
		height: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "height",
			Help:      "Last committed height.",
		}),
		txs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "txs_total",
			Help:      "Delivered transactions segmented by result code.",
		}, []string{"code"}),
		active: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "active_validators",
			Help:      "Validators with non-zero voting power.",
		}),
		bonded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "bonded_total",
			Help:      "Total bonded stake across validators.",
		}),
		burned: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "slashed_total",
			Help:      "Stake burned by slashing.",
		}),
		rewards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "rewards_distributed_total",
			Help:      "Fees distributed as staking rewards.",
		}),
		matured: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "unbonded_total",
			Help:      "Stake released from matured unbonding entries.",
		}),
		commitTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "chain",
			Name:      "commit_duration_seconds",
			Help:      "Time spent writing a block to the store.",
			Buckets:   prometheus.DefBuckets,
		}),
		validatorUp: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "staking",
			Name:      "validator_updates_total",
			Help:      "Validator power changes reported to consensus.",
		}),
	}
	reg.MustRegister(
		m.blocks,
		m.height,
		m.txs,
		m.active,
		m.bonded,
		m.burned,
		m.rewards,
		m.matured,
		m.commitTime,
		m.validatorUp,
	)
	return m
}

// ObserveTx counts a delivered transaction by result code name.
func (m *ChainMetrics) ObserveTx(code string) {
	if m == nil {
		return
	}
	m.txs.WithLabelValues(code).Inc()
}

// ObserveEndBlock records block-boundary staking effects.
func (m *ChainMetrics) ObserveEndBlock(updates, active int, bonded, burned, rewards, matured uint64) {
	if m == nil {
		return
	}
	m.validatorUp.Add(float64(updates))
	m.active.Set(float64(active))
	m.bonded.Set(float64(bonded))
	m.burned.Add(float64(burned))
	m.rewards.Add(float64(rewards))
	m.matured.Add(float64(matured))
}

// ObserveCommit records a committed block.
func (m *ChainMetrics) ObserveCommit(height uint64, took time.Duration) {
	if m == nil {
		return
	}
	m.blocks.Inc()
	m.height.Set(float64(height))
	m.commitTime.Observe(took.Seconds())
}
