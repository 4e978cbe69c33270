// Package metrics exports receiver counters to Prometheus and serves a JSON
// status document.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sdrfec/sdrfec/sdrfec"
)

// StatsSource is implemented by sdrfec.Buffer, SyncBuffer and Receiver.
type StatsSource interface {
	Stats() sdrfec.Stats
}

// MetaSource is implemented by sources that track stream metadata.
type MetaSource interface {
	CurrentMeta() (sdrfec.MetaData, bool)
}

type counterDesc struct {
	desc  *prometheus.Desc
	value func(sdrfec.Stats) uint64
}

// Collector reads a StatsSource on every scrape.
type Collector struct {
	src      StatsSource
	counters []counterDesc
	freq     *prometheus.Desc
	rate     *prometheus.Desc
}

var _ prometheus.Collector = (*Collector)(nil)

func NewCollector(namespace string, src StatsSource) *Collector {
	counter := func(name, help string, value func(sdrfec.Stats) uint64) counterDesc {
		return counterDesc{
			desc:  prometheus.NewDesc(prometheus.BuildFQName(namespace, "", name), help, nil, nil),
			value: value,
		}
	}
	return &Collector{
		src: src,
		counters: []counterDesc{
			counter("datagrams_total", "Datagrams offered to the buffer.", func(s sdrfec.Stats) uint64 { return s.Datagrams }),
			counter("malformed_total", "Datagrams with the wrong size.", func(s sdrfec.Stats) uint64 { return s.Malformed }),
			counter("bad_block_index_total", "Datagrams with an out of range block index.", func(s sdrfec.Stats) uint64 { return s.BadIndex }),
			counter("stale_total", "Datagrams for superframes already evicted.", func(s sdrfec.Stats) uint64 { return s.Stale }),
			counter("duplicates_total", "Duplicate blocks.", func(s sdrfec.Stats) uint64 { return s.Duplicates }),
			counter("late_total", "Blocks for superframes already finished.", func(s sdrfec.Stats) uint64 { return s.Late }),
			counter("abandoned_total", "Superframes evicted before they could be decoded.", func(s sdrfec.Stats) uint64 { return s.Abandoned }),
			counter("frames_total", "Superframes emitted.", func(s sdrfec.Stats) uint64 { return s.Frames }),
			counter("decodes_total", "Superframes that needed the erasure decoder.", func(s sdrfec.Stats) uint64 { return s.Decodes }),
			counter("recovered_blocks_total", "Data blocks rebuilt by the erasure decoder.", func(s sdrfec.Stats) uint64 { return s.Recovered }),
			counter("unsolvable_total", "Superframes dropped after a failed decode.", func(s sdrfec.Stats) uint64 { return s.Unsolvable }),
			counter("meta_changes_total", "Stream configuration changes.", func(s sdrfec.Stats) uint64 { return s.MetaChanges }),
			counter("ingress_drops_total", "Datagrams dropped on a full ingress ring.", func(s sdrfec.Stats) uint64 { return s.IngressDrops }),
			counter("read_errors_total", "Transient socket read errors.", func(s sdrfec.Stats) uint64 { return s.ReadErrors }),
		},
		freq: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "center_frequency_hz"),
			"Center frequency announced by the sender.", nil, nil),
		rate: prometheus.NewDesc(prometheus.BuildFQName(namespace, "", "sample_rate_hz"),
			"Sample rate announced by the sender.", nil, nil),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range c.counters {
		ch <- d.desc
	}
	ch <- c.freq
	ch <- c.rate
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.src.Stats()
	for _, d := range c.counters {
		ch <- prometheus.MustNewConstMetric(d.desc, prometheus.CounterValue, float64(d.value(st)))
	}
	ms, ok := c.src.(MetaSource)
	if !ok {
		return
	}
	if meta, valid := ms.CurrentMeta(); valid {
		ch <- prometheus.MustNewConstMetric(c.freq, prometheus.GaugeValue, float64(meta.CenterFrequency)*1e3)
		ch <- prometheus.MustNewConstMetric(c.rate, prometheus.GaugeValue, float64(meta.SampleRate))
	}
}
