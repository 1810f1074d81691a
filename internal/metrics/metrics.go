package metrics

import (
	"log/slog"
	"net/http"
	"sort"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"

	"github.com/botdash/botdash/internal/cache"
)

// Metric names.
const (
	nameHits          = "botdash_cache_hits_total"
	nameMisses        = "botdash_cache_misses_total"
	nameSets          = "botdash_cache_sets_total"
	nameEvictions     = "botdash_cache_evictions_total"
	nameEntries       = "botdash_cache_entries"
	nameNotifications = "botdash_notifications"

	labelStore = "store"
)

// StatsSource is implemented by cache.Store.
type StatsSource interface {
	Stats() cache.Stats
	Len() int
}

// Collector gathers metric families from registered stores.
type Collector struct {
	stores map[string]StatsSource
	logLen func() int
}

// New creates a Collector. logLen reports the current notification log
// length; it may be nil.
func New(logLen func() int) *Collector {
	return &Collector{
		stores: make(map[string]StatsSource),
		logLen: logLen,
	}
}

// Register adds a store under the given label value. It must be called
// before the Collector is served.
func (c *Collector) Register(name string, src StatsSource) {
	c.stores[name] = src
}

// Gather returns the current metric families, sorted by name.
func (c *Collector) Gather() []*dto.MetricFamily {
	names := make([]string, 0, len(c.stores))
	for n := range c.stores {
		names = append(names, n)
	}
	sort.Strings(names)

	hits := family(nameHits, "Cache lookups that found a live entry.", dto.MetricType_COUNTER)
	misses := family(nameMisses, "Cache lookups that found no live entry.", dto.MetricType_COUNTER)
	sets := family(nameSets, "Cache writes.", dto.MetricType_COUNTER)
	evictions := family(nameEvictions, "Expired entries removed from the cache.", dto.MetricType_COUNTER)
	entries := family(nameEntries, "Entries held, including expired ones not yet evicted.", dto.MetricType_GAUGE)

	for _, n := range names {
		src := c.stores[n]
		s := src.Stats()
		label := []*dto.LabelPair{{Name: proto.String(labelStore), Value: proto.String(n)}}
		hits.Metric = append(hits.Metric, counter(label, float64(s.Hits)))
		misses.Metric = append(misses.Metric, counter(label, float64(s.Misses)))
		sets.Metric = append(sets.Metric, counter(label, float64(s.Sets)))
		evictions.Metric = append(evictions.Metric, counter(label, float64(s.Evictions)))
		entries.Metric = append(entries.Metric, gauge(label, float64(src.Len())))
	}

	out := []*dto.MetricFamily{entries, evictions, hits, misses, sets}
	if c.logLen != nil {
		notifications := family(nameNotifications, "Events currently held in the notification log.", dto.MetricType_GAUGE)
		notifications.Metric = append(notifications.Metric, gauge(nil, float64(c.logLen())))
		out = append(out, notifications)
	}
	return out
}

// ServeHTTP writes all metric families in the negotiated exposition format.
func (c *Collector) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	format := expfmt.Negotiate(r.Header)
	w.Header().Set("Content-Type", string(format))
	enc := expfmt.NewEncoder(w, format)
	for _, mf := range c.Gather() {
		if len(mf.Metric) == 0 {
			continue
		}
		if err := enc.Encode(mf); err != nil {
			slog.Error("metrics: encode family", "family", mf.GetName(), "err", err)
			return
		}
	}
}

func family(name, help string, typ dto.MetricType) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name: proto.String(name),
		Help: proto.String(help),
		Type: typ.Enum(),
	}
}

func counter(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{Label: labels, Counter: &dto.Counter{Value: proto.Float64(v)}}
}

func gauge(labels []*dto.LabelPair, v float64) *dto.Metric {
	return &dto.Metric{Label: labels, Gauge: &dto.Gauge{Value: proto.Float64(v)}}
}
