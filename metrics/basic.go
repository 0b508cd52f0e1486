package metrics

import (
	"sort"
	"sync"
	"sync/atomic"
)

// BasicProvider keeps instruments in memory and exposes their values through
// Snapshot methods. Instruments are created on first use and reused by name.
type BasicProvider struct {
	counters   registry[*BasicCounter]
	updowns    registry[*BasicUpDownCounter]
	histograms registry[*BasicHistogram]
}

// NewBasicProvider constructs an empty BasicProvider.
func NewBasicProvider() *BasicProvider {
	return &BasicProvider{}
}

// registry is a get-or-create map of named instruments.
type registry[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	meta  map[string]InstrumentConfig
}

func (r *registry[T]) get(name string, opts []InstrumentOption, newFn func() T) T {
	r.mu.RLock()
	v, ok := r.items[name]
	r.mu.RUnlock()
	if ok {
		return v
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok = r.items[name]; ok {
		return v
	}
	if r.items == nil {
		r.items = make(map[string]T)
		r.meta = make(map[string]InstrumentConfig)
	}
	v = newFn()
	r.items[name] = v
	r.meta[name] = applyOptions(opts)
	return v
}

func (r *registry[T]) names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.items))
	for name := range r.items {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func (r *registry[T]) config(name string) (InstrumentConfig, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.meta[name]
	return c, ok
}

// Counter returns the counter registered under name.
func (p *BasicProvider) Counter(name string, opts ...InstrumentOption) Counter {
	return p.counters.get(name, opts, func() *BasicCounter { return &BasicCounter{} })
}

// UpDownCounter returns the up/down counter registered under name.
func (p *BasicProvider) UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter {
	return p.updowns.get(name, opts, func() *BasicUpDownCounter { return &BasicUpDownCounter{} })
}

// Histogram returns the histogram registered under name.
func (p *BasicProvider) Histogram(name string, opts ...InstrumentOption) Histogram {
	return p.histograms.get(name, opts, func() *BasicHistogram { return &BasicHistogram{} })
}

// CounterValue returns the value of a counter or up/down counter, 0 if none is registered.
func (p *BasicProvider) CounterValue(name string) int64 {
	if c, ok := lookup(&p.counters, name); ok {
		return c.Snapshot()
	}
	if u, ok := lookup(&p.updowns, name); ok {
		return u.Snapshot()
	}
	return 0
}

// HistogramValue returns the snapshot of a histogram, zero if none is registered.
func (p *BasicProvider) HistogramValue(name string) HistSnapshot {
	if h, ok := lookup(&p.histograms, name); ok {
		return h.Snapshot()
	}
	return HistSnapshot{}
}

// Names lists every registered instrument name, sorted.
func (p *BasicProvider) Names() []string {
	out := append(p.counters.names(), p.updowns.names()...)
	out = append(out, p.histograms.names()...)
	sort.Strings(out)
	return out
}

// Config returns the metadata an instrument was registered with.
func (p *BasicProvider) Config(name string) (InstrumentConfig, bool) {
	if c, ok := p.counters.config(name); ok {
		return c, true
	}
	if c, ok := p.updowns.config(name); ok {
		return c, true
	}
	return p.histograms.config(name)
}

func lookup[T any](r *registry[T], name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.items[name]
	return v, ok
}

// BasicCounter is a thread-safe monotonic counter.
type BasicCounter struct {
	val atomic.Int64
}

func (c *BasicCounter) Add(n int64) { c.val.Add(n) }

// Snapshot returns the current value.
func (c *BasicCounter) Snapshot() int64 { return c.val.Load() }

// BasicUpDownCounter is a thread-safe up/down counter.
type BasicUpDownCounter struct {
	val atomic.Int64
}

func (u *BasicUpDownCounter) Add(n int64) { u.val.Add(n) }

// Snapshot returns the current value.
func (u *BasicUpDownCounter) Snapshot() int64 { return u.val.Load() }

// BasicHistogram tracks count, sum, min and max. It keeps no buckets.
type BasicHistogram struct {
	mu    sync.Mutex
	count int64
	sum   float64
	min   float64
	max   float64
}

// Record adds a measurement.
func (h *BasicHistogram) Record(v float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.count == 0 || v < h.min {
		h.min = v
	}
	if h.count == 0 || v > h.max {
		h.max = v
	}
	h.count++
	h.sum += v
}

// HistSnapshot is an immutable copy of a BasicHistogram.
type HistSnapshot struct {
	Count int64
	Sum   float64
	Min   float64
	Max   float64
	Mean  float64
}

// Snapshot returns a copy of the histogram state.
func (h *BasicHistogram) Snapshot() HistSnapshot {
	h.mu.Lock()
	s := HistSnapshot{Count: h.count, Sum: h.sum, Min: h.min, Max: h.max}
	h.mu.Unlock()
	if s.Count > 0 {
		s.Mean = s.Sum / float64(s.Count)
	}
	return s
}
