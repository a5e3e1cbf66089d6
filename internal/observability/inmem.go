package observability

import "sync"

type observe struct {
	Kind    string
	Source  string
	Method  string
	Route   string
	Status  int
	OK      bool
	CacheMs float64
	StoreMs float64
	Dur     float64
}

type counters struct {
	hits, misses int
}

// Inmem keeps the last max observations and per-cache hit/miss totals. Used
// by tests and the debug endpoint when Prometheus is not wanted.
type Inmem struct {
	mu     sync.Mutex
	last   []*observe
	max    int
	totals map[string]*counters
}

func NewInmem(max int) *Inmem {
	return &Inmem{
		max:    max,
		last:   []*observe{},
		totals: make(map[string]*counters),
	}
}

func (m *Inmem) push(v *observe) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.last == nil {
		m.last = []*observe{}
	}
	m.last = append(m.last, v)
	if len(m.last) > m.max {
		m.last = m.last[len(m.last)-m.max:]
	}
}

func (m *Inmem) ObserveLookup(source string, cacheMs, storeMs float64) {
	m.push(&observe{Kind: "lookup", Source: source, CacheMs: cacheMs, StoreMs: storeMs})
}

func (m *Inmem) ObserveOracle(durMs float64, ok bool) {
	m.push(&observe{Kind: "oracle", Dur: durMs, OK: ok})
}

func (m *Inmem) ObserveCartEvent(processMs float64, ok bool) {
	m.push(&observe{Kind: "cart_event", Dur: processMs, OK: ok})
}

func (m *Inmem) ObserveHTTP(method, route string, status int, durMs float64) {
	m.push(&observe{Kind: "http", Method: method, Route: route, Status: status, Dur: durMs})
}

func (m *Inmem) counter(cache string) *counters {
	if m.totals == nil {
		m.totals = make(map[string]*counters)
	}
	c, ok := m.totals[cache]
	if !ok {
		c = &counters{}
		m.totals[cache] = c
	}
	return c
}

func (m *Inmem) IncCacheHit(cache string) {
	m.mu.Lock()
	m.counter(cache).hits++
	m.mu.Unlock()
}

func (m *Inmem) IncCacheMiss(cache string) {
	m.mu.Lock()
	m.counter(cache).misses++
	m.mu.Unlock()
}

// CacheTotals returns hits and misses recorded for cache.
func (m *Inmem) CacheTotals(cache string) (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c, ok := m.totals[cache]; ok {
		return c.hits, c.misses
	}
	return 0, 0
}

// Kinds lists the kinds of the retained observations, oldest first.
func (m *Inmem) Kinds() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.last))
	for i, o := range m.last {
		out[i] = o.Kind
	}
	return out
}
