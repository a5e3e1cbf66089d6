package observability

// Cache names used with IncCacheHit / IncCacheMiss.
const (
	CachePrices  = "prices"
	CacheCatalog = "catalog"
)

type Metrics interface {
	ObserveLookup(source string, cacheMs, storeMs float64)
	ObserveOracle(durMs float64, ok bool)
	ObserveCartEvent(processMs float64, ok bool)
	ObserveHTTP(method, route string, status int, durMs float64)
	IncCacheHit(cache string)
	IncCacheMiss(cache string)
}

type Noop struct{}

func NewNoop() Noop { return Noop{} }

func (Noop) ObserveLookup(string, float64, float64)   {}
func (Noop) ObserveOracle(float64, bool)              {}
func (Noop) ObserveCartEvent(float64, bool)           {}
func (Noop) ObserveHTTP(string, string, int, float64) {}
func (Noop) IncCacheHit(string)                       {}
func (Noop) IncCacheMiss(string)                      {}
