package observability

import (
	"fmt"
	"net/http"
)

// AppendServerTiming adds one Server-Timing metric. Non-positive durations and
// empty descriptions are left out; a metric with neither is not written.
func AppendServerTiming(w http.ResponseWriter, name string, durMs float64, desc string) {
	if durMs > 0 && desc != "" {
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.2f;desc=%q", name, durMs, desc))
		return
	}
	if durMs > 0 {
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;dur=%.2f", name, durMs))
		return
	}
	if desc != "" {
		w.Header().Add("Server-Timing", fmt.Sprintf("%s;desc=%q", name, desc))
	}
}

func SetIfPos(w http.ResponseWriter, key string, ms float64) {
	if ms > 0 {
		w.Header().Set(key, fmt.Sprintf("%.2f", ms))
	}
}

// WriteLookupHeaders exposes where a cached read was served from and how long
// each tier took.
func WriteLookupHeaders(w http.ResponseWriter, source string, cacheMs, storeMs float64) {
	AppendServerTiming(w, "cache", cacheMs, "")
	AppendServerTiming(w, "store", storeMs, "")
	AppendServerTiming(w, "source", 0, source)
	if source != "" {
		w.Header().Set("X-Source", source)
	}
	SetIfPos(w, "X-Cache-Time", cacheMs)
	SetIfPos(w, "X-Store-Time", storeMs)
}
