// Package metrics instruments queue and worker code with counters, gauges and
// timers kept in the go-metrics default registry.
package metrics

import (
	"fmt"
	"sync"
	"time"

	gometrics "github.com/rcrowley/go-metrics"
)

var (
	mu        sync.RWMutex
	namespace string
)

// SetNamespace sets the prefix under which all metrics are registered.
// Typically this matches the running process ("worker", "api").
func SetNamespace(ns string) {
	mu.Lock()
	defer mu.Unlock()
	namespace = ns
}

func withNamespace(name string) string {
	mu.RLock()
	defer mu.RUnlock()
	if namespace == "" {
		return name
	}
	return fmt.Sprintf("%s.%s", namespace, name)
}

// Increment a counter with the given name.
func Increment(name string) {
	gometrics.GetOrRegisterCounter(withNamespace(name), nil).Inc(1)
}

// Add increases a counter by n.
func Add(name string, n int64) {
	gometrics.GetOrRegisterCounter(withNamespace(name), nil).Inc(n)
}

// Measure that the given gauge has the given value.
func Measure(name string, value int64) {
	gometrics.GetOrRegisterGauge(withNamespace(name), nil).Update(value)
}

// Time adds a new timing measurement for the given metric.
func Time(name string, value time.Duration) {
	gometrics.GetOrRegisterTimer(withNamespace(name), nil).Update(value)
}

// Count returns the current value of the named counter, or 0 if it was never
// incremented.
func Count(name string) int64 {
	if c, ok := gometrics.DefaultRegistry.Get(withNamespace(name)).(gometrics.Counter); ok {
		return c.Count()
	}
	return 0
}

// Snapshot returns every registered metric keyed by name, suitable for JSON
// encoding.
func Snapshot() map[string]map[string]interface{} {
	return gometrics.DefaultRegistry.GetAll()
}
