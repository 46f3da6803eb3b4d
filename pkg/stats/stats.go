package stats

import (
	"context"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

const (
	BYTE = 1 << (10 * iota)
	KILOBYTE
	MEGABYTE
	GIGABYTE
	TERABYTE
)

var (
	goroutines = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dex",
		Name:      "goroutines",
		Help:      "Number of go routines currently running.",
	})
	heapAllocated = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "dex",
		Name:      "heap_allocated_bytes",
		Help:      "Bytes of allocated heap objects.",
	})
)

func init() {
	prometheus.MustRegister(goroutines, heapAllocated)
}

// EnableMemoryStatistics enables go routine that periodically prints memory
// usage of the go process and updates the related gauges.
func EnableMemoryStatistics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)

	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				PrintMemoryStatistics()
				PrintNumOfRoutines()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// toGigabytes returns given memory in bytes to gigabytes.
func toGigabytes(bytes uint64) float64 {
	return float64(bytes) / GIGABYTE
}

// PrintMemoryStatistics prints memory statistics using go runtime library.
func PrintMemoryStatistics() {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	heapAllocated.Set(float64(memStats.HeapAlloc))

	log.Infof(
		"Total allocated: %.3fGB, Heap allocated: %.3fGB, "+
			"Allocated objects count: %v, Freed objects count: %v",
		toGigabytes(memStats.TotalAlloc),
		toGigabytes(memStats.HeapAlloc),
		memStats.Mallocs,
		memStats.Frees,
	)
}

// PrintNumOfRoutines prints number of go routines currently running
func PrintNumOfRoutines() {
	n := runtime.NumGoroutine()
	goroutines.Set(float64(n))
	log.Infof("Num of go routines: %v", n)
}

// EventCounter counts published contract events by topic. It can be added
// as a sink of the event pubsub.
type EventCounter struct {
	events *prometheus.CounterVec
}

// NewEventCounter returns a counter registered with reg.
func NewEventCounter(reg prometheus.Registerer) (*EventCounter, error) {
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "dex",
		Name:      "events_total",
		Help:      "Number of committed contract events by type.",
	}, []string{"event"})
	if err := reg.Register(events); err != nil {
		return nil, err
	}
	return &EventCounter{events}, nil
}

func (c *EventCounter) Publish(topic string, _ string) error {
	c.events.WithLabelValues(topic).Inc()
	return nil
}
