package pagination

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/gabapcia/txpager/internal/pagination"

// instruments groups the counters recorded while resolving pages.
type instruments struct {
	fetches metric.Int64Counter // upstream listing calls
	hits    metric.Int64Counter // pages whose predecessor cursor was cached
	misses  metric.Int64Counter // pages that required a forward walk
}

func newInstruments(meter metric.Meter) instruments {
	counter := func(name, description string) metric.Int64Counter {
		c, err := meter.Int64Counter(name, metric.WithDescription(description))
		if err != nil {
			return noop.Int64Counter{}
		}

		return c
	}

	return instruments{
		fetches: counter("txpager.pagination.upstream_fetches", "Upstream listing calls issued"),
		hits:    counter("txpager.pagination.cursor_hits", "Pages resolved from a cached cursor"),
		misses:  counter("txpager.pagination.cursor_misses", "Pages that needed a forward walk"),
	}
}

func defaultTracer() trace.Tracer {
	return otel.Tracer(instrumentationName)
}

func defaultInstruments() instruments {
	return newInstruments(otel.Meter(instrumentationName))
}
