package llm

import (
	"context"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/viant/rpgraph/internal/rlog"
)

// BreakerBackend wraps a Backend with a circuit breaker (§5's suspension
// points note every LLM call may suspend and must surface failure rather
// than hang indefinitely). The teacher pulls gobreaker/v2 transitively but
// never calls it directly; this wiring follows the package's documented
// CircuitBreaker[T] generic contract since no example repo exercises it.
type BreakerBackend struct {
	backend Backend
	cb      *gobreaker.CircuitBreaker[Response]
}

// NewBreakerBackend wraps backend, tripping after 5 consecutive failures and
// resetting after a 30s cooldown.
func NewBreakerBackend(name string, backend Backend) *BreakerBackend {
	log := rlog.Named("llm.breaker")
	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    0,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state change", "name", name, "from", from.String(), "to", to.String())
		},
	}
	return &BreakerBackend{
		backend: backend,
		cb:      gobreaker.NewCircuitBreaker[Response](settings),
	}
}

// Generate proxies to the wrapped backend through the circuit breaker.
func (b *BreakerBackend) Generate(ctx context.Context, req Request) (Response, error) {
	return b.cb.Execute(func() (Response, error) {
		return b.backend.Generate(ctx, req)
	})
}
