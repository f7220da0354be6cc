package index

import (
	"sync"
	"time"

	"github.com/cenk/backoff"
	circuit "github.com/rubyist/circuitbreaker"
)

// breakerThreshold is the number of consecutive failures before a host's
// breaker trips. While open, requests to that host fail immediately with
// ErrUnavailable instead of hanging on a dead index; one extra index being
// down must not stall a whole manifest check.
const breakerThreshold = 5

// hostBreaker maintains one circuit breaker per index host.
type hostBreaker struct {
	mu       sync.RWMutex
	breakers map[string]*circuit.Breaker
}

func newHostBreaker() *hostBreaker {
	return &hostBreaker{breakers: make(map[string]*circuit.Breaker)}
}

func (h *hostBreaker) get(host string) *circuit.Breaker {
	h.mu.RLock()
	b, ok := h.breakers[host]
	h.mu.RUnlock()
	if ok {
		return b
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.breakers[host]; ok {
		return b
	}

	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = 30 * time.Second
	expBackoff.MaxInterval = 5 * time.Minute
	expBackoff.Multiplier = 2.0
	expBackoff.Reset()

	b = circuit.NewBreakerWithOptions(&circuit.Options{
		BackOff:    expBackoff,
		ShouldTrip: circuit.ThresholdTripFunc(breakerThreshold),
	})
	h.breakers[host] = b
	return b
}

// allow reports whether a request to host may proceed.
func (h *hostBreaker) allow(host string) bool {
	return h.get(host).Ready()
}

func (h *hostBreaker) success(host string) {
	h.get(host).Success()
}

func (h *hostBreaker) failure(host string) {
	h.get(host).Fail()
}
