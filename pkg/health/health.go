// Package health serves Kubernetes-style liveness and readiness probes.
// Checks run on demand when a probe endpoint is hit, each bounded by its own
// timeout.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// CheckFunc reports nil when the checked component is healthy.
type CheckFunc func(ctx context.Context) error

type check struct {
	name    string
	timeout time.Duration
	fn      CheckFunc
}

// Checker aggregates probe checks. The zero value is not usable; use New.
// The service starts not-ready: call SetReady(true) after initialization and
// SetReady(false) when shutdown begins so the load balancer drains traffic.
type Checker struct {
	ready atomic.Bool

	mu        sync.RWMutex
	liveness  []check
	readiness []check
}

// New creates a Checker in the not-ready state.
func New() *Checker {
	return &Checker{}
}

// AddLiveness registers a liveness check. Liveness failures indicate the
// process itself is broken and should be restarted.
func (c *Checker) AddLiveness(name string, timeout time.Duration, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveness = append(c.liveness, check{name: name, timeout: timeout, fn: fn})
}

// AddReadiness registers a readiness check. Readiness failures indicate the
// service should not receive traffic right now.
func (c *Checker) AddReadiness(name string, timeout time.Duration, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.readiness = append(c.readiness, check{name: name, timeout: timeout, fn: fn})
}

// SetReady flips the manual readiness gate.
func (c *Checker) SetReady(ready bool) {
	c.ready.Store(ready)
}

// LiveEndpoint handles /livez: 200 when every liveness check passes, 503
// with per-check failures otherwise.
func (c *Checker) LiveEndpoint(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	checks := append([]check(nil), c.liveness...)
	c.mu.RUnlock()

	writeStatus(w, runChecks(r.Context(), checks))
}

// ReadyEndpoint handles /readyz: 200 only when the manual gate is open and
// every readiness check passes.
func (c *Checker) ReadyEndpoint(w http.ResponseWriter, r *http.Request) {
	c.mu.RLock()
	checks := append([]check(nil), c.readiness...)
	c.mu.RUnlock()

	failures := runChecks(r.Context(), checks)
	if !c.ready.Load() {
		failures["_readiness"] = "service is not ready"
	}
	writeStatus(w, failures)
}

func runChecks(ctx context.Context, checks []check) map[string]string {
	failures := make(map[string]string)
	for _, ch := range checks {
		checkCtx, cancel := context.WithTimeout(ctx, ch.timeout)
		err := ch.fn(checkCtx)
		cancel()
		if err != nil {
			failures[ch.name] = err.Error()
		}
	}
	return failures
}

type statusResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func writeStatus(w http.ResponseWriter, failures map[string]string) {
	w.Header().Set("Content-Type", "application/json")

	resp := statusResponse{Status: "ok"}
	code := http.StatusOK
	if len(failures) > 0 {
		resp.Status = "unhealthy"
		resp.Checks = failures
		code = http.StatusServiceUnavailable
	}

	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(resp)
}
