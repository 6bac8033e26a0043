// Package health reports liveness of the service and its backing stores.
package health

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"

	"sacra360/pkg/platform/httputil"
)

// Pinger is satisfied by *sql.DB (PingContext) through PingFunc and by the
// platform Redis client.
type Pinger interface {
	Health(ctx context.Context) error
}

// PingFunc adapts a function to Pinger.
type PingFunc func(ctx context.Context) error

func (f PingFunc) Health(ctx context.Context) error { return f(ctx) }

type Status struct {
	Status     string                     `json:"status"`
	Components map[string]ComponentStatus `json:"components"`
	Goroutines int                        `json:"goroutines"`
	Memory     MemoryStats                `json:"memory"`
}

type ComponentStatus struct {
	Status       string `json:"status"`
	ResponseTime int64  `json:"response_time_ms"`
	Error        string `json:"error,omitempty"`
}

type MemoryStats struct {
	AllocMB float64 `json:"alloc_mb"`
	SysMB   float64 `json:"sys_mb"`
	NumGC   uint32  `json:"num_gc"`
}

type Checker struct {
	checks  map[string]Pinger
	timeout time.Duration
}

func NewChecker(timeout time.Duration) *Checker {
	return &Checker{checks: make(map[string]Pinger), timeout: timeout}
}

// Register adds a named check. Nil pingers are ignored.
func (c *Checker) Register(name string, p Pinger) {
	if p == nil {
		return
	}
	c.checks[name] = p
}

// Check runs every check sequentially with the checker timeout.
func (c *Checker) Check(ctx context.Context) Status {
	status := Status{Status: "healthy", Components: make(map[string]ComponentStatus, len(c.checks))}

	names := make([]string, 0, len(c.checks))
	for name := range c.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		pctx, cancel := context.WithTimeout(ctx, c.timeout)
		start := time.Now()
		err := c.checks[name].Health(pctx)
		cancel()

		cs := ComponentStatus{Status: "healthy", ResponseTime: time.Since(start).Milliseconds()}
		if err != nil {
			cs.Status = "unhealthy"
			cs.Error = err.Error()
			status.Status = "unhealthy"
		}
		status.Components[name] = cs
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	status.Goroutines = runtime.NumGoroutine()
	status.Memory = MemoryStats{
		AllocMB: float64(mem.Alloc) / 1024 / 1024,
		SysMB:   float64(mem.Sys) / 1024 / 1024,
		NumGC:   mem.NumGC,
	}
	return status
}

// Handler serves the check result as JSON, 503 when any check fails.
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st := c.Check(r.Context())
		code := http.StatusOK
		if st.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		httputil.WriteJSON(w, code, st)
	}
}
