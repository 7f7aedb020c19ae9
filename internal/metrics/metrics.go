package metrics

import (
	"net/http"
	"sync/atomic"
	"time"
)

type Counter struct {
	value uint64
}

func (c *Counter) Inc() {
	atomic.AddUint64(&c.value, 1)
}

func (c *Counter) Add(n uint64) {
	atomic.AddUint64(&c.value, n)
}

func (c *Counter) Load() uint64 {
	return atomic.LoadUint64(&c.value)
}

type Timer struct {
	start time.Time
}

func StartTimer() *Timer {
	return &Timer{start: time.Now()}
}

func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// Registry groups the process-wide counters reported by the health endpoint.
type Registry struct {
	Requests        Counter
	ServerErrors    Counter
	OrdersFulfilled Counter
	PointsAwarded   Counter
	PointsRedeemed  Counter
	started         time.Time
}

func NewRegistry() *Registry {
	return &Registry{started: time.Now()}
}

// ObserveStatus counts a finished HTTP request.
func (r *Registry) ObserveStatus(status int) {
	r.Requests.Inc()
	if status >= http.StatusInternalServerError {
		r.ServerErrors.Inc()
	}
}

type Snapshot struct {
	Uptime          string `json:"uptime"`
	Requests        uint64 `json:"requests"`
	ServerErrors    uint64 `json:"serverErrors"`
	OrdersFulfilled uint64 `json:"ordersFulfilled"`
	PointsAwarded   uint64 `json:"pointsAwarded"`
	PointsRedeemed  uint64 `json:"pointsRedeemed"`
}

func (r *Registry) Snapshot() Snapshot {
	return Snapshot{
		Uptime:          time.Since(r.started).Round(time.Second).String(),
		Requests:        r.Requests.Load(),
		ServerErrors:    r.ServerErrors.Load(),
		OrdersFulfilled: r.OrdersFulfilled.Load(),
		PointsAwarded:   r.PointsAwarded.Load(),
		PointsRedeemed:  r.PointsRedeemed.Load(),
	}
}
