package clock

import "sync"

// RTTWindow is the number of round-trip samples kept.
const RTTWindow = 5

// RTT keeps the latest round-trip samples and a trimmed-mean estimate that
// drops the single largest sample.
//
// Thread-safety: the pinger goroutine adds samples while the host loop reads
// the estimate; all methods lock.
type RTT struct {
	mu       sync.Mutex
	samples  []int
	estimate float64
}

func NewRTT() *RTT {
	return &RTT{samples: make([]int, 0, RTTWindow)}
}

// Add records a sample, evicting the oldest once the window is full, and
// recomputes the estimate. With a single sample the estimate is unchanged.
func (r *RTT) Add(sample int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.samples) == RTTWindow {
		copy(r.samples, r.samples[1:])
		r.samples = r.samples[:RTTWindow-1]
	}
	r.samples = append(r.samples, sample)

	n := len(r.samples)
	if n < 2 {
		return
	}
	sum, hi := 0, r.samples[0]
	for _, s := range r.samples {
		sum += s
		hi = max(hi, s)
	}
	r.estimate = float64(sum-hi) / float64(n-1)
}

// Estimate returns the round-trip estimate in time steps.
func (r *RTT) Estimate() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.estimate
}

// OneWay returns half the round-trip estimate, truncated.
func (r *RTT) OneWay() int {
	return int(r.Estimate() * 0.5)
}

// Samples returns a copy of the window, oldest first.
func (r *RTT) Samples() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.samples...)
}
