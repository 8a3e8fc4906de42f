package clock

import (
	"fmt"
	"sync"
	"time"
)

// StepsBase is the number of time steps the cycle length is derived from.
const StepsBase = 128

// Correction thresholds, in time steps.
const (
	SnapDistance    = 10 // always snap beyond this
	DriftDistance   = 3  // snap beyond this when latency is low
	LowLatencySteps = 8  // one-way latency below this counts as low
)

// CycleLength returns the modulus of the shared time counter for an update
// rate: the largest multiple of rate not above StepsBase.
func CycleLength(rate int) (int, error) {
	if rate < 1 || rate > StepsBase {
		return 0, fmt.Errorf("clock: rate %d outside 1..%d", rate, StepsBase)
	}
	return (StepsBase / rate) * rate, nil
}

// Clock is the shared modular time counter. It advances at rate steps per
// second and wraps at the cycle length.
//
// Thread-safety: all methods are safe for concurrent use. The host loop
// advances it while the pinger reads it.
type Clock struct {
	mu    sync.Mutex
	rate  int
	cycle int
	now   int
	acc   float64 // fractional steps not yet applied
}

// New returns a clock at time 0 for the given update rate.
func New(rate int) (*Clock, error) {
	cycle, err := CycleLength(rate)
	if err != nil {
		return nil, err
	}
	return &Clock{rate: rate, cycle: cycle}, nil
}

// MustNew is New for rates known to be valid. Panics on error.
func MustNew(rate int) *Clock {
	c, err := New(rate)
	if err != nil {
		panic(err)
	}
	return c
}

// Advance accumulates elapsed*rate fractional steps and applies the whole ones.
func (c *Clock) Advance(elapsed time.Duration) {
	if elapsed <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.acc += elapsed.Seconds() * float64(c.rate)
	whole := int(c.acc)
	c.acc -= float64(whole)
	c.now = (c.now + whole) % c.cycle
}

// Now returns the current time step.
func (c *Clock) Now() uint8 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return uint8(c.now)
}

// Cycle returns the cycle length.
func (c *Clock) Cycle() int { return c.cycle }

// Rate returns the update rate in steps per second.
func (c *Clock) Rate() int { return c.rate }

// Set stores t modulo the cycle length.
func (c *Clock) Set(t int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = mod(t, c.cycle)
}

// Correct applies the skew heuristic against a remote time stamp and reports
// whether the clock snapped. Small drifts are tolerated; larger ones are
// corrected immediately, and moderate ones only when latency is known to be low.
func (c *Clock) Correct(remote uint8, oneWay int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	delta := Distance(c.now, int(remote), c.cycle)
	if delta > SnapDistance || (delta > DriftDistance && oneWay < LowLatencySteps) {
		c.now = mod(int(remote), c.cycle)
		return true
	}
	return false
}

// Distance is the circular distance between a and b modulo n.
func Distance(a, b, n int) int {
	return min(mod(a-b, n), mod(b-a, n))
}

func mod(a, n int) int {
	r := a % n
	if r < 0 {
		r += n
	}
	return r
}
