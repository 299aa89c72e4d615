package session

import (
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

// trendWindow bounds the sample ring. At the default snapshot interval
// of one minute this covers a bit over four hours of history.
const trendWindow = 256

type sample struct {
	at    time.Time
	count float64
}

// sampleRing is a fixed-capacity ring of progress samples with its own
// lock so recording never contends with the session mutex.
type sampleRing struct {
	mu   sync.Mutex
	buf  []sample
	next int
	size int
}

func newSampleRing(capacity int) *sampleRing {
	return &sampleRing{buf: make([]sample, capacity)}
}

func (r *sampleRing) add(s sample) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buf[r.next] = s
	r.next = (r.next + 1) % len(r.buf)
	if r.size < len(r.buf) {
		r.size++
	}
}

func (r *sampleRing) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next = 0
	r.size = 0
}

// ordered returns the samples oldest first.
func (r *sampleRing) ordered() []sample {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]sample, 0, r.size)
	start := r.next - r.size
	if start < 0 {
		start += len(r.buf)
	}
	for i := 0; i < r.size; i++ {
		out = append(out, r.buf[(start+i)%len(r.buf)])
	}
	return out
}

// slopePerHour fits a least-squares line through the samples and returns
// the hourly production rate it implies, with the sample count. Fewer
// than two samples, or samples taken at the same instant, give no trend.
func (r *sampleRing) slopePerHour() (float64, int) {
	samples := r.ordered()
	if len(samples) < 2 {
		return 0, len(samples)
	}

	origin := samples[0].at
	xs := make([]float64, len(samples))
	ys := make([]float64, len(samples))
	spread := false
	for i, s := range samples {
		xs[i] = s.at.Sub(origin).Seconds()
		ys[i] = s.count
		if xs[i] != xs[0] {
			spread = true
		}
	}
	if !spread {
		return 0, len(samples)
	}

	_, slope := stat.LinearRegression(xs, ys, nil, false)
	return slope * 60 * 60, len(samples)
}
