// Package market provides price history buffers, market regime
// classification and the price feed contract the trading core consumes.
package market

import (
	"errors"
	"fmt"
)

// ErrInvalidPrice is returned when a caller supplies a zero or negative price.
var ErrInvalidPrice = errors.New("invalid price")

// Sample is one observed price with its ingestion index.
type Sample struct {
	Index uint64  `json:"index"`
	Price float64 `json:"price"`
}

// History is a capacity-bounded FIFO of recent price samples for one
// symbol. Indices increase monotonically across the life of the buffer,
// so two samples can be ordered even after older entries are evicted.
type History struct {
	capacity int
	samples  []Sample
	next     uint64
}

// DefaultCapacity holds 24 hours of samples at a 5-minute cadence.
const DefaultCapacity = 288

// NewHistory returns an empty history bounded to capacity samples.
// A capacity below 1 falls back to DefaultCapacity.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &History{
		capacity: capacity,
		samples:  make([]Sample, 0, capacity),
	}
}

// Push appends a price sample, evicting the oldest entry once the
// buffer is full. Non-positive prices are rejected without mutation.
func (h *History) Push(price float64) error {
	if price <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidPrice, price)
	}
	h.samples = append(h.samples, Sample{Index: h.next, Price: price})
	h.next++
	if len(h.samples) > h.capacity {
		h.samples = h.samples[1:]
	}
	return nil
}

// Len reports how many samples are currently buffered.
func (h *History) Len() int { return len(h.samples) }

// Capacity reports the bound the buffer was created with.
func (h *History) Capacity() int { return h.capacity }

// Last returns the most recent sample, if any.
func (h *History) Last() (Sample, bool) {
	if len(h.samples) == 0 {
		return Sample{}, false
	}
	return h.samples[len(h.samples)-1], true
}

// PriceAgo returns the price k samples before the most recent one.
// PriceAgo(0) is the latest price.
func (h *History) PriceAgo(k int) (float64, bool) {
	i := len(h.samples) - 1 - k
	if k < 0 || i < 0 {
		return 0, false
	}
	return h.samples[i].Price, true
}

// Prices returns a copy of the buffered prices, oldest first.
func (h *History) Prices() []float64 {
	out := make([]float64, len(h.samples))
	for i, s := range h.samples {
		out[i] = s.Price
	}
	return out
}

// Tail returns a copy of the most recent n prices, oldest first.
// Fewer than n buffered samples yields all of them.
func (h *History) Tail(n int) []float64 {
	if n < 0 {
		n = 0
	}
	if n > len(h.samples) {
		n = len(h.samples)
	}
	out := make([]float64, 0, n)
	for _, s := range h.samples[len(h.samples)-n:] {
		out = append(out, s.Price)
	}
	return out
}

// Samples returns a copy of the buffered samples, oldest first. Used by
// the state store so a persisted history round-trips with its indices.
func (h *History) Samples() []Sample {
	out := make([]Sample, len(h.samples))
	copy(out, h.samples)
	return out
}

// Restore rebuilds a history from persisted samples. The next index
// continues after the highest restored one.
func Restore(capacity int, samples []Sample) *History {
	h := NewHistory(capacity)
	if len(samples) > h.capacity {
		samples = samples[len(samples)-h.capacity:]
	}
	h.samples = append(h.samples, samples...)
	if n := len(h.samples); n > 0 {
		h.next = h.samples[n-1].Index + 1
	}
	return h
}
