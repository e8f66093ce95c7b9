// Package metrics collects per-node execution telemetry for the story
// pipeline: execution counters, rolling-window latency percentiles, typed
// error tallies, and threshold notifications.
package metrics

// DefaultWindowSize is the number of duration samples retained per node.
const DefaultWindowSize = 100

// Number is the set of sample types a RollingWindow can hold.
type Number interface {
	~int | ~int32 | ~int64 | ~uint | ~uint32 | ~uint64 | ~float32 | ~float64
}

// RollingWindow is a fixed-capacity FIFO buffer of samples. Once full, every
// Add evicts the oldest sample. It is not safe for concurrent use; callers
// guard it with the lock of the entry that owns it.
type RollingWindow[T Number] struct {
	buf   []T
	start int
	size  int
}

// NewRollingWindow creates a window holding at most capacity samples.
// A non-positive capacity falls back to DefaultWindowSize.
func NewRollingWindow[T Number](capacity int) *RollingWindow[T] {
	if capacity <= 0 {
		capacity = DefaultWindowSize
	}
	return &RollingWindow[T]{buf: make([]T, capacity)}
}

// Add appends a sample, evicting the oldest one when the window is full.
func (w *RollingWindow[T]) Add(v T) {
	if w.size < len(w.buf) {
		w.buf[(w.start+w.size)%len(w.buf)] = v
		w.size++
		return
	}
	w.buf[w.start] = v
	w.start = (w.start + 1) % len(w.buf)
}

// Values returns a copy of the current samples, oldest first.
func (w *RollingWindow[T]) Values() []T {
	out := make([]T, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.start+i)%len(w.buf)]
	}
	return out
}

// Len returns the number of samples currently held.
func (w *RollingWindow[T]) Len() int {
	return w.size
}

// Cap returns the window capacity.
func (w *RollingWindow[T]) Cap() int {
	return len(w.buf)
}

// Mean returns the arithmetic mean of the current samples, or 0 when empty.
func (w *RollingWindow[T]) Mean() float64 {
	if w.size == 0 {
		return 0
	}
	var sum float64
	for i := 0; i < w.size; i++ {
		sum += float64(w.buf[(w.start+i)%len(w.buf)])
	}
	return sum / float64(w.size)
}

// Clear drops all samples, keeping the capacity.
func (w *RollingWindow[T]) Clear() {
	w.start = 0
	w.size = 0
}
