package gaze

// Window is a fixed-capacity FIFO of boolean samples. Pushing into a full
// window evicts the oldest sample.
type Window struct {
	buf   []bool
	head  int // index of the oldest sample
	size  int
	trues int
}

// NewWindow returns an empty window holding at most capacity samples.
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = 1
	}
	return &Window{buf: make([]bool, capacity)}
}

// Push appends v, evicting the oldest sample when full.
func (w *Window) Push(v bool) {
	if w.size == len(w.buf) {
		if w.buf[w.head] {
			w.trues--
		}
		w.buf[w.head] = v
		w.head = (w.head + 1) % len(w.buf)
	} else {
		w.buf[(w.head+w.size)%len(w.buf)] = v
		w.size++
	}
	if v {
		w.trues++
	}
}

// Len is the number of samples held.
func (w *Window) Len() int { return w.size }

// Cap is the window capacity.
func (w *Window) Cap() int { return len(w.buf) }

// Count is the number of true samples held.
func (w *Window) Count() int { return w.trues }

// Reset empties the window.
func (w *Window) Reset() {
	w.head, w.size, w.trues = 0, 0, 0
}

// Samples returns the held samples, oldest first.
func (w *Window) Samples() []bool {
	out := make([]bool, w.size)
	for i := 0; i < w.size; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}
