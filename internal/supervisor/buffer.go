package supervisor

import "sync"

// RingBuffer is a thread-safe circular buffer holding the most recent N
// bytes of a participant's output. When the buffer fills, new data
// overwrites the oldest, so memory stays bounded no matter how chatty the
// process is.
//
// The buffer maintains two pointers: start (oldest byte) and end (next
// write position). While the buffer isn't full only end advances; once it
// fills, both advance together, sliding a window over the stream.
//
// RingBuffer implements io.Writer, so it can sit directly behind an
// exec.Cmd or pty copy loop.
type RingBuffer struct {
	data  []byte
	size  int
	start int
	end   int
	full  bool
	mu    sync.RWMutex
}

// NewRingBuffer creates a ring buffer that retains the most recent size
// bytes written to it.
func NewRingBuffer(size int) *RingBuffer {
	return &RingBuffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data to the buffer, implementing io.Writer. Write always
// succeeds; when the data exceeds the remaining capacity the oldest bytes
// are overwritten.
func (r *RingBuffer) Write(p []byte) (n int, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	n = len(p)

	for _, b := range p {
		r.data[r.end] = b
		r.end = (r.end + 1) % r.size

		if r.full {
			r.start = (r.start + 1) % r.size
		}

		if r.end == r.start {
			r.full = true
		}
	}

	return n, nil
}

// Bytes returns a copy of the buffered data in chronological order.
func (r *RingBuffer) Bytes() []byte {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full && r.start == 0 {
		return append([]byte(nil), r.data[:r.end]...)
	}

	result := make([]byte, 0, r.len())
	if r.full || r.end < r.start {
		result = append(result, r.data[r.start:]...)
		result = append(result, r.data[:r.end]...)
	} else {
		result = append(result, r.data[r.start:r.end]...)
	}

	return result
}

// Len returns the number of bytes currently stored.
func (r *RingBuffer) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.len()
}

// len returns the byte count (caller must hold lock).
func (r *RingBuffer) len() int {
	if r.full {
		return r.size
	}

	if r.end >= r.start {
		return r.end - r.start
	}

	return r.size - r.start + r.end
}

// Reset clears the buffer, retaining the underlying memory.
func (r *RingBuffer) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.start = 0
	r.end = 0
	r.full = false
}
