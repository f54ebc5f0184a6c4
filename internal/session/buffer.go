package session

import "sync"

// Buffer is a thread-safe ring buffer for terminal output. When full,
// the oldest bytes are overwritten, the way a terminal scrollback
// forgets its oldest lines.
type Buffer struct {
	mu   sync.Mutex
	data []byte
	size int
	head int
	tail int
}

// NewBuffer creates a ring buffer retaining up to size-1 bytes.
func NewBuffer(size int) *Buffer {
	if size < 2 {
		size = 2
	}
	return &Buffer{
		data: make([]byte, size),
		size: size,
	}
}

// Write appends data, evicting the oldest bytes on overflow. It never
// fails; the signature matches io.Writer for convenience.
func (b *Buffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, c := range p {
		b.data[b.tail] = c
		b.tail = (b.tail + 1) % b.size
		if b.tail == b.head {
			b.head = (b.head + 1) % b.size
		}
	}
	return len(p), nil
}

// Drain returns all buffered data and empties the buffer.
func (b *Buffer) Drain() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.head == b.tail {
		return nil
	}

	var out []byte
	if b.tail > b.head {
		out = make([]byte, b.tail-b.head)
		copy(out, b.data[b.head:b.tail])
	} else {
		first := b.data[b.head:]
		out = make([]byte, len(first)+b.tail)
		copy(out, first)
		copy(out[len(first):], b.data[:b.tail])
	}

	b.head = b.tail
	return out
}

// Len reports the number of buffered bytes.
func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.tail >= b.head {
		return b.tail - b.head
	}
	return b.size - b.head + b.tail
}
