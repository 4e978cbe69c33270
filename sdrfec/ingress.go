package sdrfec

import "sync/atomic"

// ingressRing hands datagrams from the socket reader to the decode loop
// without blocking the reader. Buffers are preallocated; the producer reads
// straight into the next free one.
//
// One producer and one consumer only.
type ingressRing struct {
	buf  []byte
	lens []int
	size int // bytes per entry
	mask uint64
	head atomic.Uint64 // consumer index
	tail atomic.Uint64 // producer index

	ready chan struct{}
}

func newIngressRing(capacity, size int) *ingressRing {
	// round up to power of two
	n := 1
	for n < capacity {
		n <<= 1
	}
	return &ingressRing{
		buf:   make([]byte, n*size),
		lens:  make([]int, n),
		size:  size,
		mask:  uint64(n - 1),
		ready: make(chan struct{}, 1),
	}
}

// next returns the buffer the producer should fill, or nil when full.
func (r *ingressRing) next() []byte {
	tail := r.tail.Load()
	if tail-r.head.Load() >= uint64(len(r.lens)) {
		return nil
	}
	off := int(tail&r.mask) * r.size
	return r.buf[off : off+r.size]
}

// commit publishes the first n bytes of the buffer returned by next.
func (r *ingressRing) commit(n int) {
	tail := r.tail.Load()
	r.lens[tail&r.mask] = n
	r.tail.Store(tail + 1)
	select {
	case r.ready <- struct{}{}:
	default:
	}
}

// peek returns the oldest datagram. It stays valid until release.
func (r *ingressRing) peek() ([]byte, bool) {
	head := r.head.Load()
	if head == r.tail.Load() {
		return nil, false
	}
	i := head & r.mask
	off := int(i) * r.size
	return r.buf[off : off+r.lens[i]], true
}

func (r *ingressRing) release() {
	r.head.Add(1)
}

func (r *ingressRing) depth() int {
	return int(r.tail.Load() - r.head.Load())
}
