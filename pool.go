package ccat

import "sync"

// MaxPacketBytes is the largest payload the core will allocate for. The
// wire codec's bytes field is a u16, which can only represent lengths up
// to 65535; a payload of exactly 65536 would wrap to 0 on the wire, so
// the ceiling is pinned one below the nominal 65536 the spec's payload
// size describes rather than at it.
const MaxPacketBytes = 65535

// Allocator is the polymorphic packet-buffer pool trait from the design
// notes: the core depends only on Allocate and Release, so a host can
// swap in an arena-per-window, free-list, or direct-heap implementation
// without the core knowing the difference.
type Allocator interface {
	// Allocate returns a buffer of exactly n bytes (len == n). It returns
	// a nil slice and a non-nil error when no memory is available.
	Allocate(n int) ([]byte, error)
	// Release returns a buffer previously obtained from Allocate. Buffers
	// not obtained from this allocator are silently ignored.
	Release(buf []byte)
}

// defaultPool is a sync.Pool-backed allocator of MaxPacketBytes-capacity
// buffers, sliced down to the requested length. It mirrors the teacher's
// bufferPool: Get always returns a buffer with cap == MaxPacketBytes, and
// Put silently drops anything that doesn't have that capacity rather than
// growing the pool with mismatched buffers.
type defaultPool struct {
	pool sync.Pool
}

// NewDefaultAllocator returns the reference Allocator implementation used
// when a host does not supply its own.
func NewDefaultAllocator() Allocator {
	p := &defaultPool{}
	p.pool.New = func() interface{} {
		return make([]byte, MaxPacketBytes)
	}
	return p
}

func (p *defaultPool) Allocate(n int) ([]byte, error) {
	if n < 0 || n > MaxPacketBytes {
		return nil, InvalidInput
	}
	buf := p.pool.Get().([]byte)
	return buf[:n], nil
}

func (p *defaultPool) Release(buf []byte) {
	if cap(buf) != MaxPacketBytes {
		return
	}
	p.pool.Put(buf[:MaxPacketBytes])
}
