package ccat

import (
	"time"

	"github.com/pkg/errors"
)

// ErrWindowEmpty is returned by BuildRecovery when the encoder window has
// no originals to cover.
var ErrWindowEmpty = errors.New("ccat: encoder window is empty")

type encSlot struct {
	seq        uint64
	payload    []byte
	insertedAt time.Time
}

// EncoderWindow is the sender-side sliding window over up to
// WindowPackets recent originals, per spec §4.3. It owns the buffers it
// leases from its Allocator and releases them on eviction or Close.
type EncoderWindow struct {
	commonState

	cap        int
	windowMsec time.Duration
	pool       Allocator
	clock      func() time.Time
	cfg        Config

	slots []encSlot // ring, len == cap
	head  int       // index of oldest occupied slot
	count int       // occupancy

	hasSubmitted bool
	lastSeq      uint64
	nextRow      byte
}

// NewEncoder creates an EncoderWindow. pool must outlive the window; a nil
// pool uses NewDefaultAllocator(). A nil clock uses time.Now.
func NewEncoder(cfg Config, pool Allocator, clock func() time.Time) (*EncoderWindow, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewDefaultAllocator()
	}
	if clock == nil {
		clock = time.Now
	}
	e := &EncoderWindow{
		cap:        cfg.windowPackets(),
		windowMsec: cfg.windowDuration(),
		pool:       pool,
		clock:      clock,
		cfg:        cfg,
	}
	e.commonState.logger = cfg.Logger
	e.slots = make([]encSlot, e.cap)
	return e, nil
}

// Stats returns a snapshot of the encoder's counters.
func (e *EncoderWindow) Stats() Stats {
	return e.commonState.stats.Copy()
}

// SubmitOriginal appends an original to the window, evicting the oldest
// slot if the window is full or stale, per spec §4.3.
func (e *EncoderWindow) SubmitOriginal(sequence uint64, payload []byte) error {
	if e.disabled {
		return Disabled
	}
	if len(payload) < 1 || len(payload) > MaxPacketBytes {
		return InvalidInput
	}
	if e.hasSubmitted && sequence <= e.lastSeq {
		return InvalidInput
	}

	now := e.clock()
	for e.count > 0 && now.Sub(e.slots[e.head].insertedAt) > e.windowMsec {
		e.evictOldest()
	}
	if e.count == e.cap {
		e.evictOldest()
	}

	buf, err := e.pool.Allocate(len(payload))
	if err != nil {
		e.commonState.stats.inc(&e.commonState.stats.AllocationFailures)
		return OutOfMemory
	}
	copy(buf, payload)

	idx := (e.head + e.count) % e.cap
	e.slots[idx] = encSlot{seq: sequence, payload: buf, insertedAt: now}
	e.count++

	e.hasSubmitted = true
	e.lastSeq = sequence
	e.commonState.stats.inc(&e.commonState.stats.OriginalsSubmitted)
	return nil
}

// BuildRecovery emits one recovery packet covering the window's current
// occupancy at the encoder's next row in the mod-64 cycle, per spec §4.3.
// It returns ErrWindowEmpty if the window has no originals.
func (e *EncoderWindow) BuildRecovery() (Recovery, error) {
	if e.disabled {
		return Recovery{}, Disabled
	}
	if e.count == 0 {
		return Recovery{}, ErrWindowEmpty
	}

	count := e.count
	seqStart := e.slots[e.head].seq
	row := e.nextRow

	maxBytes := 0
	for i := 0; i < count; i++ {
		idx := (e.head + i) % e.cap
		if n := len(e.slots[idx].payload); n > maxBytes {
			maxBytes = n
		}
	}

	payload, err := e.pool.Allocate(maxBytes)
	if err != nil {
		e.commonState.stats.inc(&e.commonState.stats.AllocationFailures)
		return Recovery{}, OutOfMemory
	}
	for i := range payload {
		payload[i] = 0
	}

	for i := 0; i < count; i++ {
		idx := (e.head + i) % e.cap
		src := e.slots[idx].payload
		coef := cauchyCoeff(row, byte(i))
		muladdMem(payload, src, coef, len(src))
	}

	e.nextRow = byte((int(e.nextRow) + 1) % MaxRecoveryRows)
	e.commonState.stats.inc(&e.commonState.stats.RecoveriesBuilt)

	return Recovery{
		SequenceStart: seqStart,
		Count:         uint8(count),
		Row:           row,
		Bytes:         uint16(maxBytes),
		Payload:       payload,
	}, nil
}

// Close releases every buffer currently held by the window back to the
// pool. The EncoderWindow must not be used afterward.
func (e *EncoderWindow) Close() {
	for e.count > 0 {
		e.evictOldest()
	}
}

func (e *EncoderWindow) evictOldest() {
	s := e.slots[e.head]
	e.pool.Release(s.payload)
	e.slots[e.head] = encSlot{}
	e.head = (e.head + 1) % e.cap
	e.count--
	e.commonState.stats.inc(&e.commonState.stats.OriginalsEvicted)
}
