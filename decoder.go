package ccat

// decoderWindowSize is the fixed physical ring size from spec §3:
// kDecoderWindowSize = 2*MaxWindowPackets.
const decoderWindowSize = 2 * MaxWindowPackets

// slotState tags a decoder-side window slot, per the design notes'
// recommendation of a tagged variant over parallel flag arrays.
type slotState byte

const (
	slotEmpty slotState = iota
	slotMissing
	slotGotOriginal
	slotRecovered
)

type decSlot struct {
	state      slotState
	seq        uint64
	valid      bool // true once this ring position has ever held a real sequence
	payload    []byte
	lengthHint uint16 // best known upper bound on the true payload length
}

// bufferedRecovery is a reduced recovery retained while any of its columns
// remain unknown, per spec §3/§4.4.
type bufferedRecovery struct {
	seqStart     uint64
	count        uint8
	row          uint8
	bytesLen     uint16
	payload      []byte
	unknown      bitmap192
	unknownCount int
}

// DecoderWindow is the receiver-side state machine: a fixed 384-slot
// receive window, a queue of buffered (partially reduced) recoveries, and
// the solver that ties them together, per spec §4.4/§4.5.
type DecoderWindow struct {
	commonState

	pool        Allocator
	onRecovered func(payload []byte, sequence uint64, context interface{})
	context     interface{}

	hasSeen bool
	maxSeen uint64

	slots      [decoderWindowSize]decSlot
	missing    map[uint64]struct{}
	recoveries []*bufferedRecovery
}

// NewDecoder creates a DecoderWindow. pool must outlive the window; a nil
// pool uses NewDefaultAllocator().
func NewDecoder(cfg Config, pool Allocator) (*DecoderWindow, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if pool == nil {
		pool = NewDefaultAllocator()
	}
	d := &DecoderWindow{
		pool:        pool,
		onRecovered: cfg.OnRecovered,
		context:     cfg.Context,
		missing:     make(map[uint64]struct{}),
	}
	d.commonState.logger = cfg.Logger
	return d, nil
}

// Stats returns a snapshot of the decoder's counters.
func (d *DecoderWindow) Stats() Stats {
	return d.commonState.stats.Copy()
}

func slotIndex(seq uint64) int {
	return int(seq % decoderWindowSize)
}

// outOfWindow reports whether seq has already fallen behind the active
// receive window, per spec §4.4's accept_original rule.
func (d *DecoderWindow) outOfWindow(seq uint64) bool {
	return d.hasSeen && seq+decoderWindowSize <= d.maxSeen
}

func windowFloor(maxSeen uint64) uint64 {
	if maxSeen+1 < decoderWindowSize {
		return 0
	}
	return maxSeen - (decoderWindowSize - 1)
}

// slotFor returns the slot addressed by seq, re-initializing it if the
// ring position currently holds a different (stale) sequence.
func (d *DecoderWindow) slotFor(seq uint64) *decSlot {
	s := &d.slots[slotIndex(seq)]
	if !s.valid || s.seq != seq {
		*s = decSlot{seq: seq, valid: true, state: slotEmpty}
	}
	return s
}

func (d *DecoderWindow) markMissing(seq uint64) {
	s := d.slotFor(seq)
	if s.state == slotGotOriginal || s.state == slotRecovered || s.state == slotMissing {
		return
	}
	s.state = slotMissing
	d.missing[seq] = struct{}{}
}

// advanceTo moves the window frontier to newMax: sequences strictly
// between the old and new frontier (but still within the new window) are
// marked Missing, and slots that fall below the new floor are evicted.
func (d *DecoderWindow) advanceTo(newMax uint64) {
	oldMax := d.maxSeen
	newFloor := windowFloor(newMax)

	// Only ring positions in [oldFloor, oldMax] could ever have been
	// occupied, so the eviction sweep never needs to walk past oldMax+1
	// regardless of how far the window jumps -- otherwise a sparse but
	// valid sequence jump (spec permits gaps) would walk the entire
	// numeric gap instead of the bounded physical ring. Eviction runs
	// before the new sequences are marked Missing, since those share ring
	// positions with the sequences being evicted.
	oldFloor := windowFloor(oldMax)
	evictEnd := newFloor
	if oldMax+1 < evictEnd {
		evictEnd = oldMax + 1
	}
	for seq := oldFloor; seq < evictEnd; seq++ {
		d.evictSeq(seq)
	}

	start := oldMax + 1
	if newFloor > start {
		start = newFloor
	}
	for seq := start; seq < newMax; seq++ {
		d.markMissing(seq)
	}

	d.maxSeen = newMax
}

// evictSeq releases the slot for seq (if it holds live data) and keeps
// every buffered recovery's unknown bitmap in sync, per spec §4.4's
// eviction rule: a recovery whose in-window unknown count drops to zero
// is discarded.
func (d *DecoderWindow) evictSeq(seq uint64) {
	s := &d.slots[slotIndex(seq)]
	if !s.valid || s.seq != seq {
		return
	}
	if s.payload != nil {
		d.pool.Release(s.payload)
	}
	if s.state == slotMissing {
		delete(d.missing, seq)
	}

	for i := 0; i < len(d.recoveries); {
		r := d.recoveries[i]
		if seq >= r.seqStart && seq < r.seqStart+uint64(r.count) {
			k := int(seq - r.seqStart)
			if r.unknown.test(k) {
				r.unknown.clear(k)
				r.unknownCount--
			}
		}
		if r.unknownCount == 0 {
			d.pool.Release(r.payload)
			d.recoveries = append(d.recoveries[:i], d.recoveries[i+1:]...)
			d.commonState.stats.inc(&d.commonState.stats.RecoveriesDiscarded)
			continue
		}
		i++
	}

	*s = decSlot{}
}

// AcceptOriginal accepts an application-provided original, per spec §4.4.
func (d *DecoderWindow) AcceptOriginal(sequence uint64, payload []byte) error {
	if d.disabled {
		return Disabled
	}
	if len(payload) < 1 || len(payload) > MaxPacketBytes {
		return InvalidInput
	}
	if d.outOfWindow(sequence) {
		d.commonState.stats.inc(&d.commonState.stats.OutOfWindowDropped)
		return nil
	}

	if !d.hasSeen {
		d.hasSeen = true
		d.maxSeen = sequence
	} else if sequence > d.maxSeen {
		d.advanceTo(sequence)
	}

	s := d.slotFor(sequence)
	if s.state == slotGotOriginal || s.state == slotRecovered {
		d.commonState.stats.inc(&d.commonState.stats.DuplicatesDropped)
		return nil
	}
	wasMissing := s.state == slotMissing

	buf, err := d.pool.Allocate(len(payload))
	if err != nil {
		d.commonState.stats.inc(&d.commonState.stats.AllocationFailures)
		return OutOfMemory
	}
	copy(buf, payload)

	if wasMissing {
		delete(d.missing, sequence)
	}
	s.state = slotGotOriginal
	s.payload = buf
	s.lengthHint = uint16(len(payload))
	d.commonState.stats.inc(&d.commonState.stats.OriginalsAccepted)

	d.reduceKnown(sequence, buf)

	if wasMissing {
		return d.trySolve()
	}
	return nil
}

// AcceptRecovery accepts a recovery packet, reducing it against already-
// known originals before buffering it, per spec §4.4.
func (d *DecoderWindow) AcceptRecovery(rec Recovery) error {
	if d.disabled {
		return Disabled
	}
	if rec.Count < 1 || int(rec.Count) > MaxWindowPackets {
		return InvalidInput
	}
	if rec.Row >= MaxRecoveryRows {
		return InvalidInput
	}
	seqEnd := rec.SequenceStart + uint64(rec.Count) - 1

	if !d.hasSeen {
		d.hasSeen = true
		d.maxSeen = seqEnd
	} else if seqEnd > d.maxSeen {
		d.advanceTo(seqEnd)
	} else if d.outOfWindow(seqEnd) {
		d.commonState.stats.inc(&d.commonState.stats.OutOfWindowDropped)
		return nil
	}

	// A recovery whose oldest covered column has already fallen out of
	// the receive window carries a term for an original the decoder can
	// never observe again; that term can never be subtracted out, so the
	// whole equation is permanently unusable and must be dropped rather
	// than buffered with a silently unaccounted column.
	if d.outOfWindow(rec.SequenceStart) {
		d.commonState.stats.inc(&d.commonState.stats.OutOfWindowDropped)
		return nil
	}

	buf, err := d.pool.Allocate(len(rec.Payload))
	if err != nil {
		d.commonState.stats.inc(&d.commonState.stats.AllocationFailures)
		return OutOfMemory
	}
	copy(buf, rec.Payload)

	var unknown bitmap192
	unknownCount := 0
	for k := 0; k < int(rec.Count); k++ {
		seq := rec.SequenceStart + uint64(k)
		if d.outOfWindow(seq) {
			d.pool.Release(buf)
			return d.latch("ccat: recovery %d..%d has an out-of-window column %d despite seqStart check", rec.SequenceStart, seqEnd, seq)
		}
		s := d.slotFor(seq)
		if s.state == slotGotOriginal || s.state == slotRecovered {
			coef := cauchyCoeff(rec.Row, byte(k))
			muladdMem(buf, s.payload, coef, len(s.payload))
			continue
		}
		if s.state != slotMissing {
			s.state = slotMissing
			d.missing[seq] = struct{}{}
		}
		// Track the smallest bytes bound seen for this column: the true
		// payload length can only be inferred when it is directly
		// observed (an original arrives) or bounded tighter than before;
		// absent that, the shortest covering recovery is the best
		// available upper bound on the eventual recovered length.
		if s.lengthHint == 0 || rec.Bytes < s.lengthHint {
			s.lengthHint = rec.Bytes
		}
		unknown.set(k)
		unknownCount++
	}

	if unknownCount == 0 {
		d.pool.Release(buf)
		d.commonState.stats.inc(&d.commonState.stats.RecoveriesDiscarded)
		return nil
	}

	d.recoveries = append(d.recoveries, &bufferedRecovery{
		seqStart:     rec.SequenceStart,
		count:        rec.Count,
		row:          rec.Row,
		bytesLen:     rec.Bytes,
		payload:      buf,
		unknown:      unknown,
		unknownCount: unknownCount,
	})
	d.commonState.stats.inc(&d.commonState.stats.RecoveriesAccepted)

	return d.trySolve()
}

// reduceKnown subtracts a now-known original's contribution from every
// buffered recovery that still lists it as unknown, discarding any
// recovery whose unknown set empties as a result.
func (d *DecoderWindow) reduceKnown(seq uint64, payload []byte) {
	for i := 0; i < len(d.recoveries); {
		r := d.recoveries[i]
		if seq >= r.seqStart && seq < r.seqStart+uint64(r.count) {
			k := int(seq - r.seqStart)
			if r.unknown.test(k) {
				coef := cauchyCoeff(r.row, byte(k))
				muladdMem(r.payload, payload, coef, len(payload))
				r.unknown.clear(k)
				r.unknownCount--
			}
		}
		if r.unknownCount == 0 {
			d.pool.Release(r.payload)
			d.recoveries = append(d.recoveries[:i], d.recoveries[i+1:]...)
			d.commonState.stats.inc(&d.commonState.stats.RecoveriesDiscarded)
			continue
		}
		i++
	}
}

// Close releases every buffer currently held by the window and its
// buffered recoveries. The DecoderWindow must not be used afterward.
func (d *DecoderWindow) Close() {
	for i := range d.slots {
		s := &d.slots[i]
		if s.valid && s.payload != nil {
			d.pool.Release(s.payload)
		}
		*s = decSlot{}
	}
	for _, r := range d.recoveries {
		d.pool.Release(r.payload)
	}
	d.recoveries = nil
	for seq := range d.missing {
		delete(d.missing, seq)
	}
}
