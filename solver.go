package ccat

import "sort"

// Solver bounds, per spec §4.5: a recovery attempt operates on at most
// these many unknowns/recoveries, deferring (not failing) when either is
// exceeded.
const (
	kMaxRecoveryColumns = 128
	kMaxRecoveryRows    = 160
)

// trySolve runs one bounded Gaussian-elimination pass over the currently
// buffered recoveries and missing sequences, delivering every unknown
// that pivots to a unique solution. It is triggered whenever a recovery
// is enqueued or an original fills a Missing slot, per spec §4.5.
func (d *DecoderWindow) trySolve() error {
	if len(d.recoveries) == 0 || len(d.missing) == 0 {
		return nil
	}
	if len(d.missing) > kMaxRecoveryColumns || len(d.recoveries) > kMaxRecoveryRows {
		// Deferred, not an error: wait for more arrivals or evictions to
		// shrink the system back within bounds.
		return nil
	}

	// A buffered recovery's unknownCount is maintained incrementally by
	// every eviction and reduction path; if it ever drifts from the
	// bitmap it actually carries, the coefficient matrix built below
	// would silently be wrong in a way no solver check downstream can
	// catch. Treat that drift as the invariant violation it is.
	for _, r := range d.recoveries {
		if r.unknown.count() != r.unknownCount {
			return d.latch("ccat: recovery %d..%d unknown bitmap (%d bits) disagrees with tracked count (%d)",
				r.seqStart, r.seqStart+uint64(r.count)-1, r.unknown.count(), r.unknownCount)
		}
	}

	unknownSeqs := make([]uint64, 0, len(d.missing))
	for seq := range d.missing {
		unknownSeqs = append(unknownSeqs, seq)
	}
	sort.Slice(unknownSeqs, func(i, j int) bool { return unknownSeqs[i] < unknownSeqs[j] })
	colIndex := make(map[uint64]int, len(unknownSeqs))
	for i, seq := range unknownSeqs {
		colIndex[seq] = i
	}
	n := len(unknownSeqs)
	m := len(d.recoveries)

	maxBytes := 0
	for _, r := range d.recoveries {
		if int(r.bytesLen) > maxBytes {
			maxBytes = int(r.bytesLen)
		}
	}
	if maxBytes == 0 {
		return nil
	}

	coefMatrix := make([][]byte, m)
	for i, r := range d.recoveries {
		row := make([]byte, n)
		r.unknown.each(func(k int) {
			seq := r.seqStart + uint64(k)
			if ci, ok := colIndex[seq]; ok {
				row[ci] = cauchyCoeff(r.row, byte(k))
			}
		})
		coefMatrix[i] = row
	}

	rows := make([][]byte, m)
	for i, r := range d.recoveries {
		buf, err := d.pool.Allocate(maxBytes)
		if err != nil {
			for j := 0; j < i; j++ {
				d.pool.Release(rows[j])
			}
			d.commonState.stats.inc(&d.commonState.stats.AllocationFailures)
			return OutOfMemory
		}
		copy(buf, r.payload)
		rows[i] = buf
	}

	pivotRow := make([]int, n)
	for i := range pivotRow {
		pivotRow[i] = -1
	}
	usedRow := make([]bool, m)

	for col := 0; col < n; col++ {
		pr := -1
		for r := 0; r < m; r++ {
			if !usedRow[r] && coefMatrix[r][col] != 0 {
				pr = r
				break
			}
		}
		if pr == -1 {
			continue
		}
		usedRow[pr] = true
		pivotRow[col] = pr

		// The pivot being exactly 1 (row 0 of some recovery's coverage,
		// the all-ones Cauchy row) makes this normalization a no-op, and
		// each elimination below is a plain XOR wherever the other row's
		// factor is also 1 -- the fast path spec §4.5 calls out as the
		// primary design rationale for row 0.
		if pivot := coefMatrix[pr][col]; pivot != 1 {
			divMem(coefMatrix[pr], pivot, n)
			divMem(rows[pr], pivot, maxBytes)
		}

		for r := 0; r < m; r++ {
			if r == pr {
				continue
			}
			factor := coefMatrix[r][col]
			if factor == 0 {
				continue
			}
			muladdMem(coefMatrix[r], coefMatrix[pr], factor, n)
			muladdMem(rows[r], rows[pr], factor, maxBytes)
		}
	}

	// A column only carries a genuine solution if its pivot row reduced
	// to the unit vector; a row left with a nonzero entry in some other,
	// never-pivoted column is still an equation in more than one
	// unknown, not a solved value (spec §8 invariant 4 / scenario S6).
	for col := 0; col < n; col++ {
		pr := pivotRow[col]
		if pr == -1 {
			continue
		}
		for c2 := 0; c2 < n; c2++ {
			if c2 == col {
				continue
			}
			if coefMatrix[pr][c2] != 0 {
				pivotRow[col] = -1
				break
			}
		}
	}

	type solved struct {
		seq     uint64
		payload []byte
	}
	var results []solved
	for col := 0; col < n; col++ {
		pr := pivotRow[col]
		if pr == -1 {
			continue
		}
		seq := unknownSeqs[col]
		hint := int(d.slots[slotIndex(seq)].lengthHint)
		trimLen := hint
		if trimLen == 0 || trimLen > maxBytes {
			trimLen = maxBytes
		}
		buf, err := d.pool.Allocate(trimLen)
		if err != nil {
			for _, rslt := range results {
				d.pool.Release(rslt.payload)
			}
			for _, b := range rows {
				d.pool.Release(b)
			}
			d.commonState.stats.inc(&d.commonState.stats.AllocationFailures)
			return OutOfMemory
		}
		copy(buf, rows[pr][:trimLen])
		results = append(results, solved{seq: seq, payload: buf})
	}

	for _, b := range rows {
		d.pool.Release(b)
	}

	d.commonState.stats.inc(&d.commonState.stats.SolverPasses)
	if len(results) == 0 {
		d.commonState.stats.inc(&d.commonState.stats.RankDeficientAttempts)
		return nil
	}

	for _, r := range results {
		s := d.slotFor(r.seq)
		s.state = slotRecovered
		s.payload = r.payload
		delete(d.missing, r.seq)
		d.commonState.stats.inc(&d.commonState.stats.OriginalsRecovered)

		d.reduceKnown(r.seq, r.payload)

		if d.onRecovered != nil {
			d.onRecovered(r.payload, r.seq, d.context)
		}
	}
	return nil
}
