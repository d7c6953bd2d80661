package ccat

// MaxWindowPackets is the largest number of originals a single window may
// span, per spec §1's non-goal on windows exceeding 192 originals.
const MaxWindowPackets = 192

// MaxRecoveryRows is the number of distinct Cauchy rows (recovery row
// indices) the codec cycles through, per spec §4.3's mod-64 row counter.
const MaxRecoveryRows = 64

// cauchyCoeff returns M(row, col), the Cauchy matrix coefficient for
// recovery row in [0, MaxRecoveryRows) and original column in
// [0, MaxWindowPackets). x_0 is fixed at 0, x_i = row, y_j = col + 64:
//
//	M(row, col) = (y_j + x_0) / (x_i + y_j) = y_j / (row XOR y_j)
//
// Row 0 falls out of this formula to the all-ones row without any special
// case: 0 XOR y == y, so M(0, col) = y/y = 1. This is the decisive
// performance property the spec calls out -- the first recovery packet of
// any window is a plain XOR -- and it must not be special-cased in code,
// only relied upon, so that a future change to the formula can't silently
// diverge row 0's wire behavior from the general case.
func cauchyCoeff(row, col byte) byte {
	y := col + 64
	return gfDiv(y, row^y)
}
