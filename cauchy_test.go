package ccat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCauchyRowZeroIsAllOnes(t *testing.T) {
	for col := byte(0); col < MaxWindowPackets; col++ {
		require.Equal(t, byte(1), cauchyCoeff(0, col), "col %d", col)
	}
}

func TestCauchyCoeffNeverZero(t *testing.T) {
	for row := byte(0); row < MaxRecoveryRows; row++ {
		for col := byte(0); col < MaxWindowPackets; col++ {
			require.NotZero(t, cauchyCoeff(row, col), "row %d col %d", row, col)
		}
	}
}

func TestCauchyDistinctRowsDistinctColumns(t *testing.T) {
	// Any two distinct rows must disagree on at least one column, or the
	// solver could not tell their equations apart.
	for r1 := byte(0); r1 < 8; r1++ {
		for r2 := r1 + 1; r2 < 8; r2++ {
			differ := false
			for col := byte(0); col < MaxWindowPackets; col++ {
				if cauchyCoeff(r1, col) != cauchyCoeff(r2, col) {
					differ = true
					break
				}
			}
			require.True(t, differ, "rows %d and %d produced identical coefficients", r1, r2)
		}
	}
}
