package ccat

import "github.com/templexxx/xorsimd"

// primitivePoly is the primitive polynomial for GF(2^8) used to build the
// log/exp tables, x^8 + x^4 + x^3 + x^2 + 1 (0x11D). It is the same
// polynomial used by QR codes and most Reed-Solomon and Cauchy-code
// implementations in the retrieved pack; any standard primitive
// polynomial would do, but it must never change across releases since it
// is not carried on the wire.
const primitivePoly = 0x11D

var (
	gfExp [510]byte // exp[i] = alpha^i, doubled up so exp[log(a)+log(b)] needs no modulo
	gfLog [256]byte
)

func init() {
	x := 1
	for i := 0; i < 255; i++ {
		gfExp[i] = byte(x)
		gfLog[x] = byte(i)
		x <<= 1
		if x&0x100 != 0 {
			x ^= primitivePoly
		}
	}
	for i := 255; i < 510; i++ {
		gfExp[i] = gfExp[i-255]
	}
}

// gfMul multiplies two GF(256) elements.
func gfMul(a, b byte) byte {
	if a == 0 || b == 0 {
		return 0
	}
	return gfExp[int(gfLog[a])+int(gfLog[b])]
}

// gfDiv divides a by b in GF(256). b must be non-zero.
func gfDiv(a, b byte) byte {
	if a == 0 {
		return 0
	}
	// b == 0 is a caller invariant violation; the Cauchy matrix formula
	// guarantees it never happens for row/col pairs in range.
	logDiff := int(gfLog[a]) - int(gfLog[b])
	if logDiff < 0 {
		logDiff += 255
	}
	return gfExp[logDiff]
}

// xorMem computes dst[i] ^= src[i] for i < n, vectorized via xorsimd.
func xorMem(dst, src []byte, n int) {
	if n == 0 {
		return
	}
	xorsimd.Bytes(dst[:n], dst[:n], src[:n])
}

// muladdMem computes dst[i] ^= coef*src[i] for i < n. It is a no-op when
// coef == 0 and reduces to the vectorized xorMem fast path when coef == 1
// -- the row-0 Cauchy coefficient, which is why the first recovery row is
// a plain XOR of its window.
func muladdMem(dst, src []byte, coef byte, n int) {
	if coef == 0 || n == 0 {
		return
	}
	if coef == 1 {
		xorMem(dst, src, n)
		return
	}
	logCoef := int(gfLog[coef])
	for i := 0; i < n; i++ {
		s := src[i]
		if s == 0 {
			continue
		}
		dst[i] ^= gfExp[logCoef+int(gfLog[s])]
	}
}

// mulMem computes dst[i] = coef*src[i] for i < n.
func mulMem(dst, src []byte, coef byte, n int) {
	if coef == 0 {
		for i := 0; i < n; i++ {
			dst[i] = 0
		}
		return
	}
	if coef == 1 {
		copy(dst[:n], src[:n])
		return
	}
	logCoef := int(gfLog[coef])
	for i := 0; i < n; i++ {
		s := src[i]
		if s == 0 {
			dst[i] = 0
			continue
		}
		dst[i] = gfExp[logCoef+int(gfLog[s])]
	}
}

// divMem computes dst[i] = dst[i]/coef in place for i < n. coef must be
// non-zero.
func divMem(dst []byte, coef byte, n int) {
	if coef == 1 {
		return
	}
	logInv := 255 - int(gfLog[coef])
	for i := 0; i < n; i++ {
		d := dst[i]
		if d == 0 {
			continue
		}
		dst[i] = gfExp[logInv+int(gfLog[d])]
	}
}
