// Package ccat implements the Cauchy Caterpillar streaming forward-error-
// correction codec: a sliding-window convolutional FEC for low-latency
// datagram streams. A sender interleaves recovery packets -- Cauchy-matrix
// linear combinations of a bounded window of recent originals -- among its
// originals; a receiver reconstructs missing originals algebraically as
// soon as enough of the active window has arrived.
//
// The package performs no I/O. Hosts drive it by calling SubmitOriginal /
// BuildRecovery on an EncoderWindow and AcceptOriginal / AcceptRecovery on
// a DecoderWindow, and own the transport, retransmission, and dedup
// discipline the codec deliberately leaves out of scope.
package ccat

import "time"

// Config configures an EncoderWindow or DecoderWindow at creation time.
type Config struct {
	// WindowMsec bounds the age of an original still eligible for
	// coverage by a recovery packet, in [10, 2e9].
	WindowMsec uint32
	// WindowPackets bounds the number of originals in a single window, in
	// [1, MaxWindowPackets]. The effective bound is the stricter of
	// WindowMsec and WindowPackets at runtime.
	WindowPackets uint32
	// OnRecovered is invoked by a DecoderWindow exactly once per sequence
	// recovered over the codec's lifetime. It must not call back into the
	// decoder.
	OnRecovered func(payload []byte, sequence uint64, context interface{})
	// Context is opaque data threaded through to OnRecovered.
	Context interface{}
	// Logger receives diagnostic lines. Defaults to a no-op.
	Logger Logger
}

func (c Config) windowPackets() int {
	w := int(c.WindowPackets)
	if w <= 0 || w > MaxWindowPackets {
		w = MaxWindowPackets
	}
	return w
}

func (c Config) windowDuration() time.Duration {
	return time.Duration(c.WindowMsec) * time.Millisecond
}

func (c Config) validate() error {
	if c.WindowMsec < 10 || c.WindowMsec > 2000000000 {
		return InvalidInput
	}
	if c.WindowPackets < 1 || c.WindowPackets > MaxWindowPackets {
		return InvalidInput
	}
	return nil
}

// commonState is the fatal-latch and diagnostics plumbing shared by
// EncoderWindow and DecoderWindow, grounded in the teacher's pairing of a
// package-level Logf hook with per-connection Snmp counters.
type commonState struct {
	logger   Logger
	stats    Stats
	disabled bool
}

// latch transitions the owner into the Disabled state and logs why. Every
// subsequent call against the owner must check disabled first and return
// Disabled without touching state. The returned error carries a stack
// trace via fatalf so the invariant violation that caused the latch is
// diagnosable after the fact, even though later calls only ever see the
// bare Disabled result.
func (c *commonState) latch(reason string, args ...interface{}) error {
	c.disabled = true
	c.logf(FATAL, reason, args...)
	return fatalf(reason, args...)
}
