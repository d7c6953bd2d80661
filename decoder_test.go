package ccat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecoderDeliversKnownOriginalUnchanged(t *testing.T) {
	var recovered [][]byte
	cfg := Config{WindowMsec: 1000, WindowPackets: 16, OnRecovered: func(p []byte, seq uint64, _ interface{}) {
		recovered = append(recovered, append([]byte{}, p...))
	}}
	dec, err := NewDecoder(cfg, nil)
	require.NoError(t, err)
	defer dec.Close()

	require.NoError(t, dec.AcceptOriginal(1, []byte("hello")))
	require.Empty(t, recovered)
	require.EqualValues(t, 1, dec.Stats().OriginalsAccepted)
}

func TestDecoderDuplicateOriginalDropped(t *testing.T) {
	dec, err := NewDecoder(testConfig(), nil)
	require.NoError(t, err)
	defer dec.Close()

	require.NoError(t, dec.AcceptOriginal(7, []byte("abc")))
	require.NoError(t, dec.AcceptOriginal(7, []byte("abc")))
	require.EqualValues(t, 1, dec.Stats().DuplicatesDropped)
}

func TestDecoderOutOfWindowDrop(t *testing.T) {
	dec, err := NewDecoder(testConfig(), nil)
	require.NoError(t, err)
	defer dec.Close()

	require.NoError(t, dec.AcceptOriginal(uint64(decoderWindowSize)+100, []byte("x")))
	require.NoError(t, dec.AcceptOriginal(0, []byte("too old")))
	require.EqualValues(t, 1, dec.Stats().OutOfWindowDropped)
}

func TestDecoderXORRecoversSingleLoss(t *testing.T) {
	enc, err := NewEncoder(testConfig(), nil, nil)
	require.NoError(t, err)
	defer enc.Close()

	payloads := [][]byte{{0x01}, {0x02, 0x02}, {0x03, 0x03, 0x03}}
	for i, p := range payloads {
		require.NoError(t, enc.SubmitOriginal(uint64(i+1), p))
	}
	rec, err := enc.BuildRecovery()
	require.NoError(t, err)
	require.Equal(t, byte(0), rec.Row)

	var recoveredSeq uint64
	var recoveredPayload []byte
	cfg := Config{WindowMsec: 1000, WindowPackets: 16, OnRecovered: func(p []byte, seq uint64, _ interface{}) {
		recoveredSeq = seq
		recoveredPayload = append([]byte{}, p...)
	}}
	dec, err := NewDecoder(cfg, nil)
	require.NoError(t, err)
	defer dec.Close()

	// Lose only seq 1.
	require.NoError(t, dec.AcceptOriginal(2, payloads[1]))
	require.NoError(t, dec.AcceptOriginal(3, payloads[2]))
	require.NoError(t, dec.AcceptRecovery(rec))

	require.Equal(t, uint64(1), recoveredSeq)
	// Seq 1's true length (1) is never directly observed anywhere: it
	// arrives only inside a recovery built at the window's max length
	// (3, from seq 3). With no tighter bound ever seen, the best
	// available length is that recovery's own bytes field, so the
	// delivered payload is seq 1's contribution zero-padded to 3 bytes.
	require.Equal(t, []byte{0x01, 0x00, 0x00}, recoveredPayload)
}

func TestDecoderRecoveredOriginalThenDuplicateIgnored(t *testing.T) {
	enc, err := NewEncoder(testConfig(), nil, nil)
	require.NoError(t, err)
	defer enc.Close()

	for seq := uint64(20); seq <= 29; seq++ {
		require.NoError(t, enc.SubmitOriginal(seq, []byte{byte(seq)}))
	}
	rec, err := enc.BuildRecovery()
	require.NoError(t, err)

	var recoveredCount int
	cfg := Config{WindowMsec: 1000, WindowPackets: 16, OnRecovered: func(p []byte, seq uint64, _ interface{}) {
		recoveredCount++
	}}
	dec, err := NewDecoder(cfg, nil)
	require.NoError(t, err)
	defer dec.Close()

	for seq := uint64(20); seq <= 28; seq++ {
		require.NoError(t, dec.AcceptOriginal(seq, []byte{byte(seq)}))
	}
	require.NoError(t, dec.AcceptRecovery(rec))
	require.Equal(t, 1, recoveredCount)

	// The real original for the already-recovered sequence arrives late.
	require.NoError(t, dec.AcceptOriginal(29, []byte{29}))
	require.Equal(t, 1, recoveredCount)
	require.EqualValues(t, 1, dec.Stats().DuplicatesDropped)
}
