package ccat

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOriginalRoundTrip(t *testing.T) {
	o := Original{Sequence: 0xDEADBEEF, Payload: []byte("hello world")}
	buf := EncodeOriginal(o)

	got, err := DecodeOriginal(buf)
	require.NoError(t, err)
	require.Equal(t, o.Sequence, got.Sequence)
	require.Equal(t, o.Payload, got.Payload)
}

func TestRecoveryRoundTrip(t *testing.T) {
	r := Recovery{SequenceStart: 42, Count: 10, Row: 3, Bytes: 4, Payload: []byte{1, 2, 3, 4}}
	buf := EncodeRecovery(r)

	got, err := DecodeRecovery(buf)
	require.NoError(t, err)
	require.Equal(t, r, got)
}

func TestDecodeOriginalTruncatedHeader(t *testing.T) {
	_, err := DecodeOriginal([]byte{1, 2, 3})
	require.Equal(t, InvalidInput, err)
}

func TestDecodeOriginalTruncatedPayload(t *testing.T) {
	buf := EncodeOriginal(Original{Sequence: 1, Payload: []byte("abcdef")})
	_, err := DecodeOriginal(buf[:len(buf)-2])
	require.Equal(t, InvalidInput, err)
}

func TestDecodeRecoveryRejectsBadCount(t *testing.T) {
	r := Recovery{SequenceStart: 1, Count: 0, Row: 0, Bytes: 0, Payload: nil}
	buf := EncodeRecovery(r)
	_, err := DecodeRecovery(buf)
	require.Equal(t, InvalidInput, err)
}

func TestDecodeRecoveryRejectsBadRow(t *testing.T) {
	r := Recovery{SequenceStart: 1, Count: 5, Row: MaxRecoveryRows, Bytes: 0, Payload: nil}
	buf := EncodeRecovery(r)
	_, err := DecodeRecovery(buf)
	require.Equal(t, InvalidInput, err)
}
