package ccat

import "encoding/binary"

// Wire field layout, per spec §6. All multi-byte integers are
// little-endian. The codec does no field compression; a host composes
// the actual on-wire framing on top of these fixed-width headers, the
// same split of responsibility as the teacher's encode8u/encode16u/
// encode32u helpers in util.go, which this codec's header (de)serializers
// mirror rather than reaching for encoding/gob or a schema compiler.
const (
	originalHeaderSize = 8 + 2 // sequence u64 + bytes u16
	recoveryHeaderSize = 8 + 1 + 1 + 2
)

// EncodeOriginal writes an Original's wire header and payload into a
// freshly sized buffer.
func EncodeOriginal(o Original) []byte {
	buf := make([]byte, originalHeaderSize+len(o.Payload))
	binary.LittleEndian.PutUint64(buf[0:8], o.Sequence)
	binary.LittleEndian.PutUint16(buf[8:10], uint16(len(o.Payload)))
	copy(buf[originalHeaderSize:], o.Payload)
	return buf
}

// DecodeOriginal parses a buffer produced by EncodeOriginal. The returned
// Payload aliases buf; callers that need to retain it beyond buf's
// lifetime must copy it themselves.
func DecodeOriginal(buf []byte) (Original, error) {
	if len(buf) < originalHeaderSize {
		return Original{}, InvalidInput
	}
	seq := binary.LittleEndian.Uint64(buf[0:8])
	n := binary.LittleEndian.Uint16(buf[8:10])
	if len(buf) < originalHeaderSize+int(n) {
		return Original{}, InvalidInput
	}
	return Original{Sequence: seq, Payload: buf[originalHeaderSize : originalHeaderSize+int(n)]}, nil
}

// EncodeRecovery writes a Recovery's wire header and payload into a
// freshly sized buffer.
func EncodeRecovery(r Recovery) []byte {
	buf := make([]byte, recoveryHeaderSize+len(r.Payload))
	binary.LittleEndian.PutUint64(buf[0:8], r.SequenceStart)
	buf[8] = r.Count
	buf[9] = r.Row
	binary.LittleEndian.PutUint16(buf[10:12], uint16(len(r.Payload)))
	copy(buf[recoveryHeaderSize:], r.Payload)
	return buf
}

// DecodeRecovery parses a buffer produced by EncodeRecovery. The returned
// Payload aliases buf.
func DecodeRecovery(buf []byte) (Recovery, error) {
	if len(buf) < recoveryHeaderSize {
		return Recovery{}, InvalidInput
	}
	seqStart := binary.LittleEndian.Uint64(buf[0:8])
	count := buf[8]
	row := buf[9]
	n := binary.LittleEndian.Uint16(buf[10:12])
	if len(buf) < recoveryHeaderSize+int(n) {
		return Recovery{}, InvalidInput
	}
	if count == 0 || count > MaxWindowPackets || row >= MaxRecoveryRows {
		return Recovery{}, InvalidInput
	}
	return Recovery{
		SequenceStart: seqStart,
		Count:         count,
		Row:           row,
		Bytes:         n,
		Payload:       buf[recoveryHeaderSize : recoveryHeaderSize+int(n)],
	}, nil
}
