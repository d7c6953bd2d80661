package ccat

import "testing"

func TestDefaultAllocatorGetSize(t *testing.T) {
	p := NewDefaultAllocator()

	buf, err := p.Allocate(1024)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(buf) != 1024 {
		t.Fatalf("expected len=1024, got %d", len(buf))
	}
}

func TestDefaultAllocatorReuse(t *testing.T) {
	p := NewDefaultAllocator()

	buf, _ := p.Allocate(MaxPacketBytes)
	buf[0] = 99
	p.Release(buf)

	buf2, _ := p.Allocate(MaxPacketBytes)
	if &buf2[0] != &buf[0] {
		t.Fatalf("expected buffer reuse, but got a new one")
	}
	if buf2[0] != 99 {
		t.Fatalf("expected reused buffer to keep previous data")
	}
}

func TestDefaultAllocatorReleaseWrongSizeIgnored(t *testing.T) {
	p := NewDefaultAllocator()

	wrongBuf := make([]byte, 100)
	p.Release(wrongBuf)

	buf, _ := p.Allocate(MaxPacketBytes)
	if cap(buf) != MaxPacketBytes {
		t.Fatalf("pool accepted wrong-sized buffer; expected cap=%d, got %d", MaxPacketBytes, cap(buf))
	}
}

func TestDefaultAllocatorRejectsOversize(t *testing.T) {
	p := NewDefaultAllocator()
	if _, err := p.Allocate(MaxPacketBytes + 1); err != InvalidInput {
		t.Fatalf("expected InvalidInput, got %v", err)
	}
}
