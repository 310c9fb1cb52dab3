//go:build !astd_noalloc

package staging

import (
	"bytes"
	"testing"
)

func TestBuffer_RoundTripAcrossGrowth(t *testing.T) {
	b := NewBuffer()

	payload := bytes.Repeat([]byte("abcd"), 300)
	if _, err := b.Write(payload[:100]); err != nil {
		t.Fatal(err)
	}
	if err := b.Grow(len(payload)); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Write(payload[100:]); err != nil {
		t.Fatal(err)
	}

	if !bytes.Equal(b.Bytes(), payload) {
		t.Fatal("contents not preserved across growth")
	}
	if b.Len() != len(payload) {
		t.Fatalf("Len = %d, want %d", b.Len(), len(payload))
	}
}

func TestBuffer_Reset(t *testing.T) {
	b := NewBuffer()
	if _, err := b.Write([]byte("staged")); err != nil {
		t.Fatal(err)
	}
	b.Reset()
	if b.Len() != 0 {
		t.Fatal("Reset did not clear contents")
	}
}

func TestBufferPool_Reuse(t *testing.T) {
	b := Get()
	if _, err := b.Write([]byte("first use")); err != nil {
		t.Fatal(err)
	}
	Put(b)

	b2 := Get()
	if b2.Len() != 0 {
		t.Fatal("pooled buffer returned with stale contents")
	}
	Put(b2)
}

func TestBuffer_HeapModeNeverHitsCapacity(t *testing.T) {
	b := NewBuffer()
	if _, err := b.Write(make([]byte, 1<<16)); err != nil {
		t.Fatalf("heap-backed write failed: %v", err)
	}
}
