package storage

import (
	"bytes"
	"testing"
)

func TestHeap_GrowthPreservesContents(t *testing.T) {
	var s Heap

	// Write well past the initial capacity in uneven chunks and verify
	// the round trip survives every reallocation.
	var want []byte
	for i := 0; i < 50; i++ {
		chunk := bytes.Repeat([]byte{byte(i)}, i+7)
		want = append(want, chunk...)
		if _, err := s.Write(chunk); err != nil {
			t.Fatalf("Write chunk %d: %v", i, err)
		}
	}

	if !bytes.Equal(s.Bytes(), want) {
		t.Fatal("contents corrupted across growth")
	}
}

func TestHeap_GrowReserves(t *testing.T) {
	var s Heap

	if _, err := s.Write([]byte("prefix")); err != nil {
		t.Fatal(err)
	}
	if err := s.Grow(4096); err != nil {
		t.Fatalf("Grow: %v", err)
	}
	if s.Cap() < s.Len()+4096 {
		t.Fatalf("Cap = %d, want at least %d", s.Cap(), s.Len()+4096)
	}
	if string(s.Bytes()) != "prefix" {
		t.Fatal("Grow modified contents")
	}
}

func TestHeap_Reset(t *testing.T) {
	var s Heap

	if _, err := s.Write([]byte("abc")); err != nil {
		t.Fatal(err)
	}
	before := s.Cap()
	s.Reset()
	if s.Len() != 0 {
		t.Fatal("Reset did not clear length")
	}
	if s.Cap() != before {
		t.Fatal("Reset released backing storage")
	}
}
