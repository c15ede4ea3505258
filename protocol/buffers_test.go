package protocol

import (
	"math/rand"
	"sync"
	"testing"
)

func TestRingBuffer(t *testing.T) {
	ring := NewRingBuffer(10)

	if !ring.IsEmpty() {
		t.Error("New ring should be empty")
	}

	if ring.Len() != 0 {
		t.Errorf("Empty ring should have 0 available, got %d", ring.Len())
	}

	// Write some data
	for _, b := range []byte{1, 2, 3, 4, 5} {
		if !ring.Push(b) {
			t.Fatalf("Push(%d) failed on non-full ring", b)
		}
	}

	if ring.Len() != 5 {
		t.Errorf("Expected 5 bytes available, got %d", ring.Len())
	}
	if ring.Free() != 4 {
		t.Errorf("Expected 4 bytes free, got %d", ring.Free())
	}

	// Read some data
	for _, want := range []byte{1, 2, 3} {
		got, ok := ring.Pop()
		if !ok || got != want {
			t.Errorf("Pop() = %d, %v; want %d, true", got, ok, want)
		}
	}

	if ring.Len() != 2 {
		t.Errorf("After reading 3, expected 2 available, got %d", ring.Len())
	}

	// Fill up: size 10 stores at most 9 (one slot reserved)
	fresh := NewRingBuffer(10)
	written := 0
	for i := 0; i < 12; i++ {
		if fresh.Push(byte(i)) {
			written++
		}
	}
	if written != 9 {
		t.Errorf("Expected to write 9 bytes to size-10 ring, wrote %d", written)
	}
	if !fresh.IsFull() {
		t.Error("Ring should be full after 9 pushes")
	}
	if fresh.Cap() != 9 {
		t.Errorf("Expected capacity 9, got %d", fresh.Cap())
	}
}

func TestRingBufferWrapAround(t *testing.T) {
	ring := NewRingBuffer(5)

	// Fill buffer
	for _, b := range []byte{1, 2, 3, 4} {
		ring.Push(b)
	}

	// Read some
	ring.Pop()
	ring.Pop()

	// Write more (will wrap around)
	if !ring.Push(5) || !ring.Push(6) {
		t.Error("Expected to write 2 bytes after wrap")
	}

	// Verify order
	var got []byte
	for {
		b, ok := ring.Pop()
		if !ok {
			break
		}
		got = append(got, b)
	}
	if len(got) != 4 || got[0] != 3 || got[1] != 4 || got[2] != 5 || got[3] != 6 {
		t.Errorf("Wrap-around data mismatch: got %v", got)
	}
}

func TestRingBufferFullRejection(t *testing.T) {
	ring := NewRingBuffer(4)
	for _, b := range []byte{7, 8, 9} {
		ring.Push(b)
	}

	// Rejection must not disturb contents, no matter how often it happens
	for i := 0; i < 5; i++ {
		if ring.Push(0xAA) {
			t.Fatal("Push succeeded on full ring")
		}
	}
	if ring.Len() != 3 {
		t.Errorf("Expected 3 bytes after rejected pushes, got %d", ring.Len())
	}
	for _, want := range []byte{7, 8, 9} {
		if got, ok := ring.Pop(); !ok || got != want {
			t.Errorf("Pop() = %d, %v; want %d", got, ok, want)
		}
	}
}

func TestRingBufferEmptyPop(t *testing.T) {
	ring := NewRingBuffer(2)
	for i := 0; i < 3; i++ {
		if b, ok := ring.Pop(); ok || b != 0 {
			t.Errorf("Pop() on empty ring = %d, %v", b, ok)
		}
	}
	if !ring.IsEmpty() || ring.Len() != 0 {
		t.Error("Empty pops changed the ring")
	}

	// Still usable afterwards
	if !ring.Push(42) {
		t.Fatal("Push after empty pops failed")
	}
	if b, ok := ring.Pop(); !ok || b != 42 {
		t.Errorf("Pop() = %d, %v; want 42", b, ok)
	}
}

func TestRingBufferFIFOInterleaved(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for capacity := 2; capacity <= 17; capacity++ {
		ring := NewRingBuffer(capacity)
		var pushed, popped []byte
		next := byte(0)

		for op := 0; op < 2000; op++ {
			// Only legal moves: never pop empty, never push full
			if !ring.IsFull() && (ring.IsEmpty() || rng.Intn(2) == 0) {
				if !ring.Push(next) {
					t.Fatalf("cap %d: Push failed on non-full ring", capacity)
				}
				pushed = append(pushed, next)
				next++
				continue
			}
			b, ok := ring.Pop()
			if !ok {
				t.Fatalf("cap %d: Pop failed on non-empty ring", capacity)
			}
			popped = append(popped, b)
		}
		for b, ok := ring.Pop(); ok; b, ok = ring.Pop() {
			popped = append(popped, b)
		}

		if len(pushed) != len(popped) {
			t.Fatalf("cap %d: pushed %d bytes, popped %d", capacity, len(pushed), len(popped))
		}
		for i := range pushed {
			if pushed[i] != popped[i] {
				t.Fatalf("cap %d: order mismatch at %d: %d != %d", capacity, i, popped[i], pushed[i])
			}
		}
	}
}

func TestRingBufferConcurrentSPSC(t *testing.T) {
	const total = 100000
	ring := NewRingBuffer(64)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < total; {
			if ring.Push(byte(i)) {
				i++
			}
		}
	}()

	for i := 0; i < total; {
		b, ok := ring.Pop()
		if !ok {
			continue
		}
		if b != byte(i) {
			t.Fatalf("byte %d: got %d", i, b)
		}
		i++
	}
	wg.Wait()

	if !ring.IsEmpty() {
		t.Error("Ring should be empty after draining")
	}
}

func TestNewRingBufferTooSmall(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for capacity 1")
		}
	}()
	NewRingBuffer(1)
}
