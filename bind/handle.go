package bind

import (
	"context"
	"sync"

	"github.com/Azzybana/astd/errors"
)

type handleEntry struct {
	ptr    uintptr
	typeID uint32
	gen    uint32
	valid  bool
}

// handleTable is a slab with a free list. Slots are generation-counted so
// a stale handle can never resolve to a recycled slot.
type handleTable struct {
	mu      sync.Mutex
	entries []handleEntry
	free    []uint32
}

func newHandleTable() *handleTable {
	return &handleTable{
		entries: make([]handleEntry, 0, 64),
		free:    make([]uint32, 0, 16),
	}
}

func (t *handleTable) insert(typeID uint32, ptr uintptr) (idx, gen uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if n := len(t.free); n > 0 {
		idx = t.free[n-1]
		t.free = t.free[:n-1]
		e := &t.entries[idx]
		e.ptr = ptr
		e.typeID = typeID
		e.valid = true
		return idx, e.gen
	}

	t.entries = append(t.entries, handleEntry{ptr: ptr, typeID: typeID, valid: true})
	return uint32(len(t.entries) - 1), 0
}

func (t *handleTable) get(idx, gen uint32) (uintptr, uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(idx) >= len(t.entries) {
		return 0, 0, false
	}
	e := t.entries[idx]
	if !e.valid || e.gen != gen {
		return 0, 0, false
	}
	return e.ptr, e.typeID, true
}

// remove invalidates the slot and bumps its generation.
func (t *handleTable) remove(idx, gen uint32) (uintptr, uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if int(idx) >= len(t.entries) {
		return 0, 0, false
	}
	e := &t.entries[idx]
	if !e.valid || e.gen != gen {
		return 0, 0, false
	}

	ptr, typeID := e.ptr, e.typeID
	e.valid = false
	e.ptr = 0
	e.gen++
	t.free = append(t.free, idx)
	return ptr, typeID, true
}

func (t *handleTable) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	count := 0
	for _, e := range t.entries {
		if e.valid {
			count++
		}
	}
	return count
}

// BoundHandle owns a native opaque pointer. Exactly one live handle owns
// a given pointer: Move invalidates the source, Consume transfers
// ownership into a native call, and Close triggers the type's release
// entry point exactly once. Any use after invalidation fails with
// invalid_handle.
//
// Operations on the same handle from multiple goroutines are not
// synchronized; callers serialize, matching the native library's own
// thread-safety contract.
type BoundHandle struct {
	lib  *Library
	idx  uint32
	gen  uint32
	kind HandleType
}

// TypeName returns the native type this handle wraps.
func (h *BoundHandle) TypeName() string { return h.kind.Name }

// Ptr borrows the native pointer for the duration of a call. The handle
// retains ownership.
func (h *BoundHandle) Ptr() (uintptr, error) {
	if h == nil || h.lib == nil {
		return 0, errors.InvalidHandle("nil handle")
	}
	ptr, _, ok := h.lib.handles.get(h.idx, h.gen)
	if !ok {
		return 0, errors.InvalidHandle("handle already consumed or released")
	}
	return ptr, nil
}

// Move transfers ownership to a fresh handle and invalidates h. Using h
// afterwards fails with invalid_handle; no release occurs through it.
func (h *BoundHandle) Move() (*BoundHandle, error) {
	if h == nil || h.lib == nil {
		return nil, errors.InvalidHandle("nil handle")
	}
	ptr, typeID, ok := h.lib.handles.remove(h.idx, h.gen)
	if !ok {
		return nil, errors.InvalidHandle("handle already consumed or released")
	}
	idx, gen := h.lib.handles.insert(typeID, ptr)
	moved := &BoundHandle{lib: h.lib, idx: idx, gen: gen, kind: h.kind}
	h.lib = nil
	return moved, nil
}

// Consume transfers ownership into a native call: the handle is
// invalidated and no release will run for it. The returned pointer is
// valid only for the immediate call that takes ownership.
func (h *BoundHandle) Consume() (uintptr, error) {
	if h == nil || h.lib == nil {
		return 0, errors.InvalidHandle("nil handle")
	}
	ptr, _, ok := h.lib.handles.remove(h.idx, h.gen)
	if !ok {
		return 0, errors.InvalidHandle("handle already consumed or released")
	}
	h.lib = nil
	return ptr, nil
}

// Close releases the native resource through the type's release entry
// point, exactly once. A second Close, or Close after Move or Consume,
// fails with invalid_handle and performs no native call.
func (h *BoundHandle) Close(ctx context.Context) error {
	if h == nil || h.lib == nil {
		return errors.InvalidHandle("nil handle")
	}
	lib := h.lib
	ptr, _, ok := lib.handles.remove(h.idx, h.gen)
	if !ok {
		return errors.InvalidHandle("handle already consumed or released")
	}
	h.lib = nil

	if h.kind.Release == "" {
		return nil
	}
	_, err := lib.rawCall(ctx, h.kind.Release, uint64(ptr))
	return err
}

// Duplicate creates a second independent owner of the native resource.
// It is only permitted when the handle type registered a native
// duplicate entry point; implicit aliasing is never allowed.
func (h *BoundHandle) Duplicate(ctx context.Context) (*BoundHandle, error) {
	if h == nil || h.lib == nil {
		return nil, errors.InvalidHandle("nil handle")
	}
	if h.kind.Dup == "" {
		return nil, errors.New(errors.PhaseCall, errors.KindUnsupportedOwnership).
			NativeType(h.kind.Name).
			Detail("type has no duplicate entry point").
			Build()
	}
	ptr, err := h.Ptr()
	if err != nil {
		return nil, err
	}
	dup, err := h.lib.rawCall(ctx, h.kind.Dup, uint64(ptr))
	if err != nil {
		return nil, err
	}
	return h.lib.Adopt(h.kind.Name, uintptr(dup))
}
