package bind

import (
	"context"

	"github.com/Azzybana/astd"
)

// OutSlot is backend-owned scratch space for a size output parameter.
// Arg yields the value passed in the parameter's position; Value reads
// the size the native side wrote there after the call returns.
type OutSlot interface {
	Arg() uint64
	Value() (uint64, error)
	Release()
}

// OutSlotBackend is implemented by backends that can stage output
// parameters. Functions with a length output parameter require it.
type OutSlotBackend interface {
	astd.Backend
	NewOutSlot(ctx context.Context) (OutSlot, error)
}

// memoryOf returns the backend's readable memory view, if it has one.
// Buffer results require it so the reported bytes can be copied out
// before the native side reclaims them.
func memoryOf(b astd.Backend) (astd.Memory, bool) {
	mb, ok := b.(astd.MemoryBackend)
	if !ok {
		return nil, false
	}
	return mb.Memory(), true
}
