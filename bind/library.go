package bind

import (
	"context"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/Azzybana/astd"
	"github.com/Azzybana/astd/errors"
	"github.com/Azzybana/astd/manifest"
)

// Library lifecycle states.
const (
	stateNew uint32 = iota
	stateReady
	stateClosed
)

// HandleType registers the entry points that govern a native opaque
// type. Release runs exactly once when a BoundHandle is closed; Dup, if
// present, allows explicit duplication. A type with an empty Release is
// released by the native side itself (typically via an owned-transfer-in
// parameter).
type HandleType struct {
	Name    string
	Release string
	Dup     string
}

// Options configures a Library.
type Options struct {
	// HandleTypes maps native type names to their lifecycle entry points.
	// Types that appear in the manifest as opaque handles but are not
	// registered here can still be adopted; they simply have no release
	// entry point.
	HandleTypes []HandleType

	// ExpectedDigest, when non-empty, must match the manifest's source
	// digest. New fails with stale_manifest otherwise.
	ExpectedDigest string
}

// Library binds a loaded native library (or wasm module) to its
// interface manifest. All calls are validated against the manifest
// before they reach the backend.
type Library struct {
	backend astd.Backend
	man     *manifest.InterfaceManifest

	mu      sync.RWMutex
	symbols map[string]astd.Symbol

	types   map[string]HandleType
	typeIDs map[string]uint32

	handles *handleTable
	active  atomic.Int64
	state   atomic.Uint32
}

// New binds a backend to a manifest. The manifest is validated and, when
// opts.ExpectedDigest is set, checked against the digest recorded at
// extraction time so bindings generated from one header snapshot cannot
// silently run against another.
func New(backend astd.Backend, man *manifest.InterfaceManifest, opts Options) (*Library, error) {
	if backend == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil backend")
	}
	if man == nil {
		return nil, errors.InvalidInput(errors.PhaseLoad, "nil manifest")
	}
	if err := man.Validate(); err != nil {
		return nil, err
	}
	if opts.ExpectedDigest != "" && man.SourceDigest != opts.ExpectedDigest {
		return nil, errors.StaleManifest(opts.ExpectedDigest, man.SourceDigest)
	}

	lib := &Library{
		backend: backend,
		man:     man,
		symbols: make(map[string]astd.Symbol),
		types:   make(map[string]HandleType),
		typeIDs: make(map[string]uint32),
		handles: newHandleTable(),
	}
	for i, ht := range opts.HandleTypes {
		if _, dup := lib.types[ht.Name]; dup {
			return nil, errors.New(errors.PhaseLoad, errors.KindNameCollision).
				NativeType(ht.Name).
				Detail("handle type registered twice").
				Build()
		}
		if td, ok := man.Type(ht.Name); !ok {
			return nil, errors.InvalidInput(errors.PhaseLoad, "handle type "+ht.Name+" not in manifest")
		} else if td.Class != manifest.ClassOpaqueHandle {
			return nil, errors.New(errors.PhaseLoad, errors.KindUnsupportedOwnership).
				NativeType(ht.Name).
				Detail("handle type must be an opaque handle in the manifest").
				Build()
		}
		lib.types[ht.Name] = ht
		lib.typeIDs[ht.Name] = uint32(i)
	}
	return lib, nil
}

// Init resolves every manifest function against the backend. It is
// idempotent; concurrent callers race to flip the state and the losers
// return immediately. A missing symbol fails load with the symbol name
// so mismatched library versions surface before the first call.
func (l *Library) Init(ctx context.Context) error {
	if !l.state.CompareAndSwap(stateNew, stateReady) {
		if l.state.Load() == stateClosed {
			return errors.InvalidInput(errors.PhaseLoad, "library already torn down")
		}
		return nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.man.Functions {
		fn := &l.man.Functions[i]
		sym, err := l.backend.Lookup(fn.Name)
		if err != nil {
			l.state.Store(stateNew)
			return errors.SymbolMissing(fn.Name, err)
		}
		l.symbols[fn.Name] = sym
	}

	Logger().Debug("library initialized",
		zap.Int("functions", len(l.man.Functions)),
		zap.Int("handle_types", len(l.types)),
		zap.String("digest", l.man.SourceDigest))
	return nil
}

// Manifest returns the bound interface manifest.
func (l *Library) Manifest() *manifest.InterfaceManifest { return l.man }

// LiveHandles reports the number of currently valid bound handles.
func (l *Library) LiveHandles() int { return l.handles.len() }

// Adopt wraps a native pointer produced by an owned-transfer-out return
// into a BoundHandle owned by this library.
func (l *Library) Adopt(typeName string, ptr uintptr) (*BoundHandle, error) {
	if l.state.Load() != stateReady {
		return nil, errors.NotInitialized("library")
	}
	if ptr == 0 {
		return nil, errors.InvalidHandle("adopting null pointer for " + typeName)
	}

	kind, ok := l.types[typeName]
	if !ok {
		td, known := l.man.Type(typeName)
		if !known || td.Class != manifest.ClassOpaqueHandle {
			return nil, errors.InvalidInput(errors.PhaseCall, "unknown handle type "+typeName)
		}
		kind = HandleType{Name: typeName}
	}

	idx, gen := l.handles.insert(l.typeIDs[typeName], ptr)
	return &BoundHandle{lib: l, idx: idx, gen: gen, kind: kind}, nil
}

// Teardown closes the backend. It fails with teardown_busy while any
// call is in flight; live handles are invalidated, their native
// resources are the library's to reclaim on unload.
func (l *Library) Teardown(ctx context.Context) error {
	if l.state.Load() != stateReady {
		if l.state.Load() == stateClosed {
			return nil
		}
		return errors.NotInitialized("library")
	}
	if n := l.active.Load(); n > 0 {
		return errors.TeardownBusy(n)
	}
	if !l.state.CompareAndSwap(stateReady, stateClosed) {
		return nil
	}

	l.mu.Lock()
	l.symbols = nil
	l.mu.Unlock()

	if live := l.handles.len(); live > 0 {
		Logger().Warn("teardown with live handles", zap.Int("count", live))
	}
	return l.backend.Close(ctx)
}

func (l *Library) symbol(name string) (astd.Symbol, error) {
	l.mu.RLock()
	sym, ok := l.symbols[name]
	l.mu.RUnlock()
	if !ok {
		return nil, errors.SymbolMissing(name, nil)
	}
	return sym, nil
}

// rawCall invokes a symbol without manifest validation. It is used for
// lifecycle entry points (release, duplicate) whose shape is fixed.
func (l *Library) rawCall(ctx context.Context, name string, args ...uint64) (uint64, error) {
	l.active.Add(1)
	defer l.active.Add(-1)

	if l.state.Load() != stateReady {
		return 0, errors.NotInitialized("library")
	}
	sym, err := l.symbol(name)
	if err != nil {
		return 0, err
	}

	var ret uint64
	err = guardRegion(name, func() error {
		var callErr error
		ret, callErr = sym.Call(ctx, args...)
		return callErr
	})
	if err != nil {
		return 0, err
	}
	return ret, nil
}
