package bind

import (
	"fmt"
	"os"

	"go.uber.org/zap"
)

// abortFn terminates the process when a panic reaches the native call
// boundary. Unwinding a Go panic through foreign frames is undefined
// behavior, so the only safe response is a deterministic abort. Tests
// override this variable.
var abortFn = func(symbol string, v any) {
	fmt.Fprintf(os.Stderr, "astd: panic crossing native boundary in %s: %v\n", symbol, v)
	os.Exit(134)
}

// guardRegion runs fn and converts any panic into a process abort
// instead of letting it unwind across the foreign frame.
func guardRegion(symbol string, fn func() error) error {
	defer func() {
		if v := recover(); v != nil {
			Logger().Error("panic at native boundary",
				zap.String("symbol", symbol),
				zap.Any("panic", v))
			abortFn(symbol, v)
		}
	}()
	return fn()
}
