package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  *Error
		want string
	}{
		{
			name: "phase and kind only",
			err:  &Error{Phase: PhaseExtract, Kind: KindMissingHeader},
			want: "[extract] missing_header",
		},
		{
			name: "with path",
			err:  &Error{Phase: PhaseExtract, Kind: KindUnparsableDecl, Path: []string{"base.h"}},
			want: "[extract] unparsable_declaration at base.h",
		},
		{
			name: "with symbol and detail",
			err: &Error{
				Phase:  PhaseCall,
				Kind:   KindSymbolMissing,
				Symbol: "absl_base_init",
				Detail: "not exported",
			},
			want: "[call] symbol_missing: symbol absl_base_init - not exported",
		},
		{
			name: "with cause",
			err: &Error{
				Phase:  PhaseLoad,
				Kind:   KindInvalidInput,
				Detail: "bad manifest",
				Cause:  fmt.Errorf("unexpected EOF"),
			},
			want: "[load] invalid_input: bad manifest (caused by: unexpected EOF)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Fatalf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestError_Is(t *testing.T) {
	err := CapacityExceeded(300, 256)

	if !stderrors.Is(err, &Error{Phase: PhaseStage, Kind: KindCapacityExceeded}) {
		t.Fatal("expected match on phase+kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseStage, Kind: KindInvalidHandle}) {
		t.Fatal("expected mismatch on different kind")
	}
	if stderrors.Is(err, &Error{Phase: PhaseCall, Kind: KindCapacityExceeded}) {
		t.Fatal("expected mismatch on different phase")
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := fmt.Errorf("dlopen failed")
	err := SymbolMissing("absl_add", cause)

	if !stderrors.Is(err, cause) {
		t.Fatal("expected unwrap to reach cause")
	}
}

func TestBuilder(t *testing.T) {
	err := New(PhaseSynth, KindNameCollision).
		Path("strings.h").
		Symbol("absl_str_cat").
		Detail("claimed by %s", "base.h").
		Build()

	if err.Phase != PhaseSynth || err.Kind != KindNameCollision {
		t.Fatalf("unexpected phase/kind: %s/%s", err.Phase, err.Kind)
	}
	if err.Detail != "claimed by base.h" {
		t.Fatalf("unexpected detail: %q", err.Detail)
	}
	msg := err.Error()
	if !strings.Contains(msg, "strings.h") || !strings.Contains(msg, "absl_str_cat") {
		t.Fatalf("message missing context: %q", msg)
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		err   *Error
		phase Phase
		kind  Kind
	}{
		{MissingHeader("absl/base.h", nil), PhaseExtract, KindMissingHeader},
		{UnparsableDecl("base.h", "int ???"), PhaseExtract, KindUnparsableDecl},
		{AmbiguousType("absl_state", "opaque-handle", "enum-tag"), PhaseExtract, KindAmbiguousType},
		{UnsupportedCallConv("f", "__stdcall"), PhaseExtract, KindUnsupportedCallConv},
		{UnsupportedOwnership("f", "owned buffer"), PhaseSynth, KindUnsupportedOwnership},
		{NameCollision("Init", "a.h", "b.h"), PhaseSynth, KindNameCollision},
		{InvalidHandle("consumed"), PhaseCall, KindInvalidHandle},
		{UnreportedLength(PhaseSynth, "f"), PhaseSynth, KindUnreportedLength},
		{CapacityExceeded(10, 4), PhaseStage, KindCapacityExceeded},
		{TeardownBusy(2), PhaseCall, KindTeardownBusy},
		{StaleManifest("aa", "bb"), PhaseLoad, KindStaleManifest},
		{NotInitialized("library"), PhaseCall, KindNotInitialized},
	}

	for _, tt := range tests {
		if tt.err.Phase != tt.phase || tt.err.Kind != tt.kind {
			t.Fatalf("%v: got %s/%s, want %s/%s",
				tt.err, tt.err.Phase, tt.err.Kind, tt.phase, tt.kind)
		}
	}
}
