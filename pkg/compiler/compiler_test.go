package compiler

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewTSCDefaultsBinary(t *testing.T) {
	c := NewTSC("", zerolog.Nop())
	if c.Binary != "tsc" {
		t.Errorf("Binary = %q, want %q", c.Binary, "tsc")
	}
}

func TestCompileMissingBinaryReturnsError(t *testing.T) {
	c := NewTSC("definitely-not-a-real-compiler-binary", zerolog.Nop())
	_, err := c.Compile(context.Background(), t.TempDir(), t.TempDir(), nil)
	if err == nil {
		t.Error("Compile() with missing binary returned nil error")
	}
}

func TestSplitDiagnostics(t *testing.T) {
	got := splitDiagnostics("error TS2304: Cannot find name 'foo'.\r\n\n  \nFound 1 error.\n")
	want := []string{"error TS2304: Cannot find name 'foo'.", "Found 1 error."}
	if len(got) != len(want) {
		t.Fatalf("splitDiagnostics() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}
