package vm

import (
	"bytes"
	"testing"

	"github.com/cwbudde/escript/internal/value"
)

// evalScript parses, compiles, and runs src against a fresh Runtime,
// failing the test on any pipeline error. Mirrors the teacher's
// interp.testEval helper.
func evalScript(t *testing.T, src string) value.Value {
	t.Helper()
	rt := NewRuntime(nil)
	var buf bytes.Buffer
	rt.Output = &buf
	fn, err := rt.BuildFunctionFromCode(src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := rt.RunScript(fn)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result
}

// evalScriptOutput is evalScript plus the captured console output,
// mirroring the teacher's interp.testEvalWithOutput helper.
func evalScriptOutput(t *testing.T, src string) (value.Value, string) {
	t.Helper()
	rt := NewRuntime(nil)
	var buf bytes.Buffer
	rt.Output = &buf
	fn, err := rt.BuildFunctionFromCode(src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	result, err := rt.RunScript(fn)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	return result, buf.String()
}

// evalScriptErr is evalScript but expects RunScript to fail, returning the error.
func evalScriptErr(t *testing.T, src string) error {
	t.Helper()
	rt := NewRuntime(nil)
	fn, err := rt.BuildFunctionFromCode(src)
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	_, runErr := rt.RunScript(fn)
	if runErr == nil {
		t.Fatalf("expected runtime error, got none")
	}
	return runErr
}
