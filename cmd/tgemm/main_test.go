package main

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/ternlab/tgemm/bench"
	"github.com/ternlab/tgemm/kernels"
	"github.com/ternlab/tgemm/randmat"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckAllKinds(t *testing.T) {
	out, err := execute(t, "check", "--m=5", "--k=16", "--n=16", "--nonzero=3", "--seed=7")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	for _, kind := range kernels.Kinds() {
		if !strings.Contains(out, kind.String()) {
			t.Errorf("output does not mention %v:\n%s", kind, out)
		}
	}
	if strings.Contains(out, "FAIL") {
		t.Errorf("unexpected failure:\n%s", out)
	}
}

func TestCheckSkipsVectorKinds(t *testing.T) {
	out, err := execute(t, "check", "--m=3", "--k=8", "--n=12", "--block-rows=2", "--block-cols=4",
		"--kinds=bcsr,bcsr-vec", "--balanced")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "SKIP") {
		t.Errorf("bcsr-vec with 4-wide blocks should be skipped:\n%s", out)
	}
}

func TestCheckMismatchFails(t *testing.T) {
	_, err := execute(t, "check", "--m=2", "--k=8", "--n=8", "--nonzero=1", "--kinds=tcsc", "--tol=-1")
	if !errors.Is(err, errCheckFailed) {
		t.Errorf("got %v, want %v", err, errCheckFailed)
	}
}

func TestCheckInvalidParams(t *testing.T) {
	_, err := execute(t, "check", "--k=10", "--block-rows=4")
	if !errors.Is(err, bench.ErrInvalidParams) {
		t.Errorf("got %v, want %v", err, bench.ErrInvalidParams)
	}
	_, err = execute(t, "check", "--kinds=bogus")
	if !errors.Is(err, kernels.ErrUnknownKind) {
		t.Errorf("got %v, want %v", err, kernels.ErrUnknownKind)
	}
}

func TestMeasure(t *testing.T) {
	out, err := execute(t, "measure", "--m=4", "--k=16", "--n=16", "--kinds=tcsc,bcsr-vec-prelu",
		"--no-warmup", "--runs=2", "--reps=3", "--workers=2")
	if err != nil {
		t.Fatalf("measure failed: %v\n%s", err, out)
	}
	for _, want := range []string{"tcsc", "bcsr-vec-prelu", "median ns"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}

func TestMeasureCounterMismatch(t *testing.T) {
	out, err := execute(t, "measure", "--m=2", "--k=8", "--n=8", "--kinds=tcsc,dense",
		"--no-warmup", "--runs=1", "--reps=1", "--preset-flops=1")
	if !errors.Is(err, bench.ErrCounterMismatch) {
		t.Fatalf("got %v, want %v\n%s", err, bench.ErrCounterMismatch, out)
	}
	if got := strings.Count(out, "COUNT"); got != 2 {
		t.Errorf("%d COUNT lines, want 2:\n%s", got, out)
	}
	// Each kernel still gets its timing line after the COUNT line.
	for _, name := range []string{"  tcsc ", "  dense "} {
		if got := strings.Count(out, name); got != 2 {
			t.Errorf("%q appears %d times, want 2:\n%s", name, got, out)
		}
	}

	out, err = execute(t, "measure", "--m=2", "--k=8", "--n=8", "--kinds=tcsc",
		"--no-warmup", "--runs=1", "--reps=1", "--preset-flops=1", "--count-tol=1e9")
	if err != nil {
		t.Errorf("counter within tolerance: %v\n%s", err, out)
	}
}

func TestMeasureDynamicBatches(t *testing.T) {
	out, err := execute(t, "measure", "--m=20", "--k=16", "--n=16", "--kinds=format:tcsc",
		"--no-warmup", "--runs=1", "--reps=2", "--workers=3", "--batch=4", "--balanced")
	if err != nil {
		t.Fatalf("measure failed: %v\n%s", err, out)
	}
	for _, kind := range kernels.KindsOf(kernels.FormatTCSC) {
		if !strings.Contains(out, kind.String()) {
			t.Errorf("output does not mention %v:\n%s", kind, out)
		}
	}
	if strings.Contains(out, "FAIL") || strings.Contains(out, "COUNT") {
		t.Errorf("unexpected failure:\n%s", out)
	}
	if _, err := execute(t, "measure", "--batch=-1"); err == nil {
		t.Error("negative --batch accepted")
	}
}

func TestCheckIntegerInputs(t *testing.T) {
	out, err := execute(t, "check", "--m=3", "--k=16", "--n=16", "--integer-inputs=5", "--kinds=format:bcsr,dense")
	if err != nil {
		t.Fatalf("check failed: %v\n%s", err, out)
	}
	if strings.Contains(out, "tcsc") {
		t.Errorf("format:bcsr selected TCSC kinds:\n%s", out)
	}
	_, err = execute(t, "check", "--integer-inputs=-2")
	if !errors.Is(err, randmat.ErrRange) {
		t.Errorf("got %v, want %v", err, randmat.ErrRange)
	}
}

func TestCPUInfo(t *testing.T) {
	out, err := execute(t, "cpuinfo")
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"Dispatch level:", "BCSR vector kernel:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}
}
