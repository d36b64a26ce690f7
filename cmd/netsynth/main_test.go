package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/torosent/netsynth/internal/dataset"
)

func TestRunGenerate(t *testing.T) {
	dir := t.TempDir()
	csvPath := filepath.Join(dir, "data.csv")
	jsonPath := filepath.Join(dir, "data.json")
	metaPath := filepath.Join(dir, "data.yaml")

	err := run([]string{
		"-n", "50",
		"-s", "7",
		"-o", csvPath,
		"--json-out", jsonPath,
		"--metadata-out", metaPath,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	table, err := dataset.ReadCSV(csvPath)
	if err != nil {
		t.Fatalf("read generated csv: %v", err)
	}
	if table.Len() != 50 {
		t.Errorf("csv has %d rows, want 50", table.Len())
	}

	if _, err := os.Stat(jsonPath); err != nil {
		t.Errorf("json export missing: %v", err)
	}

	meta, err := dataset.ReadMetadata(metaPath)
	if err != nil {
		t.Fatalf("read metadata: %v", err)
	}
	if meta.Samples != 50 || meta.Seed != 7 {
		t.Errorf("metadata provenance = (%d, %d), want (50, 7)", meta.Samples, meta.Seed)
	}
}

func TestRunIsReproducible(t *testing.T) {
	dir := t.TempDir()
	first := filepath.Join(dir, "a.csv")
	second := filepath.Join(dir, "b.csv")

	for _, path := range []string{first, second} {
		if err := run([]string{"-n", "20", "-s", "42", "-o", path}); err != nil {
			t.Fatalf("run: %v", err)
		}
	}

	a, err := os.ReadFile(first)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	b, err := os.ReadFile(second)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(a) != string(b) {
		t.Error("two runs with the same seed produced different files")
	}
}

func TestRunThresholds(t *testing.T) {
	dir := t.TempDir()

	args := []string{
		"-n", "500", "-s", "42",
		"-o", filepath.Join(dir, "data.csv"),
		"--threshold", "rtt:mean < 45",
		"--threshold", "loss_free:rate >= 0.8",
	}
	if err := run(args); err != nil {
		t.Fatalf("run with passing thresholds: %v", err)
	}

	args = []string{
		"-n", "500", "-s", "42",
		"-o", filepath.Join(dir, "data2.csv"),
		"--threshold", "rtt:mean < 1",
	}
	err := run(args)
	if err == nil {
		t.Fatal("expected error when a threshold fails")
	}
	if !strings.Contains(err.Error(), "threshold") {
		t.Errorf("error %q should mention thresholds", err.Error())
	}
}

func TestRunRejectsBadThresholdBeforeGenerating(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	err := run([]string{"-n", "5", "-o", path, "--threshold", "jitter:mean < 1"})
	if err == nil {
		t.Fatal("expected error for unknown threshold metric")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("dataset should not be written when threshold parsing fails")
	}
}

func TestRunRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero samples", []string{"-n", "0"}},
		{"zero workers", []string{"-w", "0"}},
		{"bad loss band", []string{"--loss-min", "0.5"}},
		{"bad tracing protocol", []string{"--tracing-protocol", "udp"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := run(tt.args); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunHelp(t *testing.T) {
	if err := run([]string{"--help"}); err != nil {
		t.Errorf("run --help should succeed, got: %v", err)
	}
}
