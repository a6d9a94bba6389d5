package cmd

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestEnvName(t *testing.T) {
	tests := []struct {
		flag string
		want string
	}{
		{"output-dir", "GEOPLACES_OUTPUT_DIR"},
		{"workers", "GEOPLACES_WORKERS"},
		{"metrics-interval", "GEOPLACES_METRICS_INTERVAL"},
	}
	for _, tt := range tests {
		if got := envName(tt.flag); got != tt.want {
			t.Errorf("envName(%q) = %q, want %q", tt.flag, got, tt.want)
		}
	}
}

func TestApplyEnv(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	dir := fs.String("output-dir", ".", "")
	workers := fs.Int("workers", 1, "")
	interval := fs.Duration("metrics-interval", 0, "")

	t.Setenv("GEOPLACES_OUTPUT_DIR", "/data")
	t.Setenv("GEOPLACES_WORKERS", "8")
	t.Setenv("GEOPLACES_METRICS_INTERVAL", "15s")

	if err := fs.Parse([]string{"--workers", "4"}); err != nil {
		t.Fatal(err)
	}
	if err := applyEnv(fs); err != nil {
		t.Fatalf("applyEnv: %v", err)
	}

	if *dir != "/data" {
		t.Errorf("output-dir = %q, want /data", *dir)
	}
	if *workers != 4 {
		t.Errorf("workers = %d, command line must win over env", *workers)
	}
	if *interval != 15*time.Second {
		t.Errorf("metrics-interval = %v, want 15s", *interval)
	}
	if !fs.Changed("output-dir") {
		t.Error("flag set from env should count as changed")
	}
}

func TestApplyEnvInvalid(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.Int("workers", 1, "")
	t.Setenv("GEOPLACES_WORKERS", "many")

	if err := applyEnv(fs); err == nil {
		t.Error("expected error for non-numeric env value")
	}
}

func TestDatasetName(t *testing.T) {
	tests := map[string]string{
		"world.dat":               "world",
		"/data/out/mcdonalds.dat": "mcdonalds",
		"roads":                   "roads",
		"regions/usa.roads.dat":   "usa.roads",
	}
	for in, want := range tests {
		if got := datasetName(in); got != want {
			t.Errorf("datasetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBound(t *testing.T) {
	if _, ok := bound(nil); ok {
		t.Error("bound of no points should not be ok")
	}
}
