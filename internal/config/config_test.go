package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wegman-software/geoplaces/internal/geo"
)

func TestParseBBox(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantSet bool
		wantErr bool
	}{
		{"empty", "", false, false},
		{"valid", "5.8,47.2,15.0,55.1", true, false},
		{"spaces", " 5.8, 47.2 ,15.0, 55.1 ", true, false},
		{"too few", "1,2,3", false, true},
		{"not a number", "a,2,3,4", false, true},
		{"inverted lon", "10,0,5,1", false, true},
		{"inverted lat", "0,10,1,5", false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bbox, err := ParseBBox(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if bbox.IsSet != tt.wantSet {
				t.Errorf("IsSet = %v, want %v", bbox.IsSet, tt.wantSet)
			}
		})
	}
}

func TestBBoxContains(t *testing.T) {
	bbox, err := ParseBBox("5.8,47.2,15.0,55.1")
	if err != nil {
		t.Fatal(err)
	}
	if !bbox.Contains(geo.Point{Lat: 52.52, Lon: 13.40}) {
		t.Error("expected Berlin inside")
	}
	if bbox.Contains(geo.Point{Lat: 48.85, Lon: 2.35}) {
		t.Error("expected Paris outside")
	}

	var unset *BBox
	if !unset.Contains(geo.Point{Lat: 0, Lon: 0}) {
		t.Error("nil bbox must contain everything")
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for missing input file")
	}

	cfg.InputFile = "planet.osm.pbf"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.Workers = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected error for zero workers")
	}
}

func TestOutputPath(t *testing.T) {
	cfg := DefaultConfig()
	cfg.OutputDir = "/data/out"
	if got := cfg.OutputPath("roads.dat"); got != filepath.Join("/data/out", "roads.dat") {
		t.Errorf("OutputPath = %q", got)
	}
	if got := cfg.OutputPath("/tmp/roads.dat"); got != "/tmp/roads.dat" {
		t.Errorf("OutputPath absolute = %q", got)
	}
}

const sampleJob = `
datasets:
  - name: mcdonalds
    key: brand
    value: McDonald's
    output: mcdonalds.dat
  - name: fuel
    key: amenity
    value: fuel
    output: fuel.parquet
    format: parquet
  - name: peaks
    key: natural
    output: peaks.dat
roads:
  output: roads.dat
  samples: 5000
  boundaries:
    - relation: 51477
      output: germany.dat
  regions:
    - name: dach
      relations: [51477, 16239, 51701]
      output: dach.dat
`

func TestParseJob(t *testing.T) {
	job, err := ParseJob([]byte(sampleJob))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(job.Datasets) != 3 {
		t.Fatalf("got %d datasets, want 3", len(job.Datasets))
	}
	if job.Datasets[0].Value == nil || *job.Datasets[0].Value != "McDonald's" {
		t.Errorf("dataset 0 value = %v", job.Datasets[0].Value)
	}
	if job.Datasets[0].Format != FormatBinary {
		t.Errorf("default format = %q, want %q", job.Datasets[0].Format, FormatBinary)
	}
	if job.Datasets[1].Format != FormatParquet {
		t.Errorf("dataset 1 format = %q", job.Datasets[1].Format)
	}
	if job.Datasets[2].Value != nil {
		t.Errorf("dataset 2 should match any value, got %q", *job.Datasets[2].Value)
	}

	if job.Roads.KeepRate != DefaultKeepRate {
		t.Errorf("KeepRate = %g, want default %g", job.Roads.KeepRate, DefaultKeepRate)
	}
	if job.Roads.SampleCount != 5000 {
		t.Errorf("SampleCount = %d, want 5000", job.Roads.SampleCount)
	}
	if !job.NeedsBoundaries() {
		t.Error("expected NeedsBoundaries")
	}

	ids := job.RelationIDs()
	if len(ids) != 3 {
		t.Errorf("RelationIDs = %v, want 3 unique ids", ids)
	}

	if err := job.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadJob(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.yaml")
	if err := os.WriteFile(path, []byte(sampleJob), 0644); err != nil {
		t.Fatal(err)
	}
	job, err := LoadJob(path)
	if err != nil {
		t.Fatalf("LoadJob: %v", err)
	}
	if len(job.Datasets) != 3 {
		t.Errorf("got %d datasets", len(job.Datasets))
	}

	if _, err := LoadJob(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestJobValidateErrors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "empty",
			yaml:    "{}",
			wantErr: "neither datasets nor roads",
		},
		{
			name:    "missing key",
			yaml:    "datasets: [{name: a, output: a.dat}]",
			wantErr: "key is required",
		},
		{
			name:    "duplicate output",
			yaml:    "datasets: [{name: a, key: k, output: x.dat}, {name: b, key: k, output: x.dat}]",
			wantErr: "already used",
		},
		{
			name:    "bad format",
			yaml:    "datasets: [{name: a, key: k, output: a.csv, format: csv}]",
			wantErr: "unknown format",
		},
		{
			name:    "bad keep rate",
			yaml:    "roads: {output: r.dat, keep_rate: 2}",
			wantErr: "keep_rate",
		},
		{
			name:    "region without relations",
			yaml:    "roads: {regions: [{name: eu, output: eu.dat}]}",
			wantErr: "at least one relation",
		},
		{
			name:    "roads without outputs",
			yaml:    "roads: {samples: 10}",
			wantErr: "no output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			job, err := ParseJob([]byte(tt.yaml))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			err = job.Validate()
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultJob(t *testing.T) {
	job := DefaultJob()
	if err := job.Validate(); err != nil {
		t.Fatalf("default job invalid: %v", err)
	}
	if job.NeedsBoundaries() {
		t.Error("default job should not need boundaries")
	}
}
