package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Output formats
const (
	FormatBinary  = "binary"
	FormatParquet = "parquet"
)

const (
	DefaultKeepRate    = 0.01
	DefaultSampleCount = 10_000_000
)

// Job describes what a run extracts and where each dataset is written
type Job struct {
	Datasets []Dataset `yaml:"datasets,omitempty"`
	Roads    *Roads    `yaml:"roads,omitempty"`
}

// Dataset is a tag-filtered point dataset, e.g. one brand
type Dataset struct {
	Name   string  `yaml:"name"`
	Key    string  `yaml:"key"`
	Value  *string `yaml:"value,omitempty"` // nil matches any value
	Output string  `yaml:"output"`
	Format string  `yaml:"format,omitempty"`
}

// Roads configures the length-weighted road sampler and its outputs
type Roads struct {
	Output      string     `yaml:"output,omitempty"` // unfiltered sample; empty skips it
	Format      string     `yaml:"format,omitempty"`
	KeepRate    float64    `yaml:"keep_rate,omitempty"`
	SampleCount int        `yaml:"samples,omitempty"`
	Boundaries  []Boundary `yaml:"boundaries,omitempty"`
	Regions     []Region   `yaml:"regions,omitempty"`
}

// Boundary writes the road sample restricted to one administrative relation
type Boundary struct {
	Relation int64  `yaml:"relation"`
	Output   string `yaml:"output"`
}

// Region writes the road sample restricted to a union of relations
type Region struct {
	Name      string  `yaml:"name"`
	Relations []int64 `yaml:"relations"`
	Output    string  `yaml:"output"`
}

// DefaultJob extracts McDonald's locations and an unfiltered road sample
func DefaultJob() *Job {
	brand := "McDonald's"
	return &Job{
		Datasets: []Dataset{
			{Name: "mcdonalds", Key: "brand", Value: &brand, Output: "mcdonalds.dat"},
		},
		Roads: &Roads{
			Output:      "roads.dat",
			KeepRate:    DefaultKeepRate,
			SampleCount: DefaultSampleCount,
		},
	}
}

// LoadJob loads a job description from a YAML file
func LoadJob(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read job file: %w", err)
	}
	return ParseJob(data)
}

// ParseJob parses a YAML job description and fills in defaults
func ParseJob(data []byte) (*Job, error) {
	var job Job
	if err := yaml.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to parse job YAML: %w", err)
	}
	job.applyDefaults()
	return &job, nil
}

func (j *Job) applyDefaults() {
	for i := range j.Datasets {
		if j.Datasets[i].Format == "" {
			j.Datasets[i].Format = FormatBinary
		}
	}
	if j.Roads == nil {
		return
	}
	if j.Roads.Format == "" {
		j.Roads.Format = FormatBinary
	}
	if j.Roads.KeepRate == 0 {
		j.Roads.KeepRate = DefaultKeepRate
	}
	if j.Roads.SampleCount == 0 {
		j.Roads.SampleCount = DefaultSampleCount
	}
}

// NeedsBoundaries reports whether any output is gated by a boundary relation
func (j *Job) NeedsBoundaries() bool {
	return j.Roads != nil && (len(j.Roads.Boundaries) > 0 || len(j.Roads.Regions) > 0)
}

// RelationIDs returns every boundary relation referenced by the job
func (j *Job) RelationIDs() []int64 {
	if j.Roads == nil {
		return nil
	}
	seen := make(map[int64]bool)
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, b := range j.Roads.Boundaries {
		add(b.Relation)
	}
	for _, r := range j.Roads.Regions {
		for _, id := range r.Relations {
			add(id)
		}
	}
	return ids
}

// Validate checks the job for missing names, outputs and bad rates
func (j *Job) Validate() error {
	if len(j.Datasets) == 0 && j.Roads == nil {
		return fmt.Errorf("job has neither datasets nor roads")
	}

	outputs := make(map[string]string)
	claim := func(output, owner string) error {
		if output == "" {
			return fmt.Errorf("%s: output is required", owner)
		}
		if prev, ok := outputs[output]; ok {
			return fmt.Errorf("%s: output %q already used by %s", owner, output, prev)
		}
		outputs[output] = owner
		return nil
	}

	for i, d := range j.Datasets {
		owner := fmt.Sprintf("dataset %d (%s)", i, d.Name)
		if d.Name == "" {
			return fmt.Errorf("dataset %d: name is required", i)
		}
		if d.Key == "" {
			return fmt.Errorf("%s: key is required", owner)
		}
		if err := checkFormat(d.Format); err != nil {
			return fmt.Errorf("%s: %w", owner, err)
		}
		if err := claim(d.Output, owner); err != nil {
			return err
		}
	}

	if j.Roads == nil {
		return nil
	}
	r := j.Roads
	if r.KeepRate <= 0 || r.KeepRate > 1 {
		return fmt.Errorf("roads: keep_rate must be in (0, 1], got %g", r.KeepRate)
	}
	if r.SampleCount < 1 {
		return fmt.Errorf("roads: samples must be at least 1")
	}
	if err := checkFormat(r.Format); err != nil {
		return fmt.Errorf("roads: %w", err)
	}
	if r.Output != "" {
		if err := claim(r.Output, "roads"); err != nil {
			return err
		}
	}
	for _, b := range r.Boundaries {
		if err := claim(b.Output, fmt.Sprintf("boundary %d", b.Relation)); err != nil {
			return err
		}
	}
	for i, reg := range r.Regions {
		owner := fmt.Sprintf("region %d (%s)", i, reg.Name)
		if len(reg.Relations) == 0 {
			return fmt.Errorf("%s: at least one relation is required", owner)
		}
		if err := claim(reg.Output, owner); err != nil {
			return err
		}
	}
	if r.Output == "" && len(r.Boundaries) == 0 && len(r.Regions) == 0 {
		return fmt.Errorf("roads: no output, boundary or region configured")
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "", FormatBinary, FormatParquet:
		return nil
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
