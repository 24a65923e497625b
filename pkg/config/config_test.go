package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/dd0wney/caida-topogen/pkg/geo"
)

func validConfig() *Config {
	c := Default()
	c.Input = "links.txt"
	c.Output = "out.gml"
	return c
}

func TestDefault(t *testing.T) {
	c := Default()
	if c.Nodes != 50 || c.Seed != 42 || !c.SelfLoops || c.Strategy != "auto" {
		t.Errorf("unexpected defaults: %+v", c)
	}
	if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("defaults without input/output should fail, got %v", err)
	}
	if err := validConfig().Validate(); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "topogen.yaml")
	doc := `caida_file: data/20240101.as-rel.txt.bz2
output: out/topology.gml
nodes: 500
strategy: hierarchical
seed: 7
directed: true
classifier: proportional
writer:
  flush_every: 250
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if c.Nodes != 500 || c.Strategy != "hierarchical" || c.Seed != 7 || !c.Directed {
		t.Errorf("file values not applied: %+v", c)
	}
	if !c.SelfLoops {
		t.Error("self_loops default lost when the file omits it")
	}
	if c.Writer.FlushEvery != 250 || c.Writer.BufferSize == 0 {
		t.Errorf("writer = %+v", c.Writer)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}

	if err := os.WriteFile(path, []byte("nodes: [1"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("malformed file err = %v", err)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("TOPOGEN_NODES", "1000")
	t.Setenv("TOPOGEN_SELF_LOOPS", "false")
	t.Setenv("TOPOGEN_STRATEGY", "bfs")
	t.Setenv("LOG_LEVEL", "debug")

	c := validConfig()
	if err := c.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv: %v", err)
	}
	if c.Nodes != 1000 || c.SelfLoops || c.Strategy != "bfs" || c.LogLevel != "debug" {
		t.Errorf("env not applied: %+v", c)
	}

	t.Setenv("TOPOGEN_LOG_LEVEL", "warn")
	t.Setenv("TOPOGEN_SEED", "many")
	err := c.ApplyEnv()
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("bad seed err = %v", err)
	}
	if c.LogLevel != "warn" {
		t.Errorf("TOPOGEN_LOG_LEVEL should win over LOG_LEVEL, got %q", c.LogLevel)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing input", func(c *Config) { c.Input = "" }},
		{"missing output", func(c *Config) { c.Output = "" }},
		{"zero nodes", func(c *Config) { c.Nodes = 0 }},
		{"negative workers", func(c *Config) { c.Workers = -1 }},
		{"too many repair rounds", func(c *Config) { c.MaxRepairRounds = 1001 }},
		{"NaN loss", func(c *Config) { c.PacketLoss = math.NaN() }},
		{"unknown strategy", func(c *Config) { c.Strategy = "random-walk" }},
		{"negative loss", func(c *Config) { c.PacketLoss = -1 }},
		{"loss above 100", func(c *Config) { c.PacketLoss = 150 }},
		{"bad classifier", func(c *Config) { c.Classifier = "geoip" }},
		{"bad upload", func(c *Config) { c.Upload = "ftp://host/file" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"both region sources", func(c *Config) {
			c.RegionsFile = "regions.yaml"
			c.Regions = geo.DefaultRegions()
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConfig()
			tt.mutate(c)
			if err := c.Validate(); !errors.Is(err, ErrInvalidConfig) {
				t.Errorf("Validate() = %v, want ErrInvalidConfig", err)
			}
		})
	}
}

func TestPlan(t *testing.T) {
	c := validConfig()
	p, err := c.Plan()
	if err != nil {
		t.Fatal(err)
	}
	if p.Classifier != geo.ASNRange || len(p.Regions) != 6 {
		t.Errorf("default plan = %+v", p)
	}

	c.Classifier = geo.Proportional
	c.Regions = []geo.Region{{Name: "lab", Proportion: 1, CIDR: "192.168.0.0/16"}}
	p, err = c.Plan()
	if err != nil {
		t.Fatal(err)
	}
	if p.Classifier != geo.Proportional || p.Regions[0].Name != "lab" {
		t.Errorf("inline plan = %+v", p)
	}

	c.Classifier = ""
	if _, err := c.Plan(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("inline regions with asn-range should fail, got %v", err)
	}

	c.Regions = nil
	c.RegionsFile = filepath.Join(t.TempDir(), "missing.yaml")
	if _, err := c.Plan(); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("missing regions file err = %v", err)
	}
}
