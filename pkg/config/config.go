// Package config holds the settings of a generation run. Values layer as
// defaults, then a YAML file, then TOPOGEN_* environment variables, then
// command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/dd0wney/caida-topogen/pkg/artifact"
	"github.com/dd0wney/caida-topogen/pkg/geo"
	"github.com/dd0wney/caida-topogen/pkg/gml"
	"github.com/dd0wney/caida-topogen/pkg/selection"
	"github.com/dd0wney/caida-topogen/pkg/validation"
)

// ErrInvalidConfig wraps every configuration failure.
var ErrInvalidConfig = errors.New("invalid configuration")

// Defaults.
const (
	DefaultNodes = 50
	DefaultSeed  = 42
)

// WriterConfig tunes GML output buffering.
type WriterConfig struct {
	BufferSize int `yaml:"buffer_size" validate:"gte=0"`
	FlushEvery int `yaml:"flush_every" validate:"gte=0"`
}

// Config is a full run description.
type Config struct {
	Input           string  `yaml:"caida_file"`
	Output          string  `yaml:"output"`
	Nodes           int     `yaml:"nodes"`
	Strategy        string  `yaml:"strategy"`
	Seed            int64   `yaml:"seed"`
	SelfLoops       bool    `yaml:"self_loops"`
	Directed        bool    `yaml:"directed"`
	PacketLoss      float64 `yaml:"packet_loss"`
	MaxRepairRounds int     `yaml:"max_repair_rounds"`
	Workers         int     `yaml:"workers"`

	RegionsFile string       `yaml:"regions_file"`
	Classifier  string       `yaml:"classifier"`
	Regions     []geo.Region `yaml:"regions" validate:"omitempty,dive"`

	Writer WriterConfig `yaml:"writer"`

	MetricsFile string             `yaml:"metrics_file"`
	ReportFile  string             `yaml:"report"`
	Upload      string             `yaml:"upload"`
	S3          artifact.S3Options `yaml:"s3"`
	LogLevel    string             `yaml:"log_level" validate:"omitempty,oneof=debug info warn warning error"`
}

// Default returns the built-in settings. Input and Output have no default.
func Default() *Config {
	return &Config{
		Nodes:     DefaultNodes,
		Strategy:  string(selection.Auto),
		Seed:      DefaultSeed,
		SelfLoops: true,
		Writer: WriterConfig{
			BufferSize: gml.DefaultBufferSize,
			FlushEvery: gml.DefaultFlushEvery,
		},
	}
}

// LoadFile overlays a YAML file on the defaults.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	c := Default()
	if err := yaml.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
	}
	return c, nil
}

// ApplyEnv overlays TOPOGEN_* environment variables. LOG_LEVEL is honoured
// when TOPOGEN_LOG_LEVEL is unset.
func (c *Config) ApplyEnv() error {
	c.Input = getEnvOrDefault("TOPOGEN_CAIDA_FILE", c.Input)
	c.Output = getEnvOrDefault("TOPOGEN_OUTPUT", c.Output)
	c.Strategy = getEnvOrDefault("TOPOGEN_STRATEGY", c.Strategy)
	c.RegionsFile = getEnvOrDefault("TOPOGEN_REGIONS", c.RegionsFile)
	c.Classifier = getEnvOrDefault("TOPOGEN_CLASSIFIER", c.Classifier)
	c.MetricsFile = getEnvOrDefault("TOPOGEN_METRICS_FILE", c.MetricsFile)
	c.ReportFile = getEnvOrDefault("TOPOGEN_REPORT", c.ReportFile)
	c.Upload = getEnvOrDefault("TOPOGEN_UPLOAD", c.Upload)
	c.S3.Region = getEnvOrDefault("TOPOGEN_S3_REGION", c.S3.Region)
	c.S3.Endpoint = getEnvOrDefault("TOPOGEN_S3_ENDPOINT", c.S3.Endpoint)
	c.LogLevel = getEnvOrDefault("TOPOGEN_LOG_LEVEL", getEnvOrDefault("LOG_LEVEL", c.LogLevel))

	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}
	collect(envInt("TOPOGEN_NODES", &c.Nodes))
	collect(envInt("TOPOGEN_WORKERS", &c.Workers))
	collect(envInt64("TOPOGEN_SEED", &c.Seed))
	collect(envBool("TOPOGEN_SELF_LOOPS", &c.SelfLoops))
	collect(envBool("TOPOGEN_DIRECTED", &c.Directed))
	collect(envFloat("TOPOGEN_PACKET_LOSS", &c.PacketLoss))

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func envInt(key string, dst *int) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envInt64(key string, dst *int64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = n
	return nil
}

func envBool(key string, dst *bool) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = b
	return nil
}

func envFloat(key string, dst *float64) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("%s=%q: %w", key, v, err)
	}
	*dst = f
	return nil
}

// Validate checks field ranges and cross-field rules.
func (c *Config) Validate() error {
	if err := validation.Struct(c); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	err := validation.NewConfigValidator("Config").
		Required("Input", c.Input).
		Required("Output", c.Output).
		Positive("Nodes", c.Nodes).
		RangeFloat("PacketLoss", c.PacketLoss, 0, 100).
		RangeInt("MaxRepairRounds", c.MaxRepairRounds, 0, 1000).
		NonNegative("Workers", c.Workers).
		Custom("Strategy", func() error {
			_, err := selection.ParseStrategy(c.Strategy)
			return err
		}).
		When(c.Classifier != "", func(cv *validation.ConfigValidator) {
			cv.OneOf("Classifier", c.Classifier, geo.Classifiers())
		}).
		When(c.Upload != "", func(cv *validation.ConfigValidator) {
			cv.Custom("Upload", func() error {
				_, _, err := artifact.ParseS3URI(c.Upload)
				return err
			})
		}).
		When(c.RegionsFile != "" && len(c.Regions) > 0, func(cv *validation.ConfigValidator) {
			cv.Custom("Regions", func() error {
				return errors.New("set either regions or regions_file, not both")
			})
		}).
		Validate()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

// Plan resolves the region plan: a regions file, inline regions or the
// built-in table, with Classifier overriding whatever the source names.
func (c *Config) Plan() (geo.Plan, error) {
	var p geo.Plan
	switch {
	case c.RegionsFile != "":
		loaded, err := geo.LoadPlan(c.RegionsFile)
		if err != nil {
			return geo.Plan{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
		}
		p = loaded
	case len(c.Regions) > 0:
		p = geo.Plan{Classifier: geo.ASNRange, Regions: c.Regions}
	default:
		p = geo.DefaultPlan()
	}
	if c.Classifier != "" {
		p.Classifier = strings.ToLower(c.Classifier)
	}
	if err := p.Validate(); err != nil {
		return geo.Plan{}, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return p, nil
}
