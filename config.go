package dudect

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/ctbench/dudect/internal/bank"
)

// Config holds the configuration for a leakage-detection session and its
// sample sources.
type Config struct {
	chunkSize             int
	expectedRecords       int
	enoughMeasurements    float64
	moderateThreshold     float64
	overwhelmingThreshold float64
	baselineTag           byte
	classCapacity         int
	maxSamples            int
	seed                  uint64
	timer                 func() uint64
	logger                logrus.FieldLogger
	metrics               *Metrics
}

// Option is a functional option for configuring sessions and sources.
type Option func(*Config)

// DefaultChunkSize is the number of samples consumed per round.
const DefaultChunkSize = 10_000

// DefaultClassCapacity bounds the records kept per class by RecordSource.
const DefaultClassCapacity = 500_000

// defaultConfig returns the default configuration.
func defaultConfig() *Config {
	quiet := logrus.New()
	quiet.SetOutput(io.Discard)
	return &Config{
		chunkSize:             DefaultChunkSize,
		enoughMeasurements:    bank.DefaultEnough,
		moderateThreshold:     bank.DefaultModerate,
		overwhelmingThreshold: bank.DefaultOverwhelming,
		baselineTag:           DefaultBaselineTag,
		classCapacity:         DefaultClassCapacity,
		logger:                quiet,
	}
}

func newConfig(opts []Option) *Config {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// validate checks the settings shared by every consumer of a Config.
func (c *Config) validate() error {
	switch {
	case c.chunkSize <= 0:
		return fmt.Errorf("%w: chunk size must be positive, got %d", ErrInvalidConfig, c.chunkSize)
	case c.enoughMeasurements < 0:
		return fmt.Errorf("%w: enough measurements must not be negative", ErrInvalidConfig)
	case c.moderateThreshold <= 0:
		return fmt.Errorf("%w: moderate threshold must be positive", ErrInvalidConfig)
	case c.overwhelmingThreshold < c.moderateThreshold:
		return fmt.Errorf("%w: overwhelming threshold %.2f below moderate threshold %.2f",
			ErrInvalidConfig, c.overwhelmingThreshold, c.moderateThreshold)
	case c.classCapacity < 0:
		return fmt.Errorf("%w: class capacity must not be negative", ErrInvalidConfig)
	case c.maxSamples < 0:
		return fmt.Errorf("%w: max samples must not be negative", ErrInvalidConfig)
	}
	return nil
}

func (c *Config) policy() bank.Policy {
	return bank.Policy{
		Enough:       c.enoughMeasurements,
		Moderate:     c.moderateThreshold,
		Overwhelming: c.overwhelmingThreshold,
	}
}

// WithChunkSize sets the number of samples consumed per round.
// The first chunk calibrates the cropping thresholds and is never scored.
// Default is 10000.
func WithChunkSize(n int) Option {
	return func(c *Config) {
		c.chunkSize = n
	}
}

// WithExpectedRecords sets how many records a RecordSource must read.
// Fewer records in the input is a fatal error; extra lines are ignored.
func WithExpectedRecords(n int) Option {
	return func(c *Config) {
		c.expectedRecords = n
	}
}

// WithEnoughMeasurements sets the sample count a test must exceed before
// it can produce a verdict. Default is 10000.
func WithEnoughMeasurements(n int) Option {
	return func(c *Config) {
		c.enoughMeasurements = float64(n)
	}
}

// WithThresholds sets the |t| thresholds for probable and overwhelming
// leakage. Defaults are 10 and 500.
func WithThresholds(moderate, overwhelming float64) Option {
	return func(c *Config) {
		c.moderateThreshold = moderate
		c.overwhelmingThreshold = overwhelming
	}
}

// WithBaselineTag sets the leading label character of baseline records.
// Default is 'X'.
func WithBaselineTag(tag byte) Option {
	return func(c *Config) {
		c.baselineTag = tag
	}
}

// WithClassCapacity bounds the records a RecordSource keeps per class.
// Zero removes the bound. Default is 500000.
func WithClassCapacity(n int) Option {
	return func(c *Config) {
		c.classCapacity = n
	}
}

// WithMaxSamples bounds the measurements a LiveSource produces.
// Zero (the default) means unbounded.
func WithMaxSamples(n int) Option {
	return func(c *Config) {
		c.maxSamples = n
	}
}

// WithSeed sets the random seed of a LiveSource's class schedule.
// Default (0) uses system entropy.
func WithSeed(seed uint64) Option {
	return func(c *Config) {
		c.seed = seed
	}
}

// WithTimer replaces the platform cycle counter used by a LiveSource.
// The function must be monotonic apart from counter wrap-around.
func WithTimer(timer func() uint64) Option {
	return func(c *Config) {
		c.timer = timer
	}
}

// WithLogger sets the logger used for per-round reports.
// By default sessions log nowhere.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithMetrics makes a session publish its progress to m.
func WithMetrics(m *Metrics) Option {
	return func(c *Config) {
		c.metrics = m
	}
}

// FileConfig is the YAML form of the session configuration. Zero fields
// keep their defaults.
type FileConfig struct {
	ChunkSize             int     `yaml:"chunk_size" validate:"gte=0"`
	ExpectedRecords       int     `yaml:"expected_records" validate:"gte=0"`
	EnoughMeasurements    int     `yaml:"enough_measurements" validate:"gte=0"`
	ModerateThreshold     float64 `yaml:"moderate_threshold" validate:"gte=0"`
	OverwhelmingThreshold float64 `yaml:"overwhelming_threshold" validate:"gte=0"`
	BaselineTag           string  `yaml:"baseline_tag" validate:"omitempty,len=1"`
	ClassCapacity         int     `yaml:"class_capacity" validate:"gte=0"`
}

var configValidator = validator.New(validator.WithRequiredStructEnabled())

// LoadFileConfig reads and validates a YAML configuration file.
func LoadFileConfig(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return ParseFileConfig(data)
}

// ParseFileConfig decodes and validates YAML configuration. Unknown keys
// are rejected.
func ParseFileConfig(data []byte) (*FileConfig, error) {
	var fc FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := configValidator.Struct(&fc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	return &fc, nil
}

// Options converts the non-zero fields into options.
func (fc *FileConfig) Options() []Option {
	var opts []Option
	if fc.ChunkSize > 0 {
		opts = append(opts, WithChunkSize(fc.ChunkSize))
	}
	if fc.ExpectedRecords > 0 {
		opts = append(opts, WithExpectedRecords(fc.ExpectedRecords))
	}
	if fc.EnoughMeasurements > 0 {
		opts = append(opts, WithEnoughMeasurements(fc.EnoughMeasurements))
	}
	if fc.ModerateThreshold > 0 || fc.OverwhelmingThreshold > 0 {
		moderate, overwhelming := fc.ModerateThreshold, fc.OverwhelmingThreshold
		if moderate == 0 {
			moderate = bank.DefaultModerate
		}
		if overwhelming == 0 {
			overwhelming = bank.DefaultOverwhelming
		}
		opts = append(opts, WithThresholds(moderate, overwhelming))
	}
	if fc.BaselineTag != "" {
		opts = append(opts, WithBaselineTag(fc.BaselineTag[0]))
	}
	if fc.ClassCapacity > 0 {
		opts = append(opts, WithClassCapacity(fc.ClassCapacity))
	}
	return opts
}
