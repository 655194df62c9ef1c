package dudect

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctbench/dudect/internal/bank"
)

// TestConfigOptions verifies configuration options work.
func TestConfigOptions(t *testing.T) {
	cfg := defaultConfig()

	// Default values
	assert.Equal(t, DefaultChunkSize, cfg.chunkSize)
	assert.Equal(t, float64(bank.DefaultEnough), cfg.enoughMeasurements)
	assert.Equal(t, float64(bank.DefaultModerate), cfg.moderateThreshold)
	assert.Equal(t, float64(bank.DefaultOverwhelming), cfg.overwhelmingThreshold)
	assert.Equal(t, byte('X'), cfg.baselineTag)
	assert.Equal(t, DefaultClassCapacity, cfg.classCapacity)
	require.NoError(t, cfg.validate())

	// Apply options
	WithChunkSize(500)(cfg)
	WithExpectedRecords(2_000)(cfg)
	WithThresholds(4.5, 100)(cfg)
	WithBaselineTag('B')(cfg)
	WithEnoughMeasurements(1_000)(cfg)
	WithLogger(nil)(cfg)

	assert.Equal(t, 500, cfg.chunkSize)
	assert.Equal(t, 2_000, cfg.expectedRecords)
	assert.Equal(t, bank.Policy{Enough: 1_000, Moderate: 4.5, Overwhelming: 100}, cfg.policy())
	assert.Equal(t, byte('B'), cfg.baselineTag)
	assert.NotNil(t, cfg.logger)
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"zero chunk", WithChunkSize(0)},
		{"negative enough", WithEnoughMeasurements(-1)},
		{"zero moderate", WithThresholds(0, 500)},
		{"inverted thresholds", WithThresholds(10, 5)},
		{"negative capacity", WithClassCapacity(-1)},
		{"negative max samples", WithMaxSamples(-1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := newConfig([]Option{tc.opt})
			assert.ErrorIs(t, cfg.validate(), ErrInvalidConfig)
		})
	}
}

func TestParseFileConfig(t *testing.T) {
	fc, err := ParseFileConfig([]byte(`
chunk_size: 5000
expected_records: 60000
enough_measurements: 2000
moderate_threshold: 4.5
baseline_tag: "B"
class_capacity: 100000
`))
	require.NoError(t, err)
	assert.Equal(t, 5000, fc.ChunkSize)
	assert.Equal(t, "B", fc.BaselineTag)

	cfg := newConfig(fc.Options())
	assert.Equal(t, 5000, cfg.chunkSize)
	assert.Equal(t, 60000, cfg.expectedRecords)
	assert.Equal(t, 2000.0, cfg.enoughMeasurements)
	assert.Equal(t, 4.5, cfg.moderateThreshold)
	assert.Equal(t, float64(bank.DefaultOverwhelming), cfg.overwhelmingThreshold)
	assert.Equal(t, byte('B'), cfg.baselineTag)
	assert.Equal(t, 100000, cfg.classCapacity)
}

func TestParseFileConfigEmpty(t *testing.T) {
	fc, err := ParseFileConfig(nil)
	require.NoError(t, err)
	assert.Empty(t, fc.Options())
}

func TestParseFileConfigRejects(t *testing.T) {
	for name, doc := range map[string]string{
		"unknown key":    "chunk: 10\n",
		"negative chunk": "chunk_size: -1\n",
		"long tag":       "baseline_tag: XY\n",
		"not yaml":       "chunk_size: [\n",
	} {
		_, err := ParseFileConfig([]byte(doc))
		assert.ErrorIs(t, err, ErrInvalidConfig, name)
	}
}

func TestLoadFileConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dudect.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 100\n"), 0o600))

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 100, fc.ChunkSize)

	_, err = LoadFileConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
