package config

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/torosent/netsynth/internal/model"
)

// Config is the full runtime configuration of the netsynth CLI.
type Config struct {
	Samples    int           `mapstructure:"samples"`
	Seed       int64         `mapstructure:"seed"`
	Workers    int           `mapstructure:"workers"`
	JSONOutput bool          `mapstructure:"json_output"`
	Thresholds []string      `mapstructure:"thresholds"`
	Model      ModelConfig   `mapstructure:"model"`
	Output     OutputConfig  `mapstructure:"output"`
	Tracing    TracingConfig `mapstructure:"tracing"`
	Collect    CollectConfig `mapstructure:"collect"`
	ConfigFile string        `mapstructure:"-"`
}

// ModelConfig exposes the generator's calibration constants. Latency shapes
// are configured as median milliseconds plus log-space sigma, which is how
// the numbers are usually quoted; conversion to the underlying-normal mean
// happens in Params.
type ModelConfig struct {
	RTTMedianMs        float64 `mapstructure:"rtt_median_ms"`
	RTTSigma           float64 `mapstructure:"rtt_sigma"`
	DelayMedianMs      float64 `mapstructure:"delay_median_ms"`
	DelaySigma         float64 `mapstructure:"delay_sigma"`
	LossProbability    float64 `mapstructure:"loss_probability"`
	LossMin            float64 `mapstructure:"loss_min"`
	LossMax            float64 `mapstructure:"loss_max"`
	ThroughputConstant float64 `mapstructure:"throughput_constant"`
	LossWeight         float64 `mapstructure:"loss_weight"`
	NoiseMin           float64 `mapstructure:"noise_min"`
	NoiseMax           float64 `mapstructure:"noise_max"`
	ThroughputFloor    float64 `mapstructure:"throughput_floor"`
}

// Params converts the configured calibration into model parameters.
func (m ModelConfig) Params() model.Params {
	return model.Params{
		RTTMeanLog:         math.Log(m.RTTMedianMs),
		RTTSigmaLog:        m.RTTSigma,
		DelayMeanLog:       math.Log(m.DelayMedianMs),
		DelaySigmaLog:      m.DelaySigma,
		LossProbability:    m.LossProbability,
		LossMin:            m.LossMin,
		LossMax:            m.LossMax,
		ThroughputConstant: m.ThroughputConstant,
		LossWeight:         m.LossWeight,
		NoiseMin:           m.NoiseMin,
		NoiseMax:           m.NoiseMax,
		ThroughputFloor:    m.ThroughputFloor,
	}
}

// OutputConfig selects where generated artifacts land.
type OutputConfig struct {
	CSVPath      string `mapstructure:"csv"`
	JSONPath     string `mapstructure:"json"`
	MetadataPath string `mapstructure:"metadata"`
}

// TracingConfig configures the OTLP trace exporter.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	Protocol    string  `mapstructure:"protocol"`
	ServiceName string  `mapstructure:"service_name"`
	SampleRate  float64 `mapstructure:"sample_rate"`
	Insecure    bool    `mapstructure:"insecure"`
}

// CollectConfig configures the RIPE Atlas result collector. A non-zero
// MeasurementID switches the CLI into collect mode.
type CollectConfig struct {
	BaseURL       string        `mapstructure:"base_url"`
	MeasurementID int64         `mapstructure:"measurement_id"`
	APIKey        string        `mapstructure:"api_key"`
	RatePerSecond float64       `mapstructure:"rate_per_second"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxResults    int           `mapstructure:"max_results"`
	OutPath       string        `mapstructure:"out"`
}

// ValidationError aggregates every configuration issue found.
type ValidationError struct {
	issues []string
}

func (e ValidationError) Error() string {
	if len(e.issues) == 0 {
		return "validation failed"
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(e.issues, "; "))
}

// Issues returns the individual validation problems.
func (e ValidationError) Issues() []string {
	return append([]string(nil), e.issues...)
}

// Validate checks the full configuration and returns a ValidationError
// listing every problem found.
func (c Config) Validate() error {
	var issues []string

	if c.Samples < 1 {
		issues = append(issues, "samples must be >= 1")
	}
	if c.Workers < 1 {
		issues = append(issues, "workers must be >= 1")
	}

	issues = append(issues, validateModelConfig(c.Model)...)
	issues = append(issues, validateTracingConfig(c.Tracing)...)
	issues = append(issues, validateCollectConfig(c.Collect)...)

	if len(issues) > 0 {
		return ValidationError{issues: issues}
	}
	return nil
}

func validateModelConfig(m ModelConfig) []string {
	var issues []string
	if m.RTTMedianMs <= 0 {
		issues = append(issues, "model: rtt_median_ms must be > 0")
	}
	if m.DelayMedianMs <= 0 {
		issues = append(issues, "model: delay_median_ms must be > 0")
	}
	if len(issues) > 0 {
		// Params() would take the log of a non-positive median; stop here.
		return issues
	}
	if err := m.Params().Validate(); err != nil {
		issues = append(issues, fmt.Sprintf("model: %v", err))
	}
	return issues
}

func validateTracingConfig(t TracingConfig) []string {
	var issues []string
	if t.SampleRate < 0 || t.SampleRate > 1 {
		issues = append(issues, "tracing: sample_rate must be between 0.0 and 1.0")
	}
	switch strings.ToLower(strings.TrimSpace(t.Protocol)) {
	case "", "grpc", "http":
	default:
		issues = append(issues, fmt.Sprintf("tracing: protocol %q is not supported (use \"grpc\" or \"http\")", t.Protocol))
	}
	return issues
}

func validateCollectConfig(c CollectConfig) []string {
	var issues []string
	if c.MeasurementID < 0 {
		issues = append(issues, "collect: measurement_id must be >= 0")
	}
	if c.RatePerSecond < 0 {
		issues = append(issues, "collect: rate_per_second must be >= 0")
	}
	if c.Timeout < 0 {
		issues = append(issues, "collect: timeout must be >= 0")
	}
	if c.MaxResults < 0 {
		issues = append(issues, "collect: max_results must be >= 0")
	}
	if c.MeasurementID > 0 && strings.TrimSpace(c.BaseURL) == "" {
		issues = append(issues, "collect: base_url is required when measurement_id is set")
	}
	return issues
}
