package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Loader handles loading configuration from files and command-line arguments.
type Loader struct{}

// ErrHelpRequested is returned when the user requests help via --help.
var ErrHelpRequested = errors.New("help requested")

// NewLoader creates a new configuration Loader.
func NewLoader() *Loader {
	return &Loader{}
}

// Default returns the built-in configuration: 500 samples from seed 42 with
// the reference calibration.
func Default() *Config {
	return &Config{
		Samples: 500,
		Seed:    42,
		Workers: 1,
		Model: ModelConfig{
			RTTMedianMs:        30,
			RTTSigma:           0.5,
			DelayMedianMs:      20,
			DelaySigma:         0.8,
			LossProbability:    0.15,
			LossMin:            0.001,
			LossMax:            0.02,
			ThroughputConstant: 10000,
			LossWeight:         5000,
			NoiseMin:           0.9,
			NoiseMax:           1.1,
			ThroughputFloor:    0.01,
		},
		Output: OutputConfig{
			CSVPath: "synthetic_cdn_data.csv",
		},
		Tracing: TracingConfig{
			Protocol:    "grpc",
			ServiceName: "netsynth",
			SampleRate:  1.0,
		},
		Collect: CollectConfig{
			BaseURL:       "https://atlas.ripe.net/api/v2",
			RatePerSecond: 1,
			Timeout:       30 * time.Second,
			OutPath:       "atlas_results.csv",
		},
	}
}

// Load parses command-line arguments and an optional config file into a
// Config. Flags override file settings, which override the defaults.
func (Loader) Load(args []string) (*Config, error) {
	cmd := newFlagCommand()
	if err := cmd.Flags().Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
		return nil, err
	}

	flagSet := cmd.Flags()
	if helpFlag := flagSet.Lookup("help"); helpFlag != nil {
		if wantsHelp, err := strconv.ParseBool(helpFlag.Value.String()); err == nil && wantsHelp {
			displayHelp(cmd)
			return nil, ErrHelpRequested
		}
	}

	configPath := flagSet.Lookup("config").Value.String()
	cfgViper := viper.New()
	if configPath != "" {
		cfgViper.SetConfigFile(configPath)
		if err := cfgViper.ReadInConfig(); err != nil {
			return nil, err
		}
	}

	cfg := Default()
	cfg.ConfigFile = configPath

	if err := applyConfigSettings(cfg, cfgViper.AllSettings()); err != nil {
		return nil, err
	}
	if err := applyFlagOverrides(cfg, flagSet); err != nil {
		return nil, err
	}

	// Environment fallback for the Atlas API key, which should not be passed
	// on the command line.
	if cfg.Collect.APIKey == "" {
		if envKey := os.Getenv("NETSYNTH_ATLAS_API_KEY"); envKey != "" {
			cfg.Collect.APIKey = envKey
		}
	}

	return cfg, nil
}

// applyConfigSettings applies settings from a config file to the Config.
func applyConfigSettings(cfg *Config, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}

	if raw, ok := lookupSetting(settings, "samples", "sample_count", "sample-count"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("samples: %w", err)
		}
		cfg.Samples = val
	}

	if raw, ok := lookupSetting(settings, "seed"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		cfg.Seed = val
	}

	if raw, ok := lookupSetting(settings, "workers"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("workers: %w", err)
		}
		cfg.Workers = val
	}

	if raw, ok := lookupSetting(settings, "jsonoutput", "json_output", "json-output"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("jsonOutput: %w", err)
		}
		cfg.JSONOutput = val
	}

	if raw, ok := lookupSetting(settings, "thresholds"); ok {
		val, err := asStringSlice(raw)
		if err != nil {
			return fmt.Errorf("thresholds: %w", err)
		}
		cfg.Thresholds = val
	}

	if raw, ok := lookupSetting(settings, "model"); ok {
		if err := applyModelSettings(&cfg.Model, raw); err != nil {
			return fmt.Errorf("model: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "output"); ok {
		if err := applyOutputSettings(&cfg.Output, raw); err != nil {
			return fmt.Errorf("output: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "tracing"); ok {
		if err := applyTracingSettings(&cfg.Tracing, raw); err != nil {
			return fmt.Errorf("tracing: %w", err)
		}
	}

	if raw, ok := lookupSetting(settings, "collect"); ok {
		if err := applyCollectSettings(&cfg.Collect, raw); err != nil {
			return fmt.Errorf("collect: %w", err)
		}
	}

	return nil
}

func applyModelSettings(m *ModelConfig, value interface{}) error {
	entry, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	fields := []struct {
		dst  *float64
		keys []string
	}{
		{&m.RTTMedianMs, []string{"rttmedianms", "rtt_median_ms", "rtt-median-ms"}},
		{&m.RTTSigma, []string{"rttsigma", "rtt_sigma", "rtt-sigma"}},
		{&m.DelayMedianMs, []string{"delaymedianms", "delay_median_ms", "delay-median-ms"}},
		{&m.DelaySigma, []string{"delaysigma", "delay_sigma", "delay-sigma"}},
		{&m.LossProbability, []string{"lossprobability", "loss_probability", "loss-probability"}},
		{&m.LossMin, []string{"lossmin", "loss_min", "loss-min"}},
		{&m.LossMax, []string{"lossmax", "loss_max", "loss-max"}},
		{&m.ThroughputConstant, []string{"throughputconstant", "throughput_constant", "throughput-constant"}},
		{&m.LossWeight, []string{"lossweight", "loss_weight", "loss-weight"}},
		{&m.NoiseMin, []string{"noisemin", "noise_min", "noise-min"}},
		{&m.NoiseMax, []string{"noisemax", "noise_max", "noise-max"}},
		{&m.ThroughputFloor, []string{"throughputfloor", "throughput_floor", "throughput-floor"}},
	}
	for _, f := range fields {
		if raw, ok := lookupSetting(entry, f.keys...); ok {
			val, err := asFloat64(raw)
			if err != nil {
				return fmt.Errorf("%s: %w", f.keys[1], err)
			}
			*f.dst = val
		}
	}
	return nil
}

func applyOutputSettings(o *OutputConfig, value interface{}) error {
	entry, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(entry, "csv"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("csv: %w", err)
		}
		o.CSVPath = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "json"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("json: %w", err)
		}
		o.JSONPath = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "metadata"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("metadata: %w", err)
		}
		o.MetadataPath = strings.TrimSpace(val)
	}
	return nil
}

func applyTracingSettings(t *TracingConfig, value interface{}) error {
	entry, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(entry, "enabled"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("enabled: %w", err)
		}
		t.Enabled = val
	}
	if raw, ok := lookupSetting(entry, "endpoint"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("endpoint: %w", err)
		}
		t.Endpoint = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "protocol"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("protocol: %w", err)
		}
		t.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if raw, ok := lookupSetting(entry, "servicename", "service_name", "service-name"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("service_name: %w", err)
		}
		t.ServiceName = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "samplerate", "sample_rate", "sample-rate"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("sample_rate: %w", err)
		}
		t.SampleRate = val
	}
	if raw, ok := lookupSetting(entry, "insecure"); ok {
		val, err := asBool(raw)
		if err != nil {
			return fmt.Errorf("insecure: %w", err)
		}
		t.Insecure = val
	}
	return nil
}

func applyCollectSettings(c *CollectConfig, value interface{}) error {
	entry, err := toStringKeyMap(value)
	if err != nil {
		return err
	}
	if raw, ok := lookupSetting(entry, "baseurl", "base_url", "base-url"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("base_url: %w", err)
		}
		c.BaseURL = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "measurementid", "measurement_id", "measurement-id"); ok {
		val, err := asInt64(raw)
		if err != nil {
			return fmt.Errorf("measurement_id: %w", err)
		}
		c.MeasurementID = val
	}
	if raw, ok := lookupSetting(entry, "apikey", "api_key", "api-key"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("api_key: %w", err)
		}
		c.APIKey = strings.TrimSpace(val)
	}
	if raw, ok := lookupSetting(entry, "ratepersecond", "rate_per_second", "rate-per-second"); ok {
		val, err := asFloat64(raw)
		if err != nil {
			return fmt.Errorf("rate_per_second: %w", err)
		}
		c.RatePerSecond = val
	}
	if raw, ok := lookupSetting(entry, "timeout"); ok {
		dur, err := asDuration(raw)
		if err != nil {
			return fmt.Errorf("timeout: %w", err)
		}
		c.Timeout = dur
	}
	if raw, ok := lookupSetting(entry, "maxresults", "max_results", "max-results"); ok {
		val, err := asInt(raw)
		if err != nil {
			return fmt.Errorf("max_results: %w", err)
		}
		c.MaxResults = val
	}
	if raw, ok := lookupSetting(entry, "out"); ok {
		val, err := asString(raw)
		if err != nil {
			return fmt.Errorf("out: %w", err)
		}
		c.OutPath = strings.TrimSpace(val)
	}
	return nil
}
