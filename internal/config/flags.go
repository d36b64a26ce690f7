package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// newFlagCommand creates a cobra command with all flags configured.
func newFlagCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "netsynth",
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetOut(os.Stdout)
	configureFlags(cmd.Flags())
	return cmd
}

// configureFlags sets up all CLI flags on the provided flag set.
func configureFlags(flags *pflag.FlagSet) {
	// Generation flags
	flags.IntP("samples", "n", 500, "Number of synthetic samples to generate")
	flags.Int64P("seed", "s", 42, "Random seed controlling reproducibility")
	flags.IntP("workers", "w", 1, "Number of goroutines filling rows (output is identical for any value)")

	// Model calibration flags
	flags.Float64("rtt-median", 30, "Median network RTT in milliseconds")
	flags.Float64("rtt-sigma", 0.5, "Log-space sigma of the RTT distribution")
	flags.Float64("delay-median", 20, "Median server delay in milliseconds")
	flags.Float64("delay-sigma", 0.8, "Log-space sigma of the server delay distribution")
	flags.Float64("loss-probability", 0.15, "Probability a sample falls in the congested (lossy) regime")
	flags.Float64("loss-min", 0.001, "Minimum loss rate in the congested regime")
	flags.Float64("loss-max", 0.02, "Maximum loss rate in the congested regime")
	flags.Float64("throughput-constant", 10000, "Base constant of the throughput cost model")
	flags.Float64("loss-weight", 5000, "Weight amplifying packet loss in the cost model")
	flags.Float64("noise-min", 0.9, "Lower bound of the multiplicative throughput noise band")
	flags.Float64("noise-max", 1.1, "Upper bound of the multiplicative throughput noise band")
	flags.Float64("throughput-floor", 0.01, "Minimum throughput in Mbps after clamping")

	// Output flags
	flags.StringP("out", "o", "synthetic_cdn_data.csv", "Path of the generated CSV dataset")
	flags.String("json-out", "", "Optional path for a JSON export (includes server_delay)")
	flags.String("metadata-out", "", "Optional path for a YAML metadata sidecar")
	flags.Bool("json-output", false, "Emit the summary report as JSON")
	flags.String("config", "", "Path to configuration file (JSON or YAML)")

	// Threshold flags
	flags.StringSlice("threshold", nil, "Dataset assertion (repeatable, e.g. 'rtt:mean < 45')")

	// Tracing flags
	flags.Bool("tracing-enabled", false, "Enable OpenTelemetry tracing")
	flags.String("tracing-endpoint", "", "OTLP exporter endpoint")
	flags.String("tracing-protocol", "grpc", "OTLP protocol: 'grpc' or 'http'")
	flags.String("tracing-service-name", "netsynth", "Service name reported on spans")
	flags.Float64("tracing-sample-rate", 1.0, "Trace sample rate between 0.0 and 1.0")
	flags.Bool("tracing-insecure", false, "Skip TLS for the OTLP exporter")

	// Collect flags
	flags.Int64("collect-measurement", 0, "RIPE Atlas measurement ID to fetch (enables collect mode)")
	flags.String("collect-base-url", "https://atlas.ripe.net/api/v2", "RIPE Atlas API base URL")
	flags.Float64("collect-rate", 1, "Max API requests per second")
	flags.Duration("collect-timeout", 30*time.Second, "Per-request timeout for the Atlas API")
	flags.Int("collect-max-results", 0, "Max results to keep (0 means all)")
	flags.String("collect-out", "atlas_results.csv", "Path of the collected raw CSV")
}

// displayHelp prints the help message for a command.
func displayHelp(cmd *cobra.Command) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Usage: %s\n\nFlags:\n", cmd.UseLine())
	fs := cmd.Flags()
	fs.SetOutput(out)
	fs.PrintDefaults()
}

// applyFlagOverrides applies command-line flag values to the config,
// overriding values from the config file.
func applyFlagOverrides(cfg *Config, fs *pflag.FlagSet) error {
	if fs.Changed("samples") {
		val, err := fs.GetInt("samples")
		if err != nil {
			return err
		}
		cfg.Samples = val
	}
	if fs.Changed("seed") {
		val, err := fs.GetInt64("seed")
		if err != nil {
			return err
		}
		cfg.Seed = val
	}
	if fs.Changed("workers") {
		val, err := fs.GetInt("workers")
		if err != nil {
			return err
		}
		cfg.Workers = val
	}

	modelFlags := []struct {
		name string
		dst  *float64
	}{
		{"rtt-median", &cfg.Model.RTTMedianMs},
		{"rtt-sigma", &cfg.Model.RTTSigma},
		{"delay-median", &cfg.Model.DelayMedianMs},
		{"delay-sigma", &cfg.Model.DelaySigma},
		{"loss-probability", &cfg.Model.LossProbability},
		{"loss-min", &cfg.Model.LossMin},
		{"loss-max", &cfg.Model.LossMax},
		{"throughput-constant", &cfg.Model.ThroughputConstant},
		{"loss-weight", &cfg.Model.LossWeight},
		{"noise-min", &cfg.Model.NoiseMin},
		{"noise-max", &cfg.Model.NoiseMax},
		{"throughput-floor", &cfg.Model.ThroughputFloor},
	}
	for _, f := range modelFlags {
		if fs.Changed(f.name) {
			val, err := fs.GetFloat64(f.name)
			if err != nil {
				return err
			}
			*f.dst = val
		}
	}

	if fs.Changed("out") {
		val, err := fs.GetString("out")
		if err != nil {
			return err
		}
		cfg.Output.CSVPath = strings.TrimSpace(val)
	}
	if fs.Changed("json-out") {
		val, err := fs.GetString("json-out")
		if err != nil {
			return err
		}
		cfg.Output.JSONPath = strings.TrimSpace(val)
	}
	if fs.Changed("metadata-out") {
		val, err := fs.GetString("metadata-out")
		if err != nil {
			return err
		}
		cfg.Output.MetadataPath = strings.TrimSpace(val)
	}
	if fs.Changed("json-output") {
		val, err := fs.GetBool("json-output")
		if err != nil {
			return err
		}
		cfg.JSONOutput = val
	}
	if fs.Changed("threshold") {
		val, err := fs.GetStringSlice("threshold")
		if err != nil {
			return err
		}
		cfg.Thresholds = val
	}

	if fs.Changed("tracing-enabled") {
		val, err := fs.GetBool("tracing-enabled")
		if err != nil {
			return err
		}
		cfg.Tracing.Enabled = val
	}
	if fs.Changed("tracing-endpoint") {
		val, err := fs.GetString("tracing-endpoint")
		if err != nil {
			return err
		}
		cfg.Tracing.Endpoint = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-protocol") {
		val, err := fs.GetString("tracing-protocol")
		if err != nil {
			return err
		}
		cfg.Tracing.Protocol = strings.ToLower(strings.TrimSpace(val))
	}
	if fs.Changed("tracing-service-name") {
		val, err := fs.GetString("tracing-service-name")
		if err != nil {
			return err
		}
		cfg.Tracing.ServiceName = strings.TrimSpace(val)
	}
	if fs.Changed("tracing-sample-rate") {
		val, err := fs.GetFloat64("tracing-sample-rate")
		if err != nil {
			return err
		}
		cfg.Tracing.SampleRate = val
	}
	if fs.Changed("tracing-insecure") {
		val, err := fs.GetBool("tracing-insecure")
		if err != nil {
			return err
		}
		cfg.Tracing.Insecure = val
	}

	if fs.Changed("collect-measurement") {
		val, err := fs.GetInt64("collect-measurement")
		if err != nil {
			return err
		}
		cfg.Collect.MeasurementID = val
	}
	if fs.Changed("collect-base-url") {
		val, err := fs.GetString("collect-base-url")
		if err != nil {
			return err
		}
		cfg.Collect.BaseURL = strings.TrimSpace(val)
	}
	if fs.Changed("collect-rate") {
		val, err := fs.GetFloat64("collect-rate")
		if err != nil {
			return err
		}
		cfg.Collect.RatePerSecond = val
	}
	if fs.Changed("collect-timeout") {
		val, err := fs.GetDuration("collect-timeout")
		if err != nil {
			return err
		}
		cfg.Collect.Timeout = val
	}
	if fs.Changed("collect-max-results") {
		val, err := fs.GetInt("collect-max-results")
		if err != nil {
			return err
		}
		cfg.Collect.MaxResults = val
	}
	if fs.Changed("collect-out") {
		val, err := fs.GetString("collect-out")
		if err != nil {
			return err
		}
		cfg.Collect.OutPath = strings.TrimSpace(val)
	}

	return nil
}
