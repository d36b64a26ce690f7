// Package output renders generation reports.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/torosent/netsynth/internal/analysis"
	"github.com/torosent/netsynth/internal/dataset"
	"github.com/torosent/netsynth/internal/threshold"
)

// Report bundles everything the CLI emits about one generated dataset.
type Report struct {
	Dataset dataset.Metadata `json:"dataset"`
	Summary analysis.Summary `json:"summary"`
}

// PrintReport outputs a human-readable summary report.
func PrintReport(w io.Writer, report Report) {
	s := report.Summary
	fmt.Fprintln(w, "\n--- Synthetic Dataset ---")
	fmt.Fprintf(w, "ID:                %s\n", report.Dataset.ID)
	fmt.Fprintf(w, "Samples:           %d\n", s.Samples)
	fmt.Fprintf(w, "Seed:              %d\n", report.Dataset.Seed)

	fmt.Fprintln(w, "\nRTT (ms):")
	printMetric(w, s.RTT)
	fmt.Fprintln(w, "\nTTFB (ms):")
	printMetric(w, s.TTFB)
	fmt.Fprintln(w, "\nThroughput (Mbps):")
	printMetric(w, s.Throughput)

	fmt.Fprintln(w, "\nLoss mixture:")
	fmt.Fprintf(w, "  Loss-free:       %.1f%%\n", s.LossFreeRate*100)
	fmt.Fprintf(w, "  Lossy samples:   %d\n", s.LossyCount)
	if s.LossyCount > 0 {
		fmt.Fprintf(w, "  Mean loss rate:  %.4f\n", s.MeanPositiveLoss)
	}

	fmt.Fprintln(w, "\nCorrelations (Pearson):")
	fmt.Fprintf(w, "  RTT/Throughput:  %.3f\n", s.RTTThroughputCorr)
	fmt.Fprintf(w, "  TTFB/Throughput: %.3f\n", s.TTFBThroughputCorr)
	if s.LossyCount > 0 {
		fmt.Fprintf(w, "  Loss/Throughput: %.3f\n", s.LossThroughputCorr)
	}
}

// PrintJSONReport outputs a JSON-formatted report.
func PrintJSONReport(w io.Writer, report Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// PrintThresholdResults outputs one line per evaluated threshold.
func PrintThresholdResults(w io.Writer, results []threshold.Result) {
	if len(results) == 0 {
		return
	}
	fmt.Fprintln(w, "\nThresholds:")
	for _, r := range results {
		fmt.Fprintf(w, "  %s\n", r.Message)
	}
}

func printMetric(w io.Writer, m analysis.MetricSummary) {
	fmt.Fprintf(w, "  Mean:            %.2f\n", m.Mean)
	fmt.Fprintf(w, "  Min:             %.2f\n", m.Min)
	fmt.Fprintf(w, "  Max:             %.2f\n", m.Max)
	fmt.Fprintf(w, "  StdDev:          %.2f\n", m.StdDev)
	fmt.Fprintf(w, "  P50:             %.2f\n", m.P50)
	fmt.Fprintf(w, "  P90:             %.2f\n", m.P90)
	fmt.Fprintf(w, "  P99:             %.2f\n", m.P99)
}
