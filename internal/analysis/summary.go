// Package analysis computes descriptive statistics over generated tables.
package analysis

import (
	"fmt"

	"github.com/HdrHistogram/hdrhistogram-go"
	"github.com/montanaflynn/stats"

	"github.com/torosent/netsynth/internal/model"
)

// MetricSummary aggregates one column of the table.
type MetricSummary struct {
	Mean   float64 `json:"mean"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	StdDev float64 `json:"std_dev"`
	P50    float64 `json:"p50"`
	P90    float64 `json:"p90"`
	P99    float64 `json:"p99"`
}

// Summary describes the whole table: per-metric aggregates, the loss mixture
// split, and the cross-metric correlations the model is built to produce.
type Summary struct {
	Samples    int           `json:"samples"`
	RTT        MetricSummary `json:"rtt"`
	TTFB       MetricSummary `json:"ttfb"`
	Throughput MetricSummary `json:"throughput"`

	LossFreeRate     float64 `json:"loss_free_rate"`
	LossyCount       int     `json:"lossy_count"`
	MeanPositiveLoss float64 `json:"mean_positive_loss"`

	RTTThroughputCorr  float64 `json:"rtt_throughput_corr"`
	TTFBThroughputCorr float64 `json:"ttfb_throughput_corr"`
	LossThroughputCorr float64 `json:"loss_throughput_corr"`
}

// Summarize computes a Summary for the table.
func Summarize(table *model.Table) (Summary, error) {
	if table == nil || table.Len() == 0 {
		return Summary{}, fmt.Errorf("summarize: empty table")
	}

	rtt := table.Column(func(s model.Sample) float64 { return s.RTT })
	ttfb := table.Column(func(s model.Sample) float64 { return s.TTFB })
	loss := table.Column(func(s model.Sample) float64 { return s.Loss })
	throughput := table.Column(func(s model.Sample) float64 { return s.Throughput })

	summary := Summary{Samples: table.Len()}

	var err error
	if summary.RTT, err = summarizeLatency(rtt); err != nil {
		return Summary{}, fmt.Errorf("rtt: %w", err)
	}
	if summary.TTFB, err = summarizeLatency(ttfb); err != nil {
		return Summary{}, fmt.Errorf("ttfb: %w", err)
	}
	if summary.Throughput, err = summarizeMetric(throughput); err != nil {
		return Summary{}, fmt.Errorf("throughput: %w", err)
	}

	lossFree := 0
	positiveSum := 0.0
	for _, l := range loss {
		if l == 0 {
			lossFree++
		} else {
			positiveSum += l
		}
	}
	summary.LossFreeRate = float64(lossFree) / float64(len(loss))
	summary.LossyCount = len(loss) - lossFree
	if summary.LossyCount > 0 {
		summary.MeanPositiveLoss = positiveSum / float64(summary.LossyCount)
	}

	if summary.RTTThroughputCorr, err = stats.Pearson(rtt, throughput); err != nil {
		return Summary{}, fmt.Errorf("rtt/throughput correlation: %w", err)
	}
	if summary.TTFBThroughputCorr, err = stats.Pearson(ttfb, throughput); err != nil {
		return Summary{}, fmt.Errorf("ttfb/throughput correlation: %w", err)
	}
	// Pearson is undefined when one side has zero variance, which happens for
	// loss when every row lands in the clean regime.
	if summary.LossyCount > 0 {
		if summary.LossThroughputCorr, err = stats.Pearson(loss, throughput); err != nil {
			return Summary{}, fmt.Errorf("loss/throughput correlation: %w", err)
		}
	}

	return summary, nil
}

// summarizeLatency uses a histogram in integer microseconds for percentiles,
// tracking 1µs..60s with 3 significant figures.
func summarizeLatency(valuesMs []float64) (MetricSummary, error) {
	s, err := summarizeMoments(valuesMs)
	if err != nil {
		return MetricSummary{}, err
	}

	hist := hdrhistogram.New(1, 60_000_000, 3)
	for _, v := range valuesMs {
		us := int64(v * 1000)
		if us < hist.LowestTrackableValue() {
			us = hist.LowestTrackableValue()
		}
		if us > hist.HighestTrackableValue() {
			us = hist.HighestTrackableValue()
		}
		_ = hist.RecordValue(us)
	}
	s.P50 = float64(hist.ValueAtQuantile(50)) / 1000
	s.P90 = float64(hist.ValueAtQuantile(90)) / 1000
	s.P99 = float64(hist.ValueAtQuantile(99)) / 1000
	return s, nil
}

// summarizeMetric computes percentiles directly, for columns that are not
// latencies (throughput spans several orders of magnitude in Mbps).
func summarizeMetric(values []float64) (MetricSummary, error) {
	s, err := summarizeMoments(values)
	if err != nil {
		return MetricSummary{}, err
	}
	if s.P50, err = stats.Percentile(values, 50); err != nil {
		return MetricSummary{}, err
	}
	if s.P90, err = stats.Percentile(values, 90); err != nil {
		return MetricSummary{}, err
	}
	if s.P99, err = stats.Percentile(values, 99); err != nil {
		return MetricSummary{}, err
	}
	return s, nil
}

func summarizeMoments(values []float64) (MetricSummary, error) {
	var s MetricSummary
	var err error
	if s.Mean, err = stats.Mean(values); err != nil {
		return MetricSummary{}, err
	}
	if s.Min, err = stats.Min(values); err != nil {
		return MetricSummary{}, err
	}
	if s.Max, err = stats.Max(values); err != nil {
		return MetricSummary{}, err
	}
	if len(values) > 1 {
		if s.StdDev, err = stats.StdDevS(values); err != nil {
			return MetricSummary{}, err
		}
	}
	return s, nil
}
