// Package threshold evaluates dataset assertions against an analysis summary.
package threshold

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/torosent/netsynth/internal/analysis"
)

// Threshold represents a dataset assertion that can pass or fail.
type Threshold struct {
	Metric    string  // e.g. "rtt", "throughput", "loss_free", "rtt_throughput"
	Aggregate string  // e.g. "mean", "p99", "rate", "corr"
	Operator  string  // "<", "<=", ">", ">=", "=="
	Value     float64 // The value to compare against
	Raw       string  // Original threshold string for display
}

// Result represents the outcome of evaluating a threshold.
type Result struct {
	Threshold Threshold
	Actual    float64
	Pass      bool
	Message   string
}

// Evaluator evaluates thresholds against a summary.
type Evaluator struct {
	thresholds []Threshold
}

// NewEvaluator creates a new threshold evaluator.
func NewEvaluator(thresholds []Threshold) *Evaluator {
	return &Evaluator{thresholds: thresholds}
}

// Evaluate checks all thresholds against the provided summary.
func (e *Evaluator) Evaluate(summary analysis.Summary) []Result {
	if len(e.thresholds) == 0 {
		return nil
	}
	results := make([]Result, 0, len(e.thresholds))
	for _, t := range e.thresholds {
		results = append(results, evaluateOne(t, summary))
	}
	return results
}

// AllPassed reports whether every result passed.
func AllPassed(results []Result) bool {
	for _, r := range results {
		if !r.Pass {
			return false
		}
	}
	return true
}

func evaluateOne(t Threshold, summary analysis.Summary) Result {
	actual, err := extractValue(t, summary)
	if err != nil {
		return Result{
			Threshold: t,
			Pass:      false,
			Message:   fmt.Sprintf("error: %v", err),
		}
	}

	pass := compareValues(actual, t.Operator, t.Value)
	status := "✓"
	if !pass {
		status = "✗"
	}
	return Result{
		Threshold: t,
		Actual:    actual,
		Pass:      pass,
		Message:   fmt.Sprintf("%s %s: %.4f %s %.4f", status, t.Raw, actual, t.Operator, t.Value),
	}
}

var thresholdPattern = regexp.MustCompile(`^([a-z_]+):([a-z0-9_]+)\s*([<>=!]+)\s*(-?[0-9.]+)$`)

// Parse parses a threshold string. Supported forms:
//   - "rtt:mean < 45"               (rtt/ttfb/throughput with mean, min, max, stddev, p50, p90, p99)
//   - "loss_free:rate >= 0.8"       (fraction of rows with zero loss)
//   - "lossy:count <= 100"          (rows in the congested regime)
//   - "rtt_throughput:corr < -0.3"  (Pearson correlation; also ttfb_throughput, loss_throughput)
func Parse(s string) (Threshold, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Threshold{}, fmt.Errorf("empty threshold string")
	}

	matches := thresholdPattern.FindStringSubmatch(s)
	if matches == nil {
		return Threshold{}, fmt.Errorf("invalid threshold format: %q (expected metric:aggregate operator value, e.g. 'rtt:mean < 45')", s)
	}

	metric := matches[1]
	aggregate := matches[2]
	operator := matches[3]

	value, err := strconv.ParseFloat(matches[4], 64)
	if err != nil {
		return Threshold{}, fmt.Errorf("invalid threshold value %q: %v", matches[4], err)
	}
	if !isValidOperator(operator) {
		return Threshold{}, fmt.Errorf("unsupported operator: %q (supported: <, <=, >, >=, ==)", operator)
	}

	t := Threshold{
		Metric:    metric,
		Aggregate: aggregate,
		Operator:  operator,
		Value:     value,
		Raw:       s,
	}
	// Validate the metric/aggregate pair eagerly so a typo fails before
	// generation rather than at evaluation time.
	if _, err := extractValue(t, analysis.Summary{}); err != nil {
		return Threshold{}, err
	}
	return t, nil
}

// ParseMultiple parses multiple threshold strings, reporting every error.
func ParseMultiple(thresholds []string) ([]Threshold, error) {
	if len(thresholds) == 0 {
		return nil, nil
	}

	result := make([]Threshold, 0, len(thresholds))
	var issues []string
	for i, s := range thresholds {
		t, err := Parse(s)
		if err != nil {
			issues = append(issues, fmt.Sprintf("threshold[%d]: %v", i, err))
			continue
		}
		result = append(result, t)
	}
	if len(issues) > 0 {
		return nil, fmt.Errorf("threshold parsing errors: %s", strings.Join(issues, "; "))
	}
	return result, nil
}

func isValidOperator(operator string) bool {
	switch operator {
	case "<", "<=", ">", ">=", "==":
		return true
	}
	return false
}

func extractValue(t Threshold, summary analysis.Summary) (float64, error) {
	switch t.Metric {
	case "rtt":
		return extractAggregate(t.Aggregate, summary.RTT, t.Metric)
	case "ttfb":
		return extractAggregate(t.Aggregate, summary.TTFB, t.Metric)
	case "throughput":
		return extractAggregate(t.Aggregate, summary.Throughput, t.Metric)
	case "loss_free":
		if t.Aggregate != "rate" {
			return 0, fmt.Errorf("unsupported aggregate %q for loss_free (use rate)", t.Aggregate)
		}
		return summary.LossFreeRate, nil
	case "lossy":
		if t.Aggregate != "count" {
			return 0, fmt.Errorf("unsupported aggregate %q for lossy (use count)", t.Aggregate)
		}
		return float64(summary.LossyCount), nil
	case "rtt_throughput":
		if t.Aggregate != "corr" {
			return 0, fmt.Errorf("unsupported aggregate %q for rtt_throughput (use corr)", t.Aggregate)
		}
		return summary.RTTThroughputCorr, nil
	case "ttfb_throughput":
		if t.Aggregate != "corr" {
			return 0, fmt.Errorf("unsupported aggregate %q for ttfb_throughput (use corr)", t.Aggregate)
		}
		return summary.TTFBThroughputCorr, nil
	case "loss_throughput":
		if t.Aggregate != "corr" {
			return 0, fmt.Errorf("unsupported aggregate %q for loss_throughput (use corr)", t.Aggregate)
		}
		return summary.LossThroughputCorr, nil
	default:
		return 0, fmt.Errorf("unsupported metric: %q (supported: rtt, ttfb, throughput, loss_free, lossy, rtt_throughput, ttfb_throughput, loss_throughput)", t.Metric)
	}
}

func extractAggregate(aggregate string, m analysis.MetricSummary, metric string) (float64, error) {
	switch aggregate {
	case "mean", "avg":
		return m.Mean, nil
	case "min":
		return m.Min, nil
	case "max":
		return m.Max, nil
	case "stddev":
		return m.StdDev, nil
	case "p50":
		return m.P50, nil
	case "p90":
		return m.P90, nil
	case "p99":
		return m.P99, nil
	default:
		return 0, fmt.Errorf("unsupported aggregate %q for %s (supported: mean, min, max, stddev, p50, p90, p99)", aggregate, metric)
	}
}

func compareValues(actual float64, operator string, expected float64) bool {
	switch operator {
	case "<":
		return actual < expected
	case "<=":
		return actual <= expected
	case ">":
		return actual > expected
	case ">=":
		return actual >= expected
	case "==":
		return actual == expected
	default:
		return false
	}
}
