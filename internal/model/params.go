package model

import (
	"fmt"
	"math"
)

// Params holds the calibration constants of the causal model. These are the
// model's "physics": changing them changes the generated population without
// touching the generation logic.
type Params struct {
	// Underlying-normal parameters of the log-normal network delay draw.
	// The defaults put the RTT median near 30ms, typical for CDN edge servers.
	RTTMeanLog  float64 `yaml:"rtt_mean_log"`
	RTTSigmaLog float64 `yaml:"rtt_sigma_log"`

	// Underlying-normal parameters of the log-normal server delay draw.
	// Higher sigma than RTT to represent unstable server load.
	DelayMeanLog  float64 `yaml:"delay_mean_log"`
	DelaySigmaLog float64 `yaml:"delay_sigma_log"`

	// LossProbability is the mixture weight of the congested branch:
	// a row has zero loss with probability 1-LossProbability, otherwise its
	// loss rate is drawn uniformly from [LossMin, LossMax].
	LossProbability float64 `yaml:"loss_probability"`
	LossMin         float64 `yaml:"loss_min"`
	LossMax         float64 `yaml:"loss_max"`

	// Throughput cost model: total_cost = rtt + ttfb + loss*LossWeight,
	// base throughput = ThroughputConstant / total_cost. The loss weight
	// amplifies small loss fractions so that congestion dominates the cost,
	// matching the throughput collapse TCP exhibits under loss.
	ThroughputConstant float64 `yaml:"throughput_constant"`
	LossWeight         float64 `yaml:"loss_weight"`

	// Multiplicative measurement noise band applied to base throughput.
	NoiseMin float64 `yaml:"noise_min"`
	NoiseMax float64 `yaml:"noise_max"`

	// ThroughputFloor clamps the final throughput from below.
	ThroughputFloor float64 `yaml:"throughput_floor"`
}

// DefaultParams returns the reference calibration of the model.
func DefaultParams() Params {
	return Params{
		RTTMeanLog:         math.Log(30),
		RTTSigmaLog:        0.5,
		DelayMeanLog:       math.Log(20),
		DelaySigmaLog:      0.8,
		LossProbability:    0.15,
		LossMin:            0.001,
		LossMax:            0.02,
		ThroughputConstant: 10000,
		LossWeight:         5000,
		NoiseMin:           0.9,
		NoiseMax:           1.1,
		ThroughputFloor:    0.01,
	}
}

// Throughput evaluates the cost model for a single row given the latent draws
// and a noise multiplier. The total cost cannot be non-positive under the
// model's distributions, but the floor is applied regardless so degenerate
// parameters never produce an infinite or negative throughput.
func (p Params) Throughput(rtt, ttfb, loss, noise float64) float64 {
	totalCost := rtt + ttfb + loss*p.LossWeight
	if totalCost <= 0 {
		return p.ThroughputFloor
	}
	throughput := p.ThroughputConstant / totalCost * noise
	if throughput < p.ThroughputFloor {
		throughput = p.ThroughputFloor
	}
	return throughput
}

// Validate reports the first structural problem with the calibration, if any.
func (p Params) Validate() error {
	if p.RTTSigmaLog <= 0 {
		return fmt.Errorf("rtt sigma must be > 0, got %g", p.RTTSigmaLog)
	}
	if p.DelaySigmaLog <= 0 {
		return fmt.Errorf("delay sigma must be > 0, got %g", p.DelaySigmaLog)
	}
	if p.LossProbability < 0 || p.LossProbability > 1 {
		return fmt.Errorf("loss probability must be in [0, 1], got %g", p.LossProbability)
	}
	if p.LossMin < 0 || p.LossMax > 1 || p.LossMin > p.LossMax {
		return fmt.Errorf("loss range [%g, %g] must satisfy 0 <= min <= max <= 1", p.LossMin, p.LossMax)
	}
	if p.ThroughputConstant <= 0 {
		return fmt.Errorf("throughput constant must be > 0, got %g", p.ThroughputConstant)
	}
	if p.LossWeight < 0 {
		return fmt.Errorf("loss weight must be >= 0, got %g", p.LossWeight)
	}
	if p.NoiseMin <= 0 || p.NoiseMin > p.NoiseMax {
		return fmt.Errorf("noise band [%g, %g] must satisfy 0 < min <= max", p.NoiseMin, p.NoiseMax)
	}
	if p.ThroughputFloor <= 0 {
		return fmt.Errorf("throughput floor must be > 0, got %g", p.ThroughputFloor)
	}
	return nil
}
