package bfv

import (
	"math"
	"math/big"

	"github.com/ALTree/bigfloat"
	"github.com/montanaflynn/stats"
)

// The noise budget of a ciphertext is floor(log2(Δ/(2E))) where E bounds
// the absolute value of the coefficients of its noise: the budget is the
// number of bits between the noise and the decryption failure threshold Δ/2.
// Bounds are heuristic, at six standard deviations.

const noisePrec = 128

// AddCost is the number of bits of budget consumed by Add and Sub.
const AddCost = 1

func newFloat(x float64) *big.Float {
	return new(big.Float).SetPrec(noisePrec).SetFloat64(x)
}

func sqrt(x *big.Float) *big.Float {
	return new(big.Float).SetPrec(noisePrec).Sqrt(x)
}

func log2(x *big.Float) float64 {
	if x.Sign() <= 0 {
		return math.Inf(-1)
	}
	ln := bigfloat.Log(new(big.Float).SetPrec(noisePrec).Set(x))
	f, _ := new(big.Float).Quo(ln, bigfloat.Log(newFloat(2))).Float64()
	return f
}

// NoiseBound returns log2 of the largest noise compatible with budget b.
func (p Parameters) NoiseBound(b int) float64 {
	return log2(p.noiseFromBudget(b))
}

// budgetFromNoise returns floor(log2(Δ/(2E))). E must be positive.
func (p Parameters) budgetFromNoise(E *big.Float) int {
	x := new(big.Float).SetPrec(noisePrec).SetUint64(p.delta)
	x.Quo(x, new(big.Float).Mul(E, newFloat(2)))
	// x = mant * 2^exp with mant in [0.5, 1)
	return x.MantExp(nil) - 1
}

// noiseFromBudget returns Δ/2^(b+1), the largest noise compatible with budget b.
func (p Parameters) noiseFromBudget(b int) *big.Float {
	x := new(big.Float).SetPrec(noisePrec).SetUint64(p.delta)
	return x.SetMantExp(x, -(b + 1))
}

// estimateFreshBudget bounds the noise e0 + e1*s - e*u of a fresh ciphertext.
func (p Parameters) estimateFreshBudget() int {
	N := float64(p.N())
	return p.budgetFromNoise(newFloat(6 * p.sigma * math.Sqrt(2*N*TernaryDensity+1)))
}

// estimateMulCost returns ceil(log2(2t*sqrt(N)*(1+sqrt(N*ρ)))), the growth
// factor of the noise through the tensoring and its scaling by t/Q.
func (p Parameters) estimateMulCost() int {
	N := newFloat(float64(p.N()))
	growth := new(big.Float).SetPrec(noisePrec).SetUint64(p.t << 1)
	growth.Mul(growth, sqrt(N))
	growth.Mul(growth, new(big.Float).Add(newFloat(1), sqrt(new(big.Float).Mul(N, newFloat(TernaryDensity)))))
	return int(math.Ceil(log2(growth)))
}

// keySwitchNoise bounds sum_j D_j*e_j for digits D_j uniform in [0, w).
func (p Parameters) keySwitchNoise() *big.Float {
	E := new(big.Float).SetPrec(noisePrec).SetUint64(p.Base())
	E.Mul(E, newFloat(6*p.sigma))
	return E.Mul(E, sqrt(newFloat(float64(p.gadgetLen*p.N())/3)))
}

// relinearizedBudget returns the budget after adding the key-switching noise
// to a ciphertext of budget b.
func (p Parameters) relinearizedBudget(b int) int {
	E := p.noiseFromBudget(b)
	E.Add(E, p.keySwitchNoise())
	return min(b, p.budgetFromNoise(E))
}

// NoiseStats summarizes the measured noise of a ciphertext.
type NoiseStats struct {
	// Max, Mean and StdDev are taken over the absolute values of the
	// centered noise coefficients.
	Max    float64
	Mean   float64
	StdDev float64

	// Budget is floor(log2(Δ/(2*Max))).
	Budget int
}

func newNoiseStats(params Parameters, noise []int64) (ns NoiseStats, err error) {

	values := make(stats.Float64Data, len(noise))
	for i, v := range noise {
		values[i] = math.Abs(float64(v))
	}

	if ns.Max, err = stats.Max(values); err != nil {
		return
	}

	if ns.Mean, err = stats.Mean(values); err != nil {
		return
	}

	if ns.StdDev, err = stats.StandardDeviation(values); err != nil {
		return
	}

	ns.Budget = params.budgetFromNoise(newFloat(math.Max(ns.Max, 0.5)))

	return
}
