package ring

import (
	"fmt"
	"math"

	"github.com/tuneinsight/vbfv/utils/sampling"
)

// Sampler samples polynomials of a Ring from a PRNG.
// Samplers are not safe for concurrent use unless their PRNG is.
type Sampler interface {
	ReadNew() (Poly, error)
}

type baseSampler struct {
	prng     sampling.PRNG
	baseRing *Ring
}

// UniformSampler samples polynomials with coefficients uniform in [0, Q).
type UniformSampler struct {
	baseSampler
}

// NewUniformSampler creates a new UniformSampler.
func NewUniformSampler(prng sampling.PRNG, baseRing *Ring) *UniformSampler {
	return &UniformSampler{baseSampler{prng: prng, baseRing: baseRing}}
}

// ReadNew samples a new polynomial.
func (us *UniformSampler) ReadNew() (pol Poly, err error) {
	pol = us.baseRing.NewPoly()
	for i := range pol.Coeffs {
		if pol.Coeffs[i], err = sampling.RandUniform(us.prng, us.baseRing.Modulus); err != nil {
			return Poly{}, fmt.Errorf("cannot UniformSampler.ReadNew: %w", err)
		}
	}
	return
}

// TernarySampler samples polynomials with coefficients in {-1, 0, 1}:
// each coefficient is non-zero with probability P, with a uniform sign.
type TernarySampler struct {
	baseSampler
	P float64
}

// NewTernarySampler creates a new TernarySampler. P must be in (0, 1].
func NewTernarySampler(prng sampling.PRNG, baseRing *Ring, P float64) (*TernarySampler, error) {
	if P <= 0 || P > 1 {
		return nil, fmt.Errorf("invalid ternary distribution: P=%f must be in (0, 1]", P)
	}
	return &TernarySampler{baseSampler{prng: prng, baseRing: baseRing}, P}, nil
}

// ReadNew samples a new polynomial.
func (ts *TernarySampler) ReadNew() (pol Poly, err error) {

	Q := ts.baseRing.Modulus
	pol = ts.baseRing.NewPoly()

	for i := range pol.Coeffs {

		var f float64
		if f, err = sampling.RandFloat64(ts.prng); err != nil {
			return Poly{}, fmt.Errorf("cannot TernarySampler.ReadNew: %w", err)
		}

		if f >= ts.P {
			continue
		}

		var sign uint64
		if sign, err = sampling.RandUniform(ts.prng, 2); err != nil {
			return Poly{}, fmt.Errorf("cannot TernarySampler.ReadNew: %w", err)
		}

		pol.Coeffs[i] = 1
		if sign == 1 {
			pol.Coeffs[i] = Q - 1
		}
	}

	return
}

// GaussianSampler samples polynomials with coefficients from a discrete
// gaussian of standard deviation Sigma, truncated to [-Bound, Bound].
type GaussianSampler struct {
	baseSampler
	Sigma float64
	Bound uint64
}

// NewGaussianSampler creates a new GaussianSampler. A Bound of zero
// defaults to ceil(6*Sigma). The Bound must be smaller than Q/2.
func NewGaussianSampler(prng sampling.PRNG, baseRing *Ring, sigma float64, bound uint64) (*GaussianSampler, error) {

	if sigma <= 0 {
		return nil, fmt.Errorf("invalid gaussian distribution: sigma=%f must be positive", sigma)
	}

	if bound == 0 {
		bound = uint64(math.Ceil(6 * sigma))
	}

	if bound >= baseRing.Modulus>>1 {
		return nil, fmt.Errorf("invalid gaussian distribution: bound=%d must be smaller than Q/2", bound)
	}

	return &GaussianSampler{baseSampler{prng: prng, baseRing: baseRing}, sigma, bound}, nil
}

// ReadNew samples a new polynomial.
func (gs *GaussianSampler) ReadNew() (pol Poly, err error) {

	pol = gs.baseRing.NewPoly()

	for i := range pol.Coeffs {

		var c int64
		if c, err = gs.sample(); err != nil {
			return Poly{}, fmt.Errorf("cannot GaussianSampler.ReadNew: %w", err)
		}

		pol.Coeffs[i] = gs.baseRing.ReduceInt64(c)
	}

	return
}

// sample draws one value with the Box-Muller transform, by rejection on the bound.
func (gs *GaussianSampler) sample() (int64, error) {

	for {

		u1, err := sampling.RandFloat64(gs.prng)
		if err != nil {
			return 0, err
		}

		u2, err := sampling.RandFloat64(gs.prng)
		if err != nil {
			return 0, err
		}

		if u1 == 0 {
			continue
		}

		x := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2) * gs.Sigma

		if c := int64(math.Round(x)); c >= -int64(gs.Bound) && c <= int64(gs.Bound) {
			return c, nil
		}
	}
}
