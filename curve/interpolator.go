package curve

import "fmt"

// Method selects the interpolation scheme over (tenor, rate) nodes.
type Method string

const (
	// Linear interpolation is the default.
	Linear Method = "LINEAR"
	// MonotoneCubic is a PCHIP-style shape-preserving cubic. It is a
	// deliberate opt-in: at curve kinks it can differ from Linear by several
	// basis points, so callers must select it explicitly.
	MonotoneCubic Method = "MONOTONE_CUBIC"
)

// Interpolator reads rates off a Curve.
//
// Outside the node range the policy is flat extrapolation (clamp to the
// boundary rate). Setting DisableExtrapolation makes out-of-range lookups
// fail with ErrCurveRange instead.
type Interpolator struct {
	curve                *Curve
	method               Method
	DisableExtrapolation bool

	// Fritsch-Carlson tangents, precomputed for MonotoneCubic.
	tangents []float64
}

// NewInterpolator precomputes whatever the chosen method needs. The curve is
// read-only afterwards and may be shared across concurrent valuations.
func NewInterpolator(c *Curve, method Method) (*Interpolator, error) {
	if c == nil || len(c.points) == 0 {
		return nil, fmt.Errorf("curve.NewInterpolator: curve is required")
	}
	ip := &Interpolator{curve: c, method: method}
	switch method {
	case "", Linear:
		ip.method = Linear
	case MonotoneCubic:
		ip.tangents = fritschCarlsonTangents(c.points)
	default:
		return nil, fmt.Errorf("curve.NewInterpolator: unsupported method %q", method)
	}
	return ip, nil
}

// Curve returns the underlying curve.
func (ip *Interpolator) Curve() *Curve { return ip.curve }

// RateAt interpolates the rate at tenor t (years).
func (ip *Interpolator) RateAt(t float64) (float64, error) {
	pts := ip.curve.points
	first, last := pts[0], pts[len(pts)-1]
	if t <= first.Tenor {
		if t < first.Tenor && ip.DisableExtrapolation {
			return 0, fmt.Errorf("curve.RateAt: tenor %.6f below first node %.6f: %w", t, first.Tenor, ErrCurveRange)
		}
		return first.Rate, nil
	}
	if t >= last.Tenor {
		if t > last.Tenor && ip.DisableExtrapolation {
			return 0, fmt.Errorf("curve.RateAt: tenor %.6f beyond last node %.6f: %w", t, last.Tenor, ErrCurveRange)
		}
		return last.Rate, nil
	}

	i := ip.curve.bracket(t)
	p0, p1 := pts[i], pts[i+1]
	h := p1.Tenor - p0.Tenor

	switch ip.method {
	case MonotoneCubic:
		// Cubic Hermite on [p0, p1] with shape-preserving tangents.
		s := (t - p0.Tenor) / h
		s2 := s * s
		s3 := s2 * s
		h00 := 2*s3 - 3*s2 + 1
		h10 := s3 - 2*s2 + s
		h01 := -2*s3 + 3*s2
		h11 := s3 - s2
		return h00*p0.Rate + h10*h*ip.tangents[i] + h01*p1.Rate + h11*h*ip.tangents[i+1], nil
	default:
		return p0.Rate + (p1.Rate-p0.Rate)*(t-p0.Tenor)/h, nil
	}
}

// fritschCarlsonTangents computes monotonicity-preserving node tangents.
func fritschCarlsonTangents(pts []Point) []float64 {
	n := len(pts)
	m := make([]float64, n)
	if n == 1 {
		return m
	}

	// Secant slopes per interval.
	d := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		d[i] = (pts[i+1].Rate - pts[i].Rate) / (pts[i+1].Tenor - pts[i].Tenor)
	}

	m[0] = d[0]
	m[n-1] = d[n-2]
	for i := 1; i < n-1; i++ {
		if d[i-1]*d[i] <= 0 {
			// Local extremum: flat tangent keeps the interpolant monotone.
			m[i] = 0
			continue
		}
		// Weighted harmonic mean of adjacent secants.
		h0 := pts[i].Tenor - pts[i-1].Tenor
		h1 := pts[i+1].Tenor - pts[i].Tenor
		w0 := 2*h1 + h0
		w1 := h1 + 2*h0
		m[i] = (w0 + w1) / (w0/d[i-1] + w1/d[i])
	}

	// Limit endpoint tangents so the boundary intervals stay monotone.
	for _, i := range []int{0, n - 1} {
		di := d[0]
		if i == n-1 {
			di = d[n-2]
		}
		if di == 0 {
			m[i] = 0
		} else if m[i]/di > 3 {
			m[i] = 3 * di
		} else if m[i]/di < 0 {
			m[i] = 0
		}
	}
	return m
}
