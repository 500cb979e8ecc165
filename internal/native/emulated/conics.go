package emulated

import "math"

const (
	parabolicTolerance = 1e-10
	circularTolerance  = 1e-11
)

type vec3 [3]float64

func (a vec3) add(b vec3) vec3      { return vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]} }
func (a vec3) sub(b vec3) vec3      { return vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]} }
func (a vec3) scale(s float64) vec3 { return vec3{a[0] * s, a[1] * s, a[2] * s} }
func (a vec3) dot(b vec3) float64   { return a[0]*b[0] + a[1]*b[1] + a[2]*b[2] }
func (a vec3) norm() float64        { return math.Sqrt(a.dot(a)) }

func (a vec3) cross(b vec3) vec3 {
	return vec3{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}

func (a vec3) unit() vec3 {
	n := a.norm()
	if n == 0 {
		return a
	}
	return a.scale(1 / n)
}

func splitState(s [6]float64) (vec3, vec3) {
	return vec3{s[0], s[1], s[2]}, vec3{s[3], s[4], s[5]}
}

func joinState(r, v vec3) [6]float64 {
	return [6]float64{r[0], r[1], r[2], v[0], v[1], v[2]}
}

func twoPi(a float64) float64 {
	a = math.Mod(a, 2*math.Pi)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

// oscelt computes osculating elements
// [rp, ecc, inc, lnode, argp, m0, t0, mu] from a state.
func oscelt(state [6]float64, et, mu float64) [8]float64 {
	if mu <= 0 {
		signal("SPICE(NONPOSITIVEMASS)", "The gravitational parameter %g is not positive.", mu)
		return [8]float64{}
	}
	r, v := splitState(state)
	rmag, vmag := r.norm(), v.norm()
	if rmag == 0 || vmag == 0 {
		signal("SPICE(DEGENERATECASE)", "The position or velocity of the input state is the zero vector.")
		return [8]float64{}
	}
	h := r.cross(v)
	hmag := h.norm()
	if hmag == 0 {
		signal("SPICE(DEGENERATECASE)", "The position and velocity of the input state are parallel.")
		return [8]float64{}
	}
	hhat := h.scale(1 / hmag)

	evec := r.scale(vmag*vmag - mu/rmag).sub(v.scale(r.dot(v))).scale(1 / mu)
	ecc := evec.norm()
	if math.Abs(ecc-1) < parabolicTolerance {
		ecc = 1
	}
	p := hmag * hmag / mu
	rp := p / (1 + ecc)

	inc := math.Acos(math.Max(-1, math.Min(1, hhat[2])))

	nvec := vec3{0, 0, 1}.cross(h)
	var nhat vec3
	lnode := 0.0
	if nvec.norm() <= circularTolerance*hmag {
		nhat = vec3{1, 0, 0}
	} else {
		nhat = nvec.unit()
		lnode = twoPi(math.Atan2(nhat[1], nhat[0]))
	}
	qhat := hhat.cross(nhat)

	var phat vec3
	argp := 0.0
	if ecc < circularTolerance {
		phat = nhat
	} else {
		ehat := evec.scale(1 / ecc)
		argp = twoPi(math.Atan2(qhat.dot(ehat), nhat.dot(ehat)))
		phat = ehat
	}

	rhat := r.scale(1 / rmag)
	nu := math.Atan2(hhat.cross(phat).dot(rhat), phat.dot(rhat))

	var m0 float64
	switch {
	case ecc < 1:
		ea := 2 * math.Atan(math.Sqrt((1-ecc)/(1+ecc))*math.Tan(nu/2))
		m0 = twoPi(ea - ecc*math.Sin(ea))
	case ecc > 1:
		f := 2 * math.Atanh(math.Sqrt((ecc-1)/(ecc+1))*math.Tan(nu/2))
		m0 = ecc*math.Sinh(f) - f
	default:
		d := math.Tan(nu / 2)
		m0 = d + d*d*d/3
	}

	return [8]float64{rp, ecc, inc, lnode, argp, m0, et, mu}
}

// conics propagates conic elements to et.
func conics(elts [8]float64, et float64) [6]float64 {
	rp, ecc, inc, lnode, argp, m0, t0, mu := elts[0], elts[1], elts[2], elts[3], elts[4], elts[5], elts[6], elts[7]
	switch {
	case mu <= 0:
		signal("SPICE(NONPOSITIVEMASS)", "The gravitational parameter %g is not positive.", mu)
		return [6]float64{}
	case ecc < 0:
		signal("SPICE(BADECCENTRICITY)", "The eccentricity %g is negative.", ecc)
		return [6]float64{}
	case rp <= 0:
		signal("SPICE(BADINITSTATE)", "The periapsis distance %g is not positive.", rp)
		return [6]float64{}
	}

	dt := et - t0
	var nu float64
	switch {
	case math.Abs(ecc-1) < parabolicTolerance:
		ecc = 1
		n := math.Sqrt(mu / (2 * rp * rp * rp))
		m := m0 + n*dt
		b := math.Cbrt(1.5*m + math.Sqrt(1+2.25*m*m))
		d := b - 1/b
		nu = 2 * math.Atan(d)
	case ecc < 1:
		a := rp / (1 - ecc)
		n := math.Sqrt(mu / (a * a * a))
		m := math.Remainder(m0+n*dt, 2*math.Pi)
		ea := solveKepler(m, ecc)
		nu = 2 * math.Atan2(math.Sqrt(1+ecc)*math.Sin(ea/2), math.Sqrt(1-ecc)*math.Cos(ea/2))
	default:
		a := rp / (ecc - 1)
		n := math.Sqrt(mu / (a * a * a))
		m := m0 + n*dt
		f := solveHyperbolic(m, ecc)
		nu = 2 * math.Atan(math.Sqrt((ecc+1)/(ecc-1))*math.Tanh(f/2))
	}

	p := rp * (1 + ecc)
	rmag := p / (1 + ecc*math.Cos(nu))
	vscale := math.Sqrt(mu / p)

	x, y := rmag*math.Cos(nu), rmag*math.Sin(nu)
	vx, vy := -vscale*math.Sin(nu), vscale*(ecc+math.Cos(nu))

	sO, cO := math.Sincos(lnode)
	sw, cw := math.Sincos(argp)
	si, ci := math.Sincos(inc)
	pvec := vec3{cO*cw - sO*sw*ci, sO*cw + cO*sw*ci, sw * si}
	qvec := vec3{-cO*sw - sO*cw*ci, -sO*sw + cO*cw*ci, cw * si}

	r := pvec.scale(x).add(qvec.scale(y))
	v := pvec.scale(vx).add(qvec.scale(vy))
	return joinState(r, v)
}

func solveKepler(m, ecc float64) float64 {
	ea := m
	if ecc > 0.8 {
		ea = math.Copysign(math.Pi, m)
	}
	for range 100 {
		d := (ea - ecc*math.Sin(ea) - m) / (1 - ecc*math.Cos(ea))
		ea -= d
		if math.Abs(d) < 1e-15 {
			break
		}
	}
	return ea
}

func solveHyperbolic(m, ecc float64) float64 {
	f := math.Asinh(m / ecc)
	for range 200 {
		d := (ecc*math.Sinh(f) - f - m) / (ecc*math.Cosh(f) - 1)
		f -= d
		if math.Abs(d) < 1e-15*math.Max(1, math.Abs(f)) {
			break
		}
	}
	return f
}
