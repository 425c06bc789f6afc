package core

import (
	"errors"
	"fmt"
	"math"
)

// gravConst is Newton's constant in solar radii cubed per solar mass per
// day squared, the unit system every orbit is resolved in.
const gravConst = 2942.2062175044193

var (
	ErrNoRefTime        = errors.New("either t0 or tp must be specified")
	ErrBothRefTimes     = errors.New("only one of t0 or tp may be specified")
	ErrNoScale          = errors.New("at least one of a or period must be specified")
	ErrOverDetermined   = errors.New("a and period cannot be combined with rho_star or M_star")
	ErrStellarTriple    = errors.New("exactly two of rho_star, R_star, M_star must be specified")
	ErrInclConflict     = errors.New("only one of incl, b, or duration may be specified")
	ErrDurationNeedsB   = errors.New("b must be specified with duration for a circular orbit")
	ErrDurationNeedsR   = errors.New("RpRs must be specified with duration")
	ErrOmegaAmbiguous   = errors.New("omega and the cos_omega/sin_omega pair disagree")
	ErrUnknownParam     = errors.New("unknown orbit parameter")
	ErrDuplicateParam   = errors.New("orbit parameter given under more than one spelling")
	ErrTooManyLimbCoeff = errors.New("at most two limb-darkening coefficients are supported")
)

// OrbitConfig is the sparse, possibly redundant set of physical
// observables an orbit is resolved from. Nil means unset; zero values are
// meaningful, so every field is a pointer.
type OrbitConfig struct {
	A        *float64 // semi-major axis, stellar radii times RStar
	ARs      *float64 // semi-major axis over stellar radius
	B        *float64 // impact parameter
	Ecc      *float64 // eccentricity
	Period   *float64 // days
	RhoStar  *float64 // solar masses per cubic solar radius
	RStar    *float64 // solar radii
	MStar    *float64 // solar masses
	MPlanet  *float64 // solar masses
	T0       *float64 // reference transit time, days
	Tp       *float64 // reference periapsis time, days
	Incl     *float64 // inclination, radians
	Omega    *float64 // longitude of ascending node, radians
	ArgPeri  *float64 // argument of periapsis, radians
	CosOmega *float64 // cosine of the argument of periapsis
	SinOmega *float64 // sine of the argument of periapsis
	Duration *float64 // transit duration, days
	RpRs     *float64 // planet-to-star radius ratio
}

// Orbit is the canonical, fully resolved orbital configuration. It is
// immutable after construction; all query methods are pure functions of
// the resolved fields, so an Orbit may be shared freely across
// goroutines.
type Orbit struct {
	A        float64
	ARs      float64
	B        float64
	Ecc      float64
	Period   float64
	N        float64 // mean motion, 2*pi/Period
	RhoStar  float64
	RStar    float64
	MStar    float64
	MPlanet  float64
	T0       float64
	Tp       float64
	M0       float64 // mean anomaly at the transit reference time
	Incl     float64
	Omega    float64
	HasNode  bool
	ArgPeri  float64
	CosOmega float64
	SinOmega float64
	Duration float64
	HasDur   bool
	RpRs     float64
}

// paramAliases maps every accepted keyword spelling to its canonical
// name. Spellings of the same quantity must be merged before the
// resolution rules run so alias choice never changes the result.
var paramAliases = map[string]string{
	"a":         "a",
	"aRs":       "aRs",
	"aRₛ":       "aRs",
	"aR_star":   "aRs",
	"b":         "b",
	"ecc":       "ecc",
	"P":         "period",
	"period":    "period",
	"rho_star":  "rho_star",
	"ρₛ":        "rho_star",
	"R_star":    "R_star",
	"Rs":        "R_star",
	"M_star":    "M_star",
	"Ms":        "M_star",
	"M_planet":  "M_planet",
	"Mp":        "M_planet",
	"t0":        "t0",
	"t₀":        "t0",
	"tp":        "tp",
	"incl":      "incl",
	"Omega":     "Omega",
	"Ω":         "Omega",
	"omega":     "omega",
	"ω":         "omega",
	"cos_omega": "cos_omega",
	"sin_omega": "sin_omega",
	"duration":  "duration",
	"r":         "RpRs",
	"RpRs":      "RpRs",
}

// OrbitFromParams resolves an orbit from named parameters, accepting any
// of the alias spellings. Two calls that spell the same physical
// parameter set differently produce field-for-field identical orbits.
func OrbitFromParams(params map[string]float64) (*Orbit, error) {
	merged := make(map[string]float64, len(params))
	for name, value := range params {
		canonical, ok := paramAliases[name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownParam, name)
		}
		if prev, dup := merged[canonical]; dup && prev != value {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateParam, canonical)
		}
		merged[canonical] = value
	}

	var cfg OrbitConfig
	fields := map[string]**float64{
		"a":         &cfg.A,
		"aRs":       &cfg.ARs,
		"b":         &cfg.B,
		"ecc":       &cfg.Ecc,
		"period":    &cfg.Period,
		"rho_star":  &cfg.RhoStar,
		"R_star":    &cfg.RStar,
		"M_star":    &cfg.MStar,
		"M_planet":  &cfg.MPlanet,
		"t0":        &cfg.T0,
		"tp":        &cfg.Tp,
		"incl":      &cfg.Incl,
		"Omega":     &cfg.Omega,
		"omega":     &cfg.ArgPeri,
		"cos_omega": &cfg.CosOmega,
		"sin_omega": &cfg.SinOmega,
		"duration":  &cfg.Duration,
		"RpRs":      &cfg.RpRs,
	}
	for canonical, value := range merged {
		v := value
		*fields[canonical] = &v
	}
	return NewOrbit(cfg)
}

// NewOrbit validates cfg against the resolution rules and resolves the
// canonical orbit. Each rule violation fails with its own sentinel error;
// once construction succeeds, position and flux evaluation never fail.
//
// Derived bulk quantities (density, masses, radii) are computed with
// plain float64 arithmetic and are never range-checked: dimensionally
// inconsistent inputs propagate NaN through the derived fields instead
// of erroring.
func NewOrbit(cfg OrbitConfig) (*Orbit, error) {
	// Rule 1: exactly one time reference.
	if cfg.T0 == nil && cfg.Tp == nil {
		return nil, ErrNoRefTime
	}
	if cfg.T0 != nil && cfg.Tp != nil {
		return nil, ErrBothRefTimes
	}

	// Rule 2: some scale must be present.
	hasA := cfg.A != nil || cfg.ARs != nil
	hasP := cfg.Period != nil
	if !hasA && !hasP {
		return nil, ErrNoScale
	}

	// Rule 3: a and period together already fix the stellar density.
	if hasA && hasP && (cfg.RhoStar != nil || cfg.MStar != nil) {
		return nil, ErrOverDetermined
	}

	ecc := 0.0
	if cfg.Ecc != nil {
		ecc = *cfg.Ecc
	}
	circular := ecc == 0

	// Rule 4: when neither (a, period) nor the circular duration path fixes
	// the scale, the density triple must close it.
	durationScale := cfg.Duration != nil && circular && !hasA
	if !(hasA && hasP) && !durationScale {
		given := 0
		for _, p := range []*float64{cfg.RhoStar, cfg.RStar, cfg.MStar} {
			if p != nil {
				given++
			}
		}
		if given != 2 {
			return nil, fmt.Errorf("%w: got %d", ErrStellarTriple, given)
		}
	}

	// Rule 5: at most one way of specifying the orbit's tilt. A circular
	// orbit may combine b with duration (rule 6 requires it); on an
	// eccentric orbit b is derivable from duration, so both is ambiguous.
	if cfg.Incl != nil && (cfg.B != nil || cfg.Duration != nil) {
		return nil, ErrInclConflict
	}
	if cfg.B != nil && cfg.Duration != nil && !circular {
		return nil, ErrInclConflict
	}

	// Rule 6: duration needs companions.
	if cfg.Duration != nil {
		if circular && cfg.B == nil {
			return nil, ErrDurationNeedsB
		}
		if cfg.RpRs == nil {
			return nil, ErrDurationNeedsR
		}
	}

	// Rule 7: omega may arrive directly or as a (cos, sin) pair; both at
	// once is fine only when they agree.
	argPeri, cosw, sinw, err := resolveArgPeri(cfg)
	if err != nil {
		return nil, err
	}

	o := &Orbit{
		Ecc:      ecc,
		ArgPeri:  argPeri,
		CosOmega: cosw,
		SinOmega: sinw,
	}
	if cfg.Omega != nil {
		o.Omega = *cfg.Omega
		o.HasNode = true
	}
	if cfg.RpRs != nil {
		o.RpRs = *cfg.RpRs
	}
	if cfg.MPlanet != nil {
		o.MPlanet = *cfg.MPlanet
	}
	if cfg.Duration != nil {
		o.Duration = *cfg.Duration
		o.HasDur = true
	}

	// Stellar radius: given, closed from the density pair, or the solar
	// default.
	switch {
	case cfg.RStar != nil:
		o.RStar = *cfg.RStar
	case cfg.RhoStar != nil && cfg.MStar != nil:
		o.RStar = math.Cbrt(3 * *cfg.MStar / (4 * math.Pi * *cfg.RhoStar))
	default:
		o.RStar = 1
	}

	// Scale: semi-major axis, period, and a/R_star.
	switch {
	case hasA && hasP:
		o.Period = *cfg.Period
		o.setSemiMajor(cfg)
		o.MStar = 4*math.Pi*math.Pi*o.A*o.A*o.A/(gravConst*o.Period*o.Period) - o.MPlanet
	case hasA:
		o.setSemiMajor(cfg)
		o.MStar = starMass(cfg, o.RStar)
		mTot := o.MStar + o.MPlanet
		o.Period = 2 * math.Pi * math.Sqrt(o.A*o.A*o.A/(gravConst*mTot))
	case durationScale:
		o.Period = *cfg.Period
		o.ARs = aorFromDuration(o.Duration, o.Period, *cfg.B, o.RpRs)
		o.A = o.ARs * o.RStar
		o.MStar = 4*math.Pi*math.Pi*o.A*o.A*o.A/(gravConst*o.Period*o.Period) - o.MPlanet
	default:
		o.Period = *cfg.Period
		rho := starDensity(cfg, o.RStar)
		o.ARs = math.Cbrt(gravConst * o.Period * o.Period * rho / (3 * math.Pi))
		o.A = o.ARs * o.RStar
		o.MStar = starMass(cfg, o.RStar)
	}
	o.N = 2 * math.Pi / o.Period
	o.RhoStar = 3 * o.MStar / (4 * math.Pi * o.RStar * o.RStar * o.RStar)

	// Tilt: inclination and impact parameter fix each other through the
	// eccentricity correction factor.
	eccFac := (1 - ecc*ecc) / (1 + ecc*o.SinOmega)
	switch {
	case cfg.Incl != nil:
		o.Incl = *cfg.Incl
		o.B = o.ARs * math.Cos(o.Incl) * eccFac
	case cfg.B != nil:
		o.B = *cfg.B
		o.Incl = math.Acos(o.B / (o.ARs * eccFac))
	case cfg.Duration != nil:
		o.B = impactFromDuration(o.ARs, ecc, o.SinOmega, o.Duration, o.Period)
		o.Incl = math.Acos(o.B / (o.ARs * eccFac))
	default:
		o.Incl = math.Pi / 2
		o.B = 0
	}

	// Time references: relate t0 and tp through the mean anomaly at
	// transit, where the true anomaly is pi/2 - omega.
	o.M0 = transitMeanAnomaly(ecc, argPeri)
	if cfg.T0 != nil {
		o.T0 = *cfg.T0
		o.Tp = o.T0 - o.M0/o.N
	} else {
		o.Tp = *cfg.Tp
		o.T0 = o.Tp + o.M0/o.N
	}

	return o, nil
}

func (o *Orbit) setSemiMajor(cfg OrbitConfig) {
	if cfg.A != nil {
		o.A = *cfg.A
		o.ARs = o.A / o.RStar
	} else {
		o.ARs = *cfg.ARs
		o.A = o.ARs * o.RStar
	}
}

func resolveArgPeri(cfg OrbitConfig) (omega, cosw, sinw float64, err error) {
	pairGiven := cfg.CosOmega != nil || cfg.SinOmega != nil
	if pairGiven && (cfg.CosOmega == nil || cfg.SinOmega == nil) {
		return 0, 0, 0, ErrOmegaAmbiguous
	}
	switch {
	case cfg.ArgPeri != nil && pairGiven:
		const tol = 1e-9
		if math.Abs(math.Cos(*cfg.ArgPeri)-*cfg.CosOmega) > tol ||
			math.Abs(math.Sin(*cfg.ArgPeri)-*cfg.SinOmega) > tol {
			return 0, 0, 0, ErrOmegaAmbiguous
		}
		return *cfg.ArgPeri, *cfg.CosOmega, *cfg.SinOmega, nil
	case cfg.ArgPeri != nil:
		return *cfg.ArgPeri, math.Cos(*cfg.ArgPeri), math.Sin(*cfg.ArgPeri), nil
	case pairGiven:
		return math.Atan2(*cfg.SinOmega, *cfg.CosOmega), *cfg.CosOmega, *cfg.SinOmega, nil
	default:
		return 0, 1, 0, nil
	}
}

// starDensity closes the (rho, R, M) triple to a density.
func starDensity(cfg OrbitConfig, rStar float64) float64 {
	if cfg.RhoStar != nil {
		return *cfg.RhoStar
	}
	return 3 * *cfg.MStar / (4 * math.Pi * rStar * rStar * rStar)
}

// starMass closes the (rho, R, M) triple to a stellar mass.
func starMass(cfg OrbitConfig, rStar float64) float64 {
	if cfg.MStar != nil {
		return *cfg.MStar
	}
	return 4 * math.Pi / 3 * *cfg.RhoStar * rStar * rStar * rStar
}

// aorFromDuration back-solves a/R_star on a circular orbit from the
// contact-point definition of the transit duration: the projected
// separation equals 1+RpRs at t0 +/- duration/2.
func aorFromDuration(duration, period, b, rprs float64) float64 {
	sinPhi, cosPhi := math.Sincos(math.Pi * duration / period)
	return math.Sqrt((1+rprs)*(1+rprs)-b*b*cosPhi*cosPhi) / sinPhi
}

// impactFromDuration is the eccentric closed form for the impact
// parameter implied by a transit duration.
func impactFromDuration(aor, ecc, sinw, duration, period float64) float64 {
	inclFactorInv := (1 - ecc*ecc) / (1 + ecc*sinw)
	c := math.Sin(math.Pi * duration / (inclFactorInv * period))
	c2 := c * c
	esinw := ecc * sinw
	num := aor*aor*c2 - 1
	den := c2*esinw*esinw + 2*c2*esinw + c2 - ecc*ecc*ecc*ecc + 2*ecc*ecc - 1
	return math.Sqrt(num/den) * (1 - ecc*ecc)
}

// transitMeanAnomaly is the mean anomaly at inferior conjunction, where
// the true anomaly is pi/2 - omega.
func transitMeanAnomaly(ecc, argPeri float64) float64 {
	f0 := math.Pi/2 - argPeri
	e0 := 2 * math.Atan2(math.Sqrt(1-ecc)*math.Sin(f0/2), math.Sqrt(1+ecc)*math.Cos(f0/2))
	return e0 - ecc*math.Sin(e0)
}

// Flip returns the orbit of the complementary body about the system
// barycenter: the bodies swap the star and planet roles, and the
// argument of periapsis rotates by pi (for a circular orbit the transit
// reference shifts by half a period instead, which is equivalent).
// The resolved masses carry over exchanged, never substituted, so the
// flipped planet traces the original star's barycentric path for any
// massRatio; the ratio is kept in the signature for callers that
// construct flips of systems whose mass bookkeeping lives outside the
// orbit.
func (o *Orbit) Flip(massRatio float64) *Orbit {
	flipped := *o

	flipped.MStar = o.MPlanet
	flipped.MPlanet = o.MStar
	flipped.RhoStar = 3 * flipped.MStar / (4 * math.Pi * flipped.RStar * flipped.RStar * flipped.RStar)

	if o.Ecc == 0 {
		flipped.T0 = o.T0 + o.Period/2
		flipped.Tp = flipped.T0 - flipped.M0/flipped.N
	} else {
		flipped.ArgPeri = o.ArgPeri + math.Pi
		flipped.CosOmega = -o.CosOmega
		flipped.SinOmega = -o.SinOmega
		flipped.M0 = transitMeanAnomaly(o.Ecc, flipped.ArgPeri)
		flipped.Tp = o.Tp
		flipped.T0 = flipped.Tp + flipped.M0/flipped.N
		eccFac := (1 - o.Ecc*o.Ecc) / (1 + o.Ecc*flipped.SinOmega)
		flipped.B = flipped.ARs * math.Cos(flipped.Incl) * eccFac
	}
	return &flipped
}

// Equal reports whether every resolved field of the two orbits matches,
// treating NaN fields as equal so soft-failed derived quantities still
// compare.
func (o *Orbit) Equal(other *Orbit) bool {
	if o == nil || other == nil {
		return o == other
	}
	eq := func(a, b float64) bool {
		return a == b || (math.IsNaN(a) && math.IsNaN(b))
	}
	return eq(o.A, other.A) && eq(o.ARs, other.ARs) && eq(o.B, other.B) &&
		eq(o.Ecc, other.Ecc) && eq(o.Period, other.Period) && eq(o.N, other.N) &&
		eq(o.RhoStar, other.RhoStar) && eq(o.RStar, other.RStar) &&
		eq(o.MStar, other.MStar) && eq(o.MPlanet, other.MPlanet) &&
		eq(o.T0, other.T0) && eq(o.Tp, other.Tp) && eq(o.M0, other.M0) &&
		eq(o.Incl, other.Incl) && eq(o.Omega, other.Omega) && o.HasNode == other.HasNode &&
		eq(o.ArgPeri, other.ArgPeri) && eq(o.CosOmega, other.CosOmega) &&
		eq(o.SinOmega, other.SinOmega) && eq(o.Duration, other.Duration) &&
		o.HasDur == other.HasDur && eq(o.RpRs, other.RpRs)
}
