package emulated

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"slices"
	"strconv"
	"strings"
)

const (
	speedOfLight = 299792.458
	// obliquity of the ecliptic at J2000, in radians (84381.448 arcseconds).
	obliquityJ2000   = 84381.448 / 3600 * math.Pi / 180
	maxChainLength   = 64
	convergedLTLoops = 10
)

var frames = map[string]bool{"J2000": true, "ECLIPJ2000": true}

type conicSegment struct {
	body   int32
	center int32
	frame  string
	elts   [8]float64
}

type spkFile struct {
	path     string
	segments map[int32]conicSegment
}

// newSPKFile collects SPK_CONIC_<code>_{CENTER,FRAME,ELTS} variables.
func newSPKFile(path string, k *textKernel) (*spkFile, error) {
	type partial struct {
		center    int32
		frame     string
		elts      []float64
		hasFrame  bool
		hasCenter bool
	}
	parts := make(map[int32]*partial)

	for _, a := range k.assignments {
		rest, ok := strings.CutPrefix(a.name, "SPK_CONIC_")
		if !ok {
			continue
		}
		idx := strings.LastIndexByte(rest, '_')
		if idx <= 0 {
			return nil, fmt.Errorf("malformed variable %s", a.name)
		}
		code, err := strconv.ParseInt(rest[:idx], 10, 32)
		if err != nil {
			return nil, fmt.Errorf("malformed body code in %s", a.name)
		}
		p := parts[int32(code)]
		if p == nil {
			p = &partial{}
			parts[int32(code)] = p
		}
		switch rest[idx+1:] {
		case "CENTER":
			if a.isStr || len(a.nums) != 1 || !isInt32(a.nums[0]) {
				return nil, fmt.Errorf("%s must be one integer", a.name)
			}
			p.center = int32(a.nums[0])
			p.hasCenter = true
		case "FRAME":
			if !a.isStr || len(a.strs) != 1 {
				return nil, fmt.Errorf("%s must be one string", a.name)
			}
			p.frame = strings.ToUpper(strings.TrimSpace(a.strs[0]))
			p.hasFrame = true
		case "ELTS":
			if a.isStr || len(a.nums) != 8 {
				return nil, fmt.Errorf("%s must hold 8 numbers", a.name)
			}
			p.elts = a.nums
		default:
			return nil, fmt.Errorf("unknown variable %s", a.name)
		}
	}

	f := &spkFile{path: path, segments: make(map[int32]conicSegment, len(parts))}
	for code, p := range parts {
		if !p.hasCenter || p.elts == nil {
			return nil, fmt.Errorf("body %d needs both CENTER and ELTS", code)
		}
		frame := "J2000"
		if p.hasFrame {
			frame = p.frame
		}
		if !frames[frame] {
			return nil, fmt.Errorf("body %d uses unknown frame %s", code, frame)
		}
		seg := conicSegment{body: code, center: p.center, frame: frame}
		copy(seg.elts[:], p.elts)
		if seg.center == code {
			return nil, fmt.Errorf("body %d is its own center", code)
		}
		if rp, ecc, mu := seg.elts[0], seg.elts[1], seg.elts[7]; rp <= 0 || ecc < 0 || mu <= 0 {
			return nil, fmt.Errorf("body %d has invalid elements", code)
		}
		f.segments[code] = seg
	}
	return f, nil
}

func (f *spkFile) codes() []int32 {
	out := make([]int32, 0, len(f.segments))
	for code := range f.segments {
		out = append(out, code)
	}
	slices.Sort(out)
	return out
}

// rotation from J2000 to frame.
func toFrame(frame string, r vec3) vec3 {
	if frame != "ECLIPJ2000" {
		return r
	}
	s, c := math.Sincos(obliquityJ2000)
	return vec3{r[0], c*r[1] + s*r[2], -s*r[1] + c*r[2]}
}

func fromFrame(frame string, r vec3) vec3 {
	if frame != "ECLIPJ2000" {
		return r
	}
	s, c := math.Sincos(obliquityJ2000)
	return vec3{r[0], c*r[1] - s*r[2], s*r[1] + c*r[2]}
}

type ephemerisError struct {
	short string
	msg   string
}

func (e *ephemerisError) Error() string { return e.msg }

// segmentFor returns the segment of the most recently loaded file covering body.
func segmentFor(body int32) (conicSegment, bool) {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	for i := len(kpool.spk) - 1; i >= 0; i-- {
		if seg, ok := kpool.spk[i].segments[body]; ok {
			return seg, true
		}
	}
	return conicSegment{}, false
}

func anySPKLoaded() bool {
	kpool.mu.Lock()
	defer kpool.mu.Unlock()
	return len(kpool.spk) > 0
}

// chain links a body to its successive centers. states[i] is the J2000 state
// of nodes[0] relative to nodes[i].
type chain struct {
	nodes  []int32
	states [][6]float64
}

func buildChain(body int32, et float64) chain {
	c := chain{nodes: []int32{body}, states: [][6]float64{{}}}
	cur := body
	var acc [6]float64
	for len(c.nodes) < maxChainLength {
		seg, ok := segmentFor(cur)
		if !ok {
			break
		}
		st := conics(seg.elts, et)
		r, v := splitState(st)
		r, v = fromFrame(seg.frame, r), fromFrame(seg.frame, v)
		for i := range 3 {
			acc[i] += r[i]
			acc[i+3] += v[i]
		}
		cur = seg.center
		c.nodes = append(c.nodes, cur)
		c.states = append(c.states, acc)
	}
	return c
}

func (c chain) index(body int32) int {
	return slices.Index(c.nodes, body)
}

func insufficient(target, observer int32, et float64) *ephemerisError {
	return &ephemerisError{
		short: "SPICE(SPKINSUFFDATA)",
		msg: fmt.Sprintf("Insufficient ephemeris data has been loaded to compute the state of %d (%s) relative to %d (%s) at the ephemeris time %s.",
			target, describe(target), observer, describe(observer), formatET(et)),
	}
}

func describe(code int32) string {
	if name, ok := bodc2n(code); ok {
		return name
	}
	return strconv.Itoa(int(code))
}

func formatET(et float64) string {
	return strconv.FormatFloat(et, 'f', 6, 64)
}

// relativeState returns the geometric J2000 state of target relative to
// observer using the nearest common center.
func relativeState(target, observer int32, et float64) ([6]float64, error) {
	if target == observer {
		return [6]float64{}, nil
	}
	tc := buildChain(target, et)
	oc := buildChain(observer, et)
	for i, node := range tc.nodes {
		if j := oc.index(node); j >= 0 {
			var out [6]float64
			for k := range 6 {
				out[k] = tc.states[i][k] - oc.states[j][k]
			}
			return out, nil
		}
	}
	return [6]float64{}, insufficient(target, observer, et)
}

// barycentric returns the J2000 state of body relative to the solar system
// barycenter.
func barycentric(body int32, et float64) ([6]float64, error) {
	c := buildChain(body, et)
	i := c.index(0)
	if i < 0 {
		return [6]float64{}, insufficient(body, 0, et)
	}
	return c.states[i], nil
}

type aberration struct {
	lightTime bool
	converged bool
	transmit  bool
	stellar   bool
}

func parseAberration(s string) (aberration, bool) {
	norm := strings.ToUpper(strings.ReplaceAll(s, " ", ""))
	switch norm {
	case "NONE":
		return aberration{}, true
	case "LT", "LT+S", "CN", "CN+S", "XLT", "XLT+S", "XCN", "XCN+S":
	default:
		return aberration{}, false
	}
	a := aberration{lightTime: true}
	base, stellar := strings.CutSuffix(norm, "+S")
	a.stellar = stellar
	a.transmit = strings.HasPrefix(base, "X")
	a.converged = strings.HasSuffix(base, "CN")
	return a, true
}

// spkez computes the state of target relative to observer in frame ref,
// corrected for aberration.
func spkez(target int32, et float64, ref, abcorr string, observer int32) ([6]float64, float64) {
	frame := strings.ToUpper(strings.TrimSpace(ref))
	if !frames[frame] {
		signal("SPICE(UNKNOWNFRAME)", "The requested frame '%s' is not recognized.", ref)
		return [6]float64{}, 0
	}
	ab, ok := parseAberration(abcorr)
	if !ok {
		signal("SPICE(INVALIDOPTION)", "'%s' is not a recognized aberration correction.", abcorr)
		return [6]float64{}, 0
	}
	if !anySPKLoaded() {
		signal("SPICE(NOLOADEDFILES)", "At least one SPK file needs to be loaded by FURNSH before beginning a search.")
		return [6]float64{}, 0
	}

	state, lt, err := correctedState(target, et, ab, observer)
	if err != nil {
		var ee *ephemerisError
		if errors.As(err, &ee) {
			signal(ee.short, "%s", ee.msg)
		} else {
			signal("SPICE(SPKINSUFFDATA)", "%v", err)
		}
		return [6]float64{}, 0
	}

	r, v := splitState(state)
	return joinState(toFrame(frame, r), toFrame(frame, v)), lt
}

func correctedState(target int32, et float64, ab aberration, observer int32) ([6]float64, float64, error) {
	if !ab.lightTime {
		st, err := relativeState(target, observer, et)
		if err != nil {
			return st, 0, err
		}
		r, _ := splitState(st)
		return st, r.norm() / speedOfLight, nil
	}

	obs, err := barycentric(observer, et)
	if err != nil {
		return obs, 0, err
	}
	tgt, err := barycentric(target, et)
	if err != nil {
		return tgt, 0, err
	}

	dir := -1.0
	if ab.transmit {
		dir = 1.0
	}
	rel := diff(tgt, obs)
	r, _ := splitState(rel)
	lt := r.norm() / speedOfLight

	loops := 1
	if ab.converged {
		loops = convergedLTLoops
	}
	for range loops {
		tgt, err = barycentric(target, et+dir*lt)
		if err != nil {
			return tgt, 0, err
		}
		rel = diff(tgt, obs)
		r, _ = splitState(rel)
		next := r.norm() / speedOfLight
		done := math.Abs(next-lt) <= 1e-15*math.Max(1, next)
		lt = next
		if done {
			break
		}
	}

	if ab.stellar {
		pos, vel := splitState(rel)
		_, vobs := splitState(obs)
		if ab.transmit {
			vobs = vobs.scale(-1)
		}
		pos = stellarAberration(pos, vobs)
		rel = joinState(pos, vel)
	}
	return rel, lt, nil
}

func diff(a, b [6]float64) [6]float64 {
	var out [6]float64
	for i := range 6 {
		out[i] = a[i] - b[i]
	}
	return out
}

// stellarAberration rotates pos toward the observer velocity by the
// aberration angle.
func stellarAberration(pos, vobs vec3) vec3 {
	u := pos.unit()
	vbyc := vobs.scale(1 / speedOfLight)
	h := u.cross(vbyc)
	sinPhi := h.norm()
	if sinPhi == 0 || vbyc.norm() >= 1 {
		return pos
	}
	phi := math.Asin(math.Min(1, sinPhi))
	axis := h.scale(1 / sinPhi)
	return rotateAbout(pos, axis, phi)
}

func rotateAbout(v, axis vec3, angle float64) vec3 {
	s, c := math.Sincos(angle)
	return v.scale(c).add(axis.cross(v).scale(s)).add(axis.scale(axis.dot(v) * (1 - c)))
}

func spkobj(file string, capacity int) []int32 {
	p := strings.TrimSpace(file)
	if p == "" {
		signal("SPICE(BLANKFILENAME)", "The input filename is blank.")
		return nil
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, fs.ErrNotExist) {
		signal("SPICE(NOSUCHFILE)", "The file '%s' does not exist.", p)
		return nil
	}
	if err != nil {
		signal("SPICE(FILEREADFAILED)", "The file '%s' could not be read: %v", p, err)
		return nil
	}
	if isBinaryKernel(data) {
		signal("SPICE(UNSUPPORTEDBFF)", "The file '%s' is a binary kernel; only text kernels can be read.", p)
		return nil
	}
	k, err := parseTextKernel(string(data))
	if err != nil {
		signal("SPICE(SYNTAXERROR)", "The kernel '%s' could not be parsed: %v", p, err)
		return nil
	}
	if k.idWord != "KPL/SPK" {
		signal("SPICE(INVALIDFILETYPE)", "Input file %s has file type %s; an SPK file was expected.", p, orUnknown(k.idWord))
		return nil
	}
	f, err := newSPKFile(p, k)
	if err != nil {
		signal("SPICE(INVALIDFORMAT)", "The SPK file '%s' is invalid: %v", p, err)
		return nil
	}
	codes := f.codes()
	if len(codes) > capacity {
		signal("SPICE(CELLTOOSMALL)", "The file %s contains %d bodies; the output cell holds %d.", p, len(codes), capacity)
		return nil
	}
	return codes
}

func orUnknown(s string) string {
	if s == "" {
		return "?"
	}
	return s
}
