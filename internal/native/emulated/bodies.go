package emulated

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

type bodyName struct {
	code int32
	name string
}

// builtinBodies lists the default name/code mappings. The first entry for a
// code is its preferred name.
var builtinBodies = []bodyName{
	{0, "SOLAR SYSTEM BARYCENTER"},
	{0, "SSB"},
	{1, "MERCURY BARYCENTER"},
	{2, "VENUS BARYCENTER"},
	{3, "EARTH BARYCENTER"},
	{3, "EMB"},
	{3, "EARTH-MOON BARYCENTER"},
	{4, "MARS BARYCENTER"},
	{5, "JUPITER BARYCENTER"},
	{6, "SATURN BARYCENTER"},
	{7, "URANUS BARYCENTER"},
	{8, "NEPTUNE BARYCENTER"},
	{9, "PLUTO BARYCENTER"},
	{10, "SUN"},
	{199, "MERCURY"},
	{299, "VENUS"},
	{399, "EARTH"},
	{301, "MOON"},
	{499, "MARS"},
	{401, "PHOBOS"},
	{402, "DEIMOS"},
	{599, "JUPITER"},
	{501, "IO"},
	{502, "EUROPA"},
	{503, "GANYMEDE"},
	{504, "CALLISTO"},
	{699, "SATURN"},
	{601, "MIMAS"},
	{602, "ENCELADUS"},
	{603, "TETHYS"},
	{604, "DIONE"},
	{605, "RHEA"},
	{606, "TITAN"},
	{608, "IAPETUS"},
	{799, "URANUS"},
	{899, "NEPTUNE"},
	{801, "TRITON"},
	{999, "PLUTO"},
	{901, "CHARON"},
}

// normalizeName uppercases a name and collapses interior whitespace.
func normalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToUpper(name)), " ")
}

// kernelBodies returns NAIF_BODY_NAME/NAIF_BODY_CODE assignments from the pool.
func kernelBodies() ([]bodyName, bool) {
	names, hasNames := poolGet("NAIF_BODY_NAME")
	codes, hasCodes := poolGet("NAIF_BODY_CODE")
	if !hasNames && !hasCodes {
		return nil, true
	}
	if !hasNames || !hasCodes || !names.isStr || codes.isStr || len(names.strs) != len(codes.nums) {
		signal("SPICE(BADDIMENSIONS)", "The kernel pool variables NAIF_BODY_NAME and NAIF_BODY_CODE do not have matching types and dimensions.")
		return nil, false
	}
	out := make([]bodyName, len(names.strs))
	for i, n := range names.strs {
		out[i] = bodyName{code: int32(codes.nums[i]), name: strings.TrimSpace(n)}
	}
	return out, true
}

func bodn2c(name string) (int32, bool) {
	want := normalizeName(name)
	if want == "" {
		return 0, false
	}
	extra, ok := kernelBodies()
	if !ok {
		return 0, false
	}
	for i := len(extra) - 1; i >= 0; i-- {
		if normalizeName(extra[i].name) == want {
			return extra[i].code, true
		}
	}
	for _, b := range builtinBodies {
		if b.name == want {
			return b.code, true
		}
	}
	return 0, false
}

func bodc2n(code int32) (string, bool) {
	extra, ok := kernelBodies()
	if !ok {
		return "", false
	}
	for i := len(extra) - 1; i >= 0; i-- {
		if extra[i].code == code {
			return extra[i].name, true
		}
	}
	for _, b := range builtinBodies {
		if b.code == code {
			return b.name, true
		}
	}
	return "", false
}

// bods2c translates a name or the decimal string of a code.
func bods2c(name string) (int32, bool) {
	if code, ok := bodn2c(name); ok || failed() {
		return code, ok
	}
	n, err := strconv.ParseInt(strings.TrimSpace(name), 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(n), true
}

func bodvcd(code int32, item string, maxn int) []float64 {
	name := fmt.Sprintf("BODY%d_%s", code, strings.ToUpper(strings.TrimSpace(item)))
	v, ok := poolGet(name)
	if !ok {
		signal("SPICE(KERNELVARNOTFOUND)", "The variable %s could not be found in the kernel pool.", name)
		return nil
	}
	if v.isStr {
		signal("SPICE(TYPEMISMATCH)", "The kernel pool variable %s has character type; numeric data were expected.", name)
		return nil
	}
	if len(v.nums) > maxn {
		signal("SPICE(ARRAYTOOSMALL)", "The kernel variable %s has %d elements; the output array holds %d.", name, len(v.nums), maxn)
		return nil
	}
	out := make([]float64, len(v.nums))
	copy(out, v.nums)
	return out
}

func bodvrd(body, item string, maxn int) []float64 {
	code, ok := bods2c(body)
	if failed() {
		return nil
	}
	if !ok {
		signal("SPICE(NOTRANSLATION)", "The body name %s could not be translated to a NAIF ID code.", body)
		return nil
	}
	return bodvcd(code, item, maxn)
}

// truncateName mirrors a fixed-size output buffer of lenout bytes including
// the terminator.
func truncateName(name string, lenout int) string {
	limit := max(lenout-1, 0)
	if len(name) > limit {
		return name[:limit]
	}
	return name
}

func isInt32(f float64) bool {
	return f == math.Trunc(f) && f >= math.MinInt32 && f <= math.MaxInt32
}
