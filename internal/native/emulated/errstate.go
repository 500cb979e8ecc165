package emulated

import (
	"fmt"
	"strings"
	"sync"

	"github.com/felixgeelhaar/astrobridge/internal/native"
)

// The error state is process-wide, like the library it emulates. All Library
// values share it.
var errState struct {
	mu      sync.Mutex
	failed  bool
	short   string
	long    string
	explain string
}

var explanations = map[string]string{
	"SPICE(BADDIMENSIONS)":      "Dimensions of arrays are not consistent.",
	"SPICE(BADECCENTRICITY)":    "Eccentricity is negative.",
	"SPICE(BADINITSTATE)":       "Initial state or elements are not valid.",
	"SPICE(BADTIMETYPE)":        "An invalid time system was supplied.",
	"SPICE(BLANKFILENAME)":      "An input filename consisted only of blanks.",
	"SPICE(CELLTOOSMALL)":       "A cell was too small to hold the output.",
	"SPICE(DEGENERATECASE)":     "A degenerate case was encountered.",
	"SPICE(IDCODENOTFOUND)":     "An ID code could not be found.",
	"SPICE(INVALIDFILETYPE)":    "The file type is not valid for this operation.",
	"SPICE(INVALIDFORMAT)":      "The file is not in a recognized format.",
	"SPICE(INVALIDOPTION)":      "An invalid option was supplied.",
	"SPICE(INVALIDTIMESTRING)":  "A time string could not be parsed.",
	"SPICE(KERNELVARNOTFOUND)":  "A kernel variable was not found in the pool.",
	"SPICE(MISSINGTIMEINFO)":    "Time conversion parameters are missing from the pool.",
	"SPICE(NOLEAPSECONDS)":      "No leapseconds kernel has been loaded.",
	"SPICE(NOLOADEDFILES)":      "No ephemeris files are loaded.",
	"SPICE(NONPOSITIVEMASS)":    "The gravitational parameter is not positive.",
	"SPICE(NOSUCHFILE)":         "The file does not exist.",
	"SPICE(NOTRANSLATION)":      "A body name could not be translated to an ID code.",
	"SPICE(ARRAYTOOSMALL)":      "An output array was too small.",
	"SPICE(SPKINSUFFDATA)":      "Insufficient ephemeris data has been loaded.",
	"SPICE(TYPEMISMATCH)":       "A variable has the wrong data type.",
	"SPICE(UNKNOWNFRAME)":       "A reference frame is not recognized.",
	"SPICE(KERNELPOOLFULL)":     "The kernel pool is full.",
	"SPICE(RECURSIVELOADING)":   "A meta-kernel loads itself.",
	"SPICE(FILEREADFAILED)":     "A file could not be read.",
	"SPICE(UNPARSEDTIME)":       "A time string contains unparsed tokens.",
	"SPICE(VALUEOUTOFRANGE)":    "A value is outside its valid range.",
	"SPICE(SYNTAXERROR)":        "A kernel contains a syntax error.",
	"ERFA(BADYEAR)":             "Year is outside the supported range.",
	"ERFA(BADMONTH)":            "Month is outside 1-12.",
	"ERFA(BADDAY)":              "Day is outside the month.",
	"ERFA(BADHOUR)":             "Hour is outside 0-23.",
	"ERFA(BADMINUTE)":           "Minute is outside 0-59.",
	"ERFA(BADSECOND)":           "Second is negative.",
	"ERFA(BADDATE)":             "Julian date is outside the supported range.",
	"ERFA(BADFRACTION)":         "Day fraction is outside 0-1.",
	"ERFA(INTERNAL)":            "Internal error.",
	"SPICE(UNSUPPORTEDBFF)":     "Binary kernels are not supported.",
	"SPICE(INVALIDARGUMENT)":    "An argument is not valid.",
	"SPICE(INVALIDCARDINALITY)": "A cell cardinality is not valid.",
	"SPICE(STRINGTOOSHORT)":     "An output string is too short.",
}

// signal records an error unless one is already pending. The first error wins.
func signal(short, format string, args ...any) {
	errState.mu.Lock()
	defer errState.mu.Unlock()

	if errState.failed {
		return
	}
	long := fmt.Sprintf(format, args...)
	if len(long) > native.MaxMessageLength {
		long = long[:native.MaxMessageLength]
	}
	errState.failed = true
	errState.short = short
	errState.long = long
	errState.explain = explanations[short]
}

func failed() bool {
	errState.mu.Lock()
	defer errState.mu.Unlock()
	return errState.failed
}

func getMsg(option string, maxLen int) string {
	errState.mu.Lock()
	defer errState.mu.Unlock()

	var msg string
	switch strings.ToUpper(strings.TrimSpace(option)) {
	case native.MsgShort:
		msg = errState.short
	case native.MsgLong:
		msg = errState.long
	case native.MsgExplain:
		msg = errState.explain
	default:
		return ""
	}
	if maxLen >= 0 && len(msg) > maxLen {
		msg = msg[:maxLen]
	}
	return msg
}

func reset() {
	errState.mu.Lock()
	defer errState.mu.Unlock()
	errState.failed = false
	errState.short = ""
	errState.long = ""
	errState.explain = ""
}
