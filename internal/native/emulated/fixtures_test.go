package emulated

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/felixgeelhaar/astrobridge/internal/native"
	"github.com/stretchr/testify/require"
)

const leapsecondsKernel = `KPL/LSK

Leapseconds used by the tests.

\begindata

DELTET/DELTA_T_A       =   32.184
DELTET/K               =    1.657D-3
DELTET/EB              =    1.671D-2
DELTET/M               = (  6.239996D0   1.99096871D-7 )

DELTET/DELTA_AT        = ( 10,   @1972-JAN-1
                           11,   @1972-JUL-1
                           12,   @1973-JAN-1
                           13,   @1974-JAN-1
                           14,   @1975-JAN-1
                           15,   @1976-JAN-1
                           16,   @1977-JAN-1
                           17,   @1978-JAN-1
                           18,   @1979-JAN-1
                           19,   @1980-JAN-1
                           20,   @1981-JUL-1
                           21,   @1982-JUL-1
                           22,   @1983-JUL-1
                           23,   @1985-JUL-1
                           24,   @1988-JAN-1
                           25,   @1990-JAN-1
                           26,   @1991-JAN-1
                           27,   @1992-JUL-1
                           28,   @1993-JUL-1
                           29,   @1994-JUL-1
                           30,   @1996-JAN-1
                           31,   @1997-JUL-1
                           32,   @1999-JAN-1
                           33,   @2006-JAN-1
                           34,   @2009-JAN-1
                           35,   @2012-JUL-1
                           36,   @2015-JUL-1
                           37,   @2017-JAN-1 )

\begintext
`

const constantsKernel = `KPL/PCK

\begindata

BODY399_RADII     = ( 6378.1366   6378.1366   6356.7519 )
BODY399_GM        = 3.9860043543609598E+05
BODY399_LABEL     = 'EARTH'

NAIF_BODY_NAME   += ( 'MY PROBE' )
NAIF_BODY_CODE   += ( -999 )

\begintext
`

// Earth about the Sun, the Sun about the barycenter and the Moon about the
// Earth in ecliptic coordinates.
const conicKernel = `KPL/SPK

\begindata

SPK_CONIC_10_CENTER  = 0
SPK_CONIC_10_ELTS    = ( 7.0D5  0.0  0.0  0.0  0.0  0.0  0.0  1.0D2 )

SPK_CONIC_399_CENTER = 10
SPK_CONIC_399_ELTS   = ( 1.471D8  0.0167  0.0  0.0  1.796  0.0  0.0  1.32712440018D11 )

SPK_CONIC_301_CENTER = 399
SPK_CONIC_301_FRAME  = 'ECLIPJ2000'
SPK_CONIC_301_ELTS   = ( 3.633D5  0.0549  0.0898  2.18  5.55  0.0  0.0  4.9028D3 )

\begintext
`

func writeKernel(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// fresh clears the process-wide pool and error state before and after a test.
func fresh(t *testing.T) *Library {
	t.Helper()
	Kclear()
	reset()
	t.Cleanup(func() {
		Kclear()
		reset()
	})
	return New()
}

func requireOK(t *testing.T, lib *Library) {
	t.Helper()
	require.False(t, lib.Failed(), "unexpected error %s: %s", lib.GetMsg(native.MsgShort, 64), lib.GetMsg(native.MsgLong, native.MaxMessageLength))
}

func requireFailure(t *testing.T, lib *Library, short string) {
	t.Helper()
	require.True(t, lib.Failed(), "expected %s", short)
	require.Equal(t, short, lib.GetMsg(native.MsgShort, 64))
	lib.Reset()
}
