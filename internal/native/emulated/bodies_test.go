package emulated

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyNames(t *testing.T) {
	lib := fresh(t)

	t.Run("builtin names", func(t *testing.T) {
		code, found := lib.Bodn2c("  earth ")
		assert.True(t, found)
		assert.Equal(t, int32(399), code)

		code, found = lib.Bodn2c("Solar   System Barycenter")
		assert.True(t, found)
		assert.Equal(t, int32(0), code)

		name, found := lib.Bodc2n(3, 33)
		assert.True(t, found)
		assert.Equal(t, "EARTH BARYCENTER", name)
	})

	t.Run("unknown is not an error", func(t *testing.T) {
		_, found := lib.Bodn2c("NOT A BODY")
		assert.False(t, found)
		_, found = lib.Bodc2n(1234567, 33)
		assert.False(t, found)
		requireOK(t, lib)
	})

	t.Run("output length truncates", func(t *testing.T) {
		name, found := lib.Bodc2n(399, 4)
		assert.True(t, found)
		assert.Equal(t, "EAR", name)
	})

	t.Run("output length too short", func(t *testing.T) {
		lib.Bodc2n(399, 1)
		requireFailure(t, lib, "SPICE(STRINGTOOSHORT)")
	})
}

func TestBodyNamesFromKernel(t *testing.T) {
	lib := fresh(t)
	lib.Furnsh(writeKernel(t, "consts.tpc", constantsKernel))
	requireOK(t, lib)

	code, found := lib.Bodn2c("my probe")
	assert.True(t, found)
	assert.Equal(t, int32(-999), code)

	name, found := lib.Bodc2n(-999, 33)
	assert.True(t, found)
	assert.Equal(t, "MY PROBE", name)

	lib.Furnsh(writeKernel(t, "rename.tpc", "KPL/FK\n\\begindata\nNAIF_BODY_NAME += 'TERRA'\nNAIF_BODY_CODE += 399\n"))
	requireOK(t, lib)

	name, _ = lib.Bodc2n(399, 33)
	assert.Equal(t, "TERRA", name, "kernel mappings take precedence")
	code, _ = lib.Bodn2c("EARTH")
	assert.Equal(t, int32(399), code, "builtin names still resolve")
}

func TestBodyNamesBadDimensions(t *testing.T) {
	lib := fresh(t)
	lib.Furnsh(writeKernel(t, "bad.tpc", "KPL/FK\n\\begindata\nNAIF_BODY_NAME = ( 'A' 'B' )\nNAIF_BODY_CODE = ( 1000 )\n"))
	requireOK(t, lib)

	lib.Bodn2c("A")
	requireFailure(t, lib, "SPICE(BADDIMENSIONS)")
}

func TestBodyConstants(t *testing.T) {
	lib := fresh(t)
	lib.Furnsh(writeKernel(t, "consts.tpc", constantsKernel))
	requireOK(t, lib)

	t.Run("by code", func(t *testing.T) {
		radii := lib.Bodvcd(399, "radii", 3)
		requireOK(t, lib)
		assert.Equal(t, []float64{6378.1366, 6378.1366, 6356.7519}, radii)
	})

	t.Run("by name", func(t *testing.T) {
		gm := lib.Bodvrd("Earth", "GM", 1)
		requireOK(t, lib)
		assert.Equal(t, []float64{398600.43543609598}, gm)
	})

	t.Run("by numeric name", func(t *testing.T) {
		gm := lib.Bodvrd("399", "GM", 1)
		requireOK(t, lib)
		require.Len(t, gm, 1)
	})

	failures := []struct {
		name  string
		call  func()
		short string
	}{
		{"missing variable", func() { lib.Bodvcd(399, "J2", 1) }, "SPICE(KERNELVARNOTFOUND)"},
		{"output too small", func() { lib.Bodvcd(399, "RADII", 2) }, "SPICE(ARRAYTOOSMALL)"},
		{"string variable", func() { lib.Bodvcd(399, "LABEL", 1) }, "SPICE(TYPEMISMATCH)"},
		{"unknown name", func() { lib.Bodvrd("NOWHERE", "GM", 1) }, "SPICE(NOTRANSLATION)"},
	}
	for _, tt := range failures {
		t.Run(tt.name, func(t *testing.T) {
			tt.call()
			requireFailure(t, lib, tt.short)
		})
	}
}
