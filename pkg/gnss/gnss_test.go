package gnss

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemFromAbbr(t *testing.T) {
	assert := assert.New(t)

	sys, ok := SystemFromAbbr("G")
	assert.True(ok)
	assert.Equal(SysGPS, sys)
	assert.Equal("GPS", sys.String())

	sys, ok = SystemFromAbbr("M")
	assert.True(ok)
	assert.Equal(SysMIXED, sys)

	_, ok = SystemFromAbbr("X")
	assert.False(ok)
	_, ok = SystemFromAbbr("")
	assert.False(ok)
}

func TestSystems(t *testing.T) {
	assert := assert.New(t)

	syss := Systems{SysGPS, SysGLO, SysGAL}
	assert.Equal("GPS+GLO+GAL", syss.String())
	assert.True(syss.Contains(SysGLO))
	assert.False(syss.Contains(SysBDS))
}
