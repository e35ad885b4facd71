package rinex

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/SamGreenwood04/Ginan-UI/pkg/gnss"
)

var headerLines = []string{
	"     3.04           OBSERVATION DATA    M                   RINEX VERSION / TYPE",
	"ALIC                                                        MARKER NAME",
	"3027353             SEPT POLARX5        5.5.0               REC # / TYPE / VERS",
	"725063              LEIAR25.R4      NONE                    ANT # / TYPE",
	"        0.0015        0.0000        0.0000                  ANTENNA: DELTA H/E/N",
	"G    4 C1C L1C C2W L2W                                      SYS / # / OBS TYPES",
	"R    2 C1C L1C                                              SYS / # / OBS TYPES",
	"    30.000                                                  INTERVAL",
	"  2023     9    14     0     0    0.0000000     GPS         TIME OF FIRST OBS",
}

const lastObsLine = "  2023     9    14    23    59   30.0000000     GPS         TIME OF LAST OBS"
const endOfHeader = "                                                            END OF HEADER"

func fixture(withLastObs bool, epochs ...string) string {
	lines := make([]string, 0, len(headerLines)+len(epochs)+2)
	lines = append(lines, headerLines...)
	if withLastObs {
		lines = append(lines, lastObsLine)
	}
	lines = append(lines, endOfHeader)
	lines = append(lines, epochs...)
	return strings.Join(lines, "\n") + "\n"
}

func TestDecodeMeta(t *testing.T) {
	assert := assert.New(t)

	meta, err := DecodeMeta(strings.NewReader(fixture(true)))
	assert.NoError(err)

	assert.Equal("ALIC", meta.Marker)
	assert.Equal("SEPT POLARX5", meta.ReceiverType)
	assert.Equal("LEIAR25.R4      NONE", meta.AntennaType)
	assert.Equal([3]float64{0.0015, 0, 0}, meta.AntennaDelta)
	assert.Equal(gnss.Systems{gnss.SysGPS, gnss.SysGLO}, meta.Systems)
	assert.Equal(30.0, meta.Interval)
	assert.Equal(time.Date(2023, 9, 14, 0, 0, 0, 0, time.UTC), meta.FirstObs)
	assert.Equal(time.Date(2023, 9, 14, 23, 59, 30, 0, time.UTC), meta.LastObs)
}

func TestDecodeMetaEpochScan(t *testing.T) {
	assert := assert.New(t)

	// No TIME OF LAST OBS header line, the last epoch record decides.
	input := fixture(false,
		"> 2023 09 14 00 00  0.0000000  0  2",
		"G05  20835744.853 7 109491233.27107",
		"R12  21893612.302 6 117092445.91206",
		"> 2023 09 14 00 00 30.0000000  0  1",
		"G05  20835812.155 7 109491586.99307",
		"> 2023 09 14 23 59 30.0000000  0  1",
		"G05  20837420.190 7 109500033.45507",
	)

	meta, err := DecodeMeta(strings.NewReader(input))
	assert.NoError(err)
	assert.Equal(time.Date(2023, 9, 14, 0, 0, 0, 0, time.UTC), meta.FirstObs)
	assert.Equal(time.Date(2023, 9, 14, 23, 59, 30, 0, time.UTC), meta.LastObs)
}

func TestDecodeMetaErrors(t *testing.T) {
	assert := assert.New(t)

	_, err := DecodeMeta(strings.NewReader("this is not an observation file\n"))
	assert.ErrorIs(err, ErrNoHeader)

	// Header without TIME OF FIRST OBS.
	lines := append([]string{}, headerLines[:8]...)
	lines = append(lines, endOfHeader)
	_, err = DecodeMeta(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	assert.ErrorContains(err, "TIME OF FIRST OBS")

	// Header without TIME OF LAST OBS and no epoch records either.
	_, err = DecodeMeta(strings.NewReader(fixture(false)))
	assert.ErrorContains(err, "last observation")
}

func TestReadMeta(t *testing.T) {
	assert := assert.New(t)

	path := filepath.Join(t.TempDir(), "ALIC00AUS_R_20232570000_01D_30S_MO.rnx")
	assert.NoError(os.WriteFile(path, []byte(fixture(true)), 0644))

	meta, err := ReadMeta(path)
	assert.NoError(err)
	assert.Equal("ALIC", meta.Marker)
	assert.Equal("GPS+GLO", meta.Systems.String())

	_, err = ReadMeta(filepath.Join(t.TempDir(), "missing.rnx"))
	assert.Error(err)
}
