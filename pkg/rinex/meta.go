// Package rinex reads the metadata a processing run needs from RINEX
// observation files: the observation window, the sampling interval and the
// receiver and antenna setup. Observation data itself is not decoded.
package rinex

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/SamGreenwood04/Ginan-UI/pkg/gnss"
)

// ErrNoHeader is returned when the input does not begin with a RINEX header.
var ErrNoHeader = errors.New("rinex: no header")

// epochTimeFormat is the time format for epoch times in RINEX version 3 files.
// Header time fields use wider columns but only differ in padding.
const epochTimeFormat string = "2006  1  2 15  4  5.0000000"

// Meta holds the observation file metadata.
type Meta struct {
	Marker       string
	ReceiverType string
	AntennaType  string
	AntennaDelta [3]float64 // antenna eccentricity in meters: height, east, north

	// Systems are the satellite systems observation types are declared for.
	Systems gnss.Systems

	Interval float64 // sampling interval in seconds
	FirstObs time.Time
	LastObs  time.Time
}

// ReadMeta reads the metadata of the observation file at path.
func ReadMeta(path string) (Meta, error) {
	r, err := os.Open(path)
	if err != nil {
		return Meta{}, err
	}
	defer r.Close()
	return DecodeMeta(r)
}

// DecodeMeta reads the header of a RINEX observation stream. Files without a
// TIME OF LAST OBS header line get their epoch records scanned for the last
// epoch, which reads the whole stream.
func DecodeMeta(r io.Reader) (Meta, error) {
	var meta Meta
	var fileSys gnss.System

	sc := bufio.NewScanner(r)
	lineNum := 0

readln:
	for sc.Scan() {
		lineNum++
		line := sc.Text()

		if lineNum == 1 {
			if !strings.Contains(line, "RINEX VERS") { // "CRINEX VERS   / TYPE" or "RINEX VERSION / TYPE"
				return meta, ErrNoHeader
			}
		}

		if len(line) < 60 {
			continue
		}

		val := line[:60] // RINEX files are ASCII
		key := strings.TrimSpace(line[60:])

		switch key {
		case "RINEX VERSION / TYPE":
			if sys, ok := gnss.SystemFromAbbr(strings.TrimSpace(val[40:41])); ok {
				fileSys = sys
			}
		case "MARKER NAME":
			meta.Marker = strings.TrimSpace(val)
		case "REC # / TYPE / VERS":
			meta.ReceiverType = strings.TrimSpace(val[20:40])
		case "ANT # / TYPE":
			meta.AntennaType = strings.TrimSpace(val[20:40])
		case "ANTENNA: DELTA H/E/N":
			ecc := strings.Fields(val)
			if len(ecc) != 3 {
				return meta, fmt.Errorf("parse antenna deltas from line: %s", line)
			}
			for i, f := range ecc {
				if f64, err := strconv.ParseFloat(f, 64); err == nil {
					meta.AntennaDelta[i] = f64
				}
			}
		case "SYS / # / OBS TYPES":
			if val[:1] == " " { // continuation line
				continue
			}
			if sys, ok := gnss.SystemFromAbbr(val[:1]); ok && !meta.Systems.Contains(sys) {
				meta.Systems = append(meta.Systems, sys)
			}
		case "INTERVAL":
			if f64, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
				meta.Interval = f64
			}
		case "TIME OF FIRST OBS":
			t, err := time.Parse(epochTimeFormat, strings.TrimSpace(val[:43]))
			if err != nil {
				return meta, fmt.Errorf("parse %q: %v", key, err)
			}
			meta.FirstObs = t
		case "TIME OF LAST OBS":
			t, err := time.Parse(epochTimeFormat, strings.TrimSpace(val[:43]))
			if err != nil {
				return meta, fmt.Errorf("parse %q: %v", key, err)
			}
			meta.LastObs = t
		case "END OF HEADER":
			break readln
		}
	}

	if meta.FirstObs.IsZero() {
		return meta, fmt.Errorf("missing TIME OF FIRST OBS")
	}

	if meta.LastObs.IsZero() {
		for sc.Scan() {
			line := sc.Text()
			if !strings.HasPrefix(line, "> ") || len(line) < 29 {
				continue
			}
			if t, err := time.Parse(epochTimeFormat, line[2:29]); err == nil {
				meta.LastObs = t
			}
		}
	}
	if err := sc.Err(); err != nil {
		return meta, err
	}
	if meta.LastObs.IsZero() {
		return meta, fmt.Errorf("could not determine the last observation epoch")
	}

	// The version line names a single system, version 2 files declare their
	// observation types without one.
	if len(meta.Systems) == 0 && fileSys != 0 && fileSys != gnss.SysMIXED {
		meta.Systems = gnss.Systems{fileSys}
	}

	return meta, nil
}
