package products

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/SamGreenwood04/Ginan-UI/pkg/gpstime"
)

var (
	// ShortNamePattern is the regex for the short product filenames used before
	// GPS week 2237, e.g. "cod22360.sp3.Z".
	ShortNamePattern = regexp.MustCompile(`^([A-Za-z0-9]{3})(\d{4})(\d)\.([A-Za-z0-9]{3})(?:\.(gz|Z))?$`)

	// LongNamePattern is the regex for the long IGS product filenames used from
	// GPS week 2237 on, e.g. "COD0OPSFIN_20232570000_01D_05M_ORB.SP3.gz".
	LongNamePattern = regexp.MustCompile(`^([A-Z0-9]{3})(\d)([A-Z0-9]{3})([A-Z0-9]{3})_(\d{4})(\d{3})(\d{2})(\d{2})_(\d{2})D_(\d{2}[A-Z])_([A-Z0-9]{3})\.([A-Z0-9]{3})(?:\.(gz|Z))?$`)
)

// DecodeFilename parses an archive product filename of either naming era.
// The second return value reports whether the name is a product file at all;
// listings also contain checksum sidecars, summaries and README files, those
// simply do not take part in the catalog.
func DecodeFilename(name string) (Record, bool) {
	if len(name) > 20 {
		return decodeLongName(name)
	}
	return decodeShortName(name)
}

// decodeShortName parses names like "igs22367.snx.Z". The day digit 0 or 7
// denotes the weekly solution, 1..6 a daily one. The short era published
// final solutions only, the project code did not exist yet.
func decodeShortName(name string) (Record, bool) {
	res := ShortNamePattern.FindStringSubmatch(name)
	if res == nil {
		return Record{}, false
	}

	week, err := strconv.Atoi(res[2])
	if err != nil {
		return Record{}, false
	}
	day, err := strconv.Atoi(res[3])
	if err != nil {
		return Record{}, false
	}

	rec := Record{
		Provider:     strings.ToUpper(res[1]),
		SolutionType: SolutionFinal,
		Format:       strings.ToUpper(res[4]),
	}

	switch {
	case day == 0 || day == 7:
		rec.Date = gpstime.WeekStart(week)
		rec.Period = 7 * 24 * time.Hour
	case day > 0 && day < 7:
		rec.Date = gpstime.FromWeekDay(week, day)
		rec.Period = 24 * time.Hour
	default:
		return Record{}, false
	}

	return rec, true
}

// decodeLongName parses names like "COD0OPSFIN_20232570000_01D_05M_ORB.SP3.gz"
// by their fixed-width fields.
func decodeLongName(name string) (Record, bool) {
	res := LongNamePattern.FindStringSubmatch(name)
	if res == nil {
		return Record{}, false
	}

	rec := Record{Provider: res[1], Project: res[3], SolutionType: res[4]}

	year, err := strconv.Atoi(res[5])
	if err != nil {
		return Record{}, false
	}
	doy, err := strconv.Atoi(res[6])
	if err != nil {
		return Record{}, false
	}
	hour, _ := strconv.Atoi(res[7])
	min, _ := strconv.Atoi(res[8])
	rec.Date = gpstime.FromDoy(year, doy).Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)

	days, err := strconv.Atoi(res[9])
	if err != nil {
		return Record{}, false
	}
	rec.Period = time.Duration(days) * 24 * time.Hour

	rec.Resolution = res[10]
	rec.Content = res[11]
	rec.Format = res[12]

	return rec, true
}

// DownloadFilename returns the filename to request from the archive for the
// record, compression suffix included: the short era stores files Unix
// compressed, the long era gzipped. Which era applies follows from the
// records date.
func (r Record) DownloadFilename() (string, error) {
	if gpstime.Week(r.Date) < EraSplitWeek {
		return r.shortName()
	}
	return r.longName()
}

// shortName encodes the pre-2237 convention. The archive stores these names
// lower-cased. Weekly files get the day digit 7.
func (r Record) shortName() (string, error) {
	if len(r.Provider) != 3 {
		return "", fmt.Errorf("provider: %q", r.Provider)
	}
	if len(r.Format) != 3 {
		return "", fmt.Errorf("format: %q", r.Format)
	}

	day := 7
	if r.Period != 7*24*time.Hour {
		day = gpstime.DayOfWeek(r.Date)
	}

	fn := fmt.Sprintf("%s%04d%d.%s.Z", strings.ToLower(r.Provider), gpstime.Week(r.Date), day, strings.ToLower(r.Format))
	if len(fn) != 14 {
		return "", fmt.Errorf("wrong filename length: %s: %d (should: %d)", fn, len(fn), 14)
	}
	return fn, nil
}

// longName encodes the long IGS convention, solution version digit fixed to 0.
func (r Record) longName() (string, error) {
	for _, f := range []struct{ name, val string }{
		{"provider", r.Provider}, {"project", r.Project}, {"solution type", r.SolutionType},
		{"resolution", r.Resolution}, {"content", r.Content}, {"format", r.Format},
	} {
		if len(f.val) != 3 {
			return "", fmt.Errorf("%s: %q", f.name, f.val)
		}
	}

	var fn strings.Builder
	fn.WriteString(r.Provider)
	fn.WriteString("0")
	fn.WriteString(r.Project)
	fn.WriteString(r.SolutionType)
	fn.WriteString("_")

	fn.WriteString(strconv.Itoa(r.Date.Year()))
	fn.WriteString(fmt.Sprintf("%03d", r.Date.YearDay()))
	fn.WriteString(fmt.Sprintf("%02d", r.Date.Hour()))
	fn.WriteString(fmt.Sprintf("%02d", r.Date.Minute()))
	fn.WriteString("_")

	fn.WriteString(periodString(r.Period))
	fn.WriteString("_")

	fn.WriteString(r.Resolution)
	fn.WriteString("_")

	fn.WriteString(r.Content)
	fn.WriteString(".")
	fn.WriteString(r.Format)
	fn.WriteString(".gz")

	length := len(fn.String())
	if length != 41 {
		return "", fmt.Errorf("wrong filename length: %s: %d (should: %d)", fn.String(), length, 41)
	}

	return fn.String(), nil
}
