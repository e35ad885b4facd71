// Package products implements the PPP correction-product catalog: it decodes
// archive product filenames of both naming eras into uniform records, builds a
// filtered catalog for a time window, analyzes the temporal coverage per
// analysis center and rebuilds the canonical archive filenames for download.
package products

import (
	"fmt"
	"strings"
	"time"
)

// EraSplitWeek is the GPS week from which the archives use the long
// IGS filename convention. Earlier weeks use the short 8.3 style names.
const EraSplitWeek = 2237

// Known solution types (product latency classes).
const (
	SolutionFinal      = "FIN"
	SolutionRapid      = "RAP"
	SolutionUltraRapid = "ULT"
)

// DefaultFormats are the product formats a PPP run needs: precise orbits,
// satellite clocks and code/phase biases.
var DefaultFormats = []string{"SP3", "CLK", "BIA"}

// Record describes one product file offered by the archive.
// Short-name files carry no project, resolution or content information,
// those fields stay empty.
type Record struct {
	Provider     string        // 3-char analysis center code, e.g. "COD"
	Project      string        // 3-char project/campaign code, e.g. "OPS"
	SolutionType string        // latency class: FIN, RAP, ULT
	Date         time.Time     // nominal start of the coverage interval
	Period       time.Duration // length of the coverage interval
	Resolution   string        // sampling interval, e.g. "05M"
	Content      string        // data content code, e.g. "ORB"
	Format       string        // file type: SP3, CLK, BIA, SNX, ...
}

// End returns the end instant of the records coverage interval.
func (r Record) End() time.Time {
	return r.Date.Add(r.Period)
}

// key identifies a record for de-duplication.
func (r Record) key() string {
	return strings.Join([]string{r.Provider, r.Project, r.Date.Format(time.RFC3339), r.SolutionType, r.Format}, "|")
}

func (r Record) String() string {
	return fmt.Sprintf("%s %s %s %s %s", r.Provider, r.SolutionType, r.Format, r.Date.Format("2006-01-02"), periodString(r.Period))
}

// Selection identifies the product source a user settled on.
// It is the key the archival policy compares between runs.
type Selection struct {
	Provider     string
	Project      string
	SolutionType string
}

func (s Selection) String() string {
	return s.Provider + "/" + s.Project + "/" + s.SolutionType
}

// Dedupe removes records sharing the identity
// (provider, project, date, solution type, format), keeping the first
// occurrence. The input order is preserved.
func Dedupe(recs []Record) []Record {
	seen := make(map[string]struct{}, len(recs))
	out := make([]Record, 0, len(recs))
	for _, r := range recs {
		k := r.key()
		if _, exists := seen[k]; exists {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, r)
	}
	return out
}

func periodString(d time.Duration) string {
	days := int(d / (24 * time.Hour))
	return fmt.Sprintf("%02dD", days)
}
