package products

import (
	"sort"
	"strings"
)

// Pair is a (project, solution type) combination a provider offers.
type Pair struct {
	Project      string
	SolutionType string
}

// Providers returns the distinct providers in the record set, sorted.
func Providers(recs []Record) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, r := range recs {
		if _, dup := seen[r.Provider]; dup {
			continue
		}
		seen[r.Provider] = struct{}{}
		out = append(out, r.Provider)
	}
	sort.Strings(out)
	return out
}

// PairsFor returns the distinct (project, solution type) pairs the given
// provider offers, sorted. Narrowing by provider first and pair second is how
// a caller walks the catalog down to a concrete selection.
func PairsFor(recs []Record, provider string) []Pair {
	seen := make(map[Pair]struct{})
	var out []Pair
	for _, r := range recs {
		if r.Provider != provider {
			continue
		}
		p := Pair{Project: r.Project, SolutionType: r.SolutionType}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Project != out[j].Project {
			return out[i].Project < out[j].Project
		}
		return out[i].SolutionType < out[j].SolutionType
	})
	return out
}

// Filter returns the records matching the selection. Empty selection fields
// match anything. An empty result is a valid outcome, callers are expected to
// widen the window or change the selection, not to handle an error.
func Filter(recs []Record, sel Selection) []Record {
	var out []Record
	for _, r := range recs {
		if sel.Provider != "" && r.Provider != sel.Provider {
			continue
		}
		if sel.Project != "" && r.Project != sel.Project {
			continue
		}
		if sel.SolutionType != "" && r.SolutionType != sel.SolutionType {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Offerings returns one summary line per provider naming the formats and the
// solution types published for each, e.g. "COD offers: CLK(FIN/RAP) SP3(FIN)".
// Lines are sorted by provider.
func Offerings(recs []Record) []string {
	types := make(map[string]map[string]map[string]struct{}) // provider -> format -> solution types
	for _, r := range recs {
		if types[r.Provider] == nil {
			types[r.Provider] = make(map[string]map[string]struct{})
		}
		if types[r.Provider][r.Format] == nil {
			types[r.Provider][r.Format] = make(map[string]struct{})
		}
		types[r.Provider][r.Format][r.SolutionType] = struct{}{}
	}

	lines := make([]string, 0, len(types))
	for _, provider := range Providers(recs) {
		formats := make([]string, 0, len(types[provider]))
		for f := range types[provider] {
			formats = append(formats, f)
		}
		sort.Strings(formats)

		parts := make([]string, 0, len(formats))
		for _, f := range formats {
			solutions := make([]string, 0, len(types[provider][f]))
			for s := range types[provider][f] {
				solutions = append(solutions, s)
			}
			sort.Strings(solutions)
			parts = append(parts, f+"("+strings.Join(solutions, "/")+")")
		}
		lines = append(lines, provider+" offers: "+strings.Join(parts, " "))
	}

	return lines
}
